package models

import "time"

// ActivityKind is the closed set of activity event kinds a turn can emit.
type ActivityKind string

const (
	ActivityReasoning  ActivityKind = "reasoning"
	ActivityDelegation ActivityKind = "delegation"
	ActivityEmbedding  ActivityKind = "embedding"
	ActivitySearch     ActivityKind = "search"
	ActivityDatabase   ActivityKind = "database"
	ActivityMCP        ActivityKind = "mcp"
	ActivityInventory  ActivityKind = "inventory"
	ActivityOrder      ActivityKind = "order"
	ActivityToolCall   ActivityKind = "tool_call"
	ActivityResult     ActivityKind = "result"
	ActivityError      ActivityKind = "error"
)

// ActivityEvent is one append-only entry in a turn's activity trace.
type ActivityEvent struct {
	ID             int64        `json:"id"`
	TurnID         string       `json:"turn_id"`
	Timestamp      time.Time    `json:"timestamp"`
	Kind           ActivityKind `json:"kind"`
	Title          string       `json:"title"`
	Details        string       `json:"details,omitempty"`
	SQLText        string       `json:"sql_text,omitempty"`
	LatencyMS      int64        `json:"latency_ms,omitempty"`
	WorkerName     string       `json:"worker_name,omitempty"`
	SourceLocation string       `json:"source_location,omitempty"`
}
