package models

// Phase is the external entry point contract a Turn runs under (spec §4.8, §6).
type Phase int

const (
	// PhaseDirect bypasses the Supervisor: Query Parser -> Hybrid Retriever
	// (lexical-only) against the Catalog Store directly.
	PhaseDirect Phase = 1
	// PhaseMediated behaves like PhaseDirect but routes Catalog Store access
	// through the mediated tool-server transport.
	PhaseMediated Phase = 2
	// PhaseAgentic runs the full Supervisor / worker loop with hybrid retrieval.
	PhaseAgentic Phase = 3
)

// TurnRequest is the public entry point's input (spec §6 Turn-level RPC).
type TurnRequest struct {
	Phase          Phase
	Message        string
	ImageBytes     []byte
	CustomerID     string
	ConversationID string
}

// TurnResult is the public entry point's output (spec §6).
type TurnResult struct {
	ReplyText           string           `json:"reply_text"`
	Products            []ScoredProduct  `json:"products,omitempty"`
	Order               *Order           `json:"order,omitempty"`
	ActivityTrace       []*ActivityEvent `json:"activity_trace"`
	FollowUpSuggestions []string         `json:"follow_ups,omitempty"`
}
