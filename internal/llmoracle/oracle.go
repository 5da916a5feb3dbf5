// Package llmoracle provides the LLM Oracle (spec §3 L2): given a prompt and
// a tool catalog, return either a final textual answer or one tool
// invocation. The tool catalog is a closed set of three delegations,
// modeled as a tagged variant per spec §9 rather than a dynamic dispatch
// table, so the Supervisor never has to interpret an arbitrary tool name.
package llmoracle

import (
	"context"

	"github.com/shopsage/shopsage/internal/models"
)

// DelegationKind names one of the Supervisor's three tools.
type DelegationKind string

const (
	DelegationSearch  DelegationKind = "delegate_search"
	DelegationProduct DelegationKind = "delegate_product"
	DelegationOrder   DelegationKind = "delegate_order"
)

// SearchArgs is the payload for DelegationSearch. Exactly one of Query or
// ImageBytes is expected to be set, matching Worker: Search's two entry
// points (text_search, image_search).
type SearchArgs struct {
	Query      string
	ImageBytes []byte
	Limit      int
}

// ProductArgs is the payload for DelegationProduct.
type ProductArgs struct {
	ProductID string
	Size      string
	// Action selects between the two Worker: Product operations; "details"
	// or "inventory". Empty defaults to "details".
	Action string
}

// OrderArgs is the payload for DelegationOrder.
type OrderArgs struct {
	CustomerID string
	Items      []models.OrderItemRequest
}

// Delegation is the tagged-variant equivalent of Delegation = Search{...} |
// Product{...} | Order{...} from spec §9. Exactly one of Search, Product, or
// Order is populated, selected by Kind.
type Delegation struct {
	Kind    DelegationKind
	Search  *SearchArgs
	Product *ProductArgs
	Order   *OrderArgs
}

// ToolOutput is one entry of the accumulated tool-call history threaded back
// into the prompt on each loop iteration (spec §4.6 step 1).
type ToolOutput struct {
	Tool   DelegationKind
	Result any
}

// Prompt is what the Supervisor hands the oracle on each turn of the loop:
// a fixed system description, the user's message, and whatever tool outputs
// have accumulated so far within this call.
type Prompt struct {
	System      string
	Message     string
	ImageBytes  []byte
	ToolOutputs []ToolOutput
}

// Response is either a final answer (Final=true, Text populated) or exactly
// one tool invocation (Final=false, Delegation populated).
type Response struct {
	Final      bool
	Text       string
	Delegation *Delegation
}

// Oracle is the LLM Oracle. Next is called once per loop iteration; it must
// not retain the Prompt across calls — the Supervisor re-sends the full
// accumulated context every time.
type Oracle interface {
	Next(ctx context.Context, prompt Prompt) (*Response, error)
}
