// Package supervisor implements the Supervisor (spec §4.6): it drives the
// LLM Oracle in a bounded tool-calling loop, dispatching to one of the
// three Workers per turn of the loop and assembling a single reply. The
// Supervisor itself never touches the Catalog Store — every side effect
// goes through an injected Worker.
package supervisor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopsage/shopsage/internal/activity"
	"github.com/shopsage/shopsage/internal/llmoracle"
	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/shopsageerr"
	"github.com/shopsage/shopsage/internal/workers"
)

const systemPrompt = `You are a shopping assistant. You can delegate to a search worker to find products, a product worker to look up details or inventory, and an order worker to place orders. Respond with a final answer once you have everything the customer needs.`

// Result is what the Supervisor hands back to the Turn Orchestrator.
type Result struct {
	ReplyText string
	Products  []models.ScoredProduct
	Order     *models.Order
}

// Supervisor routes a turn to Workers via the LLM Oracle's tool-calling, or
// — in deterministic mode — via a fixed keyword routing table that bypasses
// the oracle entirely (spec §4.6's requirement for a testable, model-free
// path).
type Supervisor struct {
	oracle        llmoracle.Oracle
	search        *workers.SearchWorker
	product       *workers.ProductWorker
	order         *workers.OrderWorker
	maxToolCalls  int
	routingTable  []RouteRule
	deterministic bool
}

// RouteRule is one entry of a deterministic routing table: if Keyword
// appears in the turn's message, the turn is delegated to Kind. Rules are
// checked in slice order, so the first match wins reproducibly — unlike a
// map, a slice gives the same precedence on every call and across process
// restarts.
type RouteRule struct {
	Keyword string
	Kind    llmoracle.DelegationKind
}

// Option configures a Supervisor at construction time.
type Option func(*Supervisor)

// WithDeterministicRouting switches the Supervisor into deterministic mode:
// instead of asking the oracle, it inspects the message for each rule's
// keyword in order and dispatches to the first match. If no rule matches,
// the turn falls back to Worker: Search with the full message as the query
// — deterministic mode still routes every turn to a worker, it just can't
// ask an oracle to pick which one. This is the production routing mode when
// no live llmoracle.Oracle is configured, not merely a test harness path.
func WithDeterministicRouting(rules []RouteRule) Option {
	return func(s *Supervisor) {
		s.deterministic = true
		s.routingTable = rules
	}
}

// New constructs a Supervisor with its Workers and bound tool-call limit.
func New(oracle llmoracle.Oracle, search *workers.SearchWorker, product *workers.ProductWorker, order *workers.OrderWorker, maxToolCalls int, opts ...Option) *Supervisor {
	if maxToolCalls <= 0 {
		maxToolCalls = 5
	}
	s := &Supervisor{oracle: oracle, search: search, product: product, order: order, maxToolCalls: maxToolCalls}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the tool-calling loop to completion for one turn (spec §4.6).
func (s *Supervisor) Run(ctx context.Context, rec *activity.Recorder, message string, imageBytes []byte, customerID string) (*Result, error) {
	if s.deterministic {
		return s.runDeterministic(ctx, rec, message, imageBytes, customerID)
	}
	return s.runOracle(ctx, rec, message, imageBytes, customerID)
}

// runDeterministic bypasses the oracle: the first matching keyword in the
// routing table selects exactly one worker dispatch, with no further loop.
// A message matching no rule still routes — to Worker: Search, treating the
// whole message as the query — so deterministic mode always dispatches to
// some worker, the way spec §4.6 describes the Supervisor's job.
func (s *Supervisor) runDeterministic(ctx context.Context, rec *activity.Recorder, message string, imageBytes []byte, customerID string) (*Result, error) {
	kind, ok := matchRoute(s.routingTable, message)
	if !ok {
		kind = llmoracle.DelegationSearch
	}
	delegation := &llmoracle.Delegation{Kind: kind}
	switch kind {
	case llmoracle.DelegationSearch:
		delegation.Search = &llmoracle.SearchArgs{Query: message, ImageBytes: imageBytes}
	case llmoracle.DelegationProduct:
		delegation.Product = &llmoracle.ProductArgs{Action: "details"}
	case llmoracle.DelegationOrder:
		delegation.Order = &llmoracle.OrderArgs{CustomerID: customerID, Items: parseOrderItems(message)}
	}
	return s.dispatchOnce(ctx, rec, delegation)
}

// orderMessagePattern matches the synthetic order message handleOrder
// builds ("order <quantity> of <product_id>[ size <size>]"), so deterministic
// routing can recover structured line items from it. It is the deterministic
// counterpart of an oracle that would have parsed the same slots out of a
// free-form order request itself.
var orderMessagePattern = regexp.MustCompile(`(?i)^order (\d+) of (\S+?)(?: size (\S+))?$`)

// parseOrderItems extracts a single OrderItemRequest from message if it
// matches orderMessagePattern, else returns nil. A nil/empty result causes
// dispatchOrder to fail with shopsageerr.ErrMissingField, the same as any
// other order request missing its items.
func parseOrderItems(message string) []models.OrderItemRequest {
	m := orderMessagePattern.FindStringSubmatch(message)
	if m == nil {
		return nil
	}
	quantity, err := strconv.Atoi(m[1])
	if err != nil || quantity < 1 {
		return nil
	}
	return []models.OrderItemRequest{{ProductID: m[2], Size: m[3], Quantity: quantity}}
}

// runOracle implements the bounded tool-calling loop (spec §4.6 steps 1-4).
func (s *Supervisor) runOracle(ctx context.Context, rec *activity.Recorder, message string, imageBytes []byte, customerID string) (*Result, error) {
	prompt := llmoracle.Prompt{System: systemPrompt, Message: message, ImageBytes: imageBytes}
	result := &Result{}
	consecutiveErrors := 0

	for i := 0; i < s.maxToolCalls; i++ {
		resp, err := s.oracle.Next(ctx, prompt)
		if err != nil {
			return nil, &shopsageerr.LLMFailureError{Reason: err}
		}
		if resp.Final {
			result.ReplyText = resp.Text
			return result, nil
		}
		if resp.Delegation == nil {
			return nil, &shopsageerr.LLMFailureError{Reason: fmt.Errorf("oracle returned neither a final answer nor a delegation")}
		}

		rec.Record(&models.ActivityEvent{
			Kind:       models.ActivityDelegation,
			Title:      fmt.Sprintf("Delegating to %s", resp.Delegation.Kind),
			WorkerName: string(resp.Delegation.Kind),
		})

		if resp.Delegation.Kind == llmoracle.DelegationOrder && resp.Delegation.Order != nil {
			resp.Delegation.Order.CustomerID = customerID
		}

		out, dispatchErr := s.dispatch(ctx, rec, resp.Delegation, result)
		if dispatchErr != nil {
			consecutiveErrors++
			rec.Record(&models.ActivityEvent{
				Kind:    models.ActivityError,
				Title:   "Worker dispatch failed",
				Details: dispatchErr.Error(),
			})
			if consecutiveErrors >= 2 {
				result.ReplyText = "I couldn't complete that — please try again."
				return result, nil
			}
			prompt.ToolOutputs = append(prompt.ToolOutputs, llmoracle.ToolOutput{
				Tool:   resp.Delegation.Kind,
				Result: map[string]string{"error": dispatchErr.Error()},
			})
			continue
		}
		consecutiveErrors = 0

		rec.Record(&models.ActivityEvent{
			Kind:       models.ActivityResult,
			Title:      fmt.Sprintf("%s returned", resp.Delegation.Kind),
			WorkerName: string(resp.Delegation.Kind),
		})
		prompt.ToolOutputs = append(prompt.ToolOutputs, llmoracle.ToolOutput{Tool: resp.Delegation.Kind, Result: out})
	}

	return nil, shopsageerr.ErrLoopExhausted
}

// dispatch calls the Worker named by delegation and folds its output into
// result, returning the raw tool output for the oracle's next prompt.
func (s *Supervisor) dispatch(ctx context.Context, rec *activity.Recorder, delegation *llmoracle.Delegation, result *Result) (any, error) {
	switch delegation.Kind {
	case llmoracle.DelegationSearch:
		return s.dispatchSearch(ctx, rec, delegation.Search, result)
	case llmoracle.DelegationProduct:
		return s.dispatchProduct(ctx, rec, delegation.Product, result)
	case llmoracle.DelegationOrder:
		return s.dispatchOrder(ctx, rec, delegation.Order, result)
	default:
		return nil, fmt.Errorf("unknown delegation kind %q", delegation.Kind)
	}
}

// dispatchOnce runs a single delegation and assembles a Result directly,
// for deterministic mode, which never loops.
func (s *Supervisor) dispatchOnce(ctx context.Context, rec *activity.Recorder, delegation *llmoracle.Delegation) (*Result, error) {
	rec.Record(&models.ActivityEvent{
		Kind:       models.ActivityDelegation,
		Title:      fmt.Sprintf("Delegating to %s", delegation.Kind),
		WorkerName: string(delegation.Kind),
	})
	result := &Result{}
	if _, err := s.dispatch(ctx, rec, delegation, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Supervisor) dispatchSearch(ctx context.Context, rec *activity.Recorder, args *llmoracle.SearchArgs, result *Result) (*workers.SearchResult, error) {
	if args == nil {
		return nil, shopsageerr.ErrMissingField
	}
	limit := args.Limit
	var out *workers.SearchResult
	var err error
	if len(args.ImageBytes) > 0 {
		out, err = s.search.ImageSearch(ctx, rec, args.ImageBytes, limit)
	} else {
		out, err = s.search.TextSearch(ctx, rec, args.Query, limit)
	}
	if err != nil {
		return nil, err
	}
	result.Products = out.Products
	result.ReplyText = out.Message
	return out, nil
}

func (s *Supervisor) dispatchProduct(ctx context.Context, rec *activity.Recorder, args *llmoracle.ProductArgs, result *Result) (any, error) {
	if args == nil {
		return nil, shopsageerr.ErrMissingField
	}
	if args.Action == "inventory" {
		status, err := s.product.CheckInventory(ctx, rec, args.ProductID, args.Size)
		if err != nil {
			return nil, err
		}
		return status, nil
	}
	p, err := s.product.GetDetails(ctx, rec, args.ProductID)
	if err != nil {
		return nil, err
	}
	result.Products = []models.ScoredProduct{{Product: p}}
	return p, nil
}

func (s *Supervisor) dispatchOrder(ctx context.Context, rec *activity.Recorder, args *llmoracle.OrderArgs, result *Result) (*models.Order, error) {
	if args == nil {
		return nil, shopsageerr.ErrMissingField
	}
	order, err := s.order.Place(ctx, rec, args.CustomerID, args.Items)
	if err != nil {
		return nil, err
	}
	result.Order = order
	return order, nil
}

// matchRoute returns the Kind of the first rule (in table order) whose
// Keyword appears in message, case-insensitively. Checking the rules in
// slice order, rather than a map's randomized iteration order, is what
// makes deterministic mode actually deterministic when two keywords both
// appear in one message.
func matchRoute(table []RouteRule, message string) (llmoracle.DelegationKind, bool) {
	for _, rule := range table {
		if containsFold(message, rule.Keyword) {
			return rule.Kind, true
		}
	}
	return "", false
}

func containsFold(haystack, needle string) bool {
	hl, nl := len(haystack), len(needle)
	if nl == 0 || nl > hl {
		return false
	}
	for i := 0; i+nl <= hl; i++ {
		if equalFold(haystack[i:i+nl], needle) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
