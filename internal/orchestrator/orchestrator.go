// Package orchestrator implements the Turn Orchestrator (spec §4.8), the
// single public entry point that accepts a turn, drives either a direct
// retrieval path or the full Supervisor depending on phase, and assembles
// the reply plus activity trace.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopsage/shopsage/internal/activity"
	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/queryparse"
	"github.com/shopsage/shopsage/internal/retrieval"
	"github.com/shopsage/shopsage/internal/shopsageerr"
	"github.com/shopsage/shopsage/internal/supervisor"
)

const defaultTurnDeadline = 30 * time.Second
const defaultSearchLimit = 5

// Sink is satisfied by activity.ChannelSink; kept as an interface here so
// the Orchestrator doesn't force every caller to construct one.
type Sink = activity.Sink

// Orchestrator is the Turn Orchestrator.
type Orchestrator struct {
	directRetriever   *retrieval.Retriever
	mediatedRetriever *retrieval.Retriever
	supervisor        *supervisor.Supervisor
	turnDeadline      time.Duration
}

// New constructs an Orchestrator. directRetriever serves Phase 1, and
// mediatedRetriever serves Phase 2 (constructed over the mediated
// tool-server transport by the caller, even though retrieval's own logic is
// identical between the two — the activity trace is what differs). sup
// drives Phase 3. turnDeadline of 0 selects the default (30s).
func New(directRetriever, mediatedRetriever *retrieval.Retriever, sup *supervisor.Supervisor, turnDeadline time.Duration) *Orchestrator {
	if turnDeadline <= 0 {
		turnDeadline = defaultTurnDeadline
	}
	return &Orchestrator{
		directRetriever:   directRetriever,
		mediatedRetriever: mediatedRetriever,
		supervisor:        sup,
		turnDeadline:      turnDeadline,
	}
}

// HandleTurn implements handle_turn(phase, message?, image?, customer_id?)
// -> TurnResult (spec §4.8).
func (o *Orchestrator) HandleTurn(ctx context.Context, req models.TurnRequest, sink Sink) (*models.TurnResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.turnDeadline)
	defer cancel()

	turnID := newTurnID()
	rec := activity.New(turnID, sink)

	var result *models.TurnResult
	var err error

	switch req.Phase {
	case models.PhaseDirect:
		result, err = o.handleDirect(ctx, rec, req, o.directRetriever, "direct")
	case models.PhaseMediated:
		result, err = o.handleDirect(ctx, rec, req, o.mediatedRetriever, "mediated")
	case models.PhaseAgentic:
		result, err = o.handleAgentic(ctx, rec, req)
	default:
		return nil, fmt.Errorf("orchestrator: unknown phase %d", req.Phase)
	}

	// Internal failures never propagate as transport errors (spec §7): the
	// Orchestrator always returns a successful TurnResult, recording the
	// failure in the activity trace and falling back to a user-facing
	// apology. Only a malformed request (an unknown phase, caught above
	// without recording an event) surfaces as a transport-level error.
	if err != nil {
		kind := models.ActivityError
		title := "Turn failed"
		reply := "I couldn't complete that — please try again."
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			title = "Turn exceeded its deadline"
			reply = "That took longer than expected — please try again."
		} else if errors.Is(err, shopsageerr.ErrLoopExhausted) {
			title = "Tool-calling loop exhausted"
		}
		rec.Record(&models.ActivityEvent{
			Kind:    kind,
			Title:   title,
			Details: err.Error(),
		})
		return &models.TurnResult{
			ReplyText:     reply,
			ActivityTrace: rec.Take(),
		}, nil
	}

	result.ActivityTrace = rec.Take()
	return result, nil
}

// handleDirect implements Phase 1 and Phase 2 (spec §4.8): Query Parser ->
// Hybrid Retriever in lexical-only mode, bypassing the Supervisor entirely.
// The two phases differ only in which retriever (and therefore which
// Catalog Store transport) is plugged in; the algorithm is identical.
func (o *Orchestrator) handleDirect(ctx context.Context, rec *activity.Recorder, req models.TurnRequest, retriever *retrieval.Retriever, label string) (*models.TurnResult, error) {
	parsed := queryparse.Parse(req.Message)
	rec.Record(&models.ActivityEvent{
		Kind:  models.ActivityReasoning,
		Title: fmt.Sprintf("Parsed query (%s transport)", label),
	})

	products, err := retriever.Retrieve(ctx, parsed, nil, defaultSearchLimit)
	if err != nil {
		rec.Record(&models.ActivityEvent{
			Kind:    models.ActivityError,
			Title:   "Retrieval failed",
			Details: err.Error(),
		})
		return nil, err
	}

	rec.Record(&models.ActivityEvent{
		Kind:  models.ActivitySearch,
		Title: fmt.Sprintf("Ran lexical-only retrieval (%s)", label),
	})

	return &models.TurnResult{
		ReplyText:           summaryMessage(len(products)),
		Products:            products,
		FollowUpSuggestions: followUpsForSearch(parsed),
	}, nil
}

// handleAgentic implements Phase 3 (spec §4.8): the full Supervisor loop.
func (o *Orchestrator) handleAgentic(ctx context.Context, rec *activity.Recorder, req models.TurnRequest) (*models.TurnResult, error) {
	if o.supervisor == nil {
		return nil, fmt.Errorf("orchestrator: phase 3 requested but no supervisor is configured")
	}
	out, err := o.supervisor.Run(ctx, rec, req.Message, req.ImageBytes, req.CustomerID)
	if err != nil {
		return nil, err
	}

	result := &models.TurnResult{
		ReplyText: out.ReplyText,
		Products:  out.Products,
		Order:     out.Order,
	}
	if out.Order != nil {
		result.FollowUpSuggestions = nil
	} else if len(out.Products) > 0 {
		result.FollowUpSuggestions = followUpsForProducts(out.Products)
	}
	return result, nil
}

// followUpsForSearch derives 3 related category queries from the parsed
// query's own category when present, else from the catalog's declared
// category order (spec §4.8: "a small deterministic function of the result
// shape").
func followUpsForSearch(parsed *queryparse.ParsedQuery) []string {
	return followUpCategories(parsed.Category, parsed.HasCategory)
}

func followUpsForProducts(products []models.ScoredProduct) []string {
	if len(products) == 0 {
		return nil
	}
	return followUpCategories(products[0].Product.Category, true)
}

func followUpCategories(preferred models.Category, hasPreferred bool) []string {
	suggestions := make([]string, 0, 3)
	if hasPreferred {
		suggestions = append(suggestions, fmt.Sprintf("Show me more %s", preferred))
	}
	for _, cat := range models.Categories {
		if len(suggestions) >= 3 {
			break
		}
		if hasPreferred && cat == preferred {
			continue
		}
		suggestions = append(suggestions, fmt.Sprintf("Show me %s", cat))
	}
	return suggestions
}

func summaryMessage(count int) string {
	if count == 0 {
		return "I couldn't find any matching products."
	}
	if count == 1 {
		return "I found 1 product that matches."
	}
	return fmt.Sprintf("I found %d products that match.", count)
}
