package activity

import (
	"sync"
	"testing"

	"github.com/shopsage/shopsage/internal/models"
)

func TestRecorder_AssignsMonotonicIDs(t *testing.T) {
	r := New("turn-1", nil)
	r.Record(&models.ActivityEvent{Kind: models.ActivityReasoning, Title: "a"})
	r.Record(&models.ActivityEvent{Kind: models.ActivitySearch, Title: "b"})
	r.Record(&models.ActivityEvent{Kind: models.ActivityResult, Title: "c"})

	trace := r.Take()
	if len(trace) != 3 {
		t.Fatalf("expected 3 events, got %d", len(trace))
	}
	for i, ev := range trace {
		if ev.ID != int64(i+1) {
			t.Errorf("event %d: expected id %d, got %d", i, i+1, ev.ID)
		}
		if ev.TurnID != "turn-1" {
			t.Errorf("expected turn_id stamped, got %q", ev.TurnID)
		}
	}
}

func TestRecorder_TakeResets(t *testing.T) {
	r := New("turn-1", nil)
	r.Record(&models.ActivityEvent{Kind: models.ActivityReasoning, Title: "a"})
	first := r.Take()
	if len(first) != 1 {
		t.Fatalf("expected 1 event, got %d", len(first))
	}
	second := r.Take()
	if len(second) != 0 {
		t.Fatalf("expected empty trace after take, got %d", len(second))
	}
}

func TestRecorder_TraceOrderingInvariant(t *testing.T) {
	r := New("turn-1", nil)
	for i := 0; i < 5; i++ {
		r.Record(&models.ActivityEvent{Kind: models.ActivityReasoning, Title: "x"})
	}
	trace := r.Take()
	for i := 1; i < len(trace); i++ {
		if trace[i].ID <= trace[i-1].ID {
			t.Fatalf("expected strictly increasing id, got %d then %d", trace[i-1].ID, trace[i].ID)
		}
		if trace[i].Timestamp.Before(trace[i-1].Timestamp) {
			t.Fatalf("expected non-decreasing timestamp")
		}
	}
}

func TestRecorder_ConcurrentRecordIsTotallyOrdered(t *testing.T) {
	r := New("turn-1", nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Record(&models.ActivityEvent{Kind: models.ActivityResult, Title: "concurrent"})
		}(i)
	}
	wg.Wait()

	trace := r.Take()
	if len(trace) != 20 {
		t.Fatalf("expected 20 events, got %d", len(trace))
	}
	seen := make(map[int64]bool)
	for _, ev := range trace {
		if seen[ev.ID] {
			t.Fatalf("duplicate id %d", ev.ID)
		}
		seen[ev.ID] = true
	}
}

func TestRecorder_PushesToSink(t *testing.T) {
	sink := NewChannelSink(4)
	r := New("turn-1", sink)
	r.Record(&models.ActivityEvent{Kind: models.ActivitySearch, Title: "a"})
	select {
	case ev := <-sink.Events():
		if ev.Title != "a" {
			t.Errorf("unexpected event pushed: %+v", ev)
		}
	default:
		t.Fatal("expected event pushed to sink")
	}
}

func TestChannelSink_DropsWhenFull(t *testing.T) {
	sink := NewChannelSink(1)
	r := New("turn-1", sink)
	r.Record(&models.ActivityEvent{Kind: models.ActivitySearch, Title: "first"})
	r.Record(&models.ActivityEvent{Kind: models.ActivitySearch, Title: "second"})

	// Recorder itself must never block on a full sink buffer; this completing
	// at all (rather than hanging) is the behavior under test.
	trace := r.Take()
	if len(trace) != 2 {
		t.Fatalf("expected both events retained by the recorder regardless of sink backpressure, got %d", len(trace))
	}
}

func TestRecorder_Peek_DoesNotReset(t *testing.T) {
	r := New("turn-1", nil)
	r.Record(&models.ActivityEvent{Kind: models.ActivityReasoning, Title: "a"})
	snapshot := r.Peek()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 event in peek, got %d", len(snapshot))
	}
	trace := r.Take()
	if len(trace) != 1 {
		t.Fatalf("expected peek to not consume the trace, got %d on take", len(trace))
	}
}
