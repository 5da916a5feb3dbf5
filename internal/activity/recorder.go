// Package activity implements the Activity Recorder (spec §4.7): a per-turn,
// append-only, time-ordered log of typed events, plus a non-blocking
// streaming view for UI replay.
package activity

import (
	"sync"
	"time"

	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/pkg/utils"
)

// maxDetailsLen bounds how much of an error or diagnostic string an event
// carries into the trace; a runaway SQL error or stack trace shouldn't blow
// up the payload a streaming client receives.
const maxDetailsLen = 500

// Sink receives a copy of every event as it is recorded. Push must never
// block the turn; implementations that buffer (e.g. for a server-push
// channel) are responsible for dropping or discarding under backpressure
// rather than waiting on a slow consumer.
type Sink interface {
	Push(event *models.ActivityEvent)
}

// Recorder is the per-turn Activity Recorder. The zero value is not usable;
// construct with New. A Recorder is safe for concurrent use: when multiple
// workers feed one recorder, Record serializes on an uncontended mutex, so
// in the common single-threaded case the cost is a single uncontended
// lock/unlock rather than any blocking wait — and on the rare race between
// two completions, whichever goroutine wins the lock is assigned the next
// id, giving every event a strict, reproducible position in the trace.
type Recorder struct {
	turnID string
	sink   Sink

	mu     sync.Mutex
	seq    int64
	events []*models.ActivityEvent
}

// New constructs a Recorder for one turn. sink may be nil, in which case
// events are only retained in-memory for Take.
func New(turnID string, sink Sink) *Recorder {
	return &Recorder{turnID: turnID, sink: sink}
}

// Record appends event to the trace, stamping it with the next monotonic id
// and a wall-clock timestamp if one isn't already set. The event is pushed
// to the sink (if any) after being appended, so a slow or absent sink can
// never reorder or lose what Take later returns.
func (r *Recorder) Record(event *models.ActivityEvent) {
	event.Details = utils.Truncate(event.Details, maxDetailsLen)

	r.mu.Lock()
	r.seq++
	event.ID = r.seq
	event.TurnID = r.turnID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	r.events = append(r.events, event)
	r.mu.Unlock()

	if r.sink != nil {
		r.sink.Push(event)
	}
}

// Take returns the ordered trace recorded so far and resets the recorder to
// empty. The returned slice is a private copy; callers may retain or mutate
// it freely without racing future Record calls.
func (r *Recorder) Take() []*models.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ActivityEvent, len(r.events))
	copy(out, r.events)
	r.events = nil
	return out
}

// Peek returns a private copy of the trace recorded so far without resetting
// it, for mid-turn streaming consumers that want a consistent snapshot.
func (r *Recorder) Peek() []*models.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ActivityEvent, len(r.events))
	copy(out, r.events)
	return out
}

// TurnID returns the turn this recorder is bound to.
func (r *Recorder) TurnID() string {
	return r.turnID
}
