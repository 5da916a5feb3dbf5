package activity

import "github.com/shopsage/shopsage/internal/models"

// ChannelSink is a non-blocking Sink backed by a buffered channel, used by
// the outer HTTP layer (out of scope for the core) to push events to a
// streaming client as they are recorded. When the buffer is full — a slow
// or stalled consumer — Push drops the event rather than blocking the turn.
// Dropped events are not counted or reported to callers.
type ChannelSink struct {
	events  chan *models.ActivityEvent
	dropped chan struct{}
}

// NewChannelSink creates a ChannelSink with the given buffer size. A size of
// 0 means every Push that isn't immediately received is dropped.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{
		events:  make(chan *models.ActivityEvent, buffer),
		dropped: make(chan struct{}, 1),
	}
}

// Push implements Sink. It never blocks.
func (s *ChannelSink) Push(event *models.ActivityEvent) {
	select {
	case s.events <- event:
	default:
		select {
		case s.dropped <- struct{}{}:
		default:
		}
	}
}

// Events returns the channel consumers should range over.
func (s *ChannelSink) Events() <-chan *models.ActivityEvent {
	return s.events
}

// Close signals no further events will be pushed.
func (s *ChannelSink) Close() {
	close(s.events)
}
