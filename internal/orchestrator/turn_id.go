package orchestrator

import "github.com/google/uuid"

// newTurnID produces a fresh per-turn identifier for the Activity Recorder
// to stamp onto every event.
func newTurnID() string {
	return "turn-" + uuid.New().String()
}
