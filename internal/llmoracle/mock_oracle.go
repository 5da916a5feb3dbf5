package llmoracle

import (
	"context"
	"fmt"
)

// MockOracle replays a fixed script of responses, one per call to Next, for
// exercising the Supervisor's oracle-driven loop without a live model. It is
// distinct from the Supervisor's own deterministic routing-table mode (spec
// §4.6), which bypasses the oracle entirely; this mock instead stands in for
// a real Oracle implementation in tests that want to exercise the loop
// machinery itself (accumulation of tool outputs, bound enforcement).
type MockOracle struct {
	script []*Response
	calls  int
}

// NewMockOracle returns an Oracle that yields each of script in order, one
// per call. Calling Next more times than len(script) is an error — a script
// that under-specifies the loop is a test bug, not a runtime condition.
func NewMockOracle(script []*Response) *MockOracle {
	return &MockOracle{script: script}
}

func (m *MockOracle) Next(_ context.Context, _ Prompt) (*Response, error) {
	if m.calls >= len(m.script) {
		return nil, fmt.Errorf("llmoracle: mock script exhausted after %d calls", m.calls)
	}
	resp := m.script[m.calls]
	m.calls++
	return resp, nil
}

// Calls reports how many times Next has been invoked.
func (m *MockOracle) Calls() int {
	return m.calls
}
