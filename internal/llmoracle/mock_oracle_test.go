package llmoracle

import (
	"context"
	"testing"
)

func TestMockOracle_ReplaysScriptInOrder(t *testing.T) {
	script := []*Response{
		{Final: false, Delegation: &Delegation{Kind: DelegationSearch, Search: &SearchArgs{Query: "shoes"}}},
		{Final: true, Text: "Here are some running shoes."},
	}
	o := NewMockOracle(script)

	r1, err := o.Next(context.Background(), Prompt{Message: "find me shoes"})
	if err != nil {
		t.Fatal(err)
	}
	if r1.Final || r1.Delegation.Kind != DelegationSearch {
		t.Fatalf("expected first response to delegate to search, got %+v", r1)
	}

	r2, err := o.Next(context.Background(), Prompt{Message: "find me shoes"})
	if err != nil {
		t.Fatal(err)
	}
	if !r2.Final || r2.Text == "" {
		t.Fatalf("expected second response to be a final answer, got %+v", r2)
	}
}

func TestMockOracle_ExhaustedScriptErrors(t *testing.T) {
	o := NewMockOracle([]*Response{{Final: true, Text: "done"}})
	if _, err := o.Next(context.Background(), Prompt{}); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Next(context.Background(), Prompt{}); err == nil {
		t.Fatal("expected error once script is exhausted")
	}
}

func TestMockOracle_CallsTracksInvocations(t *testing.T) {
	o := NewMockOracle([]*Response{{Final: true, Text: "a"}, {Final: true, Text: "b"}})
	if o.Calls() != 0 {
		t.Fatalf("expected 0 calls initially, got %d", o.Calls())
	}
	_, _ = o.Next(context.Background(), Prompt{})
	if o.Calls() != 1 {
		t.Fatalf("expected 1 call, got %d", o.Calls())
	}
}
