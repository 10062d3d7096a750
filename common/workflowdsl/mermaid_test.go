package workflowdsl

import (
	"strings"
	"testing"
)

func TestMermaid_LinearChain(t *testing.T) {
	b, _ := NewBuilder("m1", "")
	b.Task("extract", "f.e").Task("transform", "f.t")
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := w.ToMermaid()

	if !strings.HasPrefix(out, "stateDiagram-v2\n") {
		t.Fatalf("expected stateDiagram-v2 header, got %q", out)
	}
	if !strings.Contains(out, "[*] --> extract") {
		t.Errorf("missing entry edge: %s", out)
	}
	if !strings.Contains(out, "extract --> transform") {
		t.Errorf("missing chain edge: %s", out)
	}
	if !strings.Contains(out, "transform --> [*]") {
		t.Errorf("missing exit edge: %s", out)
	}
}

func TestMermaid_ConditionBranches(t *testing.T) {
	b, _ := NewBuilder("m2", "")
	b.Condition("decide", "x > 1",
		func(sb *Builder) *Builder { return sb.Task("hi", "f.h") },
		func(sb *Builder) *Builder { return sb.Task("lo", "f.l") },
	)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := w.ToMermaid()
	if !strings.Contains(out, "decide --> hi : True") {
		t.Errorf("missing True edge: %s", out)
	}
	if !strings.Contains(out, "decide --> lo : False") {
		t.Errorf("missing False edge: %s", out)
	}
}
