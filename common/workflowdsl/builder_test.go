package workflowdsl

import (
	"reflect"
	"testing"
)

func TestBuilder_LinearChainAutoDeps(t *testing.T) {
	b, err := NewBuilder("w1", "")
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	b.Task("extract", "f.e").Task("transform", "f.t", WithArgs([]any{"{{raw}}"}))
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if w.StartTask != "extract" {
		t.Errorf("start_task = %q, want extract", w.StartTask)
	}
	extract := w.Tasks["extract"].(*TaskOp)
	if len(extract.Dependencies) != 0 {
		t.Errorf("extract.dependencies = %v, want empty", extract.Dependencies)
	}
	transform := w.Tasks["transform"].(*TaskOp)
	if !reflect.DeepEqual(transform.Dependencies, []string{"extract"}) {
		t.Errorf("transform.dependencies = %v, want [extract]", transform.Dependencies)
	}
	if !reflect.DeepEqual(transform.Args, []any{"{{raw}}"}) {
		t.Errorf("transform.args = %v", transform.Args)
	}
}

func TestBuilder_ExplicitDependenciesOverrideAutoThread(t *testing.T) {
	b, _ := NewBuilder("w", "")
	b.Task("a", "f.a")
	b.Task("b", "f.b")
	b.Task("c", "f.c", WithDependencies([]string{"b", "a", "a"}))
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	c := w.Tasks["c"].(*TaskOp)
	if !reflect.DeepEqual(c.Dependencies, []string{"a", "b"}) {
		t.Errorf("c.dependencies = %v, want sorted+deduped [a b]", c.Dependencies)
	}
}

func TestBuilder_HandlerNotAutoChained(t *testing.T) {
	b, _ := NewBuilder("w", "")
	b.Task("A", "fA").OnFailure("H")
	b.Task("H", "fH")
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	h := w.Tasks["H"].(*TaskOp)
	if len(h.Dependencies) != 0 {
		t.Errorf("H.dependencies = %v, want empty (handler exemption)", h.Dependencies)
	}
	a := w.Tasks["A"].(*TaskOp)
	if a.OnFailureTaskID != "H" {
		t.Errorf("A.on_failure_task_id = %q, want H", a.OnFailureTaskID)
	}
}

func TestBuilder_ConditionBranchDependencies(t *testing.T) {
	b, _ := NewBuilder("w", "")
	b.Condition("decide", "x > 1",
		func(sb *Builder) *Builder { return sb.Task("hi", "f.h") },
		func(sb *Builder) *Builder { return sb.Task("lo", "f.l") },
	)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hi := w.Tasks["hi"].(*TaskOp)
	lo := w.Tasks["lo"].(*TaskOp)
	if !reflect.DeepEqual(hi.Dependencies, []string{"decide"}) {
		t.Errorf("hi.dependencies = %v, want [decide]", hi.Dependencies)
	}
	if !reflect.DeepEqual(lo.Dependencies, []string{"decide"}) {
		t.Errorf("lo.dependencies = %v, want [decide]", lo.Dependencies)
	}
	cond := w.Tasks["decide"].(*ConditionOp)
	if cond.IfTrue != "hi" || cond.IfFalse != "lo" {
		t.Errorf("condition routes = (%q,%q), want (hi,lo)", cond.IfTrue, cond.IfFalse)
	}
}

func TestBuilder_ParallelForkOnly(t *testing.T) {
	b, _ := NewBuilder("w", "")
	b.Parallel("deploy", []Branch{
		{Name: "api", Body: func(sb *Builder) *Builder { return sb.Task("deploy_api", "d.api") }},
	})
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := w.Tasks["deploy_api"]; ok {
		t.Errorf("deploy_api must not appear in the parent task map (fork-only, I7)")
	}
	p := w.Tasks["deploy"].(*ParallelOp)
	sub, ok := p.BranchWorkflows["api"]
	if !ok {
		t.Fatalf("missing branch_workflows[api]")
	}
	if _, ok := sub.Tasks["deploy_api"]; !ok {
		t.Errorf("branch_workflows[api] missing deploy_api")
	}
	if !reflect.DeepEqual(p.Branches["api"], []string{"deploy_api"}) {
		t.Errorf("branches[api] = %v, want [deploy_api]", p.Branches["api"])
	}
}

func TestBuilder_ForEachInternalFlagsAndChaining(t *testing.T) {
	b, _ := NewBuilder("w", "")
	b.ForEach("each_item", "items", func(sb *Builder) *Builder {
		return sb.Task("process", "f.p").Task("log", "f.l")
	}, false)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	fe := w.Tasks["each_item"].(*ForEachOp)
	if len(fe.LoopBody) != 2 {
		t.Fatalf("expected 2 loop body tasks, got %d", len(fe.LoopBody))
	}
	for _, bt := range fe.LoopBody {
		if !bt.Env().IsInternalLoopTask {
			t.Errorf("task %s should be is_internal_loop_task", bt.Env().TaskID)
		}
	}
	if !reflect.DeepEqual(fe.LoopBody[0].Env().Dependencies, []string{"each_item"}) {
		t.Errorf("first loop body task dependencies = %v, want [each_item]", fe.LoopBody[0].Env().Dependencies)
	}
	if !reflect.DeepEqual(fe.LoopBody[1].Env().Dependencies, []string{"process"}) {
		t.Errorf("second loop body task dependencies = %v, want [process] (internal chaining only)", fe.LoopBody[1].Env().Dependencies)
	}
	if _, ok := w.Tasks["process"]; !ok {
		t.Errorf("loop body tasks must also be mirrored into the parent task map")
	}
}

func TestBuilder_MissingHandlerReference(t *testing.T) {
	b, _ := NewBuilder("w", "")
	b.Task("last", "f.last").OnFailure("missing")
	_, err := b.Build()
	if err == nil {
		t.Fatal("expected MissingHandlerReference error")
	}
	var target *MissingHandlerReferenceError
	if me, ok := err.(*MultiError); ok {
		for _, e := range me.Errors {
			if h, ok := e.(*MissingHandlerReferenceError); ok {
				target = h
			}
		}
	} else if h, ok := err.(*MissingHandlerReferenceError); ok {
		target = h
	}
	if target == nil {
		t.Fatalf("expected *MissingHandlerReferenceError, got %T: %v", err, err)
	}
}
