package workflowdsl

import "testing"

func TestWorkflow_ValidateCleanGraph(t *testing.T) {
	b, _ := NewBuilder("clean", "")
	b.Task("a", "f.a").Task("b", "f.b")
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("expected no validation errors, got %v", err)
	}
}

func TestWorkflow_ValidateDanglingReference(t *testing.T) {
	w, err := NewWorkflow("dangling", "")
	if err != nil {
		t.Fatalf("new workflow: %v", err)
	}
	w.AddTask(&TaskOp{Envelope: Envelope{TaskID: "a", Type: OperatorTask, Dependencies: []string{"ghost"}}, Function: "f.a"})
	w.StartTask = "a"
	err = w.Validate()
	if err == nil {
		t.Fatal("expected dangling reference error")
	}
}

func TestWorkflow_ResolvableIncludesNestedLoopBody(t *testing.T) {
	b, _ := NewBuilder("nested", "")
	b.ForEach("each", "items", func(sb *Builder) *Builder { return sb.Task("process", "f.p") }, false)
	b.Join("done", []string{"process"}, JoinAllOf)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("expected process to resolve via loop_body mirroring, got %v", err)
	}
}

func TestWorkflow_ResolvableIncludesBranchWorkflow(t *testing.T) {
	b, _ := NewBuilder("nestedpar", "")
	b.Parallel("deploy", []Branch{
		{Name: "api", Body: func(sb *Builder) *Builder { return sb.Task("deploy_api", "d.api") }},
	})
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Branches summary references "deploy_api", which lives only in
	// branch_workflows (I7) — I2's nested-reachability clause must
	// still resolve it.
	if err := w.Validate(); err != nil {
		t.Errorf("expected deploy_api to resolve via branch_workflows, got %v", err)
	}
}
