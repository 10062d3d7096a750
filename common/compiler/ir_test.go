package compiler

import (
	"testing"

	"github.com/lyzr/workflowdsl/common/workflowdsl"
)

func mustBuild(t *testing.T, b *workflowdsl.Builder) *workflowdsl.Workflow {
	t.Helper()
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return w
}

func TestCompile_SimpleSequential(t *testing.T) {
	b, err := workflowdsl.NewBuilder("seq", "")
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	b.Task("a", "f.a").Task("b", "f.b").Task("c", "f.c")
	w := mustBuild(t, b)

	ir, err := Compile(w)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(ir.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(ir.Nodes))
	}
	if got := ir.Nodes["b"].Dependencies; len(got) != 1 || got[0] != "a" {
		t.Errorf("b dependencies = %v, want [a]", got)
	}
	if !ir.Nodes["c"].Terminal {
		t.Errorf("c should be terminal")
	}
	if ir.Nodes["a"].Terminal {
		t.Errorf("a should not be terminal, it has dependent b")
	}
	if got := ir.Nodes["a"].Dependents; len(got) != 1 || got[0] != "b" {
		t.Errorf("a dependents = %v, want [b]", got)
	}
}

func TestCompile_ConditionBranch(t *testing.T) {
	b, err := workflowdsl.NewBuilder("cond", "")
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	b.Condition("c1", "x > 1",
		func(sb *workflowdsl.Builder) *workflowdsl.Builder { return sb.Task("hi", "f.h") },
		func(sb *workflowdsl.Builder) *workflowdsl.Builder { return sb.Task("lo", "f.l") },
	)
	w := mustBuild(t, b)

	ir, err := Compile(w)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	branch := ir.Nodes["c1"].Branch
	if branch == nil || len(branch.Rules) != 2 {
		t.Fatalf("expected 2 branch rules, got %+v", branch)
	}
}

func TestCompile_WaitForAllMultipleDependencies(t *testing.T) {
	b, err := workflowdsl.NewBuilder("join", "")
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	b.Task("a", "f.a")
	b.Task("b", "f.b", workflowdsl.WithDependencies(nil))
	b.Join("done", []string{"a", "b"}, workflowdsl.JoinAllOf, workflowdsl.WithDependencies([]string{"a", "b"}))
	w := mustBuild(t, b)

	ir, err := Compile(w)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !ir.Nodes["done"].WaitForAll {
		t.Errorf("done should wait for all of its 2 dependencies")
	}
}

func TestCompileNested_ParallelBranches(t *testing.T) {
	b, err := workflowdsl.NewBuilder("fanout", "")
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	b.Parallel("deploy", []workflowdsl.Branch{
		{Name: "api", Body: func(sb *workflowdsl.Builder) *workflowdsl.Builder {
			return sb.Task("deploy_api", "d.api")
		}},
		{Name: "web", Body: func(sb *workflowdsl.Builder) *workflowdsl.Builder {
			return sb.Task("deploy_web", "d.web")
		}},
	})
	w := mustBuild(t, b)

	parallelOp := w.Tasks["deploy"].(*workflowdsl.ParallelOp)
	irs, err := CompileNested(parallelOp)
	if err != nil {
		t.Fatalf("compile nested: %v", err)
	}
	if len(irs) != 2 {
		t.Fatalf("expected 2 branch IRs, got %d", len(irs))
	}
	if _, ok := irs["api"].Nodes["deploy_api"]; !ok {
		t.Errorf("api branch IR missing deploy_api node")
	}
}
