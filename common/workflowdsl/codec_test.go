package workflowdsl

import (
	"testing"
	"time"
)

func TestCodec_WaitDurationWireForm(t *testing.T) {
	b, _ := NewBuilder("w2", "")
	b.Wait("pause", WaitDuration(3600*time.Second))
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	encoded, err := w.EncodeJSON()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeJSON([]byte(encoded))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	wait := decoded.Tasks["pause"].(*WaitOp)
	if wait.WaitFor.Kind != WaitKindDuration {
		t.Fatalf("wait kind = %v, want duration", wait.WaitFor.Kind)
	}
	if wait.WaitFor.Duration != 3600*time.Second {
		t.Errorf("wait duration = %v, want 3600s", wait.WaitFor.Duration)
	}
}

func TestCodec_RoundTripJSONAndYAML(t *testing.T) {
	b, _ := NewBuilder("roundtrip", "")
	b.Task("extract", "f.e", WithDescription("Extract data")).
		Task("transform", "f.t", WithArgs([]any{"{{raw}}"}), WithMetadata(map[string]any{"owner": "team-x"}))
	b.Condition("decide", "x > 1",
		func(sb *Builder) *Builder { return sb.Task("hi", "f.h") },
		nil,
	)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	jsonText, err := w.EncodeJSON()
	if err != nil {
		t.Fatalf("encode json: %v", err)
	}
	fromJSON, err := DecodeJSON([]byte(jsonText))
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	assertSemanticallyEqual(t, w, fromJSON)

	yamlText, err := w.EncodeYAML()
	if err != nil {
		t.Fatalf("encode yaml: %v", err)
	}
	fromYAML, err := DecodeYAML([]byte(yamlText))
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	assertSemanticallyEqual(t, w, fromYAML)
}

func assertSemanticallyEqual(t *testing.T, want, got *Workflow) {
	t.Helper()
	if want.Name != got.Name || want.Version != got.Version {
		t.Fatalf("name/version mismatch: want (%s,%s) got (%s,%s)", want.Name, want.Version, got.Name, got.Version)
	}
	if len(want.Tasks) != len(got.Tasks) {
		t.Fatalf("task count mismatch: want %d got %d", len(want.Tasks), len(got.Tasks))
	}
	for id, op := range want.Tasks {
		gotOp, ok := got.Tasks[id]
		if !ok {
			t.Fatalf("missing task %s after round-trip", id)
			continue
		}
		if op.Kind() != gotOp.Kind() {
			t.Errorf("task %s kind = %v, want %v", id, gotOp.Kind(), op.Kind())
		}
		wantDeps := sortedUnique(op.Env().Dependencies)
		gotDeps := sortedUnique(gotOp.Env().Dependencies)
		if len(wantDeps) != len(gotDeps) {
			t.Errorf("task %s dependencies = %v, want %v", id, gotDeps, wantDeps)
		}
	}
}

func TestCodec_UnknownOperatorType(t *testing.T) {
	src := []byte(`{"name":"w","version":"2.0.0","tasks":{"x":{"operator_type":"unknown_operator"}}}`)
	_, err := DecodeJSON(src)
	if err == nil {
		t.Fatal("expected UnknownOperatorType error")
	}
	if _, ok := err.(*UnknownOperatorTypeError); !ok {
		t.Fatalf("got %T: %v, want *UnknownOperatorTypeError", err, err)
	}
}

func TestCodec_InvalidName(t *testing.T) {
	_, err := NewWorkflow("double__underscore", "")
	if err == nil {
		t.Fatal("expected NameInvalid error")
	}
	if _, ok := err.(*NameInvalidError); !ok {
		t.Fatalf("got %T: %v, want *NameInvalidError", err, err)
	}
}

func TestCodec_LegacyParallelSiblingEncoding(t *testing.T) {
	src := []byte(`{
		"name": "legacy",
		"version": "1.0.0",
		"tasks": {
			"deploy": {
				"operator_type": "parallel",
				"branches": {"api": ["deploy_api"]}
			},
			"deploy_api": {
				"operator_type": "task",
				"function": "d.api",
				"dependencies": ["deploy"]
			}
		}
	}`)
	w, err := DecodeJSON(src)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := w.Tasks["deploy_api"]; ok {
		t.Errorf("legacy sibling task should be normalized out of the parent map")
	}
	p := w.Tasks["deploy"].(*ParallelOp)
	sub, ok := p.BranchWorkflows["api"]
	if !ok {
		t.Fatalf("expected reconstructed branch_workflows[api]")
	}
	if _, ok := sub.Tasks["deploy_api"]; !ok {
		t.Errorf("reconstructed branch workflow missing deploy_api")
	}
}

func TestCodec_LegacyForEachTaskChain(t *testing.T) {
	src := []byte(`{
		"name": "legacy2",
		"version": "1.0.0",
		"tasks": {
			"each": {
				"operator_type": "foreach",
				"items": "items",
				"task_chain": ["process"]
			},
			"process": {
				"operator_type": "task",
				"function": "f.p"
			}
		}
	}`)
	w, err := DecodeJSON(src)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fe := w.Tasks["each"].(*ForEachOp)
	if len(fe.LoopBody) != 1 || fe.LoopBody[0].Env().TaskID != "process" {
		t.Fatalf("expected loop_body=[process], got %+v", fe.LoopBody)
	}
	if !fe.LoopBody[0].Env().IsInternalLoopTask {
		t.Errorf("legacy-converted loop body task should be marked internal")
	}
}
