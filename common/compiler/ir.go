// Package compiler projects a built, validated workflowdsl.Workflow
// into a flat, engine-consumable intermediate representation. It does
// not execute anything: no loop iteration, no branch evaluation, no
// dispatch. It only reshapes the nested operator graph into the flat
// dependents-and-routing shape an execution engine would consume.
package compiler

import (
	"sort"

	"github.com/lyzr/workflowdsl/common/workflowdsl"
)

// BranchRule is one condition/switch arm: Value routes to To ("true"/
// "false" for Condition, a case key for Switch).
type BranchRule struct {
	Value string `json:"value"`
	To    string `json:"to"`
}

// Branch is the routing projection for Condition and Switch nodes.
type Branch struct {
	Rules   []BranchRule `json:"rules"`
	Default string       `json:"default,omitempty"`
}

// Loop is the routing projection for While and ForEach nodes.
type Loop struct {
	Condition  string `json:"condition,omitempty"`
	Items      string `json:"items,omitempty"`
	LoopBackTo string `json:"loop_back_to,omitempty"`
	BreakPath  string `json:"break_path,omitempty"`
}

// Node is one flattened IR entry.
type Node struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`
	WaitForAll   bool     `json:"wait_for_all"`
	Terminal     bool     `json:"terminal"`
	Branch       *Branch  `json:"branch,omitempty"`
	Loop         *Loop    `json:"loop,omitempty"`
}

// IR is the complete flattened projection of a Workflow.
type IR struct {
	Name      string           `json:"name"`
	Version   string           `json:"version"`
	StartTask string           `json:"start_task"`
	Nodes     map[string]*Node `json:"nodes"`
}

// Compile walks w's task map (top-level only — loop_body tasks appear
// as far as the builder mirrored them into that map, and Parallel
// branch_workflows project their own independent IRs on demand via
// CompileNested, matching the DSL's fork-only encoding) and produces a
// flat IR.
func Compile(w *workflowdsl.Workflow) (*IR, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	ir := &IR{
		Name:      w.Name,
		Version:   w.Version,
		StartTask: w.StartTask,
		Nodes:     make(map[string]*Node, len(w.Tasks)),
	}

	for id, op := range w.Tasks {
		e := op.Env()
		ir.Nodes[id] = &Node{
			ID:           id,
			Type:         string(op.Kind()),
			Dependencies: e.Dependencies,
			WaitForAll:   len(e.Dependencies) > 1,
			Branch:       branchFor(op),
			Loop:         loopFor(op),
		}
	}

	ids := make([]string, 0, len(ir.Nodes))
	for id := range ir.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := ir.Nodes[id]
		for _, dep := range node.Dependencies {
			if depNode, ok := ir.Nodes[dep]; ok {
				depNode.Dependents = append(depNode.Dependents, id)
			}
		}
	}
	for _, node := range ir.Nodes {
		sort.Strings(node.Dependents)
		node.Terminal = len(node.Dependents) == 0
	}

	return ir, nil
}

func branchFor(op workflowdsl.Operator) *Branch {
	switch o := op.(type) {
	case *workflowdsl.ConditionOp:
		var rules []BranchRule
		if o.IfTrue != "" {
			rules = append(rules, BranchRule{Value: "true", To: o.IfTrue})
		}
		if o.IfFalse != "" {
			rules = append(rules, BranchRule{Value: "false", To: o.IfFalse})
		}
		if len(rules) == 0 {
			return nil
		}
		return &Branch{Rules: rules}
	case *workflowdsl.SwitchOp:
		values := make([]string, 0, len(o.Cases))
		for value := range o.Cases {
			values = append(values, value)
		}
		sort.Strings(values)

		rules := make([]BranchRule, 0, len(values))
		for _, value := range values {
			rules = append(rules, BranchRule{Value: value, To: o.Cases[value]})
		}
		return &Branch{Rules: rules, Default: o.Default}
	default:
		return nil
	}
}

func loopFor(op workflowdsl.Operator) *Loop {
	switch o := op.(type) {
	case *workflowdsl.WhileOp:
		l := &Loop{Condition: o.Condition}
		if len(o.LoopBody) > 0 {
			l.LoopBackTo = o.LoopBody[0].Env().TaskID
		}
		return l
	case *workflowdsl.ForEachOp:
		l := &Loop{Items: o.Items}
		if len(o.LoopBody) > 0 {
			l.LoopBackTo = o.LoopBody[0].Env().TaskID
		}
		return l
	default:
		return nil
	}
}

// CompileNested projects a Parallel operator's per-branch
// sub-workflows into their own IRs, keyed by branch name — the
// engine-contract counterpart of the fork-only encoding (I7).
func CompileNested(op *workflowdsl.ParallelOp) (map[string]*IR, error) {
	out := make(map[string]*IR, len(op.BranchWorkflows))
	for name, sub := range op.BranchWorkflows {
		subIR, err := Compile(sub)
		if err != nil {
			return nil, err
		}
		out[name] = subIR
	}
	return out, nil
}
