package workflowdsl

import (
	"fmt"
	"sort"
	"strings"
)

// ToMermaid projects the workflow to a stateDiagram-v2 text
// representation per §4.5. Output is deterministic given a canonical
// tasks iteration order (insertion order).
func (w *Workflow) ToMermaid() string {
	var b strings.Builder
	b.WriteString("stateDiagram-v2\n")

	referenced := make(map[string]bool)
	for _, id := range w.order {
		for _, dep := range w.Tasks[id].Env().Dependencies {
			referenced[dep] = true
		}
	}

	for _, id := range w.order {
		op := w.Tasks[id]
		e := op.Env()
		if e.Description != "" {
			if _, isParallel := op.(*ParallelOp); !isParallel {
				if _, isForEach := op.(*ForEachOp); !isForEach {
					if _, isWhile := op.(*WhileOp); !isWhile {
						fmt.Fprintf(&b, "state %q as %s\n", e.Description, id)
					}
				}
			}
		}

		isEntry := len(e.Dependencies) == 0 && (w.StartTask == id || (w.StartTask == ""))
		if isEntry {
			fmt.Fprintf(&b, "[*] --> %s\n", id)
		}

		for _, dep := range e.Dependencies {
			fmt.Fprintf(&b, "%s --> %s\n", dep, id)
		}

		switch o := op.(type) {
		case *ConditionOp:
			if o.IfTrue != "" {
				fmt.Fprintf(&b, "%s --> %s : True\n", id, o.IfTrue)
			}
			if o.IfFalse != "" {
				fmt.Fprintf(&b, "%s --> %s : False\n", id, o.IfFalse)
			}
		case *ParallelOp:
			fmt.Fprintf(&b, "state %s {\n", id)
			i := 1
			names := make([]string, 0, len(o.Branches))
			for name := range o.Branches {
				names = append(names, name)
			}
			sort.Strings(names)
			for idx, name := range names {
				fmt.Fprintf(&b, "state %q as %s\n", fmt.Sprintf("Branch %d", i), name)
				i++
				if idx < len(names)-1 {
					b.WriteString("--\n")
				}
			}
			b.WriteString("}\n")
		case *ForEachOp:
			fmt.Fprintf(&b, "state %s {\n", id)
			for _, bt := range o.LoopBody {
				label := bt.Env().Description
				if label == "" {
					label = bt.Env().TaskID
				}
				fmt.Fprintf(&b, "state %q as %s\n", label, bt.Env().TaskID)
			}
			b.WriteString("}\n")
		case *WhileOp:
			fmt.Fprintf(&b, "state %s {\n", id)
			for _, bt := range o.LoopBody {
				label := bt.Env().Description
				if label == "" {
					label = bt.Env().TaskID
				}
				fmt.Fprintf(&b, "state %q as %s\n", label, bt.Env().TaskID)
			}
			b.WriteString("}\n")
		}

		hasBranchTarget := false
		if c, ok := op.(*ConditionOp); ok {
			hasBranchTarget = c.IfTrue != "" || c.IfFalse != ""
		}
		if !referenced[id] && !hasBranchTarget {
			fmt.Fprintf(&b, "%s --> [*]\n", id)
		}
	}

	return b.String()
}
