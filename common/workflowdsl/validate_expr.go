package workflowdsl

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// ValidateExpressions statically compiles every Condition.Condition
// and Switch.SwitchOn string in the workflow with cel-go, never
// evaluating them. It exists for early authoring feedback; a compile
// failure here does not block Build() or Validate() — it is surfaced
// separately so callers can opt into stricter checking.
func (w *Workflow) ValidateExpressions() error {
	env, err := cel.NewEnv()
	if err != nil {
		return fmt.Errorf("workflowdsl: building expression environment: %w", err)
	}
	var errs []error
	for id, op := range w.Tasks {
		switch o := op.(type) {
		case *ConditionOp:
			if err := compileOnly(env, o.Condition); err != nil {
				errs = append(errs, fmt.Errorf("task %s condition: %w", id, err))
			}
		case *SwitchOp:
			if err := compileOnly(env, o.SwitchOn); err != nil {
				errs = append(errs, fmt.Errorf("task %s switch_on: %w", id, err))
			}
		}
	}
	return asError(errs)
}

func compileOnly(env *cel.Env, expr string) error {
	if expr == "" {
		return nil
	}
	_, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return iss.Err()
	}
	return nil
}
