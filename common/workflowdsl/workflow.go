package workflowdsl

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultVersion is the wire version emitted for the current model
// generation. Decoders accept older versions and apply the
// compatibility shims in legacy.go.
const DefaultVersion = "2.0.0"

var (
	nameRe    = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	versionRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// Workflow is the top-level container: a task map keyed by id plus
// scheduling metadata. It is the unit the codec and Mermaid renderer
// operate on.
type Workflow struct {
	Name                string
	Version             string
	Description         string
	Tasks               map[string]Operator
	order               []string // insertion order, used by the builder and Mermaid renderer
	Variables           map[string]any
	StartTask           string
	Schedule            string
	StartDate           *time.Time
	Catchup             bool
	IsPaused            bool
	Tags                []string
	MaxActiveRuns       int
	DefaultRetryPolicy  *RetryPolicy
}

// NewWorkflow constructs an empty Workflow, validating name/version
// eagerly (I3). version defaults to DefaultVersion when empty.
func NewWorkflow(name, version string) (*Workflow, error) {
	if version == "" {
		version = DefaultVersion
	}
	if err := validateNameAndVersion(name, version); err != nil {
		return nil, err
	}
	return &Workflow{
		Name:          name,
		Version:       version,
		Tasks:         make(map[string]Operator),
		Variables:     make(map[string]any),
		MaxActiveRuns: 1,
	}, nil
}

func validateNameAndVersion(name, version string) error {
	if !nameRe.MatchString(name) || strings.Contains(name, "__") {
		return &NameInvalidError{Name: name, Version: version, Reason: "name must match ^[a-z][a-z0-9_]*$ and not contain __"}
	}
	if !versionRe.MatchString(version) || strings.Contains(version, "__") {
		return &NameInvalidError{Name: name, Version: version, Reason: "version must match ^[a-zA-Z0-9._-]+$ and not contain __"}
	}
	return nil
}

// AddTask inserts or replaces a task keyed by its own TaskID (I1).
// Insertion order is recorded (see OrderedTaskIDs); the codec does not
// use it and emits tasks in sorted key order.
func (w *Workflow) AddTask(op Operator) {
	id := op.Env().TaskID
	if _, exists := w.Tasks[id]; !exists {
		w.order = append(w.order, id)
	}
	w.Tasks[id] = op
}

// OrderedTaskIDs returns task ids in insertion order.
func (w *Workflow) OrderedTaskIDs() []string {
	return append([]string{}, w.order...)
}

// SetVariables merges the given map into Variables (upsert semantics).
func (w *Workflow) SetVariables(vars map[string]any) {
	if w.Variables == nil {
		w.Variables = make(map[string]any)
	}
	for k, v := range vars {
		w.Variables[k] = v
	}
}

func (w *Workflow) SetStartTask(taskID string) *Workflow { w.StartTask = taskID; return w }
func (w *Workflow) SetSchedule(cron string) *Workflow     { w.Schedule = cron; return w }
func (w *Workflow) SetStartDate(t time.Time) *Workflow    { w.StartDate = &t; return w }
func (w *Workflow) SetCatchup(v bool) *Workflow           { w.Catchup = v; return w }
func (w *Workflow) SetPaused(v bool) *Workflow            { w.IsPaused = v; return w }
func (w *Workflow) AddTags(tags ...string) *Workflow      { w.Tags = append(w.Tags, tags...); return w }
func (w *Workflow) SetMaxActiveRuns(n int) *Workflow      { w.MaxActiveRuns = n; return w }
func (w *Workflow) SetDefaultRetryPolicy(rp RetryPolicy) *Workflow {
	w.DefaultRetryPolicy = &rp
	return w
}

// Validate checks I1-I6 against the workflow as it currently stands.
// It does not check I7 (parallel branch bodies kept out of the parent
// task map) or I8 (internal-task flags on nested bodies). It returns
// nil, the single violation found, or a *MultiError aggregating every
// violation when there is more than one.
func (w *Workflow) Validate() error {
	var errs []error

	if err := validateNameAndVersion(w.Name, w.Version); err != nil {
		errs = append(errs, err)
	}

	// I1: key agreement.
	for k, op := range w.Tasks {
		if op.Env().TaskID != k {
			errs = append(errs, &MissingFieldError{TaskID: k, Field: "task_id (key/value mismatch)"})
		}
	}

	// I4: discriminator closed set.
	for id, op := range w.Tasks {
		if !validOperatorTypes[op.Kind()] {
			errs = append(errs, &UnknownOperatorTypeError{TaskID: id, OperatorType: string(op.Kind())})
		}
	}

	// I5: dependencies sorted + deduplicated.
	for id, op := range w.Tasks {
		deps := op.Env().Dependencies
		for i := 1; i < len(deps); i++ {
			if deps[i-1] >= deps[i] {
				errs = append(errs, &MissingFieldError{TaskID: id, Field: "dependencies (not sorted/deduplicated)"})
				break
			}
		}
	}

	// I2: reference integrity, including nested loop_body/branch_workflows.
	resolvable := w.resolvableTaskIDs()
	for id, op := range w.Tasks {
		for _, ref := range op.References() {
			if !resolvable[ref] {
				errs = append(errs, &DanglingReferenceError{TaskID: id, Field: "reference", Target: ref})
			}
		}
	}

	// I6: start task set when non-empty.
	if len(w.Tasks) > 0 && w.StartTask == "" {
		errs = append(errs, &MissingFieldError{TaskID: "", Field: "start_task"})
	}

	return asError(errs)
}

// resolvableTaskIDs returns every task id reachable from this
// workflow: its own tasks plus, recursively, loop_body and
// branch_workflow task ids (I2's "nested, reachable" clause).
func (w *Workflow) resolvableTaskIDs() map[string]bool {
	seen := make(map[string]bool)
	for id, op := range w.Tasks {
		seen[id] = true
		collectNestedIDs(op, seen)
	}
	return seen
}

func collectNestedIDs(op Operator, seen map[string]bool) {
	switch o := op.(type) {
	case *ForEachOp:
		for _, b := range o.LoopBody {
			seen[b.Env().TaskID] = true
			collectNestedIDs(b, seen)
		}
	case *WhileOp:
		for _, b := range o.LoopBody {
			seen[b.Env().TaskID] = true
			collectNestedIDs(b, seen)
		}
	case *ParallelOp:
		for _, sub := range o.BranchWorkflows {
			if sub == nil {
				continue
			}
			for id, bop := range sub.Tasks {
				seen[id] = true
				collectNestedIDs(bop, seen)
			}
		}
	}
}

// sortedUnique returns deps sorted and de-duplicated (I5).
func sortedUnique(deps []string) []string {
	set := make(map[string]bool, len(deps))
	for _, d := range deps {
		set[d] = true
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
