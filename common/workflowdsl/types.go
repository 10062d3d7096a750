// Package workflowdsl implements the typed, serializable workflow
// definition model: the operator taxonomy, the workflow container, a
// fluent builder for nested control-flow graphs, a YAML/JSON codec,
// and a Mermaid state-diagram renderer. It is an authoring and
// interchange layer; it does not execute anything.
package workflowdsl

import "time"

// OperatorType is the wire discriminator tag for the closed set of
// operator variants.
type OperatorType string

const (
	OperatorTask         OperatorType = "task"
	OperatorActivity     OperatorType = "activity"
	OperatorCondition    OperatorType = "condition"
	OperatorWait         OperatorType = "wait"
	OperatorParallel     OperatorType = "parallel"
	OperatorForEach      OperatorType = "foreach"
	OperatorWhile        OperatorType = "while"
	OperatorEmitEvent    OperatorType = "emit_event"
	OperatorWaitForEvent OperatorType = "wait_for_event"
	OperatorSwitch       OperatorType = "switch"
	OperatorJoin         OperatorType = "join"
)

// validOperatorTypes is the closed set used for decode-time
// discrimination (I4).
var validOperatorTypes = map[OperatorType]bool{
	OperatorTask:         true,
	OperatorActivity:     true,
	OperatorCondition:    true,
	OperatorWait:         true,
	OperatorParallel:     true,
	OperatorForEach:      true,
	OperatorWhile:        true,
	OperatorEmitEvent:    true,
	OperatorWaitForEvent: true,
	OperatorSwitch:       true,
	OperatorJoin:         true,
}

// TriggerRule controls when a task's dependencies are considered
// satisfied.
type TriggerRule string

const (
	TriggerAllSuccess TriggerRule = "all_success"
	TriggerAllDone    TriggerRule = "all_done"
	TriggerOneSuccess TriggerRule = "one_success"
	TriggerOneDone    TriggerRule = "one_done"
	TriggerNoneFailed TriggerRule = "none_failed"
)

// JoinMode controls how a Join operator's join_tasks are combined.
type JoinMode string

const (
	JoinAllOf     JoinMode = "all_of"
	JoinAnyOf     JoinMode = "any_of"
	JoinAllSuccess JoinMode = "all_success"
	JoinOneSuccess JoinMode = "one_success"
)

// RetryPolicy is the declarative retry contract an execution engine
// consumes. It has no effect on builder/codec behavior.
type RetryPolicy struct {
	MaxRetries    int
	Delay         time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy mirrors the reference implementation's defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Delay: 5 * time.Second, BackoffFactor: 2.0}
}

// TimeoutPolicy is the declarative timeout contract an execution
// engine consumes.
type TimeoutPolicy struct {
	Timeout       time.Duration
	KillOnTimeout bool
}

// DefaultTimeoutPolicy mirrors the reference implementation's default
// of killing on timeout.
func DefaultTimeoutPolicy(timeout time.Duration) TimeoutPolicy {
	return TimeoutPolicy{Timeout: timeout, KillOnTimeout: true}
}

// Envelope holds the fields shared by every operator variant (§3).
type Envelope struct {
	TaskID                 string
	Type                   OperatorType
	Dependencies           []string
	TriggerRule            TriggerRule
	RetryPolicy            *RetryPolicy
	TimeoutPolicy          *TimeoutPolicy
	IdempotencyKey         string
	Metadata               map[string]any
	Description            string
	ResultKey              string
	OnSuccessTaskID        string
	OnFailureTaskID        string
	IsInternalLoopTask     bool
	IsInternalParallelTask bool
}

// Operator is the tagged-sum interface every variant satisfies. The
// set of implementations is closed: Task, Activity, Condition, Wait,
// Parallel, ForEach, While, EmitEvent, WaitForEvent, Switch, Join.
type Operator interface {
	Env() *Envelope
	Kind() OperatorType
	// References returns every task id this operator points at,
	// for Workflow.Validate's referential-integrity check (I2). It includes
	// the envelope's dependencies and success/failure handlers in
	// addition to variant-specific targets.
	References() []string
}

func envelopeReferences(e *Envelope) []string {
	refs := append([]string{}, e.Dependencies...)
	if e.OnSuccessTaskID != "" {
		refs = append(refs, e.OnSuccessTaskID)
	}
	if e.OnFailureTaskID != "" {
		refs = append(refs, e.OnFailureTaskID)
	}
	return refs
}

// TaskOp is a unit of work the engine invokes.
type TaskOp struct {
	Envelope
	Function string
	Args     []any
	Kwargs   map[string]any
}

func (o *TaskOp) Env() *Envelope       { return &o.Envelope }
func (o *TaskOp) Kind() OperatorType   { return OperatorTask }
func (o *TaskOp) References() []string { return envelopeReferences(&o.Envelope) }

// ActivityOp is shaped like TaskOp; semantically long-running and
// out-of-transaction. The engine may treat it differently.
type ActivityOp struct {
	Envelope
	Function string
	Args     []any
	Kwargs   map[string]any
}

func (o *ActivityOp) Env() *Envelope       { return &o.Envelope }
func (o *ActivityOp) Kind() OperatorType   { return OperatorActivity }
func (o *ActivityOp) References() []string { return envelopeReferences(&o.Envelope) }

// ConditionOp routes control to at most one branch head.
type ConditionOp struct {
	Envelope
	Condition string
	IfTrue    string
	IfFalse   string
}

func (o *ConditionOp) Env() *Envelope     { return &o.Envelope }
func (o *ConditionOp) Kind() OperatorType { return OperatorCondition }
func (o *ConditionOp) References() []string {
	refs := envelopeReferences(&o.Envelope)
	if o.IfTrue != "" {
		refs = append(refs, o.IfTrue)
	}
	if o.IfFalse != "" {
		refs = append(refs, o.IfFalse)
	}
	return refs
}

// WaitKind discriminates the three WaitFor alternatives.
type WaitKind string

const (
	WaitKindDuration  WaitKind = "duration"
	WaitKindTimestamp WaitKind = "timestamp"
	WaitKindTag       WaitKind = "tag"
)

// WaitFor is the in-memory representation of Wait.wait_for: a
// duration, an absolute timestamp, or an opaque event/tag string.
type WaitFor struct {
	Kind      WaitKind
	Duration  time.Duration
	Timestamp time.Time
	Tag       string
}

// WaitOp pauses execution.
type WaitOp struct {
	Envelope
	WaitFor WaitFor
}

func (o *WaitOp) Env() *Envelope       { return &o.Envelope }
func (o *WaitOp) Kind() OperatorType   { return OperatorWait }
func (o *WaitOp) References() []string { return envelopeReferences(&o.Envelope) }

// ParallelOp fans out into named branches. In the current (fork-only)
// encoding, branch bodies live entirely in BranchWorkflows; Branches
// only records each branch's head task ids for reference (I7).
type ParallelOp struct {
	Envelope
	Branches        map[string][]string
	BranchWorkflows map[string]*Workflow
	Timeout         *int
}

func (o *ParallelOp) Env() *Envelope     { return &o.Envelope }
func (o *ParallelOp) Kind() OperatorType { return OperatorParallel }
func (o *ParallelOp) References() []string {
	refs := envelopeReferences(&o.Envelope)
	for _, heads := range o.Branches {
		refs = append(refs, heads...)
	}
	return refs
}

// ForEachOp dynamically maps a loop body over Items.
type ForEachOp struct {
	Envelope
	Items    string
	LoopBody []Operator
	Parallel bool
}

func (o *ForEachOp) Env() *Envelope     { return &o.Envelope }
func (o *ForEachOp) Kind() OperatorType { return OperatorForEach }
func (o *ForEachOp) References() []string {
	refs := envelopeReferences(&o.Envelope)
	if len(o.LoopBody) > 0 {
		refs = append(refs, o.LoopBody[0].Env().TaskID)
	}
	return refs
}

// WhileOp loops while Condition holds. The reference implementation
// has no iteration bound; this preserves that absence (Open Question
// 1 in SPEC_FULL.md).
type WhileOp struct {
	Envelope
	Condition string
	LoopBody  []Operator
}

func (o *WhileOp) Env() *Envelope     { return &o.Envelope }
func (o *WhileOp) Kind() OperatorType { return OperatorWhile }
func (o *WhileOp) References() []string {
	refs := envelopeReferences(&o.Envelope)
	if len(o.LoopBody) > 0 {
		refs = append(refs, o.LoopBody[0].Env().TaskID)
	}
	return refs
}

// EmitEventOp emits a named event with a payload.
type EmitEventOp struct {
	Envelope
	EventName string
	Payload   map[string]any
}

func (o *EmitEventOp) Env() *Envelope       { return &o.Envelope }
func (o *EmitEventOp) Kind() OperatorType   { return OperatorEmitEvent }
func (o *EmitEventOp) References() []string { return envelopeReferences(&o.Envelope) }

// WaitForEventOp blocks until a named event arrives, or until
// TimeoutSeconds elapses if set.
type WaitForEventOp struct {
	Envelope
	EventName      string
	TimeoutSeconds *int
}

func (o *WaitForEventOp) Env() *Envelope       { return &o.Envelope }
func (o *WaitForEventOp) Kind() OperatorType   { return OperatorWaitForEvent }
func (o *WaitForEventOp) References() []string { return envelopeReferences(&o.Envelope) }

// SwitchOp routes control to the case matching SwitchOn, or Default.
type SwitchOp struct {
	Envelope
	SwitchOn string
	Cases    map[string]string
	Default  string
}

func (o *SwitchOp) Env() *Envelope     { return &o.Envelope }
func (o *SwitchOp) Kind() OperatorType { return OperatorSwitch }
func (o *SwitchOp) References() []string {
	refs := envelopeReferences(&o.Envelope)
	for _, target := range o.Cases {
		refs = append(refs, target)
	}
	if o.Default != "" {
		refs = append(refs, o.Default)
	}
	return refs
}

// JoinOp waits on JoinTasks per Mode.
type JoinOp struct {
	Envelope
	JoinTasks []string
	Mode      JoinMode
}

func (o *JoinOp) Env() *Envelope     { return &o.Envelope }
func (o *JoinOp) Kind() OperatorType { return OperatorJoin }
func (o *JoinOp) References() []string {
	refs := envelopeReferences(&o.Envelope)
	refs = append(refs, o.JoinTasks...)
	return refs
}
