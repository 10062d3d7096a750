package workflowdsl

import "strings"

// taskOptions is the mutable record every Opt closes over. It embeds
// Envelope plus the two variant fields (Args/Kwargs) shared by Task
// and Activity; other variants simply ignore the fields that don't
// apply to them.
type taskOptions struct {
	Envelope
	Args   []any
	Kwargs map[string]any
}

// Opt mutates a taskOptions record before its owning operator is
// constructed. The options pattern mirrors common/bootstrap's own
// functional options.
type Opt func(*taskOptions)

func WithDependencies(ids []string) Opt {
	return func(o *taskOptions) { o.Dependencies = append([]string{}, ids...) }
}
func WithDescription(d string) Opt           { return func(o *taskOptions) { o.Description = d } }
func WithResultKey(k string) Opt             { return func(o *taskOptions) { o.ResultKey = k } }
func WithMetadata(m map[string]any) Opt      { return func(o *taskOptions) { o.Metadata = m } }
func WithTriggerRule(t TriggerRule) Opt      { return func(o *taskOptions) { o.TriggerRule = t } }
func WithIdempotencyKey(k string) Opt        { return func(o *taskOptions) { o.IdempotencyKey = k } }
func WithArgs(args []any) Opt                { return func(o *taskOptions) { o.Args = args } }
func WithKwargs(kwargs map[string]any) Opt   { return func(o *taskOptions) { o.Kwargs = kwargs } }
func WithRetryPolicy(rp RetryPolicy) Opt     { return func(o *taskOptions) { o.RetryPolicy = &rp } }
func WithTimeoutPolicy(tp TimeoutPolicy) Opt { return func(o *taskOptions) { o.TimeoutPolicy = &tp } }

func newTaskOptions(taskID string, typ OperatorType, opts ...Opt) *taskOptions {
	to := &taskOptions{}
	to.TaskID = taskID
	to.Type = typ
	to.TriggerRule = TriggerAllSuccess
	for _, opt := range opts {
		opt(to)
	}
	return to
}

// Branch names one fork of a Parallel operator and the callback that
// populates its body.
type Branch struct {
	Name string
	Body func(*Builder) *Builder
}

// Builder assembles a Workflow via fluent, chained calls. Nested
// scopes (condition branches, parallel branches, loop bodies) are
// populated by a callback that receives a fresh sub-builder.
type Builder struct {
	workflow    *Workflow
	currentTask string
	parent      *Builder
	errors      []error
}

// NewBuilder starts a fresh build session, validating name/version
// eagerly (I3, S6).
func NewBuilder(name, version string) (*Builder, error) {
	wf, err := NewWorkflow(name, version)
	if err != nil {
		return nil, err
	}
	return &Builder{workflow: wf}, nil
}

func (b *Builder) newSubBuilder(suffix string) (*Builder, error) {
	subName := strings.ToLower(b.workflow.Name + "_" + suffix)
	wf, err := NewWorkflow(subName, b.workflow.Version)
	if err != nil {
		return nil, err
	}
	return &Builder{workflow: wf, parent: b}, nil
}

func (b *Builder) isHandler(taskID string) bool {
	for _, op := range b.workflow.Tasks {
		e := op.Env()
		if e.OnSuccessTaskID == taskID || e.OnFailureTaskID == taskID {
			return true
		}
	}
	return false
}

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// addOperator applies automatic dependency threading (explicit
// Dependencies override it entirely) and the handler exception, then
// inserts the operator and advances current_task.
func (b *Builder) addOperator(op Operator) *Builder {
	e := op.Env()
	if e.Dependencies == nil && b.currentTask != "" && !b.isHandler(e.TaskID) {
		e.Dependencies = []string{b.currentTask}
	}
	e.Dependencies = sortedUnique(e.Dependencies)
	b.workflow.AddTask(op)
	b.currentTask = e.TaskID
	return b
}

// finalizeStartTask mirrors build()'s step 2, applied to a
// sub-workflow harvested from a branch/loop body so it is a fully
// valid Workflow on its own (S4's branch_workflows requirement).
func finalizeStartTask(w *Workflow) {
	if len(w.order) > 0 && w.StartTask == "" {
		w.StartTask = w.order[0]
	}
}

// Task adds a unit-of-work node.
func (b *Builder) Task(taskID, function string, opts ...Opt) *Builder {
	to := newTaskOptions(taskID, OperatorTask, opts...)
	return b.addOperator(&TaskOp{Envelope: to.Envelope, Function: function, Args: to.Args, Kwargs: to.Kwargs})
}

// Activity adds a long-running, out-of-transaction node shaped like
// Task.
func (b *Builder) Activity(taskID, function string, opts ...Opt) *Builder {
	to := newTaskOptions(taskID, OperatorActivity, opts...)
	return b.addOperator(&ActivityOp{Envelope: to.Envelope, Function: function, Args: to.Args, Kwargs: to.Kwargs})
}

// Condition adds a branch node. ifTrue/ifFalse populate their branch
// sub-builders; either may be nil for an empty branch. Each branch
// task receives the condition's id in its dependencies (no
// duplicates) unless already present.
func (b *Builder) Condition(taskID, condition string, ifTrue, ifFalse func(*Builder) *Builder) *Builder {
	var ifTrueHead, ifFalseHead string

	attach := func(cb func(*Builder) *Builder, suffix string) string {
		if cb == nil {
			return ""
		}
		sub, err := b.newSubBuilder(taskID + "_" + suffix)
		if err != nil {
			b.errors = append(b.errors, err)
			return ""
		}
		sub = cb(sub)
		head := ""
		for i, id := range sub.workflow.order {
			t := sub.workflow.Tasks[id]
			e := t.Env()
			if !containsStr(e.Dependencies, taskID) {
				e.Dependencies = sortedUnique(append(e.Dependencies, taskID))
			}
			b.workflow.AddTask(t)
			if i == 0 {
				head = id
			}
		}
		return head
	}

	ifTrueHead = attach(ifTrue, "true")
	ifFalseHead = attach(ifFalse, "false")

	if ifTrueHead == taskID || ifFalseHead == taskID {
		b.errors = append(b.errors, &InvalidOperatorError{TaskID: taskID, Reason: "if_true/if_false must not self-reference"})
	}

	to := newTaskOptions(taskID, OperatorCondition)
	op := &ConditionOp{Envelope: to.Envelope, Condition: condition, IfTrue: ifTrueHead, IfFalse: ifFalseHead}
	return b.addOperator(op)
}

// Wait adds a pause node.
func (b *Builder) Wait(taskID string, waitFor WaitFor, opts ...Opt) *Builder {
	to := newTaskOptions(taskID, OperatorWait, opts...)
	return b.addOperator(&WaitOp{Envelope: to.Envelope, WaitFor: waitFor})
}

// Parallel adds a fork-only Parallel node (I7): each branch is built
// into its own complete sub-Workflow, attached as BranchWorkflows, and
// never merged into the parent task map.
func (b *Builder) Parallel(taskID string, branches []Branch, opts ...Opt) *Builder {
	to := newTaskOptions(taskID, OperatorParallel, opts...)
	op := &ParallelOp{
		Envelope:        to.Envelope,
		Branches:        make(map[string][]string),
		BranchWorkflows: make(map[string]*Workflow),
	}
	for _, br := range branches {
		lowered := strings.ToLower(br.Name)
		sub, err := b.newSubBuilder(taskID + "_" + lowered)
		if err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		sub = br.Body(sub)
		for _, id := range sub.workflow.order {
			sub.workflow.Tasks[id].Env().IsInternalParallelTask = true
		}
		finalizeStartTask(sub.workflow)
		op.BranchWorkflows[lowered] = sub.workflow
		heads := []string{}
		if len(sub.workflow.order) > 0 {
			heads = append(heads, sub.workflow.order[0])
		}
		op.Branches[lowered] = heads
	}
	return b.addOperator(op)
}

// ForEach adds a dynamic-mapping loop node. Body tasks are marked
// is_internal_loop_task, attached as LoopBody, AND mirrored into the
// parent task map so flat-view references resolve; only the first
// body task's dependencies gain the container's id.
func (b *Builder) ForEach(taskID, items string, body func(*Builder) *Builder, parallel bool, opts ...Opt) *Builder {
	loopBody := b.buildLoopBody(taskID, body)
	to := newTaskOptions(taskID, OperatorForEach, opts...)
	op := &ForEachOp{Envelope: to.Envelope, Items: items, LoopBody: loopBody, Parallel: parallel}
	return b.addOperator(op)
}

// WhileLoop adds a conditional loop node with the same body-harvesting
// rules as ForEach.
func (b *Builder) WhileLoop(taskID, condition string, body func(*Builder) *Builder, opts ...Opt) *Builder {
	loopBody := b.buildLoopBody(taskID, body)
	to := newTaskOptions(taskID, OperatorWhile, opts...)
	op := &WhileOp{Envelope: to.Envelope, Condition: condition, LoopBody: loopBody}
	return b.addOperator(op)
}

func (b *Builder) buildLoopBody(taskID string, body func(*Builder) *Builder) []Operator {
	sub, err := b.newSubBuilder(taskID + "_loop")
	if err != nil {
		b.errors = append(b.errors, err)
		return nil
	}
	sub = body(sub)
	var loopBody []Operator
	for i, id := range sub.workflow.order {
		t := sub.workflow.Tasks[id]
		e := t.Env()
		e.IsInternalLoopTask = true
		if i == 0 {
			e.Dependencies = sortedUnique(append(e.Dependencies, taskID))
		}
		loopBody = append(loopBody, t)
		b.workflow.AddTask(t)
	}
	return loopBody
}

// EmitEvent adds an event-emission node.
func (b *Builder) EmitEvent(taskID, eventName string, payload map[string]any, opts ...Opt) *Builder {
	to := newTaskOptions(taskID, OperatorEmitEvent, opts...)
	return b.addOperator(&EmitEventOp{Envelope: to.Envelope, EventName: eventName, Payload: payload})
}

// WaitForEvent adds an event-wait node. timeoutSeconds may be nil for
// an unbounded wait.
func (b *Builder) WaitForEvent(taskID, eventName string, timeoutSeconds *int, opts ...Opt) *Builder {
	to := newTaskOptions(taskID, OperatorWaitForEvent, opts...)
	return b.addOperator(&WaitForEventOp{Envelope: to.Envelope, EventName: eventName, TimeoutSeconds: timeoutSeconds})
}

// Switch adds a multi-way routing node.
func (b *Builder) Switch(taskID, switchOn string, cases map[string]string, def string, opts ...Opt) *Builder {
	to := newTaskOptions(taskID, OperatorSwitch, opts...)
	return b.addOperator(&SwitchOp{Envelope: to.Envelope, SwitchOn: switchOn, Cases: cases, Default: def})
}

// Join adds a fan-in node.
func (b *Builder) Join(taskID string, joinTasks []string, mode JoinMode, opts ...Opt) *Builder {
	to := newTaskOptions(taskID, OperatorJoin, opts...)
	return b.addOperator(&JoinOp{Envelope: to.Envelope, JoinTasks: joinTasks, Mode: mode})
}

// Retry sets the retry policy on the current (last-added) task.
func (b *Builder) Retry(policy RetryPolicy) *Builder {
	if t, ok := b.workflow.Tasks[b.currentTask]; ok {
		t.Env().RetryPolicy = &policy
	}
	return b
}

// Timeout sets the timeout policy on the current task.
func (b *Builder) Timeout(policy TimeoutPolicy) *Builder {
	if t, ok := b.workflow.Tasks[b.currentTask]; ok {
		t.Env().TimeoutPolicy = &policy
	}
	return b
}

// OnSuccess binds the current task's on_success_task_id. Binding is
// eager; existence is checked at Build().
func (b *Builder) OnSuccess(handlerID string) *Builder {
	if t, ok := b.workflow.Tasks[b.currentTask]; ok {
		t.Env().OnSuccessTaskID = handlerID
	}
	return b
}

// OnFailure binds the current task's on_failure_task_id.
func (b *Builder) OnFailure(handlerID string) *Builder {
	if t, ok := b.workflow.Tasks[b.currentTask]; ok {
		t.Env().OnFailureTaskID = handlerID
	}
	return b
}

func (b *Builder) SetVariables(vars map[string]any) *Builder {
	b.workflow.SetVariables(vars)
	return b
}

func (b *Builder) SetStartTask(taskID string) *Builder { b.workflow.SetStartTask(taskID); return b }
func (b *Builder) SetSchedule(cron string) *Builder     { b.workflow.SetSchedule(cron); return b }
func (b *Builder) SetDescription(d string) *Builder     { b.workflow.Description = d; return b }
func (b *Builder) AddTags(tags ...string) *Builder      { b.workflow.AddTags(tags...); return b }

// Build finalizes the workflow: validates every on_success/on_failure
// handler reference, defaults start_task to the first inserted key,
// and returns the assembled Workflow. Multiple handler errors are
// returned together via *MultiError.
func (b *Builder) Build() (*Workflow, error) {
	var errs []error
	errs = append(errs, b.errors...)

	for id, op := range b.workflow.Tasks {
		e := op.Env()
		if e.OnSuccessTaskID != "" {
			if _, ok := b.workflow.Tasks[e.OnSuccessTaskID]; !ok {
				errs = append(errs, &MissingHandlerReferenceError{TaskID: id, Field: "on_success_task_id", Target: e.OnSuccessTaskID})
			}
		}
		if e.OnFailureTaskID != "" {
			if _, ok := b.workflow.Tasks[e.OnFailureTaskID]; !ok {
				errs = append(errs, &MissingHandlerReferenceError{TaskID: id, Field: "on_failure_task_id", Target: e.OnFailureTaskID})
			}
		}
	}

	if err := asError(errs); err != nil {
		return nil, err
	}

	finalizeStartTask(b.workflow)
	return b.workflow, nil
}
