package workflowdsl

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// ToTree dumps the workflow into a plain tree of primitive/collection
// values with enum variants rendered as their wire tags (§4.2's
// two-phase encoding contract, phase 1). Unset optionals are omitted.
func (w *Workflow) ToTree() map[string]any {
	return dumpWorkflow(w)
}

func dumpWorkflow(w *Workflow) map[string]any {
	tree := map[string]any{
		"name":            w.Name,
		"version":         w.Version,
		"catchup":         w.Catchup,
		"is_paused":       w.IsPaused,
		"max_active_runs": w.MaxActiveRuns,
	}
	if w.Description != "" {
		tree["description"] = w.Description
	}
	if len(w.Variables) > 0 {
		tree["variables"] = w.Variables
	}
	if w.StartTask != "" {
		tree["start_task"] = w.StartTask
	}
	if w.Schedule != "" {
		tree["schedule"] = w.Schedule
	}
	if w.StartDate != nil {
		tree["start_date"] = w.StartDate.UTC().Format(time.RFC3339Nano)
	}
	if len(w.Tags) > 0 {
		tree["tags"] = w.Tags
	}
	if w.DefaultRetryPolicy != nil {
		tree["default_retry_policy"] = dumpRetryPolicy(w.DefaultRetryPolicy)
	}
	tasks := make(map[string]any, len(w.Tasks))
	for id, op := range w.Tasks {
		tasks[id] = dumpOperator(op)
	}
	tree["tasks"] = tasks
	return tree
}

func dumpRetryPolicy(rp *RetryPolicy) map[string]any {
	return map[string]any{
		"max_retries":    rp.MaxRetries,
		"delay":          rp.Delay.Seconds(),
		"backoff_factor": rp.BackoffFactor,
	}
}

func dumpTimeoutPolicy(tp *TimeoutPolicy) map[string]any {
	return map[string]any{
		"timeout":         tp.Timeout.Seconds(),
		"kill_on_timeout": tp.KillOnTimeout,
	}
}

func dumpEnvelope(e *Envelope) map[string]any {
	m := map[string]any{"operator_type": string(e.Type), "task_id": e.TaskID}
	if len(e.Dependencies) > 0 {
		m["dependencies"] = sortedUnique(e.Dependencies)
	}
	if e.TriggerRule != "" && e.TriggerRule != TriggerAllSuccess {
		m["trigger_rule"] = string(e.TriggerRule)
	}
	if e.RetryPolicy != nil {
		m["retry_policy"] = dumpRetryPolicy(e.RetryPolicy)
	}
	if e.TimeoutPolicy != nil {
		m["timeout_policy"] = dumpTimeoutPolicy(e.TimeoutPolicy)
	}
	if e.IdempotencyKey != "" {
		m["idempotency_key"] = e.IdempotencyKey
	}
	if len(e.Metadata) > 0 {
		m["metadata"] = e.Metadata
	}
	if e.Description != "" {
		m["description"] = e.Description
	}
	if e.ResultKey != "" {
		m["result_key"] = e.ResultKey
	}
	if e.OnSuccessTaskID != "" {
		m["on_success_task_id"] = e.OnSuccessTaskID
	}
	if e.OnFailureTaskID != "" {
		m["on_failure_task_id"] = e.OnFailureTaskID
	}
	// The internal-task flags are engine-consumed and always
	// serialized, unlike the other optional envelope fields (§3).
	m["is_internal_loop_task"] = e.IsInternalLoopTask
	m["is_internal_parallel_task"] = e.IsInternalParallelTask
	return m
}

func dumpOperator(op Operator) map[string]any {
	m := dumpEnvelope(op.Env())
	switch o := op.(type) {
	case *TaskOp:
		m["function"] = o.Function
		if len(o.Args) > 0 {
			m["args"] = o.Args
		}
		if len(o.Kwargs) > 0 {
			m["kwargs"] = o.Kwargs
		}
	case *ActivityOp:
		m["function"] = o.Function
		if len(o.Args) > 0 {
			m["args"] = o.Args
		}
		if len(o.Kwargs) > 0 {
			m["kwargs"] = o.Kwargs
		}
	case *ConditionOp:
		m["condition"] = o.Condition
		if o.IfTrue != "" {
			m["if_true"] = o.IfTrue
		}
		if o.IfFalse != "" {
			m["if_false"] = o.IfFalse
		}
	case *WaitOp:
		m["wait_for"] = encodeWaitFor(o.WaitFor)
	case *ParallelOp:
		branches := make(map[string]any, len(o.Branches))
		for name, heads := range o.Branches {
			branches[name] = heads
		}
		m["branches"] = branches
		if len(o.BranchWorkflows) > 0 {
			bw := make(map[string]any, len(o.BranchWorkflows))
			for name, sub := range o.BranchWorkflows {
				bw[name] = dumpWorkflow(sub)
			}
			m["branch_workflows"] = bw
		}
		if o.Timeout != nil {
			m["timeout"] = *o.Timeout
		}
	case *ForEachOp:
		m["items"] = o.Items
		m["parallel"] = o.Parallel
		body := make([]any, len(o.LoopBody))
		for i, b := range o.LoopBody {
			body[i] = dumpOperator(b)
		}
		m["loop_body"] = body
	case *WhileOp:
		m["condition"] = o.Condition
		body := make([]any, len(o.LoopBody))
		for i, b := range o.LoopBody {
			body[i] = dumpOperator(b)
		}
		m["loop_body"] = body
	case *EmitEventOp:
		m["event_name"] = o.EventName
		if len(o.Payload) > 0 {
			m["payload"] = o.Payload
		}
	case *WaitForEventOp:
		m["event_name"] = o.EventName
		if o.TimeoutSeconds != nil {
			m["timeout_seconds"] = *o.TimeoutSeconds
		}
	case *SwitchOp:
		m["switch_on"] = o.SwitchOn
		if len(o.Cases) > 0 {
			cases := make(map[string]any, len(o.Cases))
			for k, v := range o.Cases {
				cases[k] = v
			}
			m["cases"] = cases
		}
		if o.Default != "" {
			m["default"] = o.Default
		}
	case *JoinOp:
		m["join_tasks"] = o.JoinTasks
		m["join_mode"] = string(o.Mode)
	}
	return m
}

// EncodeYAML renders the workflow as block-style YAML.
func (w *Workflow) EncodeYAML() (string, error) {
	out, err := yaml.Marshal(w.ToTree())
	if err != nil {
		return "", &EncodeError{Err: err}
	}
	return string(out), nil
}

// EncodeJSON renders the workflow as indent=2 JSON.
func (w *Workflow) EncodeJSON() (string, error) {
	out, err := json.MarshalIndent(w.ToTree(), "", "  ")
	if err != nil {
		return "", &EncodeError{Err: err}
	}
	return string(out), nil
}

// DecodeYAML parses YAML source into a Workflow.
func DecodeYAML(src []byte) (*Workflow, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(src, &tree); err != nil {
		return nil, &EncodeError{Err: err}
	}
	return FromTree(normalizeYAMLTree(tree).(map[string]any))
}

// DecodeJSON parses JSON source into a Workflow.
func DecodeJSON(src []byte) (*Workflow, error) {
	var tree map[string]any
	if err := json.Unmarshal(src, &tree); err != nil {
		return nil, &EncodeError{Err: err}
	}
	return FromTree(tree)
}

// FromTree is phase 2 of the decode path: it reconstructs a typed
// Workflow from the generic tree produced by YAML/JSON unmarshaling,
// applying the legacy-shim normalization to the tasks sub-tree first.
func FromTree(tree map[string]any) (*Workflow, error) {
	name, _ := tree["name"].(string)
	version, _ := tree["version"].(string)
	if version == "" {
		version = DefaultVersion
	}
	w, err := NewWorkflow(name, version)
	if err != nil {
		return nil, err
	}
	if d, ok := tree["description"].(string); ok {
		w.Description = d
	}
	if vars, ok := asMap(tree["variables"]); ok {
		w.SetVariables(vars)
	}
	if st, ok := tree["start_task"].(string); ok {
		w.StartTask = st
	}
	if sc, ok := tree["schedule"].(string); ok {
		w.Schedule = sc
	}
	if sd, ok := tree["start_date"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, sd); err == nil {
			w.StartDate = &t
		}
	}
	if c, ok := tree["catchup"].(bool); ok {
		w.Catchup = c
	}
	if p, ok := tree["is_paused"].(bool); ok {
		w.IsPaused = p
	}
	w.Tags = asStringSlice(tree["tags"])
	if n, ok := asInt(tree["max_active_runs"]); ok {
		w.MaxActiveRuns = n
	} else {
		w.MaxActiveRuns = 1
	}
	if rp, ok := asMap(tree["default_retry_policy"]); ok {
		w.DefaultRetryPolicy = parseRetryPolicy(rp)
	}

	tasksRaw, _ := tree["tasks"].(map[string]any)
	if tasksRaw == nil {
		tasksRaw = map[string]any{}
	}
	normalizeLegacyTree(tasksRaw, name, version)

	for id, raw := range tasksRaw {
		body, ok := asMap(raw)
		if !ok {
			return nil, &MissingFieldError{TaskID: id, Field: "tasks[*] (not a mapping)"}
		}
		op, err := buildOperatorFromTree(id, body)
		if err != nil {
			return nil, err
		}
		w.AddTask(op)
	}
	return w, nil
}

func parseRetryPolicy(m map[string]any) *RetryPolicy {
	rp := DefaultRetryPolicy()
	if n, ok := asInt(m["max_retries"]); ok {
		rp.MaxRetries = n
	}
	if s, ok := asFloat(m["delay"]); ok {
		rp.Delay = Seconds(s)
	}
	if f, ok := asFloat(m["backoff_factor"]); ok {
		rp.BackoffFactor = f
	}
	return &rp
}

func parseTimeoutPolicy(m map[string]any) *TimeoutPolicy {
	tp := TimeoutPolicy{KillOnTimeout: true}
	if s, ok := asFloat(m["timeout"]); ok {
		tp.Timeout = Seconds(s)
	}
	if b, ok := m["kill_on_timeout"].(bool); ok {
		tp.KillOnTimeout = b
	}
	return &tp
}

func parseEnvelope(taskID string, body map[string]any) (Envelope, OperatorType, error) {
	typRaw, _ := body["operator_type"].(string)
	typ := OperatorType(typRaw)
	if !validOperatorTypes[typ] {
		return Envelope{}, "", &UnknownOperatorTypeError{TaskID: taskID, OperatorType: typRaw}
	}
	e := Envelope{
		TaskID:      taskID,
		Type:        typ,
		TriggerRule: TriggerAllSuccess,
	}
	e.Dependencies = sortedUnique(asStringSlice(body["dependencies"]))
	if tr, ok := body["trigger_rule"].(string); ok {
		e.TriggerRule = TriggerRule(tr)
	}
	if rp, ok := asMap(body["retry_policy"]); ok {
		e.RetryPolicy = parseRetryPolicy(rp)
	}
	if tp, ok := asMap(body["timeout_policy"]); ok {
		e.TimeoutPolicy = parseTimeoutPolicy(tp)
	}
	if k, ok := body["idempotency_key"].(string); ok {
		e.IdempotencyKey = k
	}
	if m, ok := asMap(body["metadata"]); ok {
		e.Metadata = m
	}
	if d, ok := body["description"].(string); ok {
		e.Description = d
	}
	if rk, ok := body["result_key"].(string); ok {
		e.ResultKey = rk
	}
	if v, ok := body["on_success_task_id"].(string); ok {
		e.OnSuccessTaskID = v
	}
	if v, ok := body["on_failure_task_id"].(string); ok {
		e.OnFailureTaskID = v
	}
	if v, ok := body["is_internal_loop_task"].(bool); ok {
		e.IsInternalLoopTask = v
	}
	if v, ok := body["is_internal_parallel_task"].(bool); ok {
		e.IsInternalParallelTask = v
	}
	return e, typ, nil
}

func buildOperatorFromTree(taskID string, body map[string]any) (Operator, error) {
	e, typ, err := parseEnvelope(taskID, body)
	if err != nil {
		return nil, err
	}
	switch typ {
	case OperatorTask:
		fn, ok := body["function"].(string)
		if !ok {
			return nil, &MissingFieldError{TaskID: taskID, Field: "function"}
		}
		return &TaskOp{Envelope: e, Function: fn, Args: asSlice(body["args"]), Kwargs: mapOrNil(body["kwargs"])}, nil
	case OperatorActivity:
		fn, ok := body["function"].(string)
		if !ok {
			return nil, &MissingFieldError{TaskID: taskID, Field: "function"}
		}
		return &ActivityOp{Envelope: e, Function: fn, Args: asSlice(body["args"]), Kwargs: mapOrNil(body["kwargs"])}, nil
	case OperatorCondition:
		cond, ok := body["condition"].(string)
		if !ok {
			return nil, &MissingFieldError{TaskID: taskID, Field: "condition"}
		}
		ifTrue, _ := body["if_true"].(string)
		ifFalse, _ := body["if_false"].(string)
		if ifTrue == taskID || ifFalse == taskID {
			return nil, &InvalidOperatorError{TaskID: taskID, Reason: "if_true/if_false must not self-reference"}
		}
		return &ConditionOp{Envelope: e, Condition: cond, IfTrue: ifTrue, IfFalse: ifFalse}, nil
	case OperatorWait:
		raw, ok := body["wait_for"].(string)
		if !ok {
			return nil, &MissingFieldError{TaskID: taskID, Field: "wait_for"}
		}
		return &WaitOp{Envelope: e, WaitFor: decodeWaitFor(raw)}, nil
	case OperatorParallel:
		branches := map[string][]string{}
		if bm, ok := asMap(body["branches"]); ok {
			for name, heads := range bm {
				branches[name] = asStringSlice(heads)
			}
		}
		branchWorkflows := map[string]*Workflow{}
		if bwm, ok := asMap(body["branch_workflows"]); ok {
			for name, subRaw := range bwm {
				subTree, ok := asMap(subRaw)
				if !ok {
					continue
				}
				sub, err := FromTree(subTree)
				if err != nil {
					return nil, err
				}
				branchWorkflows[name] = sub
			}
		}
		var timeout *int
		if n, ok := asInt(body["timeout"]); ok {
			timeout = &n
		}
		return &ParallelOp{Envelope: e, Branches: branches, BranchWorkflows: branchWorkflows, Timeout: timeout}, nil
	case OperatorForEach:
		items, ok := body["items"].(string)
		if !ok {
			return nil, &MissingFieldError{TaskID: taskID, Field: "items"}
		}
		loopBody, err := buildLoopBodyFromTree(body["loop_body"])
		if err != nil {
			return nil, err
		}
		parallel, _ := body["parallel"].(bool)
		return &ForEachOp{Envelope: e, Items: items, LoopBody: loopBody, Parallel: parallel}, nil
	case OperatorWhile:
		cond, ok := body["condition"].(string)
		if !ok {
			return nil, &MissingFieldError{TaskID: taskID, Field: "condition"}
		}
		loopBody, err := buildLoopBodyFromTree(body["loop_body"])
		if err != nil {
			return nil, err
		}
		return &WhileOp{Envelope: e, Condition: cond, LoopBody: loopBody}, nil
	case OperatorEmitEvent:
		name, ok := body["event_name"].(string)
		if !ok {
			return nil, &MissingFieldError{TaskID: taskID, Field: "event_name"}
		}
		return &EmitEventOp{Envelope: e, EventName: name, Payload: mapOrNil(body["payload"])}, nil
	case OperatorWaitForEvent:
		name, ok := body["event_name"].(string)
		if !ok {
			return nil, &MissingFieldError{TaskID: taskID, Field: "event_name"}
		}
		var timeoutSeconds *int
		if n, ok := asInt(body["timeout_seconds"]); ok {
			timeoutSeconds = &n
		}
		return &WaitForEventOp{Envelope: e, EventName: name, TimeoutSeconds: timeoutSeconds}, nil
	case OperatorSwitch:
		switchOn, ok := body["switch_on"].(string)
		if !ok {
			return nil, &MissingFieldError{TaskID: taskID, Field: "switch_on"}
		}
		cases := map[string]string{}
		if cm, ok := asMap(body["cases"]); ok {
			for k, v := range cm {
				if s, ok := v.(string); ok {
					cases[k] = s
				}
			}
		}
		def, _ := body["default"].(string)
		return &SwitchOp{Envelope: e, SwitchOn: switchOn, Cases: cases, Default: def}, nil
	case OperatorJoin:
		joinTasks := asStringSlice(body["join_tasks"])
		mode, _ := body["join_mode"].(string)
		if mode == "" {
			mode = string(JoinAllOf)
		}
		return &JoinOp{Envelope: e, JoinTasks: joinTasks, Mode: JoinMode(mode)}, nil
	default:
		return nil, &UnknownOperatorTypeError{TaskID: taskID, OperatorType: string(typ)}
	}
}

func buildLoopBodyFromTree(raw any) ([]Operator, error) {
	items := asSlice(raw)
	if items == nil {
		return nil, nil
	}
	body := make([]Operator, 0, len(items))
	for _, item := range items {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		id, _ := m["task_id"].(string)
		op, err := buildOperatorFromTree(id, m)
		if err != nil {
			return nil, err
		}
		body = append(body, op)
	}
	return body, nil
}

// --- generic-tree helpers ---

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func mapOrNil(v any) map[string]any {
	m, _ := asMap(v)
	return m
}

func asSlice(v any) []any {
	s, ok := v.([]any)
	if !ok {
		return nil
	}
	return s
}

func asStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// normalizeYAMLTree converts the map[string]interface{} / []interface{}
// shapes that yaml.v3 produces for nested mappings (which default to
// map[string]interface{} already under Go's yaml.v3, but nested
// mapping keys read from some legacy fixtures may surface as
// map[interface{}]interface{}-free thanks to v3's decoder) into the
// map[string]any shape the rest of the codec assumes. yaml.v3
// already decodes mapping nodes into map[string]interface{} when the
// destination is `any`, so this is effectively a type assertion
// pass-through retained for defensiveness against hand-authored
// fixtures built with alternate YAML libraries upstream.
func normalizeYAMLTree(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = normalizeYAMLTree(val)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = normalizeYAMLTree(val)
		}
		return out
	default:
		return v
	}
}
