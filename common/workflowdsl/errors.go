package workflowdsl

import "strings"

// NameInvalidError reports a workflow name or version that fails its
// regex or contains the reserved "__" separator.
type NameInvalidError struct {
	Name    string
	Version string
	Reason  string
}

func (e *NameInvalidError) Error() string {
	return "name invalid: " + e.Reason + " (name=" + e.Name + " version=" + e.Version + ")"
}

// UnknownOperatorTypeError reports a decoder-observed operator_type
// outside the closed set.
type UnknownOperatorTypeError struct {
	TaskID       string
	OperatorType string
}

func (e *UnknownOperatorTypeError) Error() string {
	return "unknown operator type " + e.OperatorType + " for task " + e.TaskID
}

// MissingFieldError reports a required variant-specific field absent
// from wire input.
type MissingFieldError struct {
	TaskID string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return "task " + e.TaskID + " missing required field " + e.Field
}

// DuplicateTaskIDError reports a strict-mode double insertion.
type DuplicateTaskIDError struct {
	TaskID string
}

func (e *DuplicateTaskIDError) Error() string {
	return "duplicate task id " + e.TaskID
}

// DanglingReferenceError reports a reference naming a non-existent
// task id.
type DanglingReferenceError struct {
	TaskID string
	Field  string
	Target string
}

func (e *DanglingReferenceError) Error() string {
	return "task " + e.TaskID + " field " + e.Field + " references unknown task " + e.Target
}

// MissingHandlerReferenceError reports a build-time failure to
// resolve on_success_task_id/on_failure_task_id.
type MissingHandlerReferenceError struct {
	TaskID string
	Field  string
	Target string
}

func (e *MissingHandlerReferenceError) Error() string {
	return "task " + e.TaskID + " " + e.Field + " references missing handler " + e.Target
}

// InvalidWaitFormError reports a Wait.wait_for value that could not
// be parsed or accepted.
type InvalidWaitFormError struct {
	TaskID string
	Value  string
}

func (e *InvalidWaitFormError) Error() string {
	return "task " + e.TaskID + " has invalid wait_for value: " + e.Value
}

// InvalidOperatorError reports a constructor-level rejection of an
// obviously invalid operator, such as a Condition whose if_true or
// if_false names its own task id.
type InvalidOperatorError struct {
	TaskID string
	Reason string
}

func (e *InvalidOperatorError) Error() string {
	return "invalid operator " + e.TaskID + ": " + e.Reason
}

// EncodeError wraps an underlying YAML/JSON serialization failure.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "encode error: " + e.Err.Error() }
func (e *EncodeError) Unwrap() error { return e.Err }

// MultiError aggregates multiple validation or build failures so
// callers see every problem in one pass rather than one-at-a-time.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	parts := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

func (m *MultiError) Unwrap() []error { return m.Errors }

// asError returns nil for an empty slice, the single error directly
// for one element, or a *MultiError otherwise.
func asError(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &MultiError{Errors: errs}
	}
}
