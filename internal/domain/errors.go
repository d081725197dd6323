package domain

import "fmt"

// StaleElementError is raised when an action references a Region.id
// that is not present in the current ElementStore (invariant I1/P2).
type StaleElementError struct {
	RegionID string
}

func (e *StaleElementError) Error() string {
	return fmt.Sprintf("stale element: region %q not found in current scan", e.RegionID)
}

// NotVisibleError is raised when a region handle has no usable bbox.
type NotVisibleError struct {
	RegionID string
}

func (e *NotVisibleError) Error() string {
	return fmt.Sprintf("element not visible: region %q", e.RegionID)
}

// NavigationContextDestroyedError is expected during link clicks and
// is never fatal — callers catch it and re-read whatever page state
// is accessible.
type NavigationContextDestroyedError struct {
	Cause error
}

func (e *NavigationContextDestroyedError) Error() string {
	return fmt.Sprintf("navigation context destroyed: %v", e.Cause)
}

func (e *NavigationContextDestroyedError) Unwrap() error { return e.Cause }

// GuardrailDeniedError means the action was skipped without pausing.
type GuardrailDeniedError struct {
	Reason string
}

func (e *GuardrailDeniedError) Error() string {
	return fmt.Sprintf("guardrail denied: %s", e.Reason)
}

// GuardrailNeedsConfirmError means the loop must pause with a
// pendingAction for explicit user approval.
type GuardrailNeedsConfirmError struct {
	Reason string
}

func (e *GuardrailNeedsConfirmError) Error() string {
	return fmt.Sprintf("guardrail requires confirmation: %s", e.Reason)
}

// LLMUnavailableError signals the DecisionOracle's LLM path failed;
// the heuristic fallback takes over (or, on step 1, an ASK_USER
// decision exposes the failure per spec §4.4 special failure policy).
type LLMUnavailableError struct {
	Cause      error
	HTTPStatus int
}

func (e *LLMUnavailableError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("llm unavailable (http %d): %v", e.HTTPStatus, e.Cause)
	}
	return fmt.Sprintf("llm unavailable: %v", e.Cause)
}

func (e *LLMUnavailableError) Unwrap() error { return e.Cause }

// BudgetExhaustedError means stepCount exceeded MaxSteps.
type BudgetExhaustedError struct{}

func (e *BudgetExhaustedError) Error() string { return "max steps reached" }

// OscillationDetectedError means the same (action.type, label) pair
// repeated three times in a row.
type OscillationDetectedError struct {
	ActionKey string
	Count     int
}

func (e *OscillationDetectedError) Error() string {
	return fmt.Sprintf("oscillation detected: %s repeated %d times", e.ActionKey, e.Count)
}

// SchemaError means the LLM's decision or plan output failed
// validation against the expected shape.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string { return fmt.Sprintf("schema error: %s", e.Message) }
