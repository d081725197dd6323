package domain

import "time"

// Region is a snapshot of one interactive element, valid only within
// the scan that produced it (spec §3).
type Region struct {
	ID         string
	Label      string
	Role       string
	BBox       BBox
	Href       string
	Confidence float64
}

// BBox is a viewport-relative bounding box.
type BBox struct {
	X, Y, W, H float64
}

// Valid reports whether both dimensions clear the 5px visibility floor
// (spec §4.2 step 3 / invariant P1).
func (b BBox) Valid() bool {
	return b.W >= 5 && b.H >= 5
}

// Decision is the validated output of the DecisionOracle.
type Decision struct {
	Action     Action
	Reasoning  string
	Confidence float64
}

// PlanStep is one atomic step in a Plan.
type PlanStep struct {
	ID          string
	Title       string
	Description string
	NeedsAuth   bool
}

// Strategy classifies the overall shape of a task. The LLM planning
// path is restricted to the three named values below; the heuristic
// fallback (planner.Planner.fallback) instead writes a free-text
// "System Offline: <task>" value per spec.
type Strategy string

const (
	StrategySimpleAction  Strategy = "SIMPLE_ACTION"
	StrategyDeepResearch  Strategy = "DEEP_RESEARCH"
	StrategyTransactional Strategy = "TRANSACTIONAL"
)

// Plan is an ordered decomposition of a task into 1..10 steps.
type Plan struct {
	Strategy Strategy
	Steps    []PlanStep
}

// Outcome describes the before/after effect of the last dispatched
// action, used to build the next Feedback.
type Outcome struct {
	StateChanged bool
	URLBefore    string
	URLAfter     string
	TitleBefore  string
	TitleAfter   string
	TextBefore   string
	TextAfter    string
}

// RegionDiff is the set of region labels that appeared/disappeared
// between two successive scans, capped at 15 each (spec §4.6 step 1).
type RegionDiff struct {
	Appeared    []string
	Disappeared []string
}

// Feedback is the controller's synthesised delta fed into the next
// DecisionOracle call.
type Feedback struct {
	LastAction  Action
	LastOutcome *Outcome
	RegionDiff  *RegionDiff
}

// HistoryItem is one append-only SessionMemory row.
type HistoryItem struct {
	Step      int
	Action    Action
	Reasoning string
	Outcome   Outcome
	Timestamp time.Time
}

// MaxSteps is the hard per-session step budget (spec §3 ControllerState).
const MaxSteps = 50

// MaxAutoScrolls bounds the pre-LLM auto-scroll gate (spec §4.6 step 3).
const MaxAutoScrolls = 5

// ScrollState tracks the auto-scroll gate's geometry between iterations.
type ScrollState struct {
	ScrollCount     int
	ContentVisible  bool
	BottomReached   bool
	LastScrollY     float64
	LastScrollHeight float64
}

// Reset clears scroll tracking, invoked on URL change (invariant I4).
func (s *ScrollState) Reset() {
	*s = ScrollState{}
}

// ScrollGeometry is a point-in-time read of the page's scroll metrics.
type ScrollGeometry struct {
	ScrollY        float64
	ScrollHeight   float64
	ViewportHeight float64
}

// PauseKind distinguishes why RunLoop stopped without finishing.
type PauseKind string

const (
	PauseNone        PauseKind = ""
	PauseConfirm     PauseKind = "CONFIRM"
	PauseAskUser     PauseKind = "ASK_USER"
	PauseGuardrail   PauseKind = "GUARDRAIL"
	PauseOscillation PauseKind = "OSCILLATION"
)

// RunResult is what RunLoop returns on termination (spec §6).
type RunResult struct {
	Completed           bool
	Reason              string
	PendingAction       Action
	PauseKind           PauseKind
	StepCompletionCheck bool
}

// Phase names reported through onStep (spec §6).
type Phase string

const (
	PhaseObserve Phase = "OBSERVE"
	PhaseDecide  Phase = "DECIDE"
	PhaseAct     Phase = "ACT"
	PhaseVerify  Phase = "VERIFY"
)

// StepEvent is one onStep callback payload.
type StepEvent struct {
	Phase   Phase
	Message string
	Action  Action
}
