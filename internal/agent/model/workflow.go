package model

import "slices"

// Phase is the coarse state of the workflow orchestrator.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseRunning            Phase = "running"
	PhaseAwaitingHumanInput Phase = "awaiting_human_input"
	PhaseCompleted          Phase = "completed"
	PhaseFailed             Phase = "failed"
)

// AcceptsQueries reports whether a new query may be submitted in this phase.
func (p Phase) AcceptsQueries() bool {
	switch p {
	case PhaseIdle, PhaseCompleted, PhaseFailed, "":
		return true
	}
	return false
}

// Action is a remedial strategy chosen while the workflow is suspended.
type Action string

const (
	ActionRefineQuery       Action = "refine_query"
	ActionAddContext        Action = "add_context"
	ActionSearchWeb         Action = "search_web"
	ActionAcceptResponse    Action = "accept_response"
	ActionManualImprovement Action = "manual_improvement"
)

// AllActions is the action set offered on every suspension.
var AllActions = []Action{
	ActionRefineQuery,
	ActionAddContext,
	ActionSearchWeb,
	ActionAcceptResponse,
	ActionManualImprovement,
}

// ParseAction validates a wire value.
func ParseAction(v string) (Action, bool) {
	a := Action(v)
	return a, slices.Contains(AllActions, a)
}

// Generation is the answer produced by the oracle.
type Generation struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Evaluation is the oracle's sufficiency verdict.
type Evaluation struct {
	ConfidenceScore int    `json:"confidenceScore"`
	Justification   string `json:"justification"`
}

// PendingDecision is the frozen state of a suspended workflow. It is replaced
// wholesale on every re-suspension, never edited in place.
type PendingDecision struct {
	CurrentResponse  string   `json:"currentResponse"`
	Confidence       int      `json:"confidence"`
	Justification    string   `json:"justification"`
	AvailableActions []Action `json:"availableActions"`
	OriginalQuery    string   `json:"originalQuery"`
	RefinedQuery     string   `json:"refinedQuery"`
	InternalContext  string   `json:"internalContext"`
	ChatHistory      []Turn   `json:"chatHistory"`

	// Evidence behind CurrentResponse. Older snapshots may lack
	// RetrievedChunks, in which case chunks are recovered from InternalContext.
	Sources         []Source `json:"sources,omitempty"`
	RetrievedChunks []Chunk  `json:"retrievedChunks,omitempty"`
}

// Allows reports whether action is offered by this decision.
func (d *PendingDecision) Allows(action Action) bool {
	return d != nil && slices.Contains(d.AvailableActions, action)
}

// SessionState is the serializable form of one session. Each field can be
// stored on its own; restoring all six reconstructs the session exactly.
type SessionState struct {
	Agents  []StepRecord     `json:"agents"`
	Logs    []LogEntry       `json:"logs"`
	History []Turn           `json:"history"`
	Chunks  []Chunk          `json:"chunks"`
	Phase   Phase            `json:"phase"`
	Pending *PendingDecision `json:"pending"`
}
