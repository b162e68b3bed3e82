package model

// Route selects which compiled graph executes a pass.
type Route string

const (
	// RouteQuery is a fresh pass: refine, pre-analysis, retrieve, generate, evaluate.
	RouteQuery Route = "query"
	// RouteFeedback re-refines with human feedback, then retrieve, generate, evaluate.
	RouteFeedback Route = "feedback"
	// RouteWebEnhance enhances the current answer with web search, then evaluates.
	RouteWebEnhance Route = "web_enhance"
	// RouteReevaluate only evaluates the unchanged answer again.
	RouteReevaluate Route = "reevaluate"
	// RouteAccept finalizes the current answer without evaluation.
	RouteAccept Route = "accept"
)

// Pass carries everything one graph run reads and produces. It flows through
// every node by pointer; exactly one of Turn or Decision is set when a run
// ends without error.
type Pass struct {
	// Remedial is true when the pass resumes a suspended workflow.
	Remedial bool

	OriginalQuery string
	RefinedQuery  string
	// History is the ledger snapshot taken when the pass started, including
	// the in-flight user turn.
	History []Turn

	// Human feedback and the justification it responds to (RouteFeedback).
	Feedback      string
	Justification string

	Chunks          []Chunk
	InternalContext string
	UseWebSearch    bool
	// RetrievalSummary is the pending output of the retrieval stage, which
	// completes only once generation has reported its web sources.
	RetrievalSummary string

	Response   string
	Sources    []Source
	Evaluation *Evaluation

	Turn     *Turn
	Decision *PendingDecision
}

// Suspended reports whether the pass ended waiting for a human decision.
func (p *Pass) Suspended() bool {
	return p != nil && p.Decision != nil
}
