package workflow

import "errors"

var (
	ErrEmptyQuery        = errors.New("query must not be empty")
	ErrBusy              = errors.New("a workflow pass or ingestion is already in progress")
	ErrAwaitingDecision  = errors.New("workflow is awaiting a human decision")
	ErrNoPendingDecision = errors.New("no pending human decision")
	ErrActionUnavailable = errors.New("action is not available for the pending decision")
	ErrEmptyFeedback     = errors.New("feedback must not be empty when refining the query")
	ErrNoFiles           = errors.New("no files to process")
	errNoOutcome         = errors.New("pass ended without an answer or a decision")
)
