package session

import (
	"sync"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
)

// Registry tracks the status record of every pipeline stage.
type Registry struct {
	mu      sync.RWMutex
	records map[model.StageID]model.StepRecord
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset restores every stage, document processing included, to idle.
func (r *Registry) Reset() {
	records := make(map[model.StageID]model.StepRecord, len(model.Stages))
	for _, def := range model.Stages {
		records[def.ID] = def.InitialRecord()
	}
	r.mu.Lock()
	r.records = records
	r.mu.Unlock()
}

// ResetForNewQuery restores every stage to idle except document processing,
// whose status reflects the standing knowledge base.
func (r *Registry) ResetForNewQuery() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range model.Stages {
		if def.ID == model.StageDocumentProcessing {
			continue
		}
		r.records[def.ID] = def.InitialRecord()
	}
}

// SetStatus changes a stage status and keeps its previous output.
func (r *Registry) SetStatus(id model.StageID, status model.StageStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return
	}
	rec.Status = status
	r.records[id] = rec
}

// SetOutput changes a stage status and replaces its output.
func (r *Registry) SetOutput(id model.StageID, status model.StageStatus, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return
	}
	rec.Status = status
	rec.Output = &output
	r.records[id] = rec
}

// FailRunning marks every running stage failed with message and returns the
// affected stage ids in pipeline order.
func (r *Registry) FailRunning(message string) []model.StageID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed []model.StageID
	for _, def := range model.Stages {
		rec := r.records[def.ID]
		if rec.Status != model.StatusRunning {
			continue
		}
		msg := message
		rec.Status = model.StatusFailed
		rec.Output = &msg
		r.records[def.ID] = rec
		failed = append(failed, def.ID)
	}
	return failed
}

// Get returns a copy of one stage record.
func (r *Registry) Get(id model.StageID) model.StepRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneRecord(r.records[id])
}

// List returns copies of all records in pipeline order.
func (r *Registry) List() []model.StepRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.StepRecord, 0, len(model.Stages))
	for _, def := range model.Stages {
		out = append(out, cloneRecord(r.records[def.ID]))
	}
	return out
}

// Restore replaces the records with a snapshot. Unknown stages are ignored
// and missing ones start idle.
func (r *Registry) Restore(records []model.StepRecord) {
	r.Reset()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		if _, ok := r.records[rec.ID]; !ok {
			continue
		}
		r.records[rec.ID] = cloneRecord(rec)
	}
}

func cloneRecord(rec model.StepRecord) model.StepRecord {
	if rec.Output != nil {
		out := *rec.Output
		rec.Output = &out
	}
	return rec
}
