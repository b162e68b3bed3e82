package model

// StageID names one of the seven fixed pipeline stages.
type StageID string

const (
	StageDocumentProcessing    StageID = "documentProcessing"
	StageQueryRefinement       StageID = "queryRefinement"
	StageContextualPreAnalysis StageID = "contextualPreAnalysis"
	StageDynamicRetrieval      StageID = "dynamicRetrieval"
	StageResponseGeneration    StageID = "responseGeneration"
	StageSufficiencyEvaluation StageID = "sufficiencyEvaluation"
	StageFinalOutput           StageID = "finalOutput"
)

// StageStatus is the per-stage execution status.
type StageStatus string

const (
	StatusIdle      StageStatus = "idle"
	StatusRunning   StageStatus = "running"
	StatusCompleted StageStatus = "completed"
	StatusFailed    StageStatus = "failed"
	StatusSkipped   StageStatus = "skipped"
)

// StepRecord is the status record of one stage. Output is nil until the
// stage has reported something.
type StepRecord struct {
	ID          StageID     `json:"id"`
	Name        string      `json:"name"`
	Status      StageStatus `json:"status"`
	Output      *string     `json:"output"`
	Description string      `json:"description"`
}

// StageDefinition is the static part of a stage: order, label and description.
type StageDefinition struct {
	ID          StageID
	Name        string
	Description string
}

// Stages lists the pipeline stages in execution order.
var Stages = []StageDefinition{
	{StageDocumentProcessing, "0. Document Processing", "Processes uploaded files (.txt, .pdf), splitting them into manageable chunks to create a local knowledge base."},
	{StageQueryRefinement, "1. Query Refinement", "Analyzes the initial query for ambiguity and refines it for better search precision."},
	{StageContextualPreAnalysis, "2. Contextual Pre-Analysis", "Identifies key entities and concepts in the refined query to inform the retrieval strategy."},
	{StageDynamicRetrieval, "3. Dynamic Retrieval", "Searches the local knowledge base and/or the web to find the most relevant information to answer the query."},
	{StageResponseGeneration, "4. Response Generation", "Synthesizes information from all retrieved sources to formulate an initial draft response."},
	{StageSufficiencyEvaluation, "5. Sufficiency Evaluation", "Evaluates the draft response for completeness, accuracy, and confidence."},
	{StageFinalOutput, "6. Final Output", "Formats and presents the final, validated response to the user, including sources."},
}

// InitialRecord returns the idle record for a stage definition.
func (d StageDefinition) InitialRecord() StepRecord {
	return StepRecord{
		ID:          d.ID,
		Name:        d.Name,
		Status:      StatusIdle,
		Description: d.Description,
	}
}
