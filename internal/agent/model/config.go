package model

import "time"

// ================ Config ================
type OracleConfig struct {
	Model             string  `envconfig:"ORACLE_MODEL" default:"gemini-2.5-flash"`
	RefineTemperature float32 `envconfig:"ORACLE_REFINE_TEMPERATURE" default:"0.2"`
	RefineMaxTokens   int     `envconfig:"ORACLE_REFINE_MAX_TOKENS" default:"512"`
	RankPreviewChars  int     `envconfig:"ORACLE_RANK_PREVIEW_CHARS" default:"200"`
	EvalResponseChars int     `envconfig:"ORACLE_EVAL_RESPONSE_CHARS" default:"2000"`
	// MaxHistoryTurns bounds the prior turns sent with each call; 0 sends all.
	MaxHistoryTurns int `envconfig:"ORACLE_MAX_HISTORY_TURNS" default:"0"`
}

type WorkflowConfig struct {
	ConfidenceThreshold int           `envconfig:"WORKFLOW_CONFIDENCE_THRESHOLD" default:"75"`
	MaxChunkChars       int           `envconfig:"WORKFLOW_MAX_CHUNK_CHARS" default:"1000"`
	PreAnalysisDelay    time.Duration `envconfig:"WORKFLOW_PRE_ANALYSIS_DELAY" default:"500ms"`
}

type SessionConfig struct {
	TTL             time.Duration `envconfig:"SESSION_TTL" default:"1h"`
	CleanupInterval time.Duration `envconfig:"SESSION_CLEANUP_INTERVAL" default:"10m"`
}

const (
	DefaultConfidenceThreshold = 75
	DefaultMaxChunkChars       = 1000
)

// Normalize fills zero values with defaults so hand-built configs behave
// like envconfig-loaded ones.
func (c WorkflowConfig) Normalize() WorkflowConfig {
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.MaxChunkChars <= 0 {
		c.MaxChunkChars = DefaultMaxChunkChars
	}
	if c.PreAnalysisDelay < 0 {
		c.PreAnalysisDelay = 0
	}
	return c
}
