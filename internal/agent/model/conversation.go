package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Chunk is a bounded slice of an ingested document.
type Chunk struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	SourceFile string `json:"sourceFile"`
}

// Source is a web page that grounded a generated answer.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Turn is one immutable entry of the conversation ledger.
type Turn struct {
	ID              string   `json:"id"`
	Role            Role     `json:"role"`
	Text            string   `json:"text"`
	Sources         []Source `json:"sources,omitempty"`
	RetrievedChunks []Chunk  `json:"retrievedChunks,omitempty"`
}

// NewUserTurn creates a user turn with a fresh id.
func NewUserTurn(text string) Turn {
	return Turn{ID: "user-" + uuid.NewString(), Role: RoleUser, Text: text}
}

// NewModelTurn creates a model turn carrying the answer and its evidence.
func NewModelTurn(text string, sources []Source, chunks []Chunk) Turn {
	return Turn{
		ID:              "model-" + uuid.NewString(),
		Role:            RoleModel,
		Text:            text,
		Sources:         sources,
		RetrievedChunks: chunks,
	}
}

// NewErrorTurn creates the synthetic model turn appended when a pass fails.
func NewErrorTurn(message string) Turn {
	return Turn{ID: "error-" + uuid.NewString(), Role: RoleModel, Text: "Sorry, an error occurred: " + message}
}

// LogEntry is one line of the session trace.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

func (e LogEntry) String() string {
	return e.Timestamp.Format(time.TimeOnly) + ": " + e.Message
}
