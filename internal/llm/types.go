package llm

import (
	"fmt"
)

// Intent is the classification of a free-text turn. The set is closed;
// anything the model returns outside it is a bad response, not a new intent.
type Intent string

const (
	IntentCreateTask     Intent = "create_task"
	IntentMarkAsDone     Intent = "mark_as_done"
	IntentCreateCategory Intent = "create_category"
	IntentChat           Intent = "chat"
)

// ParseIntent validates a raw intent tag.
func ParseIntent(raw string) (Intent, error) {
	switch Intent(raw) {
	case IntentCreateTask, IntentMarkAsDone, IntentCreateCategory, IntentChat:
		return Intent(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown intent %q", ErrBadResponse, raw)
	}
}

// Confidence is the three-level trust signal attached to a category match.
// Only ConfidenceHigh is actionable for auto-assignment.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence validates a raw confidence level.
func ParseConfidence(raw string) (Confidence, error) {
	switch Confidence(raw) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown confidence %q", ErrBadResponse, raw)
	}
}

// DueRef is a date reference extracted from text, not yet resolved.
// Type is "relative" (a symbolic expression) or "absolute" (a literal date).
type DueRef struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// TaskExtraction is the structured result of extracting a task from text.
type TaskExtraction struct {
	Title string  `json:"title"`
	Due   *DueRef `json:"due"`
}

// CategoryMatch scores the best existing category for a task title.
type CategoryMatch struct {
	CategoryID *uint      `json:"category_id"`
	Confidence Confidence `json:"confidence"`
}

// TaskSelection identifies which pending task the user meant. TaskID is nil
// when no task or more than one task matches; Message then explains why.
type TaskSelection struct {
	TaskID  *uint   `json:"task_id"`
	Message *string `json:"message"`
}

// TaskRef is the trimmed task view sent to the model as context.
type TaskRef struct {
	ID         uint    `json:"task_id"`
	Title      string  `json:"task_title"`
	CategoryID *uint   `json:"category_id"`
	DueAt      *string `json:"due_at"`
}

// CategoryRef is the trimmed category view sent to the model as context.
type CategoryRef struct {
	ID          uint   `json:"category_id"`
	Name        string `json:"category_name"`
	Description string `json:"description,omitempty"`
}
