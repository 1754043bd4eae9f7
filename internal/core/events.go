package core

import "time"

// EventHeader carries correlation metadata through the workflow.
type EventHeader struct {
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	TenantID   string    `json:"tenant_id"`
}

// PhonemizeRequestedEvent asks the worker to phonemize a stored text object.
type PhonemizeRequestedEvent struct {
	Header EventHeader `json:"header"`

	// TextKey is the object store key of the UTF-8 source text.
	TextKey string `json:"text_key"`

	// Voice overrides the service's default voice when non-empty.
	Voice string `json:"voice,omitempty"`

	PhonemeSeparator   string `json:"phoneme_separator,omitempty"`
	WordSeparator      string `json:"word_separator,omitempty"`
	KeepClauseBreakers bool   `json:"keep_clause_breakers,omitempty"`
	KeepLanguageFlags  bool   `json:"keep_language_flags,omitempty"`
	NoStress           bool   `json:"no_stress,omitempty"`

	PageNumber int `json:"page_number"`
	TotalPages int `json:"total_pages"`
}

// PhonemesGeneratedEvent reports a completed phonemize job.
type PhonemesGeneratedEvent struct {
	Header EventHeader `json:"header"`

	// PhonemesKey is the object store key of the generated phoneme string.
	PhonemesKey string `json:"phonemes_key"`

	PageNumber int `json:"page_number"`
	TotalPages int `json:"total_pages"`
}
