package domain

import (
	"encoding/json"
	"time"
)

// SectionCount is the fixed number of questionnaire sections.
const SectionCount = 11

// SectionID addresses one questionnaire section by position (0..SectionCount-1).
type SectionID int

// Valid reports whether the id addresses one of the fixed sections.
func (id SectionID) Valid() bool {
	return id >= 0 && int(id) < SectionCount
}

// Document is the partial answer set of one questionnaire, keyed by field name.
// A missing key means the field has never been committed.
type Document map[string]any

// Clone returns a copy that shares no map storage with d.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Slice holds the values of one section's fields.
type Slice map[string]any

// Clone returns a copy that shares no map storage with s.
func (s Slice) Clone() Slice {
	out := make(Slice, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FieldErrors maps a field name to a human-readable reason.
type FieldErrors map[string]string

// Completion is the per-section "validated at least once" bitmap.
type Completion [SectionCount]bool

// Count returns how many sections are complete.
func (c Completion) Count() int {
	n := 0
	for _, done := range c {
		if done {
			n++
		}
	}
	return n
}

// Draft is a previously saved questionnaire used to seed a session.
type Draft struct {
	ID        string     `json:"id"`
	Answers   Document   `json:"answers"`
	Completed Completion `json:"completed"`
}

// SubmissionPayload is the finalized, fully validated questionnaire.
// It is immutable once produced; accessors hand out copies.
type SubmissionPayload struct {
	id          string
	fields      Document
	submittedAt time.Time
}

// NewSubmissionPayload freezes a copy of fields into a payload.
func NewSubmissionPayload(id string, fields Document, submittedAt time.Time) SubmissionPayload {
	return SubmissionPayload{id: id, fields: fields.Clone(), submittedAt: submittedAt}
}

// ID returns the submission identifier.
func (p SubmissionPayload) ID() string { return p.id }

// SubmittedAt returns when the payload was assembled.
func (p SubmissionPayload) SubmittedAt() time.Time { return p.submittedAt }

// Get returns one field value.
func (p SubmissionPayload) Get(field string) (any, bool) {
	v, ok := p.fields[field]
	return v, ok
}

// Fields returns a copy of every field in the payload.
func (p SubmissionPayload) Fields() Document {
	return p.fields.Clone()
}

type payloadJSON struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submittedAt"`
	Fields      Document  `json:"fields"`
}

func (p SubmissionPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(payloadJSON{ID: p.id, SubmittedAt: p.submittedAt, Fields: p.fields})
}

func (p *SubmissionPayload) UnmarshalJSON(data []byte) error {
	var raw payloadJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = NewSubmissionPayload(raw.ID, raw.Fields, raw.SubmittedAt)
	return nil
}

// FieldState is the render-facing view of one field in the current section.
type FieldState struct {
	Name     string `json:"name"`
	Value    any    `json:"value"`
	Visible  bool   `json:"visible"`
	Required bool   `json:"required"`
	Error    string `json:"error,omitempty"`
}

// StateView is a snapshot of a questionnaire session for navigation and form collaborators.
type StateView struct {
	SessionID    string       `json:"sessionId"`
	CurrentIndex SectionID    `json:"currentIndex"`
	SectionKey   string       `json:"sectionKey"`
	SectionTitle string       `json:"sectionTitle"`
	Completed    Completion   `json:"completed"`
	Submitted    bool         `json:"submitted"`
	SubmissionID string       `json:"submissionId,omitempty"`
	Fields       []FieldState `json:"fields"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
