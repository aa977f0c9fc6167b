package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a questionnaire session has not been started.
	ErrSessionNotFound = errors.New("questionnaire session not found")
	// ErrDraftNotFound indicates the seed draft could not be loaded.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrUnknownSection indicates a section index outside the fixed range.
	ErrUnknownSection = errors.New("unknown section")
	// ErrUnknownField indicates a field that does not belong to the addressed section.
	ErrUnknownField = errors.New("unknown field")
	// ErrAlreadySubmitted is returned for any mutation after the payload was produced.
	ErrAlreadySubmitted = errors.New("questionnaire already submitted")
	// ErrNotSubmitted is returned when a payload is requested before submission.
	ErrNotSubmitted = errors.New("questionnaire not submitted")
)

// SectionValidationFailure aggregates the field errors of one failed section commit.
type SectionValidationFailure struct {
	Section SectionID
	Fields  FieldErrors
}

func (e *SectionValidationFailure) Error() string {
	return fmt.Sprintf("section %d failed validation: %s", e.Section, describeFields(e.Fields))
}

// AssemblyError reports a section whose committed data no longer satisfies its schema
// at final submission time.
type AssemblyError struct {
	Section SectionID
	Fields  FieldErrors
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly failed in section %d: %s", e.Section, describeFields(e.Fields))
}

func describeFields(fields FieldErrors) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}
	return strings.Join(parts, "; ")
}
