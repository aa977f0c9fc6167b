package app

import (
	"fmt"
	"sync"

	"accreditation-questionnaire-service/internal/domain"
	"accreditation-questionnaire-service/internal/schema"
)

// DocumentStore holds the committed answers of one session and the section
// completion bitmap. Writes are all-or-nothing with respect to readers.
type DocumentStore struct {
	schemas *schema.Set

	mu        sync.RWMutex
	doc       domain.Document
	completed domain.Completion
}

// NewDocumentStore seeds the store from an initial document, which may be empty.
// Keys no section owns are dropped.
func NewDocumentStore(schemas *schema.Set, initial domain.Document, completed domain.Completion) *DocumentStore {
	doc := make(domain.Document, len(initial))
	for k, v := range initial {
		if _, ok := schemas.SectionOf(k); ok {
			doc[k] = v
		}
	}
	return &DocumentStore{schemas: schemas, doc: doc, completed: completed}
}

// Slice projects the document onto one section, filling every absent field with its default.
func (s *DocumentStore) Slice(id domain.SectionID) (domain.Slice, error) {
	sec, err := s.schemas.Section(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(domain.Slice, len(sec.Fields))
	for _, f := range sec.Fields {
		if v, ok := s.doc[f.Name]; ok && v != nil {
			out[f.Name] = v
			continue
		}
		out[f.Name] = f.Default()
	}
	return out, nil
}

// Merge writes a validated slice into the document. Fields outside the slice are untouched.
func (s *DocumentStore) Merge(id domain.SectionID, validated domain.Slice) error {
	if err := s.checkOwnership(id, validated); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(validated)
	return nil
}

// Commit merges a validated slice and marks the section complete in one step.
func (s *DocumentStore) Commit(id domain.SectionID, validated domain.Slice) error {
	if err := s.checkOwnership(id, validated); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(validated)
	s.completed[id] = true
	return nil
}

func (s *DocumentStore) mergeLocked(validated domain.Slice) {
	for k, v := range validated {
		s.doc[k] = v
	}
}

func (s *DocumentStore) checkOwnership(id domain.SectionID, slice domain.Slice) error {
	sec, err := s.schemas.Section(id)
	if err != nil {
		return err
	}
	for name := range slice {
		if !sec.Owns(name) {
			return fmt.Errorf("%w: %s is not part of section %s", domain.ErrUnknownField, name, sec.Key)
		}
	}
	return nil
}

// MarkComplete flags a section as validated.
func (s *DocumentStore) MarkComplete(id domain.SectionID) error {
	return s.setComplete(id, true)
}

// MarkIncomplete re-opens a section.
func (s *DocumentStore) MarkIncomplete(id domain.SectionID) error {
	return s.setComplete(id, false)
}

func (s *DocumentStore) setComplete(id domain.SectionID, done bool) error {
	if !id.Valid() {
		return domain.ErrUnknownSection
	}
	s.mu.Lock()
	s.completed[id] = done
	s.mu.Unlock()
	return nil
}

// IsComplete reports whether a section has passed its own validation.
func (s *DocumentStore) IsComplete(id domain.SectionID) bool {
	if !id.Valid() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed[id]
}

// Completion returns a copy of the completion bitmap.
func (s *DocumentStore) Completion() domain.Completion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed
}

// Snapshot returns a copy of the committed document.
func (s *DocumentStore) Snapshot() domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}
