package app

import (
	"errors"
	"fmt"
	"sync"

	"accreditation-questionnaire-service/internal/domain"
)

// reopener is implemented by sections that can display errors found after commit.
type reopener interface {
	Reopen(domain.FieldErrors)
}

// Wizard tracks the current section and gates every forward move on the
// current section's ValidateAndCommit.
type Wizard struct {
	store     *DocumentStore
	sections  []Validatable
	assembler *Assembler

	mu        sync.Mutex
	current   domain.SectionID
	submitted bool
	payload   domain.SubmissionPayload
}

// NewWizard expects exactly one Validatable per section, in order.
func NewWizard(store *DocumentStore, sections []Validatable, assembler *Assembler) (*Wizard, error) {
	if len(sections) != domain.SectionCount {
		return nil, fmt.Errorf("wizard needs %d sections, got %d", domain.SectionCount, len(sections))
	}
	return &Wizard{store: store, sections: sections, assembler: assembler}, nil
}

// Current returns the index of the section on screen.
func (w *Wizard) Current() domain.SectionID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Payload returns the submission once the wizard reached the terminal state.
func (w *Wizard) Payload() (domain.SubmissionPayload, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.payload, w.submitted
}

// Next commits the current section and advances. Committing the last section
// assembles the submission instead.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitted {
		return domain.ErrAlreadySubmitted
	}

	if err := w.sections[w.current].ValidateAndCommit(); err != nil {
		return err
	}
	if int(w.current) < domain.SectionCount-1 {
		w.current++
		return nil
	}
	return w.assembleLocked()
}

// Previous moves back one section without validating the current one.
func (w *Wizard) Previous() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitted {
		return domain.ErrAlreadySubmitted
	}
	if w.current > 0 {
		w.current--
	}
	return nil
}

// JumpTo commits only the current section and, if that succeeds, moves to target.
func (w *Wizard) JumpTo(target domain.SectionID) error {
	if !target.Valid() {
		return domain.ErrUnknownSection
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitted {
		return domain.ErrAlreadySubmitted
	}
	if target == w.current {
		return nil
	}
	if err := w.sections[w.current].ValidateAndCommit(); err != nil {
		return err
	}
	w.current = target
	return nil
}

func (w *Wizard) assembleLocked() error {
	payload, err := w.assembler.Submit()
	if err != nil {
		var assembly *domain.AssemblyError
		if errors.As(err, &assembly) {
			if err := w.store.MarkIncomplete(assembly.Section); err != nil {
				return err
			}
			if r, ok := w.sections[assembly.Section].(reopener); ok {
				r.Reopen(assembly.Fields)
			}
			w.current = assembly.Section
		}
		return err
	}
	w.submitted = true
	w.payload = payload
	return nil
}
