package app

import (
	"fmt"
	"sync"
	"time"

	"accreditation-questionnaire-service/internal/domain"
	"accreditation-questionnaire-service/internal/schema"
	"github.com/google/uuid"
)

// CrossCheck validates constraints that span sections. It returns the section to
// re-open and its field errors, or nil errors when the document passes.
type CrossCheck func(doc domain.Document) (domain.SectionID, domain.FieldErrors)

// Assembler re-validates the committed document and freezes it into a payload.
type Assembler struct {
	schemas *schema.Set
	store   *DocumentStore
	now     func() time.Time
	newID   func() string
	checks  []CrossCheck

	mu       sync.Mutex
	produced bool
}

func NewAssembler(schemas *schema.Set, store *DocumentStore, now func() time.Time, checks ...CrossCheck) *Assembler {
	return &Assembler{
		schemas: schemas,
		store:   store,
		now:     now,
		newID:   uuid.NewString,
		checks:  checks,
	}
}

// Submit validates every section of the store's snapshot and returns the payload.
// A payload is produced at most once; the earliest failing section is reported as an AssemblyError.
func (a *Assembler) Submit() (domain.SubmissionPayload, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.produced {
		return domain.SubmissionPayload{}, domain.ErrAlreadySubmitted
	}

	now := a.now()
	doc, failures := a.schemas.ValidateDocument(a.store.Snapshot(), now)
	if len(failures) > 0 {
		first := domain.SectionID(domain.SectionCount)
		for id := range failures {
			if id < first {
				first = id
			}
		}
		return domain.SubmissionPayload{}, &domain.AssemblyError{Section: first, Fields: failures[first]}
	}

	for _, check := range a.checks {
		if id, errs := check(doc); len(errs) > 0 {
			if !id.Valid() {
				return domain.SubmissionPayload{}, fmt.Errorf("cross check reported section %d: %w", id, domain.ErrUnknownSection)
			}
			return domain.SubmissionPayload{}, &domain.AssemblyError{Section: id, Fields: errs}
		}
	}

	a.produced = true
	return domain.NewSubmissionPayload(a.newID(), doc, now), nil
}
