package app

import (
	"fmt"
	"sync"
	"time"

	"accreditation-questionnaire-service/internal/domain"
	"accreditation-questionnaire-service/internal/schema"
)

// Validatable is implemented by anything the wizard can ask to validate and commit
// its section before a transition.
type Validatable interface {
	ValidateAndCommit() error
}

// SectionController binds one section schema to the section's local form state.
// Local edits stay private until ValidateAndCommit succeeds.
type SectionController struct {
	section *schema.Section
	store   *DocumentStore
	now     func() time.Time

	commitMu sync.Mutex

	mu      sync.RWMutex
	values  domain.Slice
	errors  domain.FieldErrors
	version uint64
}

// NewSectionController pre-fills local state from the committed document.
func NewSectionController(section *schema.Section, store *DocumentStore, now func() time.Time) (*SectionController, error) {
	values, err := store.Slice(section.ID)
	if err != nil {
		return nil, err
	}
	return &SectionController{
		section: section,
		store:   store,
		now:     now,
		values:  values,
		errors:  domain.FieldErrors{},
	}, nil
}

// ID returns the section the controller owns.
func (c *SectionController) ID() domain.SectionID {
	return c.section.ID
}

// Section returns the schema the controller validates against.
func (c *SectionController) Section() *schema.Section {
	return c.section
}

// OnFieldChange updates local state and refreshes live feedback for the field
// and any field gated on it.
func (c *SectionController) OnFieldChange(field string, value any) error {
	if !c.section.Owns(field) {
		return fmt.Errorf("%w: %s is not part of section %s", domain.ErrUnknownField, field, c.section.Key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[field] = value
	c.version++

	now := c.now()
	c.setErrorLocked(field, c.section.CheckField(field, c.values, now))
	for _, dep := range c.section.Dependents(field) {
		if !c.section.Active(dep, c.values) {
			delete(c.errors, dep.Name)
			continue
		}
		// Only re-check dependents that already show feedback; a field that just
		// became visible should not start out red.
		if _, shown := c.errors[dep.Name]; shown {
			c.setErrorLocked(dep.Name, c.section.CheckField(dep.Name, c.values, now))
		}
	}
	return nil
}

func (c *SectionController) setErrorLocked(field, msg string) {
	if msg == "" {
		delete(c.errors, field)
		return
	}
	c.errors[field] = msg
}

// ValidateAndCommit validates a snapshot of the local state taken at call time.
// On success the slice is merged into the document store and the section marked
// complete; on failure the store is untouched and the errors are kept for display.
func (c *SectionController) ValidateAndCommit() error {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	c.mu.RLock()
	snapshot := c.values.Clone()
	version := c.version
	c.mu.RUnlock()

	validated, errs := c.section.Validate(snapshot, c.now())
	if errs != nil {
		c.mu.Lock()
		c.errors = cloneErrors(errs)
		c.mu.Unlock()
		return &domain.SectionValidationFailure{Section: c.section.ID, Fields: errs}
	}

	if err := c.store.Commit(c.section.ID, validated); err != nil {
		return err
	}

	c.mu.Lock()
	c.errors = domain.FieldErrors{}
	// Adopt the canonical values unless the user kept typing during the commit.
	if c.version == version {
		c.values = validated.Clone()
	}
	c.mu.Unlock()
	return nil
}

// Reopen shows errors found for this section after it was already committed.
func (c *SectionController) Reopen(errs domain.FieldErrors) {
	c.mu.Lock()
	c.errors = cloneErrors(errs)
	c.mu.Unlock()
}

// Values returns a copy of the local form state.
func (c *SectionController) Values() domain.Slice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values.Clone()
}

// Errors returns the current live field errors.
func (c *SectionController) Errors() domain.FieldErrors {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneErrors(c.errors)
}

// Visible reports whether a field's gate currently holds.
func (c *SectionController) Visible(field string) bool {
	f, ok := c.section.Field(field)
	if !ok {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.section.Active(f, c.values)
}

// Required reports whether a field must be answered given the current gates.
func (c *SectionController) Required(field string) bool {
	f, ok := c.section.Field(field)
	return ok && f.Required && c.Visible(field)
}

// Fields renders every field of the section in declaration order.
func (c *SectionController) Fields() []domain.FieldState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.FieldState, 0, len(c.section.Fields))
	for _, f := range c.section.Fields {
		visible := c.section.Active(f, c.values)
		out = append(out, domain.FieldState{
			Name:     f.Name,
			Value:    c.values[f.Name],
			Visible:  visible,
			Required: visible && f.Required,
			Error:    c.errors[f.Name],
		})
	}
	return out
}

func cloneErrors(errs domain.FieldErrors) domain.FieldErrors {
	out := make(domain.FieldErrors, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}
