package app_test

import (
	"testing"
	"time"

	"accreditation-questionnaire-service/internal/app"
	"accreditation-questionnaire-service/internal/domain"
	"accreditation-questionnaire-service/internal/schema"
	"accreditation-questionnaire-service/internal/schema/schematest"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
}

type harness struct {
	store       *app.DocumentStore
	controllers []*app.SectionController
	wizard      *app.Wizard
}

func newHarness(t *testing.T, draft domain.Draft, checks ...app.CrossCheck) *harness {
	t.Helper()
	schemas := schema.Default()
	store := app.NewDocumentStore(schemas, draft.Answers, draft.Completed)

	h := &harness{store: store}
	sections := make([]app.Validatable, 0, domain.SectionCount)
	for _, sec := range schemas.Sections() {
		ctrl, err := app.NewSectionController(sec, store, fixedNow)
		if err != nil {
			t.Fatalf("controller %s: %v", sec.Key, err)
		}
		h.controllers = append(h.controllers, ctrl)
		sections = append(sections, ctrl)
	}

	wizard, err := app.NewWizard(store, sections, app.NewAssembler(schemas, store, fixedNow, checks...))
	if err != nil {
		t.Fatalf("wizard: %v", err)
	}
	h.wizard = wizard
	return h
}

// fill types the valid fixture answers into a section's form.
func (h *harness) fill(t *testing.T, id domain.SectionID) {
	t.Helper()
	for field, value := range schematest.ValidSection(id) {
		if err := h.controllers[id].OnFieldChange(field, value); err != nil {
			t.Fatalf("change %s: %v", field, err)
		}
	}
}

func (h *harness) set(t *testing.T, id domain.SectionID, field string, value any) {
	t.Helper()
	if err := h.controllers[id].OnFieldChange(field, value); err != nil {
		t.Fatalf("change %s: %v", field, err)
	}
}

// advanceTo fills and commits every section before target using Next.
func (h *harness) advanceTo(t *testing.T, target domain.SectionID) {
	t.Helper()
	for h.wizard.Current() < target {
		id := h.wizard.Current()
		h.fill(t, id)
		if err := h.wizard.Next(); err != nil {
			t.Fatalf("next from section %d: %v", id, err)
		}
	}
}
