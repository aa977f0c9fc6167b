package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"accreditation-questionnaire-service/internal/app"
	"accreditation-questionnaire-service/internal/domain"
	"accreditation-questionnaire-service/internal/infra/memory"
	"accreditation-questionnaire-service/internal/schema"
	"accreditation-questionnaire-service/internal/schema/schematest"
)

func TestServiceFillsAndSubmits(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewSubmissionSink()
	service := newTestService(sink)

	view, err := service.Start(ctx, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	id := view.SessionID

	for section := domain.SectionID(0); section.Valid(); section++ {
		for field, value := range schematest.ValidSection(section) {
			if _, err := service.ChangeField(ctx, id, field, value); err != nil {
				t.Fatalf("change %s: %v", field, err)
			}
		}
		view, err = service.Next(ctx, id)
		if err != nil {
			t.Fatalf("next from %d: %v", section, err)
		}
	}

	if !view.Submitted || view.SubmissionID == "" || view.Completed.Count() != domain.SectionCount {
		t.Fatalf("expected submitted view, got %+v", view)
	}
	payload, err := service.Payload(ctx, id)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.ID() != view.SubmissionID {
		t.Fatalf("payload id mismatch: %s vs %s", payload.ID(), view.SubmissionID)
	}
	delivered := sink.Submissions()
	if len(delivered) != 1 || delivered[0].ID() != payload.ID() {
		t.Fatalf("expected payload delivered once, got %d", len(delivered))
	}

	if _, err := service.ChangeField(ctx, id, "journal_title", "Late edit"); err != domain.ErrAlreadySubmitted {
		t.Fatalf("expected already submitted, got %v", err)
	}
	if _, err := service.Next(ctx, id); err != domain.ErrAlreadySubmitted {
		t.Fatalf("expected already submitted, got %v", err)
	}
	if len(sink.Submissions()) != 1 {
		t.Fatalf("expected no second delivery")
	}
}

func TestServiceNextReportsFieldErrors(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewSubmissionSink())

	view, err := service.Start(ctx, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	view, err = service.Next(ctx, view.SessionID)
	if !app.IsValidationFailure(err) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if view.CurrentIndex != 0 {
		t.Fatalf("expected to stay on section 0, got %d", view.CurrentIndex)
	}
	shown := 0
	for _, f := range view.Fields {
		if f.Error != "" {
			shown++
		}
	}
	if shown == 0 {
		t.Fatalf("expected errors rendered on the view")
	}

	if _, err := service.Payload(ctx, view.SessionID); err != domain.ErrNotSubmitted {
		t.Fatalf("expected not submitted, got %v", err)
	}
	if err := service.Redeliver(ctx, view.SessionID); err != domain.ErrNotSubmitted {
		t.Fatalf("expected not submitted on redeliver, got %v", err)
	}
}

func TestServiceStartsFromDraft(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewSubmissionSink())

	view, err := service.Start(ctx, "draft-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Completed.Count() != domain.SectionCount-1 {
		t.Fatalf("expected draft completion, got %v", view.Completed)
	}
	for _, f := range view.Fields {
		if f.Name == "journal_title" && f.Value != "Journal of Applied Hydrology" {
			t.Fatalf("expected draft prefill, got %v", f.Value)
		}
	}

	if _, err := service.Start(ctx, "missing"); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected draft not found, got %v", err)
	}
}

func TestServiceUnknownSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewSubmissionSink())

	if _, err := service.ChangeField(ctx, "nope", "issn", "1234-5678"); err != domain.ErrSessionNotFound {
		t.Fatalf("change: expected session not found, got %v", err)
	}
	if _, err := service.Next(ctx, "nope"); err != domain.ErrSessionNotFound {
		t.Fatalf("next: expected session not found, got %v", err)
	}
	if _, err := service.JumpTo(ctx, "nope", 3); err != domain.ErrSessionNotFound {
		t.Fatalf("jump: expected session not found, got %v", err)
	}
	if _, _, err := service.Subscribe(ctx, "nope"); err != domain.ErrSessionNotFound {
		t.Fatalf("subscribe: expected session not found, got %v", err)
	}
}

func TestServiceCloseAbandonsSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewSubmissionSink())

	view, err := service.Start(ctx, "draft-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	service.Close(ctx, view.SessionID)
	if _, err := service.State(ctx, view.SessionID); err != domain.ErrSessionNotFound {
		t.Fatalf("expected closed session gone, got %v", err)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewSubmissionSink())

	view, err := service.Start(ctx, "draft-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ch, cancel, err := service.Subscribe(ctx, view.SessionID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	if _, err := service.JumpTo(ctx, view.SessionID, schema.SectionEthics); err != nil {
		t.Fatalf("jump: %v", err)
	}
	select {
	case update := <-ch:
		if update.CurrentIndex != schema.SectionEthics {
			t.Fatalf("expected ethics section, got %d", update.CurrentIndex)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for update")
	}
}

func TestRedeliverAfterSinkFailure(t *testing.T) {
	ctx := context.Background()
	sink := &flakySink{failures: 1}
	service := newTestService(sink)

	view, err := service.Start(ctx, "draft-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.JumpTo(ctx, view.SessionID, schema.SectionTransparency); err != nil {
		t.Fatalf("jump: %v", err)
	}

	view, err = service.Next(ctx, view.SessionID)
	if err == nil || app.IsValidationFailure(err) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if !view.Submitted {
		t.Fatalf("payload must survive a failed delivery")
	}

	if err := service.Redeliver(ctx, view.SessionID); err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	if err := service.Redeliver(ctx, view.SessionID); err != nil {
		t.Fatalf("second redeliver: %v", err)
	}
	if sink.delivered != 1 {
		t.Fatalf("expected exactly one successful delivery, got %d", sink.delivered)
	}
}

type flakySink struct {
	mu        sync.Mutex
	failures  int
	delivered int
}

func (s *flakySink) Deliver(_ context.Context, _ domain.SubmissionPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.delivered++
	return nil
}

func newTestService(sink app.SubmissionSink) *app.QuestionnaireService {
	var completed domain.Completion
	for i := 0; i < domain.SectionCount-1; i++ {
		completed[i] = true
	}
	drafts := memory.NewDraftRepository(memory.NewStaticDraftLoader(map[string]domain.Draft{
		"draft-1": {ID: "draft-1", Answers: schematest.ValidDocument(), Completed: completed},
	}), time.Minute)
	return app.NewQuestionnaireService(memory.NewSessionStore(), drafts, sink, schema.Default())
}
