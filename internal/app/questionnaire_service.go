package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"accreditation-questionnaire-service/internal/domain"
	"accreditation-questionnaire-service/internal/schema"
	"github.com/google/uuid"
)

// SessionRepository abstracts where live questionnaire sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// DraftRepository supplies previously saved answers to seed a session.
type DraftRepository interface {
	GetDraft(ctx context.Context, draftID string) (domain.Draft, error)
}

// SubmissionSink receives finalized payloads for delivery to storage or the network.
type SubmissionSink interface {
	Deliver(ctx context.Context, payload domain.SubmissionPayload) error
}

// QuestionnaireService contains the questionnaire use cases.
type QuestionnaireService struct {
	sessions SessionRepository
	drafts   DraftRepository
	sink     SubmissionSink
	schemas  *schema.Set
	now      func() time.Time
}

func NewQuestionnaireService(sessions SessionRepository, drafts DraftRepository, sink SubmissionSink, schemas *schema.Set) *QuestionnaireService {
	return &QuestionnaireService{
		sessions: sessions,
		drafts:   drafts,
		sink:     sink,
		schemas:  schemas,
		now:      time.Now,
	}
}

// Start opens a session, seeded from draftID when it is not empty.
func (s *QuestionnaireService) Start(ctx context.Context, draftID string) (domain.StateView, error) {
	draft := domain.Draft{}
	if draftID != "" {
		loaded, err := s.drafts.GetDraft(ctx, draftID)
		if err != nil {
			return domain.StateView{}, err
		}
		draft = loaded
	}

	session, err := newSessionWithClock(uuid.NewString(), s.schemas, draft, s.now)
	if err != nil {
		return domain.StateView{}, err
	}
	s.sessions.Put(session)
	return session.view(), nil
}

// ChangeField records a local edit on the current section.
func (s *QuestionnaireService) ChangeField(_ context.Context, sessionID, field string, value any) (domain.StateView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.StateView{}, domain.ErrSessionNotFound
	}
	if err := session.changeField(field, value); err != nil {
		return session.view(), err
	}
	s.sessions.Put(session)
	return session.broadcast(), nil
}

// Next commits the current section and advances, delivering the payload after the last one.
// A *domain.SectionValidationFailure or *domain.AssemblyError leaves the session usable.
func (s *QuestionnaireService) Next(ctx context.Context, sessionID string) (domain.StateView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.StateView{}, domain.ErrSessionNotFound
	}
	err := session.wizard.Next()
	s.sessions.Put(session)
	view := session.broadcast()
	if err != nil {
		return view, err
	}
	if err := s.deliver(ctx, session); err != nil {
		return view, err
	}
	return view, nil
}

// Previous moves back one section without validation.
func (s *QuestionnaireService) Previous(_ context.Context, sessionID string) (domain.StateView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.StateView{}, domain.ErrSessionNotFound
	}
	if err := session.wizard.Previous(); err != nil {
		return session.view(), err
	}
	s.sessions.Put(session)
	return session.broadcast(), nil
}

// JumpTo commits the current section and moves to target.
func (s *QuestionnaireService) JumpTo(_ context.Context, sessionID string, target domain.SectionID) (domain.StateView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.StateView{}, domain.ErrSessionNotFound
	}
	err := session.wizard.JumpTo(target)
	s.sessions.Put(session)
	return session.broadcast(), err
}

// State returns the current view of a session.
func (s *QuestionnaireService) State(_ context.Context, sessionID string) (domain.StateView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.StateView{}, domain.ErrSessionNotFound
	}
	return session.view(), nil
}

// Payload returns the finalized submission of a session.
func (s *QuestionnaireService) Payload(_ context.Context, sessionID string) (domain.SubmissionPayload, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SubmissionPayload{}, domain.ErrSessionNotFound
	}
	payload, submitted := session.wizard.Payload()
	if !submitted {
		return domain.SubmissionPayload{}, domain.ErrNotSubmitted
	}
	return payload, nil
}

// Redeliver retries handing a submitted payload to the sink after a failed delivery.
func (s *QuestionnaireService) Redeliver(ctx context.Context, sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if _, submitted := session.wizard.Payload(); !submitted {
		return domain.ErrNotSubmitted
	}
	return s.deliver(ctx, session)
}

func (s *QuestionnaireService) deliver(ctx context.Context, session *Session) error {
	payload, ok := session.claimDelivery()
	if !ok {
		return nil
	}
	err := s.sink.Deliver(ctx, payload)
	session.finishDelivery(err == nil)
	if err != nil {
		log.Printf("deliver submission %s for session %s: %v", payload.ID(), session.id, err)
		return fmt.Errorf("deliver submission: %w", err)
	}
	return nil
}

// Subscribe returns a channel that receives state updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuestionnaireService) Subscribe(_ context.Context, sessionID string) (<-chan domain.StateView, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Close abandons a session and releases its document.
func (s *QuestionnaireService) Close(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

// IsValidationFailure reports whether err is an expected, user-correctable validation outcome.
func IsValidationFailure(err error) bool {
	var section *domain.SectionValidationFailure
	var assembly *domain.AssemblyError
	return errors.As(err, &section) || errors.As(err, &assembly)
}

// Session is one in-memory questionnaire-filling session.
type Session struct {
	id          string
	now         func() time.Time
	store       *DocumentStore
	controllers []*SectionController
	wizard      *Wizard

	mu          sync.Mutex
	subscribers map[chan domain.StateView]struct{}
	delivering  bool
	delivered   bool
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, schemas *schema.Set, draft domain.Draft) (*Session, error) {
	return newSessionWithClock(id, schemas, draft, time.Now)
}

func newSessionWithClock(id string, schemas *schema.Set, draft domain.Draft, now func() time.Time) (*Session, error) {
	store := NewDocumentStore(schemas, draft.Answers, draft.Completed)

	controllers := make([]*SectionController, 0, domain.SectionCount)
	sections := make([]Validatable, 0, domain.SectionCount)
	for _, sec := range schemas.Sections() {
		ctrl, err := NewSectionController(sec, store, now)
		if err != nil {
			return nil, err
		}
		controllers = append(controllers, ctrl)
		sections = append(sections, ctrl)
	}

	wizard, err := NewWizard(store, sections, NewAssembler(schemas, store, now))
	if err != nil {
		return nil, err
	}
	return &Session{
		id:          id,
		now:         now,
		store:       store,
		controllers: controllers,
		wizard:      wizard,
		subscribers: make(map[chan domain.StateView]struct{}),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Completion returns the section completion bitmap.
func (s *Session) Completion() domain.Completion {
	return s.store.Completion()
}

// Current returns the controller of the section on screen.
func (s *Session) Current() *SectionController {
	return s.controllers[s.wizard.Current()]
}

func (s *Session) changeField(field string, value any) error {
	if _, submitted := s.wizard.Payload(); submitted {
		return domain.ErrAlreadySubmitted
	}
	return s.Current().OnFieldChange(field, value)
}

func (s *Session) claimDelivery() (domain.SubmissionPayload, bool) {
	payload, submitted := s.wizard.Payload()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !submitted || s.delivered || s.delivering {
		return domain.SubmissionPayload{}, false
	}
	s.delivering = true
	return payload, true
}

func (s *Session) finishDelivery(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivering = false
	s.delivered = ok
}

func (s *Session) view() domain.StateView {
	ctrl := s.Current()
	sec := ctrl.Section()
	payload, submitted := s.wizard.Payload()
	v := domain.StateView{
		SessionID:    s.id,
		CurrentIndex: sec.ID,
		SectionKey:   sec.Key,
		SectionTitle: sec.Title,
		Completed:    s.store.Completion(),
		Submitted:    submitted,
		Fields:       ctrl.Fields(),
		UpdatedAt:    s.now(),
	}
	if submitted {
		v.SubmissionID = payload.ID()
	}
	return v
}

func (s *Session) subscribe() (<-chan domain.StateView, func()) {
	ch := make(chan domain.StateView, 8)
	ch <- s.view()

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcast() domain.StateView {
	v := s.view()
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- v:
		default:
			// Drop the oldest update so a slow subscriber never blocks a transition.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
	return v
}
