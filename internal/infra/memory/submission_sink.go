package memory

import (
	"context"
	"sync"

	"accreditation-questionnaire-service/internal/domain"
)

// SubmissionSink keeps delivered payloads in memory (useful for tests/demos).
type SubmissionSink struct {
	mu          sync.Mutex
	submissions []domain.SubmissionPayload
}

func NewSubmissionSink() *SubmissionSink {
	return &SubmissionSink{}
}

func (s *SubmissionSink) Deliver(_ context.Context, payload domain.SubmissionPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, payload)
	return nil
}

// Submissions returns the payloads delivered so far.
func (s *SubmissionSink) Submissions() []domain.SubmissionPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SubmissionPayload, len(s.submissions))
	copy(out, s.submissions)
	return out
}
