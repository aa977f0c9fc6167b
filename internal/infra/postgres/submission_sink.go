package postgres

import (
	"context"
	"fmt"
	"time"

	"accreditation-questionnaire-service/internal/domain"
	"github.com/uptrace/bun"
)

type submissionRow struct {
	bun.BaseModel `bun:"table:questionnaire_submissions"`

	ID           string          `bun:"id,pk"`
	ISSN         string          `bun:"issn"`
	JournalTitle string          `bun:"journal_title"`
	Payload      domain.Document `bun:"payload,type:jsonb"`
	SubmittedAt  time.Time       `bun:"submitted_at"`
}

// SubmissionSink stores finalized payloads in questionnaire_submissions.
// Delivering the same payload twice is a no-op.
type SubmissionSink struct {
	db *bun.DB
}

func NewSubmissionSink(db *bun.DB) *SubmissionSink {
	return &SubmissionSink{db: db}
}

func (s *SubmissionSink) Deliver(ctx context.Context, payload domain.SubmissionPayload) error {
	row := submissionRow{
		ID:           payload.ID(),
		Payload:      payload.Fields(),
		SubmittedAt:  payload.SubmittedAt(),
		ISSN:         stringField(payload, "issn"),
		JournalTitle: stringField(payload, "journal_title"),
	}
	if _, err := s.db.NewInsert().Model(&row).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func stringField(payload domain.SubmissionPayload, field string) string {
	v, _ := payload.Get(field)
	s, _ := v.(string)
	return s
}
