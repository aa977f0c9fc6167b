package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"accreditation-questionnaire-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DraftLoader loads saved questionnaire drafts (JSONB) from Postgres.
type DraftLoader struct {
	pool *pgxpool.Pool
}

func NewDraftLoader(pool *pgxpool.Pool) *DraftLoader {
	return &DraftLoader{pool: pool}
}

func (l *DraftLoader) LoadDraft(ctx context.Context, draftID string) (domain.Draft, error) {
	var answers, completed []byte
	err := l.pool.QueryRow(ctx,
		`SELECT answers, completed FROM questionnaire_drafts WHERE id=$1`, draftID,
	).Scan(&answers, &completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Draft{}, domain.ErrDraftNotFound
	}
	if err != nil {
		return domain.Draft{}, fmt.Errorf("load draft: %w", err)
	}

	draft := domain.Draft{ID: draftID}
	if err := json.Unmarshal(answers, &draft.Answers); err != nil {
		return domain.Draft{}, fmt.Errorf("unmarshal draft answers: %w", err)
	}
	if len(completed) > 0 {
		if err := json.Unmarshal(completed, &draft.Completed); err != nil {
			return domain.Draft{}, fmt.Errorf("unmarshal draft completion: %w", err)
		}
	}
	return draft, nil
}
