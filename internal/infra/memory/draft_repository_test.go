package memory

import (
	"context"
	"testing"
	"time"

	"accreditation-questionnaire-service/internal/domain"
)

func TestDraftRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		DraftLoader: NewStaticDraftLoader(map[string]domain.Draft{
			"draft-1": sampleDraft(),
		}),
	}
	repo := NewDraftRepository(loader, time.Minute)

	first, err := repo.GetDraft(context.Background(), "draft-1")
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	first.Answers["journal_title"] = "mutated"
	second, err := repo.GetDraft(context.Background(), "draft-1")
	if err != nil {
		t.Fatalf("get draft 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if second.Answers["journal_title"] != "Journal of Applied Hydrology" {
		t.Fatalf("cached draft was mutated through a returned copy")
	}
}

func TestDraftRepositoryMissingDraft(t *testing.T) {
	repo := NewDraftRepository(NewStaticDraftLoader(nil), time.Minute)
	if _, err := repo.GetDraft(context.Background(), "nope"); err != domain.ErrDraftNotFound {
		t.Fatalf("expected draft not found, got %v", err)
	}
}

func TestDraftRepositoryEvictsExpiredDrafts(t *testing.T) {
	loader := &countingLoader{
		DraftLoader: NewStaticDraftLoader(map[string]domain.Draft{
			"draft-1": sampleDraft(),
		}),
	}
	repo := NewDraftRepository(loader, time.Minute)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetDraft(context.Background(), "draft-1"); err != nil {
		t.Fatalf("get draft: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := repo.lookup("draft-1"); ok {
		t.Fatalf("expected expired draft to miss")
	}
	if len(repo.drafts) != 0 {
		t.Fatalf("expected expired entry evicted, got %d entries", len(repo.drafts))
	}

	if _, err := repo.GetDraft(context.Background(), "draft-1"); err != nil {
		t.Fatalf("reload draft: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestDraftRepositoryDoesNotAliasLoaderAnswers(t *testing.T) {
	source := map[string]domain.Draft{"draft-1": sampleDraft()}
	repo := NewDraftRepository(NewStaticDraftLoader(source), time.Minute)

	if _, err := repo.GetDraft(context.Background(), "draft-1"); err != nil {
		t.Fatalf("get draft: %v", err)
	}
	source["draft-1"].Answers["issn"] = "0000-0000"

	cached, err := repo.GetDraft(context.Background(), "draft-1")
	if err != nil {
		t.Fatalf("get cached draft: %v", err)
	}
	if cached.Answers["issn"] != "1234-567X" {
		t.Fatalf("cache aliased the loader's answers: %v", cached.Answers["issn"])
	}
}

type countingLoader struct {
	DraftLoader
	calls int
}

func (l *countingLoader) LoadDraft(ctx context.Context, draftID string) (domain.Draft, error) {
	l.calls++
	return l.DraftLoader.LoadDraft(ctx, draftID)
}

func sampleDraft() domain.Draft {
	return domain.Draft{
		ID: "draft-1",
		Answers: domain.Document{
			"journal_title": "Journal of Applied Hydrology",
			"issn":          "1234-567X",
		},
		Completed: domain.Completion{true},
	}
}
