package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"accreditation-questionnaire-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DraftLoader fetches saved drafts from a backing store (e.g., Postgres).
type DraftLoader interface {
	LoadDraft(ctx context.Context, draftID string) (domain.Draft, error)
}

// DraftRepository keeps recently opened drafts in process memory.
// Entries are private copies: neither the loader's value nor a session's
// answers alias the cached map. Expired entries are dropped when read.
type DraftRepository struct {
	loader DraftLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu     sync.Mutex
	rnd    *rand.Rand
	drafts map[string]draftEntry
}

type draftEntry struct {
	draft     domain.Draft
	expiresAt time.Time
}

func NewDraftRepository(loader DraftLoader, ttl time.Duration) *DraftRepository {
	return &DraftRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		drafts: make(map[string]draftEntry),
	}
}

// GetDraft returns a copy of the draft, loading it on a miss or after expiry.
func (r *DraftRepository) GetDraft(ctx context.Context, draftID string) (domain.Draft, error) {
	if draft, ok := r.lookup(draftID); ok {
		return draft, nil
	}

	result, err, _ := r.sf.Do(draftID, func() (interface{}, error) {
		if draft, ok := r.lookup(draftID); ok {
			return draft, nil
		}
		loaded, err := r.loader.LoadDraft(ctx, draftID)
		if err != nil {
			return domain.Draft{}, err
		}
		r.remember(draftID, loaded)
		return copyDraft(loaded), nil
	})
	if err != nil {
		return domain.Draft{}, err
	}
	// Callers sharing one singleflight result still get their own answers.
	return copyDraft(result.(domain.Draft)), nil
}

func (r *DraftRepository) lookup(draftID string) (domain.Draft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.drafts[draftID]
	if !ok {
		return domain.Draft{}, false
	}
	if !entry.expiresAt.After(r.clock()) {
		delete(r.drafts, draftID)
		return domain.Draft{}, false
	}
	return copyDraft(entry.draft), true
}

func (r *DraftRepository) remember(draftID string, draft domain.Draft) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// up to 10% jitter so drafts opened together do not expire together
	jitter := time.Duration(r.rnd.Int63n(int64(r.ttl)/10 + 1))
	r.drafts[draftID] = draftEntry{
		draft:     copyDraft(draft),
		expiresAt: r.clock().Add(r.ttl + jitter),
	}
}

func copyDraft(d domain.Draft) domain.Draft {
	d.Answers = d.Answers.Clone()
	return d
}

// StaticDraftLoader serves drafts from a fixed map (useful for tests/demos).
type StaticDraftLoader struct {
	drafts map[string]domain.Draft
}

func NewStaticDraftLoader(drafts map[string]domain.Draft) *StaticDraftLoader {
	return &StaticDraftLoader{drafts: drafts}
}

func (l *StaticDraftLoader) LoadDraft(_ context.Context, draftID string) (domain.Draft, error) {
	if draft, ok := l.drafts[draftID]; ok {
		return draft, nil
	}
	return domain.Draft{}, domain.ErrDraftNotFound
}
