package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"accreditation-questionnaire-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DraftLoader fetches saved drafts from a backing store (e.g., Postgres).
type DraftLoader interface {
	LoadDraft(ctx context.Context, draftID string) (domain.Draft, error)
}

// DraftRepository caches drafts in Redis (hash per draft) and falls back to a loader on cache miss.
// Answers are stored as:    HSET draft:{draftID}:answers   {field}   {json value}
// Completion is stored as:  HSET draft:{draftID}:completed {section} 0|1
type DraftRepository struct {
	client *redis.Client
	loader DraftLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewDraftRepository(client *redis.Client, loader DraftLoader, ttl time.Duration) *DraftRepository {
	return &DraftRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *DraftRepository) GetDraft(ctx context.Context, draftID string) (domain.Draft, error) {
	if draft, ok := r.cached(ctx, draftID); ok {
		return draft, nil
	}

	result, err, _ := r.sf.Do(draftID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if draft, ok := r.cached(ctx, draftID); ok {
			return draft, nil
		}

		draft, err := r.loader.LoadDraft(ctx, draftID)
		if err != nil {
			return domain.Draft{}, err
		}
		r.store(ctx, draftID, draft)
		return draft, nil
	})
	if err != nil {
		return domain.Draft{}, err
	}
	draft := result.(domain.Draft)
	draft.Answers = draft.Answers.Clone()
	return draft, nil
}

func (r *DraftRepository) cached(ctx context.Context, draftID string) (domain.Draft, bool) {
	answers, err := r.client.HGetAll(ctx, r.answersKey(draftID)).Result()
	if err != nil || len(answers) == 0 {
		return domain.Draft{}, false
	}
	completed, _ := r.client.HGetAll(ctx, r.completedKey(draftID)).Result()
	return buildDraftFromCache(draftID, answers, completed), true
}

func (r *DraftRepository) store(ctx context.Context, draftID string, draft domain.Draft) {
	if len(draft.Answers) == 0 {
		return
	}
	answerKey := r.answersKey(draftID)
	completedKey := r.completedKey(draftID)

	ttl := r.ttlWithJitter()
	pipe := r.client.Pipeline()
	for field, value := range draft.Answers {
		raw, err := json.Marshal(value)
		if err != nil {
			continue
		}
		pipe.HSet(ctx, answerKey, field, string(raw))
	}
	for i, done := range draft.Completed {
		flag := "0"
		if done {
			flag = "1"
		}
		pipe.HSet(ctx, completedKey, strconv.Itoa(i), flag)
	}
	if ttl > 0 {
		pipe.Expire(ctx, answerKey, ttl)
		pipe.Expire(ctx, completedKey, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (r *DraftRepository) answersKey(draftID string) string {
	return "draft:" + draftID + ":answers"
}

func (r *DraftRepository) completedKey(draftID string) string {
	return "draft:" + draftID + ":completed"
}

func buildDraftFromCache(draftID string, answers map[string]string, completed map[string]string) domain.Draft {
	doc := make(domain.Document, len(answers))
	for field, raw := range answers {
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			continue
		}
		doc[field] = value
	}

	var done domain.Completion
	for section, flag := range completed {
		i, err := strconv.Atoi(section)
		if err != nil || !domain.SectionID(i).Valid() {
			continue
		}
		done[i] = flag == "1"
	}
	return domain.Draft{ID: draftID, Answers: doc, Completed: done}
}

func (r *DraftRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	jitter := r.rnd.Int63n(jitterMax + 1)
	r.rndMu.Unlock()
	return r.ttl + time.Duration(jitter)
}
