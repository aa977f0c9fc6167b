package redis

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"accreditation-questionnaire-service/internal/app"
	"accreditation-questionnaire-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Sessions themselves stay in a local map; the document never leaves the process.
//   - Redis carries a liveness marker per session with the current section and the
//     completion bitmap, so progress can be observed by other instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	ctx := context.Background()
	key := s.key(session.ID())
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"current", strconv.Itoa(int(session.Current().ID())),
		"completed", completionBits(session.Completion()),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	// best-effort progress marker
	_, _ = pipe.Exec(ctx)
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return
	}
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "questionnaire:session:" + sessionID
}

// completionBits renders the bitmap as one '0'/'1' character per section.
func completionBits(c domain.Completion) string {
	var b strings.Builder
	for _, done := range c {
		if done {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
