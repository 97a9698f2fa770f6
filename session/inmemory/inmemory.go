package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopmate/backend/models"
	"github.com/shopmate/backend/session"
)

type entry struct {
	sess      models.Session
	expiresAt time.Time
}

// Store keeps sessions in process memory. It backs tests and redis-less dev
// runs; expired entries are removed by Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewStore builds an in-memory session store. A zero ttl means entries never
// expire.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

var _ session.Store = (*Store)(nil)

func (s *Store) GetOrCreate(ctx context.Context, id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if e, ok := s.sessions[id]; ok && !s.expired(e) {
			s.touch(e)
			return e.sess, nil
		}
	}
	now := s.now()
	sess := models.Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	s.sessions[sess.ID] = &entry{sess: sess, expiresAt: s.deadline(now)}
	return sess, nil
}

func (s *Store) Load(ctx context.Context, id string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok || s.expired(e) {
		return nil, models.ErrSessionNotFound
	}
	out := make([]models.Message, len(e.sess.Messages))
	copy(out, e.sess.Messages)
	return out, nil
}

func (s *Store) Save(ctx context.Context, id string, messages []models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || s.expired(e) {
		return models.ErrSessionNotFound
	}
	e.sess.Messages = make([]models.Message, len(messages))
	copy(e.sess.Messages, messages)
	s.touch(e)
	return nil
}

func (s *Store) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Sweep drops expired sessions and reports how many were removed. The server
// janitor calls this on its cron schedule.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.now().After(e.expiresAt)
}

func (s *Store) touch(e *entry) {
	e.sess.UpdatedAt = s.now()
	e.expiresAt = s.deadline(e.sess.UpdatedAt)
}

func (s *Store) deadline(from time.Time) time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return from.Add(s.ttl)
}
