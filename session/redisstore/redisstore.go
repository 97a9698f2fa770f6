package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shopmate/backend/models"
	"github.com/shopmate/backend/session"
)

// Store persists whole sessions as JSON blobs in redis, one key per session,
// refreshed to the configured TTL on every write. Redis expiry is the only
// cleanup this backend needs.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

var _ session.Store = (*Store)(nil)

func key(id string) string { return fmt.Sprintf("chat:session:%s", id) }

func (s *Store) GetOrCreate(ctx context.Context, id string) (models.Session, error) {
	if id != "" {
		sess, err := s.get(ctx, id)
		if err == nil {
			_ = s.client.Expire(ctx, key(id), s.ttl).Err()
			return sess, nil
		}
		if !errors.Is(err, models.ErrSessionNotFound) {
			return models.Session{}, err
		}
	}
	now := time.Now()
	sess := models.Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := s.put(ctx, sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

func (s *Store) Load(ctx context.Context, id string) ([]models.Message, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

func (s *Store) Save(ctx context.Context, id string, messages []models.Message) error {
	sess, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	sess.Messages = messages
	sess.UpdatedAt = time.Now()
	return s.put(ctx, sess)
}

func (s *Store) Clear(ctx context.Context, id string) error {
	return s.client.Del(ctx, key(id)).Err()
}

func (s *Store) get(ctx context.Context, id string) (models.Session, error) {
	raw, err := s.client.Get(ctx, key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, models.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

func (s *Store) put(ctx context.Context, sess models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(sess.ID), data, s.ttl).Err()
}
