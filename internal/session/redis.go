package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// ErrConflict is returned when an update kept losing optimistic-lock races.
var ErrConflict = errors.New("session update conflict: too many concurrent changes")

// errSkipWrite aborts an update without writing and without failing.
var errSkipWrite = errors.New("skip write")

// RedisStore keeps each session as one JSON value with a TTL. Updates run as
// WATCH/MULTI transactions, so concurrent operations on one key serialize
// across processes while different keys stay independent.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	maxRetries int
}

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	KeyPrefix  string
	TTL        time.Duration
	MaxRetries int
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, cfg RedisConfig) *RedisStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "sheetimport:session:"
	}
	return &RedisStore{
		client:     client,
		prefix:     cfg.KeyPrefix,
		ttl:        cfg.TTL,
		maxRetries: cfg.MaxRetries,
	}
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

var _ core.SessionStore = (*RedisStore)(nil)

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Replace(ctx context.Context, sessionID string, outcomes []core.SheetOutcome) (core.ValidationSession, error) {
	sess := core.ValidationSession{
		ID:        sessionID,
		Version:   uuid.NewString(),
		Sheets:    outcomes,
		UpdatedAt: time.Now().UTC(),
	}
	if sess.Sheets == nil {
		sess.Sheets = []core.SheetOutcome{}
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return core.ValidationSession{}, fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return core.ValidationSession{}, fmt.Errorf("store session: %w", err)
	}
	return sess.Clone(), nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (core.ValidationSession, error) {
	data, err := s.client.GetEx(ctx, s.key(sessionID), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.ValidationSession{}, core.SessionNotFound(sessionID)
	}
	if err != nil {
		return core.ValidationSession{}, fmt.Errorf("load session: %w", err)
	}
	var sess core.ValidationSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return core.ValidationSession{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// update runs fn against the stored session inside an optimistic
// transaction. fn may return errSkipWrite to leave the value untouched.
func (s *RedisStore) update(ctx context.Context, sessionID string, fn func(*core.ValidationSession) error) error {
	key := s.key(sessionID)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return core.SessionNotFound(sessionID)
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}

		var sess core.ValidationSession
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if err := fn(&sess); err != nil {
			return err
		}

		sess.UpdatedAt = time.Now().UTC()
		out, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func (s *RedisStore) RemoveRow(ctx context.Context, sessionID, sheetName string, rowNumber int) (core.SheetOutcome, error) {
	var updated core.SheetOutcome
	err := s.update(ctx, sessionID, func(sess *core.ValidationSession) error {
		i := sess.SheetIndex(sheetName)
		if i < 0 {
			return core.SheetNotFound(sheetName)
		}
		if !sess.Sheets[i].RemoveRow(rowNumber) {
			return core.RowNotFound(sheetName, rowNumber)
		}
		updated = sess.Sheets[i].Clone()
		return nil
	})
	if err != nil {
		return core.SheetOutcome{}, err
	}
	return updated, nil
}

func (s *RedisStore) ConsumeSheet(ctx context.Context, sessionID, sheetName string) (core.ConsumedSheet, error) {
	var consumed core.ConsumedSheet
	err := s.update(ctx, sessionID, func(sess *core.ValidationSession) error {
		i := sess.SheetIndex(sheetName)
		if i < 0 {
			return core.SheetNotFound(sheetName)
		}
		consumed = core.ConsumedSheet{
			Outcome: sess.Sheets[i].Clone(),
			Index:   i,
			Version: sess.Version,
		}
		sess.Sheets = append(sess.Sheets[:i], sess.Sheets[i+1:]...)
		return nil
	})
	if err != nil {
		return core.ConsumedSheet{}, err
	}
	return consumed, nil
}

func (s *RedisStore) RestoreSheet(ctx context.Context, sessionID string, consumed core.ConsumedSheet) (bool, error) {
	err := s.update(ctx, sessionID, func(sess *core.ValidationSession) error {
		if !restoreInto(sess, consumed) {
			return errSkipWrite
		}
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errSkipWrite), errors.Is(err, core.ErrSessionNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *RedisStore) Discard(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("discard session: %w", err)
	}
	return nil
}
