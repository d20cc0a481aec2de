package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStore(client, RedisConfig{KeyPrefix: "test:", TTL: time.Minute, MaxRetries: 1000})
}

func TestRedisStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) core.SessionStore {
		_, s := newTestRedis(t)
		return s
	})
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedis(t)

	if _, err := s.Replace(ctx, "s1", sampleOutcomes()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if ttl := mr.TTL("test:s1"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(61 * time.Second)
	if _, err := s.Get(ctx, "s1"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Get after TTL error = %v, want ErrSessionNotFound", err)
	}
}

func TestRedisStore_GetSlidesTTL(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedis(t)
	s.Replace(ctx, "s1", sampleOutcomes())

	mr.FastForward(50 * time.Second)
	if _, err := s.Get(ctx, "s1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	mr.FastForward(50 * time.Second)
	if _, err := s.Get(ctx, "s1"); err != nil {
		t.Errorf("session expired despite access: %v", err)
	}
}

func TestRedisStore_RoundTripKeepsRecords(t *testing.T) {
	ctx := context.Background()
	_, s := newTestRedis(t)
	s.Replace(ctx, "s1", sampleOutcomes())

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	march := got.Sheets[0]
	if march.ValidRows[0].Name != "Alice" || march.ValidRows[0].Amount != 100 {
		t.Errorf("ValidRows[0] = %+v", march.ValidRows[0])
	}
	if !march.ValidRows[0].Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", march.ValidRows[0].Date)
	}
	bob := march.InvalidRows[1]
	if bob.Raw["Date"] != "40-13-2024" || len(bob.Errors) != 2 || bob.Date != nil {
		t.Errorf("InvalidRows[1] = %+v", bob)
	}
}

func TestConnect_BadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "not a url"); err == nil {
		t.Error("Connect with bad url should fail")
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	client.Close()
}
