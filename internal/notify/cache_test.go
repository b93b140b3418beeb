package notify

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestCache(t *testing.T) *UnreadCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewUnreadCache(client, testLogger())
}

func TestUnreadCache_MissBeforeSeed(t *testing.T) {
	c := setupTestCache(t)

	if _, ok := c.GetUnread(context.Background(), "u1"); ok {
		t.Error("unseeded counter should be a miss")
	}
}

func TestUnreadCache_SeedAndGet(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	c.Seed(ctx, "u1", 7)

	count, ok := c.GetUnread(ctx, "u1")
	if !ok {
		t.Fatal("seeded counter should hit")
	}
	if count != 7 {
		t.Errorf("count = %d, want 7", count)
	}
}

func TestUnreadCache_IncrOnlyWhenSeeded(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	// Incrementing a missing counter must not create a bogus one
	c.IncrUnread(ctx, "u1")
	if _, ok := c.GetUnread(ctx, "u1"); ok {
		t.Fatal("increment should not create a counter from nothing")
	}

	c.Seed(ctx, "u1", 2)
	c.IncrUnread(ctx, "u1")

	count, _ := c.GetUnread(ctx, "u1")
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestUnreadCache_DecrFloorsAtZero(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	c.Seed(ctx, "u1", 0)
	c.DecrUnread(ctx, "u1")

	count, ok := c.GetUnread(ctx, "u1")
	if !ok {
		t.Fatal("counter should still exist")
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 (never negative)", count)
	}
}

func TestUnreadCache_CountersArePerUser(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	c.Seed(ctx, "u1", 1)
	c.Seed(ctx, "u2", 5)
	c.IncrUnread(ctx, "u1")

	if count, _ := c.GetUnread(ctx, "u1"); count != 2 {
		t.Errorf("u1 count = %d, want 2", count)
	}
	if count, _ := c.GetUnread(ctx, "u2"); count != 5 {
		t.Errorf("u2 count = %d, want 5", count)
	}
}
