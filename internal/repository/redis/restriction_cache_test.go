package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/taskory/admin-access/internal/repository"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRestrictionCache_SetAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewRestrictionCache(client, "restrictions")

	ctx := context.Background()
	ttl := 10 * time.Second

	keys := []string{"tasks.approve", "users.ban"}
	if err := cache.SetRestrictions(ctx, "user-1", keys, ttl); err != nil {
		t.Fatalf("SetRestrictions returned error: %v", err)
	}

	got, err := cache.GetRestrictions(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRestrictions returned error: %v", err)
	}
	if len(got) != 2 || got[0] != "tasks.approve" || got[1] != "users.ban" {
		t.Fatalf("unexpected restrictions: %v", got)
	}

	remaining := server.TTL("restrictions:user-1")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}
}

func TestRestrictionCache_EmptySetIsNotAMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewRestrictionCache(client, "restrictions")

	ctx := context.Background()
	if err := cache.SetRestrictions(ctx, "user-2", nil, time.Minute); err != nil {
		t.Fatalf("SetRestrictions returned error: %v", err)
	}

	got, err := cache.GetRestrictions(ctx, "user-2")
	if err != nil {
		t.Fatalf("GetRestrictions returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestRestrictionCache_Miss(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewRestrictionCache(client, "restrictions")

	_, err := cache.GetRestrictions(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRestrictionCache_Delete(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewRestrictionCache(client, "restrictions")

	ctx := context.Background()
	if err := cache.SetRestrictions(ctx, "user-3", []string{"orders.refund"}, time.Minute); err != nil {
		t.Fatalf("SetRestrictions returned error: %v", err)
	}

	if err := cache.DeleteRestrictions(ctx, "user-3"); err != nil {
		t.Fatalf("DeleteRestrictions returned error: %v", err)
	}

	_, err := cache.GetRestrictions(ctx, "user-3")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRestrictionCache_Expiry(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewRestrictionCache(client, "restrictions")

	ctx := context.Background()
	if err := cache.SetRestrictions(ctx, "user-4", []string{"tasks.delete"}, 5*time.Second); err != nil {
		t.Fatalf("SetRestrictions returned error: %v", err)
	}

	server.FastForward(6 * time.Second)

	_, err := cache.GetRestrictions(ctx, "user-4")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}
