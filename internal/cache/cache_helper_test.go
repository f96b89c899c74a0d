package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCacheHelper(client, "test:"), mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	in := payload{Name: "grant", Count: 3}
	if err := helper.Set(ctx, "k1", in, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var out payload
	if err := helper.Get(ctx, "k1", &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out != in {
		t.Errorf("Get() = %+v, want %+v", out, in)
	}
}

func TestCacheHelper_GetMissing(t *testing.T) {
	helper, _ := newTestHelper(t)

	var out payload
	err := helper.Get(context.Background(), "missing", &out)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get() error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	_ = helper.Set(ctx, "a", payload{Name: "a"}, time.Minute)
	_ = helper.Set(ctx, "b", payload{Name: "b"}, time.Minute)

	if err := helper.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var out payload
	if err := helper.Get(ctx, "a", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected a to be deleted, got %v", err)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	_ = helper.Set(ctx, "list:1", payload{}, time.Minute)
	_ = helper.Set(ctx, "list:2", payload{}, time.Minute)
	_ = helper.Set(ctx, "id:1", payload{Name: "keep"}, time.Minute)

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("InvalidatePattern() error = %v", err)
	}

	var out payload
	if err := helper.Get(ctx, "list:1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("list:1 should be invalidated, got %v", err)
	}
	if err := helper.Get(ctx, "id:1", &out); err != nil {
		t.Errorf("id:1 should survive, got %v", err)
	}
}

func TestCacheHelper_NilClientDegrades(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", payload{}, time.Minute); err != nil {
		t.Errorf("Set() with nil client should be a no-op, got %v", err)
	}
	var out payload
	if err := helper.Get(ctx, "k", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() error = %v, want ErrCacheNotAvailable", err)
	}
	if err := helper.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() with nil client should be a no-op, got %v", err)
	}
}
