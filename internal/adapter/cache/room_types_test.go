package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/frontdesk/internal/adapter/cache"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

type countingRepo struct {
	types map[string]domain.RoomType
	reads int
}

func (r *countingRepo) Create(_ context.Context, rt domain.RoomType) error {
	r.types[rt.ID] = rt
	return nil
}

func (r *countingRepo) GetByID(_ context.Context, id string) (domain.RoomType, error) {
	r.reads++
	rt, ok := r.types[id]
	if !ok {
		return domain.RoomType{}, domain.ErrRoomTypeNotFound
	}
	return rt, nil
}

func TestRoomTypes_ReadThrough(t *testing.T) {
	inner := &countingRepo{types: map[string]domain.RoomType{
		"rt-1": {ID: "rt-1", Name: "Double", Capacity: 2},
	}}
	c := cache.NewRoomTypes(inner, time.Minute)
	ctx := context.Background()

	for range 3 {
		rt, err := c.GetByID(ctx, "rt-1")
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if rt.Capacity != 2 {
			t.Errorf("Capacity = %d, want 2", rt.Capacity)
		}
	}
	if inner.reads != 1 {
		t.Errorf("inner reads = %d, want 1", inner.reads)
	}

	c.Invalidate("rt-1")
	if _, err := c.GetByID(ctx, "rt-1"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if inner.reads != 2 {
		t.Errorf("inner reads after invalidate = %d, want 2", inner.reads)
	}
}

func TestRoomTypes_MissesAreNotCached(t *testing.T) {
	inner := &countingRepo{types: map[string]domain.RoomType{}}
	c := cache.NewRoomTypes(inner, time.Minute)
	ctx := context.Background()

	for range 2 {
		if _, err := c.GetByID(ctx, "nope"); !errors.Is(err, domain.ErrRoomTypeNotFound) {
			t.Fatalf("err = %v, want ErrRoomTypeNotFound", err)
		}
	}
	if inner.reads != 2 {
		t.Errorf("inner reads = %d, want 2", inner.reads)
	}
}

func TestRoomTypes_CreateWritesThrough(t *testing.T) {
	inner := &countingRepo{types: map[string]domain.RoomType{}}
	c := cache.NewRoomTypes(inner, time.Minute)
	ctx := context.Background()

	if err := c.Create(ctx, domain.RoomType{ID: "rt-9", Capacity: 4}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := inner.types["rt-9"]; !ok {
		t.Error("room type not persisted")
	}
	if _, err := c.GetByID(ctx, "rt-9"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if inner.reads != 0 {
		t.Errorf("inner reads = %d, want 0", inner.reads)
	}
}
