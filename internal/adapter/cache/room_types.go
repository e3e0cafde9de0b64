// Package cache keeps the room-type catalogue in memory. Room types are
// read on every check-in and capacity check but change rarely.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

var _ domain.RoomTypeRepository = (*RoomTypes)(nil)

// RoomTypes is a read-through cache in front of a domain.RoomTypeRepository.
type RoomTypes struct {
	next  domain.RoomTypeRepository
	store *gocache.Cache
}

// NewRoomTypes caches entries for ttl and purges expired ones every 2*ttl.
func NewRoomTypes(next domain.RoomTypeRepository, ttl time.Duration) *RoomTypes {
	return &RoomTypes{
		next:  next,
		store: gocache.New(ttl, 2*ttl),
	}
}

func (c *RoomTypes) Create(ctx context.Context, rt domain.RoomType) error {
	if err := c.next.Create(ctx, rt); err != nil {
		return err
	}
	c.store.SetDefault(rt.ID, rt)
	return nil
}

// GetByID serves from memory when possible. Misses are not cached.
func (c *RoomTypes) GetByID(ctx context.Context, id string) (domain.RoomType, error) {
	if v, ok := c.store.Get(id); ok {
		return v.(domain.RoomType), nil
	}
	rt, err := c.next.GetByID(ctx, id)
	if err != nil {
		return domain.RoomType{}, err
	}
	c.store.SetDefault(id, rt)
	return rt, nil
}

// Invalidate drops a cached entry.
func (c *RoomTypes) Invalidate(id string) {
	c.store.Delete(id)
}
