package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

const (
	defaultLockTTL  = 30 * time.Second
	defaultLockWait = 2 * time.Second
	lockPoll        = 50 * time.Millisecond
)

// StayDeps groups the adapters a StayService orchestrates.
type StayDeps struct {
	Store     domain.Store
	RoomTypes domain.RoomTypeRepository
	Guests    domain.GuestDirectory
	Locker    domain.Locker
	Publisher domain.EventPublisher
	Identity  domain.IdentityReporter
	Machine   domain.StayMachine
}

// StayService orchestrates the stay lifecycle: check-in, room moves,
// extensions, billing, guest edits and checkout.
type StayService struct {
	store     domain.Store
	roomTypes domain.RoomTypeRepository
	guests    domain.GuestDirectory
	locker    domain.Locker
	publisher domain.EventPublisher
	identity  domain.IdentityReporter
	machine   domain.StayMachine

	logger   *slog.Logger
	now      func() time.Time
	lockTTL  time.Duration
	lockWait time.Duration
}

// Option configures a StayService.
type Option func(*StayService)

// WithLogger sets the logger used for post-commit failures and reconciliation.
func WithLogger(l *slog.Logger) Option {
	return func(s *StayService) { s.logger = l }
}

// WithClock overrides the clock used for actual check-in and checkout times.
func WithClock(now func() time.Time) Option {
	return func(s *StayService) { s.now = now }
}

// WithLockTiming sets the lease TTL and how long to wait for a held lock.
func WithLockTiming(ttl, wait time.Duration) Option {
	return func(s *StayService) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
		if wait >= 0 {
			s.lockWait = wait
		}
	}
}

// NewStayService creates a service with the given adapters.
func NewStayService(deps StayDeps, opts ...Option) *StayService {
	s := &StayService{
		store:     deps.Store,
		roomTypes: deps.RoomTypes,
		guests:    deps.Guests,
		locker:    deps.Locker,
		publisher: deps.Publisher,
		identity:  deps.Identity,
		machine:   deps.Machine,
		logger:    slog.Default(),
		now:       time.Now,
		lockTTL:   defaultLockTTL,
		lockWait:  defaultLockWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStay returns a stay by id.
func (s *StayService) GetStay(ctx context.Context, id string) (domain.Stay, error) {
	return s.store.Stays().GetByID(ctx, id)
}

// Ledger returns the ledger transactions posted for a stay.
func (s *StayService) Ledger(ctx context.Context, stayID string) ([]domain.LedgerEntry, error) {
	if _, err := s.store.Stays().GetByID(ctx, stayID); err != nil {
		return nil, err
	}
	return s.store.Ledger().ListForStay(ctx, stayID)
}

// withLock runs fn while holding the advisory lock for key. A held lock is
// polled until lockWait elapses. The lease is released on every exit path.
func (s *StayService) withLock(ctx context.Context, key string, fn func() error) error {
	var lease domain.Lease
	backoff := retry.WithMaxDuration(s.lockWait, retry.NewConstant(lockPoll))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		l, err := s.locker.Acquire(ctx, key, s.lockTTL)
		var held *domain.LockHeldError
		if errors.As(err, &held) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		lease = l
		return nil
	})
	if err != nil {
		var held *domain.LockHeldError
		if errors.As(err, &held) {
			s.logger.WarnContext(ctx, "lock contention", "key", key)
		}
		return err
	}

	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lease); err != nil {
			s.logger.ErrorContext(ctx, "releasing lock", "key", key, "error", err)
		}
	}()

	return fn()
}

// afterCommit publishes a stay event. The write already committed, so a
// failure is logged and never returned.
func (s *StayService) afterCommit(ctx context.Context, event domain.EventType, stay domain.Stay) {
	if err := s.publisher.Publish(ctx, event, stay); err != nil {
		s.logger.ErrorContext(ctx, "publishing stay event",
			"event", string(event), "stay_id", stay.ID, "error", err)
	}
}

// resolveProfiles links each guest to a CRM profile. CRM failures leave the
// guest unlinked.
func (s *StayService) resolveProfiles(ctx context.Context, hotelID string, guests []domain.Guest) {
	for i := range guests {
		if guests[i].ID == "" {
			guests[i].ID = generateID()
		}
		if guests[i].ProfileID != "" {
			continue
		}
		id, err := s.guests.FindOrCreate(ctx, hotelID, guests[i])
		if err != nil {
			s.logger.WarnContext(ctx, "resolving guest profile",
				"hotel_id", hotelID, "guest", guests[i].FirstName+" "+guests[i].LastName, "error", err)
			continue
		}
		guests[i].ProfileID = id
	}
}

// unavailable builds the conflict returned when a room cannot be claimed,
// naming the stay that occupies it when there is one.
func (s *StayService) unavailable(ctx context.Context, repos domain.Repositories, room domain.Room) error {
	err := &domain.RoomUnavailableError{RoomID: room.ID, RoomNumber: room.Number, Status: room.Status}
	if active, aerr := repos.Stays().ActiveForRoom(ctx, room.ID); aerr == nil {
		err.StayNumber = active.StayNumber
	}
	return err
}

func (s *StayService) checkCapacity(ctx context.Context, roomTypeID string, guests int) (domain.RoomType, error) {
	rt, err := s.roomTypes.GetByID(ctx, roomTypeID)
	if err != nil {
		return domain.RoomType{}, fmt.Errorf("loading room type: %w", err)
	}
	if guests > rt.Capacity {
		return domain.RoomType{}, &domain.ValidationError{
			Field:  "guests",
			Reason: fmt.Sprintf("%s rooms hold at most %d guests", rt.Name, rt.Capacity),
		}
	}
	return rt, nil
}

func notAllowed(stay domain.Stay, action string) error {
	return &domain.TransitionError{Entity: "stay", Event: action, Current: string(stay.Status)}
}
