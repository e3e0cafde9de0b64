package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/frontdesk/internal/adapter/sqlite"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRoomType(t *testing.T, store *sqlite.Store, id string, capacity int) domain.RoomType {
	t.Helper()
	rt := domain.RoomType{
		ID:        id,
		HotelID:   "h-1",
		Name:      "Double",
		Capacity:  capacity,
		BaseRate:  decimal.NewFromInt(1000),
		Currency:  "TRY",
		CreatedAt: time.Now(),
	}
	if err := sqlite.NewRoomTypeRepository(store.DB()).Create(context.Background(), rt); err != nil {
		t.Fatalf("creating room type: %v", err)
	}
	return rt
}

func mustRoom(t *testing.T, store *sqlite.Store, id, number string, floor int) domain.Room {
	t.Helper()
	room := domain.NewRoom(id, "h-1", number, floor, "rt-1")
	if err := store.Rooms().Create(context.Background(), room); err != nil {
		t.Fatalf("creating room: %v", err)
	}
	return room
}

func newStay(id, number, roomID string, status domain.StayStatus) domain.Stay {
	s := domain.Stay{
		ID:           id,
		HotelID:      "h-1",
		StayNumber:   number,
		RoomID:       roomID,
		RoomNumber:   "101",
		RoomTypeID:   "rt-1",
		CheckInDate:  date(2026, 5, 1),
		CheckOutDate: date(2026, 5, 3),
		Nights:       2,
		Guests:       []domain.Guest{{ID: "g-1", FirstName: "Ada", LastName: "Lovelace", IsMain: true}},
		Status:       status,
		RoomRate:     decimal.NewFromInt(1000),
		Currency:     "TRY",
	}
	s.CountGuests()
	s.Recalculate()
	return s
}

func TestRoomRepository_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	mustRoomType(t, store, "rt-1", 2)
	mustRoom(t, store, "r-1", "101", 1)

	got, err := store.Rooms().GetByID(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Number != "101" {
		t.Errorf("Number = %q, want %q", got.Number, "101")
	}
	if got.Status != domain.RoomVacantClean {
		t.Errorf("Status = %q, want %q", got.Status, domain.RoomVacantClean)
	}
	if !got.Active {
		t.Error("Active = false, want true")
	}
}

func TestRoomRepository_DuplicateNumber(t *testing.T) {
	store := newTestStore(t)
	mustRoomType(t, store, "rt-1", 2)
	mustRoom(t, store, "r-1", "101", 1)

	err := store.Rooms().Create(context.Background(), domain.NewRoom("r-2", "h-1", "101", 1, "rt-1"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRoomRepository_GetByID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Rooms().GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestRoomRepository_ClaimAndRelease(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustRoomType(t, store, "rt-1", 2)
	mustRoom(t, store, "r-1", "101", 1)

	room, err := store.Rooms().Claim(ctx, domain.ClaimRequest{
		RoomID:           "r-1",
		Expected:         domain.ClaimableStatuses,
		Occupants:        []domain.OccupantSnapshot{{FirstName: "Ada", LastName: "Lovelace", IsMain: true}},
		CheckIn:          date(2026, 5, 1),
		ExpectedCheckout: date(2026, 5, 3),
	})
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if room.Status != domain.RoomOccupied {
		t.Errorf("Status = %q, want %q", room.Status, domain.RoomOccupied)
	}
	if len(room.Occupants) != 1 || room.Occupants[0].FirstName != "Ada" {
		t.Errorf("Occupants = %+v, want Ada", room.Occupants)
	}
	if !room.ExpectedCheckout.Equal(date(2026, 5, 3)) {
		t.Errorf("ExpectedCheckout = %v, want 2026-05-03", room.ExpectedCheckout)
	}

	if err := store.Rooms().Release(ctx, "r-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	room, err = store.Rooms().GetByID(ctx, "r-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if room.Status != domain.RoomCheckout {
		t.Errorf("Status = %q, want %q", room.Status, domain.RoomCheckout)
	}
	if room.Housekeeping != domain.HousekeepingDirty {
		t.Errorf("Housekeeping = %q, want %q", room.Housekeeping, domain.HousekeepingDirty)
	}
	if len(room.Occupants) != 0 {
		t.Errorf("Occupants = %+v, want none", room.Occupants)
	}
}

func TestRoomRepository_ClaimFailsWhenStatusNoLongerMatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustRoomType(t, store, "rt-1", 2)
	mustRoom(t, store, "r-1", "101", 1)

	req := domain.ClaimRequest{RoomID: "r-1", Expected: domain.ClaimableStatuses}
	if _, err := store.Rooms().Claim(ctx, req); err != nil {
		t.Fatalf("first Claim: %v", err)
	}

	_, err := store.Rooms().Claim(ctx, req)
	var unavailable *domain.RoomUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want RoomUnavailableError", err)
	}
	if unavailable.RoomNumber != "101" {
		t.Errorf("RoomNumber = %q, want %q", unavailable.RoomNumber, "101")
	}
	if unavailable.Status != domain.RoomOccupied {
		t.Errorf("Status = %q, want %q", unavailable.Status, domain.RoomOccupied)
	}
}

func TestRoomRepository_ConcurrentClaims(t *testing.T) {
	store := newTestStore(t)
	mustRoomType(t, store, "rt-1", 2)
	mustRoom(t, store, "r-1", "101", 1)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Rooms().Claim(context.Background(), domain.ClaimRequest{
				RoomID:   "r-1",
				Expected: domain.ClaimableStatuses,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != attempts-1 {
		t.Errorf("wins/conflicts = %d/%d, want 1/%d", wins, conflicts, attempts-1)
	}
}

func TestRoomRepository_SetStatusIsConditional(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustRoomType(t, store, "rt-1", 2)
	mustRoom(t, store, "r-1", "101", 1)

	room, err := store.Rooms().SetStatus(ctx, "r-1", domain.RoomVacantClean, domain.RoomInspected, domain.HousekeepingInspected)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if room.Status != domain.RoomInspected {
		t.Errorf("Status = %q, want %q", room.Status, domain.RoomInspected)
	}

	_, err = store.Rooms().SetStatus(ctx, "r-1", domain.RoomVacantClean, domain.RoomMaintenance, domain.HousekeepingClean)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestRoomRepository_ListActiveOrdersByFloor(t *testing.T) {
	store := newTestStore(t)
	mustRoomType(t, store, "rt-1", 2)
	mustRoom(t, store, "r-3", "301", 3)
	mustRoom(t, store, "r-1", "102", 1)
	mustRoom(t, store, "r-2", "101", 1)

	rooms, err := store.Rooms().ListActive(context.Background(), "h-1")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}

	var got []string
	for _, r := range rooms {
		got = append(got, r.Number)
	}
	want := []string{"101", "102", "301"}
	if len(got) != len(want) {
		t.Fatalf("rooms = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rooms[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustRoomType(t, store, "rt-1", 2)
	mustRoom(t, store, "r-1", "101", 1)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx domain.Repositories) error {
		if _, err := tx.Rooms().Claim(ctx, domain.ClaimRequest{RoomID: "r-1", Expected: domain.ClaimableStatuses}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	room, err := store.Rooms().GetByID(ctx, "r-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if room.Status != domain.RoomVacantClean {
		t.Errorf("Status = %q after rollback, want %q", room.Status, domain.RoomVacantClean)
	}
}

func TestWithinTx_CommitsAllWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustRoomType(t, store, "rt-1", 2)
	mustRoom(t, store, "r-1", "101", 1)

	stay := newStay("s-1", "ST-1", "r-1", domain.StayCheckedIn)
	err := store.WithinTx(ctx, func(tx domain.Repositories) error {
		if _, err := tx.Rooms().Claim(ctx, domain.ClaimRequest{RoomID: "r-1", Expected: domain.ClaimableStatuses}); err != nil {
			return err
		}
		return tx.Stays().Create(ctx, stay)
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	if _, err := store.Stays().ActiveForRoom(ctx, "r-1"); err != nil {
		t.Errorf("ActiveForRoom: %v", err)
	}
}
