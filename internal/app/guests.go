package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// AddGuest appends a guest to the stay's party. The append is a single
// JSON insert, so concurrent additions never overwrite each other.
func (s *StayService) AddGuest(ctx context.Context, stayID string, guest domain.Guest) (domain.Stay, error) {
	guest, err := cleanGuest(guest)
	if err != nil {
		return domain.Stay{}, err
	}
	guest.IsMain = false

	stay, err := s.store.Stays().GetByID(ctx, stayID)
	if err != nil {
		return domain.Stay{}, err
	}
	if stay.Status.IsTerminal() {
		return domain.Stay{}, notAllowed(stay, "add_guest")
	}
	if _, err := s.checkCapacity(ctx, stay.RoomTypeID, len(stay.Guests)+1); err != nil {
		return domain.Stay{}, err
	}

	guests := []domain.Guest{guest}
	s.resolveProfiles(ctx, stay.HotelID, guests)
	guest = guests[0]

	err = s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		if err := tx.Stays().AppendGuest(ctx, stayID, guest); err != nil {
			return err
		}
		stay, err = s.syncGuests(ctx, tx, stayID)
		return err
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.afterCommit(ctx, domain.EventStayGuestsChanged, stay)
	return stay, nil
}

// UpdateGuest replaces a guest's details. The main-guest flag is kept.
func (s *StayService) UpdateGuest(ctx context.Context, stayID, guestID string, update domain.Guest) (domain.Stay, error) {
	update, err := cleanGuest(update)
	if err != nil {
		return domain.Stay{}, err
	}

	return s.replaceGuests(ctx, stayID, "update_guest", func(guests []domain.Guest) ([]domain.Guest, error) {
		i := guestIndex(guests, guestID)
		if i < 0 {
			return nil, domain.ErrGuestNotFound
		}
		update.ID = guests[i].ID
		update.IsMain = guests[i].IsMain
		if update.ProfileID == "" {
			update.ProfileID = guests[i].ProfileID
		}
		out := append([]domain.Guest(nil), guests...)
		out[i] = update
		return out, nil
	})
}

// RemoveGuest drops a guest from the party. The last guest cannot be
// removed; removing the main guest promotes the first remaining one.
func (s *StayService) RemoveGuest(ctx context.Context, stayID, guestID string) (domain.Stay, error) {
	return s.replaceGuests(ctx, stayID, "remove_guest", func(guests []domain.Guest) ([]domain.Guest, error) {
		i := guestIndex(guests, guestID)
		if i < 0 {
			return nil, domain.ErrGuestNotFound
		}
		if len(guests) == 1 {
			return nil, &domain.ValidationError{Field: "guests", Reason: "a stay must keep at least one guest"}
		}
		removed := guests[i]
		out := make([]domain.Guest, 0, len(guests)-1)
		out = append(out, guests[:i]...)
		out = append(out, guests[i+1:]...)
		if removed.IsMain {
			out[0].IsMain = true
		}
		return out, nil
	})
}

// replaceGuests rewrites the guest list with a version compare-and-swap,
// re-reading and retrying when another writer got there first.
func (s *StayService) replaceGuests(ctx context.Context, stayID, action string, edit func([]domain.Guest) ([]domain.Guest, error)) (domain.Stay, error) {
	var stay domain.Stay
	backoff := retry.WithMaxRetries(3, retry.NewConstant(20*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		current, err := s.store.Stays().GetByID(ctx, stayID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return notAllowed(current, action)
		}
		guests, err := edit(current.Guests)
		if err != nil {
			return err
		}

		err = s.store.WithinTx(ctx, func(tx domain.Repositories) error {
			if err := tx.Stays().ReplaceGuests(ctx, stayID, current.Version, guests); err != nil {
				return err
			}
			stay, err = s.syncGuests(ctx, tx, stayID)
			return err
		})
		var stale *domain.StaleStayError
		if errors.As(err, &stale) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.afterCommit(ctx, domain.EventStayGuestsChanged, stay)
	return stay, nil
}

// syncGuests refreshes the adult/child counts and, for a checked-in stay,
// the occupant snapshot on its room.
func (s *StayService) syncGuests(ctx context.Context, tx domain.Repositories, stayID string) (domain.Stay, error) {
	stay, err := tx.Stays().GetByID(ctx, stayID)
	if err != nil {
		return domain.Stay{}, err
	}
	stay.CountGuests()
	if err := tx.Stays().SetGuestCounts(ctx, stayID, stay.Adults, stay.Children); err != nil {
		return domain.Stay{}, err
	}
	if stay.Status == domain.StayCheckedIn && stay.RoomID != "" {
		if err := tx.Rooms().UpdateOccupancy(ctx, stay.RoomID, stay.Occupants(), stay.CheckOutDate); err != nil {
			return domain.Stay{}, err
		}
	}
	return stay, nil
}

func cleanGuest(g domain.Guest) (domain.Guest, error) {
	g.FirstName = strings.TrimSpace(g.FirstName)
	g.LastName = strings.TrimSpace(g.LastName)
	if g.FirstName == "" {
		return domain.Guest{}, &domain.ValidationError{Field: "first_name", Reason: "is required"}
	}
	if g.LastName == "" {
		return domain.Guest{}, &domain.ValidationError{Field: "last_name", Reason: "is required"}
	}
	return g, nil
}

func guestIndex(guests []domain.Guest, id string) int {
	for i, g := range guests {
		if g.ID == id {
			return i
		}
	}
	return -1
}
