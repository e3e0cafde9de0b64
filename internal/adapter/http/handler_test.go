package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	adapter "github.com/neomorfeo/frontdesk/internal/adapter/http"
	"github.com/neomorfeo/frontdesk/internal/adapter/fsm"
	"github.com/neomorfeo/frontdesk/internal/adapter/sqlite"
	"github.com/neomorfeo/frontdesk/internal/app"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

// noopPublisher is a no-op EventPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.EventType, _ domain.Stay) error {
	return nil
}

type noopIdentity struct{}

func (noopIdentity) Schedule(_ context.Context, _ domain.Stay) error { return nil }

// newTestServer creates a full-stack httptest.Server with SQLite in-memory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	roomTypes := sqlite.NewRoomTypeRepository(store.DB())
	svc := adapter.Services{
		Rooms: app.NewRoomService(store, roomTypes, fsm.NewRoomMachine()),
		Stays: app.NewStayService(app.StayDeps{
			Store:     store,
			RoomTypes: roomTypes,
			Guests:    sqlite.NewGuestDirectory(store.DB()),
			Locker:    sqlite.NewLocker(store.DB()),
			Publisher: &noopPublisher{},
			Identity:  noopIdentity{},
			Machine:   fsm.NewStayMachine(),
		}),
		Reservations: app.NewReservationService(store, roomTypes),
		Timeline:     app.NewTimelineService(store),
	}

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("frontdesk", "0.1.0"))
	adapter.Register(api, svc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request with context (avoids noctx linter).
func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

// mustDo performs a request, checks the status and decodes the body into out.
func mustDo(t *testing.T, method, url, body string, want int, out any) {
	t.Helper()

	resp := doRequest(t, method, url, body)
	defer resp.Body.Close()

	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status = %d, want %d (%s)", method, url, resp.StatusCode, want, raw)
	}
	if out == nil {
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func mustCreateRoom(t *testing.T, srv *httptest.Server, number string, floor int) adapter.RoomResponse {
	t.Helper()

	var rt adapter.RoomTypeResponse
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/room-types",
		`{"hotel_id":"h-1","name":"Double","capacity":2,"base_rate":"1000","currency":"TRY"}`, http.StatusOK, &rt)

	var room adapter.RoomResponse
	body := fmt.Sprintf(`{"hotel_id":"h-1","number":%q,"floor":%d,"room_type_id":%q}`, number, floor, rt.ID)
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/rooms", body, http.StatusOK, &room)
	return room
}

func walkInBody(roomID, firstName string) string {
	return fmt.Sprintf(`{
		"hotel_id": "h-1",
		"room_id": %q,
		"check_in_date": "2026-05-01",
		"check_out_date": "2026-05-03",
		"guests": [{"first_name": %q, "last_name": "Lovelace"}]
	}`, roomID, firstName)
}

func mustWalkIn(t *testing.T, srv *httptest.Server, roomID string) adapter.StayResponse {
	t.Helper()
	var stay adapter.StayResponse
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/stays", walkInBody(roomID, "Ada"), http.StatusOK, &stay)
	return stay
}

// --- Rooms ---

func TestCreateRoomType(t *testing.T) {
	srv := newTestServer(t)

	var rt adapter.RoomTypeResponse
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/room-types",
		`{"hotel_id":"h-1","name":"Suite","capacity":4,"base_rate":"2500.5","currency":"EUR"}`, http.StatusOK, &rt)

	if rt.ID == "" {
		t.Error("ID should not be empty")
	}
	if rt.BaseRate != "2500.50" {
		t.Errorf("BaseRate = %q, want %q", rt.BaseRate, "2500.50")
	}
	if rt.Capacity != 4 {
		t.Errorf("Capacity = %d, want 4", rt.Capacity)
	}
}

func TestCreateRoomType_InvalidRate(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/room-types",
		`{"hotel_id":"h-1","name":"Suite","capacity":4,"base_rate":"lots","currency":"EUR"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestListRooms(t *testing.T) {
	srv := newTestServer(t)
	mustCreateRoom(t, srv, "102", 1)
	mustCreateRoom(t, srv, "101", 1)

	var rooms []adapter.RoomResponse
	mustDo(t, http.MethodGet, srv.URL+"/api/v1/hotels/h-1/rooms", "", http.StatusOK, &rooms)

	if len(rooms) != 2 {
		t.Fatalf("got %d rooms, want 2", len(rooms))
	}
	if rooms[0].Number != "101" || rooms[0].Status != "vacant_clean" {
		t.Errorf("first room = %s/%s, want 101/vacant_clean", rooms[0].Number, rooms[0].Status)
	}
}

func TestRoomEvents(t *testing.T) {
	srv := newTestServer(t)
	room := mustCreateRoom(t, srv, "101", 1)
	url := srv.URL + "/api/v1/rooms/" + room.ID + "/events"

	var got adapter.RoomResponse
	mustDo(t, http.MethodPost, url, `{"event":"mark_inspected"}`, http.StatusOK, &got)
	if got.Status != "inspected" {
		t.Errorf("Status = %q, want inspected", got.Status)
	}

	tests := []struct {
		name string
		body string
	}{
		{"invalid from state", `{"event":"mark_inspected"}`},
		{"unknown event", `{"event":"explode"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, url, tt.body)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
			}
		})
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/rooms/nonexistent", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// --- Stays ---

func TestWalkIn(t *testing.T) {
	srv := newTestServer(t)
	room := mustCreateRoom(t, srv, "101", 1)

	stay := mustWalkIn(t, srv, room.ID)

	if stay.Status != "checked_in" {
		t.Errorf("Status = %q, want checked_in", stay.Status)
	}
	if !strings.HasPrefix(stay.StayNumber, "ST-") {
		t.Errorf("StayNumber = %q, want ST- prefix", stay.StayNumber)
	}
	if stay.Nights != 2 || stay.TotalAmount != "2000.00" || stay.Balance != "2000.00" {
		t.Errorf("nights/total/balance = %d/%s/%s, want 2/2000.00/2000.00", stay.Nights, stay.TotalAmount, stay.Balance)
	}
	if len(stay.Guests) != 1 || !stay.Guests[0].IsMain {
		t.Errorf("guests = %+v, want one main guest", stay.Guests)
	}

	var got adapter.RoomResponse
	mustDo(t, http.MethodGet, srv.URL+"/api/v1/rooms/"+room.ID, "", http.StatusOK, &got)
	if got.Status != "occupied" || got.ReservationRef != stay.StayNumber {
		t.Errorf("room = %s/%s, want occupied/%s", got.Status, got.ReservationRef, stay.StayNumber)
	}
	if len(got.Occupants) != 1 || got.Occupants[0].FirstName != "Ada" {
		t.Errorf("occupants = %+v, want Ada", got.Occupants)
	}
}

func TestWalkIn_RoomTakenIsConflict(t *testing.T) {
	srv := newTestServer(t)
	room := mustCreateRoom(t, srv, "101", 1)
	mustWalkIn(t, srv, room.ID)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/stays", walkInBody(room.ID, "Grace"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	var problem huma.ErrorModel
	if err := json.NewDecoder(resp.Body).Decode(&problem); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(problem.Detail, "no longer available") {
		t.Errorf("detail = %q, want room unavailable message", problem.Detail)
	}
}

func TestWalkIn_BadDates(t *testing.T) {
	srv := newTestServer(t)
	room := mustCreateRoom(t, srv, "101", 1)

	body := strings.Replace(walkInBody(room.ID, "Ada"), "2026-05-03", "2026-05-01", 1)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/stays", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestGetStay_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/stays/nonexistent", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestCheckOut_Balance(t *testing.T) {
	srv := newTestServer(t)
	room := mustCreateRoom(t, srv, "101", 1)
	stay := mustWalkIn(t, srv, room.ID)
	url := srv.URL + "/api/v1/stays/" + stay.ID + "/check-out"

	resp := doRequest(t, http.MethodPost, url, `{}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("checkout without reason: status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}

	var out adapter.StayResponse
	mustDo(t, http.MethodPost, url, `{"reason":"city_ledger"}`, http.StatusOK, &out)
	if out.Status != "checked_out" || out.CheckoutReason != "city_ledger" {
		t.Errorf("stay = %s/%s, want checked_out/city_ledger", out.Status, out.CheckoutReason)
	}

	var got adapter.RoomResponse
	mustDo(t, http.MethodGet, srv.URL+"/api/v1/rooms/"+room.ID, "", http.StatusOK, &got)
	if got.Status != "checkout" || len(got.Occupants) != 0 {
		t.Errorf("room = %s with %d occupants, want checkout and empty", got.Status, len(got.Occupants))
	}
}

func TestBilling(t *testing.T) {
	srv := newTestServer(t)
	room := mustCreateRoom(t, srv, "101", 1)
	stay := mustWalkIn(t, srv, room.ID)
	base := srv.URL + "/api/v1/stays/" + stay.ID

	var out adapter.StayResponse
	mustDo(t, http.MethodPost, base+"/extras",
		`{"description":"Minibar","unit_price":"25","quantity":2}`, http.StatusOK, &out)
	if out.TotalAmount != "2050.00" {
		t.Errorf("TotalAmount = %q, want 2050.00", out.TotalAmount)
	}

	mustDo(t, http.MethodPost, base+"/payments", `{"amount":"2050","method":"card"}`, http.StatusOK, &out)
	if out.PaymentStatus != "paid" || out.Balance != "0.00" {
		t.Errorf("payment = %s/%s, want paid/0.00", out.PaymentStatus, out.Balance)
	}

	var ledger []adapter.LedgerEntryResponse
	mustDo(t, http.MethodGet, base+"/ledger", "", http.StatusOK, &ledger)
	types := map[string]int{}
	for _, e := range ledger {
		types[e.Type]++
	}
	if types["charge"] < 1 || types["payment"] != 1 {
		t.Errorf("ledger types = %v, want a charge and one payment", types)
	}

	resp := doRequest(t, http.MethodPost, base+"/payments", `{"amount":"abc"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad amount: status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestGuests(t *testing.T) {
	srv := newTestServer(t)
	room := mustCreateRoom(t, srv, "101", 1)
	stay := mustWalkIn(t, srv, room.ID)
	base := srv.URL + "/api/v1/stays/" + stay.ID + "/guests"

	var out adapter.StayResponse
	mustDo(t, http.MethodPost, base, `{"first_name":"Charles","last_name":"Babbage"}`, http.StatusOK, &out)
	if len(out.Guests) != 2 || out.Adults != 2 {
		t.Fatalf("guests = %d, adults = %d, want 2 and 2", len(out.Guests), out.Adults)
	}

	resp := doRequest(t, http.MethodPost, base, `{"first_name":"Third","last_name":"Wheel"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("over capacity: status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}

	var added string
	for _, g := range out.Guests {
		if !g.IsMain {
			added = g.ID
		}
	}
	mustDo(t, http.MethodDelete, base+"/"+added, "", http.StatusOK, &out)
	if len(out.Guests) != 1 {
		t.Errorf("guests after removal = %d, want 1", len(out.Guests))
	}
}

// --- Reservations ---

func TestReservationCheckIn(t *testing.T) {
	srv := newTestServer(t)
	room := mustCreateRoom(t, srv, "201", 2)

	body := fmt.Sprintf(`{
		"hotel_id": "h-1",
		"number": "R-100",
		"check_in_date": "2026-05-01",
		"check_out_date": "2026-05-04",
		"lead_guest": {"first_name": "Grace", "last_name": "Hopper"},
		"rooms": [{"room_type_id": %q, "rate": "900"}]
	}`, room.RoomTypeID)
	var res adapter.ReservationResponse
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/reservations", body, http.StatusOK, &res)
	if res.Status != "confirmed" || len(res.Rooms) != 1 {
		t.Fatalf("reservation = %s with %d rooms, want confirmed with 1", res.Status, len(res.Rooms))
	}

	var stay adapter.StayResponse
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/reservations/"+res.ID+"/rooms/0/check-in",
		fmt.Sprintf(`{"room_id":%q}`, room.ID), http.StatusOK, &stay)
	if stay.Status != "checked_in" || stay.ReservationID != res.ID {
		t.Errorf("stay = %s/%s, want checked_in/%s", stay.Status, stay.ReservationID, res.ID)
	}
	if stay.RoomRate != "900.00" || stay.TotalAmount != "2700.00" {
		t.Errorf("rate/total = %s/%s, want 900.00/2700.00", stay.RoomRate, stay.TotalAmount)
	}

	mustDo(t, http.MethodGet, srv.URL+"/api/v1/reservations/"+res.ID, "", http.StatusOK, &res)
	if res.Status != "checked_in" {
		t.Errorf("reservation status = %q, want checked_in", res.Status)
	}

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/reservations/"+res.ID+"/rooms/3/check-in",
		fmt.Sprintf(`{"room_id":%q}`, room.ID))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad index: status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

// --- Timeline ---

func TestTimeline(t *testing.T) {
	srv := newTestServer(t)
	room := mustCreateRoom(t, srv, "101", 1)
	mustCreateRoom(t, srv, "201", 2)
	stay := mustWalkIn(t, srv, room.ID)

	var tl adapter.TimelineResponse
	mustDo(t, http.MethodGet, srv.URL+"/api/v1/hotels/h-1/timeline?from=2026-05-01&to=2026-05-08", "",
		http.StatusOK, &tl)

	if len(tl.Floors) != 2 {
		t.Fatalf("got %d floors, want 2", len(tl.Floors))
	}
	first := tl.Floors[0]
	if first.Number != 1 || len(first.Rooms) != 1 || len(first.Rooms[0].Stays) != 1 {
		t.Fatalf("floor 1 = %+v, want room 101 with one stay", first)
	}
	slot := first.Rooms[0].Stays[0]
	if slot.ID != stay.ID || slot.GuestName != "Ada Lovelace" {
		t.Errorf("slot = %s/%q, want %s/Ada Lovelace", slot.ID, slot.GuestName, stay.ID)
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/hotels/h-1/timeline?from=2026-05-08&to=2026-05-01", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("inverted range: status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}
