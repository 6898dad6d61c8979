package service

import (
	"context"
	"errors"
	"testing"

	"vehicleparking/backend/services/parking-service/internal/models"
)

func newLotService() (*LotService, *memStore, *recordingNotifier) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	return NewLotService(store, notifier, testLogger()), store, notifier
}

func createLot(t *testing.T, svc *LotService, spots int, price float64) *models.Lot {
	t.Helper()
	lot, err := svc.CreateLot(context.Background(), adminPrincipal, LotInput{
		Name:         "Central",
		Address:      "1 Main St",
		PinCode:      "560001",
		PricePerHour: price,
		MaxSpots:     spots,
	})
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}
	return lot
}

func TestCreateLotCreatesAvailableSpots(t *testing.T) {
	svc, store, notifier := newLotService()

	lot := createLot(t, svc, 5, 10)

	spots := store.spotsOf(lot.ID)
	if len(spots) != 5 {
		t.Fatalf("expected 5 spots, got %d", len(spots))
	}
	for _, spot := range spots {
		if spot.Status != models.SpotAvailable {
			t.Fatalf("spot %d: expected available, got %s", spot.ID, spot.Status)
		}
	}

	summaries, err := svc.ListLotsWithSpotCounts(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one lot, got %d", len(summaries))
	}
	if summaries[0].Counts.Available != 5 || summaries[0].Counts.Occupied != 0 || summaries[0].Counts.Total() != 5 {
		t.Fatalf("unexpected counts %+v", summaries[0].Counts)
	}

	update, ok := notifier.last()
	if !ok || update.LotID != lot.ID || update.Available != 5 {
		t.Fatalf("expected availability update for new lot, got %+v", update)
	}
}

func TestCreateLotValidation(t *testing.T) {
	svc, store, _ := newLotService()
	ctx := context.Background()

	cases := []struct {
		field string
		in    LotInput
	}{
		{"name", LotInput{Name: " ", PricePerHour: 10, MaxSpots: 1}},
		{"price_per_hour", LotInput{Name: "A", PricePerHour: 0, MaxSpots: 1}},
		{"price_per_hour", LotInput{Name: "A", PricePerHour: -3, MaxSpots: 1}},
		{"max_spots", LotInput{Name: "A", PricePerHour: 10, MaxSpots: 0}},
		{"max_spots", LotInput{Name: "A", PricePerHour: 10, MaxSpots: maxSpotsPerLot + 1}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateLot(ctx, adminPrincipal, tc.in); !isValidation(err, tc.field) {
			t.Fatalf("create %+v: expected validation error on %s, got %v", tc.in, tc.field, err)
		}
	}
	if summaries, _ := store.ListWithCounts(ctx); len(summaries) != 0 {
		t.Fatalf("invalid input must not create lots")
	}
}

func TestLotOperationsRequireAdmin(t *testing.T) {
	svc, _, _ := newLotService()
	ctx := context.Background()
	lot := createLot(t, svc, 1, 10)

	for _, p := range []models.Principal{annPrincipal, {}} {
		if _, err := svc.CreateLot(ctx, p, LotInput{Name: "x", PricePerHour: 1, MaxSpots: 1}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("create as %+v: expected ErrUnauthorized, got %v", p, err)
		}
		if _, err := svc.EditLot(ctx, p, lot.ID, LotInput{Name: "x", PricePerHour: 1}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("edit as %+v: expected ErrUnauthorized, got %v", p, err)
		}
		if err := svc.DeleteLot(ctx, p, lot.ID); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("delete as %+v: expected ErrUnauthorized, got %v", p, err)
		}
		if _, err := svc.ListLotsWithSpotCounts(ctx, p); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("list as %+v: expected ErrUnauthorized, got %v", p, err)
		}
	}
}

func TestEditLotKeepsInventory(t *testing.T) {
	svc, store, _ := newLotService()
	ctx := context.Background()
	lot := createLot(t, svc, 3, 10)

	edited, err := svc.EditLot(ctx, adminPrincipal, lot.ID, LotInput{
		Name:         "Central East",
		Address:      "2 Main St",
		PinCode:      "560002",
		PricePerHour: 12.5,
		MaxSpots:     99,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Name != "Central East" || edited.PricePerHour != 12.5 {
		t.Fatalf("unexpected edited lot %+v", edited)
	}
	if edited.MaxSpots != 3 {
		t.Fatalf("edit must not change max_spots, got %d", edited.MaxSpots)
	}
	if got := len(store.spotsOf(lot.ID)); got != 3 {
		t.Fatalf("edit must not change spot inventory, got %d spots", got)
	}

	fetched, err := svc.GetLot(ctx, adminPrincipal, lot.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Address != "2 Main St" {
		t.Fatalf("expected persisted address, got %q", fetched.Address)
	}
}

func TestEditAndGetMissingLot(t *testing.T) {
	svc, _, _ := newLotService()
	ctx := context.Background()

	if _, err := svc.EditLot(ctx, adminPrincipal, 404, LotInput{Name: "x", PricePerHour: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on edit, got %v", err)
	}
	if _, err := svc.GetLot(ctx, adminPrincipal, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on get, got %v", err)
	}
	if err := svc.DeleteLot(ctx, adminPrincipal, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestDeleteLotBlockedWhileOccupied(t *testing.T) {
	lots, store, _ := newLotService()
	reservations := NewReservationService(store, store, nil, newFakeClock().Now, testLogger())
	ctx := context.Background()
	lot := createLot(t, lots, 2, 10)

	if _, err := reservations.Reserve(ctx, annPrincipal, lot.ID); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	before := store.spotsOf(lot.ID)
	if err := lots.DeleteLot(ctx, adminPrincipal, lot.ID); !errors.Is(err, ErrLotOccupied) {
		t.Fatalf("expected ErrLotOccupied, got %v", err)
	}
	after := store.spotsOf(lot.ID)
	if len(after) != len(before) {
		t.Fatalf("failed delete must leave spots unchanged")
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("spot changed after failed delete: %+v -> %+v", before[i], after[i])
		}
	}
	if store.reservationCount() != 1 {
		t.Fatalf("failed delete must leave reservations unchanged")
	}

	if _, err := reservations.Release(ctx, annPrincipal); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := lots.DeleteLot(ctx, adminPrincipal, lot.ID); err != nil {
		t.Fatalf("delete after release: %v", err)
	}
	if len(store.spotsOf(lot.ID)) != 0 {
		t.Fatalf("expected spots to be deleted with the lot")
	}
	if _, err := lots.GetLot(ctx, adminPrincipal, lot.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted lot to be gone, got %v", err)
	}
}

func TestSnapshotListsEveryLot(t *testing.T) {
	svc, _, _ := newLotService()
	first := createLot(t, svc, 2, 10)
	second := createLot(t, svc, 4, 5)

	updates, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].LotID != first.ID || updates[0].Available != 2 {
		t.Fatalf("unexpected first update %+v", updates[0])
	}
	if updates[1].LotID != second.ID || updates[1].Available != 4 {
		t.Fatalf("unexpected second update %+v", updates[1])
	}
}
