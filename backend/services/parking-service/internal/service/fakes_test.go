package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/models"
	"vehicleparking/backend/services/parking-service/internal/password"
	redisstore "vehicleparking/backend/services/parking-service/internal/redis"
	"vehicleparking/backend/services/parking-service/internal/repository"
)

var (
	adminPrincipal = models.Principal{AccountID: 1, Role: models.RoleAdmin, Username: "admin"}
	annPrincipal   = models.Principal{AccountID: 2, Role: models.RoleUser, Username: "ann"}
	bobPrincipal   = models.Principal{AccountID: 3, Role: models.RoleUser, Username: "bob"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) {
	if pw == "" {
		return "", password.ErrEmpty
	}
	return "hashed:" + pw, nil
}

func (fakeHasher) Compare(hash, pw string) error {
	if hash != "hashed:"+pw {
		return password.ErrMismatch
	}
	return nil
}

type fakeAccounts struct {
	mu        sync.Mutex
	byName    map[string]*models.Account
	nextID    int64
	createErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byName: make(map[string]*models.Account), nextID: 1}
}

func (f *fakeAccounts) Create(_ context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byName[account.Username]; ok {
		return repository.ErrUsernameTaken
	}
	account.ID = f.nextID
	f.nextID++
	account.CreatedAt = time.Now().UTC()
	stored := *account
	f.byName[account.Username] = &stored
	return nil
}

func (f *fakeAccounts) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.byName[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccounts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byName)
}

type recordingNotifier struct {
	mu      sync.Mutex
	updates []models.AvailabilityUpdate
}

func (n *recordingNotifier) Publish(update models.AvailabilityUpdate) {
	n.mu.Lock()
	n.updates = append(n.updates, update)
	n.mu.Unlock()
}

func (n *recordingNotifier) last() (models.AvailabilityUpdate, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.updates) == 0 {
		return models.AvailabilityUpdate{}, false
	}
	return n.updates[len(n.updates)-1], true
}

// memState is the in-memory equivalent of the parking tables.
type memState struct {
	lots         map[int64]models.Lot
	spots        map[int64]models.Spot
	reservations map[int64]models.Reservation
	nextLot      int64
	nextSpot     int64
	nextRes      int64
}

func (s memState) clone() memState {
	c := memState{
		lots:         make(map[int64]models.Lot, len(s.lots)),
		spots:        make(map[int64]models.Spot, len(s.spots)),
		reservations: make(map[int64]models.Reservation, len(s.reservations)),
		nextLot:      s.nextLot,
		nextSpot:     s.nextSpot,
		nextRes:      s.nextRes,
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.spots {
		c.spots[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	return c
}

// memStore serializes transactions with one mutex and restores a snapshot on error.
type memStore struct {
	mu    sync.Mutex
	state memState
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		lots:         make(map[int64]models.Lot),
		spots:        make(map[int64]models.Spot),
		reservations: make(map[int64]models.Reservation),
		nextLot:      1,
		nextSpot:     1,
		nextRes:      1,
	}}
}

func (m *memStore) WithinTx(_ context.Context, fn func(tx repository.ReservationTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.state.clone()
	if err := fn(&memTx{state: &m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memStore) CreateWithSpots(_ context.Context, lot *models.Lot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lot.ID = m.state.nextLot
	m.state.nextLot++
	lot.CreatedAt = time.Now().UTC()
	m.state.lots[lot.ID] = *lot
	for i := 1; i <= lot.MaxSpots; i++ {
		id := m.state.nextSpot
		m.state.nextSpot++
		m.state.spots[id] = models.Spot{ID: id, LotID: lot.ID, SpotNumber: strconv.Itoa(i), Status: models.SpotAvailable}
	}
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*models.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lot, ok := m.state.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lot, nil
}

func (m *memStore) Update(_ context.Context, lot *models.Lot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.state.lots[lot.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name, stored.Address, stored.PinCode, stored.PricePerHour = lot.Name, lot.Address, lot.PinCode, lot.PricePerHour
	m.state.lots[lot.ID] = stored
	*lot = stored
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.lots[id]; !ok {
		return repository.ErrNotFound
	}
	for _, spot := range m.state.spots {
		if spot.LotID == id && spot.Status == models.SpotOccupied {
			return repository.ErrLotOccupied
		}
	}
	for spotID, spot := range m.state.spots {
		if spot.LotID != id {
			continue
		}
		for resID, res := range m.state.reservations {
			if res.SpotID == spotID {
				delete(m.state.reservations, resID)
			}
		}
		delete(m.state.spots, spotID)
	}
	delete(m.state.lots, id)
	return nil
}

func (m *memStore) ListWithCounts(_ context.Context) ([]models.LotSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := make([]models.LotSummary, 0, len(m.state.lots))
	for _, lot := range m.state.lots {
		summaries = append(summaries, models.LotSummary{Lot: lot, Counts: m.state.counts(lot.ID)})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Lot.ID < summaries[j].Lot.ID })
	return summaries, nil
}

func (m *memStore) Counts(_ context.Context, lotID int64) (models.SpotCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.counts(lotID), nil
}

func (m *memStore) ActiveView(_ context.Context, userID int64) (*models.ReservationView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, res := range m.state.reservations {
		if res.UserID == userID && res.Active() {
			return m.state.view(res), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) History(_ context.Context, userID int64) ([]models.ReservationView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := make([]models.ReservationView, 0)
	for _, res := range m.state.reservations {
		if res.UserID == userID && !res.Active() {
			history = append(history, *m.state.view(res))
		}
	}
	sort.Slice(history, func(i, j int) bool {
		if !history[i].ParkingTimestamp.Equal(history[j].ParkingTimestamp) {
			return history[i].ParkingTimestamp.After(history[j].ParkingTimestamp)
		}
		return history[i].ID > history[j].ID
	})
	return history, nil
}

// activeBySpot counts active reservations per spot.
func (m *memStore) activeBySpot() map[int64]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]int)
	for _, res := range m.state.reservations {
		if res.Active() {
			out[res.SpotID]++
		}
	}
	return out
}

func (m *memStore) spotsOf(lotID int64) []models.Spot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var spots []models.Spot
	for _, spot := range m.state.spots {
		if spot.LotID == lotID {
			spots = append(spots, spot)
		}
	}
	sort.Slice(spots, func(i, j int) bool { return spots[i].ID < spots[j].ID })
	return spots
}

func (m *memStore) reservationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.reservations)
}

func (s *memState) counts(lotID int64) models.SpotCounts {
	var counts models.SpotCounts
	for _, spot := range s.spots {
		if spot.LotID == lotID {
			counts.Add(spot.Status, 1)
		}
	}
	return counts
}

func (s *memState) view(res models.Reservation) *models.ReservationView {
	spot := s.spots[res.SpotID]
	lot := s.lots[spot.LotID]
	return &models.ReservationView{
		Reservation:  res,
		LotID:        lot.ID,
		LotName:      lot.Name,
		SpotNumber:   spot.SpotNumber,
		PricePerHour: lot.PricePerHour,
	}
}

type memTx struct {
	state *memState
}

func (t *memTx) LockLot(_ context.Context, lotID int64) (*models.Lot, error) {
	lot, ok := t.state.lots[lotID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lot, nil
}

func (t *memTx) ActiveForUser(_ context.Context, userID int64) (*models.ReservationView, error) {
	for _, res := range t.state.reservations {
		if res.UserID == userID && res.Active() {
			return t.state.view(res), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *memTx) FirstAvailableSpot(_ context.Context, lotID int64) (*models.Spot, error) {
	var best *models.Spot
	for _, spot := range t.state.spots {
		if spot.LotID != lotID || spot.Status != models.SpotAvailable {
			continue
		}
		if best == nil || spot.ID < best.ID {
			s := spot
			best = &s
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (t *memTx) SetSpotStatus(_ context.Context, spotID int64, status models.SpotStatus) error {
	spot, ok := t.state.spots[spotID]
	if !ok || spot.Status == status {
		return repository.ErrSpotStateConflict
	}
	spot.Status = status
	t.state.spots[spotID] = spot
	return nil
}

func (t *memTx) Insert(_ context.Context, reservation *models.Reservation) error {
	for _, res := range t.state.reservations {
		if res.Active() && (res.UserID == reservation.UserID || res.SpotID == reservation.SpotID) {
			return repository.ErrActiveReservationExists
		}
	}
	reservation.ID = t.state.nextRes
	t.state.nextRes++
	t.state.reservations[reservation.ID] = *reservation
	return nil
}

func (t *memTx) UpdateParkingTimestamp(_ context.Context, reservationID int64, at time.Time) error {
	res, ok := t.state.reservations[reservationID]
	if !ok || !res.Active() {
		return repository.ErrNotFound
	}
	res.ParkingTimestamp = at
	t.state.reservations[reservationID] = res
	return nil
}

func (t *memTx) Close(_ context.Context, reservationID int64, leftAt time.Time, cost float64) error {
	res, ok := t.state.reservations[reservationID]
	if !ok || !res.Active() {
		return repository.ErrNotFound
	}
	res.LeavingTimestamp = &leftAt
	res.ParkingCost = &cost
	t.state.reservations[reservationID] = res
	return nil
}

func (t *memTx) SpotCounts(_ context.Context, lotID int64) (models.SpotCounts, error) {
	return t.state.counts(lotID), nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (f *fakeSessionStore) Save(_ context.Context, session models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, redisstore.ErrSessionNotFound
	}
	return &session, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func isValidation(err error, field string) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && strings.EqualFold(verr.Field, field)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
