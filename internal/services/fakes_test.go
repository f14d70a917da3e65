package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/joshua-takyi/busline/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeReservations struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Reservation
	// raceSeats are treated as taken by a concurrent insert the first time
	// InsertReservations sees them.
	raceSeats []int
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{byID: make(map[primitive.ObjectID]*models.Reservation)}
}

func (f *fakeReservations) FindActiveBySeats(_ context.Context, tripID primitive.ObjectID, seats []int) ([]*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[int]bool, len(seats))
	for _, s := range seats {
		want[s] = true
	}
	var out []*models.Reservation
	for _, r := range f.byID {
		if r.Trip.TripID == tripID && want[r.Seat] && r.Status.HoldsSeat() {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReservations) InsertReservations(_ context.Context, batch []*models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.raceSeats) > 0 {
		for _, s := range f.raceSeats {
			r := &models.Reservation{
				ID:     primitive.NewObjectID(),
				UserID: primitive.NewObjectID(),
				Trip:   batch[0].Trip,
				Seat:   s,
				Status: models.StatusConfirmed,
				Active: true,
			}
			f.byID[r.ID] = r
		}
		f.raceSeats = nil
		return models.ErrDuplicateSeat
	}
	for _, r := range batch {
		for _, existing := range f.byID {
			if existing.Active && existing.Trip.TripID == r.Trip.TripID && existing.Seat == r.Seat {
				return models.ErrDuplicateSeat
			}
		}
	}
	for _, r := range batch {
		cp := *r
		f.byID[r.ID] = &cp
	}
	return nil
}

func (f *fakeReservations) GetReservationByID(_ context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservations) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to models.ReservationStatus) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok || r.Status != from {
		return nil, models.ErrNotFound
	}
	r.Status = to
	r.Active = to.HoldsSeat()
	r.UpdatedAt = time.Now().UTC()
	cp := *r
	return &cp, nil
}

func (f *fakeReservations) DeleteReservation(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok || r.Status == models.StatusValidated {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeReservations) ListReservations(_ context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Reservation, 0)
	for _, r := range f.byID {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.TripID != nil && r.Trip.TripID != *filter.TripID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out, nil
}

func (f *fakeReservations) ReservedSeats(_ context.Context, tripID primitive.ObjectID) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seats := make([]int, 0)
	for _, r := range f.byID {
		if r.Trip.TripID == tripID && r.Status.HoldsSeat() {
			seats = append(seats, r.Seat)
		}
	}
	sort.Ints(seats)
	return seats, nil
}

type fakeTrips struct {
	byID map[primitive.ObjectID]*models.Trip
}

func newFakeTrips(trips ...*models.Trip) *fakeTrips {
	f := &fakeTrips{byID: make(map[primitive.ObjectID]*models.Trip)}
	for _, t := range trips {
		f.byID[t.ID] = t
	}
	return f
}

func (f *fakeTrips) CreateTrip(_ context.Context, trip *models.Trip) (*models.Trip, error) {
	if err := trip.BeforeCreate(); err != nil {
		return nil, err
	}
	f.byID[trip.ID] = trip
	return trip, nil
}

func (f *fakeTrips) GetTripByID(_ context.Context, id primitive.ObjectID) (*models.Trip, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTrips) ListTrips(_ context.Context, _ models.TripFilter) ([]*models.Trip, error) {
	out := make([]*models.Trip, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTrips) UpdateTrip(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Trip, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if v, ok := fields["price"].(float64); ok {
		t.Price = v
	}
	if v, ok := fields["seat_count"].(int); ok {
		t.SeatCount = v
	}
	if v, ok := fields["active"].(bool); ok {
		t.Active = &v
	}
	if v, ok := fields["origin"].(string); ok {
		t.Origin = v
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTrips) DeleteTrip(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeSettings struct {
	current *models.Settings
}

func (f *fakeSettings) GetSettings(context.Context) (*models.Settings, error) {
	if f.current == nil {
		return models.DefaultSettings(), nil
	}
	cp := *f.current
	return &cp, nil
}

func (f *fakeSettings) SaveSettings(_ context.Context, s *models.Settings) (*models.Settings, error) {
	cp := *s
	f.current = &cp
	return s, nil
}

type fakeLogs struct {
	mu      sync.Mutex
	entries []*models.ActivityLog
}

func (f *fakeLogs) InsertLog(_ context.Context, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLogs) ListLogs(_ context.Context, filter models.LogFilter) ([]*models.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.ActivityLog, 0)
	for _, e := range f.entries {
		if filter.UnreadOnly && e.Read {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && int64(len(out)) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeLogs) MarkLogRead(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			e.Read = true
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeLogs) MarkAllLogsRead(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.entries {
		if !e.Read {
			e.Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeLogs) types() []models.LogType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LogType, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Type)
	}
	return out
}

type fakeUsers struct {
	byID map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUsers) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == models.NormalizeEmail(user.Email) {
			return nil, models.ErrEmailTaken
		}
	}
	if err := user.BeforeCreate(); err != nil {
		return nil, err
	}
	user.Email = models.NormalizeEmail(user.Email)
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == models.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUsers) ListUsers(context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if v, ok := fields["name"].(string); ok {
		u.Name = v
	}
	if v, ok := fields["email"].(string); ok {
		for otherID, other := range f.byID {
			if otherID != id && other.Email == v {
				return nil, models.ErrEmailTaken
			}
		}
		u.Email = v
	}
	if v, ok := fields["password"].(string); ok {
		u.Password = v
	}
	if v, ok := fields["is_admin"].(bool); ok {
		u.IsAdmin = v
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	_, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeRevoker struct {
	revoked map[string]time.Duration
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if f.revoked == nil {
		f.revoked = make(map[string]time.Duration)
	}
	f.revoked[tokenID] = ttl
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := f.revoked[tokenID]
	return ok, nil
}

type publishedEvent struct {
	Event string
	Data  interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Event: event, Data: data})
}

func (p *recordingPublisher) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Event == event {
			n++
		}
	}
	return n
}
