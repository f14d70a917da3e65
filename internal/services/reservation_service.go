package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/busline/internal/models"
	"github.com/joshua-takyi/busline/internal/realtime"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventPublisher pushes a change notification to connected clients.
type EventPublisher interface {
	Publish(event string, data interface{})
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID  primitive.ObjectID
	IsAdmin bool
}

type BookingRequest struct {
	TripID     primitive.ObjectID
	Seats      []int
	TravelDate *time.Time
}

type ReservationService struct {
	reservations  models.ReservationRepo
	trips         models.TripRepo
	settings      models.SettingsRepo
	notifications *NotificationService
	events        EventPublisher
	logger        *slog.Logger
	now           func() time.Time
}

func NewReservationService(
	reservations models.ReservationRepo,
	trips models.TripRepo,
	settings models.SettingsRepo,
	notifications *NotificationService,
	events EventPublisher,
	logger *slog.Logger,
) *ReservationService {
	return &ReservationService{
		reservations:  reservations,
		trips:         trips,
		settings:      settings,
		notifications: notifications,
		events:        events,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func checkSeatList(seats []int) error {
	if len(seats) == 0 {
		return invalid("at least one seat is required")
	}
	if len(seats) > models.MaxSeatCount {
		return invalid("cannot book more than %d seats at once", models.MaxSeatCount)
	}
	seen := make(map[int]struct{}, len(seats))
	for _, s := range seats {
		if s < 1 {
			return invalid("seat %d is not a valid seat number", s)
		}
		if _, dup := seen[s]; dup {
			return invalid("seat %d is requested more than once", s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

func seatsOf(reservations []*models.Reservation) []int {
	seats := make([]int, 0, len(reservations))
	for _, r := range reservations {
		seats = append(seats, r.Seat)
	}
	return seats
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Book reserves every requested seat on the trip or none of them.
func (rs *ReservationService) Book(ctx context.Context, actor Actor, req BookingRequest) ([]*models.Reservation, error) {
	if err := checkSeatList(req.Seats); err != nil {
		return nil, err
	}

	settings, err := rs.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.BookingOpen {
		return nil, ErrBookingClosed
	}

	trip, err := rs.trips.GetTripByID(ctx, req.TripID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("trip %w", ErrNotFound)
		}
		return nil, err
	}
	if !trip.IsActive() {
		return nil, invalid("this trip is not open for booking")
	}
	for _, s := range req.Seats {
		if s > trip.SeatCount {
			return nil, invalid("seat %d does not exist on this trip (1-%d)", s, trip.SeatCount)
		}
	}

	taken, err := rs.reservations.FindActiveBySeats(ctx, trip.ID, req.Seats)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, newSeatConflict(seatsOf(taken))
	}

	travelDate := rs.now()
	switch {
	case req.TravelDate != nil:
		travelDate = *req.TravelDate
	case trip.DepartureDate != nil:
		travelDate = *trip.DepartureDate
	}
	travelDate = dateOnly(travelDate)

	now := rs.now()
	snapshot := models.SnapshotOf(trip)
	batch := make([]*models.Reservation, 0, len(req.Seats))
	for _, s := range req.Seats {
		r := &models.Reservation{
			UserID:     actor.UserID,
			Trip:       snapshot,
			Seat:       s,
			TravelDate: travelDate,
			Status:     models.StatusConfirmed,
		}
		r.BeforeCreate(now)
		batch = append(batch, r)
	}

	if err := rs.reservations.InsertReservations(ctx, batch); err != nil {
		if !errors.Is(err, models.ErrDuplicateSeat) {
			return nil, err
		}
		// Lost a race with a concurrent booking; report what is held now.
		taken, qerr := rs.reservations.FindActiveBySeats(ctx, trip.ID, req.Seats)
		if qerr != nil || len(taken) == 0 {
			return nil, newSeatConflict(req.Seats)
		}
		return nil, newSeatConflict(seatsOf(taken))
	}

	for _, r := range batch {
		rs.events.Publish(realtime.EventReservationCreated, r)
	}
	rs.logger.Info("seats reserved",
		"trip_id", trip.ID.Hex(),
		"user_id", actor.UserID.Hex(),
		"seats", req.Seats,
	)
	return batch, nil
}

func (rs *ReservationService) ListMine(ctx context.Context, actor Actor) ([]*models.Reservation, error) {
	return rs.reservations.ListReservations(ctx, models.ReservationFilter{UserID: &actor.UserID})
}

func (rs *ReservationService) ListAll(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	return rs.reservations.ListReservations(ctx, filter)
}

// ReservedSeats lists the seat numbers currently held on a trip.
func (rs *ReservationService) ReservedSeats(ctx context.Context, tripID primitive.ObjectID) ([]int, error) {
	return rs.reservations.ReservedSeats(ctx, tripID)
}

func (rs *ReservationService) load(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Reservation, error) {
	r, err := rs.reservations.GetReservationByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("reservation %w", ErrNotFound)
		}
		return nil, err
	}
	if !actor.IsAdmin && r.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return r, nil
}

// transition applies confirmed -> to. Validated and cancelled are terminal.
func (rs *ReservationService) transition(ctx context.Context, r *models.Reservation, to models.ReservationStatus) (*models.Reservation, error) {
	if r.Status != models.StatusConfirmed {
		return nil, fmt.Errorf("%w: reservation is already %s", ErrInvalidTransition, r.Status)
	}
	updated, err := rs.reservations.TransitionStatus(ctx, r.ID, models.StatusConfirmed, to)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		// Someone else moved it first.
		current, gerr := rs.reservations.GetReservationByID(ctx, r.ID)
		if gerr != nil {
			return nil, fmt.Errorf("reservation %w", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: reservation is already %s", ErrInvalidTransition, current.Status)
	}

	rs.events.Publish(realtime.EventReservationUpdated, map[string]interface{}{
		"id":     updated.ID.Hex(),
		"status": updated.Status,
	})
	return updated, nil
}

// Cancel releases the seat. The owner or an admin may cancel a confirmed reservation.
func (rs *ReservationService) Cancel(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Reservation, error) {
	r, err := rs.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if r.Status == models.StatusValidated {
		return nil, fmt.Errorf("%w: a validated reservation cannot be cancelled", ErrInvalidTransition)
	}
	updated, err := rs.transition(ctx, r, models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	rs.notifications.Record(ctx, actor.UserID, models.LogReservationCancel,
		"reservation for seat %d on %s -> %s cancelled", updated.Seat, updated.Trip.Origin, updated.Trip.Destination)
	return updated, nil
}

// Validate marks a confirmed reservation as boarded. Admins only.
func (rs *ReservationService) Validate(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Reservation, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	r, err := rs.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	updated, err := rs.transition(ctx, r, models.StatusValidated)
	if err != nil {
		return nil, err
	}
	rs.notifications.Record(ctx, actor.UserID, models.LogReservationValidate,
		"reservation for seat %d on %s -> %s validated", updated.Seat, updated.Trip.Origin, updated.Trip.Destination)
	return updated, nil
}

// Delete removes a reservation that has not been validated.
func (rs *ReservationService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	r, err := rs.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if r.Status == models.StatusValidated {
		return fmt.Errorf("%w: a validated reservation cannot be deleted", ErrInvalidTransition)
	}
	if err := rs.reservations.DeleteReservation(ctx, r.ID); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		// validated after it was loaded, or already gone
		current, getErr := rs.reservations.GetReservationByID(ctx, r.ID)
		if getErr == nil && current.Status == models.StatusValidated {
			return fmt.Errorf("%w: a validated reservation cannot be deleted", ErrInvalidTransition)
		}
		return fmt.Errorf("reservation %w", ErrNotFound)
	}
	rs.events.Publish(realtime.EventReservationDeleted, map[string]string{"id": r.ID.Hex()})
	return nil
}
