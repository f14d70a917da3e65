package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshua-takyi/busline/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	seatsPerRow = 5
	aisleColumn = 2
)

// TripUpdate carries the editable trip fields. Nil fields are left untouched.
type TripUpdate struct {
	Company       *string  `json:"company,omitempty"`
	Origin        *string  `json:"origin,omitempty"`
	Destination   *string  `json:"destination,omitempty"`
	DepartureTime *string  `json:"departure_time,omitempty"`
	ArrivalTime   *string  `json:"arrival_time,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	SeatCount     *int     `json:"seat_count,omitempty"`
	VehicleType   *string  `json:"vehicle_type,omitempty"`
	Active        *bool    `json:"active,omitempty"`
}

// SeatCell is one position of the seat grid. Aisle cells carry no seat.
type SeatCell struct {
	Seat     int  `json:"seat,omitempty"`
	Aisle    bool `json:"aisle,omitempty"`
	Reserved bool `json:"reserved"`
}

type SeatLayout struct {
	TripID    string       `json:"trip_id"`
	SeatCount int          `json:"seat_count"`
	Reserved  []int        `json:"reserved"`
	Available int          `json:"available"`
	Rows      [][]SeatCell `json:"rows"`
}

type TripService struct {
	trips         models.TripRepo
	reservations  models.ReservationRepo
	notifications *NotificationService
}

func NewTripService(trips models.TripRepo, reservations models.ReservationRepo, notifications *NotificationService) *TripService {
	return &TripService{trips: trips, reservations: reservations, notifications: notifications}
}

func (ts *TripService) Create(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	trip.ID = primitive.NilObjectID
	trip.ApplyDefaults()
	if err := models.Validate.Struct(trip); err != nil {
		return nil, invalid("invalid trip data provided: %v", err)
	}
	return ts.trips.CreateTrip(ctx, trip)
}

func (ts *TripService) Get(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	trip, err := ts.trips.GetTripByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("trip %w", ErrNotFound)
	}
	return trip, err
}

func (ts *TripService) List(ctx context.Context, filter models.TripFilter) ([]*models.Trip, error) {
	return ts.trips.ListTrips(ctx, filter)
}

// Update applies the given fields after validating the merged trip.
func (ts *TripService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, upd TripUpdate) (*models.Trip, error) {
	current, err := ts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *current
	fields := bson.M{}
	if upd.Company != nil {
		merged.Company = strings.TrimSpace(*upd.Company)
		fields["company"] = merged.Company
	}
	if upd.Origin != nil {
		merged.Origin = strings.TrimSpace(*upd.Origin)
		fields["origin"] = merged.Origin
	}
	if upd.Destination != nil {
		merged.Destination = strings.TrimSpace(*upd.Destination)
		fields["destination"] = merged.Destination
	}
	if upd.DepartureTime != nil {
		merged.DepartureTime = *upd.DepartureTime
		fields["departure_time"] = merged.DepartureTime
	}
	if upd.ArrivalTime != nil {
		merged.ArrivalTime = *upd.ArrivalTime
		fields["arrival_time"] = merged.ArrivalTime
	}
	if upd.Price != nil {
		merged.Price = *upd.Price
		fields["price"] = merged.Price
	}
	if upd.SeatCount != nil {
		merged.SeatCount = *upd.SeatCount
		fields["seat_count"] = merged.SeatCount
	}
	if upd.VehicleType != nil {
		merged.VehicleType = *upd.VehicleType
		fields["vehicle_type"] = merged.VehicleType
	}
	if upd.Active != nil {
		merged.Active = upd.Active
		fields["active"] = *upd.Active
	}
	if len(fields) == 0 {
		return nil, invalid("no fields to update")
	}
	if err := models.Validate.Struct(&merged); err != nil {
		return nil, invalid("invalid trip data provided: %v", err)
	}

	if upd.SeatCount != nil && *upd.SeatCount < current.SeatCount {
		held, err := ts.reservations.ReservedSeats(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, s := range held {
			if s > *upd.SeatCount {
				return nil, invalid("seat %d is reserved; seat count cannot drop below it", s)
			}
		}
	}

	updated, err := ts.trips.UpdateTrip(ctx, id, fields)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("trip %w", ErrNotFound)
		}
		return nil, err
	}
	ts.notifications.Record(ctx, actor.UserID, models.LogTripUpdate,
		"trip %s -> %s (%s) updated", updated.Origin, updated.Destination, updated.DepartureTime)
	return updated, nil
}

func (ts *TripService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	trip, err := ts.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ts.trips.DeleteTrip(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("trip %w", ErrNotFound)
		}
		return err
	}
	ts.notifications.Record(ctx, actor.UserID, models.LogTripDelete,
		"trip %s -> %s (%s) deleted", trip.Origin, trip.Destination, trip.DepartureTime)
	return nil
}

// Seats returns the trip's seat grid with held seats marked.
func (ts *TripService) Seats(ctx context.Context, id primitive.ObjectID) (*SeatLayout, error) {
	trip, err := ts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	held, err := ts.reservations.ReservedSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	layout := BuildSeatLayout(trip.SeatCount, held)
	layout.TripID = trip.ID.Hex()
	return layout, nil
}

// BuildSeatLayout lays seats out two on the left, an aisle, three on the right.
func BuildSeatLayout(seatCount int, reserved []int) *SeatLayout {
	if seatCount > models.MaxSeatCount {
		seatCount = models.MaxSeatCount
	}
	if seatCount < 0 {
		seatCount = 0
	}
	held := make(map[int]struct{}, len(reserved))
	for _, s := range reserved {
		held[s] = struct{}{}
	}

	layout := &SeatLayout{SeatCount: seatCount, Reserved: make([]int, 0, len(reserved))}
	seat := 1
	for seat <= seatCount {
		row := make([]SeatCell, 0, seatsPerRow+1)
		for col := 0; col < seatsPerRow && seat <= seatCount; col++ {
			if col == aisleColumn {
				row = append(row, SeatCell{Aisle: true})
			}
			_, taken := held[seat]
			row = append(row, SeatCell{Seat: seat, Reserved: taken})
			if taken {
				layout.Reserved = append(layout.Reserved, seat)
			}
			seat++
		}
		layout.Rows = append(layout.Rows, row)
	}
	layout.Available = seatCount - len(layout.Reserved)
	return layout
}
