package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusValidated ReservationStatus = "validated"
	StatusCancelled ReservationStatus = "cancelled"
)

// ErrDuplicateSeat is returned when the active-seat unique index rejects an insert.
var ErrDuplicateSeat = errors.New("seat already reserved")

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusValidated, StatusCancelled:
		return true
	}
	return false
}

// HoldsSeat reports whether a reservation in this status occupies its seat.
func (s ReservationStatus) HoldsSeat() bool {
	return s == StatusConfirmed || s == StatusValidated
}

// TripSnapshot is the copy of trip fields taken when the reservation is made.
type TripSnapshot struct {
	TripID        primitive.ObjectID `bson:"trip_id" json:"trip_id"`
	Company       string             `bson:"company" json:"company"`
	Origin        string             `bson:"origin" json:"origin"`
	Destination   string             `bson:"destination" json:"destination"`
	DepartureTime string             `bson:"departure_time" json:"departure_time"`
	ArrivalTime   string             `bson:"arrival_time,omitempty" json:"arrival_time,omitempty"`
	Price         float64            `bson:"price" json:"price"`
}

func SnapshotOf(t *Trip) TripSnapshot {
	return TripSnapshot{
		TripID:        t.ID,
		Company:       t.Company,
		Origin:        t.Origin,
		Destination:   t.Destination,
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
		Price:         t.Price,
	}
}

type Reservation struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Trip       TripSnapshot       `bson:"trip" json:"trip"`
	Seat       int                `bson:"seat" json:"seat"`
	TravelDate time.Time          `bson:"travel_date" json:"travel_date"`
	Status     ReservationStatus  `bson:"status" json:"status"`
	// Active mirrors Status.HoldsSeat and backs the partial unique index.
	Active    bool      `bson:"active" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type ReservationFilter struct {
	UserID *primitive.ObjectID
	TripID *primitive.ObjectID
	Status ReservationStatus
	From   *time.Time
	To     *time.Time
}

type ReservationRepo interface {
	FindActiveBySeats(ctx context.Context, tripID primitive.ObjectID, seats []int) ([]*Reservation, error)
	InsertReservations(ctx context.Context, reservations []*Reservation) error
	GetReservationByID(ctx context.Context, id primitive.ObjectID) (*Reservation, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to ReservationStatus) (*Reservation, error)
	DeleteReservation(ctx context.Context, id primitive.ObjectID) error
	ListReservations(ctx context.Context, filter ReservationFilter) ([]*Reservation, error)
	ReservedSeats(ctx context.Context, tripID primitive.ObjectID) ([]int, error)
}

func (r *Reservation) BeforeCreate(now time.Time) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.Active = r.Status.HoldsSeat()
	r.CreatedAt = now
	r.UpdatedAt = now
}

func (mdb *MongodbRepo) ensureReservationIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ReservationsColName)
	if err != nil {
		return err
	}
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "trip.trip_id", Value: 1}, {Key: "seat", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}).
				SetName("active_seat_unique"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	}
	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating reservation indexes: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) FindActiveBySeats(ctx context.Context, tripID primitive.ObjectID, seats []int) ([]*Reservation, error) {
	col, err := mdb.GetCollection(ReservationsColName)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		"trip.trip_id": tripID,
		"seat":         bson.M{"$in": seats},
		"status":       bson.M{"$in": bson.A{StatusConfirmed, StatusValidated}},
	}
	cursor, err := col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding reserved seats: %w", err)
	}
	defer cursor.Close(ctx)

	found := make([]*Reservation, 0)
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("error decoding reservations: %w", err)
	}
	return found, nil
}

// InsertReservations writes the batch in order. When the unique index rejects a
// seat, every document of the batch that did get written is removed again and
// ErrDuplicateSeat is returned.
func (mdb *MongodbRepo) InsertReservations(ctx context.Context, reservations []*Reservation) error {
	col, err := mdb.GetCollection(ReservationsColName)
	if err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(reservations))
	ids := make([]primitive.ObjectID, 0, len(reservations))
	for _, r := range reservations {
		docs = append(docs, r)
		ids = append(ids, r.ID)
	}

	_, err = col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert reservations: %w", err)
	}

	if _, delErr := col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); delErr != nil {
		return fmt.Errorf("%w (rollback failed: %v)", ErrDuplicateSeat, delErr)
	}
	return ErrDuplicateSeat
}

func (mdb *MongodbRepo) GetReservationByID(ctx context.Context, id primitive.ObjectID) (*Reservation, error) {
	col, err := mdb.GetCollection(ReservationsColName)
	if err != nil {
		return nil, err
	}
	var r Reservation
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// TransitionStatus moves a reservation from one status to another only if it is
// still in the from status. ErrNotFound means no document matched both.
func (mdb *MongodbRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to ReservationStatus) (*Reservation, error) {
	col, err := mdb.GetCollection(ReservationsColName)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"active":     to.HoldsSeat(),
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r Reservation
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// DeleteReservation removes the reservation unless it has been validated.
// ErrNotFound covers both a missing and a validated reservation.
func (mdb *MongodbRepo) DeleteReservation(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ReservationsColName)
	if err != nil {
		return err
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": id, "status": bson.M{"$ne": StatusValidated}})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (mdb *MongodbRepo) ListReservations(ctx context.Context, filter ReservationFilter) ([]*Reservation, error) {
	col, err := mdb.GetCollection(ReservationsColName)
	if err != nil {
		return nil, err
	}

	query := bson.M{}
	if filter.UserID != nil {
		query["user_id"] = *filter.UserID
	}
	if filter.TripID != nil {
		query["trip.trip_id"] = *filter.TripID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.From != nil || filter.To != nil {
		created := bson.M{}
		if filter.From != nil {
			created["$gte"] = *filter.From
		}
		if filter.To != nil {
			created["$lte"] = *filter.To
		}
		query["created_at"] = created
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := make([]*Reservation, 0)
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("error decoding reservations: %w", err)
	}
	return reservations, nil
}

func (mdb *MongodbRepo) ReservedSeats(ctx context.Context, tripID primitive.ObjectID) ([]int, error) {
	col, err := mdb.GetCollection(ReservationsColName)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		"trip.trip_id": tripID,
		"status":       bson.M{"$in": bson.A{StatusConfirmed, StatusValidated}},
	}
	opts := options.Find().
		SetProjection(bson.M{"seat": 1}).
		SetSort(bson.D{{Key: "seat", Value: 1}})

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding reserved seats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Seat int `bson:"seat"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding reserved seats: %w", err)
	}
	seats := make([]int, 0, len(rows))
	for _, row := range rows {
		seats = append(seats, row.Seat)
	}
	return seats, nil
}
