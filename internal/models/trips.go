package models

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	VehicleMinibus = "minibus"
	VehicleAutocar = "autocar"
	VehicleBusVIP  = "bus VIP"
	VehicleOther   = "autre"

	DefaultSeatCount = 50
	MinSeatCount     = 10
	MaxSeatCount     = 60
	MinTripPrice     = 1000
)

type Trip struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Company       string             `bson:"company" json:"company" validate:"required,max=120"`
	Origin        string             `bson:"origin" json:"origin" validate:"required,max=120"`
	Destination   string             `bson:"destination" json:"destination" validate:"required,max=120,nefield=Origin"`
	DepartureTime string             `bson:"departure_time" json:"departure_time" validate:"required,datetime=15:04"`
	ArrivalTime   string             `bson:"arrival_time,omitempty" json:"arrival_time,omitempty" validate:"omitempty,datetime=15:04"`
	DepartureDate *time.Time         `bson:"departure_date,omitempty" json:"departure_date,omitempty"`
	Price         float64            `bson:"price" json:"price" validate:"required,gte=1000"`
	SeatCount     int                `bson:"seat_count" json:"seat_count" validate:"min=10,max=60"`
	VehicleType   string             `bson:"vehicle_type" json:"vehicle_type" validate:"oneof=minibus autocar 'bus VIP' autre"`
	Active        *bool              `bson:"active" json:"active"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// TripFilter narrows ListTrips. Empty fields match everything.
type TripFilter struct {
	Origin      string
	Destination string
	ActiveOnly  bool
}

type TripRepo interface {
	CreateTrip(ctx context.Context, trip *Trip) (*Trip, error)
	GetTripByID(ctx context.Context, id primitive.ObjectID) (*Trip, error)
	ListTrips(ctx context.Context, filter TripFilter) ([]*Trip, error)
	UpdateTrip(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Trip, error)
	DeleteTrip(ctx context.Context, id primitive.ObjectID) error
}

// ApplyDefaults fills the optional fields the way the booking site expects them.
func (t *Trip) ApplyDefaults() {
	t.Company = strings.TrimSpace(t.Company)
	t.Origin = strings.TrimSpace(t.Origin)
	t.Destination = strings.TrimSpace(t.Destination)
	if t.SeatCount == 0 {
		t.SeatCount = DefaultSeatCount
	}
	if t.VehicleType == "" {
		t.VehicleType = VehicleAutocar
	}
	if t.Active == nil {
		active := true
		t.Active = &active
	}
}

func (t *Trip) IsActive() bool {
	return t.Active == nil || *t.Active
}

func (t *Trip) BeforeCreate() error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

func (mdb *MongodbRepo) ensureTripIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(TripsColName)
	if err != nil {
		return err
	}
	_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "origin", Value: 1}, {Key: "destination", Value: 1}},
		Options: options.Index().SetName("origin_destination"),
	})
	if err != nil {
		return fmt.Errorf("error creating trip indexes: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) CreateTrip(ctx context.Context, trip *Trip) (*Trip, error) {
	if err := trip.BeforeCreate(); err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(TripsColName)
	if err != nil {
		return nil, err
	}
	if _, err := col.InsertOne(ctx, trip); err != nil {
		return nil, fmt.Errorf("failed to insert trip: %w", err)
	}
	return trip, nil
}

func (mdb *MongodbRepo) GetTripByID(ctx context.Context, id primitive.ObjectID) (*Trip, error) {
	col, err := mdb.GetCollection(TripsColName)
	if err != nil {
		return nil, err
	}
	var trip Trip
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&trip); err != nil {
		return nil, notFound(err)
	}
	return &trip, nil
}

// exactInsensitive matches a whole field value ignoring case.
func exactInsensitive(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(value)) + "$", Options: "i"}
}

func (mdb *MongodbRepo) ListTrips(ctx context.Context, filter TripFilter) ([]*Trip, error) {
	col, err := mdb.GetCollection(TripsColName)
	if err != nil {
		return nil, err
	}

	query := bson.M{}
	if filter.Origin != "" {
		query["origin"] = exactInsensitive(filter.Origin)
	}
	if filter.Destination != "" {
		query["destination"] = exactInsensitive(filter.Destination)
	}
	if filter.ActiveOnly {
		query["active"] = bson.M{"$ne": false}
	}

	opts := options.Find().SetSort(bson.D{{Key: "origin", Value: 1}, {Key: "departure_time", Value: 1}})
	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding trips: %w", err)
	}
	defer cursor.Close(ctx)

	trips := make([]*Trip, 0)
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("error decoding trips: %w", err)
	}
	return trips, nil
}

func (mdb *MongodbRepo) UpdateTrip(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Trip, error) {
	col, err := mdb.GetCollection(TripsColName)
	if err != nil {
		return nil, err
	}
	fields["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var trip Trip
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&trip)
	if err != nil {
		return nil, notFound(err)
	}
	return &trip, nil
}

func (mdb *MongodbRepo) DeleteTrip(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(TripsColName)
	if err != nil {
		return err
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
