package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

// ErrNotFound is returned by repository lookups that match no document.
var ErrNotFound = errors.New("document not found")

const (
	TripsColName        = "trips"
	ReservationsColName = "reservations"
	UsersColName        = "users"
	LogsColName         = "logs"
	SettingsColName     = "settings"
)

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

// EnsureIndexes creates the indexes every collection relies on. It is safe to
// call on each start.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	if err := mdb.ensureUserIndexes(ctx); err != nil {
		return err
	}
	if err := mdb.ensureReservationIndexes(ctx); err != nil {
		return err
	}
	if err := mdb.ensureLogIndexes(ctx); err != nil {
		return err
	}
	return mdb.ensureTripIndexes(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
