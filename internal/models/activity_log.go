package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LogType string

const (
	LogLogin               LogType = "login"
	LogTripUpdate          LogType = "trip_update"
	LogTripDelete          LogType = "trip_delete"
	LogReservationCancel   LogType = "reservation_cancel"
	LogReservationValidate LogType = "reservation_validate"

	// LogRetention bounds how long activity entries are kept.
	LogRetention = 90 * 24 * time.Hour
)

type ActivityLog struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Type        LogType            `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`
	Read        bool               `bson:"read" json:"read"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time          `bson:"expires_at" json:"-"` // TTL index field
}

type LogFilter struct {
	UnreadOnly bool
	Limit      int64
}

type ActivityLogRepo interface {
	InsertLog(ctx context.Context, entry *ActivityLog) error
	ListLogs(ctx context.Context, filter LogFilter) ([]*ActivityLog, error)
	MarkLogRead(ctx context.Context, id primitive.ObjectID) error
	MarkAllLogsRead(ctx context.Context) (int64, error)
}

func (mdb *MongodbRepo) ensureLogIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(LogsColName)
	if err != nil {
		return err
	}
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(0). // Expire at the time specified in expires_at
				SetName("expires_at_ttl"),
		},
		{
			Keys:    bson.D{{Key: "read", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("read_created"),
		},
	}
	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating log indexes: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) InsertLog(ctx context.Context, entry *ActivityLog) error {
	col, err := mdb.GetCollection(LogsColName)
	if err != nil {
		return err
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.ExpiresAt = entry.CreatedAt.Add(LogRetention)

	if _, err := col.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) ListLogs(ctx context.Context, filter LogFilter) ([]*ActivityLog, error) {
	col, err := mdb.GetCollection(LogsColName)
	if err != nil {
		return nil, err
	}
	query := bson.M{}
	if filter.UnreadOnly {
		query["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding logs: %w", err)
	}
	defer cursor.Close(ctx)

	logs := make([]*ActivityLog, 0)
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("error decoding logs: %w", err)
	}
	return logs, nil
}

func (mdb *MongodbRepo) MarkLogRead(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(LogsColName)
	if err != nil {
		return err
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("failed to mark log read: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (mdb *MongodbRepo) MarkAllLogsRead(ctx context.Context) (int64, error) {
	col, err := mdb.GetCollection(LogsColName)
	if err != nil {
		return 0, err
	}
	res, err := col.UpdateMany(ctx, bson.M{"read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark logs read: %w", err)
	}
	return res.ModifiedCount, nil
}
