package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Awa.Kone@Example.COM "); got != "awa.kone@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestUserRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create lower-cases email", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := repo.CreateUser(context.Background(), &User{Name: "Awa", Email: "Awa@Example.com"})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if u.Email != "awa@example.com" || u.ID.IsZero() || u.CreatedAt.IsZero() {
			t.Errorf("unexpected user: %+v", u)
		}
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: busline.users index: email_unique",
		}))

		_, err := repo.CreateUser(context.Background(), &User{Name: "Awa", Email: "awa@example.com"})
		if !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	mt.Run("get by email", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "busline.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Awa"},
			{Key: "email", Value: "awa@example.com"},
			{Key: "password", Value: "$2a$10$hash"},
			{Key: "is_admin", Value: true},
		}))

		u, err := repo.GetUserByEmail(context.Background(), "AWA@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail: %v", err)
		}
		if u.ID != id || !u.IsAdmin || u.Password == "" {
			t.Errorf("unexpected user: %+v", u)
		}
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "busline.users", mtest.FirstBatch))

		if _, err := repo.GetUserByID(context.Background(), primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("update without fields", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		if _, err := repo.UpdateUser(context.Background(), primitive.NewObjectID(), bson.M{}); err == nil {
			t.Fatal("expected an error for an empty update")
		}
	})
}

func TestActivityLogRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert sets expiry", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		entry := &ActivityLog{Type: LogLogin, Description: "awa@example.com signed in"}
		if err := repo.InsertLog(context.Background(), entry); err != nil {
			t.Fatalf("InsertLog: %v", err)
		}
		if got := entry.ExpiresAt.Sub(entry.CreatedAt); got != LogRetention {
			t.Errorf("retention = %v", got)
		}
	})

	mt.Run("mark missing log", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		if err := repo.MarkLogRead(context.Background(), primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("mark all", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}, bson.E{Key: "nModified", Value: 3}))

		n, err := repo.MarkAllLogsRead(context.Background())
		if err != nil || n != 3 {
			t.Fatalf("MarkAllLogsRead = %d, %v", n, err)
		}
	})
}

func TestSettingsRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("defaults when unset", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "busline.settings", mtest.FirstBatch))

		s, err := repo.GetSettings(context.Background())
		if err != nil {
			t.Fatalf("GetSettings: %v", err)
		}
		if !s.BookingOpen || s.Currency != "XOF" {
			t.Errorf("unexpected defaults: %+v", s)
		}
	})

	mt.Run("save upserts", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "busline")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		s, err := repo.SaveSettings(context.Background(), &Settings{CompanyName: "Kocrou", Currency: "XOF"})
		if err != nil {
			t.Fatalf("SaveSettings: %v", err)
		}
		if time.Since(s.UpdatedAt) > time.Minute {
			t.Errorf("updated_at not set: %v", s.UpdatedAt)
		}
	})
}

func TestTripDefaults(t *testing.T) {
	trip := &Trip{Company: " UTB ", Origin: "Abidjan", Destination: "Man", DepartureTime: "08:00", Price: 9000}
	trip.ApplyDefaults()
	if trip.Company != "UTB" || trip.SeatCount != DefaultSeatCount || trip.VehicleType != VehicleAutocar || !trip.IsActive() {
		t.Errorf("defaults: %+v", trip)
	}
	if err := Validate.Struct(trip); err != nil {
		t.Errorf("valid trip rejected: %v", err)
	}

	trip.VehicleType = VehicleBusVIP
	if err := Validate.Struct(trip); err != nil {
		t.Errorf("bus VIP rejected: %v", err)
	}
}
