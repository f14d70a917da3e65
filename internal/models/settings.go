package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const siteSettingsID = "site"

type Settings struct {
	CompanyName  string    `bson:"company_name" json:"company_name" validate:"required,max=120"`
	ContactEmail string    `bson:"contact_email,omitempty" json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone string    `bson:"contact_phone,omitempty" json:"contact_phone,omitempty" validate:"omitempty,max=32"`
	Currency     string    `bson:"currency" json:"currency" validate:"required,len=3"`
	LogoURL      string    `bson:"logo_url,omitempty" json:"logo_url,omitempty" validate:"omitempty,url"`
	BookingOpen  bool      `bson:"booking_open" json:"booking_open"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

func DefaultSettings() *Settings {
	return &Settings{
		CompanyName: "Kocrou Transport",
		Currency:    "XOF",
		BookingOpen: true,
	}
}

type SettingsRepo interface {
	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, s *Settings) (*Settings, error)
}

// GetSettings returns the stored settings, or the defaults when none were saved yet.
func (mdb *MongodbRepo) GetSettings(ctx context.Context) (*Settings, error) {
	col, err := mdb.GetCollection(SettingsColName)
	if err != nil {
		return nil, err
	}
	var s Settings
	err = col.FindOne(ctx, bson.M{"_id": siteSettingsID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &s, nil
}

func (mdb *MongodbRepo) SaveSettings(ctx context.Context, s *Settings) (*Settings, error) {
	col, err := mdb.GetCollection(SettingsColName)
	if err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	if _, err := col.ReplaceOne(ctx, bson.M{"_id": siteSettingsID}, s, opts); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return s, nil
}
