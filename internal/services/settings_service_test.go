package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/busline/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSettingsSaveKeepsLogo(t *testing.T) {
	repo := &fakeSettings{current: &models.Settings{
		CompanyName: "Kocrou Transport",
		Currency:    "XOF",
		LogoURL:     "https://res.cloudinary.com/demo/image/upload/logo.png",
		BookingOpen: true,
	}}
	svc := NewSettingsService(repo, nil)

	saved, err := svc.Save(context.Background(), &models.Settings{CompanyName: " Kocrou ", Currency: "xof"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.CompanyName != "Kocrou" || saved.Currency != "XOF" {
		t.Errorf("not normalized: %+v", saved)
	}
	if saved.LogoURL == "" {
		t.Error("logo should be kept")
	}
	if saved.BookingOpen {
		t.Error("booking switch should follow the request")
	}

	var ve *ValidationError
	if _, err := svc.Save(context.Background(), &models.Settings{CompanyName: "X", Currency: "FCFA"}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for currency, got %v", err)
	}
}

func TestUploadLogoWithoutCloudinary(t *testing.T) {
	svc := NewSettingsService(&fakeSettings{}, nil)
	if _, err := svc.UploadLogo(context.Background(), "https://example.com/logo.png"); !errors.Is(err, ErrUploadsDisabled) {
		t.Fatalf("expected ErrUploadsDisabled, got %v", err)
	}
}

func TestNotifications(t *testing.T) {
	logs := &fakeLogs{}
	svc := NewNotificationService(logs, discardLogger())
	user := primitive.NewObjectID()

	svc.Record(context.Background(), user, models.LogLogin, "%s signed in", "awa@example.com")
	svc.Record(context.Background(), user, models.LogTripDelete, "trip deleted")

	list, err := svc.List(context.Background(), 0, true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Description != "awa@example.com signed in" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := svc.MarkRead(context.Background(), list[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := svc.MarkRead(context.Background(), primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	n, err := svc.MarkAllRead(context.Background())
	if err != nil || n != 1 {
		t.Errorf("MarkAllRead = %d, %v", n, err)
	}
	unread, _ := svc.List(context.Background(), 10, true)
	if len(unread) != 0 {
		t.Errorf("expected no unread, got %d", len(unread))
	}
}
