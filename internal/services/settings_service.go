package services

import (
	"context"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/busline/internal/helpers"
	"github.com/joshua-takyi/busline/internal/models"
)

type SettingsService struct {
	settings models.SettingsRepo
	cld      *cloudinary.Cloudinary
}

// NewSettingsService builds the service. cld may be nil when uploads are not configured.
func NewSettingsService(settings models.SettingsRepo, cld *cloudinary.Cloudinary) *SettingsService {
	return &SettingsService{settings: settings, cld: cld}
}

func (ss *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	return ss.settings.GetSettings(ctx)
}

// Save replaces the settings. An empty logo keeps the stored one.
func (ss *SettingsService) Save(ctx context.Context, in *models.Settings) (*models.Settings, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.LogoURL == "" {
		current, err := ss.settings.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		in.LogoURL = current.LogoURL
	}
	if err := models.Validate.Struct(in); err != nil {
		return nil, invalid("invalid settings provided: %v", err)
	}
	return ss.settings.SaveSettings(ctx, in)
}

// UploadLogo stores an image (remote URL or data URI) and points the settings at it.
func (ss *SettingsService) UploadLogo(ctx context.Context, source string) (*models.Settings, error) {
	if ss.cld == nil {
		return nil, ErrUploadsDisabled
	}
	if strings.TrimSpace(source) == "" {
		return nil, invalid("image is required")
	}
	url, err := helpers.UploadImage(ctx, ss.cld, source, helpers.LogoFolder)
	if err != nil {
		return nil, err
	}

	current, err := ss.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	current.LogoURL = url
	return ss.settings.SaveSettings(ctx, current)
}
