package helpers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"golang.org/x/crypto/bcrypt"
)

const (
	LogoFolder = "busline/branding"
)

var (
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasNumber  = regexp.MustCompile(`\d`)
	hasSpecial = regexp.MustCompile(`[@$!%*?&#._-]`)
)

func StringTrim(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'")
}

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	return hasLower.MatchString(password) &&
		hasUpper.MatchString(password) &&
		hasNumber.MatchString(password) &&
		hasSpecial.MatchString(password)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// UploadImage sends a remote URL or data URI to Cloudinary and returns its secure URL.
func UploadImage(ctx context.Context, cld *cloudinary.Cloudinary, source string, folder string) (string, error) {
	if cld == nil {
		return "", fmt.Errorf("image uploads are not configured")
	}
	if strings.TrimSpace(source) == "" {
		return "", fmt.Errorf("image source is empty")
	}

	uploadResult, err := cld.Upload.Upload(ctx, source, uploader.UploadParams{
		Folder: folder,
		Tags:   []string{"busline"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("failed to upload image: %s", uploadResult.Error.Message)
	}
	return uploadResult.SecureURL, nil
}
