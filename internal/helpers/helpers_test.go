package helpers

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIsPasswordStrong(t *testing.T) {
	cases := map[string]bool{
		"short1!":      false,
		"alllowercase": false,
		"NoDigits!!":   false,
		"NoSpecial123": false,
		"Good#Pass123": true,
		"Tr1p@bidjan":  true,
	}
	for pw, want := range cases {
		if got := IsPasswordStrong(pw); got != want {
			t.Errorf("IsPasswordStrong(%q) = %v, want %v", pw, got, want)
		}
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Good#Pass123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Good#Pass123" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPassword(hash, "Good#Pass123") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestStringTrim(t *testing.T) {
	if got := StringTrim(`  "665f1c2e9b1d4a3f8c0e1a2b" `); got != "665f1c2e9b1d4a3f8c0e1a2b" {
		t.Errorf("StringTrim = %q", got)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret-test-secret-test-secret", time.Hour)

	signed, issued, err := tm.Issue("665f1c2e9b1d4a3f8c0e1a2b", "awa@example.com", true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.ID == "" {
		t.Fatal("expected a token id")
	}

	claims, err := tm.ValidateToken(signed)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "665f1c2e9b1d4a3f8c0e1a2b" || claims.Email != "awa@example.com" || !claims.Admin {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if r := claims.Remaining(); r <= 0 || r > time.Hour {
		t.Errorf("Remaining = %v", r)
	}
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	a := NewTokenManager("secret-a", time.Hour)
	b := NewTokenManager("secret-b", time.Hour)

	signed, _, err := a.Issue("665f1c2e9b1d4a3f8c0e1a2b", "", false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.ValidateToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", -time.Hour)
	signed, _, err := tm.Issue("665f1c2e9b1d4a3f8c0e1a2b", "", false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := tm.ValidateToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestValidateTokenRejectsNone(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	claims := &CustomClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "665f1c2e9b1d4a3f8c0e1a2b",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := tm.ValidateToken(unsigned); err == nil {
		t.Fatal("expected alg=none token to be rejected")
	}
}

func TestValidateTokenRequiresSubject(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	signed, _, err := tm.Issue("", "", false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, err = tm.ValidateToken(signed)
	if err == nil || !strings.Contains(err.Error(), "subject") {
		t.Fatalf("expected missing subject error, got %v", err)
	}
}

func TestEnhancedClaimsRoles(t *testing.T) {
	c := &EnhancedClaims{UserID: "665f1c2e9b1d4a3f8c0e1a2b", Role: RoleAdmin}
	if !c.IsAdmin() {
		t.Error("expected admin")
	}
	if (&EnhancedClaims{Role: RoleUser}).IsAdmin() {
		t.Error("user role reported as admin")
	}
	if _, err := c.ObjectID(); err != nil {
		t.Errorf("ObjectID: %v", err)
	}
	if _, err := (&EnhancedClaims{UserID: "nope"}).ObjectID(); err == nil {
		t.Error("expected invalid hex id to fail")
	}
}
