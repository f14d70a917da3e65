package helpers

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// EnhancedClaims is the verified token plus the profile loaded for this request.
type EnhancedClaims struct {
	*CustomClaims
	Role   string `json:"role"`
	UserID string `json:"id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Helper methods for role checking
func (ec *EnhancedClaims) IsAdmin() bool {
	return ec.Role == RoleAdmin
}

func (ec *EnhancedClaims) ObjectID() (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(ec.UserID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid user ID in token: %w", err)
	}
	return id, nil
}
