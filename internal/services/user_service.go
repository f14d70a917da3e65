package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/busline/internal/helpers"
	"github.com/joshua-takyi/busline/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

type UserUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

// Session is what a successful register or login hands back to the client.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserService struct {
	users            models.UserRepo
	tokens           *helpers.TokenManager
	revoker          models.TokenRevoker
	notifications    *NotificationService
	allowAdminSignup bool
	logger           *slog.Logger
}

func NewUserService(
	users models.UserRepo,
	tokens *helpers.TokenManager,
	revoker models.TokenRevoker,
	notifications *NotificationService,
	allowAdminSignup bool,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:            users,
		tokens:           tokens,
		revoker:          revoker,
		notifications:    notifications,
		allowAdminSignup: allowAdminSignup,
		logger:           logger,
	}
}

func (us *UserService) newUser(ctx context.Context, in RegisterInput, admin bool) (*models.User, error) {
	user := &models.User{
		Name:    strings.TrimSpace(in.Name),
		Email:   models.NormalizeEmail(in.Email),
		IsAdmin: admin,
	}
	if err := models.Validate.Struct(user); err != nil {
		return nil, invalid("invalid user data provided: %v", err)
	}
	if !helpers.IsPasswordStrong(in.Password) {
		return nil, invalid("password must be at least 8 characters and mix upper, lower, digit and symbol")
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	created, err := us.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (us *UserService) session(user *models.User) (*Session, error) {
	token, _, err := us.tokens.Issue(user.ID.Hex(), user.Email, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Register creates an account. The admin flag is honoured only when admin
// signup is enabled.
func (us *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if in.IsAdmin && !us.allowAdminSignup {
		return nil, ErrForbidden
	}
	user, err := us.newUser(ctx, in, in.IsAdmin)
	if err != nil {
		return nil, err
	}
	us.logger.Info("user registered", "user_id", user.ID.Hex(), "is_admin", user.IsAdmin)
	return us.session(user)
}

// CreateAdmin lets an existing admin add another one.
func (us *UserService) CreateAdmin(ctx context.Context, actor Actor, in RegisterInput) (*models.User, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	user, err := us.newUser(ctx, in, true)
	if err != nil {
		return nil, err
	}
	us.logger.Info("admin created", "user_id", user.ID.Hex(), "by", actor.UserID.Hex())
	return user, nil
}

func (us *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := us.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	sess, err := us.session(user)
	if err != nil {
		return nil, err
	}
	us.notifications.Record(ctx, user.ID, models.LogLogin, "%s signed in", user.Email)
	return sess, nil
}

// Logout revokes the token until it would have expired. Without a revoker
// the token simply lives out its lifetime.
func (us *UserService) Logout(ctx context.Context, claims *helpers.CustomClaims) error {
	if us.revoker == nil || claims == nil || claims.ID == "" {
		return nil
	}
	return us.revoker.Revoke(ctx, claims.ID, claims.Remaining())
}

// Authenticate turns a bearer token into request claims, reloading the user
// so role changes apply at once.
func (us *UserService) Authenticate(ctx context.Context, token string) (*helpers.EnhancedClaims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := us.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if us.revoker != nil && claims.ID != "" {
		revoked, err := us.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, fmt.Errorf("%w: token has been revoked", ErrUnauthorized)
		}
	}

	user, err := us.tokenUser(ctx, claims)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return nil, err
	}

	role := helpers.RoleUser
	if user.IsAdmin {
		role = helpers.RoleAdmin
	}
	return &helpers.EnhancedClaims{
		CustomClaims: claims,
		Role:         role,
		UserID:       user.ID.Hex(),
		Name:         user.Name,
		Email:        user.Email,
	}, nil
}

// tokenUser resolves our own tokens by subject. Tokens from an external
// identity provider carry a foreign subject and are matched by email.
func (us *UserService) tokenUser(ctx context.Context, claims *helpers.CustomClaims) (*models.User, error) {
	if id, err := primitive.ObjectIDFromHex(claims.Subject); err == nil {
		return us.users.GetUserByID(ctx, id)
	}
	email := models.NormalizeEmail(claims.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: unknown subject", ErrUnauthorized)
	}
	return us.users.GetUserByEmail(ctx, email)
}

func (us *UserService) Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.User, error) {
	if !actor.IsAdmin && actor.UserID != id {
		return nil, ErrForbidden
	}
	user, err := us.users.GetUserByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	return user, err
}

func (us *UserService) List(ctx context.Context, actor Actor) ([]*models.User, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	return us.users.ListUsers(ctx)
}

func (us *UserService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, upd UserUpdate) (*models.User, error) {
	if !actor.IsAdmin && actor.UserID != id {
		return nil, ErrForbidden
	}
	if upd.IsAdmin != nil && !actor.IsAdmin {
		return nil, ErrForbidden
	}

	fields := bson.M{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if len(name) < 2 || len(name) > 80 {
			return nil, invalid("name must be between 2 and 80 characters")
		}
		fields["name"] = name
	}
	if upd.Email != nil {
		email := models.NormalizeEmail(*upd.Email)
		if err := models.Validate.Var(email, "required,email"); err != nil {
			return nil, invalid("invalid email address")
		}
		fields["email"] = email
	}
	if upd.Password != nil {
		if !helpers.IsPasswordStrong(*upd.Password) {
			return nil, invalid("password must be at least 8 characters and mix upper, lower, digit and symbol")
		}
		hash, err := helpers.HashPassword(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		fields["password"] = hash
	}
	if upd.IsAdmin != nil {
		fields["is_admin"] = *upd.IsAdmin
	}
	if len(fields) == 0 {
		return nil, invalid("no fields to update")
	}

	user, err := us.users.UpdateUser(ctx, id, fields)
	switch {
	case errors.Is(err, models.ErrEmailTaken):
		return nil, ErrEmailTaken
	case errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	return user, err
}

func (us *UserService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if actor.UserID == id {
		return invalid("you cannot delete your own account")
	}
	err := us.users.DeleteUser(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return err
}
