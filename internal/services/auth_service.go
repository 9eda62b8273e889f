package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/jinsharnam/internal/config"
	"github.com/example/jinsharnam/internal/models"
	"github.com/example/jinsharnam/internal/utils"
)

const minPasswordLength = 6

// Identity is the authenticated principal attached to a session.
type Identity struct {
	ID    uuid.UUID   `json:"id"`
	Name  string      `json:"name,omitempty"`
	Email string      `json:"email,omitempty"`
	Role  models.Role `json:"role"`
}

// IsAdmin reports whether the identity carries the ADMIN role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

// SignupInput carries the fields submitted on account completion.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// ProfileUpdate lists the profile fields a user may change. Nil fields are kept.
type ProfileUpdate struct {
	Name    *string
	Address *string
}

// AuthService owns user records, credentials and session tokens.
type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

// FindByEmail returns the user owning email.
func (s *AuthService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email = ?", normalizeEmail(email))
}

// FindByPhone returns the user owning phone. The phone is normalized first.
func (s *AuthService) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.findOne(ctx, "phone = ?", utils.NormalizePhone(phone, s.cfg.OTPCountryCode))
}

func (s *AuthService) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks credentials. Every failure mode yields ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utils.BurnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	matches := utils.CheckPassword(user.PasswordHash, password)
	if !matches || !user.IsRegistered() {
		return nil, ErrInvalidCredentials
	}

	return identityOf(user), nil
}

// IssueSession signs a session token for identity.
func (s *AuthService) IssueSession(identity *Identity) (string, error) {
	if identity == nil || identity.ID == uuid.Nil {
		return "", errors.New("cannot issue a session without an identity")
	}
	return utils.GenerateToken(s.cfg.JWTSecret, identity.ID, string(identity.Role), s.cfg.TokenExpires)
}

// ResolveSession validates token and returns the identity it carries.
func (s *AuthService) ResolveSession(token string) (*Identity, error) {
	claims, err := utils.ParseToken(s.cfg.JWTSecret, token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	role := models.Role(claims.Role)
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, ErrUnauthenticated
	}

	return &Identity{ID: claims.UserID, Role: role}, nil
}

// Signup completes the pending identity bound to a verified phone number.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	phone := utils.NormalizePhone(in.Phone, s.cfg.OTPCountryCode)

	switch {
	case name == "":
		return nil, invalid("name", "is required")
	case email == "":
		return nil, invalid("email", "is required")
	case phone == "":
		return nil, invalid("phone", "is required")
	case len(in.Password) < minPasswordLength:
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email", "is not a valid address")
	}

	passwordHash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var userID uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("phone = ?", phone).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPhoneNotVerified
			}
			return err
		}

		if user.IsRegistered() {
			return ErrConflict
		}
		if !user.PhoneVerified {
			return ErrPhoneNotVerified
		}

		var taken int64
		if err := tx.Model(&models.User{}).
			Where("email = ? AND id <> ?", email, user.ID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrConflict
		}

		userID = user.ID
		return tx.Model(&user).Updates(map[string]any{
			"name":           name,
			"email":          email,
			"password_hash":  passwordHash,
			"address":        strings.TrimSpace(in.Address),
			"phone_verified": true,
			"kind":           models.IdentityRegistered,
			"otp":            nil,
			"otp_expires_at": nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "signup completed", "user_id", userID)
	return s.Profile(ctx, userID)
}

// Profile returns the user record for id.
func (s *AuthService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

// UpdateProfile changes the mutable profile fields of a user.
func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*models.User, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "must not be empty")
		}
		updates["name"] = name
	}
	if in.Address != nil {
		updates["address"] = strings.TrimSpace(*in.Address)
	}
	if len(updates) == 0 {
		return nil, invalid("", "no fields to update")
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.Profile(ctx, id)
}

// ListRegistered returns completed accounts, newest first. Pending identities are excluded.
func (s *AuthService) ListRegistered(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("kind = ?", models.IdentityRegistered)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// PromoteAdmin grants the ADMIN role to a registered account.
func (s *AuthService) PromoteAdmin(ctx context.Context, email string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND kind = ?", normalizeEmail(email), models.IdentityRegistered).
		Update("role", models.RoleAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func identityOf(user *models.User) *Identity {
	identity := &Identity{ID: user.ID, Name: user.Name, Role: user.Role}
	if user.Email != nil {
		identity.Email = *user.Email
	}
	return identity
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
