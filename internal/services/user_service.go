package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pocketbook/internal/authz"
	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/logger"
	"pocketbook/internal/models"
)

const (
	minPasswordLength = 8
	maxUserNameLength = 100

	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

// userService handles identity and profile business logic. Verification and
// reset tokens are random values; only their SHA-256 digests are stored.
type userService struct {
	db     *gorm.DB
	mailer Mailer
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, mailer Mailer) UserServicer {
	return &userService{db: db, mailer: mailer}
}

// Register creates an unverified user and emails a verification link. The
// name defaults to the local part of the email.
func (s *userService) Register(email, password, name string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	if len([]rune(name)) > maxUserNameLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be at most 100 characters")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token, tokenHash, err := newToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expires := time.Now().UTC().Add(verificationTokenTTL)

	user := &models.User{
		Email:                    email,
		PasswordHash:             string(hashedPassword),
		Name:                     name,
		Roles:                    models.Roles{"user"},
		VerificationTokenHash:    tokenHash,
		VerificationTokenExpires: &expires,
	}
	if err := s.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Wrap(apperrors.ErrDuplicateEmail, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.mailer.SendVerificationEmail(user.Email, user.Name, token); err != nil {
		logger.Get().Warnw("failed to send verification email", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// Authenticate checks an email and password pair.
func (s *userService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.findByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// UpdateUser changes the requester's own name and/or password.
func (s *userService) UpdateUser(requesterID, userID string, name, password *string) (*models.User, error) {
	user, err := authz.LoadOwned[models.User](s.db, userID, requesterID, apperrors.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" || len([]rune(trimmed)) > maxUserNameLength {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be between 1 and 100 characters")
		}
		updates["name"] = trimmed
	}
	if password != nil {
		if len(*password) < minPasswordLength {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["password_hash"] = string(hashed)
		updates["refresh_token_hash"] = ""
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetUserByID(user.ID)
}

// DeleteUser deletes the requester's own account.
func (s *userService) DeleteUser(requesterID, userID string) error {
	user, err := authz.LoadOwned[models.User](s.db, userID, requesterID, apperrors.ErrUserNotFound)
	if err != nil {
		return err
	}

	if err := s.db.Delete(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// VerifyEmail marks the user holding token as verified.
func (s *userService) VerifyEmail(token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidToken
	}

	var user models.User
	if err := s.db.Where("verification_token_hash = ?", hashToken(token)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.VerificationTokenExpires == nil || time.Now().After(*user.VerificationTokenExpires) {
		return nil, apperrors.ErrInvalidToken
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"is_verified":                true,
		"verification_token_hash":    "",
		"verification_token_expires": nil,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.IsVerified = true
	return &user, nil
}

// ResendVerification issues a fresh verification token. Unknown or already
// verified addresses succeed silently.
func (s *userService) ResendVerification(email string) error {
	user, err := s.findByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.IsVerified {
		return nil
	}

	token, tokenHash, err := newToken()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expires := time.Now().UTC().Add(verificationTokenTTL)
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"verification_token_hash":    tokenHash,
		"verification_token_expires": expires,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.mailer.SendVerificationEmail(user.Email, user.Name, token); err != nil {
		logger.Get().Warnw("failed to send verification email", "user_id", user.ID, "error", err)
	}
	return nil
}

// RequestPasswordReset emails a reset link. Unknown addresses succeed
// silently so the endpoint does not reveal which emails are registered.
func (s *userService) RequestPasswordReset(email string) error {
	user, err := s.findByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, tokenHash, err := newToken()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expires := time.Now().UTC().Add(resetTokenTTL)
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"reset_token_hash":    tokenHash,
		"reset_token_expires": expires,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, user.Name, token); err != nil {
		logger.Get().Warnw("failed to send password reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword sets a new password for the user holding token and signs
// out existing sessions.
func (s *userService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
	}

	if token == "" {
		return apperrors.ErrInvalidToken
	}

	var user models.User
	if err := s.db.Where("reset_token_hash = ?", hashToken(token)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.ResetTokenExpires == nil || time.Now().After(*user.ResetTokenExpires) {
		return apperrors.ErrInvalidToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"password_hash":       string(hashed),
		"reset_token_hash":    "",
		"reset_token_expires": nil,
		"refresh_token_hash":  "",
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// StoreRefreshTokenHash stores the hash of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetRefreshTokenHash retrieves the stored refresh token hash.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}

func (s *userService) findByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("LOWER(email) = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// newToken returns a random URL-safe token and its stored digest.
func newToken() (string, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	token := hex.EncodeToString(b)
	return token, hashToken(token), nil
}
