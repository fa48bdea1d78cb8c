package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sushihost/backend/internal/models"
)

const verificationTokenTTL = 24 * time.Hour

var (
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)
)

// AuthService owns user registration, login, session issuance and the
// email verification lifecycle.
type AuthService struct {
	db       *gorm.DB
	sessions SessionStore
	email    *EmailService
	secret   string
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, sessions SessionStore, email *EmailService, secret string) *AuthService {
	return &AuthService{
		db:       db,
		sessions: sessions,
		email:    email,
		secret:   secret,
		now:      time.Now,
	}
}

// RegisterResult reports a successful registration. DebugToken carries
// the raw verification token only when the verification email could not
// be sent, so an operator can verify the account manually.
type RegisterResult struct {
	User       *models.User
	DebugToken string
}

func (s *AuthService) Register(ctx context.Context, email, username, password string) (*RegisterResult, error) {
	if !emailRe.MatchString(email) {
		return nil, validationErr("invalid email address")
	}
	if !usernameRe.MatchString(username) {
		return nil, validationErr("username must be 3-50 characters of letters, digits or underscore")
	}
	if len(password) < 8 {
		return nil, validationErr("password must be at least 8 characters")
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ? OR username = ?", email, username).First(&existing).Error
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	expires := s.now().Add(verificationTokenTTL)
	user := models.User{
		Username:                 username,
		Email:                    email,
		PasswordHash:             string(hash),
		Role:                     models.RoleUser,
		EmailVerified:            false,
		VerificationToken:        &token,
		VerificationTokenExpires: &expires,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	result := &RegisterResult{User: &user}
	if err := s.email.SendVerificationEmail(&user, token); err != nil {
		log.WithError(err).WithField("user", user.Username).Warn("Verification email not sent, returning token in response")
		result.DebugToken = token
	}
	return result, nil
}

// Login checks credentials and issues a session. Unknown email and wrong
// password fail identically so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	sid := uuid.NewString()
	if err := s.sessions.Put(ctx, sid, user.ID, SessionTTL); err != nil {
		return nil, "", err
	}
	cookie, err := s.signSession(sid)
	if err != nil {
		return nil, "", err
	}
	return &user, cookie, nil
}

// Logout destroys the session named by the cookie. Unknown or mangled
// cookies are ignored: logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, cookie string) {
	sid, err := s.parseSession(cookie)
	if err != nil {
		return
	}
	if err := s.sessions.Delete(ctx, sid); err != nil {
		log.WithError(err).Warn("Failed to delete session")
	}
}

// CurrentUser resolves a session cookie to its user row. Returns nil
// without error when there is no live session or the row is gone.
func (s *AuthService) CurrentUser(ctx context.Context, cookie string) (*models.User, error) {
	sid, err := s.parseSession(cookie)
	if err != nil {
		return nil, nil
	}
	userID, ok, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// VerifyEmail redeems a verification token. A consumed or expired token
// can never verify again.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrBadToken
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("verification_token = ?", token).First(&user).Error; err != nil {
		return nil, ErrBadToken
	}
	if user.VerificationTokenExpires == nil || s.now().After(*user.VerificationTokenExpires) {
		return nil, ErrBadToken
	}

	updates := map[string]interface{}{
		"email_verified":             true,
		"verification_token":         nil,
		"verification_token_expires": nil,
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	user.EmailVerified = true
	user.VerificationToken = nil
	user.VerificationTokenExpires = nil

	if err := s.email.SendWelcomeEmail(&user); err != nil {
		log.WithError(err).Warn("Welcome email not sent")
	}
	return &user, nil
}

// GetOrIssueVerificationToken returns the user's live verification token,
// minting a fresh 24h one only when none exists or the old one expired.
func (s *AuthService) GetOrIssueVerificationToken(ctx context.Context, user *models.User) (string, time.Time, error) {
	if user.VerificationToken != nil && user.VerificationTokenExpires != nil &&
		s.now().Before(*user.VerificationTokenExpires) {
		return *user.VerificationToken, *user.VerificationTokenExpires, nil
	}

	token := uuid.NewString()
	expires := s.now().Add(verificationTokenTTL)
	updates := map[string]interface{}{
		"verification_token":         token,
		"verification_token_expires": expires,
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return "", time.Time{}, err
	}
	user.VerificationToken = &token
	user.VerificationTokenExpires = &expires
	return token, expires, nil
}

// AdminVerifyEmail marks a target user verified without a token.
func (s *AuthService) AdminVerifyEmail(ctx context.Context, userID *int, username string) (*models.User, error) {
	user, err := s.findTarget(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"email_verified":             true,
		"verification_token":         nil,
		"verification_token_expires": nil,
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	user.EmailVerified = true
	return user, nil
}

// AdminSetRole changes a target user's role. This is the only path by
// which a role ever escalates.
func (s *AuthService) AdminSetRole(ctx context.Context, userID *int, username, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, validationErr("role must be 'user' or 'admin'")
	}
	user, err := s.findTarget(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

func (s *AuthService) findTarget(ctx context.Context, userID *int, username string) (*models.User, error) {
	var user models.User
	query := s.db.WithContext(ctx)
	switch {
	case userID != nil:
		query = query.Where("id = ?", *userID)
	case username != "":
		query = query.Where("username = ?", username)
	default:
		return nil, validationErr("user_id or username is required")
	}
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// signSession wraps a session id in a signed JWT so the cookie is
// tamper-evident; the session itself lives server-side.
func (s *AuthService) signSession(sid string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": s.now().Add(SessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *AuthService) parseSession(cookie string) (string, error) {
	if cookie == "" {
		return "", errors.New("no session cookie")
	}
	token, err := jwt.Parse(cookie, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid session cookie")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid session claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("invalid session claims")
	}
	return sid, nil
}

// SetClock overrides the time source. Test hook.
func (s *AuthService) SetClock(now func() time.Time) { s.now = now }
