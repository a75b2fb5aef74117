package service

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/EgehanKilicarslan/tasktracker/internal/authz"
	"github.com/EgehanKilicarslan/tasktracker/internal/config"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/models"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/repository"
	"github.com/EgehanKilicarslan/tasktracker/internal/validation"
)

// AuthService defines the interface for registration and login sessions
type AuthService interface {
	Register(email, password, passwordConfirmation string) (*models.User, error)
	Login(email, password string) (*models.User, *SessionToken, error)
	Authenticate(token string) (authz.Session, error)
	Logout(token string) error
	PurgeExpiredSessions() (int64, error)
}

// SessionToken is the signed cookie value issued at login
type SessionToken struct {
	Value     string
	ExpiresAt time.Time
}

type registration struct {
	Email                string `form:"email" validate:"notblank,email"`
	Password             string `form:"password" validate:"notblank,min=6"`
	PasswordConfirmation string `form:"password_confirmation" validate:"eqfield=Password"`
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	validator   *validation.Validator
	jwtSecret   string
	cfg         *config.Config
	logger      *slog.Logger
}

// NewAuthService creates a new authentication service instance
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		validator:   validation.New(),
		jwtSecret:   cfg.JWTSecret,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *authService) Register(email, password, passwordConfirmation string) (*models.User, error) {
	email = strings.TrimSpace(email)
	s.logger.Info("📝 [AuthService] Registration attempt", "email", email)

	form := registration{
		Email:                email,
		Password:             password,
		PasswordConfirmation: passwordConfirmation,
	}
	errs := s.validator.Struct(form)

	if len(errs.On("email")) == 0 {
		existingUser, err := s.userRepo.FindByEmail(email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Error("❌ [AuthService] Database error", "error", err)
			return nil, err
		}
		if existingUser != nil {
			errs.Add("email", validation.MsgTaken)
		}
	}

	if !errs.Empty() {
		s.logger.Warn("⚠️ [AuthService] Registration rejected", "email", email, "errors", errs.Count())
		return nil, errs
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to hash password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Password: string(hashedPassword),
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			errs.Add("email", validation.MsgTaken)
			return nil, errs
		}
		s.logger.Error("❌ [AuthService] Failed to create user", "error", err)
		return nil, err
	}

	s.logger.Info("✅ [AuthService] User registered successfully", "user_id", user.ID)
	return user, nil
}

func (s *authService) Login(email, password string) (*models.User, *SessionToken, error) {
	email = strings.TrimSpace(email)
	s.logger.Info("🔐 [AuthService] Login attempt", "email", email)

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("⚠️ [AuthService] User not found", "email", email)
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn("⚠️ [AuthService] Invalid password", "email", email)
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.startSession(user.ID)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to start session", "error", err)
		return nil, nil, err
	}

	s.logger.Info("✅ [AuthService] User logged in successfully", "user_id", user.ID)
	return user, token, nil
}

func (s *authService) Authenticate(tokenString string) (authz.Session, error) {
	claims, err := parseToken(s.jwtSecret, tokenString, tokenTypeSession)
	if err != nil {
		return authz.Anonymous(), ErrInvalidSession
	}

	userID, ok := claimUint(claims, "user_id")
	sid, _ := claims["sid"].(string)
	if !ok || sid == "" {
		return authz.Anonymous(), ErrInvalidSession
	}

	stored, err := s.sessionRepo.FindByToken(sid)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) || errors.Is(err, repository.ErrSessionExpired) {
			return authz.Anonymous(), ErrInvalidSession
		}
		return authz.Anonymous(), err
	}

	if stored.UserID != userID {
		s.logger.Warn("⚠️ [AuthService] Session user mismatch", "session_user", stored.UserID, "claim_user", userID)
		return authz.Anonymous(), ErrInvalidSession
	}

	return authz.Session{ID: sid, UserID: stored.UserID, Email: stored.User.Email}, nil
}

func (s *authService) Logout(tokenString string) error {
	s.logger.Info("👋 [AuthService] Logout attempt")

	// An expired cookie still identifies the session to revoke
	claims, err := parseToken(s.jwtSecret, tokenString, tokenTypeSession, jwt.WithoutClaimsValidation())
	if err != nil {
		return ErrInvalidSession
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return ErrInvalidSession
	}

	if err := s.sessionRepo.RevokeToken(sid); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			s.logger.Warn("⚠️ [AuthService] Session not found for logout")
		}
		return err
	}

	s.logger.Info("✅ [AuthService] User logged out successfully")
	return nil
}

func (s *authService) PurgeExpiredSessions() (int64, error) {
	purged, err := s.sessionRepo.DeleteExpired()
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to purge sessions", "error", err)
		return 0, err
	}
	if purged > 0 {
		s.logger.Info("🧹 [AuthService] Purged expired sessions", "count", purged)
	}
	return purged, nil
}

// startSession stores a session row and signs the cookie that points at it
func (s *authService) startSession(userID uint) (*SessionToken, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(s.cfg.SessionTTL) * time.Second)

	session := &models.Session{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: expiresAt,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	signed, err := signToken(s.jwtSecret, jwt.MapClaims{
		"user_id": userID,
		"sid":     session.Token,
		"type":    tokenTypeSession,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &SessionToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Service errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)
