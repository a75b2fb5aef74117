package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/tasktracker/internal/database/repository"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/service"
	"github.com/EgehanKilicarslan/tasktracker/internal/middleware"
	"github.com/EgehanKilicarslan/tasktracker/internal/validation"
	"github.com/EgehanKilicarslan/tasktracker/internal/web"
)

// Flash texts shown by the login and signup screens
const (
	MsgLoginSuccessful    = "Login successful"
	MsgLoggedOut          = "Logged out"
	MsgUserCreated        = "User was successfully created"
	MsgInvalidCredentials = "Invalid email or password"
	MsgTooManyAttempts    = "Too many login attempts. Try again later."
)

// AuthHandler handles HTTP requests for login sessions and signup
type AuthHandler struct {
	service     service.AuthService
	cookies     *middleware.AuthMiddleware
	rateLimiter middleware.RateLimiter
	logger      *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(
	service service.AuthService,
	cookies *middleware.AuthMiddleware,
	rateLimiter middleware.RateLimiter,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		service:     service,
		cookies:     cookies,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// LoginForm renders the login page
func (h *AuthHandler) LoginForm(c *gin.Context) {
	render(c, http.StatusOK, "sessions/new", nil)
}

// Login starts a session and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	ctx := c.Request.Context()

	allowed, failed, limit, err := h.rateLimiter.CheckLoginLimit(ctx, email)
	if err != nil {
		h.logger.Warn("⚠️ [Handler] Login limit check failed, allowing attempt", "error", err)
	}
	if !allowed {
		h.logger.Warn("🚫 [Handler] Login throttled", "email", email, "failed", failed, "limit", limit)
		h.handleServiceError(c, service.ErrTooManyAttempts, email)
		return
	}

	_, token, err := h.service.Login(email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if incErr := h.rateLimiter.IncrementFailedLogins(ctx, email); incErr != nil {
				h.logger.Warn("⚠️ [Handler] Failed to record failed login", "error", incErr)
			}
		}
		h.handleServiceError(c, err, email)
		return
	}

	if err := h.rateLimiter.ResetFailedLogins(ctx, email); err != nil {
		h.logger.Warn("⚠️ [Handler] Failed to reset failed logins", "error", err)
	}

	h.cookies.SetSessionCookie(c, token)
	web.SetNotice(c, MsgLoginSuccessful)
	c.Redirect(http.StatusFound, "/tasks")
}

// Logout revokes the current session and clears the cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookieName); err == nil && token != "" {
		if err := h.service.Logout(token); err != nil {
			// The cookie goes away either way
			h.logger.Warn("⚠️ [Handler] Logout could not revoke session", "error", err)
		}
	}

	h.cookies.ClearSessionCookie(c)
	web.SetNotice(c, MsgLoggedOut)
	c.Redirect(http.StatusFound, "/tasks")
}

// SignupForm renders the registration page
func (h *AuthHandler) SignupForm(c *gin.Context) {
	render(c, http.StatusOK, "users/new", gin.H{"Resource": "user"})
}

// Signup registers a new user
func (h *AuthHandler) Signup(c *gin.Context) {
	email := c.PostForm("email")

	user, err := h.service.Register(email, c.PostForm("password"), c.PostForm("password_confirmation"))
	if err != nil {
		var errs *validation.Errors
		if errors.As(err, &errs) {
			render(c, http.StatusUnprocessableEntity, "users/new", gin.H{
				"Errors":   errs,
				"Resource": "user",
				"Email":    email,
			})
			return
		}
		h.handleServiceError(c, err, email)
		return
	}

	h.logger.Info("✅ [Handler] User signed up", "user_id", user.ID)
	web.SetNotice(c, MsgUserCreated)
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// handleServiceError maps service errors to HTTP responses
func (h *AuthHandler) handleServiceError(c *gin.Context, err error, email string) {
	switch {
	case errors.Is(err, service.ErrTooManyAttempts):
		render(c, http.StatusTooManyRequests, "sessions/new", gin.H{
			"Flash": web.Flash{Alert: MsgTooManyAttempts},
			"Email": email,
		})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, repository.ErrUserNotFound):
		render(c, http.StatusUnprocessableEntity, "sessions/new", gin.H{
			"Flash": web.Flash{Alert: MsgInvalidCredentials},
			"Email": email,
		})
	default:
		h.logger.Error("❌ [Handler] Internal server error", "error", err)
		renderInternalError(c)
	}
}
