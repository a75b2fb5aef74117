package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/tasktracker/internal/authz"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/service"
	"github.com/EgehanKilicarslan/tasktracker/internal/web"
)

const (
	// SessionCookieName holds the signed session token issued at login
	SessionCookieName = "tasktracker_session"

	// LoginPath is where anonymous users are sent for protected pages
	LoginPath = "/login"

	// MsgLoginRequired is flashed when a protected page is requested anonymously
	MsgLoginRequired = "Login required"

	sessionContextKey = "session"
)

// AuthMiddleware resolves the session cookie and guards protected routes
type AuthMiddleware struct {
	service service.AuthService
	secure  bool
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(service service.AuthService, secureCookies bool, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		secure:  secureCookies,
		logger:  logger,
	}
}

// LoadSession resolves the cookie into an authz.Session. It never aborts:
// a missing or stale cookie leaves the request anonymous. Only a stale cookie
// is cleared; a store failure keeps it for the next request.
func (m *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := authz.Anonymous()

		if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
			resolved, err := m.service.Authenticate(token)
			switch {
			case errors.Is(err, service.ErrInvalidSession):
				m.logger.Debug("⚠️ [Middleware] Dropping stale session cookie", "error", err)
				m.ClearSessionCookie(c)
			case err != nil:
				m.logger.Warn("⚠️ [Middleware] Failed to resolve session", "error", err)
			default:
				session = resolved
				m.logger.Debug("✅ [Middleware] Session resolved", "user_id", session.UserID)
			}
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// Require redirects anonymous requests to the login page when op needs a login
func (m *AuthMiddleware) Require(op authz.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authz.Classify(op) == authz.PublicRead {
			c.Next()
			return
		}

		if !CurrentSession(c).Authenticated() {
			m.logger.Info("🔒 [Middleware] Login required", "op", op.String(), "path", c.Request.URL.Path)
			web.SetAlert(c, MsgLoginRequired)
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		c.Next()
	}
}

// SetSessionCookie stores the signed session token on the response
func (m *AuthMiddleware) SetSessionCookie(c *gin.Context, token *service.SessionToken) {
	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token.Value, maxAge, "/", "", m.secure, true)
}

// ClearSessionCookie expires the session cookie
func (m *AuthMiddleware) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", m.secure, true)
}

// CurrentSession returns the session LoadSession attached, or an anonymous one
func CurrentSession(c *gin.Context) authz.Session {
	if value, ok := c.Get(sessionContextKey); ok {
		if session, ok := value.(authz.Session); ok {
			return session
		}
	}
	return authz.Anonymous()
}
