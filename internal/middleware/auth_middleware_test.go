package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgehanKilicarslan/tasktracker/internal/authz"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/service"
	"github.com/EgehanKilicarslan/tasktracker/internal/middleware"
	"github.com/EgehanKilicarslan/tasktracker/internal/testutil"
)

func setupAuthRouter(authService *testutil.MockAuthService, op authz.Operation) *gin.Engine {
	gin.SetMode(gin.TestMode)

	m := middleware.NewAuthMiddleware(authService, false, testutil.TestLogger())

	r := gin.New()
	r.Use(m.LoadSession())
	r.GET("/protected", m.Require(op), func(c *gin.Context) {
		session := middleware.CurrentSession(c)
		c.JSON(http.StatusOK, gin.H{"user_id": session.UserID, "email": session.Email})
	})
	r.POST("/login", func(c *gin.Context) {
		m.SetSessionCookie(c, &service.SessionToken{Value: "signed", ExpiresAt: time.Now().Add(time.Hour)})
		c.Status(http.StatusNoContent)
	})
	return r
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestAuthMiddleware_AnonymousRedirectsToLogin(t *testing.T) {
	authService := new(testutil.MockAuthService)
	r := setupAuthRouter(authService, authz.NewTask)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.NotNil(t, cookieNamed(w, "tasktracker_flash"), "login required flash is set")
	authService.AssertNotCalled(t, "Authenticate")
}

func TestAuthMiddleware_PublicOperationPassesAnonymous(t *testing.T) {
	r := setupAuthRouter(new(testutil.MockAuthService), authz.ShowTask)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 0, "email": ""}`, w.Body.String())
}

func TestAuthMiddleware_ValidSession(t *testing.T) {
	authService := new(testutil.MockAuthService)
	authService.On("Authenticate", "good-token").
		Return(authz.Session{ID: "sid", UserID: 3, Email: "tester@example.com"}, nil)
	r := setupAuthRouter(authService, authz.EditTask)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "good-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 3, "email": "tester@example.com"}`, w.Body.String())
	authService.AssertExpectations(t)
}

func TestAuthMiddleware_StaleCookieIsCleared(t *testing.T) {
	authService := new(testutil.MockAuthService)
	authService.On("Authenticate", "stale").Return(authz.Anonymous(), service.ErrInvalidSession)
	r := setupAuthRouter(authService, authz.EditTask)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "stale"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	cleared := cookieNamed(w, middleware.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestAuthMiddleware_StoreFailureKeepsCookie(t *testing.T) {
	authService := new(testutil.MockAuthService)
	authService.On("Authenticate", "good-token").Return(authz.Anonymous(), errors.New("database is locked"))
	r := setupAuthRouter(authService, authz.EditTask)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "good-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// The request is treated as anonymous but the cookie survives the outage
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Nil(t, cookieNamed(w, middleware.SessionCookieName))
	authService.AssertExpectations(t)
}

func TestAuthMiddleware_SetSessionCookie(t *testing.T) {
	r := setupAuthRouter(new(testutil.MockAuthService), authz.ListTasks)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	cookie := cookieNamed(w, middleware.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, "signed", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.InDelta(t, 3600, cookie.MaxAge, 5)
}

func TestCurrentSession_DefaultsToAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.False(t, middleware.CurrentSession(c).Authenticated())
}
