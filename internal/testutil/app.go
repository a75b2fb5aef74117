package testutil

import (
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/tasktracker/internal/api"
	"github.com/EgehanKilicarslan/tasktracker/internal/authz"
	"github.com/EgehanKilicarslan/tasktracker/internal/config"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/repository"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/service"
	"github.com/EgehanKilicarslan/tasktracker/internal/handler"
	"github.com/EgehanKilicarslan/tasktracker/internal/middleware"
)

// App is the full HTTP stack wired over an in-memory store
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Users       repository.UserRepository
	Tasks       repository.TaskRepository
	Sessions    repository.SessionRepository
	AuthService service.AuthService
	TaskService service.TaskService
	Limiter     middleware.RateLimiter
	Router      *gin.Engine
}

// AppOption adjusts the configuration or limiter before the stack is built
type AppOption func(t *testing.T, app *App)

// WithPolicy selects the task edit policy
func WithPolicy(policy authz.Policy) AppOption {
	return func(t *testing.T, app *App) {
		app.Config.TaskEditPolicy = string(policy)
	}
}

// WithRedisLimiter throttles logins through miniredis
func WithRedisLimiter() AppOption {
	return func(t *testing.T, app *App) {
		_, app.Limiter = SetupMiniRedis(t, app.Config)
	}
}

// NewApp builds the router the way main does, over SetupTestDB
func NewApp(t *testing.T, opts ...AppOption) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &App{
		Config: TestConfig(),
		DB:     SetupTestDB(t),
	}
	for _, opt := range opts {
		opt(t, app)
	}

	logger := TestLogger()
	if app.Limiter == nil {
		app.Limiter = middleware.NewNoOpRateLimiter(logger)
	}

	app.Users = repository.NewUserRepository(app.DB)
	app.Tasks = repository.NewTaskRepository(app.DB)
	app.Sessions = repository.NewSessionRepository(app.DB)

	gate := authz.NewGate(authz.ParsePolicy(app.Config.TaskEditPolicy))
	app.AuthService = service.NewAuthService(app.Users, app.Sessions, app.Config, logger)
	app.TaskService = service.NewTaskService(app.Tasks, gate, app.Config, logger)

	authMiddleware := middleware.NewAuthMiddleware(app.AuthService, false, logger)
	authHandler := handler.NewAuthHandler(app.AuthService, authMiddleware, app.Limiter, logger)
	taskHandler := handler.NewTaskHandler(app.TaskService, logger)

	app.Router = api.SetupRouter(taskHandler, authHandler, authMiddleware)
	return app
}

// Browser returns a fresh cookie-keeping client for this app
func (a *App) Browser(t *testing.T) *Browser {
	return NewBrowser(t, a.Router)
}
