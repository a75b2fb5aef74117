package api

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/tasktracker/internal/authz"
	"github.com/EgehanKilicarslan/tasktracker/internal/handler"
	"github.com/EgehanKilicarslan/tasktracker/internal/middleware"
	"github.com/EgehanKilicarslan/tasktracker/internal/web"
)

func SetupRouter(
	taskHandler *handler.TaskHandler,
	authHandler *handler.AuthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	r := gin.Default()
	r.SetTrustedProxies(nil)
	r.SetHTMLTemplate(template.Must(web.Templates()))

	// Public routes
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.Use(authMiddleware.LoadSession())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(302, "/tasks")
	})

	// Session routes (Public)
	r.GET("/login", authHandler.LoginForm)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET("/signup", authHandler.SignupForm)
	r.POST("/users", authHandler.Signup)

	tasks := r.Group("/tasks")
	{
		tasks.GET("", authMiddleware.Require(authz.ListTasks), taskHandler.Index)
		tasks.GET("/new", authMiddleware.Require(authz.NewTask), taskHandler.New)
		tasks.POST("", authMiddleware.Require(authz.CreateTask), taskHandler.Create)
		tasks.GET("/:id", authMiddleware.Require(authz.ShowTask), taskHandler.Show)
		tasks.GET("/:id/edit", authMiddleware.Require(authz.EditTask), taskHandler.Edit)
		tasks.PATCH("/:id", authMiddleware.Require(authz.UpdateTask), taskHandler.Update)
		tasks.PUT("/:id", authMiddleware.Require(authz.UpdateTask), taskHandler.Update)
		tasks.POST("/:id", authMiddleware.Require(authz.UpdateTask), taskHandler.MethodOverride)
		tasks.GET("/:id/delete", authMiddleware.Require(authz.DeleteTask), taskHandler.ConfirmDelete)
		tasks.DELETE("/:id", authMiddleware.Require(authz.DeleteTask), taskHandler.Destroy)
	}

	// Read-only JSON API
	api := r.Group("/api/v1")
	{
		api.GET("/tasks", taskHandler.ListJSON)
		api.GET("/tasks/:id", taskHandler.ShowJSON)
	}

	return r
}
