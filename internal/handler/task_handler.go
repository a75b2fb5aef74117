package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/tasktracker/internal/authz"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/models"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/repository"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/service"
	"github.com/EgehanKilicarslan/tasktracker/internal/middleware"
	"github.com/EgehanKilicarslan/tasktracker/internal/validation"
	"github.com/EgehanKilicarslan/tasktracker/internal/web"
)

// Flash and page texts shown by the task screens
const (
	MsgTaskCreated      = "Task was successfully created"
	MsgTaskUpdated      = "Task was successfully updated."
	MsgTaskDestroyed    = "Task was successfully destroyed"
	MsgTaskNotFound     = "Task not found"
	MsgTaskForbidden    = "You are not allowed to change this task"
	MsgConfirmationGone = "Delete confirmation expired. Please try again."
)

// TaskHandler handles HTTP requests for the task resource
type TaskHandler struct {
	service service.TaskService
	logger  *slog.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(service service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

// Index lists every task
func (h *TaskHandler) Index(c *gin.Context) {
	tasks, err := h.service.List()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	render(c, http.StatusOK, "tasks/index", gin.H{"Tasks": tasks})
}

// Show renders one task
func (h *TaskHandler) Show(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	task, err := h.service.Get(id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	render(c, http.StatusOK, "tasks/show", gin.H{"Task": task})
}

// New renders an empty task form
func (h *TaskHandler) New(c *gin.Context) {
	task, err := h.service.New(middleware.CurrentSession(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.renderNewForm(c, http.StatusOK, task, nil)
}

// Create stores a task or re-renders the form with its errors
func (h *TaskHandler) Create(c *gin.Context) {
	session := middleware.CurrentSession(c)

	result, err := h.service.Create(session, bindTaskInput(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if !result.Persisted() {
		h.logger.Info("📝 [Handler] Task rejected", "errors", result.Errors.Count())
		h.renderNewForm(c, http.StatusUnprocessableEntity, result.Task, result.Errors)
		return
	}

	web.SetNotice(c, MsgTaskCreated)
	c.Redirect(http.StatusFound, taskPath(result.Task.ID))
}

// Edit renders the form for an existing task
func (h *TaskHandler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	task, err := h.service.Edit(middleware.CurrentSession(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.renderEditForm(c, http.StatusOK, task, nil)
}

// Update applies the submitted fields or re-renders the form with its errors
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	result, err := h.service.Update(middleware.CurrentSession(c), id, bindTaskInput(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if !result.Persisted() {
		h.logger.Info("📝 [Handler] Task update rejected", "task_id", id, "errors", result.Errors.Count())
		h.renderEditForm(c, http.StatusUnprocessableEntity, result.Task, result.Errors)
		return
	}

	web.SetNotice(c, MsgTaskUpdated)
	c.Redirect(http.StatusFound, taskPath(id))
}

// ConfirmDelete asks the user to confirm before the task is destroyed
func (h *TaskHandler) ConfirmDelete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	confirmation, err := h.service.RequestDelete(middleware.CurrentSession(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	render(c, http.StatusOK, "tasks/delete", gin.H{"Confirmation": confirmation})
}

// Destroy deletes the task once the confirmation token for it is presented
func (h *TaskHandler) Destroy(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	// DELETE bodies are not parsed as forms, so the token may ride in the query
	token := c.PostForm("confirmation_token")
	if token == "" {
		token = c.Query("confirmation_token")
	}

	if _, err := h.service.ConfirmDelete(middleware.CurrentSession(c), id, token); err != nil {
		h.handleServiceError(c, err)
		return
	}

	web.SetNotice(c, MsgTaskDestroyed)
	c.Redirect(http.StatusFound, "/tasks")
}

// MethodOverride lets HTML forms reach Update and Destroy through POST
func (h *TaskHandler) MethodOverride(c *gin.Context) {
	switch strings.ToLower(c.PostForm("_method")) {
	case "patch", "put":
		h.Update(c)
	case "delete":
		h.Destroy(c)
	default:
		h.notFound(c)
	}
}

// ==================== JSON ====================

// ListJSON returns every task as JSON
func (h *TaskHandler) ListJSON(c *gin.Context) {
	tasks, err := h.service.List()
	if err != nil {
		h.logger.Error("❌ [Handler] Failed to list tasks", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// ShowJSON returns one task as JSON
func (h *TaskHandler) ShowJSON(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": MsgTaskNotFound})
		return
	}

	task, err := h.service.Get(id)
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": MsgTaskNotFound})
	case err != nil:
		h.logger.Error("❌ [Handler] Failed to load task", "task_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"task": task})
	}
}

// ==================== Helpers ====================

func (h *TaskHandler) renderNewForm(c *gin.Context, status int, task *models.Task, errs *validation.Errors) {
	render(c, status, "tasks/new", gin.H{
		"Task":        task,
		"Errors":      errs,
		"Resource":    "task",
		"FormAction":  "/tasks",
		"SubmitLabel": "Create Task",
	})
}

func (h *TaskHandler) renderEditForm(c *gin.Context, status int, task *models.Task, errs *validation.Errors) {
	render(c, status, "tasks/edit", gin.H{
		"Task":        task,
		"Errors":      errs,
		"Resource":    "task",
		"FormAction":  taskPath(task.ID),
		"FormMethod":  "patch",
		"SubmitLabel": "Update Task",
	})
}

func (h *TaskHandler) notFound(c *gin.Context) {
	renderError(c, http.StatusNotFound, MsgTaskNotFound, "The task you were looking for does not exist.")
}

// handleServiceError maps service errors to HTTP responses
func (h *TaskHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrLoginRequired):
		web.SetAlert(c, middleware.MsgLoginRequired)
		c.Redirect(http.StatusFound, middleware.LoginPath)
	case errors.Is(err, authz.ErrForbidden):
		web.SetAlert(c, MsgTaskForbidden)
		c.Redirect(http.StatusFound, "/tasks")
	case errors.Is(err, repository.ErrTaskNotFound):
		h.notFound(c)
	case errors.Is(err, service.ErrInvalidConfirmation):
		web.SetAlert(c, MsgConfirmationGone)
		c.Redirect(http.StatusFound, "/tasks")
	default:
		h.logger.Error("❌ [Handler] Internal server error", "error", err)
		renderInternalError(c)
	}
}

func bindTaskInput(c *gin.Context) service.TaskInput {
	return service.TaskInput{
		Title:    optionalForm(c, "title"),
		Content:  optionalForm(c, "content"),
		Status:   optionalForm(c, "status"),
		Deadline: optionalForm(c, "deadline"),
	}
}

func taskPath(id uint) string {
	return fmt.Sprintf("/tasks/%d", id)
}
