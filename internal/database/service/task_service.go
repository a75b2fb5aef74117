package service

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/EgehanKilicarslan/tasktracker/internal/authz"
	"github.com/EgehanKilicarslan/tasktracker/internal/config"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/models"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/repository"
	"github.com/EgehanKilicarslan/tasktracker/internal/validation"
)

// DeletePrompt is the question a user must confirm before a task is destroyed
const DeletePrompt = "Are you sure?"

// DeadlineInputLayout is the datetime-local form value layout
const DeadlineInputLayout = "2006-01-02T15:04"

var deadlineLayouts = []string{
	DeadlineInputLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006/1/2 15:04",
}

// TaskService defines the interface for task business logic
type TaskService interface {
	List() ([]models.Task, error)
	Get(id uint) (*models.Task, error)
	New(session authz.Session) (*models.Task, error)
	Create(session authz.Session, input TaskInput) (*TaskResult, error)
	Edit(session authz.Session, id uint) (*models.Task, error)
	Update(session authz.Session, id uint, input TaskInput) (*TaskResult, error)
	RequestDelete(session authz.Session, id uint) (*DeleteConfirmation, error)
	ConfirmDelete(session authz.Session, id uint, token string) (*models.Task, error)
}

// TaskInput carries submitted fields. A nil field is left unchanged on update
// and keeps the new task's defaults on create.
type TaskInput struct {
	Title    *string
	Content  *string
	Status   *string
	Deadline *string
}

// TaskState is the outcome of a create or update
type TaskState int

const (
	StatePersisted TaskState = iota + 1
	StateRejected
)

// TaskResult is what a create or update hands back to the presentation layer.
// On StateRejected, Task holds the submitted (unsaved) values.
type TaskResult struct {
	State  TaskState
	Task   *models.Task
	Errors *validation.Errors
}

func (r *TaskResult) Persisted() bool {
	return r.State == StatePersisted
}

// DeleteConfirmation is the first step of a delete: the prompt plus a token
// that ConfirmDelete accepts until ExpiresAt
type DeleteConfirmation struct {
	Task      *models.Task
	Prompt    string
	Token     string
	ExpiresAt time.Time
}

type taskService struct {
	taskRepo   repository.TaskRepository
	gate       *authz.Gate
	validator  *validation.Validator
	jwtSecret  string
	confirmTTL time.Duration
	logger     *slog.Logger
}

// NewTaskService creates a new task service instance
func NewTaskService(
	taskRepo repository.TaskRepository,
	gate *authz.Gate,
	cfg *config.Config,
	logger *slog.Logger,
) TaskService {
	return &taskService{
		taskRepo:   taskRepo,
		gate:       gate,
		validator:  validation.New(),
		jwtSecret:  cfg.JWTSecret,
		confirmTTL: time.Duration(cfg.DeleteConfirmationTTL) * time.Second,
		logger:     logger,
	}
}

// ==================== Reads ====================

func (s *taskService) List() ([]models.Task, error) {
	return s.taskRepo.List()
}

func (s *taskService) Get(id uint) (*models.Task, error) {
	return s.taskRepo.FindByID(id)
}

// ==================== Create ====================

func (s *taskService) New(session authz.Session) (*models.Task, error) {
	if err := s.gate.Authorize(session, authz.NewTask, 0); err != nil {
		return nil, err
	}
	return &models.Task{Status: models.TaskStatusTodo}, nil
}

func (s *taskService) Create(session authz.Session, input TaskInput) (*TaskResult, error) {
	if err := s.gate.Authorize(session, authz.CreateTask, 0); err != nil {
		s.logger.Warn("⚠️ [TaskService] Create denied", "error", err)
		return nil, err
	}

	// An omitted status falls back to the column default
	task := &models.Task{UserID: session.UserID, Status: models.TaskStatusTodo}
	errs := applyInput(task, input)

	result, err := s.save(task, errs, s.taskRepo.Create)
	if err != nil {
		s.logger.Error("❌ [TaskService] Failed to create task", "error", err)
		return nil, err
	}

	if result.Persisted() {
		s.logger.Info("✅ [TaskService] Task created", "task_id", task.ID, "user_id", session.UserID)
	}
	return result, nil
}

// ==================== Update ====================

func (s *taskService) Edit(session authz.Session, id uint) (*models.Task, error) {
	return s.loadForChange(session, authz.EditTask, id)
}

func (s *taskService) Update(session authz.Session, id uint, input TaskInput) (*TaskResult, error) {
	task, err := s.loadForChange(session, authz.UpdateTask, id)
	if err != nil {
		return nil, err
	}

	errs := applyInput(task, input)

	result, err := s.save(task, errs, s.taskRepo.Update)
	if err != nil {
		s.logger.Error("❌ [TaskService] Failed to update task", "task_id", id, "error", err)
		return nil, err
	}

	if result.Persisted() {
		s.logger.Info("✅ [TaskService] Task updated", "task_id", id, "user_id", session.UserID)
	}
	return result, nil
}

// ==================== Delete ====================

func (s *taskService) RequestDelete(session authz.Session, id uint) (*DeleteConfirmation, error) {
	task, err := s.loadForChange(session, authz.DeleteTask, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(s.confirmTTL)

	token, err := signToken(s.jwtSecret, jwt.MapClaims{
		"task_id": task.ID,
		"user_id": session.UserID,
		"type":    tokenTypeDeleteConfirmation,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	})
	if err != nil {
		s.logger.Error("❌ [TaskService] Failed to sign delete confirmation", "error", err)
		return nil, err
	}

	return &DeleteConfirmation{
		Task:      task,
		Prompt:    DeletePrompt,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *taskService) ConfirmDelete(session authz.Session, id uint, token string) (*models.Task, error) {
	if err := s.gate.CheckAccess(session, authz.DeleteTask); err != nil {
		return nil, err
	}

	claims, err := parseToken(s.jwtSecret, token, tokenTypeDeleteConfirmation)
	if err != nil {
		s.logger.Warn("⚠️ [TaskService] Invalid delete confirmation", "error", err)
		return nil, ErrInvalidConfirmation
	}

	taskID, ok := claimUint(claims, "task_id")
	if !ok {
		return nil, ErrInvalidConfirmation
	}
	if taskID != id {
		s.logger.Warn("⚠️ [TaskService] Delete confirmation issued for another task", "task_id", id, "token_task_id", taskID)
		return nil, ErrInvalidConfirmation
	}
	if userID, ok := claimUint(claims, "user_id"); !ok || userID != session.UserID {
		s.logger.Warn("⚠️ [TaskService] Delete confirmation issued to another user", "task_id", taskID)
		return nil, ErrInvalidConfirmation
	}

	task, err := s.loadForChange(session, authz.DeleteTask, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		s.logger.Error("❌ [TaskService] Failed to delete task", "task_id", task.ID, "error", err)
		return nil, err
	}

	s.logger.Info("🗑️ [TaskService] Task destroyed", "task_id", task.ID, "user_id", session.UserID)
	return task, nil
}

// ==================== Helpers ====================

// loadForChange checks the login before touching the store, then the ownership policy
func (s *taskService) loadForChange(session authz.Session, op authz.Operation, id uint) (*models.Task, error) {
	if err := s.gate.CheckAccess(session, op); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Authorize(session, op, task.UserID); err != nil {
		s.logger.Warn("⚠️ [TaskService] Change denied", "op", op.String(), "task_id", id, "user_id", session.UserID)
		return nil, err
	}
	return task, nil
}

// save validates task and hands it to write. A duplicate key reported by the
// store is folded into the same title error the pre-check produces.
func (s *taskService) save(task *models.Task, errs *validation.Errors, write func(*models.Task) error) (*TaskResult, error) {
	checked, err := s.validate(task)
	if err != nil {
		return nil, err
	}
	// Input errors (unparseable deadline) follow the field rules
	checked.Merge(errs)
	errs = checked

	if !errs.Empty() {
		return &TaskResult{State: StateRejected, Task: task, Errors: errs}, nil
	}

	if err := write(task); err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			errs.Add("title", validation.MsgTaken)
			return &TaskResult{State: StateRejected, Task: task, Errors: errs}, nil
		}
		return nil, err
	}

	return &TaskResult{State: StatePersisted, Task: task, Errors: errs}, nil
}

// validate runs the field rules plus title uniqueness, keeping title errors first
func (s *taskService) validate(task *models.Task) (*validation.Errors, error) {
	fieldErrs := s.validator.Struct(task)
	errs := &validation.Errors{}

	for _, msg := range fieldErrs.On("title") {
		errs.Add("title", msg)
	}

	if len(errs.On("title")) == 0 {
		taken, err := s.taskRepo.TitleTaken(task.Title, task.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("title", validation.MsgTaken)
		}
	}

	errs.Merge(fieldErrs)
	return errs, nil
}

func applyInput(task *models.Task, input TaskInput) *validation.Errors {
	errs := &validation.Errors{}

	// Titles are stored as typed; uniqueness is an exact match
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Content != nil {
		task.Content = *input.Content
	}
	if input.Status != nil {
		task.Status = models.TaskStatus(strings.TrimSpace(*input.Status))
	}
	if input.Deadline != nil {
		raw := strings.TrimSpace(*input.Deadline)
		if raw == "" {
			task.Deadline = nil
		} else if deadline, err := ParseDeadline(raw); err != nil {
			errs.Add("deadline", validation.MsgInvalid)
		} else {
			task.Deadline = &deadline
		}
	}

	return errs
}

// ParseDeadline accepts the datetime-local form value and a few common layouts, returning UTC
func ParseDeadline(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range deadlineLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Service errors
var (
	ErrInvalidConfirmation = errors.New("delete confirmation is invalid or expired")
)
