package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/tasktracker/internal/database/models"
)

// DefaultPassword is the plain-text password of every factory user
const DefaultPassword = "foobar"

var (
	userSeq atomic.Int64
	taskSeq atomic.Int64
)

// BuildUser returns an unsaved user with a unique email
func BuildUser() *models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &models.User{
		Email:    fmt.Sprintf("tester%d@example.com", userSeq.Add(1)),
		Password: string(hashed),
	}
}

// CreateUser stores a user with a unique email and DefaultPassword
func CreateUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := BuildUser()
	require.NoError(t, db.Create(user).Error)
	return user
}

// BuildTask returns an unsaved todo task due tomorrow
func BuildTask(owner *models.User) *models.Task {
	deadline := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Minute)
	return &models.Task{
		Title:    fmt.Sprintf("Task %d", taskSeq.Add(1)),
		Content:  "content",
		Status:   models.TaskStatusTodo,
		Deadline: &deadline,
		UserID:   owner.ID,
	}
}

// CreateTask stores a task owned by owner; opts adjust it before saving
func CreateTask(t *testing.T, db *gorm.DB, owner *models.User, opts ...func(*models.Task)) *models.Task {
	t.Helper()

	task := BuildTask(owner)
	for _, opt := range opts {
		opt(task)
	}
	require.NoError(t, db.Omit("User").Create(task).Error)
	return task
}

// WithTitle sets the task title
func WithTitle(title string) func(*models.Task) {
	return func(task *models.Task) {
		task.Title = title
	}
}
