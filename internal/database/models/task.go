package models

import (
	"time"
)

// TaskStatus is the workflow state of a task
type TaskStatus string

const (
	TaskStatusTodo  TaskStatus = "todo"
	TaskStatusDoing TaskStatus = "doing"
	TaskStatusDone  TaskStatus = "done"
)

// TaskStatuses lists the selectable statuses in display order
func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusTodo, TaskStatusDoing, TaskStatusDone}
}

// IsValid reports whether the status is one of the known values
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusDoing, TaskStatusDone:
		return true
	}
	return false
}

// Task is a titled work item. Titles are unique across all users.
type Task struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	Title     string     `gorm:"uniqueIndex:idx_tasks_title;not null" json:"title" validate:"notblank"`
	Content   string     `gorm:"type:text" json:"content"`
	Status    TaskStatus `gorm:"not null;default:todo" json:"status" validate:"notblank,oneof=todo doing done"`
	Deadline  *time.Time `json:"deadline"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name
func (Task) TableName() string {
	return "tasks"
}
