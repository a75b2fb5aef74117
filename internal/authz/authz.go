// Package authz decides whether a session may perform a task operation.
package authz

import (
	"errors"
	"strings"
)

// Operation identifies a task endpoint
type Operation int

const (
	ListTasks Operation = iota
	ShowTask
	NewTask
	CreateTask
	EditTask
	UpdateTask
	DeleteTask
)

func (op Operation) String() string {
	switch op {
	case ListTasks:
		return "list_tasks"
	case ShowTask:
		return "show_task"
	case NewTask:
		return "new_task"
	case CreateTask:
		return "create_task"
	case EditTask:
		return "edit_task"
	case UpdateTask:
		return "update_task"
	case DeleteTask:
		return "delete_task"
	default:
		return "unknown"
	}
}

// Access is the session requirement of an operation
type Access int

const (
	PublicRead Access = iota
	AuthenticatedRequired
)

// Classify maps an operation to its access class. Unknown operations require a login.
func Classify(op Operation) Access {
	switch op {
	case ListTasks, ShowTask:
		return PublicRead
	default:
		return AuthenticatedRequired
	}
}

// Session is the identity attached to a request. The zero value is anonymous.
type Session struct {
	ID     string
	UserID uint
	Email  string
}

// Anonymous returns a session with no user
func Anonymous() Session {
	return Session{}
}

func (s Session) Authenticated() bool {
	return s.UserID != 0
}

// Policy controls who may change an existing task
type Policy string

const (
	// PolicyAnyUser lets any logged in user edit or delete any task
	PolicyAnyUser Policy = "any"
	// PolicyOwner restricts edit and delete to the task's author
	PolicyOwner Policy = "owner"
)

// ParsePolicy reads a policy name, defaulting to PolicyAnyUser
func ParsePolicy(name string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(name))) == PolicyOwner {
		return PolicyOwner
	}
	return PolicyAnyUser
}

// Gate applies the access classes and the ownership policy
type Gate struct {
	policy Policy
}

func NewGate(policy Policy) *Gate {
	return &Gate{policy: policy}
}

func (g *Gate) Policy() Policy {
	return g.policy
}

// CheckAccess applies only the access class of op
func (g *Gate) CheckAccess(session Session, op Operation) error {
	if Classify(op) == AuthenticatedRequired && !session.Authenticated() {
		return ErrLoginRequired
	}
	return nil
}

// Authorize checks session against op. ownerID is the author of the task
// being changed and is ignored for operations that do not target a task.
func (g *Gate) Authorize(session Session, op Operation, ownerID uint) error {
	if err := g.CheckAccess(session, op); err != nil {
		return err
	}

	switch op {
	case EditTask, UpdateTask, DeleteTask:
		if g.policy == PolicyOwner && ownerID != session.UserID {
			return ErrForbidden
		}
	}
	return nil
}

var (
	ErrLoginRequired = errors.New("login required")
	ErrForbidden     = errors.New("not allowed to modify this task")
)
