package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/tasktracker/internal/authz"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/models"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/repository"
	"github.com/EgehanKilicarslan/tasktracker/internal/database/service"
	"github.com/EgehanKilicarslan/tasktracker/internal/testutil"
)

type taskFixture struct {
	db      *gorm.DB
	repo    repository.TaskRepository
	svc     service.TaskService
	owner   *models.User
	session authz.Session
}

func setupTaskService(t *testing.T, policy authz.Policy) *taskFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	repo := repository.NewTaskRepository(db)
	owner := testutil.CreateUser(t, db)

	return &taskFixture{
		db:      db,
		repo:    repo,
		svc:     service.NewTaskService(repo, authz.NewGate(policy), testutil.TestConfig(), testutil.TestLogger()),
		owner:   owner,
		session: authz.Session{ID: "sid", UserID: owner.ID, Email: owner.Email},
	}
}

func strPtr(s string) *string {
	return &s
}

func taskInput(title, content, status, deadline string) service.TaskInput {
	return service.TaskInput{
		Title:    strPtr(title),
		Content:  strPtr(content),
		Status:   strPtr(status),
		Deadline: strPtr(deadline),
	}
}

// ==================== CREATE ====================

func TestTaskService_Create(t *testing.T) {
	f := setupTaskService(t, authz.PolicyAnyUser)

	result, err := f.svc.Create(f.session, taskInput("foobar", "hogehoge", "todo", "2021-02-28T10:30"))
	require.NoError(t, err)
	require.True(t, result.Persisted())
	assert.True(t, result.Errors.Empty())

	stored, err := f.repo.FindByID(result.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, "foobar", stored.Title)
	assert.Equal(t, "hogehoge", stored.Content)
	assert.Equal(t, models.TaskStatusTodo, stored.Status)
	assert.Equal(t, f.owner.ID, stored.UserID)
	require.NotNil(t, stored.Deadline)
	assert.True(t, time.Date(2021, 2, 28, 10, 30, 0, 0, time.UTC).Equal(*stored.Deadline))
}

func TestTaskService_Create_Rejected(t *testing.T) {
	tests := []struct {
		name         string
		input        service.TaskInput
		wantMessages []string
	}{
		{
			name:         "blank title",
			input:        taskInput("", "hogehoge", "todo", ""),
			wantMessages: []string{"Title can't be blank"},
		},
		{
			name:         "whitespace title",
			input:        taskInput("   ", "hogehoge", "todo", ""),
			wantMessages: []string{"Title can't be blank"},
		},
		{
			name:         "duplicate title",
			input:        taskInput("existing", "hogehoge", "todo", ""),
			wantMessages: []string{"Title has already been taken"},
		},
		{
			name:         "blank status",
			input:        taskInput("fresh", "", "", ""),
			wantMessages: []string{"Status can't be blank"},
		},
		{
			name:         "unknown status",
			input:        taskInput("fresh", "", "archived", ""),
			wantMessages: []string{"Status is not included in the list"},
		},
		{
			name:         "unparseable deadline",
			input:        taskInput("fresh", "", "todo", "tomorrow-ish"),
			wantMessages: []string{"Deadline is invalid"},
		},
		{
			name:         "errors accumulate with title first",
			input:        taskInput("", "", "", "nope"),
			wantMessages: []string{"Title can't be blank", "Status can't be blank", "Deadline is invalid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTaskService(t, authz.PolicyAnyUser)
			testutil.CreateTask(t, f.db, f.owner, testutil.WithTitle("existing"))

			result, err := f.svc.Create(f.session, tt.input)
			require.NoError(t, err)
			assert.False(t, result.Persisted())
			assert.Equal(t, service.StateRejected, result.State)
			assert.Equal(t, tt.wantMessages, result.Errors.FullMessages())

			count, err := f.repo.Count()
			require.NoError(t, err)
			assert.Equal(t, int64(1), count, "no record is stored")
		})
	}
}

func TestTaskService_Create_TitlesMatchExactly(t *testing.T) {
	f := setupTaskService(t, authz.PolicyAnyUser)

	padded, err := f.svc.Create(f.session, taskInput("foobar ", "", "todo", ""))
	require.NoError(t, err)
	require.True(t, padded.Persisted())

	plain, err := f.svc.Create(f.session, taskInput("foobar", "", "todo", ""))
	require.NoError(t, err)
	require.True(t, plain.Persisted(), "trailing space makes a different title")

	upper, err := f.svc.Create(f.session, taskInput("FOOBAR", "", "todo", ""))
	require.NoError(t, err)
	require.True(t, upper.Persisted(), "titles are case-sensitive")

	stored, err := f.repo.FindByID(padded.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, "foobar ", stored.Title)

	count, err := f.repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestTaskService_Create_OmittedStatusDefaultsToTodo(t *testing.T) {
	f := setupTaskService(t, authz.PolicyAnyUser)

	result, err := f.svc.Create(f.session, service.TaskInput{Title: strPtr("no status")})
	require.NoError(t, err)
	require.True(t, result.Persisted())
	assert.Equal(t, models.TaskStatusTodo, result.Task.Status)
}

func TestTaskService_Create_TitleRaceFoldsIntoValidationError(t *testing.T) {
	repo := new(testutil.MockTaskRepository)
	svc := service.NewTaskService(repo, authz.NewGate(authz.PolicyAnyUser), testutil.TestConfig(), testutil.TestLogger())

	// The pre-check passes, then a concurrent insert wins the unique index
	repo.On("TitleTaken", "contested", uint(0)).Return(false, nil)
	repo.On("Create", mock.AnythingOfType("*models.Task")).Return(repository.ErrDuplicateTitle)

	result, err := svc.Create(authz.Session{ID: "sid", UserID: 1}, taskInput("contested", "", "todo", ""))
	require.NoError(t, err)
	assert.False(t, result.Persisted())
	assert.Equal(t, []string{"Title has already been taken"}, result.Errors.FullMessages())
	repo.AssertExpectations(t)
}

func TestTaskService_Create_RequiresLogin(t *testing.T) {
	f := setupTaskService(t, authz.PolicyAnyUser)

	_, err := f.svc.Create(authz.Anonymous(), taskInput("foobar", "", "todo", ""))
	assert.ErrorIs(t, err, authz.ErrLoginRequired)

	_, err = f.svc.New(authz.Anonymous())
	assert.ErrorIs(t, err, authz.ErrLoginRequired)

	count, err := f.repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

// ==================== READ ====================

func TestTaskService_Get(t *testing.T) {
	f := setupTaskService(t, authz.PolicyAnyUser)
	task := testutil.CreateTask(t, f.db, f.owner)
	other := testutil.CreateTask(t, f.db, f.owner)

	found, err := f.svc.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, found.Title)

	// Reading a different task leaves the first one untouched
	unrelated, err := f.svc.Get(other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, unrelated.ID)

	again, err := f.svc.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, found, again)

	_, err = f.svc.Get(9999)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}

func TestTaskService_List(t *testing.T) {
	f := setupTaskService(t, authz.PolicyAnyUser)
	testutil.CreateTask(t, f.db, f.owner)
	testutil.CreateTask(t, f.db, f.owner)

	tasks, err := f.svc.List()
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

// ==================== UPDATE ====================

func TestTaskService_Update(t *testing.T) {
	f := setupTaskService(t, authz.PolicyAnyUser)
	task := testutil.CreateTask(t, f.db, f.owner, testutil.WithTitle("before"))

	t.Run("success", func(t *testing.T) {
		result, err := f.svc.Update(f.session, task.ID, taskInput("after", "updated", "doing", ""))
		require.NoError(t, err)
		require.True(t, result.Persisted())

		stored, err := f.repo.FindByID(task.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", stored.Title)
		assert.Equal(t, models.TaskStatusDoing, stored.Status)
		assert.Nil(t, stored.Deadline)
	})

	t.Run("keeping its own title is not a duplicate", func(t *testing.T) {
		result, err := f.svc.Update(f.session, task.ID, service.TaskInput{Content: strPtr("only content")})
		require.NoError(t, err)
		assert.True(t, result.Persisted())
	})

	t.Run("blank title keeps the stored title", func(t *testing.T) {
		result, err := f.svc.Update(f.session, task.ID, service.TaskInput{Title: strPtr("")})
		require.NoError(t, err)
		assert.False(t, result.Persisted())
		assert.Equal(t, []string{"Title can't be blank"}, result.Errors.FullMessages())

		stored, err := f.repo.FindByID(task.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", stored.Title)
	})

	t.Run("title of another task", func(t *testing.T) {
		other := testutil.CreateTask(t, f.db, f.owner)
		result, err := f.svc.Update(f.session, task.ID, service.TaskInput{Title: strPtr(other.Title)})
		require.NoError(t, err)
		assert.Equal(t, []string{"Title has already been taken"}, result.Errors.FullMessages())
	})

	t.Run("missing task", func(t *testing.T) {
		_, err := f.svc.Update(f.session, 9999, taskInput("x", "", "todo", ""))
		assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.svc.Update(authz.Anonymous(), task.ID, taskInput("x", "", "todo", ""))
		assert.ErrorIs(t, err, authz.ErrLoginRequired)

		_, err = f.svc.Edit(authz.Anonymous(), 9999)
		assert.ErrorIs(t, err, authz.ErrLoginRequired, "login is checked before the lookup")
	})
}

func TestTaskService_OwnershipPolicy(t *testing.T) {
	tests := []struct {
		name    string
		policy  authz.Policy
		wantErr error
	}{
		{name: "any user may edit", policy: authz.PolicyAnyUser},
		{name: "only the owner may edit", policy: authz.PolicyOwner, wantErr: authz.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTaskService(t, tt.policy)
			task := testutil.CreateTask(t, f.db, f.owner)
			stranger := testutil.CreateUser(t, f.db)
			session := authz.Session{ID: "other", UserID: stranger.ID}

			_, editErr := f.svc.Edit(session, task.ID)
			_, updateErr := f.svc.Update(session, task.ID, service.TaskInput{Content: strPtr("hijack")})
			_, deleteErr := f.svc.RequestDelete(session, task.ID)

			if tt.wantErr == nil {
				assert.NoError(t, editErr)
				assert.NoError(t, updateErr)
				assert.NoError(t, deleteErr)
				return
			}
			assert.ErrorIs(t, editErr, tt.wantErr)
			assert.ErrorIs(t, updateErr, tt.wantErr)
			assert.ErrorIs(t, deleteErr, tt.wantErr)

			// The owner is unaffected
			_, err := f.svc.Edit(f.session, task.ID)
			assert.NoError(t, err)
		})
	}
}

// ==================== DELETE ====================

func TestTaskService_Delete(t *testing.T) {
	f := setupTaskService(t, authz.PolicyAnyUser)
	task := testutil.CreateTask(t, f.db, f.owner)

	confirmation, err := f.svc.RequestDelete(f.session, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Are you sure?", confirmation.Prompt)
	assert.Equal(t, task.ID, confirmation.Task.ID)
	assert.NotEmpty(t, confirmation.Token)

	// Nothing is removed until the confirmation comes back
	_, err = f.repo.FindByID(task.ID)
	require.NoError(t, err)

	deleted, err := f.svc.ConfirmDelete(f.session, task.ID, confirmation.Token)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)

	_, err = f.repo.FindByID(task.ID)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)

	// A used token points at nothing
	_, err = f.svc.ConfirmDelete(f.session, task.ID, confirmation.Token)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}

func TestTaskService_ConfirmDelete_Rejects(t *testing.T) {
	f := setupTaskService(t, authz.PolicyAnyUser)
	task := testutil.CreateTask(t, f.db, f.owner)

	confirmation, err := f.svc.RequestDelete(f.session, task.ID)
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.svc.ConfirmDelete(f.session, task.ID, "garbage")
		assert.ErrorIs(t, err, service.ErrInvalidConfirmation)
	})

	t.Run("token issued to another user", func(t *testing.T) {
		stranger := testutil.CreateUser(t, f.db)
		_, err := f.svc.ConfirmDelete(authz.Session{ID: "x", UserID: stranger.ID}, task.ID, confirmation.Token)
		assert.ErrorIs(t, err, service.ErrInvalidConfirmation)
	})

	t.Run("token issued for another task", func(t *testing.T) {
		other := testutil.CreateTask(t, f.db, f.owner)
		_, err := f.svc.ConfirmDelete(f.session, other.ID, confirmation.Token)
		assert.ErrorIs(t, err, service.ErrInvalidConfirmation)

		_, err = f.repo.FindByID(other.ID)
		assert.NoError(t, err)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.svc.ConfirmDelete(authz.Anonymous(), task.ID, confirmation.Token)
		assert.ErrorIs(t, err, authz.ErrLoginRequired)
	})

	t.Run("expired token", func(t *testing.T) {
		cfg := testutil.TestConfig()
		cfg.DeleteConfirmationTTL = -1
		shortLived := service.NewTaskService(f.repo, authz.NewGate(authz.PolicyAnyUser), cfg, testutil.TestLogger())

		stale, err := shortLived.RequestDelete(f.session, task.ID)
		require.NoError(t, err)

		_, err = shortLived.ConfirmDelete(f.session, task.ID, stale.Token)
		assert.ErrorIs(t, err, service.ErrInvalidConfirmation)
	})

	_, err = f.repo.FindByID(task.ID)
	assert.NoError(t, err, "task survives every rejected confirmation")
}

// ==================== DEADLINES ====================

func TestParseDeadline(t *testing.T) {
	want := time.Date(2021, 2, 28, 10, 30, 0, 0, time.UTC)

	for _, raw := range []string{"2021-02-28T10:30", "2021-02-28T10:30:00", "2021-02-28T10:30:00Z", "2021-02-28 10:30", "2021/2/28 10:30"} {
		t.Run(raw, func(t *testing.T) {
			got, err := service.ParseDeadline(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got))
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := service.ParseDeadline("someday")
	assert.Error(t, err)
}
