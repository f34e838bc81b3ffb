package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var taskRowColumns = []string{"id", "employee_id", "task_type", "description", "status", "completed_at", "notes", "created_at", "updated_at"}

func TestTaskRepository_CreateBatch(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTaskRepository(mock)
	now := time.Now().UTC()

	tasks := make([]*task.Task, 0, 2)
	for i, tt := range []task.Type{task.TypePolicyAcknowledgment, task.TypeOrientationSession} {
		tasks = append(tasks, &task.Task{
			EmployeeID:  "emp-1",
			Type:        tt,
			Description: tt.Description(),
			Status:      task.StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO onboarding_tasks`)).
			WithArgs("emp-1", string(tt), tt.Description(), "PENDING", nil, nil, now, now).
			WillReturnRows(pgxmock.NewRows(taskRowColumns).
				AddRow([]string{"task-1", "task-2"}[i], "emp-1", string(tt), tt.Description(), "PENDING", nil, nil, now, now))
	}

	created, err := repo.CreateBatch(context.Background(), tasks)
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}
	if len(created) != 2 || created[1].ID != "task-2" {
		t.Fatalf("unexpected tasks %+v", created)
	}
	if created[0].CompletedAt != nil || created[0].Notes != nil {
		t.Fatalf("expected nil completion fields, got %+v", created[0])
	}
}

func TestTaskRepository_LockByEmployeeAndType(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTaskRepository(mock)
	now := time.Now().UTC()
	note := "done"

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE employee_id = $1 AND task_type = $2 LIMIT 1 FOR UPDATE`)).
		WithArgs("emp-1", "ORIENTATION_SESSION").
		WillReturnRows(pgxmock.NewRows(taskRowColumns).
			AddRow("task-1", "emp-1", "ORIENTATION_SESSION", "Attend orientation", "COMPLETED", now, note, now, now))

	found, err := repo.LockByEmployeeAndType(context.Background(), "emp-1", task.TypeOrientationSession)
	if err != nil {
		t.Fatalf("LockByEmployeeAndType returned error: %v", err)
	}
	if found.CompletedAt == nil || found.Notes == nil || *found.Notes != note {
		t.Fatalf("unexpected task %+v", found)
	}
}

func TestTaskRepository_FindByEmployeeAndType_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTaskRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM onboarding_tasks`)).
		WithArgs("emp-1", "POLICY_ACKNOWLEDGMENT").
		WillReturnRows(pgxmock.NewRows(taskRowColumns))

	if _, err := repo.FindByEmployeeAndType(context.Background(), "emp-1", task.TypePolicyAcknowledgment); !errors.Is(err, task.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTranslateTaskPgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translateTaskPgError(&pgconn.PgError{Code: uniqueViolationCode}), task.ErrTasksAlreadyExist) {
		t.Fatal("expected unique violation to map to ErrTasksAlreadyExist")
	}
	if !errors.Is(translateTaskPgError(&pgconn.PgError{Code: foreignKeyViolationCode}), task.ErrInvalidEmployeeID) {
		t.Fatal("expected fk violation to map to ErrInvalidEmployeeID")
	}
}
