package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/apperr"
	"github.com/ogurasousui/onboarding-engine/internal/core/event"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakeRepo struct {
	tasks   map[string]*Task
	order   []string
	updates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: make(map[string]*Task)}
}

func (r *fakeRepo) CreateBatch(_ context.Context, tasks []*Task) ([]*Task, error) {
	created := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		for _, existing := range r.tasks {
			if existing.EmployeeID == t.EmployeeID && existing.Type == t.Type {
				return nil, ErrTasksAlreadyExist
			}
		}
		copy := *t
		copy.ID = uuid.NewString()
		r.tasks[copy.ID] = &copy
		r.order = append(r.order, copy.ID)
		out := copy
		created = append(created, &out)
	}
	return created, nil
}

func (r *fakeRepo) Update(_ context.Context, t *Task) (*Task, error) {
	if _, ok := r.tasks[t.ID]; !ok {
		return nil, ErrTaskNotFound
	}
	copy := *t
	r.tasks[t.ID] = &copy
	r.updates++
	out := copy
	return &out, nil
}

func (r *fakeRepo) FindByEmployeeAndType(_ context.Context, employeeID string, taskType Type) (*Task, error) {
	for _, t := range r.tasks {
		if t.EmployeeID == employeeID && t.Type == taskType {
			copy := *t
			return &copy, nil
		}
	}
	return nil, ErrTaskNotFound
}

func (r *fakeRepo) LockByEmployeeAndType(ctx context.Context, employeeID string, taskType Type) (*Task, error) {
	return r.FindByEmployeeAndType(ctx, employeeID, taskType)
}

func (r *fakeRepo) ListByEmployee(_ context.Context, employeeID string) ([]*Task, error) {
	var tasks []*Task
	for _, id := range r.order {
		if t := r.tasks[id]; t.EmployeeID == employeeID {
			copy := *t
			tasks = append(tasks, &copy)
		}
	}
	return tasks, nil
}

type recordingTx struct {
	readWrite int
	readOnly  int
}

func (tx *recordingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	tx.readOnly++
	return fn(ctx)
}

func (tx *recordingTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	tx.readWrite++
	return fn(ctx)
}

func TestService_InitializeTasks(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	tx := &recordingTx{}
	svc := NewService(repo, stubClock{now: now}, tx)
	empID := uuid.NewString()

	tasks, err := svc.InitializeTasks(context.Background(), empID)
	if err != nil {
		t.Fatalf("InitializeTasks returned error: %v", err)
	}
	if len(tasks) != len(AllTypes()) {
		t.Fatalf("expected %d tasks, got %d", len(AllTypes()), len(tasks))
	}
	for i, task := range tasks {
		if task.Type != AllTypes()[i] {
			t.Fatalf("unexpected type order: %v", task.Type)
		}
		if task.Status != StatusPending || task.CompletedAt != nil {
			t.Fatalf("expected pending task, got %+v", task)
		}
		if task.Description != task.Type.Description() || task.Description == "" {
			t.Fatalf("expected default description, got %q", task.Description)
		}
		if !task.CreatedAt.Equal(now) {
			t.Fatalf("expected clock timestamp")
		}
	}
	if tx.readWrite != 1 {
		t.Fatalf("expected single read-write transaction, got %d", tx.readWrite)
	}

	if _, err := svc.InitializeTasks(context.Background(), "emp-1"); !errors.Is(err, ErrInvalidEmployeeID) {
		t.Fatalf("expected ErrInvalidEmployeeID, got %v", err)
	}
}

func TestService_CompleteTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	svc := NewService(repo, stubClock{now: now}, nil)
	ctx := context.Background()
	empID := uuid.NewString()
	if _, err := svc.InitializeTasks(ctx, empID); err != nil {
		t.Fatalf("InitializeTasks returned error: %v", err)
	}

	notes := "  signed the handbook "
	completed, err := svc.CompleteTask(ctx, CompleteTaskInput{EmployeeID: empID, TaskType: " policy_acknowledgment ", Notes: &notes})
	if err != nil {
		t.Fatalf("CompleteTask returned error: %v", err)
	}
	if completed.Status != StatusCompleted || completed.CompletedAt == nil || !completed.CompletedAt.Equal(now) {
		t.Fatalf("expected completed task stamped with clock, got %+v", completed)
	}
	if completed.Notes == nil || *completed.Notes != "signed the handbook" {
		t.Fatalf("expected trimmed notes, got %v", completed.Notes)
	}

	_, err = svc.CompleteTask(ctx, CompleteTaskInput{EmployeeID: empID, TaskType: "POLICY_ACKNOWLEDGMENT"})
	if !errors.Is(err, ErrTaskAlreadyCompleted) || !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on second completion, got %v", err)
	}

	orientation, err := svc.CompleteTask(ctx, CompleteTaskInput{EmployeeID: empID, TaskType: "ORIENTATION_SESSION"})
	if err != nil {
		t.Fatalf("CompleteTask returned error: %v", err)
	}
	if orientation.Notes != nil {
		t.Fatalf("expected nil notes, got %v", *orientation.Notes)
	}
}

func TestService_CompleteTask_NotFound(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil, nil)
	ctx := context.Background()
	empID := uuid.NewString()
	if _, err := svc.InitializeTasks(ctx, empID); err != nil {
		t.Fatalf("InitializeTasks returned error: %v", err)
	}

	if _, err := svc.CompleteTask(ctx, CompleteTaskInput{EmployeeID: empID, TaskType: "BACKGROUND_CHECK"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for unknown type, got %v", err)
	}
	if _, err := svc.CompleteTask(ctx, CompleteTaskInput{EmployeeID: uuid.NewString(), TaskType: "ORIENTATION_SESSION"}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound for unknown employee, got %v", err)
	}
}

func TestService_AutoCompleteDocumentTask(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	empID := uuid.NewString()

	changed, err := svc.AutoCompleteDocumentTask(ctx, empID)
	if err != nil || changed {
		t.Fatalf("expected no-op without tasks, got changed=%v err=%v", changed, err)
	}

	if _, err := svc.InitializeTasks(ctx, empID); err != nil {
		t.Fatalf("InitializeTasks returned error: %v", err)
	}

	changed, err = svc.AutoCompleteDocumentTask(ctx, empID)
	if err != nil || !changed {
		t.Fatalf("expected auto completion, got changed=%v err=%v", changed, err)
	}
	found, err := repo.FindByEmployeeAndType(ctx, empID, TypeDocumentSubmission)
	if err != nil {
		t.Fatalf("FindByEmployeeAndType returned error: %v", err)
	}
	if !found.IsCompleted() || found.Notes == nil || *found.Notes != AutoCompleteNote {
		t.Fatalf("expected system note, got %+v", found)
	}

	updates := repo.updates
	changed, err = svc.AutoCompleteDocumentTask(ctx, empID)
	if err != nil || changed {
		t.Fatalf("expected idempotent no-op, got changed=%v err=%v", changed, err)
	}
	if repo.updates != updates {
		t.Fatalf("expected no additional writes")
	}
}

func TestService_HandleMandatoryDocumentsApproved(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	empID := uuid.NewString()
	if _, err := svc.InitializeTasks(ctx, empID); err != nil {
		t.Fatalf("InitializeTasks returned error: %v", err)
	}

	dispatcher := event.NewDispatcher()
	dispatcher.Subscribe(svc)
	if err := dispatcher.PublishMandatoryDocumentsApproved(ctx, event.MandatoryDocumentsApproved{EmployeeID: empID}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	tasks, err := svc.ListTasks(ctx, empID)
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	for _, task := range tasks {
		want := task.Type == TypeDocumentSubmission
		if task.IsCompleted() != want {
			t.Fatalf("unexpected completion state for %s: %v", task.Type, task.Status)
		}
	}
}
