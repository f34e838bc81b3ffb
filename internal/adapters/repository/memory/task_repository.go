package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
)

// TaskRepository は task.Repository のメモリ実装です。
type TaskRepository struct {
	store *Store
}

// NewTaskRepository は TaskRepository を生成します。
func NewTaskRepository(store *Store) *TaskRepository {
	return &TaskRepository{store: store}
}

// CreateBatch はタスクをまとめて保存します。1 件でも重複があれば何も保存しません。
func (r *TaskRepository) CreateBatch(_ context.Context, tasks []*task.Task) ([]*task.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, t := range tasks {
		if _, ok := r.store.data.employees[t.EmployeeID]; !ok {
			return nil, task.ErrInvalidEmployeeID
		}
		for _, e := range r.store.data.tasks {
			if e.value.EmployeeID == t.EmployeeID && e.value.Type == t.Type {
				return nil, task.ErrTasksAlreadyExist
			}
		}
	}

	created := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		v := *t
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		r.store.data.tasks[v.ID] = entry[task.Task]{seq: r.store.nextSeq(), value: v}
		created = append(created, ptr(v))
	}
	return created, nil
}

// Update はタスクの状態を更新します。
func (r *TaskRepository) Update(_ context.Context, t *task.Task) (*task.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.data.tasks[t.ID]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	e.value.Status = t.Status
	e.value.CompletedAt = t.CompletedAt
	e.value.Notes = t.Notes
	e.value.UpdatedAt = t.UpdatedAt
	r.store.data.tasks[t.ID] = e
	return ptr(e.value), nil
}

// FindByEmployeeAndType は社員と種別でタスクを取得します。
func (r *TaskRepository) FindByEmployeeAndType(_ context.Context, employeeID string, taskType task.Type) (*task.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.data.tasks {
		if e.value.EmployeeID == employeeID && e.value.Type == taskType {
			return ptr(e.value), nil
		}
	}
	return nil, task.ErrTaskNotFound
}

// LockByEmployeeAndType は FindByEmployeeAndType と同じです。
func (r *TaskRepository) LockByEmployeeAndType(ctx context.Context, employeeID string, taskType task.Type) (*task.Task, error) {
	return r.FindByEmployeeAndType(ctx, employeeID, taskType)
}

// ListByEmployee は社員のタスクを作成順に返します。
func (r *TaskRepository) ListByEmployee(_ context.Context, employeeID string) ([]*task.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	values := r.store.data.tasks.sorted(func(t task.Task) bool { return t.EmployeeID == employeeID })
	tasks := make([]*task.Task, 0, len(values))
	for _, t := range values {
		tasks = append(tasks, ptr(t))
	}
	return tasks, nil
}
