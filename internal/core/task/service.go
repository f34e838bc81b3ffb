package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/event"
)

// AutoCompleteNote は自動完了時に記録されるメモです。
const AutoCompleteNote = "Automatically completed after all mandatory documents were approved by HR."

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service はタスクのライフサイクルを管理します。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase はタスクユースケースの公開インターフェースです。
type UseCase interface {
	InitializeTasks(ctx context.Context, employeeID string) ([]*Task, error)
	CompleteTask(ctx context.Context, in CompleteTaskInput) (*Task, error)
	AutoCompleteDocumentTask(ctx context.Context, employeeID string) (bool, error)
	ListTasks(ctx context.Context, employeeID string) ([]*Task, error)
}

var _ event.MandatoryDocumentsApprovedHandler = (*Service)(nil)

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CompleteTaskInput はタスク手動完了時の入力です。
type CompleteTaskInput struct {
	EmployeeID string
	TaskType   string
	Notes      *string
}

// InitializeTasks は新規社員に全種別のタスクを PENDING で生成します。
// 呼び出し側は社員が新規であることを保証します。
func (s *Service) InitializeTasks(ctx context.Context, employeeID string) ([]*Task, error) {
	empID, err := normalizeEmployeeID(employeeID)
	if err != nil {
		return nil, err
	}

	var created []*Task
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		types := AllTypes()
		tasks := make([]*Task, 0, len(types))
		for _, t := range types {
			tasks = append(tasks, &Task{
				EmployeeID:  empID,
				Type:        t,
				Description: t.Description(),
				Status:      StatusPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}

		result, err := s.repo.CreateBatch(txCtx, tasks)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// CompleteTask はタスクを手動で完了させます。完了済みの場合は ErrTaskAlreadyCompleted を返します。
func (s *Service) CompleteTask(ctx context.Context, in CompleteTaskInput) (*Task, error) {
	empID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}

	taskType, ok := ParseType(strings.ToUpper(strings.TrimSpace(in.TaskType)))
	if !ok {
		return nil, ErrTaskNotFound
	}

	var completed *Task
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		t, err := s.repo.LockByEmployeeAndType(txCtx, empID, taskType)
		if err != nil {
			return err
		}
		if t.IsCompleted() {
			return ErrTaskAlreadyCompleted
		}

		now := s.clock.Now()
		t.Status = StatusCompleted
		t.CompletedAt = &now
		t.Notes = normalizeNotes(in.Notes)
		t.UpdatedAt = now

		result, err := s.repo.Update(txCtx, t)
		if err != nil {
			return err
		}
		completed = result
		return nil
	}); err != nil {
		return nil, err
	}

	return completed, nil
}

// AutoCompleteDocumentTask は DOCUMENT_SUBMISSION タスクを自動完了させます。
// タスクが存在しない、または完了済みの場合は何もせず false を返します。
func (s *Service) AutoCompleteDocumentTask(ctx context.Context, employeeID string) (bool, error) {
	empID, err := normalizeEmployeeID(employeeID)
	if err != nil {
		return false, err
	}

	changed := false
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		t, err := s.repo.LockByEmployeeAndType(txCtx, empID, TypeDocumentSubmission)
		if err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				return nil
			}
			return err
		}
		if t.Status != StatusPending {
			return nil
		}

		now := s.clock.Now()
		note := AutoCompleteNote
		t.Status = StatusCompleted
		t.CompletedAt = &now
		t.Notes = &note
		t.UpdatedAt = now

		if _, err := s.repo.Update(txCtx, t); err != nil {
			return err
		}
		changed = true
		return nil
	}); err != nil {
		return false, err
	}

	return changed, nil
}

// HandleMandatoryDocumentsApproved は必須書類承認イベントを受けて書類提出タスクを自動完了します。
func (s *Service) HandleMandatoryDocumentsApproved(ctx context.Context, ev event.MandatoryDocumentsApproved) error {
	_, err := s.AutoCompleteDocumentTask(ctx, ev.EmployeeID)
	return err
}

// ListTasks は社員のタスク一覧を返します。
func (s *Service) ListTasks(ctx context.Context, employeeID string) ([]*Task, error) {
	empID, err := normalizeEmployeeID(employeeID)
	if err != nil {
		return nil, err
	}

	var tasks []*Task
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListByEmployee(txCtx, empID)
		if err != nil {
			return err
		}
		tasks = result
		return nil
	}); err != nil {
		return nil, err
	}
	return tasks, nil
}

func normalizeEmployeeID(raw string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidEmployeeID
	}
	return parsed.String(), nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
