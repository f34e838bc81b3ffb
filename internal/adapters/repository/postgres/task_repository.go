package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
	pgdb "github.com/ogurasousui/onboarding-engine/internal/platform/db/postgres"
)

const taskColumns = `id, employee_id, task_type, description, status, completed_at, notes, created_at, updated_at`

// TaskRepository は PostgreSQL を利用したオンボーディングタスク永続化の実装です。
type TaskRepository struct {
	pool pgdb.Queryer
}

// NewTaskRepository は TaskRepository を生成します。
func NewTaskRepository(pool pgdb.Queryer) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// CreateBatch はタスクをまとめて作成します。呼び出し側のトランザクション内で 1 件ずつ挿入します。
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []*task.Task) ([]*task.Task, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	created := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		row := exec.QueryRow(ctx, `
            INSERT INTO onboarding_tasks (employee_id, task_type, description, status, completed_at, notes, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING `+taskColumns+`
        `,
			t.EmployeeID,
			string(t.Type),
			t.Description,
			string(t.Status),
			nullableTime(t.CompletedAt),
			nullableString(t.Notes),
			t.CreatedAt,
			t.UpdatedAt,
		)

		saved, err := scanTask(row)
		if err != nil {
			return nil, translateTaskPgError(err)
		}
		created = append(created, saved)
	}
	return created, nil
}

// Update はタスクの状態・完了日時・メモを更新します。
func (r *TaskRepository) Update(ctx context.Context, t *task.Task) (*task.Task, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE onboarding_tasks
           SET status = $1,
               completed_at = $2,
               notes = $3,
               updated_at = $4
         WHERE id = $5
        RETURNING `+taskColumns+`
    `, string(t.Status), nullableTime(t.CompletedAt), nullableString(t.Notes), t.UpdatedAt, t.ID)

	updated, err := scanTask(row)
	if err != nil {
		return nil, translateTaskPgError(err)
	}
	return updated, nil
}

// FindByEmployeeAndType は社員とタスク種別でタスクを取得します。
func (r *TaskRepository) FindByEmployeeAndType(ctx context.Context, employeeID string, taskType task.Type) (*task.Task, error) {
	return r.findOne(ctx, employeeID, taskType, "")
}

// LockByEmployeeAndType は FOR UPDATE でタスク行をロックして取得します。
func (r *TaskRepository) LockByEmployeeAndType(ctx context.Context, employeeID string, taskType task.Type) (*task.Task, error) {
	return r.findOne(ctx, employeeID, taskType, " FOR UPDATE")
}

func (r *TaskRepository) findOne(ctx context.Context, employeeID string, taskType task.Type, lockClause string) (*task.Task, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+taskColumns+`
          FROM onboarding_tasks
         WHERE employee_id = $1 AND task_type = $2
         LIMIT 1`+lockClause+`
    `, employeeID, string(taskType))

	found, err := scanTask(row)
	if err != nil {
		return nil, translateTaskPgError(err)
	}
	return found, nil
}

// ListByEmployee は社員のタスクを作成順に返します。
func (r *TaskRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*task.Task, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+taskColumns+`
          FROM onboarding_tasks
         WHERE employee_id = $1
         ORDER BY created_at ASC, id ASC
    `, employeeID)
	if err != nil {
		return nil, translateTaskPgError(err)
	}
	defer rows.Close()

	tasks := make([]*task.Task, 0, len(task.AllTypes()))
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, translateTaskPgError(err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, translateTaskPgError(err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t           task.Task
		taskType    string
		status      string
		completedAt sql.NullTime
		notes       sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(&t.ID, &t.EmployeeID, &taskType, &t.Description, &status, &completedAt, &notes, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}

	t.Type = task.Type(taskType)
	t.Status = task.Status(status)
	if completedAt.Valid {
		ts := completedAt.Time.UTC()
		t.CompletedAt = &ts
	}
	if notes.Valid {
		n := notes.String
		t.Notes = &n
	}
	t.CreatedAt = createdAt.UTC()
	t.UpdatedAt = updatedAt.UTC()
	return &t, nil
}

func translateTaskPgError(err error) error {
	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case uniqueViolationCode:
			return task.ErrTasksAlreadyExist
		case foreignKeyViolationCode:
			return task.ErrInvalidEmployeeID
		}
	}
	return err
}
