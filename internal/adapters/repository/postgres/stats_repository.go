package postgres

import (
	"context"

	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
	pgdb "github.com/ogurasousui/onboarding-engine/internal/platform/db/postgres"
)

// StatsRepository はダッシュボード集計を PostgreSQL で行います。
type StatsRepository struct {
	pool pgdb.Queryer
}

// NewStatsRepository は StatsRepository を生成します。
func NewStatsRepository(pool pgdb.Queryer) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// CountEmployeesByStatus は状態ごとの社員数を返します。
func (r *StatsRepository) CountEmployeesByStatus(ctx context.Context, status employee.OnboardingStatus) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM employees WHERE onboarding_status = $1`, string(status))
}

// CountEmployeesWithPendingTasks は PENDING タスクを持つ社員数を返します。
func (r *StatsRepository) CountEmployeesWithPendingTasks(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(DISTINCT employee_id) FROM onboarding_tasks WHERE status = $1`, string(task.StatusPending))
}

// CountEmployeesWithPendingDocuments は審査待ち書類を持つ社員数を返します。
func (r *StatsRepository) CountEmployeesWithPendingDocuments(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(DISTINCT employee_id) FROM documents WHERE status = $1`, string(document.StatusPendingReview))
}

func (r *StatsRepository) count(ctx context.Context, query string, arg string) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var count int
	if err := exec.QueryRow(ctx, query, arg).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
