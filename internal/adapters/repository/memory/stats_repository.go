package memory

import (
	"context"

	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
)

// StatsRepository は onboarding.StatsReader のメモリ実装です。
type StatsRepository struct {
	store *Store
}

// NewStatsRepository は StatsRepository を生成します。
func NewStatsRepository(store *Store) *StatsRepository {
	return &StatsRepository{store: store}
}

// CountEmployeesByStatus は状態ごとの社員数を返します。
func (r *StatsRepository) CountEmployeesByStatus(_ context.Context, status employee.OnboardingStatus) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, e := range r.store.data.employees {
		if e.value.OnboardingStatus == status {
			count++
		}
	}
	return count, nil
}

// CountEmployeesWithPendingTasks は PENDING タスクを持つ社員数を返します。
func (r *StatsRepository) CountEmployeesWithPendingTasks(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	employees := make(map[string]struct{})
	for _, e := range r.store.data.tasks {
		if e.value.Status == task.StatusPending {
			employees[e.value.EmployeeID] = struct{}{}
		}
	}
	return len(employees), nil
}

// CountEmployeesWithPendingDocuments は審査待ち書類を持つ社員数を返します。
func (r *StatsRepository) CountEmployeesWithPendingDocuments(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	employees := make(map[string]struct{})
	for _, e := range r.store.data.documents {
		if e.value.Status == document.StatusPendingReview {
			employees[e.value.EmployeeID] = struct{}{}
		}
	}
	return len(employees), nil
}
