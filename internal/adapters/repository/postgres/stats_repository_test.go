package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStatsRepository_Counts(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewStatsRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM employees WHERE onboarding_status = $1`)).
		WithArgs("COMPLETED").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(DISTINCT employee_id) FROM onboarding_tasks WHERE status = $1`)).
		WithArgs("PENDING").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(DISTINCT employee_id) FROM documents WHERE status = $1`)).
		WithArgs("PENDING_REVIEW").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	ctx := context.Background()

	completed, err := repo.CountEmployeesByStatus(ctx, employee.StatusCompleted)
	if err != nil || completed != 3 {
		t.Fatalf("CountEmployeesByStatus = %d, %v", completed, err)
	}
	pendingTasks, err := repo.CountEmployeesWithPendingTasks(ctx)
	if err != nil || pendingTasks != 2 {
		t.Fatalf("CountEmployeesWithPendingTasks = %d, %v", pendingTasks, err)
	}
	pendingDocs, err := repo.CountEmployeesWithPendingDocuments(ctx)
	if err != nil || pendingDocs != 1 {
		t.Fatalf("CountEmployeesWithPendingDocuments = %d, %v", pendingDocs, err)
	}
}
