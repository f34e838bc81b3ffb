package employee

import (
	"context"
	"time"
)

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	UpdateStatus(ctx context.Context, id string, status OnboardingStatus, updatedAt time.Time) (*Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	// LockByID は読み書きトランザクション内で行ロックを取得して社員を取得します。
	LockByID(ctx context.Context, id string) (*Employee, error)
	FindByUserID(ctx context.Context, userID string) (*Employee, error)
	FindByEmployeeNumber(ctx context.Context, employeeNumber string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, string, error)
	ListDepartments(ctx context.Context) ([]string, error)
}

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	Department string
	Status     *OnboardingStatus
	JoinedFrom *time.Time
	JoinedTo   *time.Time
	Limit      int
	Offset     int
}
