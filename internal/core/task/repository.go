package task

import "context"

// Repository はオンボーディングタスク永続化の抽象です。
type Repository interface {
	CreateBatch(ctx context.Context, tasks []*Task) ([]*Task, error)
	Update(ctx context.Context, task *Task) (*Task, error)
	FindByEmployeeAndType(ctx context.Context, employeeID string, taskType Type) (*Task, error)
	// LockByEmployeeAndType は読み書きトランザクション内で行ロックを取得して取得します。
	LockByEmployeeAndType(ctx context.Context, employeeID string, taskType Type) (*Task, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*Task, error)
}
