package document

import "context"

// Repository は書類永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, doc *Document) (*Document, error)
	// Update は URL・状態・審査結果を一括で書き込みます。
	Update(ctx context.Context, doc *Document) (*Document, error)
	FindByID(ctx context.Context, id string) (*Document, error)
	// LockByID は読み書きトランザクション内で行ロックを取得して書類を取得します。
	LockByID(ctx context.Context, id string) (*Document, error)
	FindByEmployeeAndType(ctx context.Context, employeeID string, docType Type) (*Document, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*Document, error)
}
