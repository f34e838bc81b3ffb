package enrollment

import "context"

// Repository は受講登録の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, enrollment *Enrollment) (*Enrollment, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, studentID, courseID string) (*Enrollment, error)
	// Lock は読み書きトランザクション内で行ロックを取得して受講登録を取得します。
	Lock(ctx context.Context, studentID, courseID string) (*Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]*Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]*Enrollment, error)
	CountByCourse(ctx context.Context, courseID string) (int, error)
}

// ProgressRepository はモジュール進捗の永続化の抽象です。
type ProgressRepository interface {
	// Upsert は (受講者, モジュール) をキーに進捗を作成または更新します。
	Upsert(ctx context.Context, progress *ModuleProgress) (*ModuleProgress, error)
	Find(ctx context.Context, studentID, moduleID string) (*ModuleProgress, error)
	// Lock は読み書きトランザクション内で行ロックを取得して進捗を取得します。
	Lock(ctx context.Context, studentID, moduleID string) (*ModuleProgress, error)
	ListByStudent(ctx context.Context, studentID string, moduleIDs []string) ([]*ModuleProgress, error)
	ListByModules(ctx context.Context, moduleIDs []string) ([]*ModuleProgress, error)
	DeleteByStudent(ctx context.Context, studentID string, moduleIDs []string) (int, error)
	CountByModule(ctx context.Context, moduleID string) (int, error)
}
