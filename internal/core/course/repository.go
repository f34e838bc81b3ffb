package course

import "context"

// CourseRepository はコース永続化の抽象です。
type CourseRepository interface {
	Create(ctx context.Context, course *Course) (*Course, error)
	Update(ctx context.Context, course *Course) (*Course, error)
	// Delete はコースを削除します。モジュールは連鎖削除されます。
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Course, error)
	ListByOwner(ctx context.Context, filter ListCoursesFilter) ([]*Course, string, error)
	// ListPublished は公開済みモジュールを 1 件以上持つコースを作成順に返します。
	ListPublished(ctx context.Context) ([]*Course, error)
}

// ModuleRepository はモジュール永続化の抽象です。
type ModuleRepository interface {
	Create(ctx context.Context, module *Module) (*Module, error)
	Update(ctx context.Context, module *Module) (*Module, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Module, error)
	ListByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]*Module, error)
	// ListByOwner は作成者の全コースにまたがるモジュールを作成順に返します。
	ListByOwner(ctx context.Context, ownerID string) ([]*Module, error)
}

// ListCoursesFilter はコース一覧の検索条件です。
type ListCoursesFilter struct {
	OwnerID string
	Limit   int
	Offset  int
}
