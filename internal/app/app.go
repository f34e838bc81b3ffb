// Package app はリポジトリ・ユースケース・gRPC ハンドラーを組み立てます。
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ogurasousui/onboarding-engine/internal/adapters/grpc/handler"
	"github.com/ogurasousui/onboarding-engine/internal/adapters/repository/memory"
	"github.com/ogurasousui/onboarding-engine/internal/adapters/repository/postgres"
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/enrollment"
	"github.com/ogurasousui/onboarding-engine/internal/core/event"
	"github.com/ogurasousui/onboarding-engine/internal/core/onboarding"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
	"github.com/ogurasousui/onboarding-engine/internal/platform/config"
	pg "github.com/ogurasousui/onboarding-engine/internal/platform/db/postgres"
)

// TransactionManager は各ユースケースが共有するトランザクション境界です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

// Repositories はストレージ実装ごとのリポジトリ一式です。
type Repositories struct {
	Users       user.Repository
	Employees   employee.Repository
	Tasks       task.Repository
	Documents   document.Repository
	Courses     course.CourseRepository
	Modules     course.ModuleRepository
	Enrollments enrollment.Repository
	Progress    enrollment.ProgressRepository
	Stats       onboarding.StatsReader
	Tx          TransactionManager
}

// MemoryRepositories はプロセス内ストアのリポジトリ一式を生成します。
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Users:       memory.NewUserRepository(store),
		Employees:   memory.NewEmployeeRepository(store),
		Tasks:       memory.NewTaskRepository(store),
		Documents:   memory.NewDocumentRepository(store),
		Courses:     memory.NewCourseRepository(store),
		Modules:     memory.NewModuleRepository(store),
		Enrollments: memory.NewEnrollmentRepository(store),
		Progress:    memory.NewProgressRepository(store),
		Stats:       memory.NewStatsRepository(store),
		Tx:          memory.NewTransactionManager(store),
	}
}

// PostgresRepositories は PostgreSQL のリポジトリ一式を生成します。
func PostgresRepositories(pool *pgxpool.Pool, logger *slog.Logger, opts ...pg.Option) Repositories {
	return Repositories{
		Users:       postgres.NewUserRepository(pool),
		Employees:   postgres.NewEmployeeRepository(pool),
		Tasks:       postgres.NewTaskRepository(pool),
		Documents:   postgres.NewDocumentRepository(pool),
		Courses:     postgres.NewCourseRepository(pool),
		Modules:     postgres.NewModuleRepository(pool),
		Enrollments: postgres.NewEnrollmentRepository(pool),
		Progress:    postgres.NewProgressRepository(pool),
		Stats:       postgres.NewStatsRepository(pool),
		Tx:          pg.NewTransactionManager(pool, append([]pg.Option{pg.WithLogger(logger)}, opts...)...),
	}
}

// Services はユースケース一式です。
type Services struct {
	Users       *user.Service
	Employees   *employee.Service
	Tasks       *task.Service
	Documents   *document.Service
	Onboarding  *onboarding.Service
	Courses     *course.Service
	Enrollments *enrollment.Service
	Events      *event.Dispatcher
}

// NewServices はユースケースを組み立て、書類承認イベントをタスクサービスへ購読させます。
func NewServices(repos Repositories) Services {
	dispatcher := event.NewDispatcher()

	users := user.NewService(repos.Users, nil)
	tasks := task.NewService(repos.Tasks, nil, repos.Tx)
	dispatcher.Subscribe(tasks)

	employees := employee.NewService(repos.Employees, repos.Users, tasks, nil, repos.Tx)
	documents := document.NewService(repos.Documents, repos.Employees, repos.Users, dispatcher, nil, repos.Tx)
	onboardingSvc := onboarding.NewService(onboarding.Dependencies{
		Employees: repos.Employees,
		Tasks:     repos.Tasks,
		Documents: repos.Documents,
		Stats:     repos.Stats,
		Lister:    employees,
		Tx:        repos.Tx,
	})
	courses := course.NewService(repos.Courses, repos.Modules, repos.Enrollments, repos.Progress, nil, repos.Tx)
	enrollments := enrollment.NewService(enrollment.Dependencies{
		Enrollments: repos.Enrollments,
		Progress:    repos.Progress,
		Courses:     repos.Courses,
		Modules:     repos.Modules,
		Students:    repos.Users,
		Tx:          repos.Tx,
	})

	return Services{
		Users:       users,
		Employees:   employees,
		Tasks:       tasks,
		Documents:   documents,
		Onboarding:  onboardingSvc,
		Courses:     courses,
		Enrollments: enrollments,
		Events:      dispatcher,
	}
}

// Handlers は gRPC に公開するサービス一覧を返します。
func (s Services) Handlers() []handler.Service {
	return []handler.Service{
		handler.NewUserHandler(s.Users),
		handler.NewOnboardingHandler(s.Employees, s.Tasks, s.Documents, s.Onboarding),
		handler.NewCourseHandler(s.Courses, s.Enrollments),
	}
}

// Storage はストレージドライバに応じたリポジトリと後始末関数を返します。
func Storage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Repositories, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return MemoryRepositories(memory.NewStore()), func() {}, nil
	case config.StorageDriverPostgres:
		level, err := pg.IsolationLevel(cfg.Database.IsolationLevel)
		if err != nil {
			return Repositories{}, nil, err
		}
		pool, err := pg.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return Repositories{}, nil, fmt.Errorf("initialize database pool: %w", err)
		}
		return PostgresRepositories(pool, logger, pg.WithIsolationLevel(level)), pool.Close, nil
	default:
		return Repositories{}, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
