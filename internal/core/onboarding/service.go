package onboarding

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
)

const recentOnboardingsLimit = 5

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// EmployeeStore は集計とゲート判定に必要な社員操作です。
type EmployeeStore interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
	LockByID(ctx context.Context, id string) (*employee.Employee, error)
	FindByUserID(ctx context.Context, userID string) (*employee.Employee, error)
	UpdateStatus(ctx context.Context, id string, status employee.OnboardingStatus, updatedAt time.Time) (*employee.Employee, error)
	List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error)
}

// TaskLister は社員のタスク一覧を提供します。
type TaskLister interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]*task.Task, error)
}

// DocumentLister は社員の書類一覧を提供します。
type DocumentLister interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]*document.Document, error)
}

// StatsReader はダッシュボード用の件数集計を提供します。
type StatsReader interface {
	CountEmployeesByStatus(ctx context.Context, status employee.OnboardingStatus) (int, error)
	// CountEmployeesWithPendingTasks は PENDING タスクを持つ社員の人数を返します。
	CountEmployeesWithPendingTasks(ctx context.Context) (int, error)
	// CountEmployeesWithPendingDocuments は審査待ち書類を持つ社員の人数を返します。
	CountEmployeesWithPendingDocuments(ctx context.Context) (int, error)
}

// EmployeeLister はフィルタ付きの社員一覧を提供します。
type EmployeeLister interface {
	ListEmployees(ctx context.Context, in employee.ListEmployeesInput) (*employee.ListEmployeesResult, error)
}

// Service は完了率の集計とオンボーディング完了ゲートを提供します。
type Service struct {
	employees EmployeeStore
	tasks     TaskLister
	documents DocumentLister
	stats     StatsReader
	lister    EmployeeLister
	clock     Clock
	tx        TransactionManager
}

// UseCase はオンボーディング集計ユースケースの公開インターフェースです。
type UseCase interface {
	CompletionPercentage(ctx context.Context, employeeID string) (int, error)
	NextAction(ctx context.Context, employeeID string) (string, error)
	Dashboard(ctx context.Context, actor access.Principal) (*DashboardSummary, error)
	EmployeeDetail(ctx context.Context, actor access.Principal, employeeID string) (*EmployeeDetail, error)
	EmployeeDashboard(ctx context.Context, userID string) (*EmployeeDashboard, error)
	ListSummaries(ctx context.Context, in ListSummariesInput) (*ListSummariesResult, error)
	CompleteOnboarding(ctx context.Context, in CompleteOnboardingInput) (*employee.Employee, error)
}

// Dependencies は Service の依存関係です。
type Dependencies struct {
	Employees EmployeeStore
	Tasks     TaskLister
	Documents DocumentLister
	Stats     StatsReader
	Lister    EmployeeLister
	Clock     Clock
	Tx        TransactionManager
}

// NewService は Service を生成します。
func NewService(deps Dependencies) *Service {
	s := &Service{
		employees: deps.Employees,
		tasks:     deps.Tasks,
		documents: deps.Documents,
		stats:     deps.Stats,
		lister:    deps.Lister,
		clock:     deps.Clock,
		tx:        deps.Tx,
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.tx == nil {
		s.tx = noopTransactionManager{}
	}
	return s
}

// DashboardSummary は HR ダッシュボードの集計値です。
type DashboardSummary struct {
	TotalOnboarded                int
	EmployeesInProgress           int
	EmployeesWithPendingTasks     int
	EmployeesWithPendingDocuments int
	RecentOnboardings             []*employee.Employee
}

// EmployeeDetail は HR 向けの社員詳細です。
type EmployeeDetail struct {
	Employee  *employee.Employee
	Tasks     []*task.Task
	Documents []*document.Document
	Progress  Progress
}

// EmployeeDashboard は社員本人向けのダッシュボードです。
type EmployeeDashboard struct {
	Employee       *employee.Employee
	PendingTasks   []*task.Task
	CompletedTasks []*task.Task
	Documents      []*document.Document
	Progress       Progress
}

// Summary は一覧用の社員ごとの進捗です。
type Summary struct {
	Employee *employee.Employee
	Progress Progress
}

// ListSummariesInput は進捗一覧取得時の入力です。
type ListSummariesInput struct {
	Actor      access.Principal
	Department string
	Status     *employee.OnboardingStatus
	JoinedFrom *time.Time
	JoinedTo   *time.Time
	PageSize   int
	PageToken  string
}

// ListSummariesResult は進捗一覧の取得結果です。
type ListSummariesResult struct {
	Summaries     []*Summary
	NextPageToken string
}

// CompleteOnboardingInput はオンボーディング完了時の入力です。
type CompleteOnboardingInput struct {
	Actor      access.Principal
	EmployeeID string
}

// CompletionPercentage は社員の完了率を返します。
func (s *Service) CompletionPercentage(ctx context.Context, employeeID string) (int, error) {
	p, err := s.progressOf(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	return p.Percentage, nil
}

// NextAction は社員が次に取るべき行動を返します。
func (s *Service) NextAction(ctx context.Context, employeeID string) (string, error) {
	p, err := s.progressOf(ctx, employeeID)
	if err != nil {
		return "", err
	}
	return p.NextAction, nil
}

func (s *Service) progressOf(ctx context.Context, employeeID string) (Progress, error) {
	empID, err := normalizeUUID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return Progress{}, err
	}

	var p Progress
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.employees.FindByID(txCtx, empID); err != nil {
			return err
		}
		_, _, progress, err := s.load(txCtx, empID)
		if err != nil {
			return err
		}
		p = progress
		return nil
	}); err != nil {
		return Progress{}, err
	}
	return p, nil
}

// Dashboard は HR ダッシュボードの件数と直近の進行中社員を返します。
func (s *Service) Dashboard(ctx context.Context, actor access.Principal) (*DashboardSummary, error) {
	if err := access.Require(actor, access.RoleHR); err != nil {
		return nil, err
	}

	summary := &DashboardSummary{}
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		if summary.TotalOnboarded, err = s.stats.CountEmployeesByStatus(txCtx, employee.StatusCompleted); err != nil {
			return err
		}
		if summary.EmployeesInProgress, err = s.stats.CountEmployeesByStatus(txCtx, employee.StatusInProgress); err != nil {
			return err
		}
		if summary.EmployeesWithPendingTasks, err = s.stats.CountEmployeesWithPendingTasks(txCtx); err != nil {
			return err
		}
		if summary.EmployeesWithPendingDocuments, err = s.stats.CountEmployeesWithPendingDocuments(txCtx); err != nil {
			return err
		}

		status := employee.StatusInProgress
		recent, _, err := s.employees.List(txCtx, employee.ListEmployeesFilter{Status: &status, Limit: recentOnboardingsLimit})
		if err != nil {
			return err
		}
		summary.RecentOnboardings = recent
		return nil
	}); err != nil {
		return nil, err
	}

	return summary, nil
}

// EmployeeDetail は社員のタスク・書類・進捗をまとめて返します。
func (s *Service) EmployeeDetail(ctx context.Context, actor access.Principal, employeeID string) (*EmployeeDetail, error) {
	if err := access.Require(actor, access.RoleHR); err != nil {
		return nil, err
	}

	empID, err := normalizeUUID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	var detail *EmployeeDetail
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, empID)
		if err != nil {
			return err
		}
		tasks, docs, progress, err := s.load(txCtx, emp.ID)
		if err != nil {
			return err
		}
		detail = &EmployeeDetail{Employee: emp, Tasks: tasks, Documents: docs, Progress: progress}
		return nil
	}); err != nil {
		return nil, err
	}

	return detail, nil
}

// EmployeeDashboard はユーザー本人の社員ダッシュボードを返します。
func (s *Service) EmployeeDashboard(ctx context.Context, userID string) (*EmployeeDashboard, error) {
	uid, err := normalizeUUID(userID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}

	var dashboard *EmployeeDashboard
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByUserID(txCtx, uid)
		if err != nil {
			return err
		}
		tasks, docs, progress, err := s.load(txCtx, emp.ID)
		if err != nil {
			return err
		}

		dashboard = &EmployeeDashboard{Employee: emp, Documents: docs, Progress: progress}
		for _, t := range tasks {
			if t.IsCompleted() {
				dashboard.CompletedTasks = append(dashboard.CompletedTasks, t)
			} else {
				dashboard.PendingTasks = append(dashboard.PendingTasks, t)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return dashboard, nil
}

// ListSummaries はフィルタに合う社員ごとの進捗を返します。
func (s *Service) ListSummaries(ctx context.Context, in ListSummariesInput) (*ListSummariesResult, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	listed, err := s.lister.ListEmployees(ctx, employee.ListEmployeesInput{
		Department: in.Department,
		Status:     in.Status,
		JoinedFrom: in.JoinedFrom,
		JoinedTo:   in.JoinedTo,
		PageSize:   in.PageSize,
		PageToken:  in.PageToken,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]*Summary, 0, len(listed.Employees))
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		for _, emp := range listed.Employees {
			_, _, progress, err := s.load(txCtx, emp.ID)
			if err != nil {
				return err
			}
			summaries = append(summaries, &Summary{Employee: emp, Progress: progress})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListSummariesResult{Summaries: summaries, NextPageToken: listed.NextPageToken}, nil
}

// CompleteOnboarding は全タスク完了と全必須書類承認を確認したうえで社員を COMPLETED にします。
func (s *Service) CompleteOnboarding(ctx context.Context, in CompleteOnboardingInput) (*employee.Employee, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	empID, err := normalizeUUID(in.EmployeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	var completed *employee.Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.LockByID(txCtx, empID)
		if err != nil {
			return err
		}
		if emp.OnboardingStatus == employee.StatusCompleted {
			return ErrAlreadyCompleted
		}

		_, _, progress, err := s.load(txCtx, emp.ID)
		if err != nil {
			return err
		}
		if !progress.TasksDone() {
			return ErrPendingTasks
		}
		if !progress.MandatoryDocumentsDone() {
			return ErrMandatoryDocumentsNotApproved
		}

		result, err := s.employees.UpdateStatus(txCtx, emp.ID, employee.StatusCompleted, s.clock.Now())
		if err != nil {
			return err
		}
		completed = result
		return nil
	}); err != nil {
		return nil, err
	}

	return completed, nil
}

func (s *Service) load(ctx context.Context, employeeID string) ([]*task.Task, []*document.Document, Progress, error) {
	tasks, err := s.tasks.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, nil, Progress{}, err
	}
	docs, err := s.documents.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, nil, Progress{}, err
	}
	return tasks, docs, Evaluate(tasks, docs), nil
}

func normalizeUUID(raw string, invalid error) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", invalid
	}
	return parsed.String(), nil
}
