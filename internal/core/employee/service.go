package employee

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
)

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

// UserFinder は社員化対象ユーザーの参照を提供します。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	List(ctx context.Context, filter user.ListUsersFilter) ([]*user.User, string, error)
}

// TaskInitializer は新規社員のタスク生成を担います。
type TaskInitializer interface {
	InitializeTasks(ctx context.Context, employeeID string) ([]*task.Task, error)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
	userScanPageSize    = 200
)

// Service は社員のオンボーディング登録と参照をまとめます。
type Service struct {
	repo  Repository
	users UserFinder
	tasks TaskInitializer
	clock Clock
	tx    TransactionManager
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	AddToOnboarding(ctx context.Context, in AddToOnboardingInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	GetEmployeeByUser(ctx context.Context, userID string) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	ListAvailableUsers(ctx context.Context, actor access.Principal) ([]*user.User, error)
	ListDepartments(ctx context.Context) ([]string, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, users UserFinder, tasks TaskInitializer, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, users: users, tasks: tasks, clock: clock, tx: tx}
}

// AddToOnboardingInput は社員をオンボーディングへ登録する際の入力です。
type AddToOnboardingInput struct {
	Actor          access.Principal
	UserID         string
	EmployeeNumber string
	Department     string
	Designation    string
	JoiningDate    *time.Time
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Department string
	Status     *OnboardingStatus
	JoinedFrom *time.Time
	JoinedTo   *time.Time
	PageSize   int
	PageToken  string
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// AddToOnboarding は社員を登録し、既定のオンボーディングタスクを同一トランザクションで生成します。
func (s *Service) AddToOnboarding(ctx context.Context, in AddToOnboardingInput) (*Employee, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	userID, err := normalizeUUID(in.UserID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}

	number := strings.TrimSpace(in.EmployeeNumber)
	if number == "" {
		return nil, ErrInvalidEmployeeNumber
	}

	department := strings.TrimSpace(in.Department)
	if department == "" {
		return nil, ErrInvalidDepartment
	}

	designation := strings.TrimSpace(in.Designation)
	if designation == "" {
		return nil, ErrInvalidDesignation
	}

	if in.JoiningDate == nil || in.JoiningDate.IsZero() {
		return nil, ErrInvalidJoiningDate
	}
	joiningDate := normalizeDate(*in.JoiningDate)

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		u, err := s.users.FindByID(txCtx, userID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if !u.HasRole(access.RoleEmployee) {
			return ErrUserNotEmployee
		}

		if err := s.ensureNotOnboarded(txCtx, userID); err != nil {
			return err
		}
		if err := s.ensureEmployeeNumberNotExists(txCtx, number); err != nil {
			return err
		}

		now := s.clock.Now()
		emp, err := s.repo.Create(txCtx, &Employee{
			UserID:           userID,
			EmployeeNumber:   number,
			Department:       department,
			Designation:      designation,
			JoiningDate:      joiningDate,
			OnboardingStatus: StatusInProgress,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return err
		}

		if _, err := s.tasks.InitializeTasks(txCtx, emp.ID); err != nil {
			return err
		}

		created = emp
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	id, err := normalizeUUID(in.ID, ErrInvalidID)
	if err != nil {
		return nil, err
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// GetEmployeeByUser はユーザー ID に紐づく社員を取得します。
func (s *Service) GetEmployeeByUser(ctx context.Context, userID string) (*Employee, error) {
	id, err := normalizeUUID(userID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByUserID(txCtx, id)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は条件に合う社員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *OnboardingStatus
	if in.Status != nil {
		if !IsValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	var from, to *time.Time
	if in.JoinedFrom != nil {
		d := normalizeDate(*in.JoinedFrom)
		from = &d
	}
	if in.JoinedTo != nil {
		d := normalizeDate(*in.JoinedTo)
		to = &d
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, ErrInvalidDateRange
	}

	var (
		employees []*Employee
		nextToken string
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListEmployeesFilter{
			Department: strings.TrimSpace(in.Department),
			Status:     statusPtr,
			JoinedFrom: from,
			JoinedTo:   to,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		employees = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// ListAvailableUsers は EMPLOYEE ロールを持ち、まだ社員登録されていないユーザーを返します。
func (s *Service) ListAvailableUsers(ctx context.Context, actor access.Principal) ([]*user.User, error) {
	if err := access.Require(actor, access.RoleHR); err != nil {
		return nil, err
	}

	role := access.RoleEmployee
	var available []*user.User
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		offset := 0
		for {
			users, next, err := s.users.List(txCtx, user.ListUsersFilter{Limit: userScanPageSize, Offset: offset, Role: &role})
			if err != nil {
				return err
			}
			for _, u := range users {
				_, err := s.repo.FindByUserID(txCtx, u.ID)
				if errors.Is(err, ErrEmployeeNotFound) {
					available = append(available, u)
					continue
				}
				if err != nil {
					return err
				}
			}
			if next == "" {
				return nil
			}
			offset, err = strconv.Atoi(next)
			if err != nil {
				return err
			}
		}
	}); err != nil {
		return nil, err
	}

	return available, nil
}

// ListDepartments は登録済み社員の部署一覧を返します。
func (s *Service) ListDepartments(ctx context.Context) ([]string, error) {
	var departments []string
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListDepartments(txCtx)
		if err != nil {
			return err
		}
		departments = result
		return nil
	}); err != nil {
		return nil, err
	}
	return departments, nil
}

func (s *Service) ensureNotOnboarded(ctx context.Context, userID string) error {
	emp, err := s.repo.FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil {
		return ErrEmployeeAlreadyExists
	}
	return nil
}

func (s *Service) ensureEmployeeNumberNotExists(ctx context.Context, number string) error {
	emp, err := s.repo.FindByEmployeeNumber(ctx, number)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil {
		return ErrEmployeeNumberAlreadyExists
	}
	return nil
}

// IsValidStatus はオンボーディング状態が既知の値かを判定します。
func IsValidStatus(status OnboardingStatus) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

func normalizeUUID(raw string, invalid error) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", invalid
	}
	return parsed.String(), nil
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
