package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
)

// EmployeeRepository は employee.Repository のメモリ実装です。
type EmployeeRepository struct {
	store *Store
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(store *Store) *EmployeeRepository {
	return &EmployeeRepository{store: store}
}

// Create は社員を保存します。
func (r *EmployeeRepository) Create(_ context.Context, emp *employee.Employee) (*employee.Employee, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.users[emp.UserID]; !ok {
		return nil, employee.ErrUserNotFound
	}
	for _, e := range r.store.data.employees {
		if e.value.UserID == emp.UserID {
			return nil, employee.ErrEmployeeAlreadyExists
		}
		if e.value.EmployeeNumber == emp.EmployeeNumber {
			return nil, employee.ErrEmployeeNumberAlreadyExists
		}
	}

	created := *emp
	created.User = nil
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	r.store.data.employees[created.ID] = entry[employee.Employee]{seq: r.store.nextSeq(), value: created}
	return r.withUser(created), nil
}

// UpdateStatus はオンボーディング状態を更新します。
func (r *EmployeeRepository) UpdateStatus(_ context.Context, id string, status employee.OnboardingStatus, updatedAt time.Time) (*employee.Employee, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.data.employees[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	e.value.OnboardingStatus = status
	e.value.UpdatedAt = updatedAt
	r.store.data.employees[id] = e
	return r.withUser(e.value), nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	return r.findOne(func(emp employee.Employee) bool { return emp.ID == id })
}

// LockByID は FindByID と同じです。書き込みは TransactionManager が直列化します。
func (r *EmployeeRepository) LockByID(ctx context.Context, id string) (*employee.Employee, error) {
	return r.FindByID(ctx, id)
}

// FindByUserID はユーザー ID で社員を取得します。
func (r *EmployeeRepository) FindByUserID(_ context.Context, userID string) (*employee.Employee, error) {
	return r.findOne(func(emp employee.Employee) bool { return emp.UserID == userID })
}

// FindByEmployeeNumber は社員番号で社員を取得します。
func (r *EmployeeRepository) FindByEmployeeNumber(_ context.Context, number string) (*employee.Employee, error) {
	return r.findOne(func(emp employee.Employee) bool { return emp.EmployeeNumber == number })
}

// List は条件に合う社員を登録順に返します。
func (r *EmployeeRepository) List(_ context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	values := r.store.data.employees.sorted(func(emp employee.Employee) bool {
		if filter.Department != "" && emp.Department != filter.Department {
			return false
		}
		if filter.Status != nil && emp.OnboardingStatus != *filter.Status {
			return false
		}
		if filter.JoinedFrom != nil && emp.JoiningDate.Before(*filter.JoinedFrom) {
			return false
		}
		if filter.JoinedTo != nil && emp.JoiningDate.After(*filter.JoinedTo) {
			return false
		}
		return true
	})

	paged, next := page(values, filter.Limit, filter.Offset)
	employees := make([]*employee.Employee, 0, len(paged))
	for _, emp := range paged {
		employees = append(employees, r.withUser(emp))
	}
	return employees, next, nil
}

// ListDepartments は社員の部署を重複なく昇順で返します。
func (r *EmployeeRepository) ListDepartments(_ context.Context) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[string]struct{})
	departments := []string{}
	for _, e := range r.store.data.employees {
		if _, ok := seen[e.value.Department]; ok {
			continue
		}
		seen[e.value.Department] = struct{}{}
		departments = append(departments, e.value.Department)
	}
	sort.Strings(departments)
	return departments, nil
}

func (r *EmployeeRepository) findOne(match func(employee.Employee) bool) (*employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.data.employees {
		if match(e.value) {
			return r.withUser(e.value), nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

// withUser は呼び出し側でロックを保持している前提でユーザー情報を付与します。
func (r *EmployeeRepository) withUser(emp employee.Employee) *employee.Employee {
	if u, ok := r.store.data.users[emp.UserID]; ok {
		emp.User = &employee.UserSnapshot{
			ID:          u.value.ID,
			Email:       u.value.Email,
			Name:        u.value.Name,
			PhoneNumber: u.value.PhoneNumber,
		}
	}
	return &emp
}
