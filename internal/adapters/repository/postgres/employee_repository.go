package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	pgdb "github.com/ogurasousui/onboarding-engine/internal/platform/db/postgres"
)

const employeeColumns = `e.id,
               e.user_id,
               e.employee_number,
               e.department,
               e.designation,
               e.joining_date,
               e.onboarding_status,
               e.created_at,
               e.updated_at,
               u.id,
               u.email,
               u.name,
               u.phone_number`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO employees (user_id, employee_number, department, designation, joining_date, onboarding_status, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id, user_id, employee_number, department, designation, joining_date, onboarding_status, created_at, updated_at
        )
        SELECT e.id, e.user_id, e.employee_number, e.department, e.designation, e.joining_date, e.onboarding_status, e.created_at, e.updated_at,
               u.id, u.email, u.name, u.phone_number
          FROM inserted e
          JOIN users u ON u.id = e.user_id
    `,
		e.UserID,
		e.EmployeeNumber,
		e.Department,
		e.Designation,
		e.JoiningDate,
		string(e.OnboardingStatus),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// UpdateStatus はオンボーディング状態を更新します。
func (r *EmployeeRepository) UpdateStatus(ctx context.Context, id string, status employee.OnboardingStatus, updatedAt time.Time) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH updated AS (
            UPDATE employees
               SET onboarding_status = $1,
                   updated_at = $2
             WHERE id = $3
            RETURNING id, user_id, employee_number, department, designation, joining_date, onboarding_status, created_at, updated_at
        )
        SELECT e.id, e.user_id, e.employee_number, e.department, e.designation, e.joining_date, e.onboarding_status, e.created_at, e.updated_at,
               u.id, u.email, u.name, u.phone_number
          FROM updated e
          JOIN users u ON u.id = e.user_id
    `, string(status), updatedAt, id)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	return r.findOne(ctx, `e.id = $1`, "", id)
}

// LockByID は FOR UPDATE で社員行をロックして取得します。
func (r *EmployeeRepository) LockByID(ctx context.Context, id string) (*employee.Employee, error) {
	return r.findOne(ctx, `e.id = $1`, " FOR UPDATE OF e", id)
}

// FindByUserID はユーザー ID で社員を取得します。
func (r *EmployeeRepository) FindByUserID(ctx context.Context, userID string) (*employee.Employee, error) {
	return r.findOne(ctx, `e.user_id = $1`, "", userID)
}

// FindByEmployeeNumber は社員番号で社員を取得します。
func (r *EmployeeRepository) FindByEmployeeNumber(ctx context.Context, employeeNumber string) (*employee.Employee, error) {
	return r.findOne(ctx, `e.employee_number = $1`, "", employeeNumber)
}

func (r *EmployeeRepository) findOne(ctx context.Context, condition, lockClause string, arg string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees e
          JOIN users u ON u.id = e.user_id
         WHERE `+condition+`
         LIMIT 1`+lockClause+`
    `, arg)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は社員の一覧を作成順に取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	var ph placeholders
	conditions := make([]string, 0, 4)
	if filter.Department != "" {
		conditions = append(conditions, "e.department = "+ph.add(filter.Department))
	}
	if filter.Status != nil {
		conditions = append(conditions, "e.onboarding_status = "+ph.add(string(*filter.Status)))
	}
	if filter.JoinedFrom != nil {
		conditions = append(conditions, "e.joining_date >= "+ph.add(*filter.JoinedFrom))
	}
	if filter.JoinedTo != nil {
		conditions = append(conditions, "e.joining_date <= "+ph.add(*filter.JoinedTo))
	}

	whereClause := ""
	for i, cond := range conditions {
		if i == 0 {
			whereClause = " WHERE " + cond
			continue
		}
		whereClause += " AND " + cond
	}

	limitPlaceholder := ph.add(filter.Limit + 1)
	offsetPlaceholder := ph.add(filter.Offset)

	query := `
        SELECT ` + employeeColumns + `
          FROM employees e
          JOIN users u ON u.id = e.user_id` + whereClause + `
         ORDER BY e.created_at ASC, e.id ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, ph.args...)
	if err != nil {
		return nil, "", translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit+1)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateEmployeePgError(err)
	}

	next := nextPageToken(len(employees), filter.Limit, filter.Offset)
	if next != "" {
		employees = employees[:filter.Limit]
	}
	return employees, next, nil
}

// ListDepartments は社員の部署を重複なく昇順で返します。
func (r *EmployeeRepository) ListDepartments(ctx context.Context) ([]string, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT DISTINCT department
          FROM employees
         ORDER BY department ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := []string{}
	for rows.Next() {
		var department string
		if err := rows.Scan(&department); err != nil {
			return nil, err
		}
		departments = append(departments, department)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return departments, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e           employee.Employee
		snapshot    employee.UserSnapshot
		status      string
		joiningDate time.Time
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.EmployeeNumber,
		&e.Department,
		&e.Designation,
		&joiningDate,
		&status,
		&createdAt,
		&updatedAt,
		&snapshot.ID,
		&snapshot.Email,
		&snapshot.Name,
		&snapshot.PhoneNumber,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.JoiningDate = joiningDate.UTC()
	e.OnboardingStatus = employee.OnboardingStatus(status)
	e.CreatedAt = createdAt.UTC()
	e.UpdatedAt = updatedAt.UTC()
	e.User = &snapshot
	return &e, nil
}

func translateEmployeePgError(err error) error {
	pgErr, ok := asPgError(err)
	if !ok {
		return err
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		if pgErr.ConstraintName == "employees_employee_number_key" {
			return employee.ErrEmployeeNumberAlreadyExists
		}
		return employee.ErrEmployeeAlreadyExists
	case foreignKeyViolationCode:
		return employee.ErrUserNotFound
	case checkViolationCode:
		return employee.ErrInvalidStatus
	}
	return err
}
