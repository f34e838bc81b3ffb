package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
	pgdb "github.com/ogurasousui/onboarding-engine/internal/platform/db/postgres"
)

const userColumns = `u.id, u.email, u.name, u.phone_number, u.created_at, u.updated_at,
               COALESCE((SELECT array_agg(r.role ORDER BY r.role) FROM user_roles r WHERE r.user_id = u.id), '{}')`

// UserRepository は PostgreSQL を利用したユーザー永続化の実装です。
type UserRepository struct {
	pool pgdb.Queryer
}

// NewUserRepository は UserRepository を生成します。
func NewUserRepository(pool pgdb.Queryer) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create はユーザーとロールを新規作成します。
func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO users (email, name, phone_number, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, email, name, phone_number, created_at, updated_at
        ), roles AS (
            INSERT INTO user_roles (user_id, role)
            SELECT i.id, unnest($6::text[]) FROM inserted i
            RETURNING role
        )
        SELECT i.id, i.email, i.name, i.phone_number, i.created_at, i.updated_at,
               COALESCE((SELECT array_agg(role ORDER BY role) FROM roles), '{}')
          FROM inserted i
    `, u.Email, u.Name, u.PhoneNumber, u.CreatedAt, u.UpdatedAt, roleStrings(u.Roles))

	created, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return created, nil
}

// FindByID は ID でユーザーを取得します。
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+userColumns+`
          FROM users u
         WHERE u.id = $1
         LIMIT 1
    `, id)

	found, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return found, nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+userColumns+`
          FROM users u
         WHERE u.email = $1
         LIMIT 1
    `, email)

	found, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return found, nil
}

// List はユーザー一覧を作成順に取得します。
func (r *UserRepository) List(ctx context.Context, filter user.ListUsersFilter) ([]*user.User, string, error) {
	if filter.Limit <= 0 {
		return nil, "", user.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", user.ErrInvalidPageToken
	}

	var ph placeholders
	whereClause := ""
	if filter.Role != nil {
		whereClause = `
         WHERE EXISTS (SELECT 1 FROM user_roles fr WHERE fr.user_id = u.id AND fr.role = ` + ph.add(string(*filter.Role)) + `)`
	}
	limitPlaceholder := ph.add(filter.Limit + 1)
	offsetPlaceholder := ph.add(filter.Offset)

	query := `
        SELECT ` + userColumns + `
          FROM users u` + whereClause + `
         ORDER BY u.created_at ASC, u.id ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, ph.args...)
	if err != nil {
		return nil, "", translateUserPgError(err)
	}
	defer rows.Close()

	users := make([]*user.User, 0, filter.Limit+1)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, "", translateUserPgError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateUserPgError(err)
	}

	next := nextPageToken(len(users), filter.Limit, filter.Offset)
	if next != "" {
		users = users[:filter.Limit]
	}
	return users, next, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u         user.User
		roles     []string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PhoneNumber, &createdAt, &updatedAt, &roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}

	u.CreatedAt = createdAt.UTC()
	u.UpdatedAt = updatedAt.UTC()
	u.Roles = make([]access.Role, 0, len(roles))
	for _, raw := range roles {
		u.Roles = append(u.Roles, access.Role(strings.ToUpper(raw)))
	}
	return &u, nil
}

func translateUserPgError(err error) error {
	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case uniqueViolationCode:
			return user.ErrEmailAlreadyExists
		case checkViolationCode:
			return user.ErrInvalidRole
		}
	}
	return err
}

func roleStrings(roles []access.Role) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, string(role))
	}
	return out
}
