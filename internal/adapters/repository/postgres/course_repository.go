package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	pgdb "github.com/ogurasousui/onboarding-engine/internal/platform/db/postgres"
)

const (
	courseColumns = `id, owner_id, name, description, created_at, updated_at`
	moduleColumns = `id, course_id, title, description, content_type, content_url, is_published, created_at, updated_at`
)

// CourseRepository は PostgreSQL を利用したコース永続化の実装です。
type CourseRepository struct {
	pool pgdb.Queryer
}

// NewCourseRepository は CourseRepository を生成します。
func NewCourseRepository(pool pgdb.Queryer) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// Create はコースを新規作成します。
func (r *CourseRepository) Create(ctx context.Context, c *course.Course) (*course.Course, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO courses (owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+courseColumns+`
    `, c.OwnerID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)

	created, err := scanCourse(row)
	if err != nil {
		return nil, translateCoursePgError(err)
	}
	return created, nil
}

// Update はコースの名称と説明を更新します。
func (r *CourseRepository) Update(ctx context.Context, c *course.Course) (*course.Course, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE courses
           SET name = $1,
               description = $2,
               updated_at = $3
         WHERE id = $4
        RETURNING `+courseColumns+`
    `, c.Name, c.Description, c.UpdatedAt, c.ID)

	updated, err := scanCourse(row)
	if err != nil {
		return nil, translateCoursePgError(err)
	}
	return updated, nil
}

// Delete はコースを削除します。モジュールと進捗は外部キーで連鎖削除されます。
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return translateCoursePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return course.ErrCourseNotFound
	}
	return nil
}

// FindByID は ID でコースを取得します。
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*course.Course, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+courseColumns+`
          FROM courses
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanCourse(row)
	if err != nil {
		return nil, translateCoursePgError(err)
	}
	return found, nil
}

// ListByOwner は作成者のコースを作成順に取得します。
func (r *CourseRepository) ListByOwner(ctx context.Context, filter course.ListCoursesFilter) ([]*course.Course, string, error) {
	if filter.Limit <= 0 {
		return nil, "", course.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", course.ErrInvalidPageToken
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+courseColumns+`
          FROM courses
         WHERE owner_id = $1
         ORDER BY created_at ASC, id ASC
         LIMIT $2
        OFFSET $3
    `, filter.OwnerID, filter.Limit+1, filter.Offset)
	if err != nil {
		return nil, "", translateCoursePgError(err)
	}

	courses, err := collectCourses(rows)
	if err != nil {
		return nil, "", err
	}

	next := nextPageToken(len(courses), filter.Limit, filter.Offset)
	if next != "" {
		courses = courses[:filter.Limit]
	}
	return courses, next, nil
}

// ListPublished は公開済みモジュールを 1 件以上持つコースを作成順に返します。
func (r *CourseRepository) ListPublished(ctx context.Context) ([]*course.Course, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+courseColumns+`
          FROM courses c
         WHERE EXISTS (SELECT 1 FROM course_modules m WHERE m.course_id = c.id AND m.is_published)
         ORDER BY created_at ASC, id ASC
    `)
	if err != nil {
		return nil, translateCoursePgError(err)
	}
	return collectCourses(rows)
}

func collectCourses(rows pgx.Rows) ([]*course.Course, error) {
	defer rows.Close()

	courses := make([]*course.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, translateCoursePgError(err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, translateCoursePgError(err)
	}
	return courses, nil
}

func scanCourse(row pgx.Row) (*course.Course, error) {
	var (
		c         course.Course
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, course.ErrCourseNotFound
		}
		return nil, err
	}

	c.CreatedAt = createdAt.UTC()
	c.UpdatedAt = updatedAt.UTC()
	return &c, nil
}

func translateCoursePgError(err error) error {
	if pgErr, ok := asPgError(err); ok && pgErr.Code == foreignKeyViolationCode && pgErr.ConstraintName == "enrollments_course_id_fkey" {
		return course.ErrCourseHasEnrollment
	}
	return err
}

// ModuleRepository は PostgreSQL を利用したモジュール永続化の実装です。
type ModuleRepository struct {
	pool pgdb.Queryer
}

// NewModuleRepository は ModuleRepository を生成します。
func NewModuleRepository(pool pgdb.Queryer) *ModuleRepository {
	return &ModuleRepository{pool: pool}
}

// Create はモジュールを新規作成します。
func (r *ModuleRepository) Create(ctx context.Context, m *course.Module) (*course.Module, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO course_modules (course_id, title, description, content_type, content_url, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+moduleColumns+`
    `,
		m.CourseID,
		m.Title,
		m.Description,
		string(m.ContentType),
		m.ContentURL,
		m.IsPublished,
		m.CreatedAt,
		m.UpdatedAt,
	)

	created, err := scanModule(row)
	if err != nil {
		return nil, translateModulePgError(err)
	}
	return created, nil
}

// Update はモジュールを更新します。公開状態もここで書き込みます。
func (r *ModuleRepository) Update(ctx context.Context, m *course.Module) (*course.Module, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE course_modules
           SET title = $1,
               description = $2,
               content_type = $3,
               content_url = $4,
               is_published = $5,
               updated_at = $6
         WHERE id = $7
        RETURNING `+moduleColumns+`
    `,
		m.Title,
		m.Description,
		string(m.ContentType),
		m.ContentURL,
		m.IsPublished,
		m.UpdatedAt,
		m.ID,
	)

	updated, err := scanModule(row)
	if err != nil {
		return nil, translateModulePgError(err)
	}
	return updated, nil
}

// Delete はモジュールを削除します。
func (r *ModuleRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM course_modules WHERE id = $1`, id)
	if err != nil {
		return translateModulePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return course.ErrModuleNotFound
	}
	return nil
}

// FindByID は ID でモジュールを取得します。
func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*course.Module, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+moduleColumns+`
          FROM course_modules
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanModule(row)
	if err != nil {
		return nil, translateModulePgError(err)
	}
	return found, nil
}

// ListByCourse はコースのモジュールを作成順に返します。
func (r *ModuleRepository) ListByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]*course.Module, error) {
	query := `
        SELECT ` + moduleColumns + `
          FROM course_modules
         WHERE course_id = $1`
	if publishedOnly {
		query += ` AND is_published`
	}
	query += `
         ORDER BY created_at ASC, id ASC
    `

	return r.list(ctx, query, courseID)
}

// ListByOwner は作成者のコースに属するモジュールを作成順に返します。
func (r *ModuleRepository) ListByOwner(ctx context.Context, ownerID string) ([]*course.Module, error) {
	return r.list(ctx, `
        SELECT m.id, m.course_id, m.title, m.description, m.content_type, m.content_url, m.is_published, m.created_at, m.updated_at
          FROM course_modules m
          JOIN courses c ON c.id = m.course_id
         WHERE c.owner_id = $1
         ORDER BY m.created_at ASC, m.id ASC
    `, ownerID)
}

func (r *ModuleRepository) list(ctx context.Context, query string, arg string) ([]*course.Module, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, arg)
	if err != nil {
		return nil, translateModulePgError(err)
	}
	defer rows.Close()

	modules := make([]*course.Module, 0)
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, translateModulePgError(err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translateModulePgError(err)
	}
	return modules, nil
}

func scanModule(row pgx.Row) (*course.Module, error) {
	var (
		m           course.Module
		contentType string
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &contentType, &m.ContentURL, &m.IsPublished, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, course.ErrModuleNotFound
		}
		return nil, err
	}

	m.ContentType = course.ContentType(contentType)
	m.CreatedAt = createdAt.UTC()
	m.UpdatedAt = updatedAt.UTC()
	return &m, nil
}

func translateModulePgError(err error) error {
	pgErr, ok := asPgError(err)
	if !ok {
		return err
	}

	switch pgErr.Code {
	case foreignKeyViolationCode:
		return course.ErrCourseNotFound
	case checkViolationCode:
		return course.ErrInvalidContentType
	}
	return err
}
