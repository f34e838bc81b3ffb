package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/enrollment"
	pgdb "github.com/ogurasousui/onboarding-engine/internal/platform/db/postgres"
)

const (
	enrollmentColumns = `id, student_id, course_id, enrolled_at`
	progressColumns   = `id, student_id, module_id, is_completed, completed_at, created_at, updated_at`
)

// EnrollmentRepository は PostgreSQL を利用した受講登録永続化の実装です。
type EnrollmentRepository struct {
	pool pgdb.Queryer
}

// NewEnrollmentRepository は EnrollmentRepository を生成します。
func NewEnrollmentRepository(pool pgdb.Queryer) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// Create は受講登録を保存します。
func (r *EnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) (*enrollment.Enrollment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO enrollments (student_id, course_id, enrolled_at)
        VALUES ($1, $2, $3)
        RETURNING `+enrollmentColumns+`
    `, e.StudentID, e.CourseID, e.EnrolledAt)

	created, err := scanEnrollment(row)
	if err != nil {
		return nil, translateEnrollmentPgError(err)
	}
	return created, nil
}

// Delete は受講登録を削除します。
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return translateEnrollmentPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return enrollment.ErrEnrollmentNotFound
	}
	return nil
}

// Find は受講者とコースの組で受講登録を取得します。
func (r *EnrollmentRepository) Find(ctx context.Context, studentID, courseID string) (*enrollment.Enrollment, error) {
	return r.findOne(ctx, studentID, courseID, "")
}

// Lock は FOR UPDATE で受講登録行をロックして取得します。
func (r *EnrollmentRepository) Lock(ctx context.Context, studentID, courseID string) (*enrollment.Enrollment, error) {
	return r.findOne(ctx, studentID, courseID, " FOR UPDATE")
}

func (r *EnrollmentRepository) findOne(ctx context.Context, studentID, courseID, lockClause string) (*enrollment.Enrollment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+enrollmentColumns+`
          FROM enrollments
         WHERE student_id = $1 AND course_id = $2
         LIMIT 1`+lockClause, studentID, courseID)

	found, err := scanEnrollment(row)
	if err != nil {
		return nil, translateEnrollmentPgError(err)
	}
	return found, nil
}

// ListByStudent は受講者の受講登録を登録順に返します。
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]*enrollment.Enrollment, error) {
	return r.list(ctx, `student_id = $1`, studentID)
}

// ListByCourse はコースの受講登録を登録順に返します。
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]*enrollment.Enrollment, error) {
	return r.list(ctx, `course_id = $1`, courseID)
}

// CountByCourse はコースの受講登録数を返します。
func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var count int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`, courseID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EnrollmentRepository) list(ctx context.Context, condition string, arg string) ([]*enrollment.Enrollment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+enrollmentColumns+`
          FROM enrollments
         WHERE `+condition+`
         ORDER BY enrolled_at ASC, id ASC
    `, arg)
	if err != nil {
		return nil, translateEnrollmentPgError(err)
	}
	defer rows.Close()

	enrollments := make([]*enrollment.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, translateEnrollmentPgError(err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEnrollmentPgError(err)
	}
	return enrollments, nil
}

func scanEnrollment(row pgx.Row) (*enrollment.Enrollment, error) {
	var (
		e          enrollment.Enrollment
		enrolledAt time.Time
	)

	if err := row.Scan(&e.ID, &e.StudentID, &e.CourseID, &enrolledAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, enrollment.ErrEnrollmentNotFound
		}
		return nil, err
	}

	e.EnrolledAt = enrolledAt.UTC()
	return &e, nil
}

func translateEnrollmentPgError(err error) error {
	pgErr, ok := asPgError(err)
	if !ok {
		return err
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return enrollment.ErrAlreadyEnrolled
	case foreignKeyViolationCode:
		if pgErr.ConstraintName == "enrollments_course_id_fkey" {
			return course.ErrCourseNotFound
		}
		return enrollment.ErrStudentNotFound
	}
	return err
}

// ProgressRepository は PostgreSQL を利用したモジュール進捗永続化の実装です。
type ProgressRepository struct {
	pool pgdb.Queryer
}

// NewProgressRepository は ProgressRepository を生成します。
func NewProgressRepository(pool pgdb.Queryer) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// Upsert は (受講者, モジュール) をキーに進捗を作成または更新します。
func (r *ProgressRepository) Upsert(ctx context.Context, p *enrollment.ModuleProgress) (*enrollment.ModuleProgress, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO module_progress (student_id, module_id, is_completed, completed_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (student_id, module_id) DO UPDATE
           SET is_completed = EXCLUDED.is_completed,
               completed_at = EXCLUDED.completed_at,
               updated_at = EXCLUDED.updated_at
        RETURNING `+progressColumns+`
    `,
		p.StudentID,
		p.ModuleID,
		p.IsCompleted,
		nullableTime(p.CompletedAt),
		p.CreatedAt,
		p.UpdatedAt,
	)

	saved, err := scanProgress(row)
	if err != nil {
		return nil, translateProgressPgError(err)
	}
	return saved, nil
}

// Find は受講者とモジュールの組で進捗を取得します。
func (r *ProgressRepository) Find(ctx context.Context, studentID, moduleID string) (*enrollment.ModuleProgress, error) {
	return r.findOne(ctx, studentID, moduleID, "")
}

// Lock は FOR UPDATE で進捗行をロックして取得します。
func (r *ProgressRepository) Lock(ctx context.Context, studentID, moduleID string) (*enrollment.ModuleProgress, error) {
	return r.findOne(ctx, studentID, moduleID, " FOR UPDATE")
}

func (r *ProgressRepository) findOne(ctx context.Context, studentID, moduleID, lockClause string) (*enrollment.ModuleProgress, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+progressColumns+`
          FROM module_progress
         WHERE student_id = $1 AND module_id = $2
         LIMIT 1`+lockClause+`
    `, studentID, moduleID)

	found, err := scanProgress(row)
	if err != nil {
		return nil, translateProgressPgError(err)
	}
	return found, nil
}

// ListByStudent は指定モジュールにおける受講者の進捗を返します。
func (r *ProgressRepository) ListByStudent(ctx context.Context, studentID string, moduleIDs []string) ([]*enrollment.ModuleProgress, error) {
	if len(moduleIDs) == 0 {
		return []*enrollment.ModuleProgress{}, nil
	}
	return r.list(ctx, `student_id = $1 AND module_id = ANY($2::text[]::uuid[])`, studentID, moduleIDs)
}

// ListByModules は指定モジュールの全受講者の進捗を返します。
func (r *ProgressRepository) ListByModules(ctx context.Context, moduleIDs []string) ([]*enrollment.ModuleProgress, error) {
	if len(moduleIDs) == 0 {
		return []*enrollment.ModuleProgress{}, nil
	}
	return r.list(ctx, `module_id = ANY($1::text[]::uuid[])`, moduleIDs)
}

// DeleteByStudent は指定モジュールにおける受講者の進捗を削除し、削除件数を返します。
func (r *ProgressRepository) DeleteByStudent(ctx context.Context, studentID string, moduleIDs []string) (int, error) {
	if len(moduleIDs) == 0 {
		return 0, nil
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        DELETE FROM module_progress
         WHERE student_id = $1 AND module_id = ANY($2::text[]::uuid[])
    `, studentID, moduleIDs)
	if err != nil {
		return 0, translateProgressPgError(err)
	}
	return int(tag.RowsAffected()), nil
}

// CountByModule はモジュールの進捗行数を返します。
func (r *ProgressRepository) CountByModule(ctx context.Context, moduleID string) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var count int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM module_progress WHERE module_id = $1`, moduleID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ProgressRepository) list(ctx context.Context, condition string, args ...any) ([]*enrollment.ModuleProgress, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+progressColumns+`
          FROM module_progress
         WHERE `+condition+`
         ORDER BY created_at ASC, id ASC
    `, args...)
	if err != nil {
		return nil, translateProgressPgError(err)
	}
	defer rows.Close()

	progress := make([]*enrollment.ModuleProgress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, translateProgressPgError(err)
		}
		progress = append(progress, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translateProgressPgError(err)
	}
	return progress, nil
}

func scanProgress(row pgx.Row) (*enrollment.ModuleProgress, error) {
	var (
		p           enrollment.ModuleProgress
		completedAt sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(&p.ID, &p.StudentID, &p.ModuleID, &p.IsCompleted, &completedAt, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, enrollment.ErrProgressNotFound
		}
		return nil, err
	}

	if completedAt.Valid {
		ts := completedAt.Time.UTC()
		p.CompletedAt = &ts
	}
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = updatedAt.UTC()
	return &p, nil
}

func translateProgressPgError(err error) error {
	if pgErr, ok := asPgError(err); ok && pgErr.Code == foreignKeyViolationCode {
		if pgErr.ConstraintName == "module_progress_module_id_fkey" {
			return course.ErrModuleNotFound
		}
		return enrollment.ErrStudentNotFound
	}
	return err
}
