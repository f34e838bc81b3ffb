package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var (
	courseRowColumns = []string{"id", "owner_id", "name", "description", "created_at", "updated_at"}
	moduleRowColumns = []string{"id", "course_id", "title", "description", "content_type", "content_url", "is_published", "created_at", "updated_at"}
)

func TestCourseRepository_ListByOwner_WithNextToken(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewCourseRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE owner_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`)).
		WithArgs("hr-1", 2, 0).
		WillReturnRows(pgxmock.NewRows(courseRowColumns).
			AddRow("course-1", "hr-1", "Security", "", now, now).
			AddRow("course-2", "hr-1", "Culture", "", now, now))

	courses, next, err := repo.ListByOwner(context.Background(), course.ListCoursesFilter{OwnerID: "hr-1", Limit: 1})
	if err != nil {
		t.Fatalf("ListByOwner returned error: %v", err)
	}
	if len(courses) != 1 || next != "1" {
		t.Fatalf("unexpected page: %d courses, next %q", len(courses), next)
	}
}

func TestCourseRepository_ListPublished(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewCourseRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE EXISTS (SELECT 1 FROM course_modules m WHERE m.course_id = c.id AND m.is_published)`)).
		WillReturnRows(pgxmock.NewRows(courseRowColumns).AddRow("course-1", "hr-1", "Security", "basics", now, now))

	courses, err := repo.ListPublished(context.Background())
	if err != nil {
		t.Fatalf("ListPublished returned error: %v", err)
	}
	if len(courses) != 1 || courses[0].Description != "basics" {
		t.Fatalf("unexpected courses %+v", courses)
	}
}

func TestCourseRepository_Delete(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewCourseRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM courses WHERE id = $1`)).
		WithArgs("course-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM courses WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM courses WHERE id = $1`)).
		WithArgs("enrolled").
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "enrollments_course_id_fkey"})

	if err := repo.Delete(context.Background(), "course-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, course.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "enrolled"); !errors.Is(err, course.ErrCourseHasEnrollment) {
		t.Fatalf("expected ErrCourseHasEnrollment, got %v", err)
	}
}

func TestModuleRepository_ListByCourse_PublishedOnly(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewModuleRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE course_id = $1 AND is_published ORDER BY created_at ASC, id ASC`)).
		WithArgs("course-1").
		WillReturnRows(pgxmock.NewRows(moduleRowColumns).
			AddRow("module-1", "course-1", "Intro", "", "VIDEO", "https://videos/intro", true, now, now))

	modules, err := repo.ListByCourse(context.Background(), "course-1", true)
	if err != nil {
		t.Fatalf("ListByCourse returned error: %v", err)
	}
	if len(modules) != 1 || modules[0].ContentType != course.ContentVideo || !modules[0].IsPublished {
		t.Fatalf("unexpected modules %+v", modules)
	}
}

func TestModuleRepository_ListByOwner(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewModuleRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`JOIN courses c ON c.id = m.course_id WHERE c.owner_id = $1 ORDER BY m.created_at ASC, m.id ASC`)).
		WithArgs("hr-1").
		WillReturnRows(pgxmock.NewRows(moduleRowColumns).
			AddRow("module-1", "course-1", "Intro", "", "VIDEO", "https://videos/intro", true, now, now).
			AddRow("module-2", "course-2", "Policy", "", "ARTICLE", "https://docs/policy", false, now, now))

	modules, err := repo.ListByOwner(context.Background(), "hr-1")
	if err != nil {
		t.Fatalf("ListByOwner returned error: %v", err)
	}
	if len(modules) != 2 || modules[1].CourseID != "course-2" || modules[1].IsPublished {
		t.Fatalf("unexpected modules %+v", modules)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestModuleRepository_Create_UnknownCourse(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewModuleRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO course_modules`)).
		WithArgs("missing", "Intro", "", "PDF", "https://files/intro.pdf", false, now, now).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode})

	_, err := repo.Create(context.Background(), &course.Module{
		CourseID:    "missing",
		Title:       "Intro",
		ContentType: course.ContentPDF,
		ContentURL:  "https://files/intro.pdf",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if !errors.Is(err, course.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}
