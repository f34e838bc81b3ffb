package enrollment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/adapters/repository/memory"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/apperr"
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/enrollment"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type lockRecordingEnrollments struct {
	*memory.EnrollmentRepository
	locked []string
}

func (r *lockRecordingEnrollments) Lock(ctx context.Context, studentID, courseID string) (*enrollment.Enrollment, error) {
	r.locked = append(r.locked, courseID)
	return r.EnrollmentRepository.Lock(ctx, studentID, courseID)
}

type fixture struct {
	svc         *enrollment.Service
	courses     *course.Service
	enrollments *lockRecordingEnrollments
	progress    *memory.ProgressRepository
	users       *memory.UserRepository
	owner       access.Principal
	student     access.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	tx := memory.NewTransactionManager(store)
	clock := stubClock{now: time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)}
	users := memory.NewUserRepository(store)
	courseRepo := memory.NewCourseRepository(store)
	moduleRepo := memory.NewModuleRepository(store)
	enrollRepo := memory.NewEnrollmentRepository(store)
	progressRepo := memory.NewProgressRepository(store)
	locking := &lockRecordingEnrollments{EnrollmentRepository: enrollRepo}

	f := &fixture{
		svc: enrollment.NewService(enrollment.Dependencies{
			Enrollments: locking,
			Progress:    progressRepo,
			Courses:     courseRepo,
			Modules:     moduleRepo,
			Students:    users,
			Clock:       clock,
			Tx:          tx,
		}),
		courses:     course.NewService(courseRepo, moduleRepo, enrollRepo, progressRepo, clock, tx),
		enrollments: locking,
		progress:    progressRepo,
		users:       users,
	}
	f.owner = f.principal(t, "hr@example.com", access.RoleHR)
	f.student = f.principal(t, "student@example.com", access.RoleEmployee)
	return f
}

func (f *fixture) principal(t *testing.T, email string, role access.Role) access.Principal {
	t.Helper()
	u, err := f.users.Create(context.Background(), &user.User{Email: email, Name: email, Roles: []access.Role{role}})
	if err != nil {
		t.Fatalf("Create user returned error: %v", err)
	}
	return access.Principal{UserID: u.ID, Roles: u.Roles}
}

// courseWithModules は公開済みモジュールを published 件、未公開モジュールを drafts 件持つコースを作成します。
func (f *fixture) courseWithModules(t *testing.T, published, drafts int) (*course.Course, []*course.Module) {
	t.Helper()
	ctx := context.Background()
	c, err := f.courses.CreateCourse(ctx, course.CreateCourseInput{Actor: f.owner, Name: "Compliance"})
	if err != nil {
		t.Fatalf("CreateCourse returned error: %v", err)
	}

	var modules []*course.Module
	for i := 0; i < published+drafts; i++ {
		m, err := f.courses.CreateModule(ctx, course.CreateModuleInput{
			Actor:       f.owner,
			CourseID:    c.ID,
			Title:       "Module",
			ContentType: "ARTICLE",
			ContentURL:  "https://cdn.example.com/article",
		})
		if err != nil {
			t.Fatalf("CreateModule returned error: %v", err)
		}
		if i < published {
			if m, err = f.courses.PublishModule(ctx, course.ModuleRefInput{Actor: f.owner, ID: m.ID}); err != nil {
				t.Fatalf("PublishModule returned error: %v", err)
			}
		}
		modules = append(modules, m)
	}
	return c, modules
}

func TestService_EnrollmentScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	c, modules := f.courseWithModules(t, 2, 0)
	in := enrollment.EnrollInput{Actor: f.student, CourseID: c.ID}

	enrolled, err := f.svc.Enroll(ctx, in)
	if err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}
	if enrolled.StudentID != f.student.UserID || enrolled.EnrolledAt.IsZero() {
		t.Fatalf("unexpected enrollment: %+v", enrolled)
	}

	mark := enrollment.ModuleProgressInput{Actor: f.student, ModuleID: modules[0].ID}
	marked, err := f.svc.MarkModuleCompleted(ctx, mark)
	if err != nil {
		t.Fatalf("MarkModuleCompleted returned error: %v", err)
	}
	if !marked.IsCompleted || marked.CompletedAt == nil {
		t.Fatalf("expected completed progress, got %+v", marked)
	}

	progress, err := f.svc.CourseProgress(ctx, f.student.UserID)
	if err != nil {
		t.Fatalf("CourseProgress returned error: %v", err)
	}
	if len(progress) != 1 || progress[0].Percentage != 50.0 {
		t.Fatalf("expected 50%% progress, got %+v", progress)
	}

	if err := f.svc.Unenroll(ctx, in); !errors.Is(err, enrollment.ErrCompletedModulesExist) {
		t.Fatalf("expected ErrCompletedModulesExist, got %v", err)
	}

	unmarked, err := f.svc.UnmarkModuleCompleted(ctx, mark)
	if err != nil {
		t.Fatalf("UnmarkModuleCompleted returned error: %v", err)
	}
	if unmarked.IsCompleted || unmarked.CompletedAt != nil {
		t.Fatalf("expected cleared progress, got %+v", unmarked)
	}

	if err := f.svc.Unenroll(ctx, in); err != nil {
		t.Fatalf("Unenroll returned error: %v", err)
	}
	if ok, err := f.svc.IsEnrolled(ctx, f.student.UserID, c.ID); err != nil || ok {
		t.Fatalf("expected enrollment removed: %v %v", ok, err)
	}
	if _, err := f.progress.Find(ctx, f.student.UserID, modules[0].ID); !errors.Is(err, enrollment.ErrProgressNotFound) {
		t.Fatalf("expected progress rows removed, got %v", err)
	}
}

func TestService_Enroll_Rules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	drafts, _ := f.courseWithModules(t, 0, 2)
	ready, _ := f.courseWithModules(t, 1, 0)

	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: drafts.ID}); !errors.Is(err, enrollment.ErrNoPublishedModules) {
		t.Fatalf("expected ErrNoPublishedModules, got %v", err)
	}
	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: uuid.NewString()}); !errors.Is(err, course.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: ready.ID}); err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}
	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: ready.ID}); !errors.Is(err, enrollment.ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}

	ghost := access.Principal{UserID: uuid.NewString(), Roles: []access.Role{access.RoleEmployee}}
	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: ghost, CourseID: ready.ID}); !errors.Is(err, enrollment.ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: f.owner, CourseID: ready.ID}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for non-employee, got %v", err)
	}
	if err := f.svc.Unenroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: drafts.ID}); !errors.Is(err, enrollment.ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
}

func TestService_MarkModuleCompleted_Rules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	c, modules := f.courseWithModules(t, 1, 1)
	published, draft := modules[0], modules[1]

	mark := func(moduleID string) error {
		_, err := f.svc.MarkModuleCompleted(ctx, enrollment.ModuleProgressInput{Actor: f.student, ModuleID: moduleID})
		return err
	}

	if err := mark(published.ID); !errors.Is(err, enrollment.ErrNotEnrolled) || !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden before enrollment, got %v", err)
	}
	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: c.ID}); err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}
	if err := mark(draft.ID); !errors.Is(err, enrollment.ErrModuleNotPublished) {
		t.Fatalf("expected ErrModuleNotPublished, got %v", err)
	}
	if err := mark(uuid.NewString()); !errors.Is(err, course.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
	if err := mark(published.ID); err != nil {
		t.Fatalf("MarkModuleCompleted returned error: %v", err)
	}
	if err := mark(published.ID); !errors.Is(err, enrollment.ErrModuleAlreadyCompleted) {
		t.Fatalf("expected ErrModuleAlreadyCompleted, got %v", err)
	}

	if _, err := f.svc.UnmarkModuleCompleted(ctx, enrollment.ModuleProgressInput{Actor: f.student, ModuleID: draft.ID}); !errors.Is(err, enrollment.ErrProgressNotFound) {
		t.Fatalf("expected ErrProgressNotFound, got %v", err)
	}
}

func TestService_Reports(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	c, modules := f.courseWithModules(t, 2, 1)
	other := f.principal(t, "other@example.com", access.RoleEmployee)

	for _, p := range []access.Principal{f.student, other} {
		if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: p, CourseID: c.ID}); err != nil {
			t.Fatalf("Enroll returned error: %v", err)
		}
	}
	if _, err := f.svc.MarkModuleCompleted(ctx, enrollment.ModuleProgressInput{Actor: f.student, ModuleID: modules[0].ID}); err != nil {
		t.Fatalf("MarkModuleCompleted returned error: %v", err)
	}
	if _, err := f.svc.MarkModuleCompleted(ctx, enrollment.ModuleProgressInput{Actor: f.student, ModuleID: modules[1].ID}); err != nil {
		t.Fatalf("MarkModuleCompleted returned error: %v", err)
	}
	if _, err := f.svc.MarkModuleCompleted(ctx, enrollment.ModuleProgressInput{Actor: other, ModuleID: modules[0].ID}); err != nil {
		t.Fatalf("MarkModuleCompleted returned error: %v", err)
	}

	report, err := f.svc.CourseCompletionReport(ctx, f.owner, c.ID)
	if err != nil {
		t.Fatalf("CourseCompletionReport returned error: %v", err)
	}
	if report.EnrolledStudents != 2 || len(report.Modules) != 2 {
		t.Fatalf("unexpected report shape: %+v", report)
	}
	if report.Modules[0].Percentage != 100 || report.Modules[1].Percentage != 50 || report.OverallPercentage != 75 {
		t.Fatalf("unexpected percentages: %+v", report)
	}

	students, err := f.svc.ListEnrolledStudents(ctx, f.owner, c.ID)
	if err != nil {
		t.Fatalf("ListEnrolledStudents returned error: %v", err)
	}
	if len(students) != 2 || students[0].Percentage != 100 || students[1].Percentage != 50 {
		t.Fatalf("unexpected student progress: %+v", students)
	}

	stats, err := f.svc.EnrollmentStats(ctx, f.owner)
	if err != nil {
		t.Fatalf("EnrollmentStats returned error: %v", err)
	}
	if stats.TotalCourses != 1 || stats.TotalEnrollments != 2 || stats.AveragePerCourse != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	stranger := access.Principal{UserID: uuid.NewString(), Roles: []access.Role{access.RoleHR}}
	if _, err := f.svc.CourseCompletionReport(ctx, stranger, c.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
}

func TestService_CourseCompletionReports(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	first, modules := f.courseWithModules(t, 2, 1)
	second, _ := f.courseWithModules(t, 0, 0)

	otherHR := f.principal(t, "other-hr@example.com", access.RoleHR)
	if _, err := f.courses.CreateCourse(ctx, course.CreateCourseInput{Actor: otherHR, Name: "Security"}); err != nil {
		t.Fatalf("CreateCourse returned error: %v", err)
	}

	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: first.ID}); err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}
	if _, err := f.svc.MarkModuleCompleted(ctx, enrollment.ModuleProgressInput{Actor: f.student, ModuleID: modules[0].ID}); err != nil {
		t.Fatalf("MarkModuleCompleted returned error: %v", err)
	}

	reports, err := f.svc.CourseCompletionReports(ctx, f.owner)
	if err != nil {
		t.Fatalf("CourseCompletionReports returned error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected reports for the two owned courses, got %d", len(reports))
	}
	byCourse := make(map[string]*enrollment.CompletionReport, len(reports))
	for _, r := range reports {
		byCourse[r.Course.ID] = r
	}
	got := byCourse[first.ID]
	if got == nil || got.EnrolledStudents != 1 || len(got.Modules) != 2 || got.OverallPercentage != 50 {
		t.Fatalf("unexpected report for first course: %+v", got)
	}
	if empty := byCourse[second.ID]; empty == nil || empty.OverallPercentage != 0 || len(empty.Modules) != 0 {
		t.Fatalf("unexpected report for empty course: %+v", empty)
	}

	none, err := f.svc.CourseCompletionReports(ctx, f.principal(t, "fresh-hr@example.com", access.RoleHR))
	if err != nil {
		t.Fatalf("CourseCompletionReports returned error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no reports for HR without courses, got %d", len(none))
	}

	if _, err := f.svc.CourseCompletionReports(ctx, f.student); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for employee, got %v", err)
	}
}

func TestService_EmptyCourseReportAndAvailability(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	empty, _ := f.courseWithModules(t, 0, 0)
	open, _ := f.courseWithModules(t, 1, 0)
	joined, _ := f.courseWithModules(t, 1, 0)

	report, err := f.svc.CourseCompletionReport(ctx, f.owner, empty.ID)
	if err != nil {
		t.Fatalf("CourseCompletionReport returned error: %v", err)
	}
	if report.OverallPercentage != 0 || len(report.Modules) != 0 {
		t.Fatalf("expected zero report for empty course, got %+v", report)
	}

	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: joined.ID}); err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}
	available, err := f.svc.ListAvailableCourses(ctx, f.student.UserID)
	if err != nil {
		t.Fatalf("ListAvailableCourses returned error: %v", err)
	}
	if len(available) != 1 || available[0].ID != open.ID {
		t.Fatalf("expected only the open course, got %+v", available)
	}
}

func TestPercentage(t *testing.T) {
	t.Parallel()

	if got := enrollment.Percentage(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty set, got %v", got)
	}
	if got := enrollment.Percentage(1, 3); got < 33.33 || got > 33.34 {
		t.Fatalf("expected 33.3, got %v", got)
	}
}

func TestService_MarkAndUnenrollLockEnrollmentRow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	c, modules := f.courseWithModules(t, 1, 0)

	if _, err := f.svc.Enroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: c.ID}); err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}
	if _, err := f.svc.MarkModuleCompleted(ctx, enrollment.ModuleProgressInput{Actor: f.student, ModuleID: modules[0].ID}); err != nil {
		t.Fatalf("MarkModuleCompleted returned error: %v", err)
	}
	if len(f.enrollments.locked) != 1 || f.enrollments.locked[0] != c.ID {
		t.Fatalf("expected enrollment row locked by mark, got %v", f.enrollments.locked)
	}

	if err := f.svc.Unenroll(ctx, enrollment.EnrollInput{Actor: f.student, CourseID: c.ID}); !errors.Is(err, enrollment.ErrCompletedModulesExist) {
		t.Fatalf("expected ErrCompletedModulesExist, got %v", err)
	}
	if len(f.enrollments.locked) != 2 || f.enrollments.locked[1] != c.ID {
		t.Fatalf("expected enrollment row locked by unenroll, got %v", f.enrollments.locked)
	}
}
