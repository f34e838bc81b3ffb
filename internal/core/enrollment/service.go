package enrollment

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
)

const ownerScanPageSize = 200

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

// CourseReader はコースの参照を提供します。
type CourseReader interface {
	FindByID(ctx context.Context, id string) (*course.Course, error)
	ListByOwner(ctx context.Context, filter course.ListCoursesFilter) ([]*course.Course, string, error)
	ListPublished(ctx context.Context) ([]*course.Course, error)
}

// ModuleReader はモジュールの参照を提供します。
type ModuleReader interface {
	FindByID(ctx context.Context, id string) (*course.Module, error)
	ListByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]*course.Module, error)
}

// StudentFinder は受講者の参照を提供します。
type StudentFinder interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// Service は受講登録とモジュール進捗の整合性を管理します。
type Service struct {
	enrollments Repository
	progress    ProgressRepository
	courses     CourseReader
	modules     ModuleReader
	students    StudentFinder
	clock       Clock
	tx          TransactionManager
}

// UseCase は受講ユースケースの公開インターフェースです。
type UseCase interface {
	Enroll(ctx context.Context, in EnrollInput) (*Enrollment, error)
	Unenroll(ctx context.Context, in EnrollInput) error
	MarkModuleCompleted(ctx context.Context, in ModuleProgressInput) (*ModuleProgress, error)
	UnmarkModuleCompleted(ctx context.Context, in ModuleProgressInput) (*ModuleProgress, error)
	CourseProgress(ctx context.Context, studentID string) ([]*CourseProgress, error)
	CourseCompletionReport(ctx context.Context, actor access.Principal, courseID string) (*CompletionReport, error)
	CourseCompletionReports(ctx context.Context, actor access.Principal) ([]*CompletionReport, error)
	ListEnrolledStudents(ctx context.Context, actor access.Principal, courseID string) ([]*StudentProgress, error)
	EnrollmentStats(ctx context.Context, actor access.Principal) (*Stats, error)
	ListAvailableCourses(ctx context.Context, studentID string) ([]*course.Course, error)
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
}

// Dependencies は Service の依存関係です。
type Dependencies struct {
	Enrollments Repository
	Progress    ProgressRepository
	Courses     CourseReader
	Modules     ModuleReader
	Students    StudentFinder
	Clock       Clock
	Tx          TransactionManager
}

// NewService は Service を生成します。
func NewService(deps Dependencies) *Service {
	s := &Service{
		enrollments: deps.Enrollments,
		progress:    deps.Progress,
		courses:     deps.Courses,
		modules:     deps.Modules,
		students:    deps.Students,
		clock:       deps.Clock,
		tx:          deps.Tx,
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.tx == nil {
		s.tx = noopTransactionManager{}
	}
	return s
}

// EnrollInput は受講登録・解除時の入力です。受講者は操作者本人です。
type EnrollInput struct {
	Actor    access.Principal
	CourseID string
}

// ModuleProgressInput はモジュール完了操作の入力です。受講者は操作者本人です。
type ModuleProgressInput struct {
	Actor    access.Principal
	ModuleID string
}

// Enroll は公開済みモジュールを持つコースへ受講登録します。
func (s *Service) Enroll(ctx context.Context, in EnrollInput) (*Enrollment, error) {
	studentID, err := studentOf(in.Actor)
	if err != nil {
		return nil, err
	}

	courseID, err := normalizeUUID(in.CourseID, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}

	var created *Enrollment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureStudent(txCtx, studentID); err != nil {
			return err
		}
		if _, err := s.courses.FindByID(txCtx, courseID); err != nil {
			return err
		}

		published, err := s.modules.ListByCourse(txCtx, courseID, true)
		if err != nil {
			return err
		}
		if len(published) == 0 {
			return ErrNoPublishedModules
		}

		existing, err := s.enrollments.Find(txCtx, studentID, courseID)
		if err != nil && !errors.Is(err, ErrEnrollmentNotFound) {
			return err
		}
		if existing != nil {
			return ErrAlreadyEnrolled
		}

		result, err := s.enrollments.Create(txCtx, &Enrollment{
			StudentID:  studentID,
			CourseID:   courseID,
			EnrolledAt: s.clock.Now(),
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// Unenroll は受講登録を解除します。完了済みモジュールがある場合は解除できません。
// 進捗行を先に削除し、その後で受講登録を削除します。
func (s *Service) Unenroll(ctx context.Context, in EnrollInput) error {
	studentID, err := studentOf(in.Actor)
	if err != nil {
		return err
	}

	courseID, err := normalizeUUID(in.CourseID, ErrInvalidCourseID)
	if err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		e, err := s.enrollments.Lock(txCtx, studentID, courseID)
		if err != nil {
			return err
		}

		modules, err := s.modules.ListByCourse(txCtx, courseID, false)
		if err != nil {
			return err
		}
		moduleIDs := moduleIDsOf(modules)

		rows, err := s.progress.ListByStudent(txCtx, studentID, moduleIDs)
		if err != nil {
			return err
		}
		for _, p := range rows {
			if p.IsCompleted {
				return ErrCompletedModulesExist
			}
		}

		if _, err := s.progress.DeleteByStudent(txCtx, studentID, moduleIDs); err != nil {
			return err
		}
		return s.enrollments.Delete(txCtx, e.ID)
	})
}

// MarkModuleCompleted は受講中コースの公開済みモジュールを完了にします。
func (s *Service) MarkModuleCompleted(ctx context.Context, in ModuleProgressInput) (*ModuleProgress, error) {
	studentID, err := studentOf(in.Actor)
	if err != nil {
		return nil, err
	}

	moduleID, err := normalizeUUID(in.ModuleID, ErrInvalidModuleID)
	if err != nil {
		return nil, err
	}

	var marked *ModuleProgress
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureStudent(txCtx, studentID); err != nil {
			return err
		}

		m, err := s.modules.FindByID(txCtx, moduleID)
		if err != nil {
			return err
		}

		// 受講登録行をロックし、同時に走る受講解除と直列化する。
		if _, err := s.enrollments.Lock(txCtx, studentID, m.CourseID); err != nil {
			if errors.Is(err, ErrEnrollmentNotFound) {
				return ErrNotEnrolled
			}
			return err
		}

		if !m.IsPublished {
			return ErrModuleNotPublished
		}

		now := s.clock.Now()
		p, err := s.progress.Lock(txCtx, studentID, moduleID)
		switch {
		case errors.Is(err, ErrProgressNotFound):
			p = &ModuleProgress{StudentID: studentID, ModuleID: moduleID, CreatedAt: now}
		case err != nil:
			return err
		case p.IsCompleted:
			return ErrModuleAlreadyCompleted
		}

		p.IsCompleted = true
		p.CompletedAt = &now
		p.UpdatedAt = now

		result, err := s.progress.Upsert(txCtx, p)
		if err != nil {
			return err
		}
		marked = result
		return nil
	}); err != nil {
		return nil, err
	}

	return marked, nil
}

// UnmarkModuleCompleted はモジュールの完了を取り消します。進捗行は削除しません。
func (s *Service) UnmarkModuleCompleted(ctx context.Context, in ModuleProgressInput) (*ModuleProgress, error) {
	studentID, err := studentOf(in.Actor)
	if err != nil {
		return nil, err
	}

	moduleID, err := normalizeUUID(in.ModuleID, ErrInvalidModuleID)
	if err != nil {
		return nil, err
	}

	var unmarked *ModuleProgress
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		p, err := s.progress.Lock(txCtx, studentID, moduleID)
		if err != nil {
			return err
		}

		p.IsCompleted = false
		p.CompletedAt = nil
		p.UpdatedAt = s.clock.Now()

		result, err := s.progress.Upsert(txCtx, p)
		if err != nil {
			return err
		}
		unmarked = result
		return nil
	}); err != nil {
		return nil, err
	}

	return unmarked, nil
}

// CourseProgress は受講者の受講中コースごとの進捗を返します。
func (s *Service) CourseProgress(ctx context.Context, studentID string) ([]*CourseProgress, error) {
	sid, err := normalizeUUID(studentID, ErrInvalidStudentID)
	if err != nil {
		return nil, err
	}

	var result []*CourseProgress
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		enrollments, err := s.enrollments.ListByStudent(txCtx, sid)
		if err != nil {
			return err
		}

		result = make([]*CourseProgress, 0, len(enrollments))
		for _, e := range enrollments {
			c, err := s.courses.FindByID(txCtx, e.CourseID)
			if err != nil {
				return err
			}
			completed, published, err := s.studentCompletion(txCtx, sid, e.CourseID)
			if err != nil {
				return err
			}
			result = append(result, &CourseProgress{
				Course:           c,
				EnrolledAt:       e.EnrolledAt,
				CompletedModules: completed,
				PublishedModules: published,
				Percentage:       Percentage(completed, published),
			})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// CourseCompletionReport は公開済みモジュールごとの受講者完了率と全体平均を返します。
func (s *Service) CourseCompletionReport(ctx context.Context, actor access.Principal, courseID string) (*CompletionReport, error) {
	if err := access.Require(actor, access.RoleHR); err != nil {
		return nil, err
	}

	cid, err := normalizeUUID(courseID, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}

	var report *CompletionReport
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		c, err := s.ownedCourse(txCtx, actor, cid)
		if err != nil {
			return err
		}
		report, err = s.completionReport(txCtx, c)
		return err
	}); err != nil {
		return nil, err
	}

	return report, nil
}

// CourseCompletionReports は操作者が作成した全コースの完了率レポートを作成順に返します。
func (s *Service) CourseCompletionReports(ctx context.Context, actor access.Principal) ([]*CompletionReport, error) {
	if err := access.Require(actor, access.RoleHR); err != nil {
		return nil, err
	}

	var reports []*CompletionReport
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		courses, err := s.ownedCourses(txCtx, actor.UserID)
		if err != nil {
			return err
		}
		reports = make([]*CompletionReport, 0, len(courses))
		for _, c := range courses {
			report, err := s.completionReport(txCtx, c)
			if err != nil {
				return err
			}
			reports = append(reports, report)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return reports, nil
}

func (s *Service) completionReport(ctx context.Context, c *course.Course) (*CompletionReport, error) {
	enrollments, err := s.enrollments.ListByCourse(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	enrolled := make(map[string]bool, len(enrollments))
	for _, e := range enrollments {
		enrolled[e.StudentID] = true
	}

	modules, err := s.modules.ListByCourse(ctx, c.ID, true)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.ListByModules(ctx, moduleIDsOf(modules))
	if err != nil {
		return nil, err
	}
	completedByModule := make(map[string]int, len(modules))
	for _, p := range rows {
		if p.IsCompleted && enrolled[p.StudentID] {
			completedByModule[p.ModuleID]++
		}
	}

	report := &CompletionReport{
		Course:           c,
		EnrolledStudents: len(enrollments),
		Modules:          make([]ModuleCompletion, 0, len(modules)),
	}
	var sum float64
	for _, m := range modules {
		mc := ModuleCompletion{
			Module:            m,
			EnrolledStudents:  len(enrollments),
			CompletedStudents: completedByModule[m.ID],
			Percentage:        Percentage(completedByModule[m.ID], len(enrollments)),
		}
		sum += mc.Percentage
		report.Modules = append(report.Modules, mc)
	}
	if len(modules) > 0 {
		report.OverallPercentage = sum / float64(len(modules))
	}
	return report, nil
}

// ListEnrolledStudents はコース受講者とそれぞれの進捗を返します。
func (s *Service) ListEnrolledStudents(ctx context.Context, actor access.Principal, courseID string) ([]*StudentProgress, error) {
	if err := access.Require(actor, access.RoleHR); err != nil {
		return nil, err
	}

	cid, err := normalizeUUID(courseID, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}

	var students []*StudentProgress
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.ownedCourse(txCtx, actor, cid); err != nil {
			return err
		}

		enrollments, err := s.enrollments.ListByCourse(txCtx, cid)
		if err != nil {
			return err
		}

		students = make([]*StudentProgress, 0, len(enrollments))
		for _, e := range enrollments {
			u, err := s.students.FindByID(txCtx, e.StudentID)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					return ErrStudentNotFound
				}
				return err
			}
			completed, published, err := s.studentCompletion(txCtx, e.StudentID, cid)
			if err != nil {
				return err
			}
			students = append(students, &StudentProgress{
				Student:          u,
				EnrolledAt:       e.EnrolledAt,
				CompletedModules: completed,
				PublishedModules: published,
				Percentage:       Percentage(completed, published),
			})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return students, nil
}

// EnrollmentStats は操作者が作成したコース全体の受講統計を返します。
func (s *Service) EnrollmentStats(ctx context.Context, actor access.Principal) (*Stats, error) {
	if err := access.Require(actor, access.RoleHR); err != nil {
		return nil, err
	}

	stats := &Stats{}
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		courses, err := s.ownedCourses(txCtx, actor.UserID)
		if err != nil {
			return err
		}
		for _, c := range courses {
			count, err := s.enrollments.CountByCourse(txCtx, c.ID)
			if err != nil {
				return err
			}
			stats.TotalCourses++
			stats.TotalEnrollments += count
		}
		if stats.TotalCourses > 0 {
			stats.AveragePerCourse = float64(stats.TotalEnrollments) / float64(stats.TotalCourses)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return stats, nil
}

// ownedCourses は作成者のコースをページ送りしながら全件取得します。
func (s *Service) ownedCourses(ctx context.Context, ownerID string) ([]*course.Course, error) {
	var all []*course.Course
	offset := 0
	for {
		courses, next, err := s.courses.ListByOwner(ctx, course.ListCoursesFilter{OwnerID: ownerID, Limit: ownerScanPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, courses...)
		if next == "" {
			return all, nil
		}
		offset, err = strconv.Atoi(next)
		if err != nil {
			return nil, err
		}
	}
}

// ListAvailableCourses は公開済みモジュールを持ち、受講者が未登録のコースを返します。
func (s *Service) ListAvailableCourses(ctx context.Context, studentID string) ([]*course.Course, error) {
	sid, err := normalizeUUID(studentID, ErrInvalidStudentID)
	if err != nil {
		return nil, err
	}

	var available []*course.Course
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		enrollments, err := s.enrollments.ListByStudent(txCtx, sid)
		if err != nil {
			return err
		}
		enrolled := make(map[string]bool, len(enrollments))
		for _, e := range enrollments {
			enrolled[e.CourseID] = true
		}

		courses, err := s.courses.ListPublished(txCtx)
		if err != nil {
			return err
		}
		for _, c := range courses {
			if !enrolled[c.ID] {
				available = append(available, c)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return available, nil
}

// IsEnrolled は受講者がコースに登録済みかを返します。
func (s *Service) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	sid, err := normalizeUUID(studentID, ErrInvalidStudentID)
	if err != nil {
		return false, err
	}

	cid, err := normalizeUUID(courseID, ErrInvalidCourseID)
	if err != nil {
		return false, err
	}

	enrolled := false
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		_, err := s.enrollments.Find(txCtx, sid, cid)
		if errors.Is(err, ErrEnrollmentNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		enrolled = true
		return nil
	}); err != nil {
		return false, err
	}

	return enrolled, nil
}

func (s *Service) studentCompletion(ctx context.Context, studentID, courseID string) (int, int, error) {
	modules, err := s.modules.ListByCourse(ctx, courseID, true)
	if err != nil {
		return 0, 0, err
	}
	if len(modules) == 0 {
		return 0, 0, nil
	}

	rows, err := s.progress.ListByStudent(ctx, studentID, moduleIDsOf(modules))
	if err != nil {
		return 0, 0, err
	}
	completed := 0
	for _, p := range rows {
		if p.IsCompleted {
			completed++
		}
	}
	return completed, len(modules), nil
}

func (s *Service) ensureStudent(ctx context.Context, studentID string) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	return nil
}

func (s *Service) ownedCourse(ctx context.Context, actor access.Principal, courseID string) (*course.Course, error) {
	c, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != actor.UserID {
		return nil, course.ErrNotCourseOwner
	}
	return c, nil
}

func studentOf(actor access.Principal) (string, error) {
	if err := access.Require(actor, access.RoleEmployee); err != nil {
		return "", err
	}
	return normalizeUUID(actor.UserID, ErrInvalidStudentID)
}

func moduleIDsOf(modules []*course.Module) []string {
	ids := make([]string, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.ID)
	}
	return ids
}

func normalizeUUID(raw string, invalid error) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", invalid
	}
	return parsed.String(), nil
}
