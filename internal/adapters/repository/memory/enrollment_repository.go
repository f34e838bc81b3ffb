package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/enrollment"
)

// EnrollmentRepository は enrollment.Repository のメモリ実装です。
type EnrollmentRepository struct {
	store *Store
}

// NewEnrollmentRepository は EnrollmentRepository を生成します。
func NewEnrollmentRepository(store *Store) *EnrollmentRepository {
	return &EnrollmentRepository{store: store}
}

// Create は受講登録を保存します。
func (r *EnrollmentRepository) Create(_ context.Context, e *enrollment.Enrollment) (*enrollment.Enrollment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.users[e.StudentID]; !ok {
		return nil, enrollment.ErrStudentNotFound
	}
	if _, ok := r.store.data.courses[e.CourseID]; !ok {
		return nil, course.ErrCourseNotFound
	}
	for _, existing := range r.store.data.enrollments {
		if existing.value.StudentID == e.StudentID && existing.value.CourseID == e.CourseID {
			return nil, enrollment.ErrAlreadyEnrolled
		}
	}

	created := *e
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	r.store.data.enrollments[created.ID] = entry[enrollment.Enrollment]{seq: r.store.nextSeq(), value: created}
	return ptr(created), nil
}

// Delete は受講登録を削除します。
func (r *EnrollmentRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.enrollments[id]; !ok {
		return enrollment.ErrEnrollmentNotFound
	}
	delete(r.store.data.enrollments, id)
	return nil
}

// Find は受講者とコースの組で受講登録を取得します。
func (r *EnrollmentRepository) Find(_ context.Context, studentID, courseID string) (*enrollment.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.data.enrollments {
		if e.value.StudentID == studentID && e.value.CourseID == courseID {
			return ptr(e.value), nil
		}
	}
	return nil, enrollment.ErrEnrollmentNotFound
}

// Lock は Find と同じです。書き込みは TransactionManager が直列化します。
func (r *EnrollmentRepository) Lock(ctx context.Context, studentID, courseID string) (*enrollment.Enrollment, error) {
	return r.Find(ctx, studentID, courseID)
}

// ListByStudent は受講者の受講登録を登録順に返します。
func (r *EnrollmentRepository) ListByStudent(_ context.Context, studentID string) ([]*enrollment.Enrollment, error) {
	return r.list(func(e enrollment.Enrollment) bool { return e.StudentID == studentID }), nil
}

// ListByCourse はコースの受講登録を登録順に返します。
func (r *EnrollmentRepository) ListByCourse(_ context.Context, courseID string) ([]*enrollment.Enrollment, error) {
	return r.list(func(e enrollment.Enrollment) bool { return e.CourseID == courseID }), nil
}

// CountByCourse はコースの受講登録数を返します。
func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	enrollments, err := r.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	return len(enrollments), nil
}

func (r *EnrollmentRepository) list(keep func(enrollment.Enrollment) bool) []*enrollment.Enrollment {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	values := r.store.data.enrollments.sorted(keep)
	enrollments := make([]*enrollment.Enrollment, 0, len(values))
	for _, e := range values {
		enrollments = append(enrollments, ptr(e))
	}
	return enrollments
}

// ProgressRepository は enrollment.ProgressRepository のメモリ実装です。
type ProgressRepository struct {
	store *Store
}

// NewProgressRepository は ProgressRepository を生成します。
func NewProgressRepository(store *Store) *ProgressRepository {
	return &ProgressRepository{store: store}
}

// Upsert は (受講者, モジュール) をキーに進捗を保存します。
func (r *ProgressRepository) Upsert(_ context.Context, p *enrollment.ModuleProgress) (*enrollment.ModuleProgress, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.modules[p.ModuleID]; !ok {
		return nil, course.ErrModuleNotFound
	}

	for id, e := range r.store.data.progress {
		if e.value.StudentID == p.StudentID && e.value.ModuleID == p.ModuleID {
			e.value.IsCompleted = p.IsCompleted
			e.value.CompletedAt = p.CompletedAt
			e.value.UpdatedAt = p.UpdatedAt
			r.store.data.progress[id] = e
			return ptr(e.value), nil
		}
	}

	created := *p
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	r.store.data.progress[created.ID] = entry[enrollment.ModuleProgress]{seq: r.store.nextSeq(), value: created}
	return ptr(created), nil
}

// Find は受講者とモジュールの組で進捗を取得します。
func (r *ProgressRepository) Find(_ context.Context, studentID, moduleID string) (*enrollment.ModuleProgress, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.data.progress {
		if e.value.StudentID == studentID && e.value.ModuleID == moduleID {
			return ptr(e.value), nil
		}
	}
	return nil, enrollment.ErrProgressNotFound
}

// Lock は Find と同じです。
func (r *ProgressRepository) Lock(ctx context.Context, studentID, moduleID string) (*enrollment.ModuleProgress, error) {
	return r.Find(ctx, studentID, moduleID)
}

// ListByStudent は指定モジュールにおける受講者の進捗を返します。
func (r *ProgressRepository) ListByStudent(_ context.Context, studentID string, moduleIDs []string) ([]*enrollment.ModuleProgress, error) {
	modules := toSet(moduleIDs)
	return r.list(func(p enrollment.ModuleProgress) bool {
		return p.StudentID == studentID && modules[p.ModuleID]
	}), nil
}

// ListByModules は指定モジュールの全受講者の進捗を返します。
func (r *ProgressRepository) ListByModules(_ context.Context, moduleIDs []string) ([]*enrollment.ModuleProgress, error) {
	modules := toSet(moduleIDs)
	return r.list(func(p enrollment.ModuleProgress) bool { return modules[p.ModuleID] }), nil
}

// DeleteByStudent は指定モジュールにおける受講者の進捗を削除し、削除件数を返します。
func (r *ProgressRepository) DeleteByStudent(_ context.Context, studentID string, moduleIDs []string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	modules := toSet(moduleIDs)
	deleted := 0
	for id, e := range r.store.data.progress {
		if e.value.StudentID == studentID && modules[e.value.ModuleID] {
			delete(r.store.data.progress, id)
			deleted++
		}
	}
	return deleted, nil
}

// CountByModule はモジュールの進捗行数を返します。
func (r *ProgressRepository) CountByModule(_ context.Context, moduleID string) (int, error) {
	return len(r.list(func(p enrollment.ModuleProgress) bool { return p.ModuleID == moduleID })), nil
}

func (r *ProgressRepository) list(keep func(enrollment.ModuleProgress) bool) []*enrollment.ModuleProgress {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	values := r.store.data.progress.sorted(keep)
	rows := make([]*enrollment.ModuleProgress, 0, len(values))
	for _, p := range values {
		rows = append(rows, ptr(p))
	}
	return rows
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
