package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
)

// CourseRepository は course.CourseRepository のメモリ実装です。
type CourseRepository struct {
	store *Store
}

// NewCourseRepository は CourseRepository を生成します。
func NewCourseRepository(store *Store) *CourseRepository {
	return &CourseRepository{store: store}
}

// Create はコースを保存します。
func (r *CourseRepository) Create(_ context.Context, c *course.Course) (*course.Course, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := *c
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	r.store.data.courses[created.ID] = entry[course.Course]{seq: r.store.nextSeq(), value: created}
	return ptr(created), nil
}

// Update はコースの名称と説明を更新します。
func (r *CourseRepository) Update(_ context.Context, c *course.Course) (*course.Course, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.data.courses[c.ID]
	if !ok {
		return nil, course.ErrCourseNotFound
	}
	e.value.Name = c.Name
	e.value.Description = c.Description
	e.value.UpdatedAt = c.UpdatedAt
	r.store.data.courses[c.ID] = e
	return ptr(e.value), nil
}

// Delete はコースを削除し、モジュールとその進捗を連鎖削除します。
func (r *CourseRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.courses[id]; !ok {
		return course.ErrCourseNotFound
	}
	for moduleID, m := range r.store.data.modules {
		if m.value.CourseID == id {
			r.store.deleteModuleLocked(moduleID)
		}
	}
	delete(r.store.data.courses, id)
	return nil
}

// FindByID は ID でコースを取得します。
func (r *CourseRepository) FindByID(_ context.Context, id string) (*course.Course, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.data.courses[id]
	if !ok {
		return nil, course.ErrCourseNotFound
	}
	return ptr(e.value), nil
}

// ListByOwner は作成者のコースを作成順に返します。
func (r *CourseRepository) ListByOwner(_ context.Context, filter course.ListCoursesFilter) ([]*course.Course, string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	values := r.store.data.courses.sorted(func(c course.Course) bool { return c.OwnerID == filter.OwnerID })
	paged, next := page(values, filter.Limit, filter.Offset)
	courses := make([]*course.Course, 0, len(paged))
	for _, c := range paged {
		courses = append(courses, ptr(c))
	}
	return courses, next, nil
}

// ListPublished は公開済みモジュールを持つコースを作成順に返します。
func (r *CourseRepository) ListPublished(_ context.Context) ([]*course.Course, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	published := make(map[string]bool)
	for _, m := range r.store.data.modules {
		if m.value.IsPublished {
			published[m.value.CourseID] = true
		}
	}
	values := r.store.data.courses.sorted(func(c course.Course) bool { return published[c.ID] })
	courses := make([]*course.Course, 0, len(values))
	for _, c := range values {
		courses = append(courses, ptr(c))
	}
	return courses, nil
}

// ModuleRepository は course.ModuleRepository のメモリ実装です。
type ModuleRepository struct {
	store *Store
}

// NewModuleRepository は ModuleRepository を生成します。
func NewModuleRepository(store *Store) *ModuleRepository {
	return &ModuleRepository{store: store}
}

// Create はモジュールを保存します。
func (r *ModuleRepository) Create(_ context.Context, m *course.Module) (*course.Module, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.courses[m.CourseID]; !ok {
		return nil, course.ErrCourseNotFound
	}

	created := *m
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	r.store.data.modules[created.ID] = entry[course.Module]{seq: r.store.nextSeq(), value: created}
	return ptr(created), nil
}

// Update はモジュールの内容と公開状態を更新します。
func (r *ModuleRepository) Update(_ context.Context, m *course.Module) (*course.Module, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.data.modules[m.ID]
	if !ok {
		return nil, course.ErrModuleNotFound
	}
	courseID := e.value.CourseID
	createdAt := e.value.CreatedAt
	e.value = *m
	e.value.CourseID = courseID
	e.value.CreatedAt = createdAt
	r.store.data.modules[m.ID] = e
	return ptr(e.value), nil
}

// Delete はモジュールと進捗を削除します。
func (r *ModuleRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.modules[id]; !ok {
		return course.ErrModuleNotFound
	}
	r.store.deleteModuleLocked(id)
	return nil
}

// FindByID は ID でモジュールを取得します。
func (r *ModuleRepository) FindByID(_ context.Context, id string) (*course.Module, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.data.modules[id]
	if !ok {
		return nil, course.ErrModuleNotFound
	}
	return ptr(e.value), nil
}

// ListByCourse はコースのモジュールを作成順に返します。
func (r *ModuleRepository) ListByCourse(_ context.Context, courseID string, publishedOnly bool) ([]*course.Module, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	values := r.store.data.modules.sorted(func(m course.Module) bool {
		return m.CourseID == courseID && (!publishedOnly || m.IsPublished)
	})
	modules := make([]*course.Module, 0, len(values))
	for _, m := range values {
		modules = append(modules, ptr(m))
	}
	return modules, nil
}

// ListByOwner は作成者のコースに属するモジュールを作成順に返します。
func (r *ModuleRepository) ListByOwner(_ context.Context, ownerID string) ([]*course.Module, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	owned := make(map[string]bool)
	for id, c := range r.store.data.courses {
		if c.value.OwnerID == ownerID {
			owned[id] = true
		}
	}
	values := r.store.data.modules.sorted(func(m course.Module) bool { return owned[m.CourseID] })
	modules := make([]*course.Module, 0, len(values))
	for _, m := range values {
		modules = append(modules, ptr(m))
	}
	return modules, nil
}

func (s *Store) deleteModuleLocked(moduleID string) {
	for id, p := range s.data.progress {
		if p.value.ModuleID == moduleID {
			delete(s.data.progress, id)
		}
	}
	delete(s.data.modules, moduleID)
}
