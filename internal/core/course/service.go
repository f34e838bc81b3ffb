package course

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
)

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

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

// EnrollmentCounter はコースの受講登録数を返します。
type EnrollmentCounter interface {
	CountByCourse(ctx context.Context, courseID string) (int, error)
}

// ProgressCounter はモジュールの進捗行数を返します。
type ProgressCounter interface {
	CountByModule(ctx context.Context, moduleID string) (int, error)
}

// Service はコースとモジュールの作成・編集を管理します。
type Service struct {
	courses     CourseRepository
	modules     ModuleRepository
	enrollments EnrollmentCounter
	progress    ProgressCounter
	clock       Clock
	tx          TransactionManager
}

// UseCase はコースユースケースの公開インターフェースです。
type UseCase interface {
	CreateCourse(ctx context.Context, in CreateCourseInput) (*Course, error)
	UpdateCourse(ctx context.Context, in UpdateCourseInput) (*Course, error)
	DeleteCourse(ctx context.Context, in DeleteCourseInput) error
	GetCourse(ctx context.Context, id string) (*Course, error)
	ListCourses(ctx context.Context, in ListCoursesInput) (*ListCoursesResult, error)
	CreateModule(ctx context.Context, in CreateModuleInput) (*Module, error)
	UpdateModule(ctx context.Context, in UpdateModuleInput) (*Module, error)
	PublishModule(ctx context.Context, in ModuleRefInput) (*Module, error)
	UnpublishModule(ctx context.Context, in ModuleRefInput) (*Module, error)
	DeleteModule(ctx context.Context, in ModuleRefInput) error
	GetModule(ctx context.Context, id string) (*Module, error)
	ListModules(ctx context.Context, in ListModulesInput) ([]*Module, error)
	ListMyModules(ctx context.Context, in ListMyModulesInput) ([]*Module, error)
}

// NewService は Service を生成します。
func NewService(courses CourseRepository, modules ModuleRepository, enrollments EnrollmentCounter, progress ProgressCounter, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		courses:     courses,
		modules:     modules,
		enrollments: enrollments,
		progress:    progress,
		clock:       clock,
		tx:          tx,
	}
}

// CreateCourseInput はコース作成時の入力です。
type CreateCourseInput struct {
	Actor       access.Principal
	Name        string
	Description string
}

// UpdateCourseInput はコース更新時の入力です。nil の項目は変更しません。
type UpdateCourseInput struct {
	Actor       access.Principal
	ID          string
	Name        *string
	Description *string
}

// DeleteCourseInput はコース削除時の入力です。
type DeleteCourseInput struct {
	Actor access.Principal
	ID    string
}

// ListCoursesInput は作成者のコース一覧取得時の入力です。
type ListCoursesInput struct {
	Actor     access.Principal
	PageSize  int
	PageToken string
}

// ListCoursesResult はコース一覧の取得結果です。
type ListCoursesResult struct {
	Courses       []*Course
	NextPageToken string
}

// CreateModuleInput はモジュール作成時の入力です。
type CreateModuleInput struct {
	Actor       access.Principal
	CourseID    string
	Title       string
	Description string
	ContentType string
	ContentURL  string
}

// UpdateModuleInput はモジュール更新時の入力です。nil の項目は変更しません。
type UpdateModuleInput struct {
	Actor       access.Principal
	ID          string
	Title       *string
	Description *string
	ContentType *string
	ContentURL  *string
}

// ModuleRefInput はモジュールを指定する操作の入力です。
type ModuleRefInput struct {
	Actor access.Principal
	ID    string
}

// ListModulesInput はモジュール一覧取得時の入力です。
type ListModulesInput struct {
	CourseID      string
	PublishedOnly bool
}

// ListMyModulesInput は作成者のモジュール一覧取得時の入力です。CourseID が空なら全コースが対象です。
type ListMyModulesInput struct {
	Actor    access.Principal
	CourseID string
}

// CreateCourse は操作者を作成者としてコースを作成します。
func (s *Service) CreateCourse(ctx context.Context, in CreateCourseInput) (*Course, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	now := s.clock.Now()
	var created *Course
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.courses.Create(txCtx, &Course{
			OwnerID:     in.Actor.UserID,
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			CreatedAt:   now,
			UpdatedAt:   now,
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

// UpdateCourse はコースの名称や説明を更新します。
func (s *Service) UpdateCourse(ctx context.Context, in UpdateCourseInput) (*Course, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	id, err := normalizeUUID(in.ID, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}

	var name *string
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if trimmed == "" {
			return nil, ErrInvalidName
		}
		name = &trimmed
	}

	var updated *Course
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		c, err := s.ownedCourse(txCtx, in.Actor, id)
		if err != nil {
			return err
		}
		if name != nil {
			c.Name = *name
		}
		if in.Description != nil {
			c.Description = strings.TrimSpace(*in.Description)
		}
		c.UpdatedAt = s.clock.Now()

		result, err := s.courses.Update(txCtx, c)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteCourse はコースを削除します。受講登録が存在する場合は削除できません。
func (s *Service) DeleteCourse(ctx context.Context, in DeleteCourseInput) error {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return err
	}

	id, err := normalizeUUID(in.ID, ErrInvalidCourseID)
	if err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.ownedCourse(txCtx, in.Actor, id); err != nil {
			return err
		}
		count, err := s.enrollments.CountByCourse(txCtx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCourseHasEnrollment
		}
		return s.courses.Delete(txCtx, id)
	})
}

// GetCourse はコースを取得します。
func (s *Service) GetCourse(ctx context.Context, id string) (*Course, error) {
	courseID, err := normalizeUUID(id, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}

	var c *Course
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.courses.FindByID(txCtx, courseID)
		if err != nil {
			return err
		}
		c = result
		return nil
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCourses は操作者が作成したコースの一覧を返します。
func (s *Service) ListCourses(ctx context.Context, in ListCoursesInput) (*ListCoursesResult, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		courses   []*Course
		nextToken string
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.courses.ListByOwner(txCtx, ListCoursesFilter{OwnerID: in.Actor.UserID, Limit: limit, Offset: offset})
		if err != nil {
			return err
		}
		courses = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListCoursesResult{Courses: courses, NextPageToken: nextToken}, nil
}

// CreateModule は未公開のモジュールをコースへ追加します。
func (s *Service) CreateModule(ctx context.Context, in CreateModuleInput) (*Module, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	courseID, err := normalizeUUID(in.CourseID, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}

	contentType, err := normalizeContentType(in.ContentType)
	if err != nil {
		return nil, err
	}

	contentURL := strings.TrimSpace(in.ContentURL)
	if contentURL == "" {
		return nil, ErrInvalidContentURL
	}

	var created *Module
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.ownedCourse(txCtx, in.Actor, courseID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.modules.Create(txCtx, &Module{
			CourseID:    courseID,
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			ContentType: contentType,
			ContentURL:  contentURL,
			IsPublished: false,
			CreatedAt:   now,
			UpdatedAt:   now,
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

// UpdateModule はモジュールの内容を更新します。
func (s *Service) UpdateModule(ctx context.Context, in UpdateModuleInput) (*Module, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	id, err := normalizeUUID(in.ID, ErrInvalidModuleID)
	if err != nil {
		return nil, err
	}

	var title, contentURL *string
	var contentType *ContentType
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		if trimmed == "" {
			return nil, ErrInvalidTitle
		}
		title = &trimmed
	}
	if in.ContentType != nil {
		ct, err := normalizeContentType(*in.ContentType)
		if err != nil {
			return nil, err
		}
		contentType = &ct
	}
	if in.ContentURL != nil {
		trimmed := strings.TrimSpace(*in.ContentURL)
		if trimmed == "" {
			return nil, ErrInvalidContentURL
		}
		contentURL = &trimmed
	}

	return s.mutateModule(ctx, in.Actor, id, func(m *Module) {
		if title != nil {
			m.Title = *title
		}
		if in.Description != nil {
			m.Description = strings.TrimSpace(*in.Description)
		}
		if contentType != nil {
			m.ContentType = *contentType
		}
		if contentURL != nil {
			m.ContentURL = *contentURL
		}
	})
}

// PublishModule はモジュールを公開します。
func (s *Service) PublishModule(ctx context.Context, in ModuleRefInput) (*Module, error) {
	return s.setPublished(ctx, in, true)
}

// UnpublishModule はモジュールを非公開にします。
func (s *Service) UnpublishModule(ctx context.Context, in ModuleRefInput) (*Module, error) {
	return s.setPublished(ctx, in, false)
}

func (s *Service) setPublished(ctx context.Context, in ModuleRefInput, published bool) (*Module, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	id, err := normalizeUUID(in.ID, ErrInvalidModuleID)
	if err != nil {
		return nil, err
	}

	return s.mutateModule(ctx, in.Actor, id, func(m *Module) {
		m.IsPublished = published
	})
}

// DeleteModule はモジュールを削除します。受講者の進捗が存在する場合は削除できません。
func (s *Service) DeleteModule(ctx context.Context, in ModuleRefInput) error {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return err
	}

	id, err := normalizeUUID(in.ID, ErrInvalidModuleID)
	if err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		m, err := s.modules.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if _, err := s.ownedCourse(txCtx, in.Actor, m.CourseID); err != nil {
			return err
		}
		count, err := s.progress.CountByModule(txCtx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrModuleHasProgress
		}
		return s.modules.Delete(txCtx, id)
	})
}

// GetModule はモジュールを取得します。
func (s *Service) GetModule(ctx context.Context, id string) (*Module, error) {
	moduleID, err := normalizeUUID(id, ErrInvalidModuleID)
	if err != nil {
		return nil, err
	}

	var m *Module
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.modules.FindByID(txCtx, moduleID)
		if err != nil {
			return err
		}
		m = result
		return nil
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// ListModules はコースのモジュールを作成順に返します。
func (s *Service) ListModules(ctx context.Context, in ListModulesInput) ([]*Module, error) {
	courseID, err := normalizeUUID(in.CourseID, ErrInvalidCourseID)
	if err != nil {
		return nil, err
	}

	var modules []*Module
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.courses.FindByID(txCtx, courseID); err != nil {
			return err
		}
		result, err := s.modules.ListByCourse(txCtx, courseID, in.PublishedOnly)
		if err != nil {
			return err
		}
		modules = result
		return nil
	}); err != nil {
		return nil, err
	}
	return modules, nil
}

// ListMyModules は操作者が作成したコースのモジュールを未公開分も含めて返します。
func (s *Service) ListMyModules(ctx context.Context, in ListMyModulesInput) ([]*Module, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	courseID := ""
	if strings.TrimSpace(in.CourseID) != "" {
		id, err := normalizeUUID(in.CourseID, ErrInvalidCourseID)
		if err != nil {
			return nil, err
		}
		courseID = id
	}

	var modules []*Module
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if courseID == "" {
			result, err := s.modules.ListByOwner(txCtx, in.Actor.UserID)
			modules = result
			return err
		}
		if _, err := s.ownedCourse(txCtx, in.Actor, courseID); err != nil {
			return err
		}
		result, err := s.modules.ListByCourse(txCtx, courseID, false)
		modules = result
		return err
	}); err != nil {
		return nil, err
	}
	return modules, nil
}

func (s *Service) mutateModule(ctx context.Context, actor access.Principal, id string, apply func(*Module)) (*Module, error) {
	var updated *Module
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		m, err := s.modules.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if _, err := s.ownedCourse(txCtx, actor, m.CourseID); err != nil {
			return err
		}

		apply(m)
		m.UpdatedAt = s.clock.Now()

		result, err := s.modules.Update(txCtx, m)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) ownedCourse(ctx context.Context, actor access.Principal, courseID string) (*Course, error) {
	c, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != actor.UserID {
		return nil, ErrNotCourseOwner
	}
	return c, nil
}

func normalizeContentType(raw string) (ContentType, error) {
	ct, ok := ParseContentType(strings.ToUpper(strings.TrimSpace(raw)))
	if !ok {
		return "", ErrInvalidContentType
	}
	return ct, nil
}

func normalizeUUID(raw string, invalid error) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", invalid
	}
	return parsed.String(), nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
