package handler

import (
	"context"

	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/enrollment"
	"google.golang.org/protobuf/types/known/structpb"
)

// CourseServiceName はコース・受講サービスの完全修飾名です。
const CourseServiceName = "onboarding.v1.CourseService"

// CourseHandler は CourseService の gRPC 実装です。
type CourseHandler struct {
	courses     course.UseCase
	enrollments enrollment.UseCase
	methods     map[string]Method
}

// NewCourseHandler は CourseHandler を生成します。
func NewCourseHandler(courses course.UseCase, enrollments enrollment.UseCase) *CourseHandler {
	h := &CourseHandler{courses: courses, enrollments: enrollments}
	h.methods = map[string]Method{
		"CreateCourse":          h.CreateCourse,
		"UpdateCourse":          h.UpdateCourse,
		"DeleteCourse":          h.DeleteCourse,
		"GetCourse":             h.GetCourse,
		"ListCourses":           h.ListCourses,
		"CreateModule":          h.CreateModule,
		"UpdateModule":          h.UpdateModule,
		"PublishModule":         h.PublishModule,
		"UnpublishModule":       h.UnpublishModule,
		"DeleteModule":          h.DeleteModule,
		"GetModule":             h.GetModule,
		"ListModules":           h.ListModules,
		"ListMyModules":         h.ListMyModules,
		"Enroll":                h.Enroll,
		"Unenroll":              h.Unenroll,
		"MarkModuleCompleted":   h.MarkModuleCompleted,
		"UnmarkModuleCompleted": h.UnmarkModuleCompleted,
		"GetMyProgress":         h.GetMyProgress,
		"ListAvailableCourses":  h.ListAvailableCourses,
		"GetCompletionReport":   h.GetCompletionReport,
		"ListCompletionReports": h.ListCompletionReports,
		"ListEnrolledStudents":  h.ListEnrolledStudents,
		"GetEnrollmentStats":    h.GetEnrollmentStats,
	}
	return h
}

// ServiceName はサービス名を返します。
func (h *CourseHandler) ServiceName() string { return CourseServiceName }

// Methods はメソッド表を返します。
func (h *CourseHandler) Methods() map[string]Method { return h.methods }

// CreateCourse はコースを作成します。
func (h *CourseHandler) CreateCourse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	created, err := h.courses.CreateCourse(ctx, course.CreateCourseInput{
		Actor:       actor,
		Name:        f.str("name"),
		Description: f.str("description"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"course": courseMessage(created)})
}

// UpdateCourse はコースを部分更新します。
func (h *CourseHandler) UpdateCourse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	updated, err := h.courses.UpdateCourse(ctx, course.UpdateCourseInput{
		Actor:       actor,
		ID:          f.str("id"),
		Name:        f.optStr("name"),
		Description: f.optStr("description"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"course": courseMessage(updated)})
}

// DeleteCourse はコースを削除します。
func (h *CourseHandler) DeleteCourse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.courses.DeleteCourse(ctx, course.DeleteCourseInput{Actor: actor, ID: newFields(req).str("id")}); err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{})
}

// GetCourse はコースを取得します。受講者には受講登録状態も返します。
func (h *CourseHandler) GetCourse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	found, err := h.courses.GetCourse(ctx, newFields(req).str("id"))
	if err != nil {
		return nil, toStatusError(err)
	}

	resp := map[string]any{"course": courseMessage(found)}
	if !isStaff(actor) {
		enrolled, err := h.enrollments.IsEnrolled(ctx, actor.UserID, found.ID)
		if err != nil {
			return nil, toStatusError(err)
		}
		resp["enrolled"] = enrolled
	}
	return toStruct(resp)
}

// ListCourses は操作者が作成したコースを返します。
func (h *CourseHandler) ListCourses(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)
	pageSize, err := f.integer("page_size")
	if err != nil {
		return nil, err
	}

	result, err := h.courses.ListCourses(ctx, course.ListCoursesInput{
		Actor:     actor,
		PageSize:  pageSize,
		PageToken: f.str("page_token"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{
		"courses":         list(result.Courses, courseMessage),
		"next_page_token": result.NextPageToken,
	})
}

// CreateModule はモジュールを追加します。
func (h *CourseHandler) CreateModule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	created, err := h.courses.CreateModule(ctx, course.CreateModuleInput{
		Actor:       actor,
		CourseID:    f.str("course_id"),
		Title:       f.str("title"),
		Description: f.str("description"),
		ContentType: f.str("content_type"),
		ContentURL:  f.str("content_url"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"module": moduleMessage(created)})
}

// UpdateModule はモジュールを部分更新します。
func (h *CourseHandler) UpdateModule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	updated, err := h.courses.UpdateModule(ctx, course.UpdateModuleInput{
		Actor:       actor,
		ID:          f.str("id"),
		Title:       f.optStr("title"),
		Description: f.optStr("description"),
		ContentType: f.optStr("content_type"),
		ContentURL:  f.optStr("content_url"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"module": moduleMessage(updated)})
}

// PublishModule はモジュールを公開します。
func (h *CourseHandler) PublishModule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.moduleRef(ctx, req, h.courses.PublishModule)
}

// UnpublishModule はモジュールを非公開に戻します。
func (h *CourseHandler) UnpublishModule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.moduleRef(ctx, req, h.courses.UnpublishModule)
}

func (h *CourseHandler) moduleRef(ctx context.Context, req *structpb.Struct, fn func(context.Context, course.ModuleRefInput) (*course.Module, error)) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	m, err := fn(ctx, course.ModuleRefInput{Actor: actor, ID: newFields(req).str("id")})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"module": moduleMessage(m)})
}

// DeleteModule はモジュールを削除します。
func (h *CourseHandler) DeleteModule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.courses.DeleteModule(ctx, course.ModuleRefInput{Actor: actor, ID: newFields(req).str("id")}); err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{})
}

// GetModule はモジュールを取得します。受講者には未公開モジュールを見せません。
func (h *CourseHandler) GetModule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	m, err := h.courses.GetModule(ctx, newFields(req).str("id"))
	if err != nil {
		return nil, toStatusError(err)
	}
	if !m.IsPublished && !isStaff(actor) {
		return nil, toStatusError(course.ErrModuleNotFound)
	}
	return toStruct(map[string]any{"module": moduleMessage(m)})
}

// ListModules はコースのモジュールを返します。受講者には公開済みのみ返します。
func (h *CourseHandler) ListModules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	modules, err := h.courses.ListModules(ctx, course.ListModulesInput{
		CourseID:      newFields(req).str("course_id"),
		PublishedOnly: !isStaff(actor),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"modules": list(modules, moduleMessage)})
}

// Enroll は呼び出し元をコースへ受講登録します。
func (h *CourseHandler) Enroll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	created, err := h.enrollments.Enroll(ctx, enrollment.EnrollInput{Actor: actor, CourseID: newFields(req).str("course_id")})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"enrollment": enrollmentMessage(created)})
}

// Unenroll は受講登録を解除します。
func (h *CourseHandler) Unenroll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.enrollments.Unenroll(ctx, enrollment.EnrollInput{Actor: actor, CourseID: newFields(req).str("course_id")}); err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{})
}

// MarkModuleCompleted はモジュールを完了にします。
func (h *CourseHandler) MarkModuleCompleted(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.moduleProgress(ctx, req, h.enrollments.MarkModuleCompleted)
}

// UnmarkModuleCompleted はモジュールの完了を取り消します。
func (h *CourseHandler) UnmarkModuleCompleted(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.moduleProgress(ctx, req, h.enrollments.UnmarkModuleCompleted)
}

func (h *CourseHandler) moduleProgress(ctx context.Context, req *structpb.Struct, fn func(context.Context, enrollment.ModuleProgressInput) (*enrollment.ModuleProgress, error)) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	p, err := fn(ctx, enrollment.ModuleProgressInput{Actor: actor, ModuleID: newFields(req).str("module_id")})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"progress": moduleProgressMessage(p)})
}

// GetMyProgress は呼び出し元の受講中コースごとの進捗を返します。
func (h *CourseHandler) GetMyProgress(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	progress, err := h.enrollments.CourseProgress(ctx, actor.UserID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"courses": list(progress, courseProgressMessage)})
}

// ListAvailableCourses は呼び出し元が未登録の受講可能コースを返します。
func (h *CourseHandler) ListAvailableCourses(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	courses, err := h.enrollments.ListAvailableCourses(ctx, actor.UserID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"courses": list(courses, courseMessage)})
}

// ListMyModules は操作者が作成したコースのモジュールを未公開分も含めて返します。course_id で絞り込めます。
func (h *CourseHandler) ListMyModules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	modules, err := h.courses.ListMyModules(ctx, course.ListMyModulesInput{
		Actor:    actor,
		CourseID: newFields(req).str("course_id"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"modules": list(modules, moduleMessage)})
}

// GetCompletionReport はコースのモジュール別完了率を返します。
func (h *CourseHandler) GetCompletionReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	report, err := h.enrollments.CourseCompletionReport(ctx, actor, newFields(req).str("course_id"))
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"report": completionReportMessage(report)})
}

// ListEnrolledStudents はコースの受講者と進捗を返します。
func (h *CourseHandler) ListEnrolledStudents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	students, err := h.enrollments.ListEnrolledStudents(ctx, actor, newFields(req).str("course_id"))
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"students": list(students, studentProgressMessage)})
}

// ListCompletionReports は操作者が作成した全コースの完了率レポートを返します。
func (h *CourseHandler) ListCompletionReports(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	reports, err := h.enrollments.CourseCompletionReports(ctx, actor)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"reports": list(reports, completionReportMessage)})
}

// GetEnrollmentStats は操作者のコース全体の受講統計を返します。
func (h *CourseHandler) GetEnrollmentStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := h.enrollments.EnrollmentStats(ctx, actor)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{
		"total_courses":      stats.TotalCourses,
		"total_enrollments":  stats.TotalEnrollments,
		"average_per_course": stats.AveragePerCourse,
	})
}
