package enrollment

import "github.com/ogurasousui/onboarding-engine/internal/core/apperr"

var (
	// ErrInvalidCourseID はコース ID が不正な場合に返却されます。
	ErrInvalidCourseID = apperr.New(apperr.ErrValidation, "enrollment: invalid course id")
	// ErrInvalidModuleID はモジュール ID が不正な場合に返却されます。
	ErrInvalidModuleID = apperr.New(apperr.ErrValidation, "enrollment: invalid module id")
	// ErrInvalidStudentID は受講者 ID が不正な場合に返却されます。
	ErrInvalidStudentID = apperr.New(apperr.ErrValidation, "enrollment: invalid student id")
	// ErrStudentNotFound は受講者が存在しない場合に返却されます。
	ErrStudentNotFound = apperr.New(apperr.ErrNotFound, "enrollment: student not found")
	// ErrEnrollmentNotFound は受講登録が存在しない場合に返却されます。
	ErrEnrollmentNotFound = apperr.New(apperr.ErrNotFound, "enrollment: not enrolled in this course")
	// ErrProgressNotFound はモジュール進捗が存在しない場合に返却されます。
	ErrProgressNotFound = apperr.New(apperr.ErrNotFound, "enrollment: module progress not found")
	// ErrNotEnrolled は未登録のコースのモジュールを完了しようとした場合に返却されます。
	ErrNotEnrolled = apperr.New(apperr.ErrForbidden, "enrollment: student is not enrolled in this course")
	// ErrNoPublishedModules は公開済みモジュールのないコースへ登録しようとした場合に返却されます。
	ErrNoPublishedModules = apperr.New(apperr.ErrConflict, "enrollment: course has no published modules")
	// ErrAlreadyEnrolled は登録済みのコースへ再登録しようとした場合に返却されます。
	ErrAlreadyEnrolled = apperr.New(apperr.ErrConflict, "enrollment: already enrolled in this course")
	// ErrCompletedModulesExist は完了済みモジュールのあるコースから解除しようとした場合に返却されます。
	ErrCompletedModulesExist = apperr.New(apperr.ErrConflict, "enrollment: cannot unenroll from course with completed modules, contact administrator")
	// ErrModuleNotPublished は未公開モジュールを完了しようとした場合に返却されます。
	ErrModuleNotPublished = apperr.New(apperr.ErrConflict, "enrollment: module is not published")
	// ErrModuleAlreadyCompleted は完了済みモジュールを再度完了しようとした場合に返却されます。
	ErrModuleAlreadyCompleted = apperr.New(apperr.ErrConflict, "enrollment: module already completed")
)
