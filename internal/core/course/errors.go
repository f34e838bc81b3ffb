package course

import "github.com/ogurasousui/onboarding-engine/internal/core/apperr"

var (
	// ErrInvalidCourseID はコース ID が不正な場合に返却されます。
	ErrInvalidCourseID = apperr.New(apperr.ErrValidation, "course: invalid course id")
	// ErrInvalidModuleID はモジュール ID が不正な場合に返却されます。
	ErrInvalidModuleID = apperr.New(apperr.ErrValidation, "course: invalid module id")
	// ErrInvalidName はコース名が空の場合に返却されます。
	ErrInvalidName = apperr.New(apperr.ErrValidation, "course: name must not be blank")
	// ErrInvalidTitle はモジュールのタイトルが空の場合に返却されます。
	ErrInvalidTitle = apperr.New(apperr.ErrValidation, "course: module title must not be blank")
	// ErrInvalidContentType はコンテンツ種別が不正な場合に返却されます。
	ErrInvalidContentType = apperr.New(apperr.ErrValidation, "course: invalid content type")
	// ErrInvalidContentURL はコンテンツ URL が空の場合に返却されます。
	ErrInvalidContentURL = apperr.New(apperr.ErrValidation, "course: content url must not be blank")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = apperr.New(apperr.ErrValidation, "course: invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = apperr.New(apperr.ErrValidation, "course: invalid page token")
	// ErrCourseNotFound はコースが存在しない場合に返却されます。
	ErrCourseNotFound = apperr.New(apperr.ErrNotFound, "course: not found")
	// ErrModuleNotFound はモジュールが存在しない場合に返却されます。
	ErrModuleNotFound = apperr.New(apperr.ErrNotFound, "course: module not found")
	// ErrNotCourseOwner は作成者以外がコースを操作した場合に返却されます。
	ErrNotCourseOwner = apperr.New(apperr.ErrForbidden, "course: only the owner can modify this course")
	// ErrCourseHasEnrollment は受講登録のあるコースを削除しようとした場合に返却されます。
	ErrCourseHasEnrollment = apperr.New(apperr.ErrConflict, "course: cannot delete course with existing enrollments")
	// ErrModuleHasProgress は進捗のあるモジュールを削除しようとした場合に返却されます。
	ErrModuleHasProgress = apperr.New(apperr.ErrConflict, "course: cannot delete module with student progress")
)
