package employee

import "github.com/ogurasousui/onboarding-engine/internal/core/apperr"

var (
	// ErrInvalidID は社員 ID が不正な場合に返却されます。
	ErrInvalidID = apperr.New(apperr.ErrValidation, "employee: invalid id")
	// ErrInvalidUserID はユーザー ID が不正な場合に返却されます。
	ErrInvalidUserID = apperr.New(apperr.ErrValidation, "employee: invalid user id")
	// ErrInvalidEmployeeNumber は社員番号が不正な場合に返却されます。
	ErrInvalidEmployeeNumber = apperr.New(apperr.ErrValidation, "employee: invalid employee number")
	// ErrInvalidDepartment は部署が不正な場合に返却されます。
	ErrInvalidDepartment = apperr.New(apperr.ErrValidation, "employee: invalid department")
	// ErrInvalidDesignation は役職が不正な場合に返却されます。
	ErrInvalidDesignation = apperr.New(apperr.ErrValidation, "employee: invalid designation")
	// ErrInvalidJoiningDate は入社日が不正な場合に返却されます。
	ErrInvalidJoiningDate = apperr.New(apperr.ErrValidation, "employee: invalid joining date")
	// ErrInvalidStatus はオンボーディング状態が不正な場合に返却されます。
	ErrInvalidStatus = apperr.New(apperr.ErrValidation, "employee: invalid status")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = apperr.New(apperr.ErrValidation, "employee: invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = apperr.New(apperr.ErrValidation, "employee: invalid page token")
	// ErrInvalidDateRange は入社日の検索範囲が不正な場合に返却されます。
	ErrInvalidDateRange = apperr.New(apperr.ErrValidation, "employee: invalid joining date range")
	// ErrUserNotEmployee はEMPLOYEE ロールを持たないユーザーを登録しようとした場合に返却されます。
	ErrUserNotEmployee = apperr.New(apperr.ErrValidation, "employee: user must have EMPLOYEE role for onboarding")
	// ErrEmployeeNotFound は社員が存在しない場合に返却されます。
	ErrEmployeeNotFound = apperr.New(apperr.ErrNotFound, "employee: not found")
	// ErrUserNotFound は登録対象のユーザーが存在しない場合に返却されます。
	ErrUserNotFound = apperr.New(apperr.ErrNotFound, "employee: user not found")
	// ErrEmployeeAlreadyExists はユーザーが既にオンボーディング対象の場合に返却されます。
	ErrEmployeeAlreadyExists = apperr.New(apperr.ErrConflict, "employee: already exists in onboarding system")
	// ErrEmployeeNumberAlreadyExists は社員番号重複時に返却されます。
	ErrEmployeeNumberAlreadyExists = apperr.New(apperr.ErrConflict, "employee: employee number already exists")
)
