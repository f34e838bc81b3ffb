package onboarding

import "github.com/ogurasousui/onboarding-engine/internal/core/apperr"

var (
	// ErrInvalidEmployeeID は社員 ID が不正な場合に返却されます。
	ErrInvalidEmployeeID = apperr.New(apperr.ErrValidation, "onboarding: invalid employee id")
	// ErrInvalidUserID はユーザー ID が不正な場合に返却されます。
	ErrInvalidUserID = apperr.New(apperr.ErrValidation, "onboarding: invalid user id")
	// ErrAlreadyCompleted は完了済みのオンボーディングを再度完了しようとした場合に返却されます。
	ErrAlreadyCompleted = apperr.New(apperr.ErrConflict, "onboarding: already completed")
	// ErrPendingTasks は未完了のタスクが残っている場合に返却されます。
	ErrPendingTasks = apperr.New(apperr.ErrConflict, "onboarding: all tasks must be completed")
	// ErrMandatoryDocumentsNotApproved は必須書類が承認されていない場合に返却されます。
	ErrMandatoryDocumentsNotApproved = apperr.New(apperr.ErrConflict, "onboarding: all mandatory documents must be approved")
)
