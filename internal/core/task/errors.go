package task

import "github.com/ogurasousui/onboarding-engine/internal/core/apperr"

var (
	// ErrInvalidEmployeeID は社員 ID が不正な場合に返却されます。
	ErrInvalidEmployeeID = apperr.New(apperr.ErrValidation, "task: invalid employee id")
	// ErrTaskNotFound はタスクが存在しない場合に返却されます。
	ErrTaskNotFound = apperr.New(apperr.ErrNotFound, "task: not found")
	// ErrTaskAlreadyCompleted は完了済みのタスクを再度完了しようとした場合に返却されます。
	ErrTaskAlreadyCompleted = apperr.New(apperr.ErrConflict, "task: already completed")
	// ErrTasksAlreadyExist は社員のタスクが初期化済みの場合に返却されます。
	ErrTasksAlreadyExist = apperr.New(apperr.ErrConflict, "task: tasks already initialized for employee")
)
