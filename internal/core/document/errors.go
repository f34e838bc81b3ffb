package document

import "github.com/ogurasousui/onboarding-engine/internal/core/apperr"

var (
	// ErrInvalidID は書類 ID が不正な場合に返却されます。
	ErrInvalidID = apperr.New(apperr.ErrValidation, "document: invalid id")
	// ErrInvalidEmployeeID は社員 ID が不正な場合に返却されます。
	ErrInvalidEmployeeID = apperr.New(apperr.ErrValidation, "document: invalid employee id")
	// ErrInvalidType は書類種別が不正な場合に返却されます。
	ErrInvalidType = apperr.New(apperr.ErrValidation, "document: invalid document type")
	// ErrInvalidURL は書類 URL が空の場合に返却されます。
	ErrInvalidURL = apperr.New(apperr.ErrValidation, "document: url must not be blank")
	// ErrInvalidReviewStatus は審査結果が APPROVED / REJECTED 以外の場合に返却されます。
	ErrInvalidReviewStatus = apperr.New(apperr.ErrValidation, "document: review status must be APPROVED or REJECTED")
	// ErrDocumentNotFound は書類が存在しない場合に返却されます。
	ErrDocumentNotFound = apperr.New(apperr.ErrNotFound, "document: not found")
	// ErrEmployeeNotFound は提出先の社員が存在しない場合に返却されます。
	ErrEmployeeNotFound = apperr.New(apperr.ErrNotFound, "document: employee not found")
	// ErrReviewerNotFound は審査者のユーザーが存在しない場合に返却されます。
	ErrReviewerNotFound = apperr.New(apperr.ErrNotFound, "document: reviewer not found")
	// ErrDocumentNotOwned は他の社員の書類を更新しようとした場合に返却されます。
	ErrDocumentNotOwned = apperr.New(apperr.ErrForbidden, "document: does not belong to this employee")
	// ErrDocumentApproved は承認済みの書類を更新しようとした場合に返却されます。
	ErrDocumentApproved = apperr.New(apperr.ErrConflict, "document: cannot update approved document")
	// ErrDocumentAlreadyExist は同じ種別の書類が提出済みの場合に返却されます。
	ErrDocumentAlreadyExist = apperr.New(apperr.ErrConflict, "document: already submitted for this type")
)
