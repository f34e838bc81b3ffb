package user

import "github.com/ogurasousui/onboarding-engine/internal/core/apperr"

var (
	// ErrUserNotFound はユーザーが存在しない場合に返却されます。
	ErrUserNotFound = apperr.New(apperr.ErrNotFound, "user not found")
	// ErrEmailAlreadyExists はメールアドレス重複時に返却されます。
	ErrEmailAlreadyExists = apperr.New(apperr.ErrConflict, "email already exists")
	// ErrInvalidEmail はメールアドレスが不正な場合に返却されます。
	ErrInvalidEmail = apperr.New(apperr.ErrValidation, "invalid email")
	// ErrInvalidName は名前が不正な場合に返却されます。
	ErrInvalidName = apperr.New(apperr.ErrValidation, "invalid name")
	// ErrInvalidRole はロールが不正な場合に返却されます。
	ErrInvalidRole = apperr.New(apperr.ErrValidation, "invalid role")
	// ErrInvalidID はIDが不正な場合に返却されます。
	ErrInvalidID = apperr.New(apperr.ErrValidation, "invalid id")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = apperr.New(apperr.ErrValidation, "invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = apperr.New(apperr.ErrValidation, "invalid page token")
)
