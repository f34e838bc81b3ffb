// Package apperr はドメイン全体で共有するエラー分類を定義します。
package apperr

import "errors"

var (
	// ErrNotFound は参照先エンティティが存在しない場合の分類です。
	ErrNotFound = errors.New("not found")
	// ErrForbidden は操作主体に権限がない場合の分類です。
	ErrForbidden = errors.New("forbidden")
	// ErrConflict は業務ルール違反の分類です。
	ErrConflict = errors.New("conflict")
	// ErrValidation は入力値が不正な場合の分類です。
	ErrValidation = errors.New("validation")
)

// Error は分類付きのドメインエラーです。
type Error struct {
	kind error
	msg  string
}

// New は分類 kind に属するエラーを生成します。
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap は分類センチネルを返します。
func (e *Error) Unwrap() error {
	return e.kind
}

// Kind は err が属する分類を返します。分類されていない場合は nil です。
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrConflict, ErrValidation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
