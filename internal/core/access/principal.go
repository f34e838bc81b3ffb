// Package access は操作主体とロール判定を扱います。
package access

import (
	"context"
	"strings"

	"github.com/ogurasousui/onboarding-engine/internal/core/apperr"
)

// Role は利用者のロールです。
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleHR       Role = "HR"
	RoleAdmin    Role = "ADMIN"
)

// ErrForbidden は必要なロールを持たない場合に返却されます。
var ErrForbidden = apperr.New(apperr.ErrForbidden, "access: required role missing")

// Principal は認証済みの操作主体です。
type Principal struct {
	UserID string
	Roles  []Role
}

// HasRole は p が role を持つかを判定します。
func HasRole(p Principal, role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Require は p がいずれかのロールを持たなければ ErrForbidden を返します。
func Require(p Principal, roles ...Role) error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrForbidden
	}
	for _, role := range roles {
		if HasRole(p, role) {
			return nil
		}
	}
	return ErrForbidden
}

// ParseRole は文字列をロールに変換します。
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case RoleEmployee, RoleHR, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

type principalContextKey struct{}

// WithPrincipal はコンテキストに操作主体を格納します。
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext はコンテキストから操作主体を取り出します。
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
