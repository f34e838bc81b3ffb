package access

import (
	"context"
	"errors"
	"testing"

	"github.com/ogurasousui/onboarding-engine/internal/core/apperr"
)

func TestRequire(t *testing.T) {
	t.Parallel()

	hr := Principal{UserID: "u-1", Roles: []Role{RoleHR}}
	if err := Require(hr, RoleHR); err != nil {
		t.Fatalf("expected HR to pass, got %v", err)
	}
	if err := Require(hr, RoleEmployee, RoleHR); err != nil {
		t.Fatalf("expected any-of match, got %v", err)
	}
	if err := Require(hr, RoleEmployee); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := Require(Principal{Roles: []Role{RoleHR}}, RoleHR); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected anonymous principal to be rejected, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	if role, ok := ParseRole(" hr "); !ok || role != RoleHR {
		t.Fatalf("expected HR, got %q %v", role, ok)
	}
	if _, ok := ParseRole("student"); ok {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatalf("expected no principal in empty context")
	}
	ctx := WithPrincipal(context.Background(), Principal{UserID: "u-9"})
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.UserID != "u-9" {
		t.Fatalf("unexpected principal: %+v %v", p, ok)
	}
}
