package handler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("build struct: %v", err)
	}
	return s
}

func TestFields(t *testing.T) {
	t.Parallel()

	f := newFields(mustStruct(t, map[string]any{
		"name":      "  Ada ",
		"comment":   nil,
		"page_size": 25,
		"roles":     []any{"HR", "ADMIN"},
		"joined":    "2026-04-01",
		"stamp":     "2026-04-01T09:30:00+09:00",
	}))

	if got := f.str("name"); got != "  Ada " {
		t.Fatalf("unexpected str: %q", got)
	}
	if f.optStr("comment") != nil || f.optStr("missing") != nil {
		t.Fatal("null and missing fields must be nil")
	}
	if got := f.optStr("name"); got == nil || *got != "  Ada " {
		t.Fatalf("unexpected optStr: %v", got)
	}
	if n, err := f.integer("page_size"); err != nil || n != 25 {
		t.Fatalf("unexpected integer: %d, %v", n, err)
	}
	if roles := f.strings("roles"); len(roles) != 2 || roles[1] != "ADMIN" {
		t.Fatalf("unexpected strings: %v", roles)
	}

	joined, err := f.date("joined")
	if err != nil || !joined.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v, %v", joined, err)
	}
	stamp, err := f.date("stamp")
	if err != nil || !stamp.Equal(time.Date(2026, 4, 1, 0, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v, %v", stamp, err)
	}
	if missing, err := f.date("missing"); err != nil || missing != nil {
		t.Fatalf("missing date must be nil: %v, %v", missing, err)
	}
}

func TestFields_InvalidValues(t *testing.T) {
	t.Parallel()

	f := newFields(mustStruct(t, map[string]any{"page_size": 2.5, "joined": "April 1st"}))

	if _, err := f.integer("page_size"); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if _, err := f.date("joined"); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestPrincipal(t *testing.T) {
	t.Parallel()

	if _, err := principal(context.Background()); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	ctx := access.WithPrincipal(context.Background(), access.Principal{UserID: "u-1", Roles: []access.Role{access.RoleHR}})
	p, err := principal(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isStaff(p) {
		t.Fatal("HR must be staff")
	}
	if isStaff(access.Principal{UserID: "u-2", Roles: []access.Role{access.RoleEmployee}}) {
		t.Fatal("EMPLOYEE must not be staff")
	}
}

func TestSameID(t *testing.T) {
	t.Parallel()

	id := "7f9c2ba4-e88f-4d8a-9b6e-1c2d3e4f5a6b"
	cases := []struct {
		a, b string
		want bool
	}{
		{a: id, b: id, want: true},
		{a: strings.ToUpper(id), b: id, want: true},
		{a: "  " + id + " ", b: id, want: true},
		{a: "7f9c2ba4-e88f-4d8a-9b6e-000000000000", b: id, want: false},
		{a: "not-a-uuid", b: id, want: false},
	}
	for _, tc := range cases {
		if got := sameID(tc.a, tc.b); got != tc.want {
			t.Fatalf("sameID(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDesc_SortsMethods(t *testing.T) {
	t.Parallel()

	desc := Desc(NewUserHandler(nil))
	if desc.ServiceName != UserServiceName {
		t.Fatalf("unexpected service name: %s", desc.ServiceName)
	}
	want := []string{"CreateUser", "GetUser", "ListUsers"}
	if len(desc.Methods) != len(want) {
		t.Fatalf("unexpected methods: %v", desc.Methods)
	}
	for i, m := range desc.Methods {
		if m.MethodName != want[i] {
			t.Fatalf("method %d: expected %s, got %s", i, want[i], m.MethodName)
		}
	}
}
