package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/enrollment"
	"github.com/ogurasousui/onboarding-engine/internal/core/onboarding"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatusError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "nil", err: nil, want: codes.OK},
		{name: "duplicate email", err: user.ErrEmailAlreadyExists, want: codes.AlreadyExists},
		{name: "duplicate employee wrapped", err: fmt.Errorf("add: %w", employee.ErrEmployeeAlreadyExists), want: codes.AlreadyExists},
		{name: "already enrolled", err: enrollment.ErrAlreadyEnrolled, want: codes.AlreadyExists},
		{name: "validation", err: course.ErrInvalidContentType, want: codes.InvalidArgument},
		{name: "not found", err: course.ErrCourseNotFound, want: codes.NotFound},
		{name: "forbidden", err: access.ErrForbidden, want: codes.PermissionDenied},
		{name: "not owner", err: course.ErrNotCourseOwner, want: codes.PermissionDenied},
		{name: "gate", err: onboarding.ErrPendingTasks, want: codes.FailedPrecondition},
		{name: "canceled", err: context.Canceled, want: codes.Canceled},
		{name: "deadline", err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{name: "status passthrough", err: status.Error(codes.Unauthenticated, "no token"), want: codes.Unauthenticated},
		{name: "unknown", err: errors.New("boom"), want: codes.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := status.Code(toStatusError(tc.err)); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
