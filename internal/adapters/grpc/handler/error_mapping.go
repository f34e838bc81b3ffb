package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/onboarding-engine/internal/core/apperr"
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/enrollment"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var duplicateErrors = []error{
	user.ErrEmailAlreadyExists,
	employee.ErrEmployeeAlreadyExists,
	employee.ErrEmployeeNumberAlreadyExists,
	task.ErrTasksAlreadyExist,
	document.ErrDocumentAlreadyExist,
	enrollment.ErrAlreadyEnrolled,
}

func toStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	for _, dup := range duplicateErrors {
		if errors.Is(err, dup) {
			return status.Error(codes.AlreadyExists, err.Error())
		}
	}

	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case apperr.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case apperr.ErrForbidden:
		return status.Error(codes.PermissionDenied, err.Error())
	case apperr.ErrConflict:
		return status.Error(codes.FailedPrecondition, err.Error())
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
