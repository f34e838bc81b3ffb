package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var documentRowColumns = []string{
	"id", "employee_id", "document_type", "document_url", "status", "reviewer_id", "reviewer_name",
	"review_comments", "reviewed_at", "created_at", "updated_at",
}

func TestDocumentRepository_Update_WritesReviewTogether(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewDocumentRepository(mock)
	now := time.Now().UTC()
	comments := "blurry"

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE documents`)).
		WithArgs("https://files/id.png", "REJECTED", "hr-1", "blurry", now, now, "doc-1").
		WillReturnRows(pgxmock.NewRows(documentRowColumns).
			AddRow("doc-1", "emp-1", "ID_PROOF", "https://files/id.png", "REJECTED", "hr-1", "Hanako", "blurry", now, now, now))

	updated, err := repo.Update(context.Background(), &document.Document{
		ID:     "doc-1",
		URL:    "https://files/id.png",
		Status: document.StatusRejected,
		Review: &document.Review{
			ReviewerID: "hr-1",
			Comments:   &comments,
			ReviewedAt: now,
		},
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Review == nil || updated.Review.ReviewerName != "Hanako" || *updated.Review.Comments != "blurry" {
		t.Fatalf("unexpected review %+v", updated.Review)
	}
}

func TestDocumentRepository_Create_WithoutReview(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewDocumentRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO documents`)).
		WithArgs("emp-1", "PAN_AADHAR", "https://files/pan.pdf", "PENDING_REVIEW", nil, nil, nil, now, now).
		WillReturnRows(pgxmock.NewRows(documentRowColumns).
			AddRow("doc-2", "emp-1", "PAN_AADHAR", "https://files/pan.pdf", "PENDING_REVIEW", nil, "", nil, nil, now, now))

	created, err := repo.Create(context.Background(), &document.Document{
		EmployeeID: "emp-1",
		Type:       document.TypePanAadhar,
		URL:        "https://files/pan.pdf",
		Status:     document.StatusPendingReview,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Review != nil {
		t.Fatalf("expected no review, got %+v", created.Review)
	}
}

func TestDocumentRepository_LockByID(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewDocumentRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE d.id = $1 LIMIT 1 FOR UPDATE OF d`)).
		WithArgs("doc-1").
		WillReturnRows(pgxmock.NewRows(documentRowColumns))

	if _, err := repo.LockByID(context.Background(), "doc-1"); !errors.Is(err, document.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestTranslateDocumentPgError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  *pgconn.PgError
		want error
	}{
		{name: "duplicate type", err: &pgconn.PgError{Code: uniqueViolationCode}, want: document.ErrDocumentAlreadyExist},
		{name: "missing employee", err: &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "documents_employee_id_fkey"}, want: document.ErrEmployeeNotFound},
		{name: "missing reviewer", err: &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "documents_reviewer_id_fkey"}, want: document.ErrReviewerNotFound},
		{name: "bad type", err: &pgconn.PgError{Code: checkViolationCode, ConstraintName: "documents_document_type_check"}, want: document.ErrInvalidType},
		{name: "bad review", err: &pgconn.PgError{Code: checkViolationCode, ConstraintName: "documents_review_check"}, want: document.ErrInvalidReviewStatus},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := translateDocumentPgError(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
