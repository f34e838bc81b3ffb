package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	pgdb "github.com/ogurasousui/onboarding-engine/internal/platform/db/postgres"
)

const (
	documentReturning = `id, employee_id, document_type, document_url, status, reviewer_id, review_comments, reviewed_at, created_at, updated_at`
	documentColumns   = `d.id,
               d.employee_id,
               d.document_type,
               d.document_url,
               d.status,
               d.reviewer_id,
               COALESCE(ru.name, ''),
               d.review_comments,
               d.reviewed_at,
               d.created_at,
               d.updated_at`
)

// DocumentRepository は PostgreSQL を利用した書類永続化の実装です。
type DocumentRepository struct {
	pool pgdb.Queryer
}

// NewDocumentRepository は DocumentRepository を生成します。
func NewDocumentRepository(pool pgdb.Queryer) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create は書類を新規作成します。
func (r *DocumentRepository) Create(ctx context.Context, doc *document.Document) (*document.Document, error) {
	reviewerID, comments, reviewedAt := reviewArgs(doc.Review)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO documents (employee_id, document_type, document_url, status, reviewer_id, review_comments, reviewed_at, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
            RETURNING `+documentReturning+`
        )
        SELECT `+documentColumns+`
          FROM inserted d
          LEFT JOIN users ru ON ru.id = d.reviewer_id
    `,
		doc.EmployeeID,
		string(doc.Type),
		doc.URL,
		string(doc.Status),
		reviewerID,
		comments,
		reviewedAt,
		doc.CreatedAt,
		doc.UpdatedAt,
	)

	created, err := scanDocument(row)
	if err != nil {
		return nil, translateDocumentPgError(err)
	}
	return created, nil
}

// Update は URL・状態・審査結果を 1 文で書き込みます。
func (r *DocumentRepository) Update(ctx context.Context, doc *document.Document) (*document.Document, error) {
	reviewerID, comments, reviewedAt := reviewArgs(doc.Review)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH updated AS (
            UPDATE documents
               SET document_url = $1,
                   status = $2,
                   reviewer_id = $3,
                   review_comments = $4,
                   reviewed_at = $5,
                   updated_at = $6
             WHERE id = $7
            RETURNING `+documentReturning+`
        )
        SELECT `+documentColumns+`
          FROM updated d
          LEFT JOIN users ru ON ru.id = d.reviewer_id
    `,
		doc.URL,
		string(doc.Status),
		reviewerID,
		comments,
		reviewedAt,
		doc.UpdatedAt,
		doc.ID,
	)

	updated, err := scanDocument(row)
	if err != nil {
		return nil, translateDocumentPgError(err)
	}
	return updated, nil
}

// FindByID は ID で書類を取得します。
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*document.Document, error) {
	return r.findOne(ctx, `d.id = $1`, "", id)
}

// LockByID は FOR UPDATE で書類行をロックして取得します。
func (r *DocumentRepository) LockByID(ctx context.Context, id string) (*document.Document, error) {
	return r.findOne(ctx, `d.id = $1`, " FOR UPDATE OF d", id)
}

// FindByEmployeeAndType は社員と種別で書類を取得します。
func (r *DocumentRepository) FindByEmployeeAndType(ctx context.Context, employeeID string, docType document.Type) (*document.Document, error) {
	return r.findOne(ctx, `d.employee_id = $1 AND d.document_type = $2`, "", employeeID, string(docType))
}

func (r *DocumentRepository) findOne(ctx context.Context, condition, lockClause string, args ...any) (*document.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+documentColumns+`
          FROM documents d
          LEFT JOIN users ru ON ru.id = d.reviewer_id
         WHERE `+condition+`
         LIMIT 1`+lockClause+`
    `, args...)

	found, err := scanDocument(row)
	if err != nil {
		return nil, translateDocumentPgError(err)
	}
	return found, nil
}

// ListByEmployee は社員の書類を提出順に返します。
func (r *DocumentRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*document.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+documentColumns+`
          FROM documents d
          LEFT JOIN users ru ON ru.id = d.reviewer_id
         WHERE d.employee_id = $1
         ORDER BY d.created_at ASC, d.id ASC
    `, employeeID)
	if err != nil {
		return nil, translateDocumentPgError(err)
	}
	defer rows.Close()

	docs := make([]*document.Document, 0, len(document.AllTypes()))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, translateDocumentPgError(err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, translateDocumentPgError(err)
	}
	return docs, nil
}

func reviewArgs(review *document.Review) (any, any, any) {
	if review == nil {
		return nil, nil, nil
	}
	var reviewerID any
	if review.ReviewerID != "" {
		reviewerID = review.ReviewerID
	}
	return reviewerID, nullableString(review.Comments), review.ReviewedAt
}

func scanDocument(row pgx.Row) (*document.Document, error) {
	var (
		d            document.Document
		docType      string
		status       string
		reviewerID   sql.NullString
		reviewerName string
		comments     sql.NullString
		reviewedAt   sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
	)

	if err := row.Scan(
		&d.ID,
		&d.EmployeeID,
		&docType,
		&d.URL,
		&status,
		&reviewerID,
		&reviewerName,
		&comments,
		&reviewedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, document.ErrDocumentNotFound
		}
		return nil, err
	}

	d.Type = document.Type(docType)
	d.Status = document.Status(status)
	if reviewedAt.Valid {
		review := &document.Review{
			ReviewerID:   reviewerID.String,
			ReviewerName: reviewerName,
			ReviewedAt:   reviewedAt.Time.UTC(),
		}
		if comments.Valid {
			c := comments.String
			review.Comments = &c
		}
		d.Review = review
	}
	d.CreatedAt = createdAt.UTC()
	d.UpdatedAt = updatedAt.UTC()
	return &d, nil
}

func translateDocumentPgError(err error) error {
	pgErr, ok := asPgError(err)
	if !ok {
		return err
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return document.ErrDocumentAlreadyExist
	case foreignKeyViolationCode:
		if pgErr.ConstraintName == "documents_reviewer_id_fkey" {
			return document.ErrReviewerNotFound
		}
		return document.ErrEmployeeNotFound
	case checkViolationCode:
		if pgErr.ConstraintName == "documents_document_type_check" {
			return document.ErrInvalidType
		}
		return document.ErrInvalidReviewStatus
	}
	return err
}
