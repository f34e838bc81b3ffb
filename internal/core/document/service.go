package document

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/event"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

type noopPublisher struct{}

func (noopPublisher) PublishMandatoryDocumentsApproved(context.Context, event.MandatoryDocumentsApproved) error {
	return nil
}

// ReviewerFinder は審査者の参照を提供します。
type ReviewerFinder interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// EmployeeLocker は審査対象社員の行ロックを提供します。
type EmployeeLocker interface {
	LockByID(ctx context.Context, id string) (*employee.Employee, error)
}

// Service は書類の提出と審査を管理します。
type Service struct {
	repo      Repository
	employees EmployeeLocker
	reviewers ReviewerFinder
	publisher event.Publisher
	clock     Clock
	tx        TransactionManager
}

// UseCase は書類ユースケースの公開インターフェースです。
type UseCase interface {
	SubmitDocuments(ctx context.Context, in SubmitDocumentsInput) ([]*Document, error)
	SubmitOrUpdate(ctx context.Context, in SubmitOrUpdateInput) (*Document, error)
	UpdateDocument(ctx context.Context, in UpdateDocumentInput) (*Document, error)
	Review(ctx context.Context, in ReviewInput) (*Document, error)
	ListDocuments(ctx context.Context, employeeID string) ([]*Document, error)
	GetDocument(ctx context.Context, id string) (*Document, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeLocker, reviewers ReviewerFinder, publisher event.Publisher, clock Clock, tx TransactionManager) *Service {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, employees: employees, reviewers: reviewers, publisher: publisher, clock: clock, tx: tx}
}

// SubmitDocumentsInput は書類一括提出時の入力です。空文字の URL は未提出として扱います。
type SubmitDocumentsInput struct {
	EmployeeID     string
	IDProofURL     string
	OfferLetterURL string
	PanAadharURL   string
	BankDetailsURL string
}

// SubmitOrUpdateInput は単一書類の提出入力です。
type SubmitOrUpdateInput struct {
	EmployeeID string
	Type       string
	URL        string
}

// UpdateDocumentInput は書類差し替え時の入力です。
type UpdateDocumentInput struct {
	EmployeeID string
	DocumentID string
	URL        string
}

// ReviewInput は書類審査時の入力です。
type ReviewInput struct {
	Actor      access.Principal
	DocumentID string
	Status     string
	Comments   *string
}

// SubmitDocuments は必須書類と任意書類をまとめて提出します。いずれかが失敗した場合は全体を取り消します。
func (s *Service) SubmitDocuments(ctx context.Context, in SubmitDocumentsInput) ([]*Document, error) {
	empID, err := normalizeUUID(in.EmployeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	mandatory := map[Type]string{
		TypeIDProof:     strings.TrimSpace(in.IDProofURL),
		TypeOfferLetter: strings.TrimSpace(in.OfferLetterURL),
	}
	for _, t := range MandatoryTypes() {
		if mandatory[t] == "" {
			return nil, ErrInvalidURL
		}
	}
	urls := map[Type]string{
		TypeIDProof:     mandatory[TypeIDProof],
		TypeOfferLetter: mandatory[TypeOfferLetter],
		TypePanAadhar:   strings.TrimSpace(in.PanAadharURL),
		TypeBankDetails: strings.TrimSpace(in.BankDetailsURL),
	}

	var submitted []*Document
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		for _, t := range AllTypes() {
			url := urls[t]
			if url == "" {
				continue
			}
			doc, err := s.submitOrUpdate(txCtx, empID, t, url)
			if err != nil {
				return err
			}
			submitted = append(submitted, doc)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return submitted, nil
}

// SubmitOrUpdate は種別ごとの書類を新規登録するか、既存書類を差し替えて審査待ちに戻します。
func (s *Service) SubmitOrUpdate(ctx context.Context, in SubmitOrUpdateInput) (*Document, error) {
	empID, err := normalizeUUID(in.EmployeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	docType, ok := ParseType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if !ok {
		return nil, ErrInvalidType
	}

	url := strings.TrimSpace(in.URL)
	if url == "" {
		return nil, ErrInvalidURL
	}

	var result *Document
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		doc, err := s.submitOrUpdate(txCtx, empID, docType, url)
		if err != nil {
			return err
		}
		result = doc
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) submitOrUpdate(ctx context.Context, employeeID string, docType Type, url string) (*Document, error) {
	now := s.clock.Now()

	existing, err := s.repo.FindByEmployeeAndType(ctx, employeeID, docType)
	if err != nil && !errors.Is(err, ErrDocumentNotFound) {
		return nil, err
	}

	if existing == nil {
		return s.repo.Create(ctx, &Document{
			EmployeeID: employeeID,
			Type:       docType,
			URL:        url,
			Status:     StatusPendingReview,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	doc, err := s.repo.LockByID(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	if doc.Status == StatusApproved {
		if doc.URL == url {
			return doc, nil
		}
		return nil, ErrDocumentApproved
	}

	doc.resubmit(url, now)
	return s.repo.Update(ctx, doc)
}

// UpdateDocument は社員が自身の書類 URL を差し替えます。承認済みの書類は変更できません。
func (s *Service) UpdateDocument(ctx context.Context, in UpdateDocumentInput) (*Document, error) {
	empID, err := normalizeUUID(in.EmployeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	docID, err := normalizeUUID(in.DocumentID, ErrInvalidID)
	if err != nil {
		return nil, err
	}

	url := strings.TrimSpace(in.URL)
	if url == "" {
		return nil, ErrInvalidURL
	}

	var updated *Document
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		doc, err := s.repo.LockByID(txCtx, docID)
		if err != nil {
			return err
		}
		if doc.EmployeeID != empID {
			return ErrDocumentNotOwned
		}
		if doc.Status == StatusApproved {
			return ErrDocumentApproved
		}

		doc.resubmit(url, s.clock.Now())
		result, err := s.repo.Update(txCtx, doc)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// Review は HR が書類を承認または差し戻します。
// 承認により全必須書類が揃った場合は MandatoryDocumentsApproved を同一トランザクション内で発行します。
func (s *Service) Review(ctx context.Context, in ReviewInput) (*Document, error) {
	if err := access.Require(in.Actor, access.RoleHR); err != nil {
		return nil, err
	}

	docID, err := normalizeUUID(in.DocumentID, ErrInvalidID)
	if err != nil {
		return nil, err
	}

	status := Status(strings.ToUpper(strings.TrimSpace(in.Status)))
	if status != StatusApproved && status != StatusRejected {
		return nil, ErrInvalidReviewStatus
	}

	comments := normalizeComments(in.Comments)

	var reviewed *Document
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		target, err := s.repo.FindByID(txCtx, docID)
		if err != nil {
			return err
		}
		// 同一社員の審査は社員行ロックで直列化し、必須書類の再集計が他の承認を見落とさないようにする。
		if _, err := s.employees.LockByID(txCtx, target.EmployeeID); err != nil {
			return err
		}

		doc, err := s.repo.LockByID(txCtx, docID)
		if err != nil {
			return err
		}

		reviewer, err := s.reviewers.FindByID(txCtx, in.Actor.UserID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return ErrReviewerNotFound
			}
			return err
		}

		now := s.clock.Now()
		doc.Status = status
		doc.Review = &Review{
			ReviewerID:   reviewer.ID,
			ReviewerName: reviewer.Name,
			Comments:     comments,
			ReviewedAt:   now,
		}
		doc.UpdatedAt = now

		result, err := s.repo.Update(txCtx, doc)
		if err != nil {
			return err
		}
		reviewed = result

		if status != StatusApproved {
			return nil
		}

		docs, err := s.repo.ListByEmployee(txCtx, doc.EmployeeID)
		if err != nil {
			return err
		}
		if !AllMandatoryApproved(docs) {
			return nil
		}
		return s.publisher.PublishMandatoryDocumentsApproved(txCtx, event.MandatoryDocumentsApproved{
			EmployeeID: doc.EmployeeID,
			DocumentID: doc.ID,
			OccurredAt: now,
		})
	}); err != nil {
		return nil, err
	}

	return reviewed, nil
}

// ListDocuments は社員の書類一覧を返します。
func (s *Service) ListDocuments(ctx context.Context, employeeID string) ([]*Document, error) {
	empID, err := normalizeUUID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	var docs []*Document
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListByEmployee(txCtx, empID)
		if err != nil {
			return err
		}
		docs = result
		return nil
	}); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument は書類を取得します。
func (s *Service) GetDocument(ctx context.Context, id string) (*Document, error) {
	docID, err := normalizeUUID(id, ErrInvalidID)
	if err != nil {
		return nil, err
	}

	var doc *Document
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, docID)
		if err != nil {
			return err
		}
		doc = result
		return nil
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

func normalizeUUID(raw string, invalid error) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", invalid
	}
	return parsed.String(), nil
}

func normalizeComments(comments *string) *string {
	if comments == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comments)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
