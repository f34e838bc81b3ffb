package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
)

// DocumentRepository は document.Repository のメモリ実装です。
type DocumentRepository struct {
	store *Store
}

// NewDocumentRepository は DocumentRepository を生成します。
func NewDocumentRepository(store *Store) *DocumentRepository {
	return &DocumentRepository{store: store}
}

// Create は書類を保存します。
func (r *DocumentRepository) Create(_ context.Context, doc *document.Document) (*document.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.employees[doc.EmployeeID]; !ok {
		return nil, document.ErrEmployeeNotFound
	}
	for _, e := range r.store.data.documents {
		if e.value.EmployeeID == doc.EmployeeID && e.value.Type == doc.Type {
			return nil, document.ErrDocumentAlreadyExist
		}
	}

	created := *doc
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	r.store.data.documents[created.ID] = entry[document.Document]{seq: r.store.nextSeq(), value: created}
	return ptr(created), nil
}

// Update は URL・状態・審査結果を書き込みます。
func (r *DocumentRepository) Update(_ context.Context, doc *document.Document) (*document.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.data.documents[doc.ID]
	if !ok {
		return nil, document.ErrDocumentNotFound
	}
	e.value.URL = doc.URL
	e.value.Status = doc.Status
	e.value.Review = nil
	if doc.Review != nil {
		review := *doc.Review
		e.value.Review = &review
	}
	e.value.UpdatedAt = doc.UpdatedAt
	r.store.data.documents[doc.ID] = e
	return ptr(e.value), nil
}

// FindByID は ID で書類を取得します。
func (r *DocumentRepository) FindByID(_ context.Context, id string) (*document.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.data.documents[id]
	if !ok {
		return nil, document.ErrDocumentNotFound
	}
	return ptr(e.value), nil
}

// LockByID は FindByID と同じです。
func (r *DocumentRepository) LockByID(ctx context.Context, id string) (*document.Document, error) {
	return r.FindByID(ctx, id)
}

// FindByEmployeeAndType は社員と種別で書類を取得します。
func (r *DocumentRepository) FindByEmployeeAndType(_ context.Context, employeeID string, docType document.Type) (*document.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.data.documents {
		if e.value.EmployeeID == employeeID && e.value.Type == docType {
			return ptr(e.value), nil
		}
	}
	return nil, document.ErrDocumentNotFound
}

// ListByEmployee は社員の書類を提出順に返します。
func (r *DocumentRepository) ListByEmployee(_ context.Context, employeeID string) ([]*document.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	values := r.store.data.documents.sorted(func(d document.Document) bool { return d.EmployeeID == employeeID })
	docs := make([]*document.Document, 0, len(values))
	for _, d := range values {
		docs = append(docs, ptr(d))
	}
	return docs, nil
}
