// Package event はアグリゲート間のドメインイベントを同期的に配送します。
package event

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MandatoryDocumentsApproved は社員の必須書類がすべて承認されたことを表します。
type MandatoryDocumentsApproved struct {
	EmployeeID string
	DocumentID string
	OccurredAt time.Time
}

// MandatoryDocumentsApprovedHandler は MandatoryDocumentsApproved の購読者です。
type MandatoryDocumentsApprovedHandler interface {
	HandleMandatoryDocumentsApproved(ctx context.Context, ev MandatoryDocumentsApproved) error
}

// Publisher はイベント発行の抽象です。
type Publisher interface {
	PublishMandatoryDocumentsApproved(ctx context.Context, ev MandatoryDocumentsApproved) error
}

// Dispatcher は購読者へ呼び出し元のコンテキストのまま同期配送します。
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []MandatoryDocumentsApprovedHandler
}

// NewDispatcher は Dispatcher を生成します。
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe は購読者を登録します。
func (d *Dispatcher) Subscribe(h MandatoryDocumentsApprovedHandler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// PublishMandatoryDocumentsApproved は全購読者を順に呼び出し、最初のエラーで中断します。
func (d *Dispatcher) PublishMandatoryDocumentsApproved(ctx context.Context, ev MandatoryDocumentsApproved) error {
	d.mu.RLock()
	handlers := make([]MandatoryDocumentsApprovedHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		if err := h.HandleMandatoryDocumentsApproved(ctx, ev); err != nil {
			return errors.Join(errors.New("event: mandatory documents approved handler failed"), err)
		}
	}
	return nil
}
