package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/onboarding-engine/internal/platform/config"
)

// ErrReadOnlyScope は読み取り専用トランザクション内で書き込みスコープを開始しようとした場合のエラーです。
var ErrReadOnlyScope = errors.New("postgres: read-write scope requested inside read-only transaction")

type txContextKey struct{}

type txScope struct {
	tx       pgx.Tx
	readOnly bool
}

type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Option は TransactionManager の挙動を変更します。
type Option func(*TransactionManager)

// WithIsolationLevel は読み書きトランザクションの分離レベルを指定します。
func WithIsolationLevel(level pgx.TxIsoLevel) Option {
	return func(m *TransactionManager) {
		m.isoLevel = level
	}
}

// IsolationLevel は設定値の分離レベル名を pgx の値へ変換します。空文字は READ COMMITTED です。
func IsolationLevel(name string) (pgx.TxIsoLevel, error) {
	switch name {
	case "", config.IsolationReadCommitted:
		return pgx.ReadCommitted, nil
	case config.IsolationRepeatableRead:
		return pgx.RepeatableRead, nil
	case config.IsolationSerializable:
		return pgx.Serializable, nil
	default:
		return "", fmt.Errorf("postgres: unsupported isolation level %q", name)
	}
}

// WithLogger はロールバック失敗などを記録するロガーを指定します。
func WithLogger(logger *slog.Logger) Option {
	return func(m *TransactionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// TransactionManager は pgx を用いたトランザクション制御を提供します。
type TransactionManager struct {
	pool     txStarter
	isoLevel pgx.TxIsoLevel
	logger   *slog.Logger
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(pool txStarter, opts ...Option) *TransactionManager {
	if pool == nil {
		return nil
	}
	m := &TransactionManager{pool: pool, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithinReadOnly は読み取り専用トランザクションを開始し、fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

// WithinReadWrite は読み書きトランザクションを開始し、fn を実行します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite, IsoLevel: m.isoLevel}, fn)
}

func (m *TransactionManager) within(ctx context.Context, opts pgx.TxOptions, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("postgres: transaction function is required")
	}

	if scope, ok := scopeFromContext(ctx); ok {
		if scope.readOnly && opts.AccessMode == pgx.ReadWrite {
			return ErrReadOnlyScope
		}
		return fn(ctx)
	}

	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	scope := txScope{tx: tx, readOnly: opts.AccessMode == pgx.ReadOnly}
	if err := fn(context.WithValue(ctx, txContextKey{}, scope)); err != nil {
		if rbErr := m.rollback(ctx, tx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		commitErr := fmt.Errorf("postgres: commit: %w", err)
		if errors.Is(err, pgx.ErrTxClosed) {
			return commitErr
		}
		if rbErr := m.rollback(ctx, tx); rbErr != nil {
			return errors.Join(commitErr, rbErr)
		}
		return commitErr
	}

	return nil
}

func (m *TransactionManager) rollback(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	m.logger.ErrorContext(ctx, "transaction rollback failed", slog.Any("error", err))
	return fmt.Errorf("postgres: rollback: %w", err)
}

func scopeFromContext(ctx context.Context) (txScope, bool) {
	if ctx == nil {
		return txScope{}, false
	}
	scope, ok := ctx.Value(txContextKey{}).(txScope)
	return scope, ok
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	scope, ok := scopeFromContext(ctx)
	if !ok {
		return nil, false
	}
	return scope.tx, true
}

// QueryerFromContext はコンテキスト内にトランザクションが存在すればそれを返し、存在しなければ fallback を返します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// Queryer は pgx.Tx および pgxpool.Pool と互換性のあるクエリ実行インターフェースです。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
