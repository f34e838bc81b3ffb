package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestTransactionManager_ReadWriteCommit(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	tm := NewTransactionManager(mock, WithIsolationLevel(pgx.Serializable))

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite, IsoLevel: pgx.Serializable})
	mock.ExpectCommit()

	err := tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		if _, ok := txFromContext(ctx); !ok {
			t.Fatalf("transaction not injected into context")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithinReadWrite returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_ReadOnlyRollbackOnError(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadOnly})
	mock.ExpectRollback()

	expectedErr := errors.New("usecase error")
	err := tm.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		return expectedErr
	})

	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_NestedReuse(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	err := tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		outer, _ := txFromContext(ctx)
		return tm.WithinReadOnly(ctx, func(inner context.Context) error {
			tx, ok := txFromContext(inner)
			if !ok || tx != outer {
				t.Fatalf("nested scope did not reuse the outer transaction")
			}
			return nil
		})
	})

	if err != nil {
		t.Fatalf("nested transaction returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_ReadWriteInsideReadOnly(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadOnly})
	mock.ExpectRollback()

	err := tm.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		return tm.WithinReadWrite(ctx, func(context.Context) error {
			t.Fatal("read-write scope must not run inside read-only transaction")
			return nil
		})
	})

	if !errors.Is(err, ErrReadOnlyScope) {
		t.Fatalf("expected ErrReadOnlyScope, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_NilManagerRunsDirectly(t *testing.T) {
	t.Parallel()

	var tm *TransactionManager
	called := false
	if err := tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		called = true
		if _, ok := txFromContext(ctx); ok {
			t.Fatal("nil manager must not inject a transaction")
		}
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("fn was not called")
	}
}

func TestQueryerFromContext_Fallback(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	if got := QueryerFromContext(context.Background(), mock); got != Queryer(mock) {
		t.Fatal("expected fallback queryer outside transaction")
	}
}

func TestIsolationLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]pgx.TxIsoLevel{
		"":                pgx.ReadCommitted,
		"read_committed":  pgx.ReadCommitted,
		"repeatable_read": pgx.RepeatableRead,
		"serializable":    pgx.Serializable,
	}
	for name, want := range cases {
		got, err := IsolationLevel(name)
		if err != nil {
			t.Fatalf("IsolationLevel(%q) returned error: %v", name, err)
		}
		if got != want {
			t.Fatalf("IsolationLevel(%q) = %q, want %q", name, got, want)
		}
	}

	if _, err := IsolationLevel("snapshot"); err == nil {
		t.Fatal("expected error for unknown isolation level")
	}
}
