// Package memory はプロセス内で完結するリポジトリ実装です。ローカル起動とテストで利用します。
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/ogurasousui/onboarding-engine/internal/core/course"
	"github.com/ogurasousui/onboarding-engine/internal/core/document"
	"github.com/ogurasousui/onboarding-engine/internal/core/employee"
	"github.com/ogurasousui/onboarding-engine/internal/core/enrollment"
	"github.com/ogurasousui/onboarding-engine/internal/core/task"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
)

type entry[T any] struct {
	seq   int64
	value T
}

type table[T any] map[string]entry[T]

func (t table[T]) clone() table[T] {
	cloned := make(table[T], len(t))
	for k, v := range t {
		cloned[k] = v
	}
	return cloned
}

// sorted は挿入順に値を返します。
func (t table[T]) sorted(keep func(T) bool) []T {
	entries := make([]entry[T], 0, len(t))
	for _, e := range t {
		if keep == nil || keep(e.value) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	values := make([]T, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.value)
	}
	return values
}

type state struct {
	seq         int64
	users       table[user.User]
	employees   table[employee.Employee]
	tasks       table[task.Task]
	documents   table[document.Document]
	courses     table[course.Course]
	modules     table[course.Module]
	enrollments table[enrollment.Enrollment]
	progress    table[enrollment.ModuleProgress]
}

func newState() state {
	return state{
		users:       table[user.User]{},
		employees:   table[employee.Employee]{},
		tasks:       table[task.Task]{},
		documents:   table[document.Document]{},
		courses:     table[course.Course]{},
		modules:     table[course.Module]{},
		enrollments: table[enrollment.Enrollment]{},
		progress:    table[enrollment.ModuleProgress]{},
	}
}

func (s state) clone() state {
	return state{
		seq:         s.seq,
		users:       s.users.clone(),
		employees:   s.employees.clone(),
		tasks:       s.tasks.clone(),
		documents:   s.documents.clone(),
		courses:     s.courses.clone(),
		modules:     s.modules.clone(),
		enrollments: s.enrollments.clone(),
		progress:    s.progress.clone(),
	}
}

// Store は全アグリゲートのデータを保持します。
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data state
}

// NewStore は空の Store を生成します。
func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) nextSeq() int64 {
	s.data.seq++
	return s.data.seq
}

type txKey struct{}

// TransactionManager は Store 上の読み書きトランザクションを直列化し、失敗時に書き込みを巻き戻します。
type TransactionManager struct {
	store *Store
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(store *Store) *TransactionManager {
	return &TransactionManager{store: store}
}

// WithinReadOnly は読み取り専用処理を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// WithinReadWrite は読み書きトランザクション内で fn を実行します。既存のトランザクションがあれば再利用します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	m.store.mu.RLock()
	snapshot := m.store.data.clone()
	m.store.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		m.store.mu.Lock()
		m.store.data = snapshot
		m.store.mu.Unlock()
		return err
	}
	return nil
}

func page[T any](values []T, limit, offset int) ([]T, string) {
	if offset >= len(values) {
		return []T{}, ""
	}
	values = values[offset:]
	if limit <= 0 || len(values) <= limit {
		return values, ""
	}
	return values[:limit], strconv.Itoa(offset + limit)
}

func ptr[T any](v T) *T {
	return &v
}
