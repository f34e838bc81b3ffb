package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
)

// UserRepository は user.Repository のメモリ実装です。
type UserRepository struct {
	store *Store
}

// NewUserRepository は UserRepository を生成します。
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create はユーザーを保存します。
func (r *UserRepository) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, e := range r.store.data.users {
		if strings.EqualFold(e.value.Email, u.Email) {
			return nil, user.ErrEmailAlreadyExists
		}
	}

	created := *u
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	r.store.data.users[created.ID] = entry[user.User]{seq: r.store.nextSeq(), value: created}
	return ptr(created), nil
}

// FindByID は ID でユーザーを取得します。
func (r *UserRepository) FindByID(_ context.Context, id string) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.data.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return ptr(e.value), nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.data.users {
		if strings.EqualFold(e.value.Email, email) {
			return ptr(e.value), nil
		}
	}
	return nil, user.ErrUserNotFound
}

// List はユーザーを作成順に返します。
func (r *UserRepository) List(_ context.Context, filter user.ListUsersFilter) ([]*user.User, string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	values := r.store.data.users.sorted(func(u user.User) bool {
		return filter.Role == nil || u.HasRole(*filter.Role)
	})
	paged, next := page(values, filter.Limit, filter.Offset)
	users := make([]*user.User, 0, len(paged))
	for _, u := range paged {
		users = append(users, ptr(u))
	}
	return users, next, nil
}
