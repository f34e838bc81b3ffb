package user

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/apperr"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakeRepo struct {
	users map[string]*User
	order []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*User)}
}

func (r *fakeRepo) Create(_ context.Context, user *User) (*User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, ErrEmailAlreadyExists
		}
	}
	copy := cloneUser(user)
	copy.ID = uuid.NewString()
	r.users[copy.ID] = copy
	r.order = append(r.order, copy.ID)
	return cloneUser(copy), nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *fakeRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeRepo) List(_ context.Context, filter ListUsersFilter) ([]*User, string, error) {
	var filtered []*User
	for _, id := range r.order {
		u := r.users[id]
		if filter.Role != nil && !u.HasRole(*filter.Role) {
			continue
		}
		filtered = append(filtered, cloneUser(u))
	}
	if filter.Offset > len(filtered) {
		return []*User{}, "", nil
	}
	end := filter.Offset + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	next := ""
	if end < len(filtered) {
		next = strconv.Itoa(end)
	}
	return filtered[filter.Offset:end], next, nil
}

func cloneUser(u *User) *User {
	copy := *u
	copy.Roles = append([]access.Role(nil), u.Roles...)
	return &copy
}

var admin = access.Principal{UserID: "00000000-0000-0000-0000-000000000001", Roles: []access.Role{access.RoleAdmin}}

func TestService_CreateUser_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(newFakeRepo(), stubClock{now: now})

	created, err := svc.CreateUser(context.Background(), CreateUserInput{
		Actor:       admin,
		Email:       " New.Hire@Example.com ",
		Name:        "  Asha Rao ",
		PhoneNumber: " 555-0100 ",
		Roles:       []string{"employee", "EMPLOYEE"},
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if created.Email != "new.hire@example.com" {
		t.Fatalf("expected normalized email, got %s", created.Email)
	}
	if created.Name != "Asha Rao" || created.PhoneNumber != "555-0100" {
		t.Fatalf("expected trimmed fields, got %+v", created)
	}
	if len(created.Roles) != 1 || created.Roles[0] != access.RoleEmployee {
		t.Fatalf("expected deduplicated roles, got %v", created.Roles)
	}
	if !created.CreatedAt.Equal(now) {
		t.Fatalf("expected clock timestamp")
	}
}

func TestService_CreateUser_Validation(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserInput{Actor: admin, Email: "bad", Name: "x", Roles: []string{"HR"}}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{Actor: admin, Email: "a@example.com", Name: " ", Roles: []string{"HR"}}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{Actor: admin, Email: "a@example.com", Name: "A", Roles: []string{"student"}}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestService_CreateUser_RequiresPrivilegedActor(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil)
	employee := access.Principal{UserID: uuid.NewString(), Roles: []access.Role{access.RoleEmployee}}

	_, err := svc.CreateUser(context.Background(), CreateUserInput{Actor: employee, Email: "a@example.com", Name: "A", Roles: []string{"HR"}})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_CreateUser_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil)
	in := CreateUserInput{Actor: admin, Email: "dup@example.com", Name: "Dup", Roles: []string{"EMPLOYEE"}}
	if _, err := svc.CreateUser(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in.Email = "DUP@example.com"
	if _, err := svc.CreateUser(context.Background(), in); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestService_GetUser_InvalidID(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil)
	if _, err := svc.GetUser(context.Background(), GetUserInput{ID: "user-1"}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.GetUser(context.Background(), GetUserInput{ID: uuid.NewString()}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_ListUsers_RoleFilterAndPaging(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()
	for i, roles := range [][]string{{"EMPLOYEE"}, {"HR"}, {"EMPLOYEE"}, {"EMPLOYEE"}} {
		if _, err := svc.CreateUser(ctx, CreateUserInput{
			Actor: admin,
			Email: "user" + strconv.Itoa(i) + "@example.com",
			Name:  "User",
			Roles: roles,
		}); err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}
	}

	result, err := svc.ListUsers(ctx, ListUsersInput{PageSize: 2, Role: "employee"})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(result.Users) != 2 || result.NextPageToken != "2" {
		t.Fatalf("unexpected page: %d users, token %q", len(result.Users), result.NextPageToken)
	}

	if _, err := svc.ListUsers(ctx, ListUsersInput{PageSize: maxListPageSize + 1}); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, err := svc.ListUsers(ctx, ListUsersInput{PageToken: "-1"}); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}
