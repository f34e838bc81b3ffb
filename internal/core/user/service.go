package user

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service はユーザーに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// UseCase はユーザーユースケースの公開インターフェースです。
type UseCase interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
	GetUser(ctx context.Context, in GetUserInput) (*User, error)
	ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreateUserInput はユーザー作成時の入力です。
type CreateUserInput struct {
	Actor       access.Principal
	Email       string
	Name        string
	PhoneNumber string
	Roles       []string
}

// GetUserInput はユーザー取得時の入力です。
type GetUserInput struct {
	ID string
}

// ListUsersInput は一覧取得時の入力です。
type ListUsersInput struct {
	PageSize  int
	PageToken string
	Role      string
}

// ListUsersResult は一覧取得結果を表します。
type ListUsersResult struct {
	Users         []*User
	NextPageToken string
}

// CreateUser は新しいユーザーを作成します。
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	if err := access.Require(in.Actor, access.RoleAdmin, access.RoleHR); err != nil {
		return nil, err
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	roles, err := normalizeRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	if err := s.ensureEmailNotExists(ctx, email); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	u := &User{
		Email:       email,
		Name:        name,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Roles:       roles,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return s.repo.Create(ctx, u)
}

// GetUser は ID でユーザーを取得します。
func (s *Service) GetUser(ctx context.Context, in GetUserInput) (*User, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// ListUsers はユーザーの一覧を取得します。
func (s *Service) ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var rolePtr *access.Role
	if strings.TrimSpace(in.Role) != "" {
		role, ok := access.ParseRole(in.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		rolePtr = &role
	}

	users, nextToken, err := s.repo.List(ctx, ListUsersFilter{
		Limit:  limit,
		Offset: offset,
		Role:   rolePtr,
	})
	if err != nil {
		return nil, err
	}

	return &ListUsersResult{
		Users:         users,
		NextPageToken: nextToken,
	}, nil
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if user != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

// NormalizeID は UUID 形式のユーザー ID を検証します。
func NormalizeID(raw string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidID
	}
	return parsed.String(), nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}

func normalizeRoles(raw []string) ([]access.Role, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidRole
	}
	seen := make(map[access.Role]struct{}, len(raw))
	roles := make([]access.Role, 0, len(raw))
	for _, r := range raw {
		role, ok := access.ParseRole(r)
		if !ok {
			return nil, ErrInvalidRole
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles, nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
