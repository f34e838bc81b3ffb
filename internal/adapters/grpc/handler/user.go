package handler

import (
	"context"

	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"github.com/ogurasousui/onboarding-engine/internal/core/user"
	"google.golang.org/protobuf/types/known/structpb"
)

// UserServiceName はユーザーサービスの完全修飾名です。
const UserServiceName = "onboarding.v1.UserService"

// UserHandler は UserService の gRPC 実装です。
type UserHandler struct {
	users   user.UseCase
	methods map[string]Method
}

// NewUserHandler は UserHandler を生成します。
func NewUserHandler(users user.UseCase) *UserHandler {
	h := &UserHandler{users: users}
	h.methods = map[string]Method{
		"CreateUser": h.CreateUser,
		"GetUser":    h.GetUser,
		"ListUsers":  h.ListUsers,
	}
	return h
}

// ServiceName はサービス名を返します。
func (h *UserHandler) ServiceName() string { return UserServiceName }

// Methods はメソッド表を返します。
func (h *UserHandler) Methods() map[string]Method { return h.methods }

// CreateUser はユーザーを作成します。
func (h *UserHandler) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)

	created, err := h.users.CreateUser(ctx, user.CreateUserInput{
		Actor:       actor,
		Email:       f.str("email"),
		Name:        f.str("name"),
		PhoneNumber: f.str("phone_number"),
		Roles:       f.strings("roles"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"user": userMessage(created)})
}

// GetUser はユーザーを取得します。HR/ADMIN 以外は自分自身のみ参照できます。
func (h *UserHandler) GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	id := newFields(req).str("id")
	if id == "" {
		id = actor.UserID
	}
	if !sameID(id, actor.UserID) && !isStaff(actor) {
		return nil, toStatusError(access.ErrForbidden)
	}

	found, err := h.users.GetUser(ctx, user.GetUserInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"user": userMessage(found)})
}

// ListUsers はユーザー一覧を返します。
func (h *UserHandler) ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(actor) {
		return nil, toStatusError(access.ErrForbidden)
	}
	f := newFields(req)
	pageSize, err := f.integer("page_size")
	if err != nil {
		return nil, err
	}

	result, err := h.users.ListUsers(ctx, user.ListUsersInput{
		PageSize:  pageSize,
		PageToken: f.str("page_token"),
		Role:      f.str("role"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{
		"users":           list(result.Users, userMessage),
		"next_page_token": result.NextPageToken,
	})
}
