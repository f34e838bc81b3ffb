package handler

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const dateLayout = "2006-01-02"

// fields は Struct リクエストのフィールド読み出しを提供します。
type fields struct {
	values map[string]*structpb.Value
}

func newFields(req *structpb.Struct) fields {
	if req == nil {
		return fields{values: map[string]*structpb.Value{}}
	}
	return fields{values: req.GetFields()}
}

func (f fields) has(key string) bool {
	v, ok := f.values[key]
	if !ok {
		return false
	}
	_, isNull := v.GetKind().(*structpb.Value_NullValue)
	return !isNull
}

func (f fields) str(key string) string {
	return f.values[key].GetStringValue()
}

func (f fields) optStr(key string) *string {
	if !f.has(key) {
		return nil
	}
	s := f.str(key)
	return &s
}

func (f fields) integer(key string) (int, error) {
	if !f.has(key) {
		return 0, nil
	}
	n := f.values[key].GetNumberValue()
	if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	return int(n), nil
}

func (f fields) strings(key string) []string {
	list := f.values[key].GetListValue().GetValues()
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, v.GetStringValue())
	}
	return out
}

// date は "2006-01-02" もしくは RFC 3339 の日付を読み取ります。
func (f fields) date(key string) (*time.Time, error) {
	raw := strings.TrimSpace(f.str(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, status.Errorf(codes.InvalidArgument, "%s must be a date (YYYY-MM-DD)", key)
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return s, nil
}

// sameID は表記揺れ (大文字・前後の空白) を無視して二つの UUID を比較します。解釈できない値は文字列のまま比較します。
func sameID(a, b string) bool {
	pa, errA := uuid.Parse(strings.TrimSpace(a))
	pb, errB := uuid.Parse(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return a == b
	}
	return pa == pb
}

func list[T any](items []T, conv func(T) map[string]any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, conv(item))
	}
	return out
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timestamp(*t)
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// principal は認証済みの操作主体を返します。存在しなければ Unauthenticated です。
func principal(ctx context.Context) (access.Principal, error) {
	p, ok := access.PrincipalFromContext(ctx)
	if !ok || strings.TrimSpace(p.UserID) == "" {
		return access.Principal{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	return p, nil
}

func isStaff(p access.Principal) bool {
	return access.HasRole(p, access.RoleHR) || access.HasRole(p, access.RoleAdmin)
}
