package interceptor

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	authorizationHeader = "authorization"
	bearerPrefix        = "bearer "
	healthServicePrefix = "/grpc.health.v1.Health/"
)

// Claims はアクセストークンに含まれるクレームです。
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Authenticator は HS256 署名の Bearer トークンを検証して操作主体を解決します。
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator は Authenticator を生成します。issuer が空なら発行者を検証しません。
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Unary は認証済みの操作主体をコンテキストへ格納する UnaryServerInterceptor を返します。
func (a *Authenticator) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		p, err := a.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		return handler(access.WithPrincipal(ctx, p), req)
	}
}

func (a *Authenticator) authenticate(ctx context.Context) (access.Principal, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return access.Principal{}, status.Error(codes.Unauthenticated, "missing metadata")
	}
	values := md.Get(authorizationHeader)
	if len(values) == 0 {
		return access.Principal{}, status.Error(codes.Unauthenticated, "missing authorization token")
	}

	raw := strings.TrimSpace(values[0])
	if len(raw) < len(bearerPrefix) || !strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		return access.Principal{}, status.Error(codes.Unauthenticated, "authorization must be a bearer token")
	}

	p, err := a.Parse(strings.TrimSpace(raw[len(bearerPrefix):]))
	if err != nil {
		return access.Principal{}, status.Error(codes.Unauthenticated, err.Error())
	}
	return p, nil
}

// Parse はトークンを検証し、sub と roles から操作主体を組み立てます。
func (a *Authenticator) Parse(token string) (access.Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return access.Principal{}, err
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return access.Principal{}, errors.New("token subject is empty")
	}

	p := access.Principal{UserID: subject}
	for _, raw := range claims.Roles {
		role, ok := access.ParseRole(raw)
		if !ok {
			return access.Principal{}, errors.New("token contains unknown role " + raw)
		}
		p.Roles = append(p.Roles, role)
	}
	return p, nil
}

// Issue は操作主体のトークンを署名します。開発用トークンの発行とテストで使用します。
func (a *Authenticator) Issue(p access.Principal, claims jwt.RegisteredClaims) (string, error) {
	roles := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		roles = append(roles, string(r))
	}
	claims.Subject = p.UserID
	if claims.Issuer == "" {
		claims.Issuer = a.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Roles: roles, RegisteredClaims: claims}).SignedString(a.secret)
}
