// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/powerfleet/internal/auth"
	"github.com/hitoshi/powerfleet/internal/model"
)

// AuthCookieName はセッショントークンを保持するCookieの名前。
const AuthCookieName = "AuthToken"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var principalContextKey = contextKey("principal")

// Principal は認証済みユーザーの識別情報。
type Principal struct {
	Username string
	Role     string
}

// TokenParser はセッショントークンの検証に必要なインターフェース。
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// NewTokenAuthMiddleware はCookieまたはAuthorizationヘッダーからセッショントークンを読み取り、
// 検証するミドルウェアを返す。
// 認証済みユーザーをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewTokenAuthMiddleware(parser TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. トークンを取得
			token := TokenFromRequest(r)
			if token == "" {
				WriteUnauthorized(w)
				return
			}

			// 2. トークンを検証
			claims, err := parser.Parse(token)
			if err != nil {
				slog.Info("session token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteUnauthorized(w)
				return
			}

			// 3. 認証済みユーザーをコンテキストに注入
			recordPrincipal(r.Context(), claims.Username)
			ctx := ContextWithPrincipal(r.Context(), Principal{
				Username: claims.Username,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole は指定ロールのユーザーのみ通過させるミドルウェアを返す。
// NewTokenAuthMiddlewareの後に配置する。
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := PrincipalFromContext(r.Context())
			if err != nil {
				WriteUnauthorized(w)
				return
			}
			if p.Role != role {
				slog.Warn("role check failed",
					slog.String("username", p.Username),
					slog.String("role", p.Role),
					slog.String("required_role", role),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest はAuthorization: Bearerヘッダー、AuthToken Cookieの順にトークンを探す。
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AuthCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// PrincipalFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// トークン認証ミドルウェアを通過したリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	if !ok || p.Username == "" {
		return Principal{}, fmt.Errorf("principal not found in context")
	}
	return p, nil
}

// ContextWithPrincipal はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}
