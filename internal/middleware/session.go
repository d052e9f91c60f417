// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/calview/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// UserResolver はセッションIDから現在のユーザーを解決するインターフェース。
// auth.Serviceが実装する。セッションが存在しないか期限切れの場合は
// (nil, nil) を返す契約。
type UserResolver interface {
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// NewAPISessionMiddleware はHTTP Only Cookieからセッションを解決し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストには401と {"error": "Unauthorized"} を返す。
// APIルート用。
func NewAPISessionMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return newSessionMiddleware(resolver, writeUnauthorized)
}

// NewPageSessionMiddleware はHTTP Only Cookieからセッションを解決し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストはスタートページ（/）へリダイレクトする。
// ブラウザ向けルート用。
func NewPageSessionMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return newSessionMiddleware(resolver, redirectToStart)
}

// newSessionMiddleware はセッション解決の共通処理。
// 未認証時の応答だけがルートごとの設定であり、ガードのロジックは共有する。
// セッションはユーザーへの参照のみを持ち、ユーザー本体はリクエストごとに
// 解決されるため、トークンの更新は全セッションに即時反映される。
func newSessionMiddleware(resolver UserResolver, deny http.HandlerFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				deny(w, r)
				return
			}

			// 2. セッションからユーザーを解決する。期限切れ・未存在はnilが返る
			user, err := resolver.GetCurrentUser(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve session user",
					slog.String("error", err.Error()),
				)
				deny(w, r)
				return
			}
			if user == nil {
				deny(w, r)
				return
			}

			// 3. 認証済みユーザーをコンテキストに注入し、
			// 外側のロギングミドルウェアにユーザーIDを伝える
			setLogUserID(r.Context(), user.ID)
			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized は401 Unauthorizedレスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}

// redirectToStart はスタートページへリダイレクトする。
func redirectToStart(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
