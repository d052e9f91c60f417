// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// センチネルエラー。errors.Isで判別し、HTTPレイヤーでリカバリ方法を分岐する。
var (
	// ErrAuthProvider はOAuthプロバイダーとの交換失敗（拒否・通信エラー）を表す。
	// リカバリ: エラーフラグ付きでスタートページへリダイレクトする。
	ErrAuthProvider = errors.New("auth provider error")

	// ErrIdentityPersistence はログイン中のユーザー永続化失敗を表す。
	// セッション作成前にフローを中断する。部分的なユーザーでのログインは許さない。
	ErrIdentityPersistence = errors.New("identity persistence error")

	// ErrDuplicateUser は同一provider_user_idのユーザーが既に存在することを表す。
	// 同時ログインのコールバック競合で発生しうる想定内のエラーで、
	// 呼び出し側は更新として再試行する。
	ErrDuplicateUser = errors.New("duplicate user")

	// ErrUpstreamFetch はカレンダーAPI呼び出しの失敗を表す。
	// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
	ErrUpstreamFetch = errors.New("upstream fetch error")
)

// APIError はAPIレスポンスの統一エラーフォーマットを表す。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, calendar, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInvalidDate   = "INVALID_DATE"
	ErrCodeUpstreamFetch = "UPSTREAM_FETCH_FAILED"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidDateError は無効な日付フィルタのエラーを生成する。
func NewInvalidDateError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %s", date),
		Category: "validation",
		Action:   "日付はYYYY-MM-DD形式で指定してください。",
	}
}

// NewUpstreamFetchError はカレンダー取得失敗のエラーを生成する。
func NewUpstreamFetchError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFetch,
		Message:  "カレンダーの予定の取得に失敗しました。",
		Category: "calendar",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
