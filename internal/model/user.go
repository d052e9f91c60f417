// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultEmail はプロバイダーがメールアドレスを返さなかった場合の代替値。
const DefaultEmail = "no-email"

// DefaultName はプロバイダーが表示名を返さなかった場合の代替値。
const DefaultName = "Anonymous"

// User はサービス利用ユーザーを表す。
// GoogleのユーザーID（sub）ごとに必ず1レコードのみ存在する。
// AccessTokenは再ログインのたびに無条件で上書きされる。
// RefreshTokenはプロバイダーが空でない値を返した場合のみ更新される。
type User struct {
	ID             string
	ProviderUserID string
	Email          string
	Name           string
	AccessToken    string
	RefreshToken   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
// ユーザー情報の複製は持たず、UserIDによる参照のみを保持する。
// トークンの更新が全アクティブセッションへ即時反映されるようにするため。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
