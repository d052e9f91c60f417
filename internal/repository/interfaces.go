// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/calview/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByProviderUserID はGoogleのユーザーID（sub）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderUserID(ctx context.Context, providerUserID string) (*model.User, error)

	// Create はユーザーを作成する。
	// 同一provider_user_idのレコードが既に存在する場合はmodel.ErrDuplicateUserを返す。
	// 呼び出し側は同時コールバックの競合として扱い、更新として再試行すること。
	Create(ctx context.Context, user *model.User) error

	// UpdateTokens はユーザーの委任トークンを更新する。
	// accessTokenは無条件に上書きする。
	// refreshTokenは空でない場合のみ上書きし、空の場合は既存値を維持する。
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れまたは未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを一括削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
