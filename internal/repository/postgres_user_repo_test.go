package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/calview/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ユーザーはprovider_user_idで一意に識別されることの期待動作
// （DB接続なしでコンセプトを検証）
func TestUser_ProviderUserIDIsIdentity(t *testing.T) {
	a := &model.User{ID: "internal-a", ProviderUserID: "google-123"}
	b := &model.User{ID: "internal-b", ProviderUserID: "google-123"}

	// 内部IDが異なってもprovider_user_idが同じなら同一人物として扱う
	if a.ProviderUserID != b.ProviderUserID {
		t.Error("expected same provider user ID")
	}
}

// 新規ユーザーのタイムスタンプ設定の期待動作
func TestUser_TimestampsSetOnCreate(t *testing.T) {
	now := time.Now()
	user := &model.User{
		ID:             "user-1",
		ProviderUserID: "google-1",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}
