package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/calview/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のSQLSTATEコード。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, provider_user_id, email, name, access_token, refresh_token, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	)
}

// FindByProviderUserID はGoogleのユーザーID（sub）でユーザーを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByProviderUserID(ctx context.Context, providerUserID string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, provider_user_id, email, name, access_token, refresh_token, created_at, updated_at
		 FROM users WHERE provider_user_id = $1`,
		providerUserID,
	)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, query, arg string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.ProviderUserID, &user.Email, &user.Name,
		&user.AccessToken, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。
// provider_user_idの一意制約違反はmodel.ErrDuplicateUserとして返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, provider_user_id, email, name, access_token, refresh_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.ProviderUserID, user.Email, user.Name,
		user.AccessToken, user.RefreshToken, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("user already exists for provider_user_id %s: %w",
				user.ProviderUserID, model.ErrDuplicateUser)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateTokens はユーザーの委任トークンを更新する。
// accessTokenは無条件に上書きし、refreshTokenは空でない場合のみ上書きする。
// NULLIF($3, '')により空文字列の場合は既存のrefresh_tokenを維持する。
func (r *PostgresUserRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET access_token = $2,
		     refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
		     updated_at = now()
		 WHERE id = $1`,
		id, accessToken, refreshToken,
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
