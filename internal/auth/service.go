// Package auth はOAuth認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/calview/internal/model"
	"github.com/hitoshi/calview/internal/repository"
)

// ExchangeResult はプロバイダーとの認可コード交換で得られる結果を表す。
// プロフィールと委任トークンの両方を含む。
type ExchangeResult struct {
	ProviderUserID string
	Email          string
	Name           string
	AccessToken    string
	RefreshToken   string // 再認可時は空のことがある
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、プロフィールとトークンを取得する。
	ExchangeCode(ctx context.Context, code string) (*ExchangeResult, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）。固定ウィンドウで延長しない。
}

// MetricsRecorder はログイン結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     MetricsRecorder
	config      ServiceConfig
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     metrics,
		config:      config,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
//
// 未登録のprovider_user_idの場合はユーザーを新規作成する。メールアドレスと
// 表示名が空の場合は代替値で補い、ログイン可用性を優先する。
// 登録済みの場合は既存レコードのトークンのみ更新する。アクセストークンは
// 無条件上書き、リフレッシュトークンは空でない場合のみ上書きする。
//
// 永続化に失敗した場合はmodel.ErrIdentityPersistenceを返し、
// セッションは作成しない。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	// 1. 認可コードをトークンに交換し、プロフィールを取得
	result, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		s.recordFailure("exchange")
		return nil, fmt.Errorf("%w: %v", model.ErrAuthProvider, err)
	}

	// 2. ユーザーのupsert
	user, err := s.upsertUser(ctx, result)
	if err != nil {
		s.recordFailure("persistence")
		return nil, err
	}

	// 3. セッションを発行
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.recordFailure("session")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}

	return session, nil
}

// upsertUser はprovider_user_idごとに1レコードの不変条件を維持しつつ
// ユーザーを作成または更新する。
// 同時コールバックによるCreateの一意制約違反は想定内の競合として扱い、
// 更新として再試行する。後着の交換のトークンが最終的に永続化される。
func (s *Service) upsertUser(ctx context.Context, result *ExchangeResult) (*model.User, error) {
	existing, err := s.userRepo.FindByProviderUserID(ctx, result.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", model.ErrIdentityPersistence, err)
	}

	if existing != nil {
		if err := s.userRepo.UpdateTokens(ctx, existing.ID, result.AccessToken, result.RefreshToken); err != nil {
			return nil, fmt.Errorf("%w: update tokens: %v", model.ErrIdentityPersistence, err)
		}

		slog.Info("existing user logged in",
			slog.String("user_id", existing.ID),
		)
		return existing, nil
	}

	now := time.Now()
	newUser := &model.User{
		ID:             uuid.New().String(),
		ProviderUserID: result.ProviderUserID,
		Email:          result.Email,
		Name:           result.Name,
		AccessToken:    result.AccessToken,
		RefreshToken:   result.RefreshToken,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// プロバイダーがメールや表示名を返さなくてもログインは成立させる
	if newUser.Email == "" {
		newUser.Email = model.DefaultEmail
	}
	if newUser.Name == "" {
		newUser.Name = model.DefaultName
	}

	err = s.userRepo.Create(ctx, newUser)
	if err == nil {
		slog.Info("new user created",
			slog.String("user_id", newUser.ID),
			slog.String("email", newUser.Email),
		)
		return newUser, nil
	}

	if !errors.Is(err, model.ErrDuplicateUser) {
		return nil, fmt.Errorf("%w: create user: %v", model.ErrIdentityPersistence, err)
	}

	// 同時ログインの競合: 別のコールバックが先に作成した。更新として再試行する。
	winner, err := s.userRepo.FindByProviderUserID(ctx, result.ProviderUserID)
	if err != nil || winner == nil {
		return nil, fmt.Errorf("%w: refind user after duplicate: %v", model.ErrIdentityPersistence, err)
	}
	if err := s.userRepo.UpdateTokens(ctx, winner.ID, result.AccessToken, result.RefreshToken); err != nil {
		return nil, fmt.Errorf("%w: update tokens after duplicate: %v", model.ErrIdentityPersistence, err)
	}

	slog.Info("concurrent login resolved as update",
		slog.String("user_id", winner.ID),
	)
	return winner, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションが存在しないか期限切れの場合はnilを返す。エラーにはしない。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure(reason)
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
