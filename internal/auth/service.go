// Package auth はGoogleログインとログインセッションの発行を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/repository"
)

// DefaultSessionTTL はログインセッションの既定有効期間。
const DefaultSessionTTL = 60 * 24 * time.Hour

// OAuthUserInfo は外部IdPから取得したユーザー情報。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Provider       string
}

// OAuthProvider は外部IdPとの認可コードフローを抽象化する。
type OAuthProvider interface {
	GetLoginURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // 0以下の場合はDefaultSessionTTL
}

// Service はログイン・ログアウトと現在ユーザーの解決を行う。
type Service struct {
	oauth      OAuthProvider
	users      repository.UserRepository
	identities repository.IdentityRepository
	sessions   repository.SessionRepository
	sessionTTL time.Duration
	now        func() time.Time
	newID      func() string
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	users repository.UserRepository,
	identities repository.IdentityRepository,
	sessions repository.SessionRepository,
	config ServiceConfig,
) *Service {
	ttl := config.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		oauth:      oauth,
		users:      users,
		identities: identities,
		sessions:   sessions,
		sessionTTL: ttl,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// GetLoginURL はstateを埋め込んだIdPの認可URLを返す。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback は認可コードを交換してユーザーを特定し、ログインセッションを発行する。
// IdPとの交換に失敗した場合は何も書き込まずにUpstreamFailureを返す。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	info, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		slog.Warn("oauth code exchange failed", slog.String("error", err.Error()))
		return nil, model.NewUpstreamFailureError("identity provider exchange failed")
	}
	if info == nil || info.ProviderUserID == "" {
		return nil, model.NewUpstreamFailureError("identity provider returned no subject")
	}

	userID, created, err := s.resolveUser(ctx, info)
	if err != nil {
		return nil, err
	}

	session, err := s.issueSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", userID),
		slog.String("provider", info.Provider),
		slog.Bool("new_user", created),
	)
	return session, nil
}

// resolveUser はidentityからユーザーIDを引く。未登録ならユーザーとidentityを作成する。
func (s *Service) resolveUser(ctx context.Context, info *OAuthUserInfo) (string, bool, error) {
	identity, err := s.identities.FindByProviderAndProviderUserID(ctx, info.Provider, info.ProviderUserID)
	if err != nil {
		return "", false, fmt.Errorf("failed to find identity: %w", err)
	}
	if identity != nil {
		return identity.UserID, false, nil
	}

	now := s.now()
	user := &model.User{
		ID:        s.newID(),
		Email:     info.Email,
		Name:      displayName(info),
		CreatedAt: now,
		UpdatedAt: now,
	}
	identity = &model.Identity{
		ID:             s.newID(),
		UserID:         user.ID,
		Provider:       info.Provider,
		ProviderUserID: info.ProviderUserID,
		CreatedAt:      now,
	}
	if err := s.users.CreateWithIdentity(ctx, user, identity); err != nil {
		return "", false, fmt.Errorf("failed to create user and identity: %w", err)
	}
	return user.ID, true, nil
}

// displayName はIdPが名前を返さない場合にメールアドレスのローカル部を使う。
func displayName(info *OAuthUserInfo) string {
	if name := strings.TrimSpace(info.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(info.Email, "@")
	return local
}

func (s *Service) issueSession(ctx context.Context, userID string) (*model.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}
	now := s.now()
	session := &model.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("session ID is required")
	}
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	slog.Info("user logged out")
	return nil
}

// GetCurrentUser はセッションIDからログイン中のユーザーを返す。
// セッションがない・期限切れの場合はUnauthorized、ユーザーが退会済みの場合はUserNotFound。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// generateSessionID は256bitの乱数から16進のセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
