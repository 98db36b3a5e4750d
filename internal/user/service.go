// Package user はアカウントの退会を扱う。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/repository"
)

// Service は退会処理のサービス。
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, sessions repository.SessionRepository) *Service {
	return &Service{users: users, sessions: sessions}
}

// Withdraw はアカウントを削除する。
// ログインセッションを先にすべて失効させ、その後でユーザーを消す。
// 回答・練習記録・タスク・ポモドーロ記録・設定・identityはusersからのCASCADEで消える。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	if userID == "" {
		return model.NewUnauthorizedError()
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if u == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	if err := s.users.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user withdrawn", slog.String("user_id", userID))
	return nil
}
