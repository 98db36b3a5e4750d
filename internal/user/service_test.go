package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/mindjournal/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFn(ctx, id)
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	return nil
}
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return m.deleteByUserIDFn(ctx, userID)
}

// --- テスト ---

// TestService_Withdraw はセッション削除の後にユーザーが削除されることを検証する。
func TestService_Withdraw(t *testing.T) {
	var calls []string

	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "test@example.com"}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			calls = append(calls, "user")
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			calls = append(calls, "sessions")
			return nil
		},
	}

	svc := NewService(userRepo, sessionRepo)

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if len(calls) != 2 || calls[0] != "sessions" || calls[1] != "user" {
		t.Errorf("calls = %v, want [sessions user]", calls)
	}
}

// TestService_Withdraw_UserNotFound は存在しないユーザーの退会がNotFoundになることを検証する。
func TestService_Withdraw_UserNotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}

	svc := NewService(userRepo, &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			t.Error("sessions must not be touched for unknown user")
			return nil
		},
	})

	err := svc.Withdraw(context.Background(), "nonexistent-user")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("err = %v, want USER_NOT_FOUND", err)
	}
}

// TestService_Withdraw_SessionDeleteFails はセッション削除失敗時にユーザーが残ることを検証する。
func TestService_Withdraw_SessionDeleteFails(t *testing.T) {
	userDeleted := false
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleted = true
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			return errors.New("connection reset")
		},
	}

	svc := NewService(userRepo, sessionRepo)

	if err := svc.Withdraw(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if userDeleted {
		t.Error("user deleted despite session deletion failure")
	}
}

// 認証済みユーザーIDがない呼び出しはリポジトリに触れずUnauthorized
func TestService_Withdraw_EmptyUserID(t *testing.T) {
	svc := NewService(&mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			t.Error("FindByID should not be called")
			return nil, nil
		},
	}, &mockSessionRepo{})

	err := svc.Withdraw(context.Background(), "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
}

// ユーザー削除の失敗は元のエラーを保ったまま返す
func TestService_Withdraw_UserDeleteFails(t *testing.T) {
	errDB := errors.New("foreign key violation")
	svc := NewService(&mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error { return errDB },
	}, &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error { return nil },
	})

	if err := svc.Withdraw(context.Background(), "user-1"); !errors.Is(err, errDB) {
		t.Errorf("err = %v, want wrapped %v", err, errDB)
	}
}
