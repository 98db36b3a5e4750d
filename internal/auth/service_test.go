package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn           func(ctx context.Context, id string) (*model.User, error)
	createWithIdentityFn func(ctx context.Context, user *model.User, identity *model.Identity) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	if m.createWithIdentityFn != nil {
		return m.createWithIdentityFn(ctx, user, identity)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(_ context.Context, _ string) error {
	return nil
}

type mockIdentityRepo struct {
	findByProviderFn func(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

func (m *mockIdentityRepo) FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
	if m.findByProviderFn != nil {
		return m.findByProviderFn(ctx, provider, providerUserID)
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

type mockOAuthProvider struct {
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*OAuthUserInfo, error)
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return nil, nil
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.IdentityRepository = (*mockIdentityRepo)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)
var _ OAuthProvider = (*mockOAuthProvider)(nil)

// --- テスト ---

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// newTestService は時刻とIDを固定したServiceを返す。
func newTestService(p OAuthProvider, users *mockUserRepo, idents *mockIdentityRepo, sessions *mockSessionRepo) *Service {
	svc := NewService(p, users, idents, sessions, ServiceConfig{SessionTTL: 24 * time.Hour})
	svc.now = func() time.Time { return fixedNow }
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc
}

func googleUser(name string) *mockOAuthProvider {
	return &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return &OAuthUserInfo{
				ProviderUserID: "google-user-123",
				Email:          "writer@example.com",
				Name:           name,
				Provider:       "google",
			}, nil
		},
	}
}

func TestNewService_DefaultSessionTTL(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, ServiceConfig{})
	if svc.sessionTTL != DefaultSessionTTL {
		t.Errorf("sessionTTL = %v, want %v", svc.sessionTTL, DefaultSessionTTL)
	}
}

func TestGetLoginURL_ReturnsOAuthURL(t *testing.T) {
	provider := &mockOAuthProvider{
		getLoginURLFn: func(state string) string {
			return "https://accounts.google.com/o/oauth2/auth?state=" + state
		},
	}
	svc := newTestService(provider, nil, nil, nil)

	want := "https://accounts.google.com/o/oauth2/auth?state=test-state"
	if got := svc.GetLoginURL("test-state"); got != want {
		t.Errorf("GetLoginURL() = %q, want %q", got, want)
	}
}

// 初回ログインでユーザーとidentityを作成し、有効期間付きのセッションを発行する
func TestHandleCallback_NewUser_CreatesUserAndIdentityAndSession(t *testing.T) {
	var createdUser *model.User
	var createdIdentity *model.Identity
	var createdSession *model.Session

	users := &mockUserRepo{
		createWithIdentityFn: func(ctx context.Context, user *model.User, identity *model.Identity) error {
			createdUser, createdIdentity = user, identity
			return nil
		},
	}
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}
	svc := newTestService(googleUser("Test User"), users, &mockIdentityRepo{}, sessions)

	session, err := svc.HandleCallback(context.Background(), "auth-code-123")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if createdUser == nil || createdIdentity == nil {
		t.Fatal("expected user and identity to be created")
	}
	if createdUser.ID != "id-1" || createdUser.Email != "writer@example.com" || createdUser.Name != "Test User" {
		t.Errorf("user = %+v", createdUser)
	}
	if createdIdentity.UserID != createdUser.ID || createdIdentity.Provider != "google" || createdIdentity.ProviderUserID != "google-user-123" {
		t.Errorf("identity = %+v", createdIdentity)
	}
	if createdSession == nil || session.UserID != createdUser.ID {
		t.Fatalf("session = %+v, want session for new user", session)
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64", len(session.ID))
	}
	if !session.ExpiresAt.Equal(fixedNow.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want now+24h", session.ExpiresAt)
	}
}

// IdPが名前を返さない場合はメールアドレスのローカル部を表示名にする
func TestHandleCallback_NewUserWithoutName_UsesEmailLocalPart(t *testing.T) {
	var createdUser *model.User
	users := &mockUserRepo{
		createWithIdentityFn: func(ctx context.Context, user *model.User, identity *model.Identity) error {
			createdUser = user
			return nil
		},
	}
	svc := newTestService(googleUser("  "), users, &mockIdentityRepo{}, &mockSessionRepo{})

	if _, err := svc.HandleCallback(context.Background(), "code"); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if createdUser.Name != "writer" {
		t.Errorf("Name = %q, want writer", createdUser.Name)
	}
}

func TestHandleCallback_ExistingUser_LogsInAndCreatesSession(t *testing.T) {
	existingUserID := "existing-user-id-456"

	users := &mockUserRepo{
		createWithIdentityFn: func(ctx context.Context, user *model.User, identity *model.Identity) error {
			t.Error("CreateWithIdentity must not be called for an existing identity")
			return nil
		},
	}
	idents := &mockIdentityRepo{
		findByProviderFn: func(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
			if provider != "google" || providerUserID != "google-user-123" {
				t.Errorf("lookup = (%q, %q)", provider, providerUserID)
			}
			return &model.Identity{ID: "identity-id-1", UserID: existingUserID, Provider: provider, ProviderUserID: providerUserID}, nil
		},
	}
	svc := newTestService(googleUser("Existing User"), users, idents, &mockSessionRepo{})

	session, err := svc.HandleCallback(context.Background(), "auth-code-existing")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if session.UserID != existingUserID {
		t.Errorf("session userID = %q, want %q", session.UserID, existingUserID)
	}
}

// IdP側の失敗はUpstreamFailureとなり、何も書き込まない
func TestHandleCallback_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name string
		info *OAuthUserInfo
		err  error
	}{
		{"exchange error", nil, errors.New("oauth exchange failed")},
		{"no user info", nil, nil},
		{"empty subject", &OAuthUserInfo{Provider: "google", Email: "x@example.com"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockOAuthProvider{
				exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
					return tt.info, tt.err
				},
			}
			sessions := &mockSessionRepo{
				createFn: func(ctx context.Context, session *model.Session) error {
					t.Error("session must not be created")
					return nil
				},
			}
			svc := newTestService(provider, &mockUserRepo{}, &mockIdentityRepo{}, sessions)

			_, err := svc.HandleCallback(context.Background(), "bad-code")
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUpstreamFailure {
				t.Fatalf("err = %v, want UPSTREAM_FAILURE", err)
			}
		})
	}
}

func TestHandleCallback_RepositoryErrors(t *testing.T) {
	dbErr := errors.New("db error")
	tests := []struct {
		name     string
		users    *mockUserRepo
		idents   *mockIdentityRepo
		sessions *mockSessionRepo
	}{
		{
			name: "identity lookup",
			idents: &mockIdentityRepo{findByProviderFn: func(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
				return nil, dbErr
			}},
		},
		{
			name: "user creation",
			users: &mockUserRepo{createWithIdentityFn: func(ctx context.Context, user *model.User, identity *model.Identity) error {
				return dbErr
			}},
		},
		{
			name: "session save",
			sessions: &mockSessionRepo{createFn: func(ctx context.Context, session *model.Session) error {
				return dbErr
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, idents, sessions := tt.users, tt.idents, tt.sessions
			if users == nil {
				users = &mockUserRepo{}
			}
			if idents == nil {
				idents = &mockIdentityRepo{}
			}
			if sessions == nil {
				sessions = &mockSessionRepo{}
			}
			svc := newTestService(googleUser("Err"), users, idents, sessions)

			_, err := svc.HandleCallback(context.Background(), "code")
			if !errors.Is(err, dbErr) {
				t.Errorf("err = %v, want wrapped db error", err)
			}
		})
	}
}

func TestLogout_DeletesSession(t *testing.T) {
	var deleted string
	sessions := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestService(nil, nil, nil, sessions)

	if err := svc.Logout(context.Background(), "session-to-delete"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if deleted != "session-to-delete" {
		t.Errorf("deleted session ID = %q, want session-to-delete", deleted)
	}
}

func TestLogout_EmptySessionID_ReturnsError(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)
	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty session ID")
	}
}

func TestGetCurrentUser_ValidSession_ReturnsUser(t *testing.T) {
	userID := "user-id-123"
	sessions := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: userID, ExpiresAt: fixedNow.Add(time.Hour)}, nil
		},
	}
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "user@example.com", Name: "Test User"}, nil
		},
	}
	svc := newTestService(nil, users, nil, sessions)

	user, err := svc.GetCurrentUser(context.Background(), "session-valid")
	if err != nil {
		t.Fatalf("GetCurrentUser() error = %v", err)
	}
	if user.ID != userID {
		t.Errorf("user ID = %q, want %q", user.ID, userID)
	}
}

// セッションの有無とユーザーの有無でエラーコードが分かれる
func TestGetCurrentUser_ErrorCodes(t *testing.T) {
	liveSession := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "gone-user"}, nil
		},
	}
	tests := []struct {
		name      string
		sessionID string
		sessions  *mockSessionRepo
		wantCode  string
	}{
		{"empty session id", "", &mockSessionRepo{}, model.ErrCodeUnauthorized},
		{"expired session", "expired", &mockSessionRepo{}, model.ErrCodeUnauthorized},
		{"withdrawn user", "live", liveSession, model.ErrCodeUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil, &mockUserRepo{}, nil, tt.sessions)

			_, err := svc.GetCurrentUser(context.Background(), tt.sessionID)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != tt.wantCode {
				t.Errorf("err = %v, want %s", err, tt.wantCode)
			}
		})
	}
}
