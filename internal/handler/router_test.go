package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mindjournal/internal/model"
)

// 認証ルートのメソッドとパスの対応
func TestMountAuthRoutes(t *testing.T) {
	svc := &mockAuthService{
		getLoginURLFn: func(state string) string { return "https://accounts.google.com/o/oauth2/auth?state=" + state },
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			return &model.Session{ID: "s-1", UserID: "u-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
		logoutFn: func(ctx context.Context, sessionID string) error { return nil },
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			return &model.User{ID: "u-1", Email: "me@example.com", Name: "Me"}, nil
		},
	}
	r := chi.NewRouter()
	mountAuthRoutes(r, NewAuthHandler(svc, AuthHandlerConfig{BaseURL: "http://localhost:3000"}))

	tests := []struct {
		method, path string
		cookies      []*http.Cookie
		want         int
	}{
		{http.MethodGet, "/auth/google/login", nil, http.StatusTemporaryRedirect},
		{http.MethodGet, "/auth/google/callback?code=c&state=st", []*http.Cookie{{Name: "oauth_state", Value: "st"}}, http.StatusTemporaryRedirect},
		{http.MethodPost, "/auth/logout", []*http.Cookie{{Name: "session_id", Value: "s-1"}}, http.StatusTemporaryRedirect},
		{http.MethodGet, "/auth/me", []*http.Cookie{{Name: "session_id", Value: "s-1"}}, http.StatusOK},
		{http.MethodGet, "/auth/logout", nil, http.StatusMethodNotAllowed},
		{http.MethodGet, "/auth/unknown", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		for _, c := range tt.cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.want)
		}
	}
}
