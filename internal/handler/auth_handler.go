// Package handler はJSON APIのHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/mindjournal/internal/middleware"
	"github.com/hitoshi/mindjournal/internal/model"
)

const (
	sessionCookieName = "session_id"
	oauthStateCookie  = "oauth_state"
	oauthStatePath    = "/auth/google"
	oauthStateMaxAge  = 10 * 60
)

// AuthServiceInterface はログインとセッション解決を行うサービス。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthHandlerConfig はCookieとリダイレクト先の設定。
// セッションCookieの有効期間はセッション自体の失効時刻から決まる。
type AuthHandlerConfig struct {
	BaseURL      string
	CookieDomain string
	CookieSecure bool
}

type meResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthHandler は/auth配下のハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
	now     func() time.Time
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{service: service, config: config, now: time.Now}
}

// Login はstateをCookieに置いてGoogleの認可画面へリダイレクトする。
// GET /auth/google/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := randomHex(16)
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	http.SetCookie(w, h.config.cookie(oauthStateCookie, state, oauthStatePath, oauthStateMaxAge))
	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusTemporaryRedirect)
}

// Callback は認可コードを交換し、セッションCookieを発行してフロントエンドへ戻す。
// GET /auth/google/callback?code=...&state=...
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !stateMatches(r, q.Get("state")) {
		slog.Warn("oauth state mismatch")
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(
			model.FieldError{Field: "state", Reason: "stateが一致しません"},
		))
		return
	}
	http.SetCookie(w, h.config.cookie(oauthStateCookie, "", oauthStatePath, -1))

	code := q.Get("code")
	if code == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(
			model.FieldError{Field: "code", Reason: "必須項目です"},
		))
		return
	}

	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, h.config.cookie(sessionCookieName, session.ID, "/", session.CookieMaxAge(h.now())))
	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// Logout はセッションを削除する。削除に失敗してもCookieは消して戻す。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id := sessionIDFromCookie(r); id != "" {
		if err := h.service.Logout(r.Context(), id); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
	}
	clearSessionCookie(w, h.config)
	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// Me はログイン中のユーザーを返す。
// セッションなしは401、退会済みユーザーのセッションは404。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := sessionIDFromCookie(r)
	if id == "" {
		middleware.WriteUnauthorized(w)
		return
	}
	user, err := h.service.GetCurrentUser(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

func sessionIDFromCookie(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func stateMatches(r *http.Request, state string) bool {
	c, err := r.Cookie(oauthStateCookie)
	if err != nil || c.Value == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) == 1
}

// cookie はHttpOnly・SameSite=LaxのCookieを組み立てる。maxAgeが負なら削除。
func (c AuthHandlerConfig) cookie(name, value, path string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func clearSessionCookie(w http.ResponseWriter, config AuthHandlerConfig) {
	http.SetCookie(w, config.cookie(sessionCookieName, "", "/", -1))
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
