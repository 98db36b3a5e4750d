package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/mindjournal/internal/model"
)

// csrf_tokenはフロントエンドがJavaScriptで読んでヘッダーに載せるため、HttpOnlyにしない。
const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfTokenBytes = 32
)

// defaultCSRFMaxAge はCSRFトークンCookieの既定有効期間（秒）。
const defaultCSRFMaxAge = 24 * 60 * 60

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
	MaxAge       int // 0以下の場合は24時間
}

// cookie はtokenを載せたCSRF Cookieを組み立てる。
func (c CSRFConfig) cookie(token string) *http.Cookie {
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCSRFMaxAge
	}
	return &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.CookieDomain,
		MaxAge:   maxAge,
		Secure:   c.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// issue はリクエストに有効なトークンCookieがあればそれを返し、なければ新規発行してSet-Cookieする。
func (c CSRFConfig) issue(w http.ResponseWriter, r *http.Request) (string, error) {
	if token := cookieToken(r); token != "" {
		return token, nil
	}
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	http.SetCookie(w, c.cookie(token))
	return token, nil
}

func cookieToken(r *http.Request) string {
	if cookie, err := r.Cookie(csrfCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// NewCSRFMiddleware はダブルサブミットCookie方式のCSRF対策ミドルウェアを返す。
// 安全なメソッドは検証せずにトークンCookieだけを用意する。
// 更新系メソッドはCookieとX-CSRF-Tokenヘッダーの一致を必須とし、不一致は403。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				if _, err := config.issue(w, r); err != nil {
					slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
				}
				next.ServeHTTP(w, r)
				return
			}

			if reason := checkCSRFToken(r); reason != "" {
				slog.Warn("CSRF validation failed",
					slog.String("reason", reason),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewCSRFError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkCSRFToken は検証に失敗した理由を返す。成功時は空文字。
func checkCSRFToken(r *http.Request) string {
	fromCookie := cookieToken(r)
	if fromCookie == "" {
		return "missing cookie token"
	}
	fromHeader := r.Header.Get(csrfHeaderName)
	if fromHeader == "" {
		return "missing header token"
	}
	if subtle.ConstantTimeCompare([]byte(fromCookie), []byte(fromHeader)) != 1 {
		return "token mismatch"
	}
	return ""
}

// NewCSRFTokenHandler はGET /api/csrf-tokenのハンドラーを返す。
// レスポンスは {"token": "..."} で、既存Cookieがあれば同じ値を返す。
func NewCSRFTokenHandler(config CSRFConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := config.issue(w, r)
		if err != nil {
			slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
			WriteInternalServerError(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
