// Package apiclient はMindJournal APIのHTTPクライアントを提供する。
// timerサブコマンドが完了したポモドーロセッションを記録するために使う。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/pomodoro"
)

const (
	sessionCookieName = "session_id"
	csrfHeaderName    = "X-CSRF-Token"
	userAgent         = "MindJournal-Timer/1.0"

	// maxErrorBodyBytes はエラーレスポンスとして読み取る最大サイズ。
	maxErrorBodyBytes = 64 << 10
)

// Config はClientの接続設定。
type Config struct {
	BaseURL      string
	SessionToken string
	Timeout      time.Duration
}

// Client はセッションCookieとCSRFトークンを保持するAPIクライアント。
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *slog.Logger

	mu        sync.Mutex
	csrfToken string
}

// New はClientを生成する。セッショントークンはCookieJarに登録する。
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.SessionToken == "" {
		return nil, errors.New("session token is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	jar.SetCookies(base, []*http.Cookie{{
		Name:  sessionCookieName,
		Value: cfg.SessionToken,
		Path:  "/",
	}})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
		baseURL:    base,
		logger:     logger,
	}, nil
}

type createSessionRequest struct {
	Type            model.SessionType `json:"type"`
	DurationMinutes int               `json:"duration_minutes"`
	TaskID          *string           `json:"task_id,omitempty"`
}

type csrfTokenResponse struct {
	Token string `json:"token"`
}

type statsResponse struct {
	CompletedToday    int `json:"completed_today"`
	TotalSessions     int `json:"total_sessions"`
	TotalFocusMinutes int `json:"total_focus_minutes"`
}

type errorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Fields   []struct {
		Field  string `json:"field"`
		Reason string `json:"reason"`
	} `json:"fields"`
}

// RecordSession は完了したセッションをPOST /api/pomodoro-sessionsで記録する。
// CSRFトークンが失効していた場合は1回だけ取り直して再送する。
func (c *Client) RecordSession(ctx context.Context, s pomodoro.CompletedSession) error {
	body, err := json.Marshal(createSessionRequest{
		Type:            s.Type,
		DurationMinutes: s.DurationMinutes,
		TaskID:          s.TaskID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	err = c.postWithCSRF(ctx, "/api/pomodoro-sessions", body)
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeCSRFInvalid {
		c.logger.Info("CSRF token rejected, refreshing")
		c.setCSRFToken("")
		err = c.postWithCSRF(ctx, "/api/pomodoro-sessions", body)
	}
	if err != nil {
		return err
	}

	c.logger.Info("pomodoro session recorded",
		slog.String("type", string(s.Type)),
		slog.Int("duration_minutes", s.DurationMinutes),
	)
	return nil
}

// Stats はGET /api/pomodoro-sessions/statsの集計値を返す。
func (c *Client) Stats(ctx context.Context) (*model.PomodoroStats, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/pomodoro-sessions/stats", nil)
	if err != nil {
		return nil, err
	}

	var out statsResponse
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &model.PomodoroStats{
		CompletedToday:    out.CompletedToday,
		TotalSessions:     out.TotalSessions,
		TotalFocusMinutes: out.TotalFocusMinutes,
	}, nil
}

func (c *Client) postWithCSRF(ctx context.Context, path string, body []byte) error {
	token, err := c.ensureCSRFToken(ctx)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(csrfHeaderName, token)

	return c.do(req, http.StatusCreated, nil)
}

// ensureCSRFToken はキャッシュ済みのトークンを返す。未取得なら取得する。
// トークンと同じ値のCookieはJarが保持する。
func (c *Client) ensureCSRFToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/csrf-token", nil)
	if err != nil {
		return "", err
	}
	var out csrfTokenResponse
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return "", fmt.Errorf("failed to fetch CSRF token: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("API returned an empty CSRF token")
	}

	c.setCSRFToken(out.Token)
	return out.Token, nil
}

func (c *Client) setCSRFToken(token string) {
	c.mu.Lock()
	c.csrfToken = token
	c.mu.Unlock()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do はリクエストを実行し、wantStatus以外は*model.APIErrorを含むエラーとして返す。
func (c *Client) do(req *http.Request, wantStatus int, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("API request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		apiErr := decodeError(resp)
		c.logger.Warn("API returned error status",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		return fmt.Errorf("%s %s returned status %d: %w", req.Method, req.URL.Path, resp.StatusCode, apiErr)
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// decodeError は統一エラーフォーマットのレスポンスをAPIErrorに変換する。
// JSONでない場合はステータスのみを元にsystemエラーとする。
func decodeError(resp *http.Response) *model.APIError {
	var body errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err := json.Unmarshal(raw, &body); err != nil || body.Code == "" {
		return &model.APIError{
			Code:     model.ErrCodeInternal,
			Message:  http.StatusText(resp.StatusCode),
			Category: model.CategorySystem,
		}
	}

	apiErr := &model.APIError{
		Code:     body.Code,
		Message:  body.Message,
		Category: body.Category,
		Action:   body.Action,
	}
	for _, f := range body.Fields {
		apiErr.Fields = append(apiErr.Fields, model.FieldError{Field: f.Field, Reason: f.Reason})
	}
	return apiErr
}

// compile-time interface check
var _ pomodoro.SessionRecorder = (*Client)(nil)
