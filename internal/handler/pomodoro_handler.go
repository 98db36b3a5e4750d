package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/pomodoro"
)

// PomodoroServiceInterface はポモドーロハンドラーが必要とするサービスインターフェース。
type PomodoroServiceInterface interface {
	CreateSession(ctx context.Context, userID string, in pomodoro.NewSession) (*model.PomodoroSession, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]*model.PomodoroSession, error)
	Stats(ctx context.Context, userID string) (*model.PomodoroStats, error)
}

// PomodoroHandler はポモドーロセッション履歴のHTTPハンドラー。
type PomodoroHandler struct {
	service PomodoroServiceInterface
}

// NewPomodoroHandler はPomodoroHandlerを生成する。
func NewPomodoroHandler(service PomodoroServiceInterface) *PomodoroHandler {
	return &PomodoroHandler{service: service}
}

// ListSessions はセッション履歴を返す。
// GET /api/pomodoro-sessions?limit=
func (h *PomodoroHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = toSessionResponse(s)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateSession は完了したセッションを記録する。
// workセッションにtask_idがあればタスクの完了数を加算する。
// POST /api/pomodoro-sessions
func (h *PomodoroHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req pomodoro.NewSession
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.CreateSession(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Stats はセッション統計を返す。
// GET /api/pomodoro-sessions/stats
func (h *PomodoroHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		CompletedToday:    stats.CompletedToday,
		TotalSessions:     stats.TotalSessions,
		TotalFocusMinutes: stats.TotalFocusMinutes,
	})
}
