package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/practice"
)

// PracticeServiceInterface は練習記録ハンドラーが必要とするサービスインターフェース。
type PracticeServiceInterface interface {
	CreatePractice(ctx context.Context, userID string, in practice.NewPractice) (*model.Practice, error)
	ListPractices(ctx context.Context, userID string, limit int) ([]*model.Practice, error)
	DeletePractice(ctx context.Context, userID, practiceID string) error
}

// PracticeHandler は呼吸法の練習記録のHTTPハンドラー。
type PracticeHandler struct {
	service PracticeServiceInterface
}

// NewPracticeHandler はPracticeHandlerを生成する。
func NewPracticeHandler(service PracticeServiceInterface) *PracticeHandler {
	return &PracticeHandler{service: service}
}

// ListPractices は練習記録を新しい順に返す。
// GET /api/practices?limit=
func (h *PracticeHandler) ListPractices(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	practices, err := h.service.ListPractices(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPracticeResponses(practices))
}

// CreatePractice は練習記録を作成する。
// POST /api/practices
func (h *PracticeHandler) CreatePractice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req practice.NewPractice
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.CreatePractice(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPracticeResponse(p))
}

// DeletePractice は練習記録を削除する。
// DELETE /api/practices/{id}
func (h *PracticeHandler) DeletePractice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePractice(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}
