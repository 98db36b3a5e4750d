package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mindjournal/internal/journal"
	"github.com/hitoshi/mindjournal/internal/model"
)

// AnswerServiceInterface は回答ハンドラーが必要とするサービスインターフェース。
type AnswerServiceInterface interface {
	CreateAnswer(ctx context.Context, userID string, in journal.NewAnswer) (*model.Answer, error)
	ListAnswers(ctx context.Context, userID string, filter model.AnswerFilter) ([]*model.Answer, error)
	UpdateAnswer(ctx context.Context, userID, answerID string, patch model.AnswerPatch) (*model.Answer, error)
	DeleteAnswer(ctx context.Context, userID, answerID string) error
}

// AnswerHandler は朝・夜の振り返りのHTTPハンドラー。
type AnswerHandler struct {
	service AnswerServiceInterface
}

// NewAnswerHandler はAnswerHandlerを生成する。
func NewAnswerHandler(service AnswerServiceInterface) *AnswerHandler {
	return &AnswerHandler{service: service}
}

// ListAnswers は回答一覧を返す。
// GET /api/answers?type=&search=&limit=&offset=
func (h *AnswerHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		handleServiceError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	q := r.URL.Query()
	answers, err := h.service.ListAnswers(r.Context(), userID, model.AnswerFilter{
		Type:   model.AnswerType(q.Get("type")),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAnswerResponses(answers))
}

// CreateAnswer は回答を作成する。
// POST /api/answers
func (h *AnswerHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req journal.NewAnswer
	if !decodeJSON(w, r, &req) {
		return
	}

	answer, err := h.service.CreateAnswer(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAnswerResponse(answer))
}

// UpdateAnswer は回答を部分更新する。
// PUT /api/answers/{id}
func (h *AnswerHandler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var patch model.AnswerPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	answer, err := h.service.UpdateAnswer(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAnswerResponse(answer))
}

// DeleteAnswer は回答を削除する。
// DELETE /api/answers/{id}
func (h *AnswerHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAnswer(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}
