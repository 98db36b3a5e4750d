package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/mindjournal/internal/journal"
	"github.com/hitoshi/mindjournal/internal/model"
)

// --- モック定義 ---

type mockAnswerService struct {
	createAnswerFn func(ctx context.Context, userID string, in journal.NewAnswer) (*model.Answer, error)
	listAnswersFn  func(ctx context.Context, userID string, filter model.AnswerFilter) ([]*model.Answer, error)
	updateAnswerFn func(ctx context.Context, userID, answerID string, patch model.AnswerPatch) (*model.Answer, error)
	deleteAnswerFn func(ctx context.Context, userID, answerID string) error
}

func (m *mockAnswerService) CreateAnswer(ctx context.Context, userID string, in journal.NewAnswer) (*model.Answer, error) {
	if m.createAnswerFn != nil {
		return m.createAnswerFn(ctx, userID, in)
	}
	return nil, nil
}

func (m *mockAnswerService) ListAnswers(ctx context.Context, userID string, filter model.AnswerFilter) ([]*model.Answer, error) {
	if m.listAnswersFn != nil {
		return m.listAnswersFn(ctx, userID, filter)
	}
	return []*model.Answer{}, nil
}

func (m *mockAnswerService) UpdateAnswer(ctx context.Context, userID, answerID string, patch model.AnswerPatch) (*model.Answer, error) {
	if m.updateAnswerFn != nil {
		return m.updateAnswerFn(ctx, userID, answerID, patch)
	}
	return nil, nil
}

func (m *mockAnswerService) DeleteAnswer(ctx context.Context, userID, answerID string) error {
	if m.deleteAnswerFn != nil {
		return m.deleteAnswerFn(ctx, userID, answerID)
	}
	return nil
}

func sampleAnswer() *model.Answer {
	now := time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)
	return &model.Answer{
		ID: validID, UserID: "user-123", Type: model.AnswerTypeMorning,
		Question1: strPtr("感謝"), Question2: strPtr("目標"), Question3: strPtr("気分"),
		CreatedAt: now, UpdatedAt: now,
	}
}

// --- GET /api/answers ---

// クエリパラメータがフィルタに変換されることを検証
func TestAnswerHandler_ListAnswers_PassesFilter(t *testing.T) {
	var got model.AnswerFilter
	svc := &mockAnswerService{
		listAnswersFn: func(ctx context.Context, userID string, filter model.AnswerFilter) ([]*model.Answer, error) {
			got = filter
			return []*model.Answer{sampleAnswer()}, nil
		},
	}
	h := NewAnswerHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/answers?type=morning&search=gratitude&limit=5&offset=10", nil), "user-123")
	w := httptest.NewRecorder()

	h.ListAnswers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	want := model.AnswerFilter{Type: model.AnswerTypeMorning, Search: "gratitude", Limit: 5, Offset: 10}
	if got != want {
		t.Errorf("filter = %+v, want %+v", got, want)
	}
	body := decodeBody[[]answerResponse](t, w)
	if len(body) != 1 || body[0].Question1 == nil || *body[0].Question1 != "感謝" {
		t.Errorf("body = %+v", body)
	}
}

func TestAnswerHandler_ListAnswers_InvalidLimit(t *testing.T) {
	h := NewAnswerHandler(&mockAnswerService{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/answers?limit=abc", nil), "user-123")
	w := httptest.NewRecorder()

	h.ListAnswers(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// 空の一覧はnullではなく空配列で返る
func TestAnswerHandler_ListAnswers_EmptyIsArray(t *testing.T) {
	h := NewAnswerHandler(&mockAnswerService{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/answers", nil), "user-123")
	w := httptest.NewRecorder()

	h.ListAnswers(w, req)

	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want []", got)
	}
}

// --- POST /api/answers ---

func TestAnswerHandler_CreateAnswer_Success(t *testing.T) {
	svc := &mockAnswerService{
		createAnswerFn: func(ctx context.Context, userID string, in journal.NewAnswer) (*model.Answer, error) {
			if in.Type != model.AnswerTypeMorning || in.Question1 == nil || *in.Question1 != "感謝" {
				t.Errorf("input = %+v", in)
			}
			return sampleAnswer(), nil
		},
	}
	h := NewAnswerHandler(svc)

	w := httptest.NewRecorder()
	h.CreateAnswer(w, jsonRequest(http.MethodPost, "/api/answers",
		`{"type":"morning","question_1":"感謝","question_2":"目標","question_3":"気分"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	body := decodeBody[answerResponse](t, w)
	if body.ID != validID || body.Type != "morning" {
		t.Errorf("body = %+v", body)
	}
}

// 検証エラーはフィールド詳細付きの400になる
func TestAnswerHandler_CreateAnswer_ValidationError(t *testing.T) {
	svc := &mockAnswerService{
		createAnswerFn: func(ctx context.Context, userID string, in journal.NewAnswer) (*model.Answer, error) {
			return nil, model.NewValidationError(model.FieldError{Field: "question_2", Reason: "必須項目です"})
		},
	}
	h := NewAnswerHandler(svc)

	w := httptest.NewRecorder()
	h.CreateAnswer(w, jsonRequest(http.MethodPost, "/api/answers", `{"type":"morning"}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if len(body.Fields) != 1 || body.Fields[0].Field != "question_2" {
		t.Errorf("fields = %+v", body.Fields)
	}
}

func TestAnswerHandler_CreateAnswer_NoUserID(t *testing.T) {
	h := NewAnswerHandler(&mockAnswerService{})

	w := httptest.NewRecorder()
	h.CreateAnswer(w, httptest.NewRequest(http.MethodPost, "/api/answers", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// --- PUT /api/answers/{id} ---

// 未指定キーとnullが区別されてサービスに渡ることを検証
func TestAnswerHandler_UpdateAnswer_PatchSemantics(t *testing.T) {
	svc := &mockAnswerService{
		updateAnswerFn: func(ctx context.Context, userID, answerID string, patch model.AnswerPatch) (*model.Answer, error) {
			if answerID != validID {
				t.Errorf("answerID = %q", answerID)
			}
			if !patch.Question1.HasValue() || patch.Question1.Value != "新しい感謝" {
				t.Errorf("question_1 = %+v", patch.Question1)
			}
			if patch.Question2.Set {
				t.Error("question_2 should be absent")
			}
			if !patch.Question3.Set || !patch.Question3.Null {
				t.Errorf("question_3 = %+v, want null", patch.Question3)
			}
			return sampleAnswer(), nil
		},
	}
	h := NewAnswerHandler(svc)

	req := jsonRequest(http.MethodPut, "/api/answers/"+validID, `{"question_1":"新しい感謝","question_3":null}`)
	req = withChiURLParam(req, "id", validID)
	w := httptest.NewRecorder()

	h.UpdateAnswer(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAnswerHandler_UpdateAnswer_NotFound(t *testing.T) {
	svc := &mockAnswerService{
		updateAnswerFn: func(ctx context.Context, userID, answerID string, patch model.AnswerPatch) (*model.Answer, error) {
			return nil, model.NewAnswerNotFoundError(answerID)
		},
	}
	h := NewAnswerHandler(svc)

	req := withChiURLParam(jsonRequest(http.MethodPut, "/api/answers/x", `{}`), "id", "x")
	w := httptest.NewRecorder()

	h.UpdateAnswer(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if body := parseAPIErrorResponse(t, w); body.Code != model.ErrCodeAnswerNotFound {
		t.Errorf("code = %q", body.Code)
	}
}

// --- DELETE /api/answers/{id} ---

func TestAnswerHandler_DeleteAnswer_Success(t *testing.T) {
	h := NewAnswerHandler(&mockAnswerService{})

	req := withChiURLParam(withUserID(httptest.NewRequest(http.MethodDelete, "/api/answers/"+validID, nil), "user-123"), "id", validID)
	w := httptest.NewRecorder()

	h.DeleteAnswer(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := decodeBody[successResponse](t, w); !body.Success {
		t.Error("success = false")
	}
}

func TestAnswerHandler_DeleteAnswer_StoreError(t *testing.T) {
	svc := &mockAnswerService{
		deleteAnswerFn: func(ctx context.Context, userID, answerID string) error {
			return errors.New("connection reset")
		},
	}
	h := NewAnswerHandler(svc)

	req := withChiURLParam(withUserID(httptest.NewRequest(http.MethodDelete, "/api/answers/x", nil), "user-123"), "id", "x")
	w := httptest.NewRecorder()

	h.DeleteAnswer(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
