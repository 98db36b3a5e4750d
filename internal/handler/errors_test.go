package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/mindjournal/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *model.APIError
		want int
	}{
		{"validation", model.NewValidationError(), http.StatusBadRequest},
		{"invalid request", model.NewInvalidRequestError(), http.StatusBadRequest},
		{"invalid filter", model.NewInvalidFilterError("type", "noon"), http.StatusBadRequest},
		{"answer not found", model.NewAnswerNotFoundError("x"), http.StatusNotFound},
		{"practice not found", model.NewPracticeNotFoundError("x"), http.StatusNotFound},
		{"todo not found", model.NewTodoNotFoundError("x"), http.StatusNotFound},
		{"user not found", model.NewUserNotFoundError(), http.StatusNotFound},
		{"unauthorized", model.NewUnauthorizedError(), http.StatusUnauthorized},
		{"csrf", model.NewCSRFError(), http.StatusForbidden},
		{"rate limited", model.NewRateLimitedError(), http.StatusTooManyRequests},
		{"upstream", model.NewUpstreamFailureError("exchange"), http.StatusBadGateway},
		{"internal", model.NewInternalError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

// 壊れたJSONはINVALID_REQUESTになることを検証
func TestDecodeJSON_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	var dst map[string]any
	if decodeJSON(w, req, &dst) {
		t.Fatal("decodeJSON = true, want false")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if body := parseAPIErrorResponse(t, w); body.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidRequest)
	}
}

// 空ボディは空オブジェクトとして扱う
func TestDecodeJSON_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/settings", http.NoBody)
	w := httptest.NewRecorder()

	var dst model.SettingsPatch
	if !decodeJSON(w, req, &dst) {
		t.Fatal("decodeJSON = false, want true")
	}
	if dst.Theme.Set {
		t.Error("theme should be absent")
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/answers?limit=10&offset=-1&bad=abc", nil)

	if n, err := queryInt(req, "limit"); err != nil || n != 10 {
		t.Errorf("limit = %d, %v; want 10", n, err)
	}
	if n, err := queryInt(req, "missing"); err != nil || n != 0 {
		t.Errorf("missing = %d, %v; want 0", n, err)
	}
	if _, err := queryInt(req, "offset"); err == nil {
		t.Error("negative offset should be rejected")
	}
	if _, err := queryInt(req, "bad"); err == nil {
		t.Error("non-numeric value should be rejected")
	}
}

func TestQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/todos?completed=true&x=maybe", nil)

	b, err := queryBool(req, "completed")
	if err != nil || b == nil || !*b {
		t.Errorf("completed = %v, %v; want true", b, err)
	}
	if b, err := queryBool(req, "missing"); err != nil || b != nil {
		t.Errorf("missing = %v, %v; want nil", b, err)
	}
	if _, err := queryBool(req, "x"); err == nil {
		t.Error("invalid bool should be rejected")
	}
}
