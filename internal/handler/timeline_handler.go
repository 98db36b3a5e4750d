package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/timeline"
)

// TimelineServiceInterface は履歴ハンドラーが必要とするサービスインターフェース。
type TimelineServiceInterface interface {
	BuildFeed(ctx context.Context, userID string, q timeline.Query) (*timeline.Feed, error)
	Export(ctx context.Context, userID string, q timeline.Query) (*timeline.Snapshot, error)
}

// TimelineHandler は回答と練習記録を統合した履歴のHTTPハンドラー。
type TimelineHandler struct {
	service TimelineServiceInterface
}

// NewTimelineHandler はTimelineHandlerを生成する。
func NewTimelineHandler(service TimelineServiceInterface) *TimelineHandler {
	return &TimelineHandler{service: service}
}

// GetTimeline は履歴を新しい順に返す。
// GET /api/timeline?type=&search=
func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	feed, err := h.service.BuildFeed(r.Context(), userID, timelineQuery(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTimelineResponse(feed))
}

// ExportTimeline は絞り込み済みの履歴をJSONファイルとしてダウンロードさせる。
// GET /api/timeline/export?type=&search=
func (h *TimelineHandler) ExportTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.Export(r.Context(), userID, timelineQuery(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Disposition",
		`attachment; filename="`+timeline.ExportFilename(snapshot.ExportedAt)+`"`)
	writeJSON(w, http.StatusOK, toExportResponse(snapshot))
}

func timelineQuery(r *http.Request) timeline.Query {
	q := r.URL.Query()
	return timeline.Query{
		Type:   model.AnswerType(q.Get("type")),
		Search: q.Get("search"),
	}
}
