package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/calview/internal/calendar"
	"github.com/hitoshi/calview/internal/middleware"
	"github.com/hitoshi/calview/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	// UpcomingEvents はユーザーの委任トークンで直近のイベントを取得する。
	// filterDateが空でない場合はその暦日のイベントに絞り込む。
	UpcomingEvents(ctx context.Context, accessToken, filterDate string) ([]calendar.Event, error)
}

// EventHandler はカレンダーイベントAPIのハンドラー。
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service}
}

// ListEvents はユーザーのカレンダーの直近イベントを返す。
// GET /api/events?date=YYYY-MM-DD
//
// dateが指定された場合はその暦日（ローカル時刻）のイベントのみを返す。
// 上流の取得失敗は500とし、詳細はログのみに記録する。
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeSimpleError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filterDate := r.URL.Query().Get("date")

	events, err := h.service.UpcomingEvents(r.Context(), user.AccessToken, filterDate)
	if err != nil {
		if errors.Is(err, model.ErrUpstreamFetch) {
			slog.Error("failed to fetch calendar events",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
			writeSimpleError(w, http.StatusInternalServerError, "Error fetching calendar events")
			return
		}

		// 上流エラー以外はリクエスト不正（日付パース失敗）として扱う
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(filterDate))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// writeSimpleError は {"error": "..."} 形式でエラーを書き込む。
// /api/eventsのエラーレスポンスはこの形式をクライアントが期待している。
func writeSimpleError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
