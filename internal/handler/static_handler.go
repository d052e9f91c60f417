package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/calview/web"
)

// StaticHandler は埋め込み済みの静的ページを配信するハンドラー。
// ランディングページと認証後ページはいずれも静的なシェルで、
// 予定データは/api/eventsからクライアント側で取得する。
type StaticHandler struct{}

// NewStaticHandler はStaticHandlerを生成する。
func NewStaticHandler() *StaticHandler {
	return &StaticHandler{}
}

// Index はランディングページを配信する。
// GET /
func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "index.html")
}

// Events は認証後ページを配信する。
// GET /events （ページセッションミドルウェアの後ろに配置）
func (h *StaticHandler) Events(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "events.html")
}

func (h *StaticHandler) serve(w http.ResponseWriter, name string) {
	data, err := web.Pages.ReadFile(name)
	if err != nil {
		slog.Error("failed to read embedded page", slog.String("page", name), slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}
