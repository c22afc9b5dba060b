package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/burnoutbuddy/internal/analytics"
	"github.com/hitoshi/burnoutbuddy/internal/middleware"
)

// MetricsReporter は成長指標を集計するインターフェース。
// analytics.Service が実装する。
type MetricsReporter interface {
	Report(ctx context.Context) (*analytics.Report, error)
}

// AdminHandler は管理者向けのHTTPハンドラー。
type AdminHandler struct {
	reporter MetricsReporter
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(reporter MetricsReporter) *AdminHandler {
	return &AdminHandler{reporter: reporter}
}

// Metrics はリテンション・コンバージョンと感情改善の指標を返す。
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Report(r.Context())
	if err != nil {
		slog.Error("failed to compute metrics", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
