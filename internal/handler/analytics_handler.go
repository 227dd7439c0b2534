package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/powerfleet/internal/model"
)

// AnalyticsServiceInterface は集計ハンドラーが必要とするサービスインターフェース。
type AnalyticsServiceInterface interface {
	Dashboard(ctx context.Context) (*model.DashboardSummary, error)
	Efficiency(ctx context.Context) ([]model.EfficiencyReportEntry, error)
	Regional(ctx context.Context) ([]model.RegionTotal, error)
	Alerts(ctx context.Context) ([]model.MaintenanceAlert, error)
	Export(ctx context.Context, kind string) ([]byte, error)
}

// AnalyticsHandler はダッシュボード・分析・エクスポートのHTTPハンドラー。
type AnalyticsHandler struct {
	service AnalyticsServiceInterface
}

// NewAnalyticsHandler はAnalyticsHandlerを生成する。
func NewAnalyticsHandler(service AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Dashboard はダッシュボード集計を返す。
// GET /api/dashboard
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(summary))
}

// Efficiency は全発電所の効率分析を返す。
// GET /api/analytics/efficiency
func (h *AnalyticsHandler) Efficiency(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Efficiency(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]efficiencyEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = efficiencyEntryResponse{
			PlantID:        e.PlantID,
			PlantName:      e.PlantName,
			Type:           string(e.Type),
			Efficiency:     e.Efficiency,
			Status:         string(e.Status),
			Recommendation: e.Recommendation,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Regions は地域別の消費量合計を返す。
// GET /api/analytics/regions
func (h *AnalyticsHandler) Regions(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.Regional(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]regionTotalResponse, len(totals))
	for i, t := range totals {
		out[i] = regionTotalResponse{Region: t.Region, ConsumptionMWh: t.ConsumptionMWh}
	}
	writeJSON(w, http.StatusOK, out)
}

// Alerts は保守期限を超過した発電所の一覧を返す。
// GET /api/maintenance/alerts
func (h *AnalyticsHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Alerts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]maintenanceAlertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = maintenanceAlertResponse{
			PlantID:     a.PlantID,
			PlantName:   a.PlantName,
			Type:        string(a.Type),
			DaysOverdue: a.DaysOverdue,
			Priority:    string(a.Priority),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Export はCSVをダウンロードさせる。
// 未対応の種別でもエラーにせず、空のCSVを返す。
// GET /api/export/{kind}
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	body, err := h.service.Export(r.Context(), kind)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, exportFilename(kind)))
	writeBody(w, http.StatusOK, "text/csv; charset=utf-8", body)
}

// exportFilename はContent-Dispositionに埋め込めるファイル名を返す。
func exportFilename(kind string) string {
	for _, c := range kind {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return "export"
		}
	}
	if kind == "" {
		return "export"
	}
	return kind
}
