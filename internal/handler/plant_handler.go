package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/powerfleet/internal/middleware"
	"github.com/hitoshi/powerfleet/internal/model"
)

// PlantServiceInterface は発電所ハンドラーが必要とするサービスインターフェース。
type PlantServiceInterface interface {
	List(ctx context.Context) ([]model.PowerPlant, error)
	Get(ctx context.Context, id int64) (*model.PowerPlant, error)
	Create(ctx context.Context, p *model.PowerPlant) (int64, error)
	Update(ctx context.Context, p *model.PowerPlant) error
	Delete(ctx context.Context, id int64) error
	ListByEfficiency(ctx context.Context, minEfficiency decimal.Decimal) ([]model.PowerPlant, error)
	CapacityByRegion(ctx context.Context, region string) (decimal.Decimal, error)
	Report(ctx context.Context, id int64) (string, error)
}

// PlantHandler は発電所管理のHTTPハンドラー。
type PlantHandler struct {
	service PlantServiceInterface
}

// NewPlantHandler はPlantHandlerを生成する。
func NewPlantHandler(service PlantServiceInterface) *PlantHandler {
	return &PlantHandler{service: service}
}

// ListPlants は発電所一覧を返す。
// min_efficiencyが指定された場合は効率の下限で絞り込み、効率の高い順に並べる。
// GET /api/plants
func (h *PlantHandler) ListPlants(w http.ResponseWriter, r *http.Request) {
	var (
		plants []model.PowerPlant
		err    error
	)

	if raw := r.URL.Query().Get("min_efficiency"); raw != "" {
		minEfficiency, parseErr := decimal.NewFromString(raw)
		if parseErr != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("min_efficiencyは数値で指定してください"))
			return
		}
		plants, err = h.service.ListByEfficiency(r.Context(), minEfficiency)
	} else {
		plants, err = h.service.List(r.Context())
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlantResponses(plants))
}

// GetPlant は発電所詳細を返す。
// GET /api/plants/{id}
func (h *PlantHandler) GetPlant(w http.ResponseWriter, r *http.Request) {
	id, ok := plantIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if p == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPlantNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, toPlantResponse(*p))
}

// CreatePlant は発電所を登録する。
// POST /api/plants
func (h *PlantHandler) CreatePlant(w http.ResponseWriter, r *http.Request) {
	var req plantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := req.toModel(0)
	if _, err := h.service.Create(r.Context(), p); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPlantResponse(*p))
}

// UpdatePlant は発電所を全項目上書きで更新する。
// PUT /api/plants/{id}
func (h *PlantHandler) UpdatePlant(w http.ResponseWriter, r *http.Request) {
	id, ok := plantIDParam(w, r)
	if !ok {
		return
	}

	var req plantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := req.toModel(id)
	if err := h.service.Update(r.Context(), p); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlantResponse(*p))
}

// DeletePlant は発電所を削除する。
// DELETE /api/plants/{id}
func (h *PlantHandler) DeletePlant(w http.ResponseWriter, r *http.Request) {
	id, ok := plantIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CapacityByRegion は所在地に地域名を含む発電所の定格出力合計を返す。
// GET /api/plants/capacity?region=
func (h *PlantHandler) CapacityByRegion(w http.ResponseWriter, r *http.Request) {
	region := strings.TrimSpace(r.URL.Query().Get("region"))
	if region == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("regionを指定してください"))
		return
	}

	total, err := h.service.CapacityByRegion(r.Context(), region)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"region":      region,
		"capacity_mw": total,
	})
}

// Report は発電所1件分のテキストレポートを返す。
// GET /api/plants/{id}/report
func (h *PlantHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := plantIDParam(w, r)
	if !ok {
		return
	}

	report, err := h.service.Report(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeBody(w, http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}
