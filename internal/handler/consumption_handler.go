package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/powerfleet/internal/model"
)

// ConsumptionServiceInterface は消費レコードハンドラーが必要とするサービスインターフェース。
type ConsumptionServiceInterface interface {
	Record(ctx context.Context, rec *model.ConsumptionRecord) (int64, error)
	ListByPlant(ctx context.Context, plantID int64) ([]model.ConsumptionRecord, error)
}

// ConsumptionHandler は消費レコードのHTTPハンドラー。
type ConsumptionHandler struct {
	service ConsumptionServiceInterface
}

// NewConsumptionHandler はConsumptionHandlerを生成する。
func NewConsumptionHandler(service ConsumptionServiceInterface) *ConsumptionHandler {
	return &ConsumptionHandler{service: service}
}

// RecordConsumption は消費レコードを登録する。
// POST /api/consumption
func (h *ConsumptionHandler) RecordConsumption(w http.ResponseWriter, r *http.Request) {
	var req consumptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec := req.toModel()
	if _, err := h.service.Record(r.Context(), rec); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toConsumptionResponse(*rec))
}

// ListByPlant は発電所ごとの消費レコードを新しい順で返す。
// GET /api/plants/{id}/consumption
func (h *ConsumptionHandler) ListByPlant(w http.ResponseWriter, r *http.Request) {
	id, ok := plantIDParam(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListByPlant(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]consumptionResponse, len(records))
	for i, rec := range records {
		out[i] = toConsumptionResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}
