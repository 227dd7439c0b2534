package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/powerfleet/internal/auth"
	"github.com/hitoshi/powerfleet/internal/middleware"
	"github.com/hitoshi/powerfleet/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	authenticateFn func(ctx context.Context, username, password string) (*model.User, error)
	registerFn     func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	issueFn        func(username, role string) (string, time.Time, error)
}

func (m *mockAuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, username, password)
	}
	return nil, nil
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &model.User{Username: in.Username, Role: model.DefaultRole}, nil
}

func (m *mockAuthService) IssueSessionToken(username, role string) (string, time.Time, error) {
	if m.issueFn != nil {
		return m.issueFn(username, role)
	}
	return "token-" + username, time.Now().Add(time.Hour), nil
}

type mockPlantService struct {
	listFn             func(ctx context.Context) ([]model.PowerPlant, error)
	getFn              func(ctx context.Context, id int64) (*model.PowerPlant, error)
	createFn           func(ctx context.Context, p *model.PowerPlant) (int64, error)
	updateFn           func(ctx context.Context, p *model.PowerPlant) error
	deleteFn           func(ctx context.Context, id int64) error
	listByEfficiencyFn func(ctx context.Context, minEfficiency decimal.Decimal) ([]model.PowerPlant, error)
	capacityFn         func(ctx context.Context, region string) (decimal.Decimal, error)
	reportFn           func(ctx context.Context, id int64) (string, error)
}

func (m *mockPlantService) List(ctx context.Context) ([]model.PowerPlant, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockPlantService) Get(ctx context.Context, id int64) (*model.PowerPlant, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPlantService) Create(ctx context.Context, p *model.PowerPlant) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	p.ID = 1
	return 1, nil
}

func (m *mockPlantService) Update(ctx context.Context, p *model.PowerPlant) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *mockPlantService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPlantService) ListByEfficiency(ctx context.Context, minEfficiency decimal.Decimal) ([]model.PowerPlant, error) {
	if m.listByEfficiencyFn != nil {
		return m.listByEfficiencyFn(ctx, minEfficiency)
	}
	return nil, nil
}

func (m *mockPlantService) CapacityByRegion(ctx context.Context, region string) (decimal.Decimal, error) {
	if m.capacityFn != nil {
		return m.capacityFn(ctx, region)
	}
	return decimal.Zero, nil
}

func (m *mockPlantService) Report(ctx context.Context, id int64) (string, error) {
	if m.reportFn != nil {
		return m.reportFn(ctx, id)
	}
	return "", nil
}

type mockConsumptionService struct {
	recordFn      func(ctx context.Context, rec *model.ConsumptionRecord) (int64, error)
	listByPlantFn func(ctx context.Context, plantID int64) ([]model.ConsumptionRecord, error)
}

func (m *mockConsumptionService) Record(ctx context.Context, rec *model.ConsumptionRecord) (int64, error) {
	if m.recordFn != nil {
		return m.recordFn(ctx, rec)
	}
	rec.ID = 1
	return 1, nil
}

func (m *mockConsumptionService) ListByPlant(ctx context.Context, plantID int64) ([]model.ConsumptionRecord, error) {
	if m.listByPlantFn != nil {
		return m.listByPlantFn(ctx, plantID)
	}
	return nil, nil
}

type mockAnalyticsService struct {
	dashboardFn  func(ctx context.Context) (*model.DashboardSummary, error)
	efficiencyFn func(ctx context.Context) ([]model.EfficiencyReportEntry, error)
	regionalFn   func(ctx context.Context) ([]model.RegionTotal, error)
	alertsFn     func(ctx context.Context) ([]model.MaintenanceAlert, error)
	exportFn     func(ctx context.Context, kind string) ([]byte, error)
}

func (m *mockAnalyticsService) Dashboard(ctx context.Context) (*model.DashboardSummary, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx)
	}
	return &model.DashboardSummary{}, nil
}

func (m *mockAnalyticsService) Efficiency(ctx context.Context) ([]model.EfficiencyReportEntry, error) {
	if m.efficiencyFn != nil {
		return m.efficiencyFn(ctx)
	}
	return nil, nil
}

func (m *mockAnalyticsService) Regional(ctx context.Context) ([]model.RegionTotal, error) {
	if m.regionalFn != nil {
		return m.regionalFn(ctx)
	}
	return nil, nil
}

func (m *mockAnalyticsService) Alerts(ctx context.Context) ([]model.MaintenanceAlert, error) {
	if m.alertsFn != nil {
		return m.alertsFn(ctx)
	}
	return nil, nil
}

func (m *mockAnalyticsService) Export(ctx context.Context, kind string) ([]byte, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, kind)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withPrincipal はテスト用にリクエストコンテキストに認証済みユーザーを注入するヘルパー。
func withPrincipal(r *http.Request, username, role string) *http.Request {
	ctx := middleware.ContextWithPrincipal(r.Context(), middleware.Principal{Username: username, Role: role})
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}
