package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/powerfleet/internal/model"
)

// 数量はdecimalのJSON表現（文字列）で返し、浮動小数点の丸めを避ける。

// plantRequest は発電所の登録・更新リクエストのボディ。
// 日付を省略した場合はサービス層の既定値が使われる。
type plantRequest struct {
	Name                string          `json:"name"`
	Type                string          `json:"type"`
	CapacityMW          decimal.Decimal `json:"capacity_mw"`
	Location            string          `json:"location"`
	CommissionDate      time.Time       `json:"commission_date"`
	Status              string          `json:"status"`
	CurrentOutputMW     decimal.Decimal `json:"current_output_mw"`
	EfficiencyRating    decimal.Decimal `json:"efficiency_rating"`
	OperatorCompany     string          `json:"operator_company"`
	MaintenanceCost     decimal.Decimal `json:"maintenance_cost"`
	LastMaintenanceDate time.Time       `json:"last_maintenance_date"`
}

// toModel はリクエストを発電所モデルに変換する。
// 種別の妥当性はサービス層で検証するため、ここでは文字列のまま渡す。
func (req plantRequest) toModel(id int64) *model.PowerPlant {
	return &model.PowerPlant{
		ID:                  id,
		Name:                req.Name,
		Type:                model.PlantType(req.Type),
		CapacityMW:          req.CapacityMW,
		Location:            req.Location,
		CommissionDate:      req.CommissionDate,
		Status:              model.PlantStatus(req.Status),
		CurrentOutputMW:     req.CurrentOutputMW,
		EfficiencyRating:    req.EfficiencyRating,
		OperatorCompany:     req.OperatorCompany,
		MaintenanceCost:     req.MaintenanceCost,
		LastMaintenanceDate: req.LastMaintenanceDate,
	}
}

// plantResponse は発電所情報のAPIレスポンス。
type plantResponse struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Type                string          `json:"type"`
	CapacityMW          decimal.Decimal `json:"capacity_mw"`
	Location            string          `json:"location"`
	CommissionDate      time.Time       `json:"commission_date"`
	Status              string          `json:"status"`
	CurrentOutputMW     decimal.Decimal `json:"current_output_mw"`
	EfficiencyRating    decimal.Decimal `json:"efficiency_rating"`
	OperatorCompany     string          `json:"operator_company"`
	MaintenanceCost     decimal.Decimal `json:"maintenance_cost"`
	LastMaintenanceDate time.Time       `json:"last_maintenance_date"`
}

func toPlantResponse(p model.PowerPlant) plantResponse {
	return plantResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Type:                string(p.Type),
		CapacityMW:          p.CapacityMW,
		Location:            p.Location,
		CommissionDate:      p.CommissionDate,
		Status:              string(p.Status),
		CurrentOutputMW:     p.CurrentOutputMW,
		EfficiencyRating:    p.EfficiencyRating,
		OperatorCompany:     p.OperatorCompany,
		MaintenanceCost:     p.MaintenanceCost,
		LastMaintenanceDate: p.LastMaintenanceDate,
	}
}

func toPlantResponses(plants []model.PowerPlant) []plantResponse {
	out := make([]plantResponse, len(plants))
	for i, p := range plants {
		out[i] = toPlantResponse(p)
	}
	return out
}

// consumptionRequest は消費レコード登録リクエストのボディ。
type consumptionRequest struct {
	PowerPlantID        int64           `json:"power_plant_id"`
	RecordDate          time.Time       `json:"record_date"`
	ConsumptionMWh      decimal.Decimal `json:"consumption_mwh"`
	PeakDemandMW        decimal.Decimal `json:"peak_demand_mw"`
	Region              string          `json:"region"`
	CostPerMWh          decimal.Decimal `json:"cost_per_mwh"`
	ConsumerType        string          `json:"consumer_type"`
	CarbonEmissionsTons decimal.Decimal `json:"carbon_emissions_tons"`
}

func (req consumptionRequest) toModel() *model.ConsumptionRecord {
	return &model.ConsumptionRecord{
		PowerPlantID:        req.PowerPlantID,
		RecordDate:          req.RecordDate,
		ConsumptionMWh:      req.ConsumptionMWh,
		PeakDemandMW:        req.PeakDemandMW,
		Region:              req.Region,
		CostPerMWh:          req.CostPerMWh,
		ConsumerType:        model.ConsumerType(req.ConsumerType),
		CarbonEmissionsTons: req.CarbonEmissionsTons,
	}
}

// consumptionResponse は消費レコードのAPIレスポンス。
type consumptionResponse struct {
	ID                  int64           `json:"id"`
	PowerPlantID        int64           `json:"power_plant_id"`
	RecordDate          time.Time       `json:"record_date"`
	ConsumptionMWh      decimal.Decimal `json:"consumption_mwh"`
	PeakDemandMW        decimal.Decimal `json:"peak_demand_mw"`
	Region              string          `json:"region"`
	CostPerMWh          decimal.Decimal `json:"cost_per_mwh"`
	ConsumerType        string          `json:"consumer_type"`
	CarbonEmissionsTons decimal.Decimal `json:"carbon_emissions_tons"`
}

func toConsumptionResponse(rec model.ConsumptionRecord) consumptionResponse {
	return consumptionResponse{
		ID:                  rec.ID,
		PowerPlantID:        rec.PowerPlantID,
		RecordDate:          rec.RecordDate,
		ConsumptionMWh:      rec.ConsumptionMWh,
		PeakDemandMW:        rec.PeakDemandMW,
		Region:              rec.Region,
		CostPerMWh:          rec.CostPerMWh,
		ConsumerType:        string(rec.ConsumerType),
		CarbonEmissionsTons: rec.CarbonEmissionsTons,
	}
}

// dashboardResponse はダッシュボード集計のAPIレスポンス。
type dashboardResponse struct {
	TotalCapacityMW  decimal.Decimal `json:"total_capacity_mw"`
	ActivePlantCount int             `json:"active_plant_count"`
	TotalPlantCount  int             `json:"total_plant_count"`
	PlantsByType     map[string]int  `json:"plants_by_type"`
	ConsumptionMWh   decimal.Decimal `json:"consumption_mwh"`
	EmissionsTons    decimal.Decimal `json:"emissions_tons"`
	WindowStart      time.Time       `json:"window_start"`
	WindowEnd        time.Time       `json:"window_end"`
}

func toDashboardResponse(s *model.DashboardSummary) dashboardResponse {
	byType := make(map[string]int, len(s.PlantsByType))
	for t, n := range s.PlantsByType {
		byType[string(t)] = n
	}
	return dashboardResponse{
		TotalCapacityMW:  s.TotalCapacityMW,
		ActivePlantCount: s.ActivePlantCount,
		TotalPlantCount:  s.TotalPlantCount,
		PlantsByType:     byType,
		ConsumptionMWh:   s.ConsumptionMWh,
		EmissionsTons:    s.EmissionsTons,
		WindowStart:      s.WindowStart,
		WindowEnd:        s.WindowEnd,
	}
}

type efficiencyEntryResponse struct {
	PlantID        int64           `json:"plant_id"`
	PlantName      string          `json:"plant_name"`
	Type           string          `json:"type"`
	Efficiency     decimal.Decimal `json:"efficiency"`
	Status         string          `json:"status"`
	Recommendation string          `json:"recommendation"`
}

type regionTotalResponse struct {
	Region         string          `json:"region"`
	ConsumptionMWh decimal.Decimal `json:"consumption_mwh"`
}

type maintenanceAlertResponse struct {
	PlantID     int64  `json:"plant_id"`
	PlantName   string `json:"plant_name"`
	Type        string `json:"type"`
	DaysOverdue int    `json:"days_overdue"`
	Priority    string `json:"priority"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID          int64     `json:"id,omitempty"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	LastLoginAt time.Time `json:"last_login_at,omitzero"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
	}
}
