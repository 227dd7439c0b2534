// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary はダッシュボードに表示する集計値。
type DashboardSummary struct {
	TotalCapacityMW  decimal.Decimal
	ActivePlantCount int
	TotalPlantCount  int
	PlantsByType     map[PlantType]int
	ConsumptionMWh   decimal.Decimal // 集計期間内の消費量合計
	EmissionsTons    decimal.Decimal // 集計期間内のCO2排出量合計
	WindowStart      time.Time
	WindowEnd        time.Time
}

// EfficiencyStatus は効率評価の区分を表す。
type EfficiencyStatus string

const (
	EfficiencyPoor      EfficiencyStatus = "Poor"
	EfficiencyAverage   EfficiencyStatus = "Average"
	EfficiencyGood      EfficiencyStatus = "Good"
	EfficiencyExcellent EfficiencyStatus = "Excellent"
)

// EfficiencyReportEntry は発電所1件分の効率評価結果。
type EfficiencyReportEntry struct {
	PlantID        int64
	PlantName      string
	Type           PlantType
	Efficiency     decimal.Decimal
	Status         EfficiencyStatus
	Recommendation string
}

// AlertPriority は保守アラートの優先度を表す。
type AlertPriority string

const (
	AlertPriorityMedium AlertPriority = "Medium"
	AlertPriorityHigh   AlertPriority = "High"
)

// MaintenanceAlert は保守期限を超過した発電所のアラート。
// リクエストごとに算出され、永続化されない。
type MaintenanceAlert struct {
	PlantID     int64
	PlantName   string
	Type        PlantType
	DaysOverdue int
	Priority    AlertPriority
}

// RegionTotal は地域ごとの消費量合計。
type RegionTotal struct {
	Region         string
	ConsumptionMWh decimal.Decimal
}
