package analytics

import (
	"time"

	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/shopspring/decimal"
)

// 効率評価のしきい値
var (
	poorBelow      = decimal.RequireFromString("0.60")
	averageBelow   = decimal.RequireFromString("0.80")
	excellentAbove = decimal.RequireFromString("0.95")
	coalCleanBelow = decimal.RequireFromString("0.85")
)

// 効率改善の推奨文言
const (
	RecommendOverhaul    = "Consider major overhaul or replacement"
	RecommendMaintenance = "Schedule maintenance and efficiency upgrades"
	RecommendCleanerFuel = "Consider conversion to cleaner fuel source"
	RecommendOptimal     = "Operating at optimal efficiency"
)

// Summarize はダッシュボードの集計値を算出する。
// recordsは呼び出し側で集計期間に絞り込まれている前提。windowStart/windowEndは結果にそのまま載せる。
func Summarize(plants []model.PowerPlant, records []model.ConsumptionRecord, windowStart, windowEnd time.Time) model.DashboardSummary {
	summary := model.DashboardSummary{
		TotalCapacityMW: decimal.Zero,
		PlantsByType:    make(map[model.PlantType]int),
		ConsumptionMWh:  decimal.Zero,
		EmissionsTons:   decimal.Zero,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
	}

	for _, p := range plants {
		summary.TotalCapacityMW = summary.TotalCapacityMW.Add(p.CapacityMW)
		if p.Status == model.PlantStatusActive {
			summary.ActivePlantCount++
		}
		summary.PlantsByType[p.Type]++
	}
	summary.TotalPlantCount = len(plants)

	for _, r := range records {
		summary.ConsumptionMWh = summary.ConsumptionMWh.Add(r.ConsumptionMWh)
		summary.EmissionsTons = summary.EmissionsTons.Add(r.CarbonEmissionsTons)
	}

	return summary
}

// ClassifyEfficiency は効率値を4段階に分類する。
// 判定順は Poor → Average → Excellent → Good で、0.95ちょうどはGoodになる。
func ClassifyEfficiency(e decimal.Decimal) model.EfficiencyStatus {
	switch {
	case e.LessThan(poorBelow):
		return model.EfficiencyPoor
	case e.LessThan(averageBelow):
		return model.EfficiencyAverage
	case e.GreaterThan(excellentAbove):
		return model.EfficiencyExcellent
	default:
		return model.EfficiencyGood
	}
}

// Recommend は効率値と種別から推奨対応を返す。
func Recommend(pt model.PlantType, e decimal.Decimal) string {
	switch {
	case e.LessThan(poorBelow):
		return RecommendOverhaul
	case e.LessThan(averageBelow):
		return RecommendMaintenance
	case pt == model.PlantTypeCoal && e.LessThan(coalCleanBelow):
		return RecommendCleanerFuel
	default:
		return RecommendOptimal
	}
}

// AnalyzeEfficiency は発電所ごとの効率評価を入力順で返す。
func AnalyzeEfficiency(plants []model.PowerPlant) []model.EfficiencyReportEntry {
	entries := make([]model.EfficiencyReportEntry, 0, len(plants))
	for _, p := range plants {
		entries = append(entries, model.EfficiencyReportEntry{
			PlantID:        p.ID,
			PlantName:      p.Name,
			Type:           p.Type,
			Efficiency:     p.EfficiencyRating,
			Status:         ClassifyEfficiency(p.EfficiencyRating),
			Recommendation: Recommend(p.Type, p.EfficiencyRating),
		})
	}
	return entries
}

// RegionalTotals は地域別消費量をregionsの順で返す。
// regionsに含まれない地域は捨て、入力に無い地域は0とする。
func RegionalTotals(byRegion map[string]decimal.Decimal, regions []string) []model.RegionTotal {
	totals := make([]model.RegionTotal, 0, len(regions))
	for _, region := range regions {
		v, ok := byRegion[region]
		if !ok {
			v = decimal.Zero
		}
		totals = append(totals, model.RegionTotal{Region: region, ConsumptionMWh: v})
	}
	return totals
}

// MaintenanceAlerts は保守期限を超過した発電所のアラートを入力順で返す。
// 経過日数は切り捨ての整数日で、間隔の1.5倍を超えるとHighになる。
func MaintenanceAlerts(plants []model.PowerPlant, now time.Time, intervals IntervalTable) []model.MaintenanceAlert {
	var alerts []model.MaintenanceAlert
	for _, p := range plants {
		interval := intervals.For(p.Type)
		daysSince := int(now.Sub(p.LastMaintenanceDate) / (24 * time.Hour))
		if daysSince <= interval {
			continue
		}

		priority := model.AlertPriorityMedium
		// daysSince > interval*1.5 を整数演算で判定する
		if 2*daysSince > 3*interval {
			priority = model.AlertPriorityHigh
		}

		alerts = append(alerts, model.MaintenanceAlert{
			PlantID:     p.ID,
			PlantName:   p.Name,
			Type:        p.Type,
			DaysOverdue: daysSince - interval,
			Priority:    priority,
		})
	}
	return alerts
}
