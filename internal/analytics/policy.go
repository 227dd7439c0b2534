// Package analytics は発電所と消費レコードの集計ロジックを提供する。
// 集計関数は副作用を持たず、Serviceがリポジトリからの読み込みを担う。
package analytics

import (
	"time"

	"github.com/hitoshi/powerfleet/internal/model"
)

// デフォルト値
const (
	// DefaultDashboardWindow はダッシュボードの消費量集計期間。
	DefaultDashboardWindow = 30 * 24 * time.Hour
	// DefaultMaintenanceInterval は保守間隔表に無い種別の保守間隔（日）。
	DefaultMaintenanceInterval = 365
)

// DefaultRegions は地域別集計の既定の地域一覧。
func DefaultRegions() []string {
	return []string{"North", "South", "East", "West", "Central"}
}

// DefaultIntervals は種別ごとの既定の保守間隔（日）。
func DefaultIntervals() map[model.PlantType]int {
	return map[model.PlantType]int{
		model.PlantTypeNuclear: 90,
		model.PlantTypeCoal:    120,
		model.PlantTypeGas:     180,
		model.PlantTypeSolar:   365,
		model.PlantTypeWind:    180,
	}
}

// IntervalTable は発電所種別ごとの保守間隔（日）。
type IntervalTable struct {
	Days     map[model.PlantType]int
	Fallback int
}

// For は指定種別の保守間隔を返す。表に無い種別はFallbackを返す。
func (t IntervalTable) For(pt model.PlantType) int {
	if d, ok := t.Days[pt]; ok {
		return d
	}
	if t.Fallback > 0 {
		return t.Fallback
	}
	return DefaultMaintenanceInterval
}

// Policy は集計処理の設定値をまとめたもの。
type Policy struct {
	Intervals       IntervalTable
	Regions         []string
	DashboardWindow time.Duration
}

// DefaultPolicy は既定値で初期化したPolicyを返す。
func DefaultPolicy() Policy {
	return Policy{
		Intervals: IntervalTable{
			Days:     DefaultIntervals(),
			Fallback: DefaultMaintenanceInterval,
		},
		Regions:         DefaultRegions(),
		DashboardWindow: DefaultDashboardWindow,
	}
}

// withDefaults は未設定の項目を既定値で補完したコピーを返す。
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	// 設定された種別だけ既定の間隔表を上書きする
	days := def.Intervals.Days
	for pt, d := range p.Intervals.Days {
		days[pt] = d
	}
	p.Intervals.Days = days
	if p.Intervals.Fallback <= 0 {
		p.Intervals.Fallback = def.Intervals.Fallback
	}
	if len(p.Regions) == 0 {
		p.Regions = def.Regions
	}
	if p.DashboardWindow <= 0 {
		p.DashboardWindow = def.DashboardWindow
	}
	return p
}
