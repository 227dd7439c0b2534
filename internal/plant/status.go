package plant

import (
	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/shopspring/decimal"
)

var (
	nuclearReviewBelow = decimal.RequireFromString("0.8")
	atCapacityRatio    = decimal.RequireFromString("0.95")
)

// StatusRule は発電所の派生状態を判定する規則。
// 該当する場合は派生状態とtrueを返す。
type StatusRule func(p model.PowerPlant) (model.PlantStatus, bool)

// NuclearReviewRule は効率が0.8未満の原子力発電所を「Needs Review」とする。
func NuclearReviewRule(p model.PowerPlant) (model.PlantStatus, bool) {
	if p.Type == model.PlantTypeNuclear && p.EfficiencyRating.LessThan(nuclearReviewBelow) {
		return model.PlantStatusNeedsReview, true
	}
	return "", false
}

// AtCapacityRule は出力が定格の95%を超える発電所を「At Capacity」とする。
func AtCapacityRule(p model.PowerPlant) (model.PlantStatus, bool) {
	if p.CurrentOutputMW.GreaterThan(p.CapacityMW.Mul(atCapacityRatio)) {
		return model.PlantStatusAtCapacity, true
	}
	return "", false
}

// StatusRules は一覧取得と個別取得で適用する規則の組。
type StatusRules struct {
	List   []StatusRule
	Single []StatusRule
}

// SplitStatusRules は一覧では原子力レビュー規則のみ、個別取得では定格到達規則のみを適用する。
// 既存の画面が前提としている挙動。
func SplitStatusRules() StatusRules {
	return StatusRules{
		List:   []StatusRule{NuclearReviewRule},
		Single: []StatusRule{AtCapacityRule},
	}
}

// UnifiedStatusRules は両方の経路で原子力レビュー規則、定格到達規則の順に適用する。
// 両方に該当する場合は後者が優先される。
func UnifiedStatusRules() StatusRules {
	both := []StatusRule{NuclearReviewRule, AtCapacityRule}
	return StatusRules{List: both, Single: both}
}

// DeriveStatus は規則を順に適用し、最後に該当した派生状態を設定した発電所を返す。
// どの規則にも該当しない場合は保存済みの状態のまま返す。
func DeriveStatus(p model.PowerPlant, rules []StatusRule) model.PowerPlant {
	for _, rule := range rules {
		if s, ok := rule(p); ok {
			p.Status = s
		}
	}
	return p
}
