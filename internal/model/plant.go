// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlantType は発電所の種別を表す。
// 取り得る値は定義済みの定数のみで、それ以外はParsePlantTypeで拒否される。
type PlantType string

const (
	PlantTypeCoal    PlantType = "Coal"
	PlantTypeGas     PlantType = "Gas"
	PlantTypeNuclear PlantType = "Nuclear"
	PlantTypeSolar   PlantType = "Solar"
	PlantTypeWind    PlantType = "Wind"
	PlantTypeHydro   PlantType = "Hydro"
)

// PlantTypes は定義済みの発電所種別を表示順で返す。
func PlantTypes() []PlantType {
	return []PlantType{
		PlantTypeCoal,
		PlantTypeGas,
		PlantTypeNuclear,
		PlantTypeSolar,
		PlantTypeWind,
		PlantTypeHydro,
	}
}

// ParsePlantType は文字列を発電所種別に変換する。
// 大文字小文字は区別しない。未定義の種別の場合はエラーを返す。
func ParsePlantType(s string) (PlantType, error) {
	for _, t := range PlantTypes() {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown plant type: %q", s)
}

// PlantStatus は発電所の稼働状態を表す。
type PlantStatus string

const (
	// PlantStatusActive は稼働中。
	PlantStatusActive PlantStatus = "Active"
	// PlantStatusMaintenance は保守中。
	PlantStatusMaintenance PlantStatus = "Maintenance"
	// PlantStatusDecommissioned は廃止済み。
	PlantStatusDecommissioned PlantStatus = "Decommissioned"

	// PlantStatusNeedsReview は効率の低い原子力発電所に付与される派生状態。永続化されない。
	PlantStatusNeedsReview PlantStatus = "Needs Review"
	// PlantStatusAtCapacity は出力が定格の95%を超えた発電所に付与される派生状態。永続化されない。
	PlantStatusAtCapacity PlantStatus = "At Capacity"
)

// IsStored はDBに保存可能な状態かどうかを返す。
func (s PlantStatus) IsStored() bool {
	switch s {
	case PlantStatusActive, PlantStatusMaintenance, PlantStatusDecommissioned:
		return true
	default:
		return false
	}
}

// PowerPlant は発電所を表す。
type PowerPlant struct {
	ID                  int64
	Name                string
	Type                PlantType
	CapacityMW          decimal.Decimal
	Location            string
	CommissionDate      time.Time
	Status              PlantStatus
	CurrentOutputMW     decimal.Decimal
	EfficiencyRating    decimal.Decimal // 0〜1の比率
	OperatorCompany     string
	MaintenanceCost     decimal.Decimal
	LastMaintenanceDate time.Time
}
