// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ConsumerType は需要家の区分を表す。
type ConsumerType string

const (
	ConsumerResidential ConsumerType = "Residential"
	ConsumerCommercial  ConsumerType = "Commercial"
	ConsumerIndustrial  ConsumerType = "Industrial"
)

// ParseConsumerType は文字列を需要家区分に変換する。未定義の区分の場合はエラーを返す。
func ParseConsumerType(s string) (ConsumerType, error) {
	for _, c := range []ConsumerType{ConsumerResidential, ConsumerCommercial, ConsumerIndustrial} {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown consumer type: %q", s)
}

// ConsumptionRecord はエネルギー消費の計測レコードを表す。
// 登録後は更新・削除されない。
type ConsumptionRecord struct {
	ID                  int64
	PowerPlantID        int64 // 論理参照のみ。外部キー制約は持たない
	RecordDate          time.Time
	ConsumptionMWh      decimal.Decimal
	PeakDemandMW        decimal.Decimal
	Region              string
	CostPerMWh          decimal.Decimal
	ConsumerType        ConsumerType
	CarbonEmissionsTons decimal.Decimal
}
