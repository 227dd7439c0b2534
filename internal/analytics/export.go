package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hitoshi/powerfleet/internal/model"
)

// ExportKind はCSVエクスポートの種別。
type ExportKind string

const (
	ExportPlants      ExportKind = "plants"
	ExportConsumption ExportKind = "consumption"
)

// CSVヘッダー。既存の利用者との互換のため文字列は変更しないこと。
var (
	plantsHeader      = []string{"Id", "Name", "Type", "Capacity", "Location", "Status", "CurrentOutput", "Efficiency"}
	consumptionHeader = []string{"Id", "PowerPlantId", "Date", "ConsumptionMWh", "PeakDemand", "Region", "CostPerMWh"}
)

// csvDateLayout はconsumptionエクスポートの日付形式。
const csvDateLayout = "2006-01-02"

// ParseExportKind は文字列をエクスポート種別に変換する。未対応の種別はfalseを返す。
func ParseExportKind(s string) (ExportKind, bool) {
	switch ExportKind(s) {
	case ExportPlants, ExportConsumption:
		return ExportKind(s), true
	default:
		return ExportKind(s), false
	}
}

// ExportCSV はkindに応じたCSVをwに書き出す。
// 未対応のkindでは何も書き出さずnilを返す。フィールドはRFC 4180に従ってクォートされる。
func ExportCSV(w io.Writer, kind ExportKind, plants []model.PowerPlant, records []model.ConsumptionRecord) error {
	var rows [][]string
	switch kind {
	case ExportPlants:
		rows = make([][]string, 0, len(plants)+1)
		rows = append(rows, plantsHeader)
		for _, p := range plants {
			rows = append(rows, []string{
				strconv.FormatInt(p.ID, 10),
				p.Name,
				string(p.Type),
				p.CapacityMW.String(),
				p.Location,
				string(p.Status),
				p.CurrentOutputMW.String(),
				p.EfficiencyRating.String(),
			})
		}
	case ExportConsumption:
		rows = make([][]string, 0, len(records)+1)
		rows = append(rows, consumptionHeader)
		for _, r := range records {
			rows = append(rows, []string{
				strconv.FormatInt(r.ID, 10),
				strconv.FormatInt(r.PowerPlantID, 10),
				r.RecordDate.Format(csvDateLayout),
				r.ConsumptionMWh.String(),
				r.PeakDemandMW.String(),
				r.Region,
				r.CostPerMWh.String(),
			})
		}
	default:
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("CSVの書き出しに失敗しました: %w", err)
	}
	return nil
}
