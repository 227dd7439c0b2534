package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/shopspring/decimal"
)

// psql はPostgreSQLのプレースホルダ形式（$1, $2, ...）でクエリを組み立てるビルダー。
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var consumptionColumns = []string{
	"id", "power_plant_id", "record_date", "consumption_mwh", "peak_demand_mw",
	"region", "cost_per_mwh", "consumer_type", "carbon_emissions_tons",
}

// PostgresConsumptionRepo はPostgreSQLを使用したエネルギー消費リポジトリ。
// クエリはsquirrelで組み立て、値はすべてプレースホルダで渡す。
type PostgresConsumptionRepo struct {
	db *sql.DB
}

// NewPostgresConsumptionRepo はPostgresConsumptionRepoを生成する。
func NewPostgresConsumptionRepo(db *sql.DB) *PostgresConsumptionRepo {
	return &PostgresConsumptionRepo{db: db}
}

// ListInRange はrecord_dateが[start, end]に含まれるレコードを新しい順で取得する。
func (r *PostgresConsumptionRepo) ListInRange(ctx context.Context, start, end time.Time) ([]model.ConsumptionRecord, error) {
	query := psql.Select(consumptionColumns...).
		From("energy_consumption").
		Where(sq.And{
			sq.GtOrEq{"record_date": start},
			sq.LtOrEq{"record_date": end},
		}).
		OrderBy("record_date DESC")

	return r.list(ctx, query)
}

// ListByPlant は指定発電所のレコードを新しい順で取得する。
func (r *PostgresConsumptionRepo) ListByPlant(ctx context.Context, plantID int64) ([]model.ConsumptionRecord, error) {
	query := psql.Select(consumptionColumns...).
		From("energy_consumption").
		Where(sq.Eq{"power_plant_id": plantID}).
		OrderBy("record_date DESC")

	return r.list(ctx, query)
}

// TotalsByRegion は地域ごとの消費量合計を返す。集計はDB側で行う。
func (r *PostgresConsumptionRepo) TotalsByRegion(ctx context.Context) (map[string]decimal.Decimal, error) {
	query, args, err := psql.Select("region", "COALESCE(SUM(consumption_mwh), 0)").
		From("energy_consumption").
		GroupBy("region").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("地域別集計クエリの生成に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("地域別消費量の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var region string
		var total decimal.Decimal
		if err := rows.Scan(&region, &total); err != nil {
			return nil, fmt.Errorf("地域別消費量の読み取りに失敗しました: %w", err)
		}
		totals[region] = totals[region].Add(total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("地域別消費量の走査に失敗しました: %w", err)
	}

	return totals, nil
}

// Create はレコードを追加し、採番されたIDを返す。
func (r *PostgresConsumptionRepo) Create(ctx context.Context, rec *model.ConsumptionRecord) (int64, error) {
	query, args, err := psql.Insert("energy_consumption").
		Columns(consumptionColumns[1:]...).
		Values(
			rec.PowerPlantID, rec.RecordDate, rec.ConsumptionMWh, rec.PeakDemandMW,
			rec.Region, rec.CostPerMWh, string(rec.ConsumerType), rec.CarbonEmissionsTons,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("消費レコード登録クエリの生成に失敗しました: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("消費レコードの登録に失敗しました: %w", err)
	}
	return id, nil
}

// list はSELECTクエリを実行し、消費レコードのスライスに変換する。
func (r *PostgresConsumptionRepo) list(ctx context.Context, builder sq.SelectBuilder) ([]model.ConsumptionRecord, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("消費レコード取得クエリの生成に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("消費レコードの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var records []model.ConsumptionRecord
	for rows.Next() {
		var rec model.ConsumptionRecord
		var region sql.NullString
		var consumerType string
		if err := rows.Scan(
			&rec.ID, &rec.PowerPlantID, &rec.RecordDate, &rec.ConsumptionMWh, &rec.PeakDemandMW,
			&region, &rec.CostPerMWh, &consumerType, &rec.CarbonEmissionsTons,
		); err != nil {
			return nil, fmt.Errorf("消費レコードの読み取りに失敗しました: %w", err)
		}
		rec.Region = nullStringValue(region)
		rec.ConsumerType = model.ConsumerType(consumerType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("消費レコードの走査に失敗しました: %w", err)
	}

	return records, nil
}

// compile-time interface check
var _ ConsumptionRepository = (*PostgresConsumptionRepo)(nil)
