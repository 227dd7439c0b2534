package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/powerfleet/internal/model"
)

// plantColumns はpower_plantsテーブルのSELECT対象カラム。scanPlantの順序と一致させること。
const plantColumns = `id, name, type, capacity_mw, location, commission_date, status,
	current_output_mw, efficiency_rating, operator_company, maintenance_cost,
	last_maintenance_date`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresPlantRepo はPostgreSQLを使用した発電所リポジトリ。
type PostgresPlantRepo struct {
	db *sql.DB
}

// NewPostgresPlantRepo はPostgresPlantRepoを生成する。
func NewPostgresPlantRepo(db *sql.DB) *PostgresPlantRepo {
	return &PostgresPlantRepo{db: db}
}

// List は全発電所を名前順で取得する。
func (r *PostgresPlantRepo) List(ctx context.Context) ([]model.PowerPlant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+plantColumns+` FROM power_plants ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("発電所一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var plants []model.PowerPlant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("発電所行の読み取りに失敗しました: %w", err)
		}
		plants = append(plants, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("発電所一覧の走査に失敗しました: %w", err)
	}

	return plants, nil
}

// FindByID は指定IDの発電所を取得する。見つからない場合はnilを返す。
func (r *PostgresPlantRepo) FindByID(ctx context.Context, id int64) (*model.PowerPlant, error) {
	p, err := scanPlant(r.db.QueryRowContext(ctx,
		`SELECT `+plantColumns+` FROM power_plants WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("発電所の取得に失敗しました: %w", err)
	}
	return p, nil
}

// Create は発電所を作成し、採番されたIDを返す。
func (r *PostgresPlantRepo) Create(ctx context.Context, p *model.PowerPlant) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO power_plants (name, type, capacity_mw, location, commission_date, status,
		                           current_output_mw, efficiency_rating, operator_company,
		                           maintenance_cost, last_maintenance_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		p.Name, string(p.Type), p.CapacityMW, p.Location, p.CommissionDate, string(p.Status),
		p.CurrentOutputMW, p.EfficiencyRating, p.OperatorCompany,
		p.MaintenanceCost, p.LastMaintenanceDate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("発電所の作成に失敗しました: %w", err)
	}
	return id, nil
}

// Update は発電所の全項目を上書き更新する。
// commission_dateは作成時の値を維持する。
func (r *PostgresPlantRepo) Update(ctx context.Context, p *model.PowerPlant) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE power_plants SET
		     name = $1, type = $2, capacity_mw = $3, location = $4, status = $5,
		     current_output_mw = $6, efficiency_rating = $7, operator_company = $8,
		     maintenance_cost = $9, last_maintenance_date = $10, updated_at = now()
		 WHERE id = $11`,
		p.Name, string(p.Type), p.CapacityMW, p.Location, string(p.Status),
		p.CurrentOutputMW, p.EfficiencyRating, p.OperatorCompany,
		p.MaintenanceCost, p.LastMaintenanceDate, p.ID,
	)
	if err != nil {
		return false, fmt.Errorf("発電所の更新に失敗しました: %w", err)
	}
	return affected(result)
}

// Delete は発電所を物理削除する。
func (r *PostgresPlantRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM power_plants WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("発電所の削除に失敗しました: %w", err)
	}
	return affected(result)
}

// scanPlant は1行分の発電所データを読み取る。
func scanPlant(row rowScanner) (*model.PowerPlant, error) {
	p := &model.PowerPlant{}
	var plantType, status string
	var location, operator sql.NullString

	err := row.Scan(
		&p.ID, &p.Name, &plantType, &p.CapacityMW, &location, &p.CommissionDate, &status,
		&p.CurrentOutputMW, &p.EfficiencyRating, &operator, &p.MaintenanceCost,
		&p.LastMaintenanceDate,
	)
	if err != nil {
		return nil, err
	}

	p.Type = model.PlantType(plantType)
	p.Status = model.PlantStatus(status)
	p.Location = nullStringValue(location)
	p.OperatorCompany = nullStringValue(operator)
	return p, nil
}

// affected は更新件数が1件以上かどうかを返す。
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ PlantRepository = (*PostgresPlantRepo)(nil)
