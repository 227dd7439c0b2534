package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresConsumptionRepo_ListInRange_UsesPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)
	mock.ExpectQuery(`FROM energy_consumption WHERE .*record_date >= \$1.*record_date <= \$2.*ORDER BY record_date DESC`).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows(consumptionColumns).
			AddRow(int64(1), int64(3), end, "120.5", "40", "North", "55.1", "Industrial", "3.2"))

	records, err := NewPostgresConsumptionRepo(db).ListInRange(context.Background(), start, end)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].PowerPlantID)
	assert.Equal(t, model.ConsumerIndustrial, records[0].ConsumerType)
	assert.True(t, records[0].ConsumptionMWh.Equal(decimal.RequireFromString("120.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConsumptionRepo_ListByPlant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM energy_consumption WHERE power_plant_id = \$1 ORDER BY record_date DESC`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(consumptionColumns))

	records, err := NewPostgresConsumptionRepo(db).ListByPlant(context.Background(), 3)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConsumptionRepo_TotalsByRegion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY region")).
		WillReturnRows(sqlmock.NewRows([]string{"region", "total"}).
			AddRow("North", "100").
			AddRow("Atlantis", "7.5"))

	totals, err := NewPostgresConsumptionRepo(db).TotalsByRegion(context.Background())

	require.NoError(t, err)
	assert.True(t, totals["North"].Equal(decimal.NewFromInt(100)))
	assert.True(t, totals["Atlantis"].Equal(decimal.RequireFromString("7.5")))
}

func TestPostgresConsumptionRepo_Create_ReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO energy_consumption .* RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(44)))

	id, err := NewPostgresConsumptionRepo(db).Create(context.Background(), &model.ConsumptionRecord{
		PowerPlantID:   3,
		RecordDate:     time.Now(),
		ConsumptionMWh: decimal.NewFromInt(10),
		Region:         "South",
		ConsumerType:   model.ConsumerResidential,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(44), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
