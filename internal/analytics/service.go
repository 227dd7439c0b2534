package analytics

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/powerfleet/internal/metrics"
	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/hitoshi/powerfleet/internal/repository"
)

// Service は集計処理のサービス層。
// リポジトリから発電所と消費レコードを読み込み、集計関数に渡す。
type Service struct {
	plantRepo       repository.PlantRepository
	consumptionRepo repository.ConsumptionRepository
	policy          Policy
	metrics         metrics.MetricsCollector
	logger          *slog.Logger
	now             func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// policyの未設定項目は既定値で補完される。
func NewService(
	plantRepo repository.PlantRepository,
	consumptionRepo repository.ConsumptionRepository,
	policy Policy,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		plantRepo:       plantRepo,
		consumptionRepo: consumptionRepo,
		policy:          policy.withDefaults(),
		metrics:         collector,
		logger:          logger,
		now:             time.Now,
	}
}

// Policy は適用中の集計設定を返す。
func (s *Service) Policy() Policy {
	return s.policy
}

// Dashboard は直近の集計期間のダッシュボード集計値を返す。
func (s *Service) Dashboard(ctx context.Context) (*model.DashboardSummary, error) {
	plants, err := s.plantRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("発電所一覧の取得に失敗しました: %w", err)
	}

	end := s.now()
	start := end.Add(-s.policy.DashboardWindow)
	records, err := s.consumptionRepo.ListInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("消費レコードの取得に失敗しました: %w", err)
	}

	summary := Summarize(plants, records, start, end)
	return &summary, nil
}

// Efficiency は全発電所の効率評価を返す。
func (s *Service) Efficiency(ctx context.Context) ([]model.EfficiencyReportEntry, error) {
	plants, err := s.plantRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("発電所一覧の取得に失敗しました: %w", err)
	}
	return AnalyzeEfficiency(plants), nil
}

// Regional は設定された地域ごとの消費量合計を返す。
func (s *Service) Regional(ctx context.Context) ([]model.RegionTotal, error) {
	byRegion, err := s.consumptionRepo.TotalsByRegion(ctx)
	if err != nil {
		return nil, fmt.Errorf("地域別消費量の取得に失敗しました: %w", err)
	}
	return RegionalTotals(byRegion, s.policy.Regions), nil
}

// Alerts は現在時刻時点の保守アラートを返す。
func (s *Service) Alerts(ctx context.Context) ([]model.MaintenanceAlert, error) {
	plants, err := s.plantRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("発電所一覧の取得に失敗しました: %w", err)
	}
	return MaintenanceAlerts(plants, s.now(), s.policy.Intervals), nil
}

// Export は指定種別のCSVを返す。未対応の種別では空を返す。
// 必要なデータだけをリポジトリから読み込む。
func (s *Service) Export(ctx context.Context, kind string) ([]byte, error) {
	k, ok := ParseExportKind(kind)
	if !ok {
		s.logger.Warn("unsupported export kind",
			slog.String("kind", kind),
		)
		return []byte{}, nil
	}

	var plants []model.PowerPlant
	var records []model.ConsumptionRecord
	var err error

	switch k {
	case ExportPlants:
		plants, err = s.plantRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("発電所一覧の取得に失敗しました: %w", err)
		}
	case ExportConsumption:
		end := s.now()
		records, err = s.consumptionRepo.ListInRange(ctx, end.Add(-s.policy.DashboardWindow), end)
		if err != nil {
			return nil, fmt.Errorf("消費レコードの取得に失敗しました: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := ExportCSV(&buf, k, plants, records); err != nil {
		return nil, err
	}

	s.metrics.RecordExport(string(k))
	s.logger.Info("csv exported",
		slog.String("kind", string(k)),
		slog.Int("rows", len(plants)+len(records)),
	)
	return buf.Bytes(), nil
}
