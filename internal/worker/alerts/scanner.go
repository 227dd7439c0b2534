// Package alerts は保守アラートの定期スキャンジョブを提供する。
// 一定間隔で保守期限超過の発電所を集計し、優先度別の件数をメトリクスに反映する。
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/powerfleet/internal/metrics"
	"github.com/hitoshi/powerfleet/internal/model"
)

// AlertSource は保守アラートの取得インターフェース。
type AlertSource interface {
	Alerts(ctx context.Context) ([]model.MaintenanceAlert, error)
}

// Result は1回のスキャン結果。
type Result struct {
	Medium int
	High   int
}

// Scanner は保守アラートの定期スキャンジョブ。
type Scanner struct {
	source  AlertSource
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewScanner は新しいScannerを生成する。
func NewScanner(source AlertSource, collector metrics.MetricsCollector, logger *slog.Logger) *Scanner {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		source:  source,
		metrics: collector,
		logger:  logger,
	}
}

// Start はinterval間隔でスキャンを実行する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (s *Scanner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("保守アラートスキャンを開始しました",
		slog.Duration("interval", interval),
	)

	s.runAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("保守アラートスキャンを停止しました")
			return
		case <-ticker.C:
			s.runAndLog(ctx)
		}
	}
}

func (s *Scanner) runAndLog(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("保守アラートスキャンの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// RunOnce はアラートを1回集計し、優先度別の件数をメトリクスに設定する。
// 取得に失敗した場合はメトリクスを更新しない。
func (s *Scanner) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()

	alerts, err := s.source.Alerts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("保守アラートの取得に失敗しました: %w", err)
	}

	var res Result
	for _, a := range alerts {
		switch a.Priority {
		case model.AlertPriorityHigh:
			res.High++
		case model.AlertPriorityMedium:
			res.Medium++
		}
	}

	s.metrics.SetOverduePlants(res.Medium, res.High)

	for _, a := range alerts {
		if a.Priority != model.AlertPriorityHigh {
			continue
		}
		s.logger.Warn("保守期限を大幅に超過している発電所があります",
			slog.Int64("plant_id", a.PlantID),
			slog.String("plant_name", a.PlantName),
			slog.Int("days_overdue", a.DaysOverdue),
		)
	}

	s.logger.Info("保守アラートスキャンが完了しました",
		slog.Int("medium", res.Medium),
		slog.Int("high", res.High),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return res, nil
}
