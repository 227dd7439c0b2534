// Package consumption はエネルギー消費レコードの登録と参照を提供する。
package consumption

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/hitoshi/powerfleet/internal/repository"
	"github.com/hitoshi/powerfleet/internal/security"
)

// Service は消費レコードのサービス層。
// レコードは追記のみで、登録後の更新・削除は行わない。
type Service struct {
	repo      repository.ConsumptionRepository
	sanitizer security.TextSanitizer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ConsumptionRepository, sanitizer security.TextSanitizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		logger:    logger,
		now:       time.Now,
	}
}

// Record は消費レコードを検証して登録し、採番されたIDを返す。
// 計測日時が未指定の場合は現在時刻を使う。発電所の存在は確認しない。
func (s *Service) Record(ctx context.Context, rec *model.ConsumptionRecord) (int64, error) {
	if rec.PowerPlantID <= 0 {
		return 0, model.NewValidationError("power plant id must be positive")
	}

	ct, err := model.ParseConsumerType(string(rec.ConsumerType))
	if err != nil {
		return 0, model.NewValidationError(fmt.Sprintf("unknown consumer type %q", rec.ConsumerType))
	}
	rec.ConsumerType = ct

	switch {
	case rec.ConsumptionMWh.IsNegative():
		return 0, model.NewValidationError("consumption must not be negative")
	case rec.PeakDemandMW.IsNegative():
		return 0, model.NewValidationError("peak demand must not be negative")
	case rec.CostPerMWh.IsNegative():
		return 0, model.NewValidationError("cost must not be negative")
	case rec.CarbonEmissionsTons.IsNegative():
		return 0, model.NewValidationError("carbon emissions must not be negative")
	}

	rec.Region = s.sanitizer.Sanitize(rec.Region)
	if rec.RecordDate.IsZero() {
		rec.RecordDate = s.now()
	}

	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("消費レコードの登録に失敗しました: %w", err)
	}
	rec.ID = id

	s.logger.Info("consumption recorded",
		slog.Int64("record_id", id),
		slog.Int64("plant_id", rec.PowerPlantID),
		slog.String("region", rec.Region),
	)
	return id, nil
}

// ListByPlant は指定発電所の消費レコードを新しい順で返す。
func (s *Service) ListByPlant(ctx context.Context, plantID int64) ([]model.ConsumptionRecord, error) {
	if plantID <= 0 {
		return []model.ConsumptionRecord{}, nil
	}

	records, err := s.repo.ListByPlant(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("消費レコードの取得に失敗しました: %w", err)
	}
	return records, nil
}
