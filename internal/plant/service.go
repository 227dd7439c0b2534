// Package plant は発電所管理のドメインロジックを提供する。
package plant

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/hitoshi/powerfleet/internal/repository"
	"github.com/hitoshi/powerfleet/internal/security"
	"github.com/shopspring/decimal"
)

// lowEfficiencyWarningBelow はレポートに警告を出す効率のしきい値。
var lowEfficiencyWarningBelow = decimal.RequireFromString("0.7")

// ServiceConfig は発電所サービスの設定。
type ServiceConfig struct {
	// UnifiedStatusRules がtrueの場合、一覧・個別取得の両方で全ての派生状態規則を適用する。
	UnifiedStatusRules bool
}

// Service は発電所管理のサービス層。
type Service struct {
	plantRepo       repository.PlantRepository
	consumptionRepo repository.ConsumptionRepository
	sanitizer       security.TextSanitizer
	rules           StatusRules
	logger          *slog.Logger
	now             func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	plantRepo repository.PlantRepository,
	consumptionRepo repository.ConsumptionRepository,
	sanitizer security.TextSanitizer,
	cfg ServiceConfig,
	logger *slog.Logger,
) *Service {
	rules := SplitStatusRules()
	if cfg.UnifiedStatusRules {
		rules = UnifiedStatusRules()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		plantRepo:       plantRepo,
		consumptionRepo: consumptionRepo,
		sanitizer:       sanitizer,
		rules:           rules,
		logger:          logger,
		now:             time.Now,
	}
}

// List は全発電所を一覧用の派生状態付きで返す。
func (s *Service) List(ctx context.Context) ([]model.PowerPlant, error) {
	plants, err := s.plantRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("発電所一覧の取得に失敗しました: %w", err)
	}

	for i := range plants {
		plants[i] = DeriveStatus(plants[i], s.rules.List)
	}
	return plants, nil
}

// Get は指定IDの発電所を個別取得用の派生状態付きで返す。
// idが0以下、または存在しない場合はnilを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.PowerPlant, error) {
	if id <= 0 {
		return nil, nil
	}

	p, err := s.plantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("発電所の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, nil
	}

	derived := DeriveStatus(*p, s.rules.Single)
	return &derived, nil
}

// Create は発電所を登録し、採番されたIDを返す。
// 稼働開始日と最終保守日は未指定なら現在時刻、状態は未指定ならActiveになる。
func (s *Service) Create(ctx context.Context, p *model.PowerPlant) (int64, error) {
	if err := s.normalize(p); err != nil {
		return 0, err
	}

	now := s.now()
	if p.CommissionDate.IsZero() {
		p.CommissionDate = now
	}
	if p.LastMaintenanceDate.IsZero() {
		p.LastMaintenanceDate = now
	}

	id, err := s.plantRepo.Create(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("発電所の登録に失敗しました: %w", err)
	}
	p.ID = id

	s.logger.Info("plant created",
		slog.Int64("plant_id", id),
		slog.String("type", string(p.Type)),
	)
	return id, nil
}

// Update は発電所を全項目上書きで更新する。
// 原子力発電所から他種別への変更は拒否され、保存済みのデータは変更されない。
// 取得と更新は同一トランザクションではない。
func (s *Service) Update(ctx context.Context, p *model.PowerPlant) error {
	if err := s.normalize(p); err != nil {
		return err
	}

	existing, err := s.plantRepo.FindByID(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("発電所の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewPlantNotFoundError(p.ID)
	}

	if existing.Type == model.PlantTypeNuclear && p.Type != model.PlantTypeNuclear {
		s.logger.Warn("nuclear plant type change rejected",
			slog.Int64("plant_id", p.ID),
			slog.String("requested_type", string(p.Type)),
		)
		return model.NewPlantTypeLockedError(existing.Type, p.Type)
	}

	if p.LastMaintenanceDate.IsZero() {
		p.LastMaintenanceDate = existing.LastMaintenanceDate
	}
	p.CommissionDate = existing.CommissionDate

	ok, err := s.plantRepo.Update(ctx, p)
	if err != nil {
		return fmt.Errorf("発電所の更新に失敗しました: %w", err)
	}
	if !ok {
		return model.NewPlantNotFoundError(p.ID)
	}
	return nil
}

// Delete は発電所を物理削除する。関連する消費レコードは残る。
func (s *Service) Delete(ctx context.Context, id int64) error {
	ok, err := s.plantRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("発電所の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewPlantNotFoundError(id)
	}

	s.logger.Info("plant deleted", slog.Int64("plant_id", id))
	return nil
}

// ListByEfficiency は効率がminEfficiency以上の発電所を効率の高い順で返す。
func (s *Service) ListByEfficiency(ctx context.Context, minEfficiency decimal.Decimal) ([]model.PowerPlant, error) {
	plants, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]model.PowerPlant, 0, len(plants))
	for _, p := range plants {
		if p.EfficiencyRating.GreaterThanOrEqual(minEfficiency) {
			filtered = append(filtered, p)
		}
	}
	slices.SortStableFunc(filtered, func(a, b model.PowerPlant) int {
		return b.EfficiencyRating.Cmp(a.EfficiencyRating)
	})
	return filtered, nil
}

// CapacityByRegion は所在地にregionを含む発電所の定格出力合計を返す。
func (s *Service) CapacityByRegion(ctx context.Context, region string) (decimal.Decimal, error) {
	plants, err := s.plantRepo.List(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("発電所一覧の取得に失敗しました: %w", err)
	}

	total := decimal.Zero
	for _, p := range plants {
		if strings.Contains(p.Location, region) {
			total = total.Add(p.CapacityMW)
		}
	}
	return total, nil
}

// Report は発電所1件分のテキストレポートを返す。
func (s *Service) Report(ctx context.Context, id int64) (string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", model.NewPlantNotFoundError(id)
	}

	records, err := s.consumptionRepo.ListByPlant(ctx, id)
	if err != nil {
		return "", fmt.Errorf("消費レコードの取得に失敗しました: %w", err)
	}

	return FormatReport(*p, len(records)), nil
}

// FormatReport は発電所レポートのテキストを組み立てる。効率は百分率で表示する。
func FormatReport(p model.PowerPlant, recordCount int) string {
	var b strings.Builder
	b.WriteString("Power Plant Report\n")
	b.WriteString("==================\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Type: %s\n", p.Type)
	fmt.Fprintf(&b, "Capacity: %s MW\n", p.CapacityMW.String())
	fmt.Fprintf(&b, "Current Output: %s MW\n", p.CurrentOutputMW.String())
	fmt.Fprintf(&b, "Efficiency: %s%%\n", p.EfficiencyRating.Shift(2).StringFixed(2))
	fmt.Fprintf(&b, "Status: %s\n", p.Status)
	fmt.Fprintf(&b, "Total Consumption Records: %d\n", recordCount)
	if p.EfficiencyRating.LessThan(lowEfficiencyWarningBelow) {
		b.WriteString("WARNING: Low efficiency rating!\n")
	}
	return b.String()
}

// normalize は入力値を検証し、自由記述項目をサニタイズする。
func (s *Service) normalize(p *model.PowerPlant) error {
	p.Name = s.sanitizer.Sanitize(p.Name)
	p.Location = s.sanitizer.Sanitize(p.Location)
	p.OperatorCompany = s.sanitizer.Sanitize(p.OperatorCompany)

	if p.Name == "" {
		return model.NewValidationError("name is required")
	}

	pt, err := model.ParsePlantType(string(p.Type))
	if err != nil {
		return model.NewInvalidPlantTypeError(string(p.Type))
	}
	p.Type = pt

	if p.Status == "" {
		p.Status = model.PlantStatusActive
	}
	if !p.Status.IsStored() {
		return model.NewValidationError(fmt.Sprintf("status %q cannot be stored", p.Status))
	}

	if p.CapacityMW.IsNegative() {
		return model.NewValidationError("capacity must not be negative")
	}
	if p.CurrentOutputMW.IsNegative() {
		return model.NewValidationError("current output must not be negative")
	}
	if p.MaintenanceCost.IsNegative() {
		return model.NewValidationError("maintenance cost must not be negative")
	}
	return nil
}
