// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/shopspring/decimal"
)

// PlantRepository は発電所データの永続化インターフェース。
type PlantRepository interface {
	// List は全発電所を名前順で取得する。
	List(ctx context.Context) ([]model.PowerPlant, error)

	// FindByID は指定IDの発電所を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.PowerPlant, error)

	// Create は発電所を作成し、採番されたIDを返す。
	Create(ctx context.Context, plant *model.PowerPlant) (int64, error)

	// Update は発電所の全項目を上書き更新する。履歴は保持しない。
	// 対象行が存在しない場合はfalseを返す。
	Update(ctx context.Context, plant *model.PowerPlant) (bool, error)

	// Delete は発電所を物理削除する。関連する消費レコードは確認しない。
	// 対象行が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

// ConsumptionRepository はエネルギー消費レコードの永続化インターフェース。
// レコードは追記のみで、更新・削除は提供しない。
type ConsumptionRepository interface {
	// ListInRange はrecord_dateが[start, end]に含まれるレコードを新しい順で取得する。
	ListInRange(ctx context.Context, start, end time.Time) ([]model.ConsumptionRecord, error)

	// ListByPlant は指定発電所のレコードを新しい順で取得する。
	ListByPlant(ctx context.Context, plantID int64) ([]model.ConsumptionRecord, error)

	// TotalsByRegion は地域ごとの消費量合計を返す。
	TotalsByRegion(ctx context.Context) (map[string]decimal.Decimal, error)

	// Create はレコードを追加し、採番されたIDを返す。
	Create(ctx context.Context, record *model.ConsumptionRecord) (int64, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名が重複する場合はmodel.ErrDuplicateUsernameをラップしたエラーを返す。
	Create(ctx context.Context, user *model.User) (int64, error)

	// TouchLastLogin は最終ログイン日時を更新する。
	TouchLastLogin(ctx context.Context, username string, at time.Time) error

	// UpdatePasswordHash はパスワードハッシュを置き換える。
	UpdatePasswordHash(ctx context.Context, username, passwordHash string) error

	// ExistsWithRole は指定ロールのユーザーが1人以上存在するかを返す。
	ExistsWithRole(ctx context.Context, role string) (bool, error)
}
