// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultRole は登録時にロールが未指定の場合に付与されるロール。
const DefaultRole = "User"

// AdminRole は発電所の登録・更新・削除が許可されるロール。
const AdminRole = "Admin"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	Role         string
	LastLoginAt  time.Time
	IsActive     bool
	CreatedAt    time.Time
}
