// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// エラー種別。errors.Isで判定する。
var (
	// ErrValidation は入力値の検証エラー。
	ErrValidation = errors.New("validation failed")
	// ErrNotFound は対象が存在しないことを示す。
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUsername はユーザー名の重複を示す。
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrPlantTypeLocked は種別変更が許可されない発電所への種別変更を示す。
	ErrPlantTypeLocked = errors.New("plant type is locked")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, plant, report, system
	Action   string // ユーザー向け対処方法

	kind error
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap はエラー種別を返す。
func (e *APIError) Unwrap() error {
	return e.kind
}

// 定義済みエラーコード
const (
	ErrCodeValidation        = "VALIDATION_FAILED"
	ErrCodeInvalidPlantType  = "INVALID_PLANT_TYPE"
	ErrCodePlantNotFound     = "PLANT_NOT_FOUND"
	ErrCodePlantTypeLocked   = "PLANT_TYPE_LOCKED"
	ErrCodeDuplicateUsername = "DUPLICATE_USERNAME"
	ErrCodeInvalidCredential = "INVALID_CREDENTIALS"
	ErrCodeForbidden         = "FORBIDDEN"
)

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
		kind:     ErrValidation,
	}
}

// NewInvalidPlantTypeError は未定義の発電所種別エラーを生成する。
func NewInvalidPlantTypeError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPlantType,
		Message:  fmt.Sprintf("未対応の発電所種別です: %s", value),
		Category: "validation",
		Action:   "種別には Coal、Gas、Nuclear、Solar、Wind、Hydro のいずれかを指定してください。",
		kind:     ErrValidation,
	}
}

// NewPlantNotFoundError は発電所未検出エラーを生成する。
func NewPlantNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodePlantNotFound,
		Message:  fmt.Sprintf("指定された発電所が見つかりません: %d", id),
		Category: "plant",
		Action:   "発電所IDを確認してください。",
		kind:     ErrNotFound,
	}
}

// NewPlantTypeLockedError は原子力発電所の種別変更エラーを生成する。
func NewPlantTypeLockedError(from, to PlantType) *APIError {
	return &APIError{
		Code:     ErrCodePlantTypeLocked,
		Message:  fmt.Sprintf("%s の発電所は %s に種別変更できません。", from, to),
		Category: "plant",
		Action:   "種別以外の項目のみ更新してください。",
		kind:     ErrPlantTypeLocked,
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  fmt.Sprintf("ユーザー名は既に使用されています: %s", username),
		Category: "auth",
		Action:   "別のユーザー名を指定してください。",
		kind:     ErrDuplicateUsername,
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザーの存在有無を推測されないよう、原因は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者に権限の付与を依頼してください。",
	}
}
