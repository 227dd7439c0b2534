// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は発電所名や地域名などの自由記述テキストからマークアップを除去する。
// bluemondayのStrictPolicyを使用し、全てのタグと属性を取り除いたプレーンテキストを返す。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由記述テキストのサニタイズ機能のインターフェースを定義する。
// 発電所・消費レコードの保存前に使用される。
type TextSanitizer interface {
	// Sanitize はタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// policyEntities はStrictPolicyがテキスト中の記号をエスケープした実体参照。
// 元の入力でエスケープされていた"&lt;"などは戻さない。
var policyEntities = strings.NewReplacer(
	"&amp;", "&",
	"&#39;", "'",
	"&#34;", `"`,
)

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタグを除去したプレーンテキストを返す。
// &、'、"のエスケープだけを元に戻し、出力を再度サニタイズしても結果は変わらない。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(policyEntities.Replace(s.policy.Sanitize(raw)))
}
