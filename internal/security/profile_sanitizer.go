// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ProfileSanitizerService はIdPから受領した表示名をサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayのStrictPolicyにより、HTMLタグを一切許可しない。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxNameLength は表示名の保存時の最大文字数（バイト長ではなくルーン数）。
const maxNameLength = 255

// ProfileSanitizerService はプロフィール属性のサニタイズ機能のインターフェースを定義する。
// ユーザーレコードの保存前に使用される。
type ProfileSanitizerService interface {
	// SanitizeName は表示名からHTMLタグを全て除去し、前後の空白を取り除く。
	// 255文字を超える場合は切り詰める。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeName(raw string) string
}

// profileSanitizer はProfileSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type profileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はProfileSanitizerServiceの新しいインスタンスを生成する。
// 表示名はプレーンテキストとして扱うため、タグを一切許可しないStrictPolicyを使用する。
func NewProfileSanitizer() *profileSanitizer {
	return &profileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeName は表示名からHTMLタグを全て除去し、前後の空白を取り除く。
func (s *profileSanitizer) SanitizeName(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := strings.TrimSpace(s.policy.Sanitize(raw))

	runes := []rune(cleaned)
	if len(runes) > maxNameLength {
		cleaned = string(runes[:maxNameLength])
	}

	return cleaned
}

// compile-time interface check
var _ ProfileSanitizerService = (*profileSanitizer)(nil)
