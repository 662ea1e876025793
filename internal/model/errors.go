// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"
	ErrCodeInvalidToken      = "INVALID_TOKEN"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
	ErrCodeUpsertFailed      = "UPSERT_FAILED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
)

// maxReasonLength はプロバイダー由来の失敗理由をレスポンスに含める際の上限文字数。
// 内部情報の過剰な露出を防ぐため、超過分は切り詰める。
const maxReasonLength = 200

// TruncateReason は失敗理由文字列をレスポンス向けに切り詰める。
func TruncateReason(reason string) string {
	if len(reason) <= maxReasonLength {
		return reason
	}
	return reason[:maxReasonLength]
}

// NewMissingCredentialError はcredential未指定エラーを生成する。
func NewMissingCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingCredential,
		Message:  "credentialが指定されていません。",
		Category: "validation",
		Action:   "Googleサインインで取得したcredentialを指定してください。",
	}
}

// NewInvalidTokenError はGoogle credentialの検証失敗エラーを生成する。
// reasonには検証失敗の理由を指定する。レスポンスには切り詰めた形で含める。
func NewInvalidTokenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  fmt.Sprintf("Invalid Google token: %s", TruncateReason(reason)),
		Category: "auth",
		Action:   "Googleサインインをやり直してください。",
	}
}

// NewStoreUnavailableError はユーザーストアに接続できない場合のエラーを生成する。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データベースに接続できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUpsertFailedError はユーザーレコードの書き込み失敗エラーを生成する。
func NewUpsertFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeUpsertFailed,
		Message:  "ユーザー情報の保存に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnauthorizedError は認証されていないリクエストへのエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証されていません。",
		Category: "auth",
		Action:   "ログインしてからアクセスしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
