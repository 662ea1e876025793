// Package auth はGoogle credentialの検証とセッショントークンの発行を提供する。
package auth

import "context"

// IdentityClaims はIdPが発行したcredentialから抽出した検証済みクレーム。
// リクエストごとに生成される一時データであり、永続化されない。
type IdentityClaims struct {
	Issuer  string
	Subject string
	Email   string
	Name    string
	Picture string
}

// CredentialVerifier はIdP発行credentialの検証インターフェース。
type CredentialVerifier interface {
	// Verify はcredential文字列を検証し、検証済みクレームを返す。
	// 空のcredentialはErrMissingCredentialを返し、IdPへの通信は行わない。
	// それ以外の検証失敗は*VerificationErrorとして返す。
	Verify(ctx context.Context, rawCredential string) (*IdentityClaims, error)
}
