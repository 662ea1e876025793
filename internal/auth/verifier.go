package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
)

// googleIssuerURL はGoogleのOIDCディスカバリに使用するissuer URL。
const googleIssuerURL = "https://accounts.google.com"

// acceptedIssuers はGoogle credentialで受け入れるiss claimの値。
// Googleは歴史的経緯からスキームなしの表記を発行する場合があるため、両方を許可する。
var acceptedIssuers = []string{
	"accounts.google.com",
	"https://accounts.google.com",
}

// ErrMissingCredential はcredentialが空であることを表すセンチネルエラー。
// IdPへの通信や署名検証を行う前に返される。
var ErrMissingCredential = errors.New("credential is required")

// VerificationErrorKind は検証失敗の内部分類。
// 呼び出し側への公開面では単一の「検証失敗」として扱われるが、
// ログとメトリクスのために内部では閉じた分類を持つ。
type VerificationErrorKind int

const (
	// KindSignature は署名不正・期限切れ・audience不一致などライブラリ検証の失敗。
	KindSignature VerificationErrorKind = iota
	// KindIssuer はiss claimが許可リスト外であることを表す。
	KindIssuer
	// KindMissingEmail はemail claimが存在しないことを表す。
	KindMissingEmail
	// KindTransport はIdPの公開鍵取得など外部通信の失敗を表す。
	KindTransport
)

// String はメトリクスラベル用の分類名を返す。
func (k VerificationErrorKind) String() string {
	switch k {
	case KindIssuer:
		return "issuer"
	case KindMissingEmail:
		return "missing_email"
	case KindTransport:
		return "transport"
	default:
		return "signature"
	}
}

// VerificationError はcredential検証の失敗を表す。
// 下層の失敗要因はReasonに集約され、呼び出し側には単一のエラー型として見える。
type VerificationError struct {
	Kind   VerificationErrorKind
	Reason string
}

// Error はerrorインターフェースを実装する。
func (e *VerificationError) Error() string {
	return fmt.Sprintf("credential verification failed: %s", e.Reason)
}

// GoogleVerifierConfig はGoogleVerifierの設定。
type GoogleVerifierConfig struct {
	// ClientID は期待するaudience（OAuthクライアントID）。
	ClientID string

	// HTTPClient はディスカバリとJWKS取得に使用するHTTPクライアント。
	// SSRF対策済みクライアントを渡すことを想定している。nilの場合はデフォルトを使用する。
	HTTPClient *http.Client
}

// GoogleVerifier はGoogleが発行したID token（credential）を検証する。
// 検証手順:
//  1. 署名をGoogleの公開鍵セットと照合し、audienceがClientIDと一致することを確認（go-oidc）
//  2. iss claimが許可リスト（acceptedIssuers）のいずれかと完全一致することを確認
//  3. email claimが空でないことを確認
//
// 公開鍵セットはgo-oidcがキャッシュするため、毎回の検証で外部通信は発生しない。
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier はGoogleVerifierを生成する。
// 生成時にGoogleのディスカバリドキュメントを取得するため、外部通信が発生する。
// issの許可リスト照合は検証時に自前で行うため、go-oidc側のissuerチェックは無効化する。
func NewGoogleVerifier(ctx context.Context, cfg GoogleVerifierConfig) (*GoogleVerifier, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("google verifier requires a client ID")
	}

	if cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, cfg.HTTPClient)
	}

	provider, err := oidc.NewProvider(ctx, googleIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create oidc provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:        cfg.ClientID,
		SkipIssuerCheck: true,
	})

	return &GoogleVerifier{verifier: verifier}, nil
}

// googleClaims はGoogle ID tokenから抽出するクレームのサブセット。
type googleClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Verify はGoogle credentialを検証し、検証済みクレームを返す。
func (v *GoogleVerifier) Verify(ctx context.Context, rawCredential string) (*IdentityClaims, error) {
	if rawCredential == "" {
		return nil, ErrMissingCredential
	}

	idToken, err := v.verifier.Verify(ctx, rawCredential)
	if err != nil {
		return nil, &VerificationError{Kind: classifyVerifyError(err), Reason: err.Error()}
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, &VerificationError{Kind: KindSignature, Reason: fmt.Sprintf("failed to decode claims: %v", err)}
	}

	return buildIdentityClaims(idToken.Issuer, idToken.Subject, claims)
}

// buildIdentityClaims は検証済みトークンのクレームを検査し、IdentityClaimsを構築する。
// 署名検証後のチェック順序はissuer → emailの順で固定。
func buildIdentityClaims(issuer, subject string, claims googleClaims) (*IdentityClaims, error) {
	if !isAcceptedIssuer(issuer) {
		return nil, &VerificationError{Kind: KindIssuer, Reason: fmt.Sprintf("unexpected issuer: %s", issuer)}
	}

	if claims.Email == "" {
		return nil, &VerificationError{Kind: KindMissingEmail, Reason: "no email claim in credential"}
	}

	return &IdentityClaims{
		Issuer:  issuer,
		Subject: subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// isAcceptedIssuer はissが許可リストのいずれかと完全一致するかを検証する。
func isAcceptedIssuer(issuer string) bool {
	for _, accepted := range acceptedIssuers {
		if issuer == accepted {
			return true
		}
	}
	return false
}

// classifyVerifyError はgo-oidcの検証エラーを内部分類に変換する。
// 公開鍵取得などの通信エラーはKindTransport、それ以外はKindSignatureとする。
func classifyVerifyError(err error) VerificationErrorKind {
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}
	return KindSignature
}

// compile-time interface check
var _ CredentialVerifier = (*GoogleVerifier)(nil)
