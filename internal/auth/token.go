package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims はセッショントークンに含まれるクレーム。
// subにはユーザーレコードのID（プロバイダーのsubではない）を設定する。
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenIssuerConfig はTokenIssuerの設定。
type TokenIssuerConfig struct {
	// Secret はHS256署名に使用するプロセス全体の共有シークレット。
	Secret string

	// ExpiresIn はトークンの有効期間。発行時刻からの相対時間で指定する。
	ExpiresIn time.Duration

	// Now は現在時刻の取得関数。テストでの時刻固定用で、nilの場合はtime.Nowを使用する。
	Now func() time.Time
}

// TokenIssuer はHS256署名のセッショントークンを発行・検証する。
// トークンはサーバー側に保存されず、expクレームのみで失効する。
// 再発行は常に新規トークンとして行われ、既存トークンの更新は行わない。
type TokenIssuer struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(cfg TokenIssuerConfig) *TokenIssuer {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{
		secret:    []byte(cfg.Secret),
		expiresIn: cfg.ExpiresIn,
		now:       now,
	}
}

// Issue はユーザーIDとemailを含む署名済みセッショントークンを発行する。
// exp = 発行時刻 + ExpiresIn。
func (t *TokenIssuer) Issue(userID, email string) (string, error) {
	now := t.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Parse はセッショントークンを検証し、クレームを返す。
// 署名不正・期限切れ・アルゴリズム不一致はエラーとなる。
func (t *TokenIssuer) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("session token has no subject")
	}

	return claims, nil
}
