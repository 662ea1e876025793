package auth

import (
	"testing"
	"time"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndParse_RoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Secret:    "test-secret",
		ExpiresIn: 30 * 24 * time.Hour,
		Now:       fixedNow(now),
	})

	token, err := issuer.Issue("user-id-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "user-id-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-id-1")
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "alice@example.com")
	}
}

// expクレームが発行時刻+有効期間と正確に一致することを検証
func TestIssue_ExpiryEqualsIssuanceTimePlusDuration(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	expiresIn := 43200 * time.Minute // 30日
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Secret:    "test-secret",
		ExpiresIn: expiresIn,
		Now:       fixedNow(now),
	})

	token, err := issuer.Issue("user-id-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wantExp := now.Add(expiresIn)
	if !claims.ExpiresAt.Time.Equal(wantExp) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt.Time, wantExp)
	}
	if !claims.IssuedAt.Time.Equal(now) {
		t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt.Time, now)
	}
}

func TestParse_RejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
		Now:       fixedNow(issuedAt),
	})

	token, err := issuer.Issue("user-id-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// 有効期限の後に時計を進めたissuerで検証する
	later := NewTokenIssuer(TokenIssuerConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
		Now:       fixedNow(issuedAt.Add(2 * time.Hour)),
	})

	if _, err := later.Parse(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	now := time.Now()
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Secret:    "correct-secret",
		ExpiresIn: time.Hour,
		Now:       fixedNow(now),
	})
	other := NewTokenIssuer(TokenIssuerConfig{
		Secret:    "wrong-secret",
		ExpiresIn: time.Hour,
		Now:       fixedNow(now),
	})

	token, err := issuer.Issue("user-id-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
	})

	for _, input := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := issuer.Parse(input); err == nil {
			t.Errorf("expected error for input %q", input)
		}
	}
}

// noneアルゴリズムなどHS256以外で署名されたトークンが拒否されることを検証
func TestParse_RejectsUnsignedToken(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
	})

	// alg=noneのトークン（header: {"alg":"none","typ":"JWT"}）
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1c2VyLWlkLTEifQ."

	if _, err := issuer.Parse(unsigned); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}

// 再認証は既存トークンの更新ではなく、その時点を起点とした新規発行であることを検証
func TestIssue_FreshExpiryPerCall(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	current := base
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
		Now:       func() time.Time { return current },
	})

	t1, err := issuer.Issue("user-id-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	current = base.Add(30 * time.Minute)
	t2, err := issuer.Issue("user-id-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	c1, err := issuer.Parse(t1)
	if err != nil {
		t.Fatalf("Parse t1 failed: %v", err)
	}
	c2, err := issuer.Parse(t2)
	if err != nil {
		t.Fatalf("Parse t2 failed: %v", err)
	}

	if !c2.ExpiresAt.Time.Equal(c1.ExpiresAt.Time.Add(30 * time.Minute)) {
		t.Errorf("second token expiry = %v, want %v", c2.ExpiresAt.Time, c1.ExpiresAt.Time.Add(30*time.Minute))
	}
}
