package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/authgate/internal/metrics"
	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/repository"
	"github.com/hitoshi/authgate/internal/security"
)

// AuthResult は認証成功時のレスポンス。
type AuthResult struct {
	Token string
	User  *model.UserView
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// Now は現在時刻の取得関数。テストでの時刻固定用で、nilの場合はtime.Nowを使用する。
	Now func() time.Time
}

// Service は認証に関するビジネスロジックを提供する。
// credential検証 → ユーザーUPSERT → セッショントークン発行を1リクエスト内で完結させ、
// リクエスト間で状態を保持しない。
type Service struct {
	verifier  CredentialVerifier
	userRepo  repository.UserRepository
	tokens    *TokenIssuer
	sanitizer security.ProfileSanitizerService
	guard     security.ProfileGuardService
	collector metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceを生成する。
// sanitizer、guard、collectorはnil許容（テストおよび段階的導入のため）。
func NewService(
	verifier CredentialVerifier,
	userRepo repository.UserRepository,
	tokens *TokenIssuer,
	sanitizer security.ProfileSanitizerService,
	guard security.ProfileGuardService,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		verifier:  verifier,
		userRepo:  userRepo,
		tokens:    tokens,
		sanitizer: sanitizer,
		guard:     guard,
		collector: collector,
		now:       now,
	}
}

// Authenticate はGoogle credentialを検証し、ユーザーをUPSERTしてセッショントークンを発行する。
//
// UPSERTはemailをキーとするストア側の原子的操作に委譲するため、
// 同一emailへの並行認証でもレコードは1件しか作られない。
// トークンのsubにはプロバイダーのsubではなく、確定後のユーザーレコードIDを設定する。
//
// 失敗時はトークンもユーザーも返さない。部分的な成功は存在しない
// （UPSERT成功後のトークン発行失敗はエラーとなるが、レコード更新自体は冪等なため害はない）。
func (s *Service) Authenticate(ctx context.Context, rawCredential string) (*AuthResult, error) {
	start := s.now()

	claims, err := s.verifier.Verify(ctx, rawCredential)
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	name := claims.Name
	if s.sanitizer != nil {
		name = s.sanitizer.SanitizeName(name)
	}

	// 検証に通らないプロフィール画像URLは保存せず、認証自体は成功させる
	picture := claims.Picture
	if picture != "" && s.guard != nil {
		if guardErr := s.guard.ValidatePictureURL(picture); guardErr != nil {
			slog.Warn("dropping unsafe picture URL",
				slog.String("email", claims.Email),
				slog.String("error", guardErr.Error()),
			)
			picture = ""
		}
	}

	now := s.now()
	user, err := s.userRepo.UpsertByEmail(ctx, &model.User{
		ID:          uuid.New().String(),
		Email:       claims.Email,
		Name:        name,
		Picture:     picture,
		Provider:    model.ProviderGoogle,
		ProviderSub: claims.Subject,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.recordFailure(err)
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.recordFailure(err)
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordAuthSuccess()
		s.collector.RecordTokenIssued()
		s.collector.RecordAuthLatency(s.now().Sub(start))
	}

	slog.Info("user authenticated",
		slog.String("user_id", user.ID),
		slog.String("provider", user.Provider),
	)

	return &AuthResult{
		Token: token,
		User:  user.PublicView(),
	}, nil
}

// CurrentUser はセッショントークンのsubから現在のユーザーを取得する。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.UserView, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user.PublicView(), nil
}

// recordFailure は認証失敗をメトリクスに記録する。
func (s *Service) recordFailure(err error) {
	if s.collector == nil {
		return
	}
	s.collector.RecordAuthFailure(failureReason(err))
}

// failureReason はエラーをメトリクスの失敗理由ラベルに変換する。
func failureReason(err error) string {
	var verr *VerificationError
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.As(err, &verr):
		return verr.Kind.String()
	case errors.Is(err, repository.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
