// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/authgate/internal/auth"
	"github.com/hitoshi/authgate/internal/middleware"
	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/repository"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, rawCredential string) (*auth.AuthResult, error)
	CurrentUser(ctx context.Context, userID string) (*model.UserView, error)
}

// GoogleCredentialRequest はGoogle認証リクエストのボディ。
type GoogleCredentialRequest struct {
	Credential string `json:"credential"`
}

// AuthResponseBody は認証成功レスポンス。
type AuthResponseBody struct {
	Token string          `json:"token"`
	User  *model.UserView `json:"user"`
}

// AuthHandler はGoogle認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// GoogleAuth はGoogle credentialを検証してセッショントークンを発行する。
// POST /auth/google
func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	var req GoogleCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingCredentialError())
		return
	}

	result, err := h.service.Authenticate(r.Context(), req.Credential)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(AuthResponseBody{
		Token: result.Token,
		User:  result.User,
	})
}

// Me は現在の認証済みユーザーを返す。
// GET /auth/me（要Bearerトークン）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, statusForCode(apiErr.Code), apiErr)
			return
		}
		slog.Error("failed to load current user", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(user)
}

// writeAuthError は認証エラーをHTTPステータスと統一フォーマットにマッピングする。
//
//	credential欠落       → 400 MISSING_CREDENTIAL
//	トークン検証失敗     → 401 INVALID_TOKEN（失敗理由を含む）
//	ストア到達不能       → 500 STORE_UNAVAILABLE
//	その他（UPSERT失敗） → 500 UPSERT_FAILED
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	var verr *auth.VerificationError

	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingCredentialError())
	case errors.As(err, &verr):
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError(verr.Reason))
	case errors.Is(err, repository.ErrStoreUnavailable):
		slog.Error("user store unavailable", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewStoreUnavailableError())
	default:
		slog.Error("authentication failed", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewUpsertFailedError())
	}
}

// statusForCode はAPIエラーコードをHTTPステータスコードにマッピングする。
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeMissingCredential:
		return http.StatusBadRequest
	case model.ErrCodeInvalidToken, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
