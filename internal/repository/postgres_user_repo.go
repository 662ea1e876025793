package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/hitoshi/authgate/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// UpsertByEmail はemailをキーとして原子的にUPSERTし、確定後のレコードを返す。
// INSERT ... ON CONFLICT 1文で実行するため、同一emailへの並行認証でも
// レコードは1件しか作られない。衝突時はidとcreated_atが既存値のまま保持される。
func (r *PostgresUserRepo) UpsertByEmail(ctx context.Context, user *model.User) (*model.User, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to upsert user: database not configured: %w", ErrStoreUnavailable)
	}

	result := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, name, picture, provider, provider_sub, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (email) DO UPDATE SET
		   name         = EXCLUDED.name,
		   picture      = EXCLUDED.picture,
		   provider     = EXCLUDED.provider,
		   provider_sub = EXCLUDED.provider_sub,
		   updated_at   = EXCLUDED.updated_at
		 RETURNING id, email, name, picture, provider, provider_sub, created_at, updated_at`,
		user.ID, user.Email, user.Name, user.Picture, user.Provider, user.ProviderSub,
		user.CreatedAt, user.UpdatedAt,
	).Scan(
		&result.ID, &result.Email, &result.Name, &result.Picture,
		&result.Provider, &result.ProviderSub, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, classifyStoreError("failed to upsert user", err)
	}

	return result, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, email, name, picture, provider, provider_sub, created_at, updated_at
		 FROM users WHERE id = $1`, id)
}

// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
// emailはプロバイダーから受領した表記のまま、大文字小文字を区別して照合する。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, email, name, picture, provider, provider_sub, created_at, updated_at
		 FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to find user: database not configured: %w", ErrStoreUnavailable)
	}

	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.Picture,
		&user.Provider, &user.ProviderSub, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyStoreError("failed to find user", err)
	}

	return user, nil
}

// classifyStoreError はドライバーエラーを分類してラップする。
// 接続系のエラー（接続確立失敗、コネクション切断）はErrStoreUnavailableに包み、
// 呼び出し側がストア到達不能と書き込み拒否を区別できるようにする。
func classifyStoreError(msg string, err error) error {
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %v", msg, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
