package database

import (
	"context"
	"database/sql"
	"fmt"
)

// usersSchema はusersテーブルのスキーマ定義。
// マイグレーションツールは使用せず、起動時に冪等に適用する。
// emailのUNIQUE制約がUPSERTの衝突キーとなり、同一emailのレコード重複を防ぐ。
const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL DEFAULT '',
	picture      TEXT NOT NULL DEFAULT '',
	provider     TEXT NOT NULL DEFAULT 'google',
	provider_sub TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
)`

// EnsureSchema は必要なテーブルが存在することを保証する。
// 既に存在する場合は何もしない。
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, usersSchema); err != nil {
		return fmt.Errorf("failed to ensure users schema: %w", err)
	}
	return nil
}
