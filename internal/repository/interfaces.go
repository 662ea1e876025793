// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/authgate/internal/model"
)

// ErrStoreUnavailable はユーザーストアに到達できないことを表すセンチネルエラー。
// 接続確立の失敗やコネクション切断が該当する。
// ストアに到達したうえで書き込みが拒否された場合は通常のエラーとして返す。
var ErrStoreUnavailable = errors.New("user store unavailable")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// UpsertByEmail はemailをキーとして原子的にUPSERTし、確定後のレコードを返す。
	// 新規作成時はuser.ID・user.CreatedAtがそのまま採用される。
	// 既存レコードがある場合はidとcreated_atを保持したまま、
	// name/picture/provider/provider_sub/updated_atのみを更新する。
	// 同一emailへの並行呼び出しでもレコードは1件しか作られない。
	UpsertByEmail(ctx context.Context, user *model.User) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
