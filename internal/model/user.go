// Package model はドメインモデルを定義する。
package model

import "time"

// ProviderGoogle はGoogle IdPを示すプロバイダータグ。
// 現状サポートするIdPはGoogleのみ。
const ProviderGoogle = "google"

// User はサービス利用ユーザーを表す永続エンティティ。
// emailをユニークキーとし、同一emailのレコードは常に1件のみ存在する。
// IDは初回認証時に採番され、以降のログインでは変更されない。
type User struct {
	ID          string
	Email       string
	Name        string
	Picture     string
	Provider    string
	ProviderSub string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserView はAPIレスポンスで公開するユーザー情報。
// ProviderSubなどの内部属性は含めない。
type UserView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider"`
}

// PublicView はUserから公開用のUserViewを構築する。
func (u *User) PublicView() *UserView {
	return &UserView{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Picture:  u.Picture,
		Provider: u.Provider,
	}
}
