// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// LoginReq は/auth/loginエンドポイントのリクエストボディを表します。
type LoginReq struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterReq は/auth/registerエンドポイントのリクエストボディを表します。
// 名前は英数字のみ、パスワードは8〜72文字です（bcrypt の上限）。
type RegisterReq struct {
	Name     string `json:"name" binding:"required,alphanum,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}
