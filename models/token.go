package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, JWT access token'ın içindeki veriler (payload).
//
// Backend login sırasında bu token'ı üretir; client yerel olarak saklar.
// Bu core her davet göndermeden önce token'ı doğrular — geçersiz veya
// süresi dolmuş token = unauthenticated caller (precondition failure).
//
// Bu struct models paketinde tanımlanır çünkü birden fazla katman
// (identity, services) tarafından kullanılır — circular dependency önlenir.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
