// Package models — User domain modeli.
package models

// User, doğrulanmış yerel kullanıcı kimliğidir.
// Access token'dan türetilir — bu core kullanıcı verisini DB'den okumaz.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
