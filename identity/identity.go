// Package identity, yerel kullanıcının kimliğini sağlar.
//
// Client tarafında kimlik, backend'in login sırasında verdiği JWT access
// token'dan türetilir. Bu core kullanıcı verisini hiçbir yerden fetch etmez —
// token'ın içindeki claims yeterlidir (user_id + username).
//
// Doğrulanmış kimliğin YOKLUĞU bir precondition failure'dır: davet
// gönderilmez, transport'a hiç gidilmez (bkz. InvitationService).
package identity

import (
	"fmt"
	"log"
	"sync"

	"github.com/akinalp/swipecall/models"

	"github.com/golang-jwt/jwt/v5"
)

// Provider, doğrulanmış yerel kullanıcıyı dönen interface.
// nil dönüşü = kimliksiz (token yok, geçersiz veya süresi dolmuş).
type Provider interface {
	CurrentUser() *models.User
}

// jwtProvider, Provider'ın JWT tabanlı implementasyonu.
// Token her CurrentUser çağrısında yeniden doğrulanır — expiry geçtiyse
// kimlik o andan itibaren yok sayılır, cache'lenmiş stale kimlik dönmez.
type jwtProvider struct {
	secret []byte

	// token: yerel olarak saklanan access token.
	// Token refresh akışı bu core'un dışında yaşar.
	token string
	mu    sync.RWMutex
}

// NewJWTProvider, constructor.
func NewJWTProvider(secret, accessToken string) Provider {
	return &jwtProvider{
		secret: []byte(secret),
		token:  accessToken,
	}
}

// CurrentUser, token geçerliyse kullanıcıyı, değilse nil döner.
func (p *jwtProvider) CurrentUser() *models.User {
	p.mu.RLock()
	tokenString := p.token
	p.mu.RUnlock()

	if tokenString == "" {
		return nil
	}

	claims, err := p.validate(tokenString)
	if err != nil {
		log.Printf("[identity] token validation failed: %v", err)
		return nil
	}

	return &models.User{
		ID:       claims.UserID,
		Username: claims.Username,
	}
}

// validate, JWT access token'ı doğrular ve claims'i döner.
func (p *jwtProvider) validate(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
