// Package services — InvitationService: arama daveti gönderimi.
//
// Davet akışı:
// 1. Session ID üret (timestamp + random suffix — process ömrü boyunca unique)
// 2. Precondition'ları kontrol et (kimlik var mı, alıcı geçerli mi)
// 3. Transport'a TAM BİR davet bırak — retry YOK (retry policy transport'undur)
//
// Precondition failure ile transport failure ayrımı önemlidir (bkz. errors.go):
// precondition'da transport'a hiç gidilmez ve kullanıcıya hata gösterilmez
// (caller misuse — sadece log), transport failure'da kullanıcıya transient
// mesaj gösterilir. Bu ayrımı CallService errors.Is ile yapar.
package services

import (
	"fmt"
	"log"
	"time"

	"github.com/akinalp/swipecall/identity"
	"github.com/akinalp/swipecall/pkg"

	"github.com/google/uuid"
)

// ─── ISP Interface'leri ───

// InviteDispatcher, daveti wire'a bırakan minimal interface.
// ws.Client bu interface'i duck typing ile otomatik karşılar.
type InviteDispatcher interface {
	SendRoomInvitation(channelID, receiverID, senderID string) error
}

// ─── InvitationService Interface ───

// InvitationService, arama daveti operasyonları için iş mantığı interface'i.
type InvitationService interface {
	// GenerateSessionID, davet girişimi başına unique bir kimlik üretir.
	// Aynı ID medya kanalı adı ve arama geçmişi kaydı olarak da kullanılır.
	GenerateSessionID() string

	// SendInvitation, alıcıya tam bir davet gönderir.
	// Precondition hatalarında (kimliksiz caller, boş alıcı) transport'a
	// hiç gidilmez. Otomatik retry yoktur.
	SendInvitation(sessionID, receiverID string) error
}

// invitationService, InvitationService'in private implementasyonu.
type invitationService struct {
	identity   identity.Provider
	dispatcher InviteDispatcher
}

// NewInvitationService, constructor. Tüm dependency'ler injection ile alınır.
func NewInvitationService(identityProvider identity.Provider, dispatcher InviteDispatcher) InvitationService {
	return &invitationService{
		identity:   identityProvider,
		dispatcher: dispatcher,
	}
}

// GenerateSessionID, wall-clock timestamp + random suffix birleştirir.
// Timestamp kabaca sıralanabilirlik sağlar (log okunabilirliği), uuid suffix
// aynı milisaniyede başlayan eşzamanlı session'ların çakışmasını engeller.
func (s *invitationService) GenerateSessionID() string {
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("call_%d_%s", time.Now().UnixMilli(), suffix)
}

// SendInvitation, davet gönderir.
func (s *invitationService) SendInvitation(sessionID, receiverID string) error {
	// 1. Kimlik kontrolü — doğrulanmış kullanıcı yoksa transport'a gidilmez.
	sender := s.identity.CurrentUser()
	if sender == nil {
		return fmt.Errorf("%w: no authenticated user", pkg.ErrUnauthenticated)
	}

	// 2. Alıcı kontrolü
	if receiverID == "" {
		return fmt.Errorf("%w: empty receiver id", pkg.ErrBadRequest)
	}

	// 3. Kendini arayamaz
	if receiverID == sender.ID {
		return fmt.Errorf("%w: cannot call yourself", pkg.ErrBadRequest)
	}

	// 4. Tek dispatch — başarısızlıkta retry YOK.
	if err := s.dispatcher.SendRoomInvitation(sessionID, receiverID, sender.ID); err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrTransport, err)
	}

	log.Printf("[invite] invitation dispatched: %s → %s (session=%s)", sender.ID, receiverID, sessionID)
	return nil
}
