// Package models — Call lifecycle domain modeli.
//
// Arama yaşam döngüsü (state machine):
// - "idle": Aktif arama yok
// - "inviting": Davet gönderildi, transport onayı bekleniyor
// - "connecting": Davet kabul edildi, medya kanalına katılım sürüyor
// - "connected": Medya kanalı aktif — jest hâlâ sürüyor, bırakılırsa biter
// - "locked": Jest kilit eşiğini geçti — arama kalıcı, sadece explicit end bitirir
// - "ended": Terminal state — tüm kaynaklar bırakıldı
//
// Tüm state ephemeral (in-memory) — DB'ye sadece biten aramaların
// özeti yazılır (bkz. CallRecord).
package models

import "time"

// CallState, arama durumunu temsil eden typed constant.
type CallState string

const (
	CallStateIdle       CallState = "idle"
	CallStateInviting   CallState = "inviting"
	CallStateConnecting CallState = "connecting"
	CallStateConnected  CallState = "connected"
	CallStateLocked     CallState = "locked"
	CallStateEnded      CallState = "ended"
)

// Terminal, state'in terminal olup olmadığını döner.
// Ended'dan sonra hiçbir geçiş uygulanmaz.
func (s CallState) Terminal() bool {
	return s == CallStateEnded
}

// Active, bir oturumun hâlâ kaynak tuttuğu state'leri kapsar.
func (s CallState) Active() bool {
	switch s {
	case CallStateInviting, CallStateConnecting, CallStateConnected, CallStateLocked:
		return true
	}
	return false
}

// CallEndReason, aramanın neden bittiğini sınıflandırır.
// CallRecord'a yazılır ve state-change broadcast'inde taşınır.
type CallEndReason string

const (
	EndReasonReleased     CallEndReason = "released"      // Jest kilitlenmeden bırakıldı
	EndReasonHangup       CallEndReason = "hangup"        // Kilitli aramada explicit end
	EndReasonInviteFailed CallEndReason = "invite_failed" // Davet transport'u reddetti
	EndReasonJoinFailed   CallEndReason = "join_failed"   // Medya kanalına katılım başarısız
	EndReasonForceReset   CallEndReason = "force_reset"   // Yeni jest eskisini devirdi
	EndReasonRemote       CallEndReason = "remote"        // Karşı taraf bitirdi/reddetti
)

// CallSession, bir arama girişimini temsil eder — davetten sonlanmaya kadar.
// In-memory tutulur; jest başında oluşturulur, Ended'da kayıt düşülüp bırakılır.
type CallSession struct {
	// ID: davet girişimi başına bir kez üretilir (timestamp + uuid suffix).
	// Async completion'lar bu ID ile eşleştirilir — eşleşmeyen (stale)
	// completion'lar sessizce atılır.
	ID string `json:"id"`

	// PeerID: aranan kullanıcı. Oturum boyunca immutable.
	PeerID string `json:"peer_id"`

	State CallState `json:"state"`

	// StartedAt: Connected'a geçişte set edilir; öncesinde nil.
	StartedAt *time.Time `json:"started_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CallStateChange, her state geçişinde bus üzerinden broadcast edilen payload.
// UI katmanı bu event'e subscribe olur ve kendini yeniden çizer —
// state machine hiçbir render mekanizmasına doğrudan bağlı değildir.
type CallStateChange struct {
	SessionID string        `json:"session_id"`
	PeerID    string        `json:"peer_id"`
	From      CallState     `json:"from"`
	To        CallState     `json:"to"`
	Reason    CallEndReason `json:"reason,omitempty"`
}

// MediaOptions, medya kanalına katılım seçenekleri.
type MediaOptions struct {
	Audio bool `json:"audio"`
	Video bool `json:"video"`
}

// ChannelInfo, aktif medya kanalının bilgisi (kanal adı + bağlantı token'ı).
type ChannelInfo struct {
	Channel string `json:"channel"`
	Token   string `json:"token"`
	URL     string `json:"url"`
}
