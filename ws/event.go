// Package ws, signaling bağlantısını ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Client: Backend'e giden WebSocket signaling bağlantısı (davet gönderimi)
// - Bus: In-process event dağıtımı (Observer pattern) — UI katmanı subscribe olur
// - Event: Hem wire hem local bus üzerinde kullanılan mesaj formatı
//
// Event akışı (davet):
// 1. GestureService jest başlatır → CallService → InvitationService
// 2. InvitationService, Client.SendRoomInvitation ile wire event yazar
// 3. Backend daveti karşı tarafa iletir
// 4. Karşı taraf reddederse / bitirirse inbound event gelir → callback → CallService
//
// Event akışı (UI):
// 1. CallService state geçişi yapar → Bus.Publish(call_state_update)
// 2. UI katmanı subscribe olduğu handler'da overlay'i yeniden çizer
package ws

// Event, WebSocket veya local bus üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "call_invite", "call_state_update" vb.
// Data: Event'e özgü payload.
// Seq (sequence number): Her event'e verilen artan sayı — kaçan event tespiti için.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// ────────────────────────────────────────────
// Operation sabitleri
// ────────────────────────────────────────────

// Client → Server (wire) operasyonları
const (
	OpHeartbeat        = "heartbeat"          // Her 30sn'de gönderilir — "hâlâ bağlıyım" sinyali
	OpCallInvite       = "call_invite"        // Arama daveti gönder
	OpCallInviteCancel = "call_invite_cancel" // Force-reset sonrası daveti geri çek
	OpCallEnd          = "call_end"           // Aktif aramayı sonlandır (karşı tarafa bildirilir)
)

// Server → Client (wire) operasyonları
const (
	OpHeartbeatAck      = "heartbeat_ack"       // Heartbeat'e yanıt
	OpCallInviteDecline = "call_invite_decline" // Karşı taraf daveti reddetti
	// OpCallEnd iki yönlüdür: inbound geldiğinde karşı taraf aramayı bitirmiştir.
)

// Local bus operasyonları (wire'a çıkmaz — UI katmanı için)
const (
	OpCallStateUpdate  = "call_state_update" // Her lifecycle geçişinde yayınlanır
	OpCallElapsed      = "call_elapsed"      // Formatlanmış arama süresi (her saniye)
	OpDragProgress     = "drag_progress"     // Jest ilerlemesi (overlay rebuild tetikler)
	OpOverlayShow      = "overlay_show"
	OpOverlayRemove    = "overlay_remove"
	OpOverlayRebuild   = "overlay_rebuild"
	OpOverlayControls  = "overlay_controls" // Kontrol görünürlüğü değişti (auto-hide)
	OpHaptic           = "haptic"           // Titreşim tetiklendi (kilit anı)
	OpTransientMessage = "transient_message"
)

// ────────────────────────────────────────────
// Wire payload tipleri
// ────────────────────────────────────────────

// CallInviteData, call_invite event'inin payload'ı.
// ChannelID aynı zamanda session ID'dir — davet, medya kanalı ve arama
// geçmişi kaydı aynı kimliği paylaşır.
type CallInviteData struct {
	ChannelID  string `json:"channel_id"`
	ReceiverID string `json:"receiver_id"`
	SenderID   string `json:"sender_id"`
}

// CallInviteCancelData, call_invite_cancel event'inin payload'ı.
type CallInviteCancelData struct {
	ChannelID  string `json:"channel_id"`
	ReceiverID string `json:"receiver_id"`
}

// CallEndData, call_end event'inin payload'ı (her iki yön).
type CallEndData struct {
	ChannelID string `json:"channel_id"`
	Reason    string `json:"reason,omitempty"`
}

// DragProgressData, drag_progress bus event'inin payload'ı.
type DragProgressData struct {
	SessionID string  `json:"session_id"`
	Progress  float64 `json:"progress"`
}

// ElapsedData, call_elapsed bus event'inin payload'ı.
type ElapsedData struct {
	Formatted string `json:"formatted"` // "MM:SS" veya 1 saatten sonra "HH:MM:SS"
	Seconds   int64  `json:"seconds"`
}
