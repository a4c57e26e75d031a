// Package models — Call history domain modeli.
//
// Bitmiş aramaların kalıcı kaydı. Aktif arama state'i in-memory'dir;
// sadece sonlanan oturumların özeti SQLite'a yazılır (arama geçmişi ekranı).
package models

import "time"

// CallRecord, biten bir aramanın arama geçmişindeki satırıdır.
type CallRecord struct {
	ID        string        `json:"id"` // CallSession.ID ile aynı
	PeerID    string        `json:"peer_id"`
	Direction Direction     `json:"direction"` // Jestin sürükleme yönü
	Reason    CallEndReason `json:"reason"`
	StartedAt *time.Time    `json:"started_at,omitempty"` // nil = hiç bağlanamadı
	EndedAt   time.Time     `json:"ended_at"`
	CreatedAt time.Time     `json:"created_at"`
}

// DurationSeconds, bağlanmış bir aramanın saniye cinsinden süresini döner.
// Hiç bağlanmamış aramalar için 0.
func (r *CallRecord) DurationSeconds() int64 {
	if r.StartedAt == nil {
		return 0
	}
	return int64(r.EndedAt.Sub(*r.StartedAt).Seconds())
}
