// Package models — Gesture (jest) domain modelleri.
//
// Long-press-and-drag arama jesti:
// 1. Kullanıcı arkadaş kartına uzun basar → jest başlar, arama daveti gider
// 2. Parmağını hesaplanan hedef noktaya doğru sürükler → progress artar
// 3. Progress kilit eşiğini geçerse arama "kilitlenir" (kalıcı tam ekran)
// 4. Eşiği geçmeden bırakırsa arama iptal olur
//
// Direction ve TargetPoint jest BAŞLANGICINDA bir kez hesaplanır ve jest
// boyunca değişmez — her move event'inde yeniden hesaplamak frame'ler arası
// deterministik olmayan yön değişimlerine yol açar (defect sayılır).
package models

// Point, ekran koordinatlarında bir 2D noktadır.
// Koordinat sistemi: (0,0) sol üst köşe, X sağa, Y aşağı artar (mobil standart).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds, ekranın (veya jest alanının) genişlik/yükseklik sınırlarıdır.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Direction, jestin hangi ekran kenarına doğru ilerleyeceğini belirten
// typed constant. Jest başlangıcında bir kez sınıflandırılır.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// DragState, tek bir aktif jestin geometrik durumudur.
//
// Sahiplik: Her jest kendi DragState'ini oluşturur; eşzamanlı jestler arası
// paylaşım yoktur. Yeni bir long-press aktif jesti force-reset eder.
type DragState struct {
	// Origin: jest başladığı andaki pointer konumu. Immutable.
	Origin Point `json:"origin"`

	// CardOrigin: basılan arkadaş kartının ekran konumu — overlay
	// yerleşimi için jest başında yakalanır. Immutable.
	CardOrigin Point `json:"card_origin"`

	// Direction: jest başında BİR KEZ hesaplanır, sonrasında immutable.
	Direction Direction `json:"direction"`

	// TargetPoint: kilit için ulaşılması gereken nokta.
	// Origin + Direction + ekran sınırlarından jest başında hesaplanır. Immutable.
	TargetPoint Point `json:"target_point"`

	// Progress: [0.0, 1.0] aralığına clamp'lenmiş ilerleme.
	// Her move event'inde yeniden hesaplanır — monotonik DEĞİLDİR
	// (kullanıcı parmağını geri çekebilir).
	Progress float64 `json:"progress"`
}

// OverlaySpec, overlay gösterilirken UI katmanına geçilen yerleşim bilgisi.
type OverlaySpec struct {
	SessionID  string `json:"session_id"`
	PeerID     string `json:"peer_id"`
	CardOrigin Point  `json:"card_origin"`
}

// OverlayVisibility, overlay kontrol butonlarının görünürlük durumudur.
// ControlsVisible true iken her kullanıcı etkileşimi auto-hide süresini
// sıfırdan başlatır (timer cancel-and-replace, asla üst üste kurulmaz).
type OverlayVisibility struct {
	ControlsVisible bool `json:"controls_visible"`
}
