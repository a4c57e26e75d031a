// Package services — ElapsedTimer: arama süresi sayacı.
//
// Connected'a geçişte başlatılır, arama bitince durdurulur. Her saniye
// elapsed sayacı artar ve formatlanmış süre ("MM:SS", 1 saatten sonra
// "HH:MM:SS") bus üzerinden yayınlanır — UI katmanı subscribe olup gösterir.
//
// Goroutine pattern: time.NewTicker + select + stopCh.
// Start/Stop idempotenttir: çalışmıyorken Stop çağırmak no-op'tur,
// çalışırken Start çağırmak sayacı sıfırdan başlatır — tick'ler asla
// üst üste schedule edilmez (eski goroutine önce durdurulur).
package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/akinalp/swipecall/ws"
)

// ElapsedTimer, arama süresi sayacının interface'i.
type ElapsedTimer interface {
	// Start, sayacı sıfırlar ve saniyelik tick döngüsünü başlatır.
	// Zaten çalışıyorsa yeniden başlatır (0'dan).
	Start()

	// Stop, tick döngüsünü durdurur ve sayacı sıfırlar. İdempotent.
	Stop()

	// Formatted, mevcut sürenin formatlanmış halini döner.
	Formatted() string

	// Running, sayacın çalışıp çalışmadığını döner.
	Running() bool
}

// elapsedTimer, ElapsedTimer'ın concrete implementasyonu.
type elapsedTimer struct {
	bus ws.EventPublisher

	mu      sync.Mutex
	running bool
	seconds int64

	// stopCh: aktif tick goroutine'ini durdurma sinyali.
	// Her Start yeni bir channel oluşturur — eski goroutine eskisini dinler,
	// böylece geç kalan bir tick yeni sayaca karışamaz.
	stopCh chan struct{}
}

// NewElapsedTimer, constructor.
func NewElapsedTimer(bus ws.EventPublisher) ElapsedTimer {
	return &elapsedTimer{bus: bus}
}

func (t *elapsedTimer) Start() {
	t.mu.Lock()
	t.stopLocked()
	t.seconds = 0
	t.running = true
	stopCh := make(chan struct{})
	t.stopCh = stopCh
	t.mu.Unlock()

	go t.run(stopCh)
}

func (t *elapsedTimer) Stop() {
	t.mu.Lock()
	t.stopLocked()
	t.seconds = 0
	t.mu.Unlock()
}

func (t *elapsedTimer) Formatted() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return formatElapsed(t.seconds)
}

func (t *elapsedTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// stopLocked, aktif goroutine'i (varsa) durdurur. Çağıran mu'yu tutar.
func (t *elapsedTimer) stopLocked() {
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
	t.running = false
}

// run, saniyelik tick döngüsü. stopCh kapanana kadar çalışır.
func (t *elapsedTimer) run(stopCh chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(stopCh)
		case <-stopCh:
			return
		}
	}
}

// tick, sayacı bir saniye ilerletir ve formatlanmış süreyi yayınlar.
// stopCh parametresi geç kalan tick'lerin yeni sayaca yazmasını engeller:
// sadece hâlâ aktif olan goroutine'in tick'i işlenir.
func (t *elapsedTimer) tick(stopCh chan struct{}) {
	t.mu.Lock()
	if !t.running || t.stopCh != stopCh {
		t.mu.Unlock()
		return
	}
	t.seconds++
	seconds := t.seconds
	formatted := formatElapsed(seconds)
	t.mu.Unlock()

	t.bus.Publish(ws.Event{
		Op:   ws.OpCallElapsed,
		Data: ws.ElapsedData{Formatted: formatted, Seconds: seconds},
	})
}

// formatElapsed, saniyeyi "MM:SS" olarak formatlar;
// 1 saati (3600 sn) geçince "HH:MM:SS" formatına geçer.
func formatElapsed(seconds int64) string {
	if seconds >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
