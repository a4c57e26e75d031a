// Package ui, presentation katmanına açılan adapter'ları barındırır.
//
// Bu core hiçbir şey render etmez. Overlay ve feedback operasyonları
// bus event'leri olarak yayınlanır; gerçek çizim UI katmanının işidir.
// Böylece state machine render mekanizmasından tamamen ayrışır —
// testlerde bus'a subscribe olup event'leri saymak yeterli olur.
package ui

import (
	"sync"
	"time"

	"github.com/akinalp/swipecall/models"
	"github.com/akinalp/swipecall/ws"
)

// Presenter, arama overlay'inin gösterim kontratıdır.
// Tüm operasyonlar idempotenttir: overlay yokken RemoveOverlay no-op'tur,
// overlay varken ShowOverlay mevcut olanı değiştirir.
type Presenter interface {
	ShowOverlay(spec models.OverlaySpec)
	RemoveOverlay()
	RebuildOverlay()

	// Interact, bir kullanıcı etkileşimini bildirir: kontroller görünür
	// olur ve auto-hide süresi sıfırdan başlar.
	Interact()
}

// busPresenter, Presenter'ın bus tabanlı implementasyonu.
// Overlay görünürlüğünü ve kontrol auto-hide timer'ını yönetir.
type busPresenter struct {
	bus      ws.EventPublisher
	autoHide time.Duration

	mu      sync.Mutex
	visible bool
	spec    models.OverlaySpec

	// controlsVisible: overlay açıkken kontrol butonlarının durumu.
	// Her etkileşimde ve her ShowOverlay'de auto-hide süresi yenilenir.
	controlsVisible bool

	// hideTimer: single-shot auto-hide timer'ı.
	// Yeniden kurulurken ÖNCE iptal edilir — asla üst üste kurulmaz.
	hideTimer *time.Timer
}

// NewBusPresenter, constructor.
func NewBusPresenter(bus ws.EventPublisher, autoHide time.Duration) Presenter {
	return &busPresenter{
		bus:      bus,
		autoHide: autoHide,
	}
}

// ShowOverlay, overlay'i gösterir. Zaten gösteriliyorsa yenisiyle değiştirir.
func (p *busPresenter) ShowOverlay(spec models.OverlaySpec) {
	p.mu.Lock()
	p.visible = true
	p.spec = spec
	p.controlsVisible = true
	p.rearmHideTimerLocked()
	p.mu.Unlock()

	p.bus.Publish(ws.Event{Op: ws.OpOverlayShow, Data: spec})
}

// RemoveOverlay, overlay'i kaldırır. Gösterilmiyorken no-op.
func (p *busPresenter) RemoveOverlay() {
	p.mu.Lock()
	if !p.visible {
		p.mu.Unlock()
		return
	}
	p.visible = false
	p.controlsVisible = false
	p.cancelHideTimerLocked()
	sessionID := p.spec.SessionID
	p.spec = models.OverlaySpec{}
	p.mu.Unlock()

	p.bus.Publish(ws.Event{Op: ws.OpOverlayRemove, Data: map[string]string{"session_id": sessionID}})
}

// RebuildOverlay, UI katmanına yeniden çizim sinyali verir. Gösterilmiyorken no-op.
func (p *busPresenter) RebuildOverlay() {
	p.mu.Lock()
	if !p.visible {
		p.mu.Unlock()
		return
	}
	spec := p.spec
	p.mu.Unlock()

	p.bus.Publish(ws.Event{Op: ws.OpOverlayRebuild, Data: spec})
}

// Interact, kontrolleri görünür yapar ve auto-hide süresini yeniler.
func (p *busPresenter) Interact() {
	p.mu.Lock()
	if !p.visible {
		p.mu.Unlock()
		return
	}
	wasVisible := p.controlsVisible
	p.controlsVisible = true
	p.rearmHideTimerLocked()
	p.mu.Unlock()

	if !wasVisible {
		p.publishControls(true)
	}
}

// rearmHideTimerLocked, auto-hide timer'ını iptal edip yeniden kurar.
// Çağıran mu'yu tutuyor olmalıdır.
func (p *busPresenter) rearmHideTimerLocked() {
	p.cancelHideTimerLocked()
	if p.autoHide <= 0 {
		return
	}
	p.hideTimer = time.AfterFunc(p.autoHide, p.onAutoHide)
}

// cancelHideTimerLocked, mevcut timer'ı (varsa) iptal eder.
func (p *busPresenter) cancelHideTimerLocked() {
	if p.hideTimer != nil {
		p.hideTimer.Stop()
		p.hideTimer = nil
	}
}

// onAutoHide, etkileşimsiz geçen süre dolunca kontrolleri gizler.
func (p *busPresenter) onAutoHide() {
	p.mu.Lock()
	if !p.visible || !p.controlsVisible {
		p.mu.Unlock()
		return
	}
	p.controlsVisible = false
	p.hideTimer = nil
	p.mu.Unlock()

	p.publishControls(false)
}

func (p *busPresenter) publishControls(visible bool) {
	p.bus.Publish(ws.Event{
		Op:   ws.OpOverlayControls,
		Data: models.OverlayVisibility{ControlsVisible: visible},
	})
}
