// Package services — GestureService: long-press-and-drag jest denetleyicisi.
//
// Ham pointer event'lerini CallService geçişlerine ve geometry çıktılarına
// bağlar:
// - Start: yön + kilit noktası BİR KEZ hesaplanır, arama başlatılır
// - Move:  ilerleme her frame yeniden hesaplanır (O(1), side-effect'siz —
//          overlay rebuild ve tek seferlik kilit tetiği hariç)
// - End:   kilitlenmemişse arama biter; kilitliyse jest sonu no-op'tur
//
// Direction ve TargetPoint jest süresince SABITTIR — move event'i başına
// yeniden türetmek yasaktır (frame'ler arası determinizm bozulur).
package services

import (
	"log"
	"sync"

	"github.com/akinalp/swipecall/models"
	"github.com/akinalp/swipecall/pkg/geometry"
	"github.com/akinalp/swipecall/ui"
	"github.com/akinalp/swipecall/ws"
)

// ─── GestureService Interface ───

// GestureService, jest event'leri için giriş noktasıdır.
// Hiçbir metot hata dönmez — her failure path'i CallService içinde iyi
// tanımlı bir state geçişiyle sonlanır.
type GestureService interface {
	// OnGestureStart, arkadaş kartına long-press ile çağrılır.
	// Aktif bir session varsa CallService onu force-reset eder.
	OnGestureStart(peerID string, pos, cardOrigin models.Point, bounds models.Bounds)

	// OnGestureMove, her pointer hareketinde çağrılır (frame başına bir kez
	// olabilir). CallService Connected değilken no-op'tur.
	OnGestureMove(pos models.Point)

	// OnGestureEnd, parmak kalkınca çağrılır.
	OnGestureEnd()

	// Drag, aktif jestin DragState kopyasını döner (nil = jest yok).
	Drag() *models.DragState
}

// gestureService, GestureService'in private implementasyonu.
type gestureService struct {
	calls     CallService
	presenter ui.Presenter
	bus       ws.EventPublisher

	// lockThreshold: progress bu değeri AŞARSA kilit tetiklenir.
	lockThreshold float64

	mu   sync.Mutex
	drag *models.DragState
}

// NewGestureService, constructor.
func NewGestureService(calls CallService, presenter ui.Presenter, bus ws.EventPublisher, lockThreshold float64) GestureService {
	return &gestureService{
		calls:         calls,
		presenter:     presenter,
		bus:           bus,
		lockThreshold: lockThreshold,
	}
}

func (g *gestureService) OnGestureStart(peerID string, pos, cardOrigin models.Point, bounds models.Bounds) {
	// Geometri jest başında BİR KEZ hesaplanır ve jest boyunca cache'lenir.
	dir := geometry.DetermineDirection(pos, bounds)
	target := geometry.CalculateEndPosition(pos, bounds, dir)

	g.mu.Lock()
	g.drag = &models.DragState{
		Origin:      pos,
		CardOrigin:  cardOrigin,
		Direction:   dir,
		TargetPoint: target,
	}
	g.mu.Unlock()

	log.Printf("[gesture] start: peer=%s dir=%s origin=(%.0f,%.0f) target=(%.0f,%.0f)",
		peerID, dir, pos.X, pos.Y, target.X, target.Y)

	// Aktif session varsa StartSession içinde force-reset edilir.
	g.calls.StartSession(peerID, dir, cardOrigin)
}

func (g *gestureService) OnGestureMove(pos models.Point) {
	g.mu.Lock()
	drag := g.drag
	g.mu.Unlock()

	if drag == nil {
		return
	}

	// Kilit mantığı yalnızca Connected'dayken işler: Inviting/Connecting'de
	// henüz kilitleyecek arama yok, Locked'da zaten kilitli (move yok sayılır).
	if g.calls.State() != models.CallStateConnected {
		return
	}

	// O(1) yeniden hesap — monotonik değildir, [0,1]'e clamp'lidir.
	progress := geometry.Progress(drag.Origin, drag.TargetPoint, pos)

	g.mu.Lock()
	if g.drag != drag {
		// Jest bu arada değişti/bitti — eski move uygulanmaz.
		g.mu.Unlock()
		return
	}
	g.drag.Progress = progress
	sessionID := ""
	if session := g.calls.Session(); session != nil {
		sessionID = session.ID
	}
	g.mu.Unlock()

	g.bus.Publish(ws.Event{
		Op:   ws.OpDragProgress,
		Data: ws.DragProgressData{SessionID: sessionID, Progress: progress},
	})
	g.presenter.RebuildOverlay()

	if progress > g.lockThreshold {
		// Lock yalnızca Connected→Locked geçişinde true döner; haptic
		// CallService içinde tam bir kez tetiklenir.
		g.calls.Lock()
	}
}

func (g *gestureService) OnGestureEnd() {
	g.mu.Lock()
	g.drag = nil
	g.mu.Unlock()

	if g.calls.State() == models.CallStateLocked {
		// Kilitli arama jest bitince devam eder — explicit end gerekir.
		log.Printf("[gesture] end ignored: call is locked")
		return
	}

	// Kilitlenmeden bırakıldı: aktif session (Inviting/Connecting/Connected
	// hangisindeyse) sonlanır.
	g.calls.Release()
}

func (g *gestureService) Drag() *models.DragState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.drag == nil {
		return nil
	}
	copied := *g.drag
	return &copied
}
