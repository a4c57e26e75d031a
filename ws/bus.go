package ws

import (
	"sync"
	"sync/atomic"
)

// EventPublisher, service katmanının UI'a event yayınlamak için kullandığı
// interface.
//
// Dependency Inversion: Service'ler Bus'ın concrete struct'ına değil, bu
// interface'e bağımlıdır. Böylece:
// 1. Service test edilirken fake EventPublisher kullanılabilir
// 2. State machine hiçbir render mekanizmasına doğrudan bağlanmaz —
//    UI katmanı subscribe olur ve kendini yeniden çizer
type EventPublisher interface {
	Publish(event Event)
}

// Handler, bus'a subscribe olan bir event işleyicisidir.
// Publish'i çağıran goroutine üzerinde SENKRON çalıştırılır — interaction
// mantığı tek UI/event thread'i varsayımıyla yazılmıştır, handler'lar kısa
// olmalıdır (overlay state güncelle, render işaretle). Publish eden
// service'ler kendi mutex'lerini bırakmadan yayın yapmaz; handler içinden
// servise geri sorgu (State, Session) serbesttir.
type Handler func(event Event)

// Bus, in-process event dağıtımını yapan merkezi yapıdır (Observer pattern).
//
// Bir "subject" (Bus) birden fazla "observer"ı (Handler) takip eder.
// CallService bir state geçişi yayınladığında tüm observer'lara iletilir.
type Bus struct {
	// handlers: subscriberID → Handler.
	// map kullanılır ki unsubscribe O(1) olsun.
	handlers map[int64]Handler
	mu       sync.RWMutex

	// nextID: subscriber kimlikleri için artan sayaç.
	nextID atomic.Int64

	// seq: Her yayınlanan event'e verilen artan sayaç.
	// atomic.Int64 — birden fazla goroutine güvenle artırabilir.
	seq atomic.Int64
}

// NewBus, yeni bir Bus oluşturur.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[int64]Handler),
	}
}

// Subscribe, bir handler kaydeder ve unsubscribe fonksiyonu döner.
//
//	unsub := bus.Subscribe(func(ev ws.Event) { ... })
//	defer unsub()
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish, event'i tüm subscriber'lara iletir.
//
// Handler'lar lock DIŞINDA çağrılır — bir handler Publish'i yeniden
// çağırabilir (ör. overlay event'i yeni bir etkileşim event'i doğurur),
// lock altında çağrılsaydı deadlock olurdu.
func (b *Bus) Publish(event Event) {
	event.Seq = b.seq.Add(1)

	b.mu.RLock()
	snapshot := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(event)
	}
}
