package ui

import "github.com/akinalp/swipecall/ws"

// Feedback, haptic/bildirim yüzeyinin kontratıdır.
// Fire-and-forget: dönüş değeri yoktur, çağıran sonucu beklemez.
type Feedback interface {
	Vibrate()
	ShowTransientMessage(text string)
}

// busFeedback, Feedback'in bus tabanlı implementasyonu.
// Platform titreşim/toast API'lerini UI katmanı çağırır; buradan sadece
// event yayınlanır.
type busFeedback struct {
	bus ws.EventPublisher
}

// NewBusFeedback, constructor.
func NewBusFeedback(bus ws.EventPublisher) Feedback {
	return &busFeedback{bus: bus}
}

func (f *busFeedback) Vibrate() {
	f.bus.Publish(ws.Event{Op: ws.OpHaptic})
}

func (f *busFeedback) ShowTransientMessage(text string) {
	f.bus.Publish(ws.Event{Op: ws.OpTransientMessage, Data: map[string]string{"text": text}})
}
