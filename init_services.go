// Package main — Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu collaborator interface'lerini constructor
// injection ile alır.
//
// ÖNEMLİ sıralama kuralları:
// 1. presenter/feedback/timer → CallService'den ÖNCE (dependency)
// 2. InvitationService → CallService'den ÖNCE
// 3. CallService → GestureService'den ÖNCE
// 4. Signaling callback'leri en SON bağlanır (bkz. init_callbacks.go) —
//    service'ler hazır olmadan inbound event işlenmemeli
package main

import (
	"time"

	"github.com/akinalp/swipecall/config"
	"github.com/akinalp/swipecall/identity"
	"github.com/akinalp/swipecall/media"
	"github.com/akinalp/swipecall/models"
	"github.com/akinalp/swipecall/repository"
	"github.com/akinalp/swipecall/services"
	"github.com/akinalp/swipecall/ui"
	"github.com/akinalp/swipecall/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Invitation services.InvitationService
	Call       services.CallService
	Gesture    services.GestureService
	Timer      services.ElapsedTimer
}

// initServices, tüm service'leri ve UI adapter'larını oluşturur.
func initServices(
	cfg *config.Config,
	identityProvider identity.Provider,
	user *models.User,
	signaling *ws.Client,
	bus *ws.Bus,
	callRecords repository.CallRecordRepository,
) *Services {
	autoHide := time.Duration(cfg.Gesture.ControlsAutoHideSeconds) * time.Second
	presenter := ui.NewBusPresenter(bus, autoHide)
	feedback := ui.NewBusFeedback(bus)

	mediaTransport := media.NewLiveKitTransport(cfg.LiveKit, user.ID, user.Username)

	timer := services.NewElapsedTimer(bus)
	invitation := services.NewInvitationService(identityProvider, signaling)
	call := services.NewCallService(
		invitation,
		signaling,
		mediaTransport,
		timer,
		presenter,
		feedback,
		callRecords,
		bus,
	)
	gesture := services.NewGestureService(call, presenter, bus, cfg.Gesture.LockThreshold)

	return &Services{
		Invitation: invitation,
		Call:       call,
		Gesture:    gesture,
		Timer:      timer,
	}
}
