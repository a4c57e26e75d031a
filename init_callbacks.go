// Package main — Signaling callback bağlantıları.
//
// ws paketi services paketini import edemez (circular dependency olurdu).
// Bunun yerine inbound signaling event'leri burada, wire-up sırasında
// service metotlarına bağlanır (Dependency Inversion).
//
// Stale koruması callback'lerin İÇİNDE değil CallService'tedir: gelen
// session ID aktif session ile eşleşmiyorsa event sessizce atılır.
package main

import (
	"log"

	"github.com/akinalp/swipecall/ws"
)

// initCallbacks, inbound signaling event'lerini service katmanına bağlar.
// Service'ler oluşturulduktan SONRA çağrılmalıdır.
func initCallbacks(signaling *ws.Client, svcs *Services) {
	signaling.SetCallbacks(ws.Callbacks{
		OnInviteDeclined: svcs.Call.InviteDeclined,
		OnRemoteEnd:      svcs.Call.EndRemote,

		// Signaling koptuğunda aktif arama sürdürülemez — temiz sökülür.
		// Reconnect politikası bu core'un dışındadır.
		OnDisconnect: func(err error) {
			log.Printf("[main] signaling disconnected: %v", err)
			svcs.Call.ForceReset()
		},
	})
}
