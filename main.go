// Package main, swipecall core'unun giriş noktasıdır.
//
// swipecall, sosyal uygulamanın jest tabanlı arama core'udur: arkadaş
// kartına long-press arama davetini başlatır, hedefe sürükleme aramayı
// kalıcı tam ekran moda "kilitler", erken bırakma iptal eder.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Arama geçmişi database'ini başlat
//  3. Access token'dan kimliği doğrula
//  4. Event bus'ı oluştur (UI katmanı buraya subscribe olur)
//  5. Signaling bağlantısını kur
//  6. Service'leri oluştur (adapter'lar + bus ile)
//  7. Inbound signaling callback'lerini bağla
//  8. Graceful shutdown
//
// Global değişken YOK — her şey burada oluşturulup birbirine bağlanıyor.
// UI katmanı (render, pointer event kaynağı) bu binary'nin dışındadır:
// jest event'lerini Services.Gesture'a iletir, bus'tan çizim event'i alır.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/akinalp/swipecall/config"
	"github.com/akinalp/swipecall/database"
	"github.com/akinalp/swipecall/identity"
	"github.com/akinalp/swipecall/repository"
	"github.com/akinalp/swipecall/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] swipecall core starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}

	// ─── 2. Database (arama geçmişi) ───
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	callRecords := repository.NewSQLiteCallRecordRepo(db.Conn)

	// ─── 3. Kimlik ───
	identityProvider := identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.AccessToken)
	user := identityProvider.CurrentUser()
	if user == nil {
		log.Fatalf("[main] no authenticated user: ACCESS_TOKEN missing or invalid")
	}
	log.Printf("[main] authenticated as %s (%s)", user.Username, user.ID)

	// ─── 4. Event Bus ───
	bus := ws.NewBus()

	// ─── 5. Signaling ───
	signaling, err := ws.Dial(cfg.Signaling.URL, cfg.Auth.AccessToken)
	if err != nil {
		log.Fatalf("[main] failed to connect signaling: %v", err)
	}
	defer signaling.Close()

	// ─── 6. Service'ler ───
	svcs := initServices(cfg, identityProvider, user, signaling, bus, callRecords)

	// ─── 7. Inbound callback'ler ───
	initCallbacks(signaling, svcs)

	log.Println("[main] ready")

	// ─── 8. Graceful shutdown ───
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("[main] shutting down...")

	// Aktif arama varsa temiz söküm: timer durur, kanal bırakılır,
	// karşı tarafa bildirim gider.
	svcs.Call.ForceReset()
	svcs.Timer.Stop()

	log.Println("[main] bye")
}
