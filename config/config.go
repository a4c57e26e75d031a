// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Her yerde ayrı ayrı os.Getenv() çağırmak yerine tüm ayarlar tek bir
// Config nesnesinde toplanır ve wire-up sırasında dağıtılır.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her biri tek bir concern'ü temsil eder.
type Config struct {
	Signaling SignalingConfig
	LiveKit   LiveKitConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Gesture   GestureConfig
}

// SignalingConfig, backend signaling WebSocket bağlantı ayarları.
type SignalingConfig struct {
	URL string // ör: wss://api.example.com/ws
}

// LiveKitConfig, LiveKit SFU server ayarları.
// APIKey/APISecret medya kanalı join token'ı üretmek için kullanılır.
type LiveKitConfig struct {
	URL       string // LiveKit server URL (ör: ws://localhost:7880)
	APIKey    string
	APISecret string
}

// AuthConfig, yerel access token doğrulama ayarları.
type AuthConfig struct {
	JWTSecret   string // Token imza anahtarı — backend ile aynı olmalı
	AccessToken string // Yerel olarak saklanan access token
}

// DatabaseConfig, arama geçmişi SQLite ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/swipecall.db)
}

// GestureConfig, jest davranış ayarları.
type GestureConfig struct {
	// LockThreshold: progress bu değeri AŞARSA arama kilitlenir.
	LockThreshold float64

	// ControlsAutoHideSeconds: overlay kontrollerinin etkileşimsiz
	// kalınca gizlenme süresi.
	ControlsAutoHideSeconds int
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env dosyasını yükle — dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	lockThreshold, err := strconv.ParseFloat(getEnv("GESTURE_LOCK_THRESHOLD", "0.9"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GESTURE_LOCK_THRESHOLD: %w", err)
	}
	if lockThreshold <= 0 || lockThreshold >= 1 {
		return nil, fmt.Errorf("GESTURE_LOCK_THRESHOLD must be in (0,1), got %v", lockThreshold)
	}

	autoHide, err := strconv.Atoi(getEnv("OVERLAY_AUTOHIDE_SECONDS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid OVERLAY_AUTOHIDE_SECONDS: %w", err)
	}

	cfg := &Config{
		Signaling: SignalingConfig{
			URL: getEnv("SIGNALING_URL", "ws://localhost:9090/ws"),
		},
		LiveKit: LiveKitConfig{
			URL:       getEnv("LIVEKIT_URL", "ws://localhost:7880"),
			APIKey:    os.Getenv("LIVEKIT_API_KEY"),
			APISecret: os.Getenv("LIVEKIT_API_SECRET"),
		},
		Auth: AuthConfig{
			JWTSecret:   os.Getenv("JWT_SECRET"),
			AccessToken: os.Getenv("ACCESS_TOKEN"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/swipecall.db"),
		},
		Gesture: GestureConfig{
			LockThreshold:           lockThreshold,
			ControlsAutoHideSeconds: autoHide,
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// getEnv, environment variable'ı okur; boşsa default değeri döner.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
