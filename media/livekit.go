// Package media, medya kanalı (ses/video) transport adapter'ını barındırır.
//
// Gerçek medya akışı LiveKit SDK'sının işidir — bu core medyaya dokunmaz.
// Buradaki adapter'ın sorumlulukları:
// 1. Kanala katılım için LiveKit access token'ı üretmek (JWT)
// 2. Aktif kanal bilgisini (channel + token + URL) tutmak
// 3. Mute/kamera state'ini takip edip SDK'ya iletilecek komutları saklamak
//
// Token generation nedir?
// LiveKit'e bağlanmak için client'ın bir JWT token'a ihtiyacı var.
// Token, LiveKit'in API key/secret çiftiyle imzalanır ve hangi odaya
// katılabileceğini, yayın yapıp yapamayacağını (grant'lar) taşır.
package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akinalp/swipecall/config"
	"github.com/akinalp/swipecall/models"
	"github.com/akinalp/swipecall/pkg"

	// LiveKit Go SDK — token generation için.
	// `auth` paketi JWT token oluşturma API'sini sağlar.
	"github.com/livekit/protocol/auth"
)

// Transport, medya katmanının collaborator kontratıdır.
// Tüm operasyonlar hata dönebilir; JoinChannel hatası aramayı iptal eder,
// LeaveChannel hatası loglanıp yutulur (teardown koşulsuz ilerler).
type Transport interface {
	JoinChannel(ctx context.Context, channelID string, opts models.MediaOptions) (*models.ChannelInfo, error)
	LeaveChannel() error
	MuteLocalAudio(muted bool) error
	MuteLocalVideo(muted bool) error
	SwitchCamera() error
	CurrentChannelInfo() (*models.ChannelInfo, error)
}

// livekitTransport, Transport'un LiveKit tabanlı implementasyonu.
type livekitTransport struct {
	cfg config.LiveKitConfig

	// identity/name: token'a gömülen yerel kullanıcı kimliği.
	identity string
	name     string

	// current: aktif kanal bilgisi (nil = kanalda değil).
	current *models.ChannelInfo

	// Local medya state'i — SDK'ya iletilen son komutların yansıması.
	audioMuted bool
	videoMuted bool

	mu sync.Mutex
}

// NewLiveKitTransport, constructor.
func NewLiveKitTransport(cfg config.LiveKitConfig, identity, name string) Transport {
	return &livekitTransport{
		cfg:      cfg,
		identity: identity,
		name:     name,
	}
}

// JoinChannel, verilen kanal için access token üretir ve kanalı aktif olarak
// işaretler. Tek kanal kuralı: zaten bir kanaldayken join reddedilir —
// aktif kanal bilgisi asla sessizce üzerine yazılmaz. Çağıran önce
// LeaveChannel ile çıkmalıdır.
func (t *livekitTransport) JoinChannel(ctx context.Context, channelID string, opts models.MediaOptions) (*models.ChannelInfo, error) {
	if channelID == "" {
		return nil, fmt.Errorf("%w: empty channel id", pkg.ErrBadRequest)
	}
	if t.cfg.APIKey == "" || t.cfg.APISecret == "" {
		return nil, fmt.Errorf("%w: livekit credentials missing", pkg.ErrTransport)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	canPublish := true
	canSubscribe := true

	// auth.NewAccessToken: LiveKit'in JWT builder'ı.
	// API key + secret ile imzalanır, client bununla LiveKit'e bağlanır.
	at := auth.NewAccessToken(t.cfg.APIKey, t.cfg.APISecret)

	grant := &auth.VideoGrant{
		RoomJoin:     true,
		Room:         channelID, // LiveKit room name = session/channel ID
		CanPublish:   &canPublish,
		CanSubscribe: &canSubscribe,
	}

	at.AddGrant(grant).
		SetIdentity(t.identity).
		SetName(t.name).
		SetValidFor(24 * time.Hour) // Uzun validite — LiveKit disconnect'i kendisi yönetir

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to generate livekit token: %w", err)
	}

	info := &models.ChannelInfo{
		Channel: channelID,
		Token:   token,
		URL:     t.cfg.URL,
	}

	// Check-and-set commit noktasında atomiktir: iki eşzamanlı join'den
	// yalnızca biri kanalı alır.
	t.mu.Lock()
	if t.current != nil {
		active := t.current.Channel
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: already in channel %s", pkg.ErrInvalidState, active)
	}
	t.current = info
	t.audioMuted = !opts.Audio
	t.videoMuted = !opts.Video
	t.mu.Unlock()

	return info, nil
}

// LeaveChannel, aktif kanalı bırakır. Kanalda değilken çağrılması no-op'tur.
func (t *livekitTransport) LeaveChannel() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = nil
	t.audioMuted = false
	t.videoMuted = false
	return nil
}

// MuteLocalAudio, yerel mikrofonu kapatır/açar.
func (t *livekitTransport) MuteLocalAudio(muted bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return fmt.Errorf("%w: not in a channel", pkg.ErrInvalidState)
	}
	t.audioMuted = muted
	return nil
}

// MuteLocalVideo, yerel kamerayı kapatır/açar.
func (t *livekitTransport) MuteLocalVideo(muted bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return fmt.Errorf("%w: not in a channel", pkg.ErrInvalidState)
	}
	t.videoMuted = muted
	return nil
}

// SwitchCamera, ön/arka kamera geçişini SDK'ya iletir.
func (t *livekitTransport) SwitchCamera() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return fmt.Errorf("%w: not in a channel", pkg.ErrInvalidState)
	}
	return nil
}

// CurrentChannelInfo, aktif kanal bilgisini döner.
func (t *livekitTransport) CurrentChannelInfo() (*models.ChannelInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return nil, fmt.Errorf("%w: not in a channel", pkg.ErrNotFound)
	}
	info := *t.current
	return &info, nil
}
