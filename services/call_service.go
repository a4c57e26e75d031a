// Package services — CallService: arama yaşam döngüsü state machine'i.
//
// Geçiş tablosu:
//
//	Idle       --StartSession-->  Inviting    (session id üret, davet gönder)
//	Inviting   --davet OK-->      Connecting  (medya kanalına katıl)
//	Inviting   --davet FAIL-->    Ended       (transient hata mesajı)
//	Connecting --join OK-->       Connected   (timer başlat, overlay göster)
//	Connecting --join FAIL-->     Ended       (transient hata mesajı)
//	Connected  --Lock-->          Locked      (haptic, kalıcı UI)
//	Connected  --Release-->       Ended       (kanaldan çık, timer durdur)
//	Locked     --EndCall-->       Ended       (kanaldan çık, timer durdur)
//	non-Idle   --ForceReset-->    Idle        (yeni jest eskisini devirir)
//
// Stale-completion kuralı (generation counter):
// Davet gönderimi ve medya katılımı goroutine'lerde tamamlanır. Her session
// bir generation numarası taşır; completion geldiğinde numara hâlâ
// güncel değilse sonuç SESSİZCE atılır — asla yeni session'a uygulanmaz,
// asla kullanıcıya gösterilmez. Mutex bellek güvenliğini, generation
// kontrolü sıralama semantiğini sağlar.
//
// Hiçbir hata bu servisin public API'sinden dışarı exception gibi sızmaz:
// her failure path'i iyi tanımlı bir Ended geçişiyle biter.
package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/akinalp/swipecall/media"
	"github.com/akinalp/swipecall/models"
	"github.com/akinalp/swipecall/pkg"
	"github.com/akinalp/swipecall/repository"
	"github.com/akinalp/swipecall/ui"
	"github.com/akinalp/swipecall/ws"
)

// ─── ISP Interface'leri ───

// CallSignaler, arama sonlanma/geri çekme sinyallerini karşı tarafa ileten
// minimal interface. ws.Client bu interface'i duck typing ile karşılar.
type CallSignaler interface {
	SendInviteCancel(channelID, receiverID string) error
	SendCallEnd(channelID, reason string) error
}

// CallTimer, CallService'in ihtiyaç duyduğu timer operasyonları.
// ElapsedTimer bu interface'i karşılar.
type CallTimer interface {
	Start()
	Stop()
}

// ─── CallService Interface ───

// CallService, arama yaşam döngüsü operasyonları için iş mantığı interface'i.
type CallService interface {
	// StartSession, yeni bir arama girişimi başlatır ve session ID döner.
	// Aktif bir session varsa önce force-reset edilir ("always allow fresh
	// call" politikası — bekletme/reddetme yok).
	StartSession(peerID string, direction models.Direction, cardOrigin models.Point) string

	// Lock, Connected → Locked geçişini dener. Geçiş uygulandıysa true
	// döner — haptic feedback tam olarak bu bir kez tetiklenir.
	Lock() bool

	// Release, kilitlenmemiş bir jestin bırakılmasıdır: aktif (henüz
	// Locked olmamış) session'ı sonlandırır. Locked/Idle'da no-op.
	Release()

	// EndCall, kilitli aramayı explicit kullanıcı aksiyonuyla bitirir.
	EndCall()

	// ForceReset, aktif session'ı (varsa) atar ve Idle'a döner.
	ForceReset()

	// State, anlık lifecycle durumunu döner (aktif session yoksa Idle).
	State() models.CallState

	// Session, aktif session'ın kopyasını döner (nil = Idle).
	Session() *models.CallSession

	// InviteDeclined, karşı tarafın daveti reddettiği inbound sinyalini işler.
	// Session ID eşleşmezse (stale) sessizce atılır.
	InviteDeclined(sessionID string)

	// EndRemote, karşı tarafın aramayı bitirdiği inbound sinyalini işler.
	// Session ID eşleşmezse (stale) sessizce atılır.
	EndRemote(sessionID string)
}

// callService, CallService'in private implementasyonu.
type callService struct {
	inviter   InvitationService
	signaler  CallSignaler
	media     media.Transport
	timer     CallTimer
	presenter ui.Presenter
	feedback  ui.Feedback
	records   repository.CallRecordRepository
	bus       ws.EventPublisher

	// opts: medya kanalına katılım seçenekleri (varsayılan: sesli arama).
	opts models.MediaOptions

	// mu: current + generation'ı korur. Interaction mantığı tek UI thread'i
	// üzerinde akar ama async completion'lar goroutine'lerden gelir.
	mu sync.Mutex

	// current: aktif session (nil = Idle).
	current *models.CallSession

	// direction/cardOrigin: aktif jestin geometrisi — arama geçmişi kaydı
	// ve overlay yerleşimi için saklanır.
	direction  models.Direction
	cardOrigin models.Point

	// generation: her session oluşturma ve sonlanmada artar.
	// Async completion'lar kendi generation'larını taşır; eşleşmeyen
	// completion stale'dir ve atılır.
	generation uint64

	// pending: mutex altında kuyruklanan, unlock SONRASI çalışan yan
	// etkiler (bus publish'leri, transient mesajlar, overlay remove).
	// Bus handler'ları asla mu altında çağrılmaz — servise geri çağıran
	// bir subscriber kilitlenemez.
	pending []func()
}

// NewCallService, constructor. Tüm collaborator'lar injection ile alınır —
// testlerde fake'lerle deterministik çalışır.
func NewCallService(
	inviter InvitationService,
	signaler CallSignaler,
	mediaTransport media.Transport,
	timer CallTimer,
	presenter ui.Presenter,
	feedback ui.Feedback,
	records repository.CallRecordRepository,
	bus ws.EventPublisher,
) CallService {
	return &callService{
		inviter:   inviter,
		signaler:  signaler,
		media:     mediaTransport,
		timer:     timer,
		presenter: presenter,
		feedback:  feedback,
		records:   records,
		bus:       bus,
		opts:      models.MediaOptions{Audio: true},
	}
}

// ─── Jest tetikleyicileri ───

func (s *callService) StartSession(peerID string, direction models.Direction, cardOrigin models.Point) string {
	s.mu.Lock()

	// Re-entrancy: aktif session varken yeni jest → önce force-reset.
	// Sıraya koymak veya reddetmek yerine her zaman taze aramaya izin verilir.
	if s.current != nil {
		log.Printf("[call] force-reset: new gesture while session %s is %s", s.current.ID, s.current.State)
		s.endLocked(models.EndReasonForceReset, false)
	}

	s.generation++
	gen := s.generation

	session := &models.CallSession{
		ID:        s.inviter.GenerateSessionID(),
		PeerID:    peerID,
		State:     models.CallStateInviting,
		CreatedAt: time.Now().UTC(),
	}
	s.current = session
	s.direction = direction
	s.cardOrigin = cardOrigin
	sessionID := session.ID

	s.publishLocked(models.CallStateIdle, models.CallStateInviting, "")
	s.unlockAndFlush()

	log.Printf("[call] session started: %s → %s (id=%s)", models.CallStateIdle, models.CallStateInviting, sessionID)

	// Davet gönderimi asenkron — UI thread'i bloklanmaz, move event'leri
	// işlenmeye devam eder.
	go func() {
		err := s.inviter.SendInvitation(sessionID, peerID)
		s.onInviteResult(gen, err)
	}()

	return sessionID
}

func (s *callService) Lock() bool {
	s.mu.Lock()
	if s.current == nil || s.current.State != models.CallStateConnected {
		s.mu.Unlock()
		return false
	}

	s.current.State = models.CallStateLocked
	s.publishLocked(models.CallStateConnected, models.CallStateLocked, "")
	s.unlockAndFlush()

	// Haptic tam bir kez — Lock yalnızca Connected'dayken geçer, ikinci
	// çağrı yukarıdaki state kontrolüne takılır.
	s.feedback.Vibrate()
	s.feedback.ShowTransientMessage("Arama kilitlendi")
	s.presenter.Interact()

	log.Printf("[call] locked: session=%s", s.currentID())
	return true
}

func (s *callService) Release() {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.current == nil {
		return
	}

	switch s.current.State {
	case models.CallStateLocked:
		// Kilitli arama jest bırakınca bitmez — explicit EndCall gerekir.
		return
	case models.CallStateInviting, models.CallStateConnecting, models.CallStateConnected:
		s.endLocked(models.EndReasonReleased, true)
	}
}

func (s *callService) EndCall() {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.current == nil || s.current.State != models.CallStateLocked {
		log.Printf("[call] end ignored: no locked session")
		return
	}

	s.endLocked(models.EndReasonHangup, true)
}

func (s *callService) ForceReset() {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.current == nil {
		return
	}
	s.endLocked(models.EndReasonForceReset, false)
}

// ─── Sorgular ───

func (s *callService) State() models.CallState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return models.CallStateIdle
	}
	return s.current.State
}

func (s *callService) Session() *models.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// ─── Inbound sinyaller ───

func (s *callService) InviteDeclined(sessionID string) {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.current == nil || s.current.ID != sessionID {
		log.Printf("[call] stale invite-decline discarded: %s", sessionID)
		return
	}

	s.queueLocked(func() { s.feedback.ShowTransientMessage("Arama reddedildi") })
	s.endLocked(models.EndReasonRemote, false)
}

func (s *callService) EndRemote(sessionID string) {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.current == nil || s.current.ID != sessionID {
		log.Printf("[call] stale remote-end discarded: %s", sessionID)
		return
	}

	s.queueLocked(func() { s.feedback.ShowTransientMessage("Arama sonlandı") })
	s.endLocked(models.EndReasonRemote, false)
}

// ─── Async completion'lar ───

// onInviteResult, davet gönderiminin sonucunu işler.
func (s *callService) onInviteResult(gen uint64, err error) {
	s.mu.Lock()

	if gen != s.generation || s.current == nil {
		// Stale completion: session bu arada reset/end edilmiş.
		// Asla uygulanmaz, asla kullanıcıya gösterilmez.
		s.mu.Unlock()
		log.Printf("[call] stale invite completion discarded (gen=%d)", gen)
		return
	}

	if err != nil {
		if errors.Is(err, pkg.ErrUnauthenticated) || errors.Is(err, pkg.ErrBadRequest) {
			// Precondition failure: transport'a hiç gidilmedi, caller misuse.
			// Kullanıcıya hata gösterilmez — sadece log.
			log.Printf("[call] invitation precondition failed: %v", err)
		} else {
			log.Printf("[call] invitation dispatch failed: %v", err)
			s.queueLocked(func() { s.feedback.ShowTransientMessage("Arama başlatılamadı") })
		}
		s.endLocked(models.EndReasonInviteFailed, false)
		s.unlockAndFlush()
		return
	}

	s.current.State = models.CallStateConnecting
	s.publishLocked(models.CallStateInviting, models.CallStateConnecting, "")
	sessionID := s.current.ID
	s.unlockAndFlush()

	log.Printf("[call] invitation accepted for delivery: session=%s", sessionID)

	// Medya kanalına katılım asenkron. Join'e girmeden hemen önce generation
	// yeniden kontrol edilir — bu arada reset edilmiş bir session'ın
	// goroutine'i kanala hiç katılmaz.
	go func() {
		if !s.generationCurrent(gen) {
			log.Printf("[call] media join skipped: session superseded (gen=%d)", gen)
			return
		}
		info, joinErr := s.media.JoinChannel(context.Background(), sessionID, s.opts)
		s.onJoinResult(gen, info, joinErr)
	}()
}

// onJoinResult, medya kanalı katılımının sonucunu işler.
func (s *callService) onJoinResult(gen uint64, info *models.ChannelInfo, err error) {
	s.mu.Lock()

	if gen != s.generation || s.current == nil {
		s.mu.Unlock()
		log.Printf("[call] stale media completion discarded (gen=%d)", gen)
		// Join başarılı olduysa transport stale kanalı tutuyor olabilir.
		// Yalnızca transport HÂLÂ O KANALDAYSA bırakılır — yeni session
		// kendi kanalına bağlandıysa ona asla dokunulmaz.
		if err == nil && info != nil {
			cur, curErr := s.media.CurrentChannelInfo()
			if curErr == nil && cur.Channel == info.Channel {
				if leaveErr := s.media.LeaveChannel(); leaveErr != nil {
					log.Printf("[call] stale channel leave failed: %v", leaveErr)
				}
			}
		}
		return
	}

	if err != nil {
		log.Printf("[call] media join failed: %v", err)
		s.queueLocked(func() { s.feedback.ShowTransientMessage("Bağlantı kurulamadı") })
		s.endLocked(models.EndReasonJoinFailed, false)
		s.unlockAndFlush()
		return
	}

	now := time.Now().UTC()
	s.current.StartedAt = &now
	s.current.State = models.CallStateConnected
	s.publishLocked(models.CallStateConnecting, models.CallStateConnected, "")

	spec := models.OverlaySpec{
		SessionID:  s.current.ID,
		PeerID:     s.current.PeerID,
		CardOrigin: s.cardOrigin,
	}
	s.unlockAndFlush()

	s.timer.Start()
	s.presenter.ShowOverlay(spec)

	log.Printf("[call] connected: session=%s channel=%s", spec.SessionID, info.Channel)
}

// ─── Teardown ───

// endLocked, aktif session'ı koşulsuz söker. Çağıran mu'yu tutar.
//
// Temizlik sırası her failure'dan bağımsız ilerler: timer durur, kanal
// (katılınmışsa) bırakılır, overlay kalkar, kayıt düşülür. Leave hatası
// loglanır ve yutulur — teardown asla yarım kalmaz.
func (s *callService) endLocked(reason models.CallEndReason, notifyPeer bool) {
	session := s.current
	if session == nil {
		return
	}

	from := session.State
	joined := from == models.CallStateConnected || from == models.CallStateLocked

	// Bu andan itibaren tüm in-flight completion'lar stale'dir.
	s.generation++

	s.timer.Stop()

	if joined {
		if err := s.media.LeaveChannel(); err != nil {
			log.Printf("[call] channel leave failed (ignored): %v", err)
		}
	}

	// Overlay remove da bus'a yayınlar — unlock sonrasına kuyruklanır.
	// Olası ardıl session'ın ShowOverlay'i medya katılımından sonra gelir,
	// kuyruk her zaman ondan önce boşalmış olur.
	s.queueLocked(s.presenter.RemoveOverlay)

	// Karşı tarafa bildirim — best-effort, hata teardown'ı durdurmaz.
	switch {
	case reason == models.EndReasonForceReset && from == models.CallStateInviting,
		reason == models.EndReasonForceReset && from == models.CallStateConnecting:
		// Davet çıktı ama bağlantı kurulmadı: daveti explicit geri çek,
		// karşı taraf geri çekilmiş bir daveti kabul edemesin.
		if err := s.signaler.SendInviteCancel(session.ID, session.PeerID); err != nil {
			log.Printf("[call] invite cancel failed (ignored): %v", err)
		}
	case notifyPeer && joined, reason == models.EndReasonForceReset && joined:
		if err := s.signaler.SendCallEnd(session.ID, string(reason)); err != nil {
			log.Printf("[call] call end signal failed (ignored): %v", err)
		}
	case notifyPeer && from == models.CallStateInviting, notifyPeer && from == models.CallStateConnecting:
		// Erken bırakma: davet çıktıysa geri çek.
		if err := s.signaler.SendInviteCancel(session.ID, session.PeerID); err != nil {
			log.Printf("[call] invite cancel failed (ignored): %v", err)
		}
	}

	session.State = models.CallStateEnded
	s.publishLocked(from, models.CallStateEnded, reason)

	// Arama geçmişi kaydı — best-effort, goroutine'de yazılır.
	record := &models.CallRecord{
		ID:        session.ID,
		PeerID:    session.PeerID,
		Direction: s.direction,
		Reason:    reason,
		StartedAt: session.StartedAt,
		EndedAt:   time.Now().UTC(),
	}
	go s.writeRecord(record)

	// Session yok edilir — servis Idle'a döner, yeni jest temiz başlar.
	s.current = nil

	log.Printf("[call] ended: session=%s from=%s reason=%s", session.ID, from, reason)
}

// writeRecord, arama geçmişi kaydını yazar. Hata teardown'ı etkilemez.
func (s *callService) writeRecord(record *models.CallRecord) {
	if s.records == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.records.Create(ctx, record); err != nil {
		log.Printf("[call] failed to write call record %s: %v", record.ID, err)
	}
}

// publishLocked, state geçişini pending kuyruğuna ekler. Çağıran mu'yu
// tutar; event, unlockAndFlush ile mutex bırakıldıktan sonra yayınlanır.
func (s *callService) publishLocked(from, to models.CallState, reason models.CallEndReason) {
	change := models.CallStateChange{
		From:   from,
		To:     to,
		Reason: reason,
	}
	if s.current != nil {
		change.SessionID = s.current.ID
		change.PeerID = s.current.PeerID
	}

	s.queueLocked(func() {
		s.bus.Publish(ws.Event{Op: ws.OpCallStateUpdate, Data: change})
	})
}

// queueLocked, yan etkiyi unlock sonrasına erteler. Çağıran mu'yu tutar.
func (s *callService) queueLocked(fn func()) {
	s.pending = append(s.pending, fn)
}

// unlockAndFlush, mu'yu bırakır ve kuyruklanan yan etkileri sırayla
// çalıştırır. mu.Unlock yerine, kuyruğa yazmış olabilecek her path'te
// kullanılır — boş kuyrukla çağrılması serbesttir.
func (s *callService) unlockAndFlush() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// generationCurrent, verilen generation'ın hâlâ aktif session'a ait olup
// olmadığını söyler.
func (s *callService) generationCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation && s.current != nil
}

// currentID, log için aktif session ID'sini döner (lock'suz, sadece log).
func (s *callService) currentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.ID
}
