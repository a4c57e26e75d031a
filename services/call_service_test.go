package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/akinalp/swipecall/identity"
	"github.com/akinalp/swipecall/models"
	"github.com/akinalp/swipecall/pkg"
	"github.com/akinalp/swipecall/ws"
)

// ─── Fake collaborator'lar ───
//
// Tüm fake'ler mutex'lidir — async completion'lar goroutine'lerden çağırır.

// fakeIdentity, sabit bir kullanıcı dönen identity.Provider.
type fakeIdentity struct {
	user *models.User
}

func (f *fakeIdentity) CurrentUser() *models.User { return f.user }

var _ identity.Provider = (*fakeIdentity)(nil)

// fakeDispatcher, wire'a giden davetleri kaydeden InviteDispatcher.
// block channel'ı set edilirse SendRoomInvitation o kapanana kadar bekler —
// stale-completion senaryoları için.
type fakeDispatcher struct {
	mu      sync.Mutex
	sent    []string // channelID'ler
	failErr error
	block   chan struct{}
}

func (f *fakeDispatcher) SendRoomInvitation(channelID, receiverID, senderID string) error {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.sent = append(f.sent, channelID)
	return nil
}

func (f *fakeDispatcher) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeSignaler, sonlanma sinyallerini sayan CallSignaler.
type fakeSignaler struct {
	mu      sync.Mutex
	cancels []string
	ends    []string
}

func (f *fakeSignaler) SendInviteCancel(channelID, receiverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, channelID)
	return nil
}

func (f *fakeSignaler) SendCallEnd(channelID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends = append(f.ends, channelID)
	return nil
}

func (f *fakeSignaler) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cancels)
}

func (f *fakeSignaler) endCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ends)
}

// fakeMedia, media.Transport'un test implementasyonu.
type fakeMedia struct {
	mu        sync.Mutex
	joins     []string // commit edilen kanal ID'leri
	leaves    int
	joinErr   error
	leaveErr  error
	blockJoin chan struct{}
	// joinStarted: set edilirse JoinChannel bloklanmadan önce sinyal verir —
	// testler katılımın gerçekten in-flight olduğunu bilir.
	joinStarted chan struct{}
	current     string
}

func (f *fakeMedia) JoinChannel(ctx context.Context, channelID string, opts models.MediaOptions) (*models.ChannelInfo, error) {
	f.mu.Lock()
	block := f.blockJoin
	started := f.joinStarted
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	// Gerçek transport'un tek kanal kuralı: kanaldayken join reddedilir.
	if f.current != "" {
		return nil, fmt.Errorf("%w: already in channel %s", pkg.ErrInvalidState, f.current)
	}
	f.joins = append(f.joins, channelID)
	f.current = channelID
	return &models.ChannelInfo{Channel: channelID, Token: "fake-token"}, nil
}

func (f *fakeMedia) LeaveChannel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves++
	f.current = ""
	return f.leaveErr
}

func (f *fakeMedia) MuteLocalAudio(muted bool) error { return nil }
func (f *fakeMedia) MuteLocalVideo(muted bool) error { return nil }
func (f *fakeMedia) SwitchCamera() error             { return nil }

func (f *fakeMedia) CurrentChannelInfo() (*models.ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == "" {
		return nil, errors.New("not in a channel")
	}
	return &models.ChannelInfo{Channel: f.current}, nil
}

func (f *fakeMedia) joinCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.joins)
}

func (f *fakeMedia) leaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leaves
}

func (f *fakeMedia) channel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// fakeTimer, Start/Stop çağrılarını sayan CallTimer.
type fakeTimer struct {
	mu     sync.Mutex
	starts int
	stops  int
}

func (f *fakeTimer) Start() {
	f.mu.Lock()
	f.starts++
	f.mu.Unlock()
}

func (f *fakeTimer) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

func (f *fakeTimer) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

// fakePresenter, overlay operasyonlarını sayan ui.Presenter.
type fakePresenter struct {
	mu       sync.Mutex
	shows    int
	removes  int
	rebuilds int
}

func (f *fakePresenter) ShowOverlay(spec models.OverlaySpec) {
	f.mu.Lock()
	f.shows++
	f.mu.Unlock()
}

func (f *fakePresenter) RemoveOverlay() {
	f.mu.Lock()
	f.removes++
	f.mu.Unlock()
}

func (f *fakePresenter) RebuildOverlay() {
	f.mu.Lock()
	f.rebuilds++
	f.mu.Unlock()
}

func (f *fakePresenter) Interact() {}

func (f *fakePresenter) showCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shows
}

// fakeFeedback, haptic/mesaj çağrılarını sayan ui.Feedback.
type fakeFeedback struct {
	mu       sync.Mutex
	vibrates int
	messages []string
}

func (f *fakeFeedback) Vibrate() {
	f.mu.Lock()
	f.vibrates++
	f.mu.Unlock()
}

func (f *fakeFeedback) ShowTransientMessage(text string) {
	f.mu.Lock()
	f.messages = append(f.messages, text)
	f.mu.Unlock()
}

func (f *fakeFeedback) vibrateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vibrates
}

// fakeRecords, kayıtları in-memory toplayan CallRecordRepository.
type fakeRecords struct {
	mu      sync.Mutex
	records []*models.CallRecord
}

func (f *fakeRecords) Create(ctx context.Context, record *models.CallRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeRecords) GetByID(ctx context.Context, id string) (*models.CallRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRecords) ListRecent(ctx context.Context, limit int) ([]*models.CallRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRecords) ListByPeer(ctx context.Context, peerID string, limit int) ([]*models.CallRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRecords) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	return 0, nil
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// ─── Test harness ───

type callHarness struct {
	dispatcher *fakeDispatcher
	signaler   *fakeSignaler
	media      *fakeMedia
	timer      *fakeTimer
	presenter  *fakePresenter
	feedback   *fakeFeedback
	records    *fakeRecords
	bus        *recordingBus
	calls      CallService
}

func newCallHarness() *callHarness {
	h := &callHarness{
		dispatcher: &fakeDispatcher{},
		signaler:   &fakeSignaler{},
		media:      &fakeMedia{},
		timer:      &fakeTimer{},
		presenter:  &fakePresenter{},
		feedback:   &fakeFeedback{},
		records:    &fakeRecords{},
		bus:        &recordingBus{},
	}

	inviter := NewInvitationService(&fakeIdentity{user: &models.User{ID: "me", Username: "tester"}}, h.dispatcher)
	h.calls = NewCallService(inviter, h.signaler, h.media, h.timer, h.presenter, h.feedback, h.records, h.bus)
	return h
}

// waitFor, koşul sağlanana kadar poll eder — async completion'lar
// goroutine'lerde tamamlandığı için testler kısa süre bekleyebilir.
func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func waitForState(t *testing.T, calls CallService, want models.CallState) {
	t.Helper()
	waitFor(t, "state "+string(want), func() bool { return calls.State() == want })
}

// ─── Senaryolar ───

func TestCallService_HappyPathToConnected(t *testing.T) {
	h := newCallHarness()

	id := h.calls.StartSession("friend-1", models.DirectionDown, models.Point{X: 10, Y: 20})
	if id == "" {
		t.Fatal("StartSession returned empty session id")
	}

	waitForState(t, h.calls, models.CallStateConnected)

	if got := h.dispatcher.sentCount(); got != 1 {
		t.Errorf("invitations dispatched = %d, want 1", got)
	}
	if got := h.media.joinCount(); got != 1 {
		t.Errorf("channel joins = %d, want 1", got)
	}
	starts, _ := h.timer.counts()
	if starts != 1 {
		t.Errorf("timer starts = %d, want 1", starts)
	}
	if got := h.presenter.showCount(); got != 1 {
		t.Errorf("overlay shows = %d, want 1", got)
	}

	session := h.calls.Session()
	if session == nil || session.StartedAt == nil {
		t.Fatal("connected session missing StartedAt")
	}
}

func TestCallService_EmptyPeer_NoTransportCall(t *testing.T) {
	h := newCallHarness()

	h.calls.StartSession("", models.DirectionDown, models.Point{})

	waitForState(t, h.calls, models.CallStateIdle)

	// Precondition failure: transport'a hiç gidilmemeli, overlay açılmamalı.
	if got := h.dispatcher.sentCount(); got != 0 {
		t.Errorf("invitations dispatched = %d, want 0", got)
	}
	if got := h.presenter.showCount(); got != 0 {
		t.Errorf("overlay shows = %d, want 0", got)
	}
	if got := h.media.joinCount(); got != 0 {
		t.Errorf("channel joins = %d, want 0", got)
	}
}

func TestCallService_InviteTransportFailure(t *testing.T) {
	h := newCallHarness()
	h.dispatcher.failErr = errors.New("connection reset")

	h.calls.StartSession("friend-1", models.DirectionUp, models.Point{})

	waitForState(t, h.calls, models.CallStateIdle)

	if got := h.media.joinCount(); got != 0 {
		t.Errorf("channel joins = %d, want 0", got)
	}
	// Transport failure kullanıcıya gösterilir.
	if got := h.feedback.vibrateCount(); got != 0 {
		t.Errorf("vibrates = %d, want 0", got)
	}
	h.feedback.mu.Lock()
	messages := len(h.feedback.messages)
	h.feedback.mu.Unlock()
	if messages != 1 {
		t.Errorf("transient messages = %d, want 1", messages)
	}
}

func TestCallService_MediaJoinFailure(t *testing.T) {
	h := newCallHarness()
	h.media.joinErr = errors.New("sfu unreachable")

	h.calls.StartSession("friend-1", models.DirectionDown, models.Point{})

	waitForState(t, h.calls, models.CallStateIdle)

	// Overlay hiç gösterilmedi, timer hiç başlamadı.
	if got := h.presenter.showCount(); got != 0 {
		t.Errorf("overlay shows = %d, want 0", got)
	}
	starts, _ := h.timer.counts()
	if starts != 0 {
		t.Errorf("timer starts = %d, want 0", starts)
	}
}

func TestCallService_ReleaseWhileConnected(t *testing.T) {
	h := newCallHarness()

	h.calls.StartSession("friend-1", models.DirectionDown, models.Point{})
	waitForState(t, h.calls, models.CallStateConnected)

	h.calls.Release()

	if got := h.calls.State(); got != models.CallStateIdle {
		t.Errorf("state after release = %s, want idle", got)
	}
	if got := h.media.leaveCount(); got != 1 {
		t.Errorf("channel leaves = %d, want 1", got)
	}
	_, stops := h.timer.counts()
	if stops != 1 {
		t.Errorf("timer stops = %d, want 1", stops)
	}
	// Karşı tarafa bitiş sinyali gider.
	if got := h.signaler.endCount(); got != 1 {
		t.Errorf("call-end signals = %d, want 1", got)
	}
}

func TestCallService_LockThenReleaseIsNoop(t *testing.T) {
	h := newCallHarness()

	h.calls.StartSession("friend-1", models.DirectionDown, models.Point{})
	waitForState(t, h.calls, models.CallStateConnected)

	if !h.calls.Lock() {
		t.Fatal("Lock() failed from connected")
	}
	if got := h.feedback.vibrateCount(); got != 1 {
		t.Errorf("vibrates after lock = %d, want 1", got)
	}

	// İkinci Lock uygulanmaz, haptic tekrarlanmaz.
	if h.calls.Lock() {
		t.Error("second Lock() applied")
	}
	if got := h.feedback.vibrateCount(); got != 1 {
		t.Errorf("vibrates after second lock = %d, want 1", got)
	}

	// Kilitli arama jest bırakınca bitmez.
	h.calls.Release()
	if got := h.calls.State(); got != models.CallStateLocked {
		t.Errorf("state after release = %s, want locked", got)
	}
	starts, stops := h.timer.counts()
	if starts != 1 || stops != 0 {
		t.Errorf("timer starts/stops = %d/%d, want 1/0", starts, stops)
	}

	// Explicit end ile biter.
	h.calls.EndCall()
	if got := h.calls.State(); got != models.CallStateIdle {
		t.Errorf("state after EndCall = %s, want idle", got)
	}
	if got := h.media.leaveCount(); got != 1 {
		t.Errorf("channel leaves = %d, want 1", got)
	}
}

func TestCallService_ForceResetDiscardsStaleCompletion(t *testing.T) {
	h := newCallHarness()

	// İlk davet dispatch'te bloklanır.
	block := make(chan struct{})
	h.dispatcher.block = block

	first := h.calls.StartSession("friend-1", models.DirectionDown, models.Point{})
	waitForState(t, h.calls, models.CallStateInviting)

	// İkinci jest, ilki çözülmeden başlar — force-reset.
	h.dispatcher.mu.Lock()
	h.dispatcher.block = nil
	h.dispatcher.mu.Unlock()

	second := h.calls.StartSession("friend-2", models.DirectionUp, models.Point{})
	if second == first {
		t.Fatal("second session reused first session id")
	}

	waitForState(t, h.calls, models.CallStateConnected)

	// İlk daveti çöz — completion stale'dir, yeni session'a uygulanmamalı.
	close(block)

	// Stale completion join tetiklemiş olamaz: tek join, ikinci session için.
	waitFor(t, "stale completion settled", func() bool { return h.media.joinCount() == 1 })
	time.Sleep(20 * time.Millisecond)

	if got := h.media.joinCount(); got != 1 {
		t.Errorf("channel joins = %d, want 1", got)
	}
	h.media.mu.Lock()
	joined := h.media.joins[0]
	h.media.mu.Unlock()
	if joined != second {
		t.Errorf("joined channel %s, want %s", joined, second)
	}

	session := h.calls.Session()
	if session == nil || session.ID != second {
		t.Fatalf("active session = %+v, want id %s", session, second)
	}

	// Terk edilen davet explicit geri çekilir (withdrawn-invite sinyali).
	if got := h.signaler.cancelCount(); got != 1 {
		t.Errorf("invite cancels = %d, want 1", got)
	}
}

func TestCallService_StaleMediaJoinLeavesNewChannelUntouched(t *testing.T) {
	h := newCallHarness()

	// İlk session'ın medya katılımı transport içinde bloklanır.
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	h.media.mu.Lock()
	h.media.blockJoin = block
	h.media.joinStarted = started
	h.media.mu.Unlock()

	first := h.calls.StartSession("friend-1", models.DirectionDown, models.Point{})
	<-started // ilk katılım gerçekten in-flight

	// İkinci jest force-reset ile yeni session başlatır; onun katılımı
	// bloklanmadan ilerlesin.
	h.media.mu.Lock()
	h.media.blockJoin = nil
	h.media.joinStarted = nil
	h.media.mu.Unlock()

	second := h.calls.StartSession("friend-2", models.DirectionUp, models.Point{})
	waitForState(t, h.calls, models.CallStateConnected)

	if got := h.media.channel(); got != second {
		t.Fatalf("transport channel = %s, want %s", got, second)
	}

	// İlk (artık stale) katılımı serbest bırak — geç completion yeni
	// session'ın kanalına dokunmamalı.
	close(block)
	time.Sleep(20 * time.Millisecond)

	if got := h.calls.State(); got != models.CallStateConnected {
		t.Errorf("state after stale join = %s, want connected", got)
	}
	if got := h.media.channel(); got != second {
		t.Errorf("transport channel after stale join = %s, want %s", got, second)
	}
	if got := h.media.leaveCount(); got != 0 {
		t.Errorf("channel leaves = %d, want 0", got)
	}
	if got := h.media.joinCount(); got != 1 {
		t.Errorf("committed joins = %d, want 1", got)
	}

	session := h.calls.Session()
	if session == nil || session.ID != second || session.ID == first {
		t.Fatalf("active session = %+v, want id %s", session, second)
	}
}

func TestCallService_BusSubscriberCanQueryState(t *testing.T) {
	// Gerçek Bus: handler, geçiş event'i içinden servise geri sorgu yapar.
	// Publish mutex altında yapılsaydı bu test kilitlenirdi.
	bus := ws.NewBus()
	h := &callHarness{
		dispatcher: &fakeDispatcher{},
		signaler:   &fakeSignaler{},
		media:      &fakeMedia{},
		timer:      &fakeTimer{},
		presenter:  &fakePresenter{},
		feedback:   &fakeFeedback{},
		records:    &fakeRecords{},
	}
	inviter := NewInvitationService(&fakeIdentity{user: &models.User{ID: "me", Username: "tester"}}, h.dispatcher)
	calls := NewCallService(inviter, h.signaler, h.media, h.timer, h.presenter, h.feedback, h.records, bus)

	var mu sync.Mutex
	var observed []models.CallState
	bus.Subscribe(func(ev ws.Event) {
		if ev.Op != ws.OpCallStateUpdate {
			return
		}
		mu.Lock()
		observed = append(observed, calls.State())
		mu.Unlock()
	})

	calls.StartSession("friend-1", models.DirectionDown, models.Point{})
	waitForState(t, calls, models.CallStateConnected)
	calls.Release()

	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 4 {
		t.Fatalf("observed %d transitions, want 4 (%v)", len(observed), observed)
	}
	// Son geçiş yayınlandığında servis çoktan Idle'a dönmüştür.
	if observed[len(observed)-1] != models.CallStateIdle {
		t.Errorf("state at final transition = %s, want idle", observed[len(observed)-1])
	}
}

func TestCallService_RemoteEndAndStaleSignals(t *testing.T) {
	h := newCallHarness()

	id := h.calls.StartSession("friend-1", models.DirectionDown, models.Point{})
	waitForState(t, h.calls, models.CallStateConnected)

	// Eşleşmeyen session ID'li sinyal atılır.
	h.calls.EndRemote("call_bogus")
	if got := h.calls.State(); got != models.CallStateConnected {
		t.Errorf("state after stale remote end = %s, want connected", got)
	}

	// Eşleşen sinyal aramayı bitirir.
	h.calls.EndRemote(id)
	if got := h.calls.State(); got != models.CallStateIdle {
		t.Errorf("state after remote end = %s, want idle", got)
	}
	if got := h.media.leaveCount(); got != 1 {
		t.Errorf("channel leaves = %d, want 1", got)
	}
}

func TestCallService_WritesCallRecord(t *testing.T) {
	h := newCallHarness()

	h.calls.StartSession("friend-1", models.DirectionLeft, models.Point{})
	waitForState(t, h.calls, models.CallStateConnected)
	h.calls.Release()

	waitFor(t, "call record written", func() bool { return h.records.count() == 1 })

	h.records.mu.Lock()
	record := h.records.records[0]
	h.records.mu.Unlock()

	if record.PeerID != "friend-1" {
		t.Errorf("record peer = %s, want friend-1", record.PeerID)
	}
	if record.Direction != models.DirectionLeft {
		t.Errorf("record direction = %s, want left", record.Direction)
	}
	if record.Reason != models.EndReasonReleased {
		t.Errorf("record reason = %s, want released", record.Reason)
	}
	if record.StartedAt == nil {
		t.Error("record missing StartedAt for connected call")
	}
}

func TestCallService_PublishesStateTransitions(t *testing.T) {
	h := newCallHarness()

	h.calls.StartSession("friend-1", models.DirectionDown, models.Point{})
	waitForState(t, h.calls, models.CallStateConnected)
	h.calls.Release()

	// idle→inviting→connecting→connected→ended: 4 geçiş.
	if got := h.bus.countOp(ws.OpCallStateUpdate); got != 4 {
		t.Errorf("state updates = %d, want 4", got)
	}

	ev, _ := h.bus.lastOp(ws.OpCallStateUpdate)
	change := ev.Data.(models.CallStateChange)
	if change.To != models.CallStateEnded || change.Reason != models.EndReasonReleased {
		t.Errorf("last transition = %+v, want ended/released", change)
	}
}
