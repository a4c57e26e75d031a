package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	// Bu süre aşılırsa bağlantı kapatılır (ağ sorunu olabilir).
	writeWait = 10 * time.Second

	// heartbeatInterval: Sunucuya heartbeat gönderme aralığı.
	heartbeatInterval = 30 * time.Second

	// pongWait: Sunucudan mesaj beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: Sunucudan gelebilecek maksimum mesaj boyutu (byte).
	maxMessageSize = 4096

	// sendBufferSize: Outbound mesaj channel'ının buffer boyutu.
	// Buffer doluysa (bağlantı yavaş/kopuk) gönderim hata döner —
	// davet gönderimi bunu transport failure olarak raporlar.
	sendBufferSize = 64
)

// Callbacks, inbound signaling event'leri için çağrılan fonksiyonlardır.
//
// Callback pattern (Dependency Inversion): ws paketi services paketini
// import edemez (circular dependency). Bunun yerine wire-up sırasında
// (init_callbacks.go) service metotları buraya bağlanır.
// Callback'ler ReadPump goroutine'inden go func() ile çağrılır.
type Callbacks struct {
	// OnInviteDeclined: karşı taraf daveti reddetti.
	OnInviteDeclined func(channelID string)

	// OnRemoteEnd: karşı taraf aktif aramayı bitirdi.
	OnRemoteEnd func(channelID string)

	// OnDisconnect: signaling bağlantısı koptu (ReadPump sonlandı).
	OnDisconnect func(err error)
}

// Client, backend'e giden tek bir signaling WebSocket bağlantısını temsil eder.
//
// Go'da WebSocket bağlantı yönetimi pattern'i:
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: Sunucudan gelen event'leri okur → callback'lere iletir
// - WritePump: send channel'ından gelen mesajları bağlantıya yazar
//
// Neden iki goroutine?
// gorilla/websocket aynı anda sadece bir okuma ve bir yazma işlemi destekler.
// İki ayrı goroutine kullanarak okuma ve yazma birbirini bloklamaz.
type Client struct {
	conn *websocket.Conn

	// send: sunucuya gönderilecek mesajların buffer'landığı channel.
	send chan []byte

	callbacks Callbacks
	cbMu      sync.RWMutex

	// closeOnce: Close'un iki pump tarafından da güvenle çağrılabilmesi için.
	closeOnce sync.Once
	done      chan struct{}
}

// Dial, signaling sunucusuna bağlanır ve pump goroutine'lerini başlatır.
// accessToken, Authorization header'ı ile taşınır — sunucu bağlantıyı
// kimliklendirir.
func Dial(url, accessToken string) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("signaling dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("signaling dial failed: %w", err)
	}

	c := &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	go c.readPump()
	go c.writePump()

	log.Printf("[ws] signaling connected: %s", url)
	return c, nil
}

// SetCallbacks, inbound event callback'lerini bağlar.
// Wire-up sırasında (init_callbacks.go) bir kez çağrılır.
func (c *Client) SetCallbacks(cb Callbacks) {
	c.cbMu.Lock()
	c.callbacks = cb
	c.cbMu.Unlock()
}

// Close, bağlantıyı kapatır. İdempotenttir.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// ─── Outbound ───

// SendRoomInvitation, karşı tarafa arama daveti gönderir.
// Dönüş "delivery için kabul edildi" anlamındadır — karşı tarafın daveti
// aldığı garanti edilmez. Retry YOKTUR; retry policy transport'a aittir.
func (c *Client) SendRoomInvitation(channelID, receiverID, senderID string) error {
	return c.sendEvent(Event{
		Op: OpCallInvite,
		Data: CallInviteData{
			ChannelID:  channelID,
			ReceiverID: receiverID,
			SenderID:   senderID,
		},
	})
}

// SendInviteCancel, force-reset ile terk edilen bir daveti geri çeker.
// Best-effort — başarısızlık loglanır, çağıran akışı bloklamaz.
func (c *Client) SendInviteCancel(channelID, receiverID string) error {
	return c.sendEvent(Event{
		Op: OpCallInviteCancel,
		Data: CallInviteCancelData{
			ChannelID:  channelID,
			ReceiverID: receiverID,
		},
	})
}

// SendCallEnd, aktif aramanın bittiğini karşı tarafa bildirir.
func (c *Client) SendCallEnd(channelID, reason string) error {
	return c.sendEvent(Event{
		Op:   OpCallEnd,
		Data: CallEndData{ChannelID: channelID, Reason: reason},
	})
}

// sendEvent, event'i marshal edip send channel'ına bırakır.
// Channel doluysa veya bağlantı kapanmışsa hata döner — bloklamaz.
func (c *Client) sendEvent(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	select {
	case <-c.done:
		return fmt.Errorf("signaling connection closed")
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("signaling send buffer full")
	}
}

// ─── Pump'lar ───

// readPump, sunucudan gelen event'leri okur ve callback'lere dağıtır.
// Bağlantı kapanana kadar döngüde kalır.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline: %v", err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close: %v", err)
			}
			c.cbMu.RLock()
			onDisconnect := c.callbacks.OnDisconnect
			c.cbMu.RUnlock()
			if onDisconnect != nil {
				go onDisconnect(err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid message from server: %v", err)
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, sunucudan gelen event'leri türüne göre işler.
func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeatAck:
		// Heartbeat yanıtı — deadline'ı yenile.
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline: %v", err)
		}

	case OpCallInviteDecline:
		var data CallEndData
		if !decodeData(event, &data) {
			return
		}
		c.cbMu.RLock()
		cb := c.callbacks.OnInviteDeclined
		c.cbMu.RUnlock()
		if cb != nil {
			// go func() ile çağrılır — callback service mutex'i alır,
			// ReadPump'ı bloklamamalıdır.
			go cb(data.ChannelID)
		}

	case OpCallEnd:
		var data CallEndData
		if !decodeData(event, &data) {
			return
		}
		c.cbMu.RLock()
		cb := c.callbacks.OnRemoteEnd
		c.cbMu.RUnlock()
		if cb != nil {
			go cb(data.ChannelID)
		}

	default:
		log.Printf("[ws] unknown op from server: %s", event.Op)
	}
}

// writePump, send channel'ından gelen mesajları bağlantıya yazar ve
// periyodik heartbeat gönderir.
func (c *Client) writePump() {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[ws] write failed: %v", err)
				return
			}

		case <-ticker.C:
			hb, _ := json.Marshal(Event{Op: OpHeartbeat})
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, hb); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// decodeData, event.Data'yı (tipi `any`) hedef struct'a parse eder.
//
// json.Marshal + json.Unmarshal neden?
// event.Data tipi `any` (interface{}), doğrudan cast edemeyiz.
// JSON'a çevirip tekrar parse etmek en güvenli yöntem.
func decodeData(event Event, target any) bool {
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(dataBytes, target); err != nil {
		log.Printf("[ws] invalid %s payload: %v", event.Op, err)
		return false
	}
	return true
}
