package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wildtrack/ml"
	"wildtrack/monitoring"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 64 << 10
)

// MessageType 消息类型
type MessageType string

const (
	MessagePrediction MessageType = "prediction"
	MessageError      MessageType = "error"
	MessageReload     MessageType = "reload"
)

// LiveMessage is one server to client frame.
type LiveMessage struct {
	Type      MessageType `json:"type"`
	ID        string      `json:"id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data,omitempty"`
	Error     *apiError   `json:"error,omitempty"`
}

// LiveRequest is one client frame: a selection plus an optional id echoed
// back in the reply.
type LiveRequest struct {
	ID string `json:"id"`
	ml.Selection
}

// ReloadNotice is broadcast after every artifact reload attempt.
type ReloadNotice struct {
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// PredictFunc runs one prediction for a live client.
type PredictFunc func(ctx context.Context, sel ml.Selection) (*ml.Prediction, error)

// client WebSocket客户端
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub WebSocket中心. Each connection answers its own requests in order;
// the hub only tracks connections and fans out broadcasts.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	upgrader   websocket.Upgrader
	predict    PredictFunc
	metrics    *monitoring.Metrics
	log        *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	stopped    chan struct{}
}

// NewHub 创建WebSocket中心
func NewHub(predict PredictFunc, origins []string, metrics *monitoring.Metrics, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(origins, origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		predict: predict,
		metrics: metrics,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Run 运行WebSocket中心，直到 Stop 被调用
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.metrics.ClientConnected(1)
			h.log.Debug("live client connected", zap.String("client", c.id), zap.Int("total", len(h.clients)))

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				c.close()
				h.metrics.ClientConnected(-1)
			}
			h.log.Debug("live client disconnected", zap.String("client", c.id), zap.Int("total", len(h.clients)))

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					h.log.Warn("live client send queue full, dropping broadcast", zap.String("client", c.id))
				}
			}

		case <-h.ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				c.close()
				h.metrics.ClientConnected(-1)
			}
			return
		}
	}
}

// Stop closes every connection and ends Run.
func (h *Hub) Stop() {
	h.cancel()
}

// Wait blocks until Run has returned.
func (h *Hub) Wait() {
	<-h.stopped
}

// ServeHTTP upgrades the request and serves one live-prediction connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 32),
		done: make(chan struct{}),
	}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	go c.writePump()
	go h.readPump(c)
}

// Broadcast 广播消息
func (h *Hub) Broadcast(msgType MessageType, data any) {
	payload, err := json.Marshal(LiveMessage{Type: msgType, Timestamp: time.Now(), Data: data})
	if err != nil {
		h.log.Error("marshal broadcast", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("websocket broadcast queue is full, dropping message")
	}
}

// NotifyReload announces a reload attempt to every live client.
func (h *Hub) NotifyReload(err error, loadedAt time.Time) {
	notice := ReloadNotice{OK: err == nil, LoadedAt: loadedAt}
	if err != nil {
		notice.Error = err.Error()
	}
	h.Broadcast(MessageReload, notice)
}

// writePump WebSocket写入泵
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// readPump WebSocket读取泵. Each request is answered before the next is read.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read", zap.String("client", c.id), zap.Error(err))
			}
			return
		}

		reply := h.answer(data)
		payload, err := json.Marshal(reply)
		if err != nil {
			h.log.Error("marshal live reply", zap.Error(err))
			continue
		}
		select {
		case c.send <- payload:
		case <-c.done:
			return
		}
	}
}

func (h *Hub) answer(data []byte) LiveMessage {
	var req LiveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return LiveMessage{
			Type:      MessageError,
			Timestamp: time.Now(),
			Error:     &apiError{Kind: kindBadRequest, Message: "invalid JSON: " + err.Error()},
		}
	}

	result, err := h.predict(h.ctx, req.Selection)
	if err != nil {
		_, apiErr := classify(err)
		return LiveMessage{Type: MessageError, ID: req.ID, Timestamp: time.Now(), Error: apiErr}
	}
	return LiveMessage{Type: MessagePrediction, ID: req.ID, Timestamp: time.Now(), Data: result}
}
