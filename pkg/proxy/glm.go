package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/haivivi/voicebridge/pkg/bridge"
	"github.com/haivivi/voicebridge/pkg/glm"
)

// GLMPath is the client-facing WebSocket path of the GLM pass-through.
const GLMPath = "/proxy"

const pipeQueueSize = 64

// NewGLMServer builds the GLM-side server: a single endpoint that pipes
// frames between client and upstream without touching them.
func NewGLMServer(addr string, dialer *glm.Client) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc(GLMPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("proxy: glm upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		slog.Info("proxy: client connected", "endpoint", "glm", "remote", r.RemoteAddr)

		p := newPipe(conn, dialer)
		if err := p.Run(r.Context()); err != nil {
			slog.Warn("proxy: pipe ended with error", "pipe", p.id, "error", err)
		}
		slog.Info("proxy: client disconnected", "endpoint", "glm", "remote", r.RemoteAddr)
	})

	return newServer("glm", addr, GLMPath, mux)
}

// ================== pass-through pipe ==================

// wsMessage is one raw WebSocket message, either direction.
type wsMessage struct {
	messageType int
	data        []byte
}

// pipe shuttles frames verbatim between one client and one GLM upstream.
// Client messages read before the upstream handshake completes queue in
// the client channel and flush as soon as the upstream is connected. The
// Run goroutine is the only writer to either connection.
type pipe struct {
	id       string
	client   *websocket.Conn
	upstream *websocket.Conn
	dialer   *glm.Client

	sent, received int

	closeChan chan struct{}
	closeOnce sync.Once
}

func newPipe(client *websocket.Conn, dialer *glm.Client) *pipe {
	return &pipe{
		id:        uuid.NewString(),
		client:    client,
		dialer:    dialer,
		closeChan: make(chan struct{}),
	}
}

func (p *pipe) Run(ctx context.Context) error {
	defer p.shutdown()

	clientCh := make(chan wsMessage, pipeQueueSize)
	clientErr := make(chan error, 1)
	go p.readLoop(p.client, clientCh, clientErr)

	upstream, err := p.dialer.DialContext(ctx)
	if err != nil {
		slog.Error("proxy: glm dial failed", "pipe", p.id, "error", err)
		p.sendClientError("服务器连接错误: " + err.Error())
		p.closeClient(websocket.CloseNormalClosure, "Server connection closed")
		return fmt.Errorf("dial glm upstream: %w", err)
	}
	p.upstream = upstream
	slog.Info("proxy: glm upstream connected", "pipe", p.id)

	upCh := make(chan wsMessage, pipeQueueSize)
	upErr := make(chan error, 1)
	go p.readLoop(upstream, upCh, upErr)

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg := <-clientCh:
			if err := upstream.WriteMessage(msg.messageType, msg.data); err != nil {
				slog.Warn("proxy: glm upstream write failed", "pipe", p.id, "error", err)
				return nil
			}
			p.sent++

		case err := <-clientErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("proxy: glm client closed", "pipe", p.id)
			} else {
				slog.Warn("proxy: glm client read failed", "pipe", p.id, "error", err)
			}
			return nil

		case msg := <-upCh:
			if err := p.client.WriteMessage(msg.messageType, msg.data); err != nil {
				slog.Warn("proxy: glm client write failed", "pipe", p.id, "error", err)
				return nil
			}
			p.received++

		case err := <-upErr:
			code, text, detail := bridge.SanitizeClose(err)
			slog.Info("proxy: glm upstream closed", "pipe", p.id, "detail", detail)
			p.closeClient(code, text)
			return nil
		}
	}
}

func (p *pipe) shutdown() {
	p.closeOnce.Do(func() {
		close(p.closeChan)
		p.client.Close()
		if p.upstream != nil {
			p.upstream.Close()
		}
		slog.Info("proxy: pipe closed", "pipe", p.id,
			"sent", p.sent, "received", p.received)
	})
}

func (p *pipe) readLoop(conn *websocket.Conn, ch chan<- wsMessage, errCh chan<- error) {
	for {
		select {
		case <-p.closeChan:
			return
		default:
		}

		mt, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}
		select {
		case ch <- wsMessage{messageType: mt, data: data}:
		case <-p.closeChan:
			return
		}
	}
}

func (p *pipe) sendClientError(msg string) {
	data, err := json.Marshal(map[string]string{"type": "error", "error": msg})
	if err != nil {
		return
	}
	if err := p.client.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("proxy: glm error notice not delivered", "pipe", p.id, "error", err)
	}
}

func (p *pipe) closeClient(code int, text string) {
	deadline := time.Now().Add(time.Second)
	p.client.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), deadline)
}
