// Package bridge wires one browser WebSocket to one Doubao realtime
// dialogue connection. Browsers cannot attach credential headers to a
// WebSocket upgrade, so the bridge dials the upstream itself, translates
// the client's JSON/binary protocol into upstream protocol frames, and
// feeds upstream events back as JSON control messages and raw TTS audio.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/haivivi/voicebridge/pkg/doubao"
	"github.com/haivivi/voicebridge/pkg/tap"
)

const (
	// finishDelay separates FINISH_SESSION from FINISH_CONNECTION during a
	// graceful shutdown so the server can flush session teardown first.
	finishDelay = 100 * time.Millisecond

	statusInterval = 2 * time.Second
	firstReplyWarn = 5 * time.Second

	clientQueueSize   = 64
	upstreamQueueSize = 64
)

// clientFrame is one raw WebSocket message from the browser side.
type clientFrame struct {
	messageType int
	data        []byte
}

// startRequest is a start_session waiting for the connection gate.
type startRequest struct {
	sessionID string
	config    *doubao.SessionConfig
}

// Bridge is the per-connection orchestrator. All session state is owned by
// the Run goroutine: reader goroutines only pump raw messages into
// channels, so every transition happens in one place and each WebSocket
// has exactly one writer.
type Bridge struct {
	id     string
	client *websocket.Conn
	dialer *doubao.Client
	base   *doubao.SessionConfig
	tap    *tap.Writer

	tracker tracker
	queue   *taskQueue
	pending *startRequest

	questionID int
	replyID    int
	replyOpen  bool

	upstream *websocket.Conn

	closeChan chan struct{}
	closeOnce sync.Once
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithSessionConfig sets the base session config; start_session fields
// (systemMessage, model) override a per-session copy of it.
func WithSessionConfig(cfg *doubao.SessionConfig) Option {
	return func(b *Bridge) { b.base = cfg }
}

// WithTap captures every upstream-leg frame to w.
func WithTap(w *tap.Writer) Option {
	return func(b *Bridge) { b.tap = w }
}

// WithQueueLimit bounds the pre-ready buffer.
func WithQueueLimit(n int) Option {
	return func(b *Bridge) { b.queue = newTaskQueue(n) }
}

// New creates a bridge for one accepted client connection. Run drives it.
func New(client *websocket.Conn, dialer *doubao.Client, opts ...Option) *Bridge {
	b := &Bridge{
		id:        uuid.NewString(),
		client:    client,
		dialer:    dialer,
		base:      doubao.DefaultSessionConfig(),
		queue:     newTaskQueue(defaultQueueLimit),
		closeChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ID returns the bridge correlation ID used in logs and taps.
func (b *Bridge) ID() string { return b.id }

// Run drives the session until either side closes or ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.shutdown()

	// The client may start talking while the upstream handshake is still in
	// flight; its messages queue in clientCh until the loop below drains them.
	clientCh := make(chan clientFrame, clientQueueSize)
	clientErr := make(chan error, 1)
	go b.clientLoop(clientCh, clientErr)

	b.tracker.state = StateConnecting
	connectID := doubao.NewConnectID()
	slog.Info("bridge: connecting upstream", "bridge", b.id, "connectId", connectID)

	upstream, err := b.dialer.DialContext(ctx, connectID)
	if err != nil {
		slog.Error("bridge: upstream handshake failed", "bridge", b.id, "error", err)
		b.sendError("服务器连接错误: "+err.Error(), nil)
		b.closeClient(websocket.CloseNormalClosure, "Server connection closed")
		return fmt.Errorf("dial upstream: %w", err)
	}
	b.upstream = upstream
	b.tracker.state = StateConnected

	if err := b.writeUpstream(doubao.NewStartConnectionFrame()); err != nil {
		b.sendError("服务器连接错误: "+err.Error(), nil)
		b.closeClient(websocket.CloseNormalClosure, "Server connection closed")
		return fmt.Errorf("send start connection: %w", err)
	}

	upCh := make(chan *doubao.Frame, upstreamQueueSize)
	upErr := make(chan error, 1)
	go b.upstreamLoop(upCh, upErr)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	warn := time.NewTimer(firstReplyWarn)
	defer warn.Stop()
	responded := false

	for {
		select {
		case <-ctx.Done():
			slog.Info("bridge: context cancelled", "bridge", b.id)
			b.finishUpstream()
			return ctx.Err()

		case msg := <-clientCh:
			b.handleClientMessage(msg)

		case err := <-clientErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("bridge: client disconnected", "bridge", b.id)
			} else {
				slog.Warn("bridge: client read failed", "bridge", b.id, "error", err)
			}
			b.finishUpstream()
			return nil

		case f := <-upCh:
			if !responded {
				responded = true
				warn.Stop()
			}
			b.handleUpstreamFrame(f)

		case err := <-upErr:
			b.handleUpstreamClosed(err)
			return nil

		case <-ticker.C:
			slog.Debug("bridge: session status",
				"bridge", b.id,
				"state", b.tracker.state,
				"established", b.tracker.established,
				"messages", b.tracker.messageCount,
				"buffered", b.queue.len(),
				"droppedAudio", b.queue.droppedAudio)

		case <-warn.C:
			if !responded {
				slog.Warn("bridge: no upstream response within 5s",
					"bridge", b.id, "state", b.tracker.state)
			}
		}
	}
}

func (b *Bridge) shutdown() {
	b.closeOnce.Do(func() { close(b.closeChan) })
	if b.upstream != nil {
		b.upstream.Close()
	}
	b.client.Close()
	b.tracker.state = StateClosed
	slog.Info("bridge: session closed", "bridge", b.id,
		"messages", b.tracker.messageCount, "questions", b.questionID)
}

// ================== reader pumps ==================

func (b *Bridge) clientLoop(ch chan<- clientFrame, errCh chan<- error) {
	for {
		select {
		case <-b.closeChan:
			return
		default:
		}

		mt, data, err := b.client.ReadMessage()
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}
		select {
		case ch <- clientFrame{messageType: mt, data: data}:
		case <-b.closeChan:
			return
		}
	}
}

func (b *Bridge) upstreamLoop(ch chan<- *doubao.Frame, errCh chan<- error) {
	for {
		select {
		case <-b.closeChan:
			return
		default:
		}

		_, data, err := b.upstream.ReadMessage()
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}

		f, err := doubao.Unmarshal(data)
		if err != nil {
			// Undecodable frames are dropped; the session continues.
			slog.Warn("bridge: undecodable upstream frame",
				"bridge", b.id, "error", err, "bytes", len(data))
			continue
		}
		select {
		case ch <- f:
		case <-b.closeChan:
			return
		}
	}
}

// ================== client → upstream ==================

func (b *Bridge) handleClientMessage(msg clientFrame) {
	count := b.tracker.countMessage()

	if msg.messageType == websocket.BinaryMessage {
		b.routeAudio(msg.data, classBinaryAudio)
		return
	}
	if msg.messageType != websocket.TextMessage {
		slog.Debug("bridge: ignoring client frame", "bridge", b.id, "messageType", msg.messageType)
		return
	}

	cm, err := ParseClientMessage(msg.data)
	if err != nil {
		slog.Warn("bridge: dropping malformed client message", "bridge", b.id, "error", err)
		return
	}
	slog.Debug("bridge: client message", "bridge", b.id, "type", cm.Type, "count", count)

	switch cm.Type {
	case TypeStartSession:
		b.handleStartSession(cm)
	case TypeAudioData:
		if cm.IsLast {
			slog.Debug("bridge: last audio chunk flagged", "bridge", b.id)
		}
		b.routeAudio([]byte(cm.Data), classBase64Audio)
	case TypeTextInput:
		b.routeText(cm.Text)
	case TypeFinishSession:
		b.handleFinishSession()
	case TypeFinishConnection:
		b.handleFinishConnection()
	default:
		slog.Warn("bridge: unknown client message type", "bridge", b.id, "type", cm.Type)
	}
}

func (b *Bridge) handleStartSession(cm *ClientMessage) {
	sessionID := cm.SessionID
	if sessionID == "" {
		sessionID = doubao.NewSessionID()
	}
	cfg := b.base.Clone()
	if cm.SystemMessage != "" {
		cfg.Dialog.SystemRole = cm.SystemMessage
	}
	if cm.Model != "" {
		cfg.SetModel(cm.Model)
	}
	b.tracker.model = cfg.Model()
	b.tracker.systemRole = cfg.Dialog.SystemRole
	slog.Debug("bridge: session config", "bridge", b.id,
		"sessionId", sessionID, "model", b.tracker.model, "systemRole", b.tracker.systemRole)

	req := &startRequest{sessionID: sessionID, config: cfg}
	if b.tracker.canStartSession() {
		b.emitStartSession(req)
		return
	}
	if b.pending != nil {
		slog.Warn("bridge: replacing pending start_session",
			"bridge", b.id, "old", b.pending.sessionID, "new", sessionID)
	}
	b.pending = req
	slog.Info("bridge: start_session deferred until connection established",
		"bridge", b.id, "sessionId", sessionID)
}

func (b *Bridge) emitStartSession(req *startRequest) {
	f, err := doubao.NewStartSessionFrame(req.sessionID, req.config)
	if err != nil {
		slog.Error("bridge: build start_session failed", "bridge", b.id, "error", err)
		return
	}
	b.tracker.sessionID = req.sessionID
	if err := b.writeUpstream(f); err != nil {
		return
	}
	b.tracker.state = StateSessionStarting
	slog.Info("bridge: session starting", "bridge", b.id,
		"sessionId", req.sessionID, "model", b.tracker.model)
}

func (b *Bridge) routeAudio(audio []byte, class itemClass) {
	if len(audio) == 0 {
		return
	}
	switch {
	case b.tracker.canSendTask():
		b.writeUpstream(doubao.NewAudioTaskFrame(b.tracker.sessionID, audio))
	case b.tracker.canBuffer():
		if b.queue.append(queueItem{class: class, audio: audio}) {
			slog.Warn("bridge: pre-ready buffer full, dropped oldest",
				"bridge", b.id, "buffered", b.queue.len())
		}
	default:
		slog.Warn("bridge: dropping audio, upstream unavailable",
			"bridge", b.id, "state", b.tracker.state, "bytes", len(audio))
	}
}

func (b *Bridge) routeText(text string) {
	if text == "" {
		slog.Warn("bridge: dropping empty text_input", "bridge", b.id)
		return
	}
	switch {
	case b.tracker.canSendTask():
		f, err := doubao.NewTextTaskFrame(b.tracker.sessionID, text)
		if err != nil {
			slog.Error("bridge: build text task failed", "bridge", b.id, "error", err)
			return
		}
		b.writeUpstream(f)
	case b.tracker.canBuffer():
		if b.queue.append(queueItem{class: classText, text: text}) {
			slog.Warn("bridge: pre-ready buffer full, dropped oldest",
				"bridge", b.id, "buffered", b.queue.len())
		}
	default:
		slog.Warn("bridge: dropping text_input, upstream unavailable",
			"bridge", b.id, "state", b.tracker.state)
	}
}

func (b *Bridge) handleFinishSession() {
	switch b.tracker.state {
	case StateSessionStarting, StateSessionActive:
		b.writeUpstream(doubao.NewFinishSessionFrame(b.tracker.sessionID))
		b.tracker.state = StateSessionEnding
	default:
		slog.Warn("bridge: finish_session without a session",
			"bridge", b.id, "state", b.tracker.state)
	}
}

func (b *Bridge) handleFinishConnection() {
	if b.upstream == nil || b.tracker.state == StateClosed {
		slog.Warn("bridge: finish_connection without upstream", "bridge", b.id)
		return
	}
	b.writeUpstream(doubao.NewFinishConnectionFrame())
}

// finishUpstream runs the graceful teardown after the client went away:
// FINISH_SESSION if a session is up, a short deferral, FINISH_CONNECTION.
func (b *Bridge) finishUpstream() {
	if b.upstream == nil {
		return
	}
	if b.tracker.state == StateSessionActive || b.tracker.state == StateSessionStarting {
		b.writeUpstream(doubao.NewFinishSessionFrame(b.tracker.sessionID))
		b.tracker.state = StateSessionEnding
		time.Sleep(finishDelay)
	}
	b.writeUpstream(doubao.NewFinishConnectionFrame())
}

func (b *Bridge) writeUpstream(f *doubao.Frame) error {
	data, err := doubao.Marshal(f)
	if err != nil {
		slog.Error("bridge: marshal upstream frame failed",
			"bridge", b.id, "event", doubao.EventName(f.Event), "error", err)
		return err
	}
	if err := b.upstream.WriteMessage(websocket.BinaryMessage, data); err != nil {
		slog.Warn("bridge: upstream write failed",
			"bridge", b.id, "event", doubao.EventName(f.Event), "error", err)
		return err
	}
	slog.Debug("bridge: frame sent upstream",
		"bridge", b.id, "event", doubao.EventName(f.Event), "payload", len(f.Payload))
	b.record(tap.DirectionUp, f)
	return nil
}

// ================== upstream → client ==================

func (b *Bridge) handleUpstreamFrame(f *doubao.Frame) {
	b.record(tap.DirectionDown, f)

	// Raw-byte payloads are the TTS audio channel: forward them verbatim.
	// SERVER_ACK frames carry nothing else, so dispatch stops there.
	forwarded := false
	if f.Serialization == doubao.SerializationNone {
		if len(f.Payload) > 0 {
			if f.PayloadCorrupt {
				slog.Warn("bridge: forwarding corrupt audio payload",
					"bridge", b.id, "bytes", len(f.Payload))
			}
			b.writeClientBinary(f.Payload)
			forwarded = true
		}
		if f.Type == doubao.MsgTypeServerACK {
			return
		}
	}

	if f.Type == doubao.MsgTypeError {
		e := doubao.ErrorFromFrame(f)
		slog.Warn("bridge: upstream error", "bridge", b.id, "code", e.Code, "message", e.Message)
		// Semantic errors do not end the session; the upstream decides
		// whether to close.
		b.sendError("服务器错误: "+e.Message, e.Details)
		return
	}

	if !f.HasEvent() {
		if !forwarded {
			slog.Debug("bridge: frame without event dropped",
				"bridge", b.id, "type", fmt.Sprintf("0b%04b", byte(f.Type)))
		}
		return
	}

	switch f.Event {
	case doubao.EventConnectionStarted:
		b.onConnectionStarted()

	case doubao.EventConnectionFailed:
		e := doubao.ErrorFromFrame(f)
		slog.Error("bridge: upstream connection failed", "bridge", b.id, "message", e.Message)
		b.sendError("服务器连接错误: "+e.Message, e.Details)

	case doubao.EventSessionStarted:
		b.onSessionStarted(f)

	case doubao.EventSessionFailed:
		e := doubao.ErrorFromFrame(f)
		slog.Error("bridge: session failed", "bridge", b.id, "message", e.Message)
		b.sendError("服务器错误: "+e.Message, e.Details)

	case doubao.EventSessionFinished:
		slog.Info("bridge: session finished", "bridge", b.id, "sessionId", b.tracker.sessionID)
		b.tracker.onSessionFinished()

	case doubao.EventConnectionFinished:
		slog.Info("bridge: connection finished", "bridge", b.id)

	case doubao.EventASRInfo:
		b.questionID++
		b.replyOpen = false
		slog.Info("bridge: speech detected", "bridge", b.id, "questionId", b.questionID)
		b.sendJSON(speechStartedMessage{Type: "speech_started", QuestionID: b.questionID})

	case doubao.EventASRResponse:
		b.onASRResponse(f)

	case doubao.EventASREnded:
		slog.Info("bridge: ASR ended", "bridge", b.id, "questionId", b.questionID)

	case doubao.EventTTSResponse:
		if !forwarded && len(f.Payload) > 0 {
			b.writeClientBinary(f.Payload)
		}

	case doubao.EventChatResponse:
		b.onChatResponse(f)

	case doubao.EventChatEnded:
		slog.Debug("bridge: chat ended", "bridge", b.id,
			"questionId", b.questionID, "replyId", b.replyID)
		b.sendJSON(chatEndedMessage{Type: "chat_ended", QuestionID: b.questionID, ReplyID: b.replyID})
		b.replyOpen = false

	default:
		slog.Debug("bridge: unhandled upstream event",
			"bridge", b.id, "event", doubao.EventName(f.Event), "payload", len(f.Payload))
	}
}

func (b *Bridge) onConnectionStarted() {
	b.tracker.established = true
	slog.Info("bridge: upstream connection established", "bridge", b.id)
	if b.pending != nil {
		req := b.pending
		b.pending = nil
		b.emitStartSession(req)
	}
}

func (b *Bridge) onSessionStarted(f *doubao.Frame) {
	if b.tracker.state == StateSessionEnding || b.tracker.state == StateClosed {
		slog.Warn("bridge: session_started after finish, ignored", "bridge", b.id)
		return
	}

	b.tracker.adoptSessionID(f.SessionID)
	var payload struct {
		SessionID string `json:"session_id"`
		DialogID  string `json:"dialog_id"`
	}
	if len(f.Payload) > 0 && json.Unmarshal(f.Payload, &payload) == nil {
		if b.tracker.sessionID == "" {
			b.tracker.adoptSessionID(payload.SessionID)
		}
		b.tracker.dialogID = payload.DialogID
	}
	b.tracker.state = StateSessionActive
	slog.Info("bridge: session active", "bridge", b.id,
		"sessionId", b.tracker.sessionID, "dialogId", b.tracker.dialogID)

	b.sendJSON(sessionStartedMessage{
		Type:      "session_started",
		SessionID: b.tracker.sessionID,
		DialogID:  b.tracker.dialogID,
	})

	// Buffered audio replays before any newly arriving client audio: the
	// drain runs in the same loop step as the transition.
	b.drainQueue()
}

func (b *Bridge) drainQueue() {
	items := b.queue.drain()
	if len(items) == 0 {
		return
	}
	var audio, text int
	for _, item := range items {
		switch item.class {
		case classBinaryAudio, classBase64Audio:
			audio++
			b.writeUpstream(doubao.NewAudioTaskFrame(b.tracker.sessionID, item.audio))
		case classText:
			text++
			f, err := doubao.NewTextTaskFrame(b.tracker.sessionID, item.text)
			if err != nil {
				slog.Error("bridge: build buffered text task failed", "bridge", b.id, "error", err)
				continue
			}
			b.writeUpstream(f)
		}
	}
	slog.Info("bridge: pre-ready buffer drained", "bridge", b.id, "audio", audio, "text", text)
}

func (b *Bridge) onASRResponse(f *doubao.Frame) {
	var payload struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(f.Payload, &payload); err != nil {
		slog.Warn("bridge: bad ASR payload", "bridge", b.id, "error", err)
		return
	}
	if len(payload.Results) == 0 {
		payload.Results = json.RawMessage("[]")
	}
	b.sendJSON(asrResponseMessage{Type: "asr_response", Results: payload.Results})
}

func (b *Bridge) onChatResponse(f *doubao.Frame) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(f.Payload, &payload); err != nil {
		payload.Content = f.Text()
	}
	if !b.replyOpen {
		b.replyID++
		b.replyOpen = true
	}
	b.sendJSON(chatResponseMessage{
		Type:       "chat_response",
		Content:    payload.Content,
		QuestionID: b.questionID,
		ReplyID:    b.replyID,
	})
}

// SanitizeClose maps an upstream read error to the close code and text to
// use toward the client. 1006 is reserved for abnormal closure and must
// never go back out on the wire; it is replaced by a normal close. detail
// is the human-readable form for logs and error messages.
func SanitizeClose(err error) (code int, text, detail string) {
	code = websocket.CloseNormalClosure
	text = "Server connection closed"
	detail = err.Error()

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		detail = fmt.Sprintf("%d %s", ce.Code, ce.Text)
		if ce.Code != websocket.CloseAbnormalClosure {
			code = ce.Code
			if ce.Text != "" {
				text = ce.Text
			}
		}
	}
	return code, text, detail
}

func (b *Bridge) handleUpstreamClosed(err error) {
	code, text, detail := SanitizeClose(err)
	slog.Info("bridge: upstream closed", "bridge", b.id, "detail", detail)
	b.sendError("服务器连接关闭: "+detail, nil)
	b.closeClient(code, text)
	b.tracker.state = StateClosed
}

func (b *Bridge) closeClient(code int, text string) {
	deadline := time.Now().Add(time.Second)
	b.client.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), deadline)
}

// ================== client writes ==================

func (b *Bridge) sendError(msg string, details map[string]any) {
	b.sendJSON(errorMessage{Type: "error", Error: msg, Details: details})
}

func (b *Bridge) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("bridge: marshal client message failed", "bridge", b.id, "error", err)
		return
	}
	if err := b.client.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("bridge: client write failed", "bridge", b.id, "error", err)
	}
}

func (b *Bridge) writeClientBinary(data []byte) {
	if err := b.client.WriteMessage(websocket.BinaryMessage, data); err != nil {
		slog.Debug("bridge: client audio write failed", "bridge", b.id, "error", err)
	}
}

func (b *Bridge) record(direction string, f *doubao.Frame) {
	if b.tap == nil {
		return
	}
	if err := b.tap.WriteFrame(direction, b.id, f); err != nil {
		slog.Warn("bridge: tap write failed, capture disabled", "bridge", b.id, "error", err)
		b.tap = nil
	}
}
