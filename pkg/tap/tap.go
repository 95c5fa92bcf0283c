// Package tap captures bridged protocol frames as a msgpack record stream
// for offline inspection. Records are intentionally small: payload bodies
// are elided unless a head size is configured, so taps stay cheap enough
// to leave on during audio sessions.
package tap

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/voicebridge/pkg/doubao"
)

// Frame directions relative to the proxy.
const (
	DirectionUp   = "up"   // client → upstream
	DirectionDown = "down" // upstream → client
)

// Record is one captured frame.
type Record struct {
	// Timestamp is the Unix timestamp in nanoseconds at capture time.
	Timestamp int64 `json:"ts" msgpack:"ts"`

	// Direction is DirectionUp or DirectionDown.
	Direction string `json:"dir" msgpack:"dir"`

	// Bridge is the correlation ID of the owning session bridge.
	Bridge string `json:"bridge" msgpack:"bridge"`

	// SessionID is the upstream session carried by the frame, if any.
	SessionID string `json:"session_id,omitempty" msgpack:"session_id,omitempty"`

	MsgType byte `json:"msg_type" msgpack:"msg_type"`
	Flags   byte `json:"flags" msgpack:"flags"`

	Event     int32  `json:"event" msgpack:"event"`
	EventName string `json:"event_name" msgpack:"event_name"`

	ErrorCode uint32 `json:"error_code,omitempty" msgpack:"error_code,omitempty"`

	// PayloadSize is the decoded payload length in bytes.
	PayloadSize int `json:"payload_size" msgpack:"payload_size"`

	// PayloadHead holds the first bytes of the payload when the writer was
	// configured to keep them.
	PayloadHead []byte `json:"payload_head,omitempty" msgpack:"payload_head,omitempty"`
}

// Writer appends records to a msgpack stream. Safe for concurrent use: one
// writer is shared by every bridge of a proxy process.
type Writer struct {
	mu   sync.Mutex
	enc  *msgpack.Encoder
	head int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithPayloadHead keeps up to n leading payload bytes per record.
func WithPayloadHead(n int) WriterOption {
	return func(w *Writer) { w.head = n }
}

// NewWriter wraps w in a record writer.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	tw := &Writer{enc: msgpack.NewEncoder(w)}
	for _, opt := range opts {
		opt(tw)
	}
	return tw
}

// WriteFrame captures one protocol frame.
func (w *Writer) WriteFrame(direction, bridgeID string, f *doubao.Frame) error {
	rec := &Record{
		Timestamp:   time.Now().UnixNano(),
		Direction:   direction,
		Bridge:      bridgeID,
		SessionID:   f.SessionID,
		MsgType:     byte(f.Type),
		Flags:       byte(f.Flags),
		ErrorCode:   f.ErrorCode,
		PayloadSize: len(f.Payload),
	}
	if f.HasEvent() {
		rec.Event = f.Event
		rec.EventName = doubao.EventName(f.Event)
	}
	if w.head > 0 && len(f.Payload) > 0 {
		n := min(w.head, len(f.Payload))
		rec.PayloadHead = append([]byte(nil), f.Payload[:n]...)
	}
	return w.Write(rec)
}

// Write appends one record.
func (w *Writer) Write(rec *Record) error {
	if rec == nil {
		return errors.New("tap: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(rec)
}

// Reader decodes a record stream produced by Writer.
type Reader struct {
	dec *msgpack.Decoder
}

// NewReader wraps r in a record reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: msgpack.NewDecoder(r)}
}

// Next returns the next record, or io.EOF when the stream ends.
func (r *Reader) Next() (*Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
