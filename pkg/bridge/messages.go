package bridge

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Client message types (text frames, JSON).
const (
	TypeStartSession     = "start_session"
	TypeAudioData        = "audio_data"
	TypeTextInput        = "text_input"
	TypeFinishSession    = "finish_session"
	TypeFinishConnection = "finish_connection"
)

// Base64Data is a byte slice that serializes to/from standard base64 in JSON.
// Used for the legacy audio_data path where browsers send audio inside JSON.
type Base64Data []byte

// MarshalJSON implements json.Marshaler.
func (b Base64Data) MarshalJSON() ([]byte, error) {
	return []byte(`"` + base64.StdEncoding.EncodeToString(b) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Base64Data) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return errors.New("unmarshal base64 data: empty data")
	}
	switch data[0] {
	case 'n': // null
		return nil
	case '"':
		if len(data) < 2 || data[len(data)-1] != '"' {
			return errors.New("unmarshal base64 data: invalid string")
		}
		decoded, err := base64.StdEncoding.DecodeString(string(data[1 : len(data)-1]))
		if err != nil {
			return err
		}
		*b = decoded
		return nil
	default:
		return fmt.Errorf("invalid base64 data: %s", string(data))
	}
}

// String returns the base64-encoded string representation.
func (b Base64Data) String() string {
	return base64.StdEncoding.EncodeToString(b)
}

// ClientMessage is the envelope for all JSON control messages a client may
// send. Which fields are meaningful depends on Type.
type ClientMessage struct {
	Type          string     `json:"type"`
	SessionID     string     `json:"sessionId,omitempty"`
	SystemMessage string     `json:"systemMessage,omitempty"`
	Model         string     `json:"model,omitempty"`
	Data          Base64Data `json:"data,omitempty"`
	IsLast        bool       `json:"isLast,omitempty"`
	Text          string     `json:"text,omitempty"`
}

// ParseClientMessage decodes a client text frame.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse client message: %w", err)
	}
	if msg.Type == "" {
		return nil, errors.New("parse client message: missing type")
	}
	return &msg, nil
}

// Server → client messages. One struct per type so zero values marshal
// faithfully (question_id 0 must not disappear).

type sessionStartedMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	DialogID  string `json:"dialog_id"`
}

type errorMessage struct {
	Type    string         `json:"type"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

type asrResponseMessage struct {
	Type    string          `json:"type"`
	Results json.RawMessage `json:"results"`
}

type speechStartedMessage struct {
	Type       string `json:"type"`
	QuestionID int    `json:"question_id"`
}

type chatResponseMessage struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	QuestionID int    `json:"question_id"`
	ReplyID    int    `json:"reply_id"`
}

type chatEndedMessage struct {
	Type       string `json:"type"`
	QuestionID int    `json:"question_id"`
	ReplyID    int    `json:"reply_id"`
}
