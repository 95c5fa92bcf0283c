package bridge

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		check   func(t *testing.T, m *ClientMessage)
	}{
		{
			name: "start session with overrides",
			data: `{"type":"start_session","sessionId":"s1","systemMessage":"你是助手","model":"O2.0"}`,
			check: func(t *testing.T, m *ClientMessage) {
				if m.Type != TypeStartSession {
					t.Errorf("Type = %q", m.Type)
				}
				if m.SessionID != "s1" || m.SystemMessage != "你是助手" || m.Model != "O2.0" {
					t.Errorf("fields = %+v", m)
				}
			},
		},
		{
			name: "audio data with base64 payload",
			data: `{"type":"audio_data","data":"AQID","isLast":true}`,
			check: func(t *testing.T, m *ClientMessage) {
				if !bytes.Equal(m.Data, []byte{1, 2, 3}) {
					t.Errorf("Data = %v", m.Data)
				}
				if !m.IsLast {
					t.Error("IsLast = false")
				}
			},
		},
		{
			name: "text input",
			data: `{"type":"text_input","text":"hello"}`,
			check: func(t *testing.T, m *ClientMessage) {
				if m.Text != "hello" {
					t.Errorf("Text = %q", m.Text)
				}
			},
		},
		{
			name: "bare finish",
			data: `{"type":"finish_session"}`,
			check: func(t *testing.T, m *ClientMessage) {
				if m.Type != TypeFinishSession {
					t.Errorf("Type = %q", m.Type)
				}
			},
		},
		{
			name: "unknown type still parses",
			data: `{"type":"ping"}`,
			check: func(t *testing.T, m *ClientMessage) {
				if m.Type != "ping" {
					t.Errorf("Type = %q", m.Type)
				}
			},
		},
		{
			name:    "missing type",
			data:    `{"text":"hello"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `not json at all`,
			wantErr: true,
		},
		{
			name:    "bad base64",
			data:    `{"type":"audio_data","data":"!!!"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseClientMessage([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parsed %+v, want error", m)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClientMessage error: %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestBase64DataJSON(t *testing.T) {
	out, err := json.Marshal(Base64Data{1, 2, 3})
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(out) != `"AQID"` {
		t.Errorf("marshal = %s, want \"AQID\"", out)
	}

	var in Base64Data
	if err := json.Unmarshal([]byte(`null`), &in); err != nil {
		t.Errorf("null unmarshal error: %v", err)
	}
	if in != nil {
		t.Errorf("null unmarshal = %v, want nil", in)
	}

	if err := json.Unmarshal([]byte(`123`), &in); err == nil {
		t.Error("numeric input accepted")
	}
}

func TestOutboundMessageShapes(t *testing.T) {
	out, err := json.Marshal(chatResponseMessage{
		Type: "chat_response", Content: "你好", QuestionID: 0, ReplyID: 1,
	})
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	// zero question_id must survive marshaling
	if _, ok := m["question_id"]; !ok {
		t.Error("question_id dropped at zero")
	}
	if m["content"] != "你好" || m["reply_id"] != float64(1) {
		t.Errorf("fields = %v", m)
	}

	out, err = json.Marshal(errorMessage{Type: "error", Error: "服务器错误: x"})
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if bytes.Contains(out, []byte("details")) {
		t.Errorf("empty details serialized: %s", out)
	}
}
