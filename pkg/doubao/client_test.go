package doubao

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestGetWSHeaders(t *testing.T) {
	c := NewClient("app-1", "ak-1", "sk-1")
	h := c.getWSHeaders("client_123_abcdefghi")

	tests := []struct {
		key  string
		want string
	}{
		{"X-Api-App-Key", AppKeyRealtime},
		{"X-Api-App-ID", "app-1"},
		{"X-Api-Access-Key", "ak-1"},
		{"X-Api-Resource-Id", ResourceRealtime},
		{"X-Api-Connect-Id", "client_123_abcdefghi"},
	}
	for _, tt := range tests {
		if got := h.Get(tt.key); got != tt.want {
			t.Errorf("header %s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestNewConnectID(t *testing.T) {
	pattern := regexp.MustCompile(`^client_\d+_[0-9a-z]{9}$`)

	id := NewConnectID()
	if !pattern.MatchString(id) {
		t.Errorf("connect id %q does not match %s", id, pattern)
	}
	if other := NewConnectID(); other == id {
		t.Errorf("consecutive connect ids collide: %q", id)
	}
}

func TestDialContextSendsAuthHeaders(t *testing.T) {
	upgrader := websocket.Upgrader{}
	headerCh := make(chan http.Header, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerCh <- r.Header.Clone()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewClient("app-1", "ak-1", "sk-1", WithWSURL(wsURL))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := c.DialContext(ctx, "client_1_aaaaaaaaa")
	if err != nil {
		t.Fatalf("DialContext error: %v", err)
	}
	defer conn.Close()

	select {
	case h := <-headerCh:
		if got := h.Get("X-Api-App-ID"); got != "app-1" {
			t.Errorf("X-Api-App-ID = %q, want app-1", got)
		}
		if got := h.Get("X-Api-Connect-Id"); got != "client_1_aaaaaaaaa" {
			t.Errorf("X-Api-Connect-Id = %q, want client_1_aaaaaaaaa", got)
		}
		if got := h.Get("X-Api-Resource-Id"); got != ResourceRealtime {
			t.Errorf("X-Api-Resource-Id = %q, want %q", got, ResourceRealtime)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the handshake")
	}
}

func TestDefaultSessionConfig(t *testing.T) {
	cfg := DefaultSessionConfig()

	if cfg.TTS.Speaker != "zh_female_vv_jupiter_bigtts" {
		t.Errorf("speaker = %q", cfg.TTS.Speaker)
	}
	if cfg.TTS.AudioConfig.SampleRate != 24000 {
		t.Errorf("sample rate = %d, want 24000", cfg.TTS.AudioConfig.SampleRate)
	}
	if cfg.TTS.AudioConfig.Format != "pcm_s16le" {
		t.Errorf("format = %q, want pcm_s16le", cfg.TTS.AudioConfig.Format)
	}
	if cfg.Dialog.BotName != "豆包" {
		t.Errorf("bot name = %q", cfg.Dialog.BotName)
	}
	if got := cfg.Model(); got != "O2.0" {
		t.Errorf("Model() = %q, want O2.0", got)
	}

	cfg.SetModel("O3.1")
	if got := cfg.Model(); got != "O3.1" {
		t.Errorf("Model() after SetModel = %q, want O3.1", got)
	}
}

func TestNewStartSessionFrame(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.Dialog.SystemRole = "你是一个助理"

	f, err := NewStartSessionFrame("session_77", cfg)
	if err != nil {
		t.Fatalf("NewStartSessionFrame error: %v", err)
	}
	if f.Type != MsgTypeFullClient {
		t.Errorf("Type = %04b, want full client", f.Type)
	}
	if f.Event != EventStartSession {
		t.Errorf("Event = %d, want %d", f.Event, EventStartSession)
	}
	if f.SessionID != "session_77" {
		t.Errorf("SessionID = %q, want session_77", f.SessionID)
	}
	if f.Compression != CompressionGzip {
		t.Error("start session frame must be gzip compressed")
	}

	var body struct {
		Dialog struct {
			BotName    string `json:"bot_name"`
			SystemRole string `json:"system_role"`
		} `json:"dialog"`
		TTS struct {
			AudioConfig struct {
				SampleRate int `json:"sample_rate"`
			} `json:"audio_config"`
		} `json:"tts"`
	}
	if err := f.JSON(&body); err != nil {
		t.Fatalf("payload JSON error: %v", err)
	}
	if body.Dialog.SystemRole != "你是一个助理" {
		t.Errorf("system_role = %q", body.Dialog.SystemRole)
	}
	if body.Dialog.BotName != "豆包" {
		t.Errorf("bot_name = %q", body.Dialog.BotName)
	}
	if body.TTS.AudioConfig.SampleRate != 24000 {
		t.Errorf("sample_rate = %d, want 24000", body.TTS.AudioConfig.SampleRate)
	}
}

func TestEventName(t *testing.T) {
	if got := EventName(EventSessionStarted); got != "SessionStarted" {
		t.Errorf("EventName(150) = %q, want SessionStarted", got)
	}
	if got := EventName(9999); got != "9999" {
		t.Errorf("EventName(9999) = %q, want 9999", got)
	}
}
