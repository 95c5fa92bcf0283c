package glm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestGetWSHeaders(t *testing.T) {
	client := NewClient("glm-key-123")
	headers := client.getWSHeaders()

	if got := headers.Get("Authorization"); got != "glm-key-123" {
		t.Errorf("Authorization = %q, want %q", got, "glm-key-123")
	}
	if len(headers) != 1 {
		t.Errorf("header count = %d, want 1", len(headers))
	}
}

func TestDialContextSendsAuthHeader(t *testing.T) {
	headerCh := make(chan http.Header, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerCh <- r.Header.Clone()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client := NewClient("glm-key-456", WithWSURL(wsURL))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.DialContext(ctx)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	defer conn.Close()

	select {
	case h := <-headerCh:
		if got := h.Get("Authorization"); got != "glm-key-456" {
			t.Errorf("Authorization = %q, want %q", got, "glm-key-456")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handshake never reached the server")
	}
}

func TestDialContextError(t *testing.T) {
	client := NewClient("key", WithWSURL("ws://127.0.0.1:1"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := client.DialContext(ctx); err == nil {
		t.Fatal("expected dial error")
	}
}
