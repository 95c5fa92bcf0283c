package proxy

import (
	"log/slog"
	"net/http"

	"github.com/haivivi/voicebridge/pkg/bridge"
	"github.com/haivivi/voicebridge/pkg/doubao"
)

// DoubaoPath is the client-facing WebSocket path of the Doubao bridge.
const DoubaoPath = "/doubao-proxy"

// NewDoubaoServer builds the Doubao-side server: the bridge endpoint plus
// the embedded demo page. Every accepted connection gets its own Bridge
// carrying bridgeOpts.
func NewDoubaoServer(addr string, dialer *doubao.Client, bridgeOpts ...bridge.Option) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc(DoubaoPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("proxy: doubao upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		slog.Info("proxy: client connected", "endpoint", "doubao", "remote", r.RemoteAddr)

		b := bridge.New(conn, dialer, bridgeOpts...)
		if err := b.Run(r.Context()); err != nil {
			slog.Warn("proxy: bridge ended with error", "bridge", b.ID(), "error", err)
		}
		slog.Info("proxy: client disconnected", "endpoint", "doubao", "remote", r.RemoteAddr)
	})

	mux.HandleFunc("/doubao-index.html", serveIndex)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/doubao-index.html", http.StatusFound)
	})

	return newServer("doubao", addr, DoubaoPath, mux)
}
