package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicebridge/pkg/bridge"
	"github.com/haivivi/voicebridge/pkg/cli"
	"github.com/haivivi/voicebridge/pkg/doubao"
	"github.com/haivivi/voicebridge/pkg/glm"
	"github.com/haivivi/voicebridge/pkg/proxy"
	"github.com/haivivi/voicebridge/pkg/tap"
)

const (
	defaultDoubaoAddr = ":3001"
	defaultGLMAddr    = ":3000"
)

var (
	flagDoubaoAddr   string
	flagGLMAddr      string
	flagDialogConfig string
	flagTapFile      string
	flagTapPayloads  int
)

var serveCmd = &cobra.Command{
	Use:   "serve [doubao|glm|all]",
	Short: "Run the WebSocket proxy servers",
	Long: `Run the WebSocket proxy servers.

Modes:
  doubao - Doubao dialogue endpoint on --doubao-addr (path /doubao-proxy)
  glm    - GLM pass-through endpoint on --glm-addr (path /proxy)
  all    - both (default)

Each selected mode needs complete credentials at startup; missing ones
abort with an error naming the environment variables to set. Listen
addresses resolve flag > context > default.

Example:
  voicebridge serve doubao --dialog-config preset.yaml --tap session.tap`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagDoubaoAddr, "doubao-addr", defaultDoubaoAddr, "Doubao endpoint listen address")
	serveCmd.Flags().StringVar(&flagGLMAddr, "glm-addr", defaultGLMAddr, "GLM endpoint listen address")
	serveCmd.Flags().StringVar(&flagDialogConfig, "dialog-config", "", "session config preset file, YAML or JSON (Doubao mode)")
	serveCmd.Flags().StringVar(&flagTapFile, "tap", "", "capture bridged frames to this file (bare names land in ~/.voicebridge/taps/)")
	serveCmd.Flags().IntVar(&flagTapPayloads, "tap-payloads", 0, "keep up to N leading payload bytes per tap record")
}

func runServe(cmd *cobra.Command, args []string) error {
	mode := "all"
	if len(args) > 0 {
		mode = args[0]
	}
	switch mode {
	case "doubao", "glm", "all":
	default:
		return fmt.Errorf("unknown mode %q (want doubao, glm or all)", mode)
	}

	// Setup logging
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	cliCtx, err := getContext()
	if err != nil {
		return err
	}

	var servers []*proxy.Server

	if mode == "doubao" || mode == "all" {
		creds, err := cli.ResolveDoubaoCredentials(cliCtx)
		if err != nil {
			return err
		}
		opts, err := bridgeOptions()
		if err != nil {
			return err
		}
		addr := listenAddr(cmd, "doubao-addr", flagDoubaoAddr, contextAddr(cliCtx, func(c *cli.Context) string { return c.DoubaoAddr }))
		dialer := doubao.NewClient(creds.AppID, creds.AccessKey, creds.SecretKey)
		servers = append(servers, proxy.NewDoubaoServer(addr, dialer, opts...))
	}

	if mode == "glm" || mode == "all" {
		apiKey, err := cli.ResolveGLMAPIKey(cliCtx)
		if err != nil {
			return err
		}
		addr := listenAddr(cmd, "glm-addr", flagGLMAddr, contextAddr(cliCtx, func(c *cli.Context) string { return c.GLMAddr }))
		servers = append(servers, proxy.NewGLMServer(addr, glm.NewClient(apiKey)))
	}

	printBanner(servers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			errCh <- srv.Serve(ctx)
		}()
	}

	// One server failing takes the others down with it.
	var firstErr error
	for range servers {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}

// bridgeOptions assembles the per-bridge options from the serve flags.
func bridgeOptions() ([]bridge.Option, error) {
	var opts []bridge.Option

	if flagDialogConfig != "" {
		cfg := doubao.DefaultSessionConfig()
		if err := cli.LoadRequest(flagDialogConfig, cfg); err != nil {
			return nil, fmt.Errorf("load dialog config: %w", err)
		}
		opts = append(opts, bridge.WithSessionConfig(cfg))
	}

	if flagTapFile != "" {
		w, err := openTap(flagTapFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bridge.WithTap(w))
	}

	return opts, nil
}

// openTap creates the capture file. The file stays open for the life of
// the process; all bridges share one writer.
func openTap(name string) (*tap.Writer, error) {
	paths, err := cli.NewPaths()
	if err != nil {
		return nil, err
	}
	path := paths.TapPath(name)
	if path != name {
		if err := paths.EnsureTapDir(); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create tap file: %w", err)
	}
	slog.Info("tap: capturing frames", "file", path)

	var opts []tap.WriterOption
	if flagTapPayloads > 0 {
		opts = append(opts, tap.WithPayloadHead(flagTapPayloads))
	}
	return tap.NewWriter(f, opts...), nil
}

// listenAddr picks the listen address: explicit flag wins, then the
// context override, then the flag default.
func listenAddr(cmd *cobra.Command, flag, flagValue, ctxValue string) string {
	if cmd.Flags().Changed(flag) {
		return flagValue
	}
	if ctxValue != "" {
		return ctxValue
	}
	return flagValue
}

func contextAddr(ctx *cli.Context, pick func(*cli.Context) string) string {
	if ctx == nil {
		return ""
	}
	return pick(ctx)
}

// printBanner renders the startup summary panel.
func printBanner(servers []*proxy.Server) {
	panel := cli.StatusPanel{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  "voicebridge",
		Status: "serving",
	}
	for _, srv := range servers {
		panel.Rows = append(panel.Rows, cli.StatusRow{
			Label: srv.Name(),
			Value: "ws://" + displayAddr(srv.Addr()) + srv.Path(),
		})
	}
	if flagTapFile != "" {
		panel.Rows = append(panel.Rows, cli.StatusRow{Label: "tap", Value: flagTapFile})
	}
	if flagDialogConfig != "" {
		panel.Rows = append(panel.Rows, cli.StatusRow{Label: "preset", Value: flagDialogConfig})
	}
	fmt.Println(panel.Render(56))
}

// displayAddr makes a bare ":port" listen address dialable in the banner.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
