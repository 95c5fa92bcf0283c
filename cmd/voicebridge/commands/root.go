package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicebridge/pkg/cli"
)

var (
	// Global flags
	cfgFile     string
	contextName string
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voicebridge",
	Short: "WebSocket proxy for realtime voice dialogue backends",
	Long: `voicebridge - A WebSocket proxy for realtime voice dialogue backends.

The proxy exposes plain JSON + raw PCM WebSocket endpoints for browser
clients and speaks the vendor protocols upstream:
  - doubao: 火山引擎豆包端到端实时语音（二进制分帧、gzip、会话事件）
  - glm:    智谱 GLM Realtime（透传）

Credentials come from the environment (DOUBAO_APP_ID, DOUBAO_ACCESS_KEY,
DOUBAO_SECRET_KEY, API_KEY) or from a stored context. Configuration is
stored in ~/.voicebridge/config.yaml and supports multiple contexts,
similar to kubectl's context management. Environment variables always
win over context values.

Examples:
  # Serve both endpoints with credentials from the environment
  voicebridge serve

  # Store credentials once, then serve the Doubao endpoint only
  voicebridge config add-context dev --app-id APP --access-key AK --secret-key SK
  voicebridge -c dev serve doubao --tap dev.tap

  # Inspect a capture
  voicebridge tap dump dev.tap --filter '.event_name == "ChatResponse"'
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.voicebridge/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tapCmd)
}

func initConfig() {
	var err error
	globalConfig, err = cli.LoadConfigWithPath(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// getContext returns the context to use, or nil when none is selected.
// With no context the credential resolvers fall back to the environment
// alone, so a missing default context is not an error.
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, nil
	}

	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		if contextName == "" {
			return nil, nil
		}
		return nil, err
	}

	return ctx, nil
}
