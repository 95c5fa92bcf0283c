package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicebridge/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

Contexts allow you to manage multiple credential sets,
similar to kubectl's context management.

Configuration is stored in ~/.voicebridge/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name.

The Doubao endpoint requires:
  - App ID: Volcengine application ID
  - Access Key / Secret Key: speech credentials

The GLM endpoint requires:
  - API Key: sent as the Authorization header

Provide one set or both. Environment variables (DOUBAO_APP_ID,
DOUBAO_ACCESS_KEY, DOUBAO_SECRET_KEY, API_KEY) override stored values
at serve time.

Example:
  # Doubao credentials only
  voicebridge config add-context dev --app-id APP --access-key AK --secret-key SK

  # Both backends, with a custom Doubao listen address
  voicebridge config add-context prod \
    --app-id APP --access-key AK --secret-key SK \
    --glm-api-key KEY --doubao-addr :8001`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		appID, err := cmd.Flags().GetString("app-id")
		if err != nil {
			return fmt.Errorf("failed to read 'app-id' flag: %w", err)
		}
		accessKey, err := cmd.Flags().GetString("access-key")
		if err != nil {
			return fmt.Errorf("failed to read 'access-key' flag: %w", err)
		}
		secretKey, err := cmd.Flags().GetString("secret-key")
		if err != nil {
			return fmt.Errorf("failed to read 'secret-key' flag: %w", err)
		}
		glmAPIKey, err := cmd.Flags().GetString("glm-api-key")
		if err != nil {
			return fmt.Errorf("failed to read 'glm-api-key' flag: %w", err)
		}
		doubaoAddr, err := cmd.Flags().GetString("doubao-addr")
		if err != nil {
			return fmt.Errorf("failed to read 'doubao-addr' flag: %w", err)
		}
		glmAddr, err := cmd.Flags().GetString("glm-addr")
		if err != nil {
			return fmt.Errorf("failed to read 'glm-addr' flag: %w", err)
		}

		ctx := &cli.Context{
			DoubaoAddr: doubaoAddr,
			GLMAddr:    glmAddr,
		}

		// Doubao credentials travel as a complete triple or not at all.
		if appID != "" || accessKey != "" || secretKey != "" {
			if appID == "" || accessKey == "" || secretKey == "" {
				return fmt.Errorf("--app-id, --access-key and --secret-key must be set together")
			}
			ctx.Doubao = &cli.DoubaoCredentials{
				AppID:     appID,
				AccessKey: accessKey,
				SecretKey: secretKey,
			}
		}
		if glmAPIKey != "" {
			ctx.GLM = &cli.GLMCredentials{APIKey: glmAPIKey}
		}
		if ctx.Doubao == nil && ctx.GLM == nil {
			return fmt.Errorf("provide Doubao credentials (--app-id --access-key --secret-key), a GLM key (--glm-api-key), or both")
		}

		cfg := getConfig()
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg := getConfig()
		if err := cfg.DeleteContext(name); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q deleted", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg := getConfig()
		if err := cfg.UseContext(name); err != nil {
			return err
		}

		cli.PrintSuccess("Switched to context %q", name)
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		if cfg.CurrentContext == "" {
			fmt.Println("No current context set")
			return nil
		}

		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		if len(cfg.Contexts) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tDOUBAO\tGLM")

		for name, ctx := range cfg.Contexts {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			doubaoStatus := "✗"
			if ctx.Doubao != nil && ctx.Doubao.AppID != "" && ctx.Doubao.AccessKey != "" && ctx.Doubao.SecretKey != "" {
				doubaoStatus = "✓"
			}
			glmStatus := "✗"
			if ctx.GLM != nil && ctx.GLM.APIKey != "" {
				glmStatus = "✓"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name, doubaoStatus, glmStatus)
		}

		w.Flush()
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		fmt.Printf("Config file: %s\n", cfg.Path())
		fmt.Printf("Current context: %s\n", cfg.CurrentContext)
		fmt.Printf("Contexts: %d\n", len(cfg.Contexts))

		if len(cfg.Contexts) > 0 {
			fmt.Println("\nContext details:")
			for name, ctx := range cfg.Contexts {
				fmt.Printf("\n  %s:\n", name)

				if ctx.Doubao != nil {
					fmt.Println("    Doubao (realtime dialogue):")
					fmt.Printf("      App ID: %s\n", ctx.Doubao.AppID)
					fmt.Printf("      Access Key: %s\n", cli.MaskAPIKey(ctx.Doubao.AccessKey))
					fmt.Printf("      Secret Key: %s\n", cli.MaskAPIKey(ctx.Doubao.SecretKey))
				}

				if ctx.GLM != nil {
					fmt.Println("    GLM (realtime):")
					fmt.Printf("      API Key: %s\n", cli.MaskAPIKey(ctx.GLM.APIKey))
				}

				if ctx.DoubaoAddr != "" {
					fmt.Printf("    Doubao Addr: %s\n", ctx.DoubaoAddr)
				}
				if ctx.GLMAddr != "" {
					fmt.Printf("    GLM Addr: %s\n", ctx.GLMAddr)
				}
			}
		}

		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(getConfig().Path())
		return nil
	},
}

func init() {
	// add-context flags - Doubao credentials
	configAddContextCmd.Flags().String("app-id", "", "Volcengine application ID")
	configAddContextCmd.Flags().String("access-key", "", "Doubao speech access key")
	configAddContextCmd.Flags().String("secret-key", "", "Doubao speech secret key")

	// add-context flags - GLM credentials
	configAddContextCmd.Flags().String("glm-api-key", "", "GLM realtime API key")

	// add-context flags - Optional listen addresses
	configAddContextCmd.Flags().String("doubao-addr", "", "Doubao listen address override")
	configAddContextCmd.Flags().String("glm-addr", "", "GLM listen address override")

	// Add subcommands
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configPathCmd)
}
