// Package cli provides common utilities for the voicebridge command line.
//
// This package includes:
//   - Configuration management (contexts, credential resolution)
//   - Output formatting (JSON, YAML)
//   - Preset file loading (YAML/JSON)
//   - Styled terminal output
//
// Configuration is stored in ~/.voicebridge/, supporting multiple
// contexts similar to kubectl. Credentials resolve from the process
// environment first, then from the active context.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig()
//	ctx, err := cfg.GetCurrentContext()
//	creds, err := cli.ResolveDoubaoCredentials(ctx)
package cli
