// Package main provides the voicebridge proxy CLI.
//
// Usage:
//
//	voicebridge [flags] <command> [args]
//
// Commands:
//
//	serve  - Run the WebSocket proxy servers (doubao, glm, or all)
//	config - Configuration management
//	tap    - Inspect frame captures produced by 'serve --tap'
//
// Configuration:
//
//	The CLI stores configuration in ~/.voicebridge/
//	Use 'voicebridge config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/voicebridge/cmd/voicebridge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
