package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// Paths provides access to the voicebridge directory structure
type Paths struct {
	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns the base directory (~/.voicebridge)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns the config file path (~/.voicebridge/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// TapDir returns the frame capture directory (~/.voicebridge/taps)
func (p *Paths) TapDir() string {
	return filepath.Join(p.BaseDir(), "taps")
}

// TapPath resolves a capture file name. Bare names land in TapDir;
// anything with a path separator is used as given.
func (p *Paths) TapPath(name string) string {
	if strings.ContainsRune(name, os.PathSeparator) {
		return name
	}
	return filepath.Join(p.TapDir(), name)
}

// EnsureTapDir creates the capture directory if it doesn't exist
func (p *Paths) EnsureTapDir() error {
	return os.MkdirAll(p.TapDir(), 0755)
}
