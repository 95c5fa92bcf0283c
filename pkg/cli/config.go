package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the configuration directory name under $HOME
	DefaultBaseDir = ".voicebridge"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config is the on-disk configuration: a set of named contexts plus the
// currently selected one, kubectl style.
type Config struct {
	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Context holds the credentials and listen settings of one deployment.
type Context struct {
	// Name is the context name
	Name string `yaml:"name"`

	// Doubao contains the Volcengine realtime dialogue credentials
	Doubao *DoubaoCredentials `yaml:"doubao,omitempty"`

	// GLM contains the GLM realtime credentials
	GLM *GLMCredentials `yaml:"glm,omitempty"`

	// DoubaoAddr overrides the Doubao listen address (default :3001)
	DoubaoAddr string `yaml:"doubao_addr,omitempty"`

	// GLMAddr overrides the GLM listen address (default :3000)
	GLMAddr string `yaml:"glm_addr,omitempty"`

	// Extra stores additional settings
	Extra map[string]string `yaml:"extra,omitempty"`
}

// DoubaoCredentials authenticate the upstream dialogue handshake.
type DoubaoCredentials struct {
	// AppID is the Volcengine application ID
	AppID string `yaml:"app_id"`

	// AccessKey is the speech access key (X-Api-Access-Key)
	AccessKey string `yaml:"access_key"`

	// SecretKey is the speech secret key
	SecretKey string `yaml:"secret_key"`
}

// GLMCredentials authenticate the GLM realtime handshake.
type GLMCredentials struct {
	// APIKey is sent as the Authorization header
	APIKey string `yaml:"api_key"`
}

// LoadConfig loads or creates the configuration at the default path
// (~/.voicebridge/config.yaml).
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath("")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(customPath string) (*Config, error) {
	var configPath string

	if customPath != "" {
		configPath = customPath
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, DefaultConfigFile)
	}

	// Ensure config directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create empty config file
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Ensure contexts map is initialized
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}

	cfg.configPath = configPath

	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext adds a new context
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// GetCurrentContext returns the current context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}
	return c.GetContext(c.CurrentContext)
}

// ResolveContext returns the context by name, or current context if name is empty
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		return c.GetCurrentContext()
	}
	return c.GetContext(name)
}

// ListContexts returns all context names
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	return names
}

// GetExtra returns an extra value for the context
func (ctx *Context) GetExtra(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// SetExtra sets an extra value for the context
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// MaskAPIKey masks the API key for display
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
