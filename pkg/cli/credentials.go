package cli

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted before the context file. A variable
// that is set always wins over the stored context value.
const (
	EnvDoubaoAppID     = "DOUBAO_APP_ID"
	EnvDoubaoAccessKey = "DOUBAO_ACCESS_KEY"
	EnvDoubaoSecretKey = "DOUBAO_SECRET_KEY"
	EnvGLMAPIKey       = "API_KEY"
)

// ResolveDoubaoCredentials layers the process environment over the
// context (which may be nil). Every field must resolve to a non-empty
// value; the error names the variables still missing.
func ResolveDoubaoCredentials(ctx *Context) (*DoubaoCredentials, error) {
	creds := &DoubaoCredentials{}
	if ctx != nil && ctx.Doubao != nil {
		*creds = *ctx.Doubao
	}
	if v := os.Getenv(EnvDoubaoAppID); v != "" {
		creds.AppID = v
	}
	if v := os.Getenv(EnvDoubaoAccessKey); v != "" {
		creds.AccessKey = v
	}
	if v := os.Getenv(EnvDoubaoSecretKey); v != "" {
		creds.SecretKey = v
	}

	var missing []string
	if creds.AppID == "" {
		missing = append(missing, EnvDoubaoAppID)
	}
	if creds.AccessKey == "" {
		missing = append(missing, EnvDoubaoAccessKey)
	}
	if creds.SecretKey == "" {
		missing = append(missing, EnvDoubaoSecretKey)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing Doubao credentials: set %s or add them to a context",
			strings.Join(missing, ", "))
	}
	return creds, nil
}

// ResolveGLMAPIKey layers the process environment over the context
// (which may be nil).
func ResolveGLMAPIKey(ctx *Context) (string, error) {
	key := ""
	if ctx != nil && ctx.GLM != nil {
		key = ctx.GLM.APIKey
	}
	if v := os.Getenv(EnvGLMAPIKey); v != "" {
		key = v
	}
	if key == "" {
		return "", fmt.Errorf("missing GLM credentials: set %s or add them to a context", EnvGLMAPIKey)
	}
	return key, nil
}
