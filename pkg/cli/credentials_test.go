package cli

import (
	"strings"
	"testing"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDoubaoAppID, EnvDoubaoAccessKey, EnvDoubaoSecretKey, EnvGLMAPIKey} {
		t.Setenv(key, "")
	}
}

func TestResolveDoubaoCredentials_EnvOnly(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvDoubaoAppID, "env-app")
	t.Setenv(EnvDoubaoAccessKey, "env-ak")
	t.Setenv(EnvDoubaoSecretKey, "env-sk")

	creds, err := ResolveDoubaoCredentials(nil)
	if err != nil {
		t.Fatalf("ResolveDoubaoCredentials error: %v", err)
	}
	if creds.AppID != "env-app" || creds.AccessKey != "env-ak" || creds.SecretKey != "env-sk" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestResolveDoubaoCredentials_ContextFallback(t *testing.T) {
	clearCredentialEnv(t)
	ctx := &Context{
		Doubao: &DoubaoCredentials{
			AppID:     "ctx-app",
			AccessKey: "ctx-ak",
			SecretKey: "ctx-sk",
		},
	}

	creds, err := ResolveDoubaoCredentials(ctx)
	if err != nil {
		t.Fatalf("ResolveDoubaoCredentials error: %v", err)
	}
	if creds.AppID != "ctx-app" {
		t.Errorf("AppID = %q, want context value", creds.AppID)
	}
}

func TestResolveDoubaoCredentials_EnvWins(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvDoubaoAppID, "env-app")
	ctx := &Context{
		Doubao: &DoubaoCredentials{
			AppID:     "ctx-app",
			AccessKey: "ctx-ak",
			SecretKey: "ctx-sk",
		},
	}

	creds, err := ResolveDoubaoCredentials(ctx)
	if err != nil {
		t.Fatalf("ResolveDoubaoCredentials error: %v", err)
	}
	if creds.AppID != "env-app" {
		t.Errorf("AppID = %q, env should win", creds.AppID)
	}
	if creds.AccessKey != "ctx-ak" {
		t.Errorf("AccessKey = %q, unset env should fall through", creds.AccessKey)
	}
}

func TestResolveDoubaoCredentials_MissingNamesVars(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvDoubaoAppID, "env-app")

	_, err := ResolveDoubaoCredentials(nil)
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	msg := err.Error()
	if !strings.Contains(msg, EnvDoubaoAccessKey) || !strings.Contains(msg, EnvDoubaoSecretKey) {
		t.Errorf("error should name the missing variables: %v", err)
	}
	if strings.Contains(msg, EnvDoubaoAppID) {
		t.Errorf("error should not name the provided variable: %v", err)
	}
}

func TestResolveGLMAPIKey(t *testing.T) {
	clearCredentialEnv(t)

	if _, err := ResolveGLMAPIKey(nil); err == nil {
		t.Error("expected error with no key anywhere")
	}

	ctx := &Context{GLM: &GLMCredentials{APIKey: "ctx-key"}}
	key, err := ResolveGLMAPIKey(ctx)
	if err != nil {
		t.Fatalf("ResolveGLMAPIKey error: %v", err)
	}
	if key != "ctx-key" {
		t.Errorf("key = %q, want context value", key)
	}

	t.Setenv(EnvGLMAPIKey, "env-key")
	key, err = ResolveGLMAPIKey(ctx)
	if err != nil {
		t.Fatalf("ResolveGLMAPIKey error: %v", err)
	}
	if key != "env-key" {
		t.Errorf("key = %q, env should win", key)
	}
}
