package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Sanity.Enabled() {
		t.Errorf("expected sanity disabled without project id")
	}
	if cfg.Sanity.Timeout != 10*time.Second {
		t.Errorf("unexpected cms timeout: %s", cfg.Sanity.Timeout)
	}
	if cfg.Cache.TTL != 10*time.Minute || cfg.Cache.TaxonomyTTL != 24*time.Hour {
		t.Errorf("unexpected cache ttls: %s / %s", cfg.Cache.TTL, cfg.Cache.TaxonomyTTL)
	}
	if cfg.Translate.PerMinute != 20 {
		t.Errorf("unexpected translate rate: %d", cfg.Translate.PerMinute)
	}
	if len(cfg.CORS.AllowedOrigins) != 3 {
		t.Errorf("expected default origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Site.DefaultLocale != "nl" {
		t.Errorf("expected nl default locale, got %s", cfg.Site.DefaultLocale)
	}
	if cfg.Site.SecureCookies {
		t.Errorf("expected insecure cookies for local environment")
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"PORT":                            "9000",
		"AIUPD8_WEB_PORT":                 "9090",
		"AIUPD8_ENVIRONMENT":              "Prod",
		"AIUPD8_SANITY_PROJECT_ID":        "abc123",
		"AIUPD8_SANITY_DATASET":           "staging",
		"AIUPD8_SANITY_API_VERSION":       "v2023-05-03",
		"AIUPD8_SANITY_TOKEN":             "sm://sanity/token",
		"AIUPD8_CMS_CACHE_TTL":            "5m",
		"OPENAI_API_KEY":                  "secret://openai/key",
		"AIUPD8_TRANSLATE_RATE_PER_MIN":   "5",
		"AIUPD8_CORS_ALLOWED_ORIGINS":     "https://a.example, ,https://b.example",
		"AIUPD8_FIRESTORE_PROJECT_ID":     "aiupd8-prod",
		"AIUPD8_PUBSUB_TRANSLATION_TOPIC": "translations",
	}
	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		switch ref {
		case "secret://sanity/token":
			return " sanity-token\n", nil
		case "secret://openai/key":
			return "sk-test", nil
		}
		return "", errors.New("unknown secret")
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected AIUPD8_WEB_PORT to win, got %s", cfg.Server.Port)
	}
	if cfg.Server.Environment != "prod" || !cfg.Site.SecureCookies {
		t.Errorf("expected secure cookies in prod, got env=%s secure=%v", cfg.Server.Environment, cfg.Site.SecureCookies)
	}
	if cfg.Sanity.APIVersion != "2023-05-03" {
		t.Errorf("expected api version without v prefix, got %s", cfg.Sanity.APIVersion)
	}
	if cfg.Sanity.Token != "sanity-token" {
		t.Errorf("expected resolved sanity token, got %q", cfg.Sanity.Token)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("expected resolved openai key, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("unexpected cache ttl: %s", cfg.Cache.TTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.PubSub.ProjectID != "aiupd8-prod" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
}

func TestLoadSecretWithoutResolver(t *testing.T) {
	env := map[string]string{"AIUPD8_OPENAI_API_KEY": "sm://openai/key"}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %v", err)
	}
	if secretErr.Ref != "secret://openai/key" {
		t.Errorf("unexpected ref: %s", secretErr.Ref)
	}
	if !errors.Is(err, errSecretResolverNotConfigured) {
		t.Errorf("expected unwrap to resolver error")
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"AIUPD8_WEB_PORT":               "http",
		"AIUPD8_DEFAULT_LOCALE":         "fr",
		"AIUPD8_TRANSLATE_RATE_PER_MIN": "0",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := validation.Fields()
	want := map[string]bool{"Server.Port": false, "Site.DefaultLocale": false, "Translate.PerMinute": false}
	for _, f := range fields {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("expected %s in %v", f, fields)
		}
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nAIUPD8_SANITY_PROJECT_ID=from-file\nexport AIUPD8_OPENAI_MODEL=\"gpt-test\"\nAIUPD8_WEB_PORT=7070\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(path),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"AIUPD8_WEB_PORT": "6060"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sanity.ProjectID != "from-file" {
		t.Errorf("expected project from file, got %s", cfg.Sanity.ProjectID)
	}
	if cfg.OpenAI.Model != "gpt-test" {
		t.Errorf("expected model from file, got %s", cfg.OpenAI.Model)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("expected env map to take precedence, got %s", cfg.Server.Port)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(context.Background(), WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestLookupPrecedence(t *testing.T) {
	lookup, err := Lookup(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{"AIUPD8_SECRETS_PROJECT_ID": "p"}))
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if v, ok := lookup("AIUPD8_SECRETS_PROJECT_ID"); !ok || v != "p" {
		t.Errorf("unexpected lookup result %q %v", v, ok)
	}
	if _, ok := lookup("MISSING"); ok {
		t.Errorf("expected missing key")
	}
}
