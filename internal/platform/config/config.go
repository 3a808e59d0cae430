package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultEnvironment      = "local"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultSiteURL          = "https://aiupdate.be"
	defaultLocale           = "nl"
	defaultSanityDataset    = "production"
	defaultSanityAPIVersion = "2024-01-01"
	defaultCMSTimeout       = 10 * time.Second
	defaultCMSCacheTTL      = 10 * time.Minute
	defaultTaxonomyCacheTTL = 24 * time.Hour
	defaultCacheSize        = 512
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultOpenAITimeout    = 60 * time.Second
	defaultTranslatePerMin  = 20
)

var defaultAllowedOrigins = []string{
	"https://aiupdate.be",
	"https://localhost:3000",
	"https://aiupd8frontend.netlify.app",
}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Sanity    SanityConfig
	Cache     CacheConfig
	OpenAI    OpenAIConfig
	Translate TranslateConfig
	CORS      CORSConfig
	Firestore FirestoreConfig
	PubSub    PubSubConfig
	Secrets   SecretsConfig
	Analytics AnalyticsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SiteConfig holds public site settings.
type SiteConfig struct {
	BaseURL       string
	DefaultLocale string
	MediaBaseURL  string
	// SecureCookies marks locale, project and visitor cookies Secure.
	SecureCookies bool
}

// SanityConfig locates the content lake.
type SanityConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	Timeout    time.Duration
}

// Enabled reports whether content is fetched remotely rather than from the
// bundled fixtures.
func (s SanityConfig) Enabled() bool { return s.ProjectID != "" }

// CacheConfig controls the CMS response cache and its warmer.
type CacheConfig struct {
	TTL          time.Duration
	TaxonomyTTL  time.Duration
	Size         int
	WarmSchedule string
}

// OpenAIConfig defines the chat completion endpoint used for translations.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// TranslateConfig throttles the translation proxy.
type TranslateConfig struct {
	PerMinute int
}

// CORSConfig lists origins allowed to call the JSON API.
type CORSConfig struct {
	AllowedOrigins []string
}

// FirestoreConfig stores favourites persistence parameters. An empty project
// keeps favourites in memory.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// PubSubConfig stores event publishing parameters.
type PubSubConfig struct {
	ProjectID        string
	TranslationTopic string
}

// SecretsConfig configures Secret Manager lookups for sm:// references.
type SecretsConfig struct {
	ProjectID string
}

// AnalyticsConfig carries the Cloudflare Web Analytics beacon.
type AnalyticsConfig struct {
	CloudflareToken string
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects explicit values that take precedence over the process
// environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver sets the resolver used for sm:// and secret:// values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secret = resolver }
}

type lookupFunc func(string) (string, bool)

// Lookup returns a key lookup applying the same precedence as Load: explicit
// map, then process environment, then the .env file. It lets callers read
// bootstrap values (such as the secrets project) before Load runs.
func Lookup(opts ...Option) (func(string) (string, bool), error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}
	return newLookup(options)
}

func newLookup(options loaderOptions) (lookupFunc, error) {
	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	return func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := dotEnv[key]
		return v, ok
	}, nil
}

// Load assembles the configuration from defaults, the .env file, the
// environment and Secret Manager references.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	lookup, err := newLookup(options)
	if err != nil {
		return Config{}, err
	}

	port := stringWithDefault(lookup, "AIUPD8_WEB_PORT", "")
	if port == "" {
		port = stringWithDefault(lookup, "PORT", defaultPort)
	}
	apiKey := stringWithDefault(lookup, "AIUPD8_OPENAI_API_KEY", "")
	if apiKey == "" {
		apiKey = stringWithDefault(lookup, "OPENAI_API_KEY", "")
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         port,
			Environment:  strings.ToLower(stringWithDefault(lookup, "AIUPD8_ENVIRONMENT", defaultEnvironment)),
			ReadTimeout:  durationWithDefault(lookup, "AIUPD8_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "AIUPD8_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "AIUPD8_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Site: SiteConfig{
			BaseURL:       strings.TrimRight(stringWithDefault(lookup, "AIUPD8_SITE_URL", defaultSiteURL), "/"),
			DefaultLocale: strings.ToLower(stringWithDefault(lookup, "AIUPD8_DEFAULT_LOCALE", defaultLocale)),
			MediaBaseURL:  stringWithDefault(lookup, "AIUPD8_MEDIA_BASE_URL", ""),
		},
		Sanity: SanityConfig{
			ProjectID:  stringWithDefault(lookup, "AIUPD8_SANITY_PROJECT_ID", ""),
			Dataset:    stringWithDefault(lookup, "AIUPD8_SANITY_DATASET", defaultSanityDataset),
			APIVersion: strings.TrimPrefix(stringWithDefault(lookup, "AIUPD8_SANITY_API_VERSION", defaultSanityAPIVersion), "v"),
			Token:      stringWithDefault(lookup, "AIUPD8_SANITY_TOKEN", ""),
			UseCDN:     boolWithDefault(lookup, "AIUPD8_SANITY_USE_CDN", true),
			Timeout:    durationWithDefault(lookup, "AIUPD8_CMS_TIMEOUT", defaultCMSTimeout),
		},
		Cache: CacheConfig{
			TTL:          durationWithDefault(lookup, "AIUPD8_CMS_CACHE_TTL", defaultCMSCacheTTL),
			TaxonomyTTL:  durationWithDefault(lookup, "AIUPD8_TAXONOMY_CACHE_TTL", defaultTaxonomyCacheTTL),
			Size:         intWithDefault(lookup, "AIUPD8_CMS_CACHE_SIZE", defaultCacheSize),
			WarmSchedule: stringWithDefault(lookup, "AIUPD8_CACHE_WARM_SCHEDULE", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:  apiKey,
			BaseURL: strings.TrimRight(stringWithDefault(lookup, "AIUPD8_OPENAI_BASE_URL", defaultOpenAIBaseURL), "/"),
			Model:   stringWithDefault(lookup, "AIUPD8_OPENAI_MODEL", defaultOpenAIModel),
			Timeout: durationWithDefault(lookup, "AIUPD8_OPENAI_TIMEOUT", defaultOpenAITimeout),
		},
		Translate: TranslateConfig{
			PerMinute: intWithDefault(lookup, "AIUPD8_TRANSLATE_RATE_PER_MIN", defaultTranslatePerMin),
		},
		CORS: CORSConfig{
			AllowedOrigins: csvWithDefault(lookup, "AIUPD8_CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "AIUPD8_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "AIUPD8_FIRESTORE_EMULATOR_HOST", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:        stringWithDefault(lookup, "AIUPD8_PUBSUB_PROJECT_ID", ""),
			TranslationTopic: stringWithDefault(lookup, "AIUPD8_PUBSUB_TRANSLATION_TOPIC", ""),
		},
		Secrets: SecretsConfig{
			ProjectID: stringWithDefault(lookup, "AIUPD8_SECRETS_PROJECT_ID", ""),
		},
		Analytics: AnalyticsConfig{
			CloudflareToken: stringWithDefault(lookup, "AIUPD8_CLOUDFLARE_BEACON_TOKEN", ""),
		},
	}
	cfg.Site.SecureCookies = boolWithDefault(lookup, "AIUPD8_SECURE_COOKIES", cfg.Server.Environment != defaultEnvironment)

	// Pub/Sub defaults to the Firestore project when unspecified.
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}

	secretFields := []*string{&cfg.Sanity.Token, &cfg.OpenAI.APIKey}
	for _, field := range secretFields {
		resolved, err := resolveSecret(ctx, *field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*field = resolved
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if !isSecretReference(value) {
		return value, nil
	}
	ref := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return strings.TrimSpace(secret), nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if cfg.Server.Port == "" {
		invalid = append(invalid, "Server.Port")
	}
	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		invalid = append(invalid, "Server.Port")
	}
	if cfg.Site.DefaultLocale != "nl" && cfg.Site.DefaultLocale != "en" {
		invalid = append(invalid, "Site.DefaultLocale")
	}
	if u, err := url.Parse(cfg.Site.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, "Site.BaseURL")
	}
	if cfg.Sanity.Enabled() && cfg.Sanity.Dataset == "" {
		invalid = append(invalid, "Sanity.Dataset")
	}
	if cfg.Cache.TTL <= 0 {
		invalid = append(invalid, "Cache.TTL")
	}
	if cfg.Cache.TaxonomyTTL <= 0 {
		invalid = append(invalid, "Cache.TaxonomyTTL")
	}
	if cfg.Cache.Size <= 0 {
		invalid = append(invalid, "Cache.Size")
	}
	if cfg.Translate.PerMinute <= 0 {
		invalid = append(invalid, "Translate.PerMinute")
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		invalid = append(invalid, "CORS.AllowedOrigins")
	}
	if cfg.PubSub.TranslationTopic != "" && cfg.PubSub.ProjectID == "" {
		invalid = append(invalid, "PubSub.ProjectID")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "sm://") {
		return "secret://" + strings.TrimPrefix(trimmed, "sm://")
	}
	return trimmed
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup lookupFunc, key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup lookupFunc, key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup lookupFunc, key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup lookupFunc, key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup lookupFunc, key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return append([]string(nil), fallback...)
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
