package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// Transport constants
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Docs source constants
const (
	DocsSourceLocal  = "local"
	DocsSourceRemote = "remote"
)

// EnvPrefix is the prefix of all environment variables read by the server
const EnvPrefix = "DOCS_MCP"

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DocsSettings configuration for the documentation corpus
type DocsSettings struct {
	Source        string        `mapstructure:"source"` // DocsSourceLocal or DocsSourceRemote
	BasePath      string        `mapstructure:"base_path"`
	RemoteBaseURL string        `mapstructure:"remote_base_url"`
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`
	RemoteRPS     float64       `mapstructure:"remote_rps"`
}

// XRefSettings locations of the precomputed cross-reference artifacts
type XRefSettings struct {
	CodeDocsPath  string `mapstructure:"code_docs_path"`
	CodeTestsPath string `mapstructure:"code_tests_path"`
}

// SearchSettings configuration for the full-text document index
type SearchSettings struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxResults int  `mapstructure:"max_results"`
}

// Settings application settings
type Settings struct {
	Transport string         `mapstructure:"transport"`
	Host      string         `mapstructure:"host"`
	Port      int            `mapstructure:"port"`
	Auth      AuthSettings   `mapstructure:"auth"`
	Docs      DocsSettings   `mapstructure:"docs"`
	XRef      XRefSettings   `mapstructure:"xref"`
	Search    SearchSettings `mapstructure:"search"`
}

// flagBindings maps settings keys to CLI flag names
var flagBindings = map[string]string{
	"transport":            "transport",
	"host":                 "host",
	"port":                 "port",
	"auth.type":            "auth-type",
	"auth.basic.username":  "auth-basic-username",
	"auth.basic.password":  "auth-basic-password",
	"auth.api_keys":        "auth-api-keys",
	"docs.source":          "docs-source",
	"docs.base_path":       "docs-base-path",
	"docs.remote_base_url": "docs-remote-url",
	"docs.remote_timeout":  "docs-remote-timeout",
	"docs.remote_rps":      "docs-remote-rps",
	"xref.code_docs_path":  "code-docs-map",
	"xref.code_tests_path": "code-tests-map",
	"search.enabled":       "search-enabled",
	"search.max_results":   "search-max-results",
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	// Docs defaults
	v.SetDefault("docs.source", DocsSourceLocal)
	v.SetDefault("docs.base_path", "./docs")
	v.SetDefault("docs.remote_base_url", "")
	v.SetDefault("docs.remote_timeout", 10*time.Second)
	v.SetDefault("docs.remote_rps", 0.0)
	v.SetDefault("xref.code_docs_path", "")
	v.SetDefault("xref.code_tests_path", "")
	v.SetDefault("search.enabled", true)
	v.SetDefault("search.max_results", 20)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind every nested key explicitly so Unmarshal sees env-only values
	for key := range flagBindings {
		_ = v.BindEnv(key, envName(key))
	}

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Handle explicit parsing of API keys if provided via env var as comma-separated string
	apiKeysEnv := os.Getenv(envName("auth.api_keys"))
	if apiKeysEnv != "" {
		if len(settings.Auth.APIKeys) == 0 || (len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",")) {
			settings.Auth.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}

	// Trim spaces from API keys
	for i := range settings.Auth.APIKeys {
		settings.Auth.APIKeys[i] = strings.TrimSpace(settings.Auth.APIKeys[i])
	}
	settings.Auth.APIKeys = filterEmptyStrings(settings.Auth.APIKeys)

	settings.Docs.Source = strings.ToLower(strings.TrimSpace(settings.Docs.Source))
	settings.Docs.RemoteBaseURL = strings.TrimSpace(settings.Docs.RemoteBaseURL)

	// Expand home directory in paths
	settings.Docs.BasePath = expandHomeDir(settings.Docs.BasePath)
	settings.XRef.CodeDocsPath = expandHomeDir(settings.XRef.CodeDocsPath)
	settings.XRef.CodeTestsPath = expandHomeDir(settings.XRef.CodeTestsPath)

	return &settings, nil
}

// envName returns the environment variable bound to a settings key
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// filterEmptyStrings removes empty strings from a slice
func filterEmptyStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete config.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case TransportStdio, TransportSSE, TransportHTTP:
		// valid
	default:
		return errors.New("transport must be 'stdio', 'sse' or 'http', got: " + s.Transport)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	if err := validateDocsSettings(&s.Docs); err != nil {
		return err
	}

	if s.Search.Enabled && s.Search.MaxResults <= 0 {
		return errors.New("search-max-results must be positive")
	}

	return nil
}

// validateDocsSettings validates the corpus location
func validateDocsSettings(d *DocsSettings) error {
	switch d.Source {
	case DocsSourceLocal:
		if strings.TrimSpace(d.BasePath) == "" {
			return errors.New("docs-base-path cannot be empty for a local docs source")
		}
	case DocsSourceRemote:
		if d.RemoteBaseURL == "" {
			return errors.New("docs-remote-url is required for a remote docs source")
		}
		u, err := url.Parse(d.RemoteBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("docs-remote-url must be an absolute http(s) URL, got: " + d.RemoteBaseURL)
		}
		if d.RemoteTimeout <= 0 {
			return errors.New("docs-remote-timeout must be positive")
		}
	default:
		return errors.New("docs-source must be 'local' or 'remote', got: " + d.Source)
	}

	if d.RemoteRPS < 0 {
		return errors.New("docs-remote-rps cannot be negative")
	}

	return nil
}
