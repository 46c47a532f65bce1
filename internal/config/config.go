package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "AUTHBRIDGE"

// Config represents the complete authbridge configuration
type Config struct {
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Google   OAuthClient    `mapstructure:"google"`
	Facebook OAuthClient    `mapstructure:"facebook"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Popup    PopupConfig    `mapstructure:"popup"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FirebaseConfig identifies the Firebase project the bridge signs users into.
type FirebaseConfig struct {
	APIKey     string `mapstructure:"api_key"`
	AuthDomain string `mapstructure:"auth_domain"`
	ProjectID  string `mapstructure:"project_id"`

	// Endpoint overrides the Identity Toolkit base URL (emulators, tests).
	Endpoint string `mapstructure:"endpoint"`
}

// OAuthClient holds the client credentials of a federated identity provider.
type OAuthClient struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
}

// Configured reports whether a client ID is present.
func (c OAuthClient) Configured() bool {
	return c.ClientID != ""
}

// BackendConfig locates the session API.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// PopupConfig controls the browser-based federated sign-in flow.
type PopupConfig struct {
	ListenAddr  string        `mapstructure:"listen_addr"`
	OpenBrowser bool          `mapstructure:"open_browser"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("authbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/authbridge")
	}

	// AUTHBRIDGE_FIREBASE_API_KEY -> firebase.api_key
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults and environment
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values. Every key is registered so that
// AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	for _, key := range []string{
		"firebase.api_key",
		"firebase.auth_domain",
		"firebase.project_id",
		"firebase.endpoint",
		"google.client_id",
		"google.client_secret",
		"facebook.client_id",
		"facebook.client_secret",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("google.scopes", []string{"openid", "email", "profile"})
	v.SetDefault("facebook.scopes", []string{"email", "public_profile"})

	v.SetDefault("backend.base_url", "http://localhost:8080/api/v1")

	v.SetDefault("popup.listen_addr", "127.0.0.1:0")
	v.SetDefault("popup.open_browser", true)
	v.SetDefault("popup.timeout", 5*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	if cfg.Firebase.APIKey == "" {
		return fmt.Errorf("firebase.api_key is required (set %s_FIREBASE_API_KEY)", EnvPrefix)
	}

	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL: %q", cfg.Backend.BaseURL)
	}

	if cfg.Firebase.Endpoint != "" {
		if u, err := url.Parse(cfg.Firebase.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid firebase endpoint: %q", cfg.Firebase.Endpoint)
		}
	}

	if cfg.Popup.Timeout < 0 {
		return fmt.Errorf("popup timeout must not be negative, got %s", cfg.Popup.Timeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", cfg.Logging.Format)
	}

	return nil
}
