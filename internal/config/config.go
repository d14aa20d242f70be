// Package config provides configuration management for helloweb.
package config

import (
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ryo415/rust-study/internal/logging"
)

var AppVersion = "-unset-" // will be set at build time

// Profiles select a set of defaults
const (
	ProfileDevelopment = "development"
	ProfileStaging     = "staging"
	ProfileProduction  = "production"
)

const (
	DefaultListenPort      = 8000
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultAutocertCache   = "data/autocert"
)

// DefaultTrustedProxies covers common reverse proxy setups (nginx, etc.)
var DefaultTrustedProxies = []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

// MainConfig holds the main configuration for helloweb.
// Config files use the flat keys listed in load.go, not this struct layout.
type MainConfig struct {
	// Web server settings
	Web WebConfig

	// Logging settings
	Log LogConfig

	// Listen address of the profiler web UI, empty disables it
	PprofAddr string

	AppVersion string // Application version, set at build time
}

// WebConfig holds web server configuration
type WebConfig struct {
	Profile          string
	Address          string
	ListenPort       int
	SSL              bool
	CertFile         string
	KeyFile          string
	AutocertHosts    []string
	AutocertCacheDir string
	TrustedProxies   []string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string // auto, console or json
}

// IsKnownProfile reports whether name is one of the supported profiles.
func IsKnownProfile(name string) bool {
	switch name {
	case ProfileDevelopment, ProfileStaging, ProfileProduction:
		return true
	}
	return false
}

// NewDefaultConfig returns the defaults of the given profile.
// An empty profile selects development; unknown profiles are kept as-is
// so that Validate can report them.
func NewDefaultConfig(profile string) *MainConfig {
	if profile == "" {
		profile = ProfileDevelopment
	}

	maincfg := &MainConfig{
		AppVersion: AppVersion,
		Web: WebConfig{
			Profile:          profile,
			Address:          "0.0.0.0",
			ListenPort:       DefaultListenPort,
			AutocertCacheDir: DefaultAutocertCache,
			TrustedProxies:   append([]string(nil), DefaultTrustedProxies...),
			ReadTimeout:      DefaultReadTimeout,
			WriteTimeout:     DefaultWriteTimeout,
			IdleTimeout:      DefaultIdleTimeout,
			ShutdownTimeout:  DefaultShutdownTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}

	switch profile {
	case ProfileDevelopment:
		maincfg.Web.Address = "localhost"
		maincfg.Log.Level = "debug"
	case ProfileProduction:
		maincfg.Log.Level = "warn"
	}
	return maincfg
}

// TLSEnabled reports whether the server terminates TLS itself.
func (w *WebConfig) TLSEnabled() bool {
	return w.SSL || len(w.AutocertHosts) > 0
}

// Validate checks the configuration for values the server cannot run with.
func (c *MainConfig) Validate() error {
	w := &c.Web
	if !IsKnownProfile(w.Profile) {
		return errors.Errorf("unknown profile %q (want %s, %s or %s)", w.Profile, ProfileDevelopment, ProfileStaging, ProfileProduction)
	}
	if w.ListenPort < 1 || w.ListenPort > 65535 {
		return errors.Errorf("invalid port number: %d (must be between 1 and 65535)", w.ListenPort)
	}
	if (w.CertFile == "") != (w.KeyFile == "") {
		return errors.New("cert_file and key_file must be set together")
	}
	if len(w.AutocertHosts) > 0 && w.CertFile != "" {
		return errors.New("autocert_hosts cannot be combined with cert_file/key_file")
	}
	if w.SSL && w.CertFile == "" && len(w.AutocertHosts) == 0 {
		return errors.New("SSL enabled but cert_file or key_file not specified in config")
	}
	for _, p := range w.TrustedProxies {
		if err := checkProxy(p); err != nil {
			return err
		}
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":     w.ReadTimeout,
		"write_timeout":    w.WriteTimeout,
		"idle_timeout":     w.IdleTimeout,
		"shutdown_timeout": w.ShutdownTimeout,
	} {
		if d < 0 {
			return errors.Errorf("%s must not be negative: %s", name, d)
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "auto", "console", "json":
	default:
		return errors.Errorf("invalid log format %q (want auto, console or json)", c.Log.Format)
	}
	return nil
}

func checkProxy(p string) error {
	if strings.Contains(p, "/") {
		if _, _, err := net.ParseCIDR(p); err != nil {
			return errors.Wrapf(err, "invalid trusted proxy %q", p)
		}
		return nil
	}
	if net.ParseIP(p) == nil {
		return errors.Errorf("invalid trusted proxy %q", p)
	}
	return nil
}
