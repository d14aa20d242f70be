package config

import (
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. HELLOWEB_PORT.
const EnvPrefix = "HELLOWEB"

// ConfigName is the base name searched for in the working directory
// (helloweb.yaml, helloweb.toml, helloweb.json).
const ConfigName = "helloweb"

// Keys understood in config files, environment and flags.
const (
	KeyProfile          = "env"
	KeyAddress          = "address"
	KeyPort             = "port"
	KeySSL              = "ssl"
	KeyCertFile         = "cert_file"
	KeyKeyFile          = "key_file"
	KeyAutocertHosts    = "autocert_hosts"
	KeyAutocertCacheDir = "autocert_cache_dir"
	KeyTrustedProxies   = "trusted_proxies"
	KeyReadTimeout      = "read_timeout"
	KeyWriteTimeout     = "write_timeout"
	KeyIdleTimeout      = "idle_timeout"
	KeyShutdownTimeout  = "shutdown_timeout"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyPprof            = "pprof"
)

// LoadEnvFiles loads the given .env files into the process environment.
// Missing files are skipped, variables already set are not overwritten.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "loading %s", f)
		}
	}
	return nil
}

// Load builds the configuration from, in order of precedence:
// flags bound to v, HELLOWEB_* environment variables, the config file
// and finally the profile defaults. configFile may be empty to search
// the working directory.
func Load(v *viper.Viper, configFile string) (*MainConfig, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config file")
		}
	}
	if err := checkFlatKeys(v); err != nil {
		return nil, err
	}

	cfg := NewDefaultConfig(v.GetString(KeyProfile))
	w := &cfg.Web

	if v.IsSet(KeyAddress) {
		w.Address = v.GetString(KeyAddress)
	}
	if v.IsSet(KeyPort) {
		w.ListenPort = v.GetInt(KeyPort)
	}
	if v.IsSet(KeySSL) {
		w.SSL = v.GetBool(KeySSL)
	}
	if v.IsSet(KeyCertFile) {
		w.CertFile = v.GetString(KeyCertFile)
	}
	if v.IsSet(KeyKeyFile) {
		w.KeyFile = v.GetString(KeyKeyFile)
	}
	if v.IsSet(KeyAutocertHosts) {
		w.AutocertHosts = getList(v, KeyAutocertHosts)
	}
	if v.IsSet(KeyAutocertCacheDir) {
		w.AutocertCacheDir = v.GetString(KeyAutocertCacheDir)
	}
	if v.IsSet(KeyTrustedProxies) {
		w.TrustedProxies = getList(v, KeyTrustedProxies)
	}
	if v.IsSet(KeyReadTimeout) {
		w.ReadTimeout = v.GetDuration(KeyReadTimeout)
	}
	if v.IsSet(KeyWriteTimeout) {
		w.WriteTimeout = v.GetDuration(KeyWriteTimeout)
	}
	if v.IsSet(KeyIdleTimeout) {
		w.IdleTimeout = v.GetDuration(KeyIdleTimeout)
	}
	if v.IsSet(KeyShutdownTimeout) {
		w.ShutdownTimeout = v.GetDuration(KeyShutdownTimeout)
	}
	if v.IsSet(KeyLogLevel) {
		cfg.Log.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogFormat) {
		cfg.Log.Format = v.GetString(KeyLogFormat)
	}
	cfg.PprofAddr = v.GetString(KeyPprof)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkFlatKeys rejects nested sections such as "web: {port: 9000}",
// which Load would otherwise ignore without notice.
func checkFlatKeys(v *viper.Viper) error {
	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(key, ".") {
			return errors.Errorf("unsupported nested key %q in config file (keys are flat, e.g. %s, %s)", key, KeyPort, KeyLogLevel)
		}
	}
	return nil
}

// getList accepts both real lists (config files) and comma separated
// strings (environment variables).
func getList(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
