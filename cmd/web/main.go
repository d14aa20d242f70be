// Command helloweb serves the two static greeting routes.
package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ryo415/rust-study/internal/config"
	"github.com/ryo415/rust-study/internal/logging"
	"github.com/ryo415/rust-study/internal/web"
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion

	if err := newRootCommand().Execute(); err != nil {
		log := logging.For("web")
		log.Error().Err(err).Msg("helloweb stopped")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "helloweb",
		Short: "Serve the hello world routes",
		Long: `Start the helloweb HTTP server.

Routes:
  GET /       Hello world!
  GET /world  hello world!

Every flag can also be given as HELLOWEB_<KEY> environment variable
(e.g. HELLOWEB_PORT=9000), in a .env file or in helloweb.yaml.`,
		Example: `  # Start with development defaults on localhost:8000
  helloweb

  # Production profile on a custom port
  helloweb --env production --port 8080`,
		Version:       config.AppVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(v, configFile)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default: ./helloweb.{yaml,toml,json} if present)")
	flags.String("env", config.ProfileDevelopment, "profile: development, staging or production")
	flags.String("address", "", "bind address (default: localhost for development, 0.0.0.0 otherwise)")
	flags.IntP("port", "p", config.DefaultListenPort, "listen port")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (default depends on --env)")
	flags.String("log-format", "auto", "log format: auto, console or json")
	flags.String("pprof", "", "listen address of the profiler web UI, e.g. :51111 (disabled if empty)")
	flags.String("update-file", "", "shut down gracefully when this file appears (disabled if empty)")

	if err := bindFlags(v, flags, map[string]string{
		"env":         config.KeyProfile,
		"address":     config.KeyAddress,
		"port":        config.KeyPort,
		"log-level":   config.KeyLogLevel,
		"log-format":  config.KeyLogFormat,
		"pprof":       config.KeyPprof,
		"update-file": keyUpdateFile,
	}); err != nil {
		panic(err)
	}
	return cmd
}

func run(v *viper.Viper, configFile string) error {
	if err := config.LoadEnvFiles(".env"); err != nil {
		return err
	}
	mainConfig, err := config.Load(v, configFile)
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	if err := logging.Configure(logging.Options{Level: mainConfig.Log.Level, Format: mainConfig.Log.Format}); err != nil {
		return err
	}

	log := logging.For("web")
	log.Info().
		Str("version", config.AppVersion).
		Str("env", mainConfig.Web.Profile).
		Str("address", mainConfig.Web.Address).
		Int("port", mainConfig.Web.ListenPort).
		Bool("tls", mainConfig.Web.TLSEnabled()).
		Msg("Starting helloweb")

	if mainConfig.PprofAddr != "" {
		startProfiler(mainConfig.PprofAddr, log)
	}

	gin.SetMode(web.GinMode(mainConfig.Web.Profile))
	gin.DebugPrintRouteFunc = routePrinter(log)
	server, err := web.NewServer(&mainConfig.Web, &log)
	if err != nil {
		return errors.Wrap(err, "creating web server")
	}

	return serveUntilSignal(server, mainConfig, v.GetString(keyUpdateFile), log)
}
