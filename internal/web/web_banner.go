package web

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	bannerTitle = color.New(color.FgBlue, color.Bold)
	bannerKey   = color.New(color.FgHiBlack)
	bannerValue = color.New(color.Bold)
	bannerReady = color.New(color.FgGreen, color.Bold)
)

// PrintBanner writes the effective configuration, the mounted routes and the
// launch URL to w. Colors follow color.NoColor.
func PrintBanner(w io.Writer, s *WebServer, logLevel string) {
	cfg := s.Config

	tls := "disabled"
	switch {
	case len(cfg.AutocertHosts) > 0:
		tls = "acme (" + strings.Join(cfg.AutocertHosts, ", ") + ")"
	case cfg.SSL:
		tls = "enabled"
	}

	bannerTitle.Fprintf(w, "🔧 Configured for %s.\n", cfg.Profile)
	printSetting(w, "address", cfg.Address)
	printSetting(w, "port", fmt.Sprint(cfg.ListenPort))
	printSetting(w, "log", logLevel)
	printSetting(w, "tls", tls)
	printSetting(w, "timeouts", fmt.Sprintf("read %s, write %s, idle %s", cfg.ReadTimeout, cfg.WriteTimeout, cfg.IdleTimeout))

	bannerTitle.Fprintln(w, "🛰  Mounting /:")
	for _, r := range routeTable {
		bannerKey.Fprint(w, "    => ")
		fmt.Fprintf(w, "%s %s (%s)\n", r.Method, r.Path, r.Name)
	}

	bannerReady.Fprintf(w, "🚀 helloweb has launched from %s\n", s.URL())
}

func printSetting(w io.Writer, key, value string) {
	bannerKey.Fprintf(w, "    => %s: ", key)
	bannerValue.Fprintln(w, value)
}
