// Package web provides the HTTP server for helloweb
package web

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/acme/autocert"

	"github.com/ryo415/rust-study/internal/config"
	"github.com/ryo415/rust-study/internal/logging"
)

// WebServer represents the web server
type WebServer struct {
	Router *gin.Engine
	Config *config.WebConfig

	logger     *zerolog.Logger
	httpServer *http.Server
	certMgr    *autocert.Manager

	mux       sync.Mutex
	boundTo   net.Addr
	startTime time.Time // Track server start time for uptime calculations
}

// GinMode maps a profile to the gin mode it runs in.
func GinMode(profile string) string {
	if profile == config.ProfileDevelopment {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// NewServer creates a new web server instance. A nil logger selects logging.Default().
// The gin mode and gin.DebugPrintRouteFunc are process wide and have to be set
// by the caller (see GinMode).
func NewServer(webconfig *config.WebConfig, logger *zerolog.Logger) (*WebServer, error) {
	if webconfig == nil {
		return nil, errors.New("web config is nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	router := gin.New()

	// Configure Gin to trust reverse proxy headers
	if err := router.SetTrustedProxies(webconfig.TrustedProxies); err != nil {
		return nil, errors.Wrap(err, "setting trusted proxies")
	}

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	}

	// Only add SSL-specific headers if SSL is terminated by the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if webconfig.TLSEnabled() {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}

	router.Use(
		RequestIDMiddleware(),
		AccessLogMiddleware(logger),
		RecoveryMiddleware(logger),
		secure.New(secureConfig),
	)

	server := &WebServer{
		Router: router,
		Config: webconfig,
		logger: logger,
	}
	server.httpServer = &http.Server{
		Addr:         server.Addr(),
		Handler:      router,
		ReadTimeout:  webconfig.ReadTimeout,
		WriteTimeout: webconfig.WriteTimeout,
		IdleTimeout:  webconfig.IdleTimeout,
	}

	if len(webconfig.AutocertHosts) > 0 {
		server.certMgr = &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(webconfig.AutocertHosts...),
			Cache:      autocert.DirCache(webconfig.AutocertCacheDir),
		}
		server.httpServer.TLSConfig = server.certMgr.TLSConfig()
	}

	server.setupRoutes()
	return server, nil
}

// Handler returns the router with all middleware applied.
func (s *WebServer) Handler() http.Handler {
	return s.Router
}

// Addr returns the configured listen address.
func (s *WebServer) Addr() string {
	return net.JoinHostPort(s.Config.Address, strconv.Itoa(s.Config.ListenPort))
}

// URL returns the base URL the server is reachable at. After Listen it
// reflects the bound address, which differs from Addr for port 0.
func (s *WebServer) URL() string {
	protocol := "http"
	if s.Config.TLSEnabled() {
		protocol = "https"
	}
	addr := s.Addr()
	s.mux.Lock()
	if s.boundTo != nil {
		if _, port, err := net.SplitHostPort(s.boundTo.String()); err == nil {
			addr = net.JoinHostPort(s.Config.Address, port)
		}
	}
	s.mux.Unlock()
	return protocol + "://" + addr
}

// Listen binds the configured address without serving yet. With SSL the
// key pair is loaded first so that bad cert files fail here and not in Serve.
func (s *WebServer) Listen() (net.Listener, error) {
	if s.Config.SSL && s.certMgr == nil {
		cert, err := tls.LoadX509KeyPair(s.Config.CertFile, s.Config.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "loading TLS key pair")
		}
		s.httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", s.Addr())
	}
	s.mux.Lock()
	s.boundTo = ln.Addr()
	s.mux.Unlock()
	return ln, nil
}

// Serve accepts connections on ln until Shutdown is called, terminating
// TLS when configured. It returns http.ErrServerClosed after Shutdown.
func (s *WebServer) Serve(ln net.Listener) error {
	s.mux.Lock()
	s.startTime = time.Now()
	s.mux.Unlock()

	switch {
	case s.certMgr != nil:
		s.logger.Info().Str("addr", ln.Addr().String()).Strs("hosts", s.Config.AutocertHosts).Msg("Starting HTTPS server with ACME certificates")
		return s.httpServer.ServeTLS(ln, "", "")
	case s.Config.SSL:
		s.logger.Info().Str("addr", ln.Addr().String()).Str("cert_file", s.Config.CertFile).Msg("Starting HTTPS server")
		// certificates come from TLSConfig, loaded by Listen
		return s.httpServer.ServeTLS(ln, "", "")
	default:
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting HTTP server")
		return s.httpServer.Serve(ln)
	}
}

// StartTime returns when Serve was entered, zero before that.
func (s *WebServer) StartTime() time.Time {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.startTime
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "web server shutdown")
	}
	return nil
}
