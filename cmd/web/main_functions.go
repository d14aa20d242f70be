package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ryo415/rust-study/internal/config"
	"github.com/ryo415/rust-study/internal/web"
)

// updateFileInterval is how often serveUntilSignal looks for the update file.
var updateFileInterval = 60 * time.Second

var Prof *prof.Profiler

// startProfiler serves the pprof web UI on addr in the background.
func startProfiler(addr string, log zerolog.Logger) {
	Prof = prof.NewProf()
	go Prof.PprofWeb(addr)
	log.Info().Str("addr", addr).Msg("Profiler web UI started")
}

// serveUntilSignal runs the web server until SIGINT/SIGTERM, a serve error
// or the update file shows up, then shuts it down gracefully.
func serveUntilSignal(server *web.WebServer, mainConfig *config.MainConfig, updateFile string, log zerolog.Logger) error {
	// Set up cross-platform signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ln, err := server.Listen()
	if err != nil {
		return err
	}

	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			webServerErrChan <- err
		}
	}()

	web.PrintBanner(os.Stdout, server, mainConfig.Log.Level)

	ctx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	updateFileChan := make(chan bool, 1)
	if updateFile != "" {
		go monitorUpdateFile(ctx, updateFile, updateFileInterval, updateFileChan, log)
	}

	// Wait for either shutdown signal, server error, or update file
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal, initiating graceful shutdown...")
	case err := <-webServerErrChan:
		return errors.Wrap(err, "web server failed")
	case <-updateFileChan:
		log.Info().Str("file", updateFile).Msg("Update file detected, initiating graceful shutdown for update...")
	}

	timeout := mainConfig.Web.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().
		Str("started", humanize.Time(server.StartTime())).
		Msg("Graceful shutdown completed")
	return nil
}

// monitorUpdateFile checks for the update file every interval and signals
// for shutdown when found, after renaming it to <file>.todo.
func monitorUpdateFile(ctx context.Context, updateFilePath string, interval time.Duration, shutdownChan chan<- bool, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Debug().Str("file", updateFilePath).Dur("interval", interval).Msg("Update file monitor started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := os.Stat(updateFilePath); err != nil {
			continue
		}

		if err := os.Rename(updateFilePath, updateFilePath+".todo"); err != nil {
			log.Warn().Err(err).Str("file", updateFilePath).Msg("Failed to rename update file")
			continue
		}

		select {
		case shutdownChan <- true:
		default:
			log.Debug().Msg("Shutdown channel already signaled")
		}
		return
	}
}
