package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryo415/rust-study/internal/config"
	"github.com/ryo415/rust-study/internal/web"
)

func TestRootCommandRejectsArguments(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"serve"})
	assert.Error(t, cmd.Execute())
}

func TestRootCommandRejectsInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--env", "qa"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile")
}

func TestBindFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8000, "")
	v := viper.New()

	require.NoError(t, bindFlags(v, flags, map[string]string{"port": "port"}))
	assert.Equal(t, 8000, v.GetInt("port"))
	assert.False(t, v.IsSet("port"))

	require.NoError(t, flags.Parse([]string{"--port", "9000"}))
	assert.Equal(t, 9000, v.GetInt("port"))
	assert.True(t, v.IsSet("port"))

	assert.Error(t, bindFlags(v, flags, map[string]string{"missing": "missing"}))
}

func TestMonitorUpdateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".update")
	signaled := make(chan bool, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		monitorUpdateFile(ctx, path, 10*time.Millisecond, signaled, zerolog.Nop())
		close(done)
	}()

	require.NoError(t, os.WriteFile(path, nil, 0o644))

	select {
	case <-signaled:
	case <-time.After(5 * time.Second):
		t.Fatal("update file was not detected")
	}
	<-done

	_, err := os.Stat(path + ".todo")
	assert.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMonitorUpdateFileStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitorUpdateFile(ctx, filepath.Join(t.TempDir(), ".update"), time.Hour, make(chan bool, 1), zerolog.Nop())
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}

func TestRoutePrinter(t *testing.T) {
	var buf bytes.Buffer
	routePrinter(zerolog.New(&buf).Level(zerolog.DebugLevel))("GET", "/world", "main.handler", 5)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Route registered", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/world", entry["path"])
	assert.EqualValues(t, 5, entry["handlers"])
}

// waitUntilServing polls the server until it answers on its bound port.
func waitUntilServing(t *testing.T, server *web.WebServer) {
	t.Helper()
	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get(server.URL() + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServeUntilSignal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	saved := updateFileInterval
	updateFileInterval = 10 * time.Millisecond
	t.Cleanup(func() { updateFileInterval = saved })

	// setup adjusts the config and returns the update file to watch,
	// trigger runs once the server answers requests.
	tests := []struct {
		name    string
		setup   func(t *testing.T, cfg *config.MainConfig) string
		trigger func(t *testing.T, updateFile string)
		wantErr string
	}{
		{
			name: "SIGTERM shuts down gracefully",
			trigger: func(t *testing.T, _ string) {
				p, err := os.FindProcess(os.Getpid())
				require.NoError(t, err)
				require.NoError(t, p.Signal(syscall.SIGTERM))
			},
		},
		{
			name: "update file shuts down gracefully",
			setup: func(t *testing.T, _ *config.MainConfig) string {
				return filepath.Join(t.TempDir(), ".update")
			},
			trigger: func(t *testing.T, updateFile string) {
				require.NoError(t, os.WriteFile(updateFile, nil, 0o644))
			},
		},
		{
			name: "port in use",
			setup: func(t *testing.T, cfg *config.MainConfig) string {
				ln, err := net.Listen("tcp", "127.0.0.1:0")
				require.NoError(t, err)
				t.Cleanup(func() { ln.Close() })
				cfg.Web.ListenPort = ln.Addr().(*net.TCPAddr).Port
				return ""
			},
			wantErr: "listening on",
		},
		{
			name: "unreadable key pair",
			setup: func(t *testing.T, cfg *config.MainConfig) string {
				dir := t.TempDir()
				cfg.Web.SSL = true
				cfg.Web.CertFile = filepath.Join(dir, "missing.crt")
				cfg.Web.KeyFile = filepath.Join(dir, "missing.key")
				return ""
			},
			wantErr: "loading TLS key pair",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig(config.ProfileStaging)
			cfg.Web.Address = "127.0.0.1"
			cfg.Web.ListenPort = 0
			cfg.Web.ShutdownTimeout = 5 * time.Second
			updateFile := ""
			if tt.setup != nil {
				updateFile = tt.setup(t, cfg)
			}

			server, err := web.NewServer(&cfg.Web, nil)
			require.NoError(t, err)

			done := make(chan error, 1)
			go func() { done <- serveUntilSignal(server, cfg, updateFile, zerolog.Nop()) }()

			if tt.trigger != nil {
				waitUntilServing(t, server)
				tt.trigger(t, updateFile)
			}

			select {
			case err := <-done:
				if tt.wantErr != "" {
					require.Error(t, err)
					assert.Contains(t, err.Error(), tt.wantErr)
					return
				}
				require.NoError(t, err)
			case <-time.After(10 * time.Second):
				t.Fatal("serveUntilSignal did not return")
			}

			_, err = http.Get(server.URL() + "/")
			assert.Error(t, err, "server still accepts connections after shutdown")
			if updateFile != "" {
				_, err = os.Stat(updateFile + ".todo")
				assert.NoError(t, err)
			}
		})
	}
}
