package web

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated", incoming: ""},
		{name: "echoed", incoming: "abc-123", keep: true},
		{name: "too long", incoming: strings.Repeat("x", maxRequestIDLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.incoming != "" {
				header.Set(RequestIDHeader, tt.incoming)
			}
			rec := doRequest(srv, http.MethodGet, "/world", header)
			got := rec.Header().Get(RequestIDHeader)
			if tt.keep {
				assert.Equal(t, tt.incoming, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err, "expected a generated uuid, got %q", got)
		})
	}
}

func TestAccessLogMiddleware(t *testing.T) {
	srv, logs := newTestServer(t, nil)

	header := http.Header{RequestIDHeader: {"req-1"}}
	doRequest(srv, http.MethodGet, "/world", header)
	doRequest(srv, http.MethodGet, "/missing", nil)

	entries := decodeLogs(t, logs)
	require.Len(t, entries, 2)

	ok := entries[0]
	assert.Equal(t, "info", ok["level"])
	assert.Equal(t, accessLogMessage, ok["message"])
	assert.Equal(t, "GET", ok["method"])
	assert.Equal(t, "/world", ok["path"])
	assert.EqualValues(t, http.StatusOK, ok["status"])
	assert.EqualValues(t, len("hello world!"), ok["size"])
	assert.Equal(t, "req-1", ok["request_id"])

	missing := entries[1]
	assert.Equal(t, "warn", missing["level"])
	assert.Equal(t, "/missing", missing["path"])
	assert.EqualValues(t, http.StatusNotFound, missing["status"])
}
