package mwlogger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func TestNewMWLogger(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "request id from header", header: "req-123"},
		{name: "generated request id", header: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, seen = r.Context().Value(loggerWithRequestID{}).(zlog.Zerolog)
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/state", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()

			NewMWLogger(next).ServeHTTP(w, req)

			require.True(t, seen)
			require.Equal(t, http.StatusNoContent, w.Code)
			got := w.Header().Get(RequestIDHeader)
			require.NotEmpty(t, got)
			if tt.header != "" {
				require.Equal(t, tt.header, got)
			}
		})
	}
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	require.NotPanics(t, func() {
		logger := LoggerFromContext(context.Background())
		logger.Info().Msg("fallback logger works")
	})
}
