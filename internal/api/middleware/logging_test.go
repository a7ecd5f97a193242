package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingDemotesProbeEndpoints(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/metrics", "/v1/runs"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	var infoPaths, debugPaths []string
	for _, entry := range logs.All() {
		path := ""
		for _, f := range entry.Context {
			if f.Key == "path" {
				path = f.String
			}
		}
		switch entry.Level {
		case zapcore.InfoLevel:
			infoPaths = append(infoPaths, path)
		case zapcore.DebugLevel:
			debugPaths = append(debugPaths, path)
		}
	}

	if len(infoPaths) != 1 || infoPaths[0] != "/v1/runs" {
		t.Errorf("info-level paths = %v, want only /v1/runs", infoPaths)
	}
	if len(debugPaths) != 2 {
		t.Errorf("debug-level paths = %v, want /health and /metrics", debugPaths)
	}
}
