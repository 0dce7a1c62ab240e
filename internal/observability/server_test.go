package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/stagehand/pkg/driver"
)

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name     string
		state    driver.State
		wantCode int
		wantBody string
	}{
		{"running", driver.StateRunning, http.StatusOK, "ok"},
		{"stopped", driver.StateStopped, http.StatusOK, "ok"},
		{"crashed", driver.StateCrashed, http.StatusServiceUnavailable, "crashed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer("", nil, func() driver.State { return tt.state }, nil)

			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
			assert.Equal(t, tt.state.String(), body["driver"])
		})
	}
}

func TestServer_NoMetricsRoute(t *testing.T) {
	s := NewServer("", nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_StartStop(t *testing.T) {
	m := NewMetrics("stagehand")
	m.Ticks.Inc()
	s := NewServer("127.0.0.1:0", m, func() driver.State { return driver.StateRunning }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx))

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "stagehand_ticks_total 1")

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	_, err = http.Get("http://" + s.Addr() + "/healthz")
	assert.Error(t, err)
}
