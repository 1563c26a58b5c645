package components

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harunnryd/jarvis/internal/config"
	"github.com/harunnryd/jarvis/internal/daemon"
	"github.com/harunnryd/jarvis/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct {
	components map[string]*daemon.ComponentHealth
}

func (f fakeHealth) Health() daemon.HealthStatus { return daemon.StatusRunning }

func (f fakeHealth) ComponentHealth() map[string]*daemon.ComponentHealth { return f.components }

func TestHTTPServerComponent_Dependencies(t *testing.T) {
	assert.Equal(t, []string{"Scheduler"}, NewHTTPServerComponent(nil, &config.ServerConfig{}, nil).Dependencies())

	custom := []string{"Adapters"}
	comp := NewHTTPServerComponentWithDependencies(nil, &config.ServerConfig{}, nil, custom)
	custom[0] = "Mutated"

	deps := comp.Dependencies()
	require.Equal(t, []string{"Adapters"}, deps)
	deps[0] = "MutatedAgain"
	assert.Equal(t, "Adapters", comp.Dependencies()[0])
}

func TestHTTPServerComponent_Healthz(t *testing.T) {
	health := fakeHealth{components: map[string]*daemon.ComponentHealth{
		"Scheduler": {Name: "Scheduler", Healthy: true},
	}}
	comp := NewHTTPServerComponent(health, &config.ServerConfig{}, nil)

	rec := httptest.NewRecorder()
	comp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "running", body.Status)
	assert.True(t, body.Components["Scheduler"].Healthy)

	health.components["Adapters"] = &daemon.ComponentHealth{Name: "Adapters", Error: fmt.Errorf("telegram down")}
	rec = httptest.NewRecorder()
	comp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "telegram down")

	rec = httptest.NewRecorder()
	comp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTPServerComponent_Metrics(t *testing.T) {
	m := metrics.New()
	m.ObserveJob("stats", true)
	comp := NewHTTPServerComponent(fakeHealth{}, &config.ServerConfig{}, m.Handler())

	rec := httptest.NewRecorder()
	comp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `jarvis_scheduler_runs_total{job="stats",status="success"} 1`)
}

func TestHTTPServerComponent_Lifecycle(t *testing.T) {
	comp := NewHTTPServerComponent(fakeHealth{}, &config.ServerConfig{Port: 0}, nil)
	assert.Error(t, comp.Start(context.Background()))

	require.NoError(t, comp.Init(context.Background()))
	require.NoError(t, comp.Start(context.Background()))

	h, err := comp.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Healthy)

	require.NoError(t, comp.Stop(context.Background()))
	h, _ = comp.Health(context.Background())
	assert.False(t, h.Healthy)
}
