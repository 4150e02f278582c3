package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/farmtech/irrigation/internal/auth"
	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// mockPluginSource satisfies the PluginSource interface for testing.
type mockPluginSource struct {
	plugins []plugin.Plugin
	routes  map[string][]plugin.Route
}

func (m *mockPluginSource) AllRoutes() map[string][]plugin.Route {
	if m.routes != nil {
		return m.routes
	}
	return map[string][]plugin.Route{}
}

func (m *mockPluginSource) All() []plugin.Plugin {
	return m.plugins
}

// stubPlugin satisfies plugin.Plugin and plugin.HealthChecker.
type stubPlugin struct {
	info   plugin.PluginInfo
	health string
}

func (s *stubPlugin) Info() plugin.PluginInfo                             { return s.info }
func (s *stubPlugin) Init(_ context.Context, _ plugin.Dependencies) error { return nil }
func (s *stubPlugin) Start(_ context.Context) error                       { return nil }
func (s *stubPlugin) Stop(_ context.Context) error                        { return nil }
func (s *stubPlugin) Health(_ context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{Status: s.health}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	return cfg
}

func newTestServer(ready ReadinessChecker, plugins ...plugin.Plugin) *Server {
	if plugins == nil {
		plugins = []plugin.Plugin{&stubPlugin{
			info: plugin.PluginInfo{
				Name:        "listener",
				Version:     "0.1.0",
				Description: "Simulated sensor listeners",
				Roles:       []string{"simulation"},
			},
			health: "healthy",
		}}
	}
	return New(testConfig(), &mockPluginSource{plugins: plugins}, zap.NewNop(), ready, nil)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", path, http.NoBody))
	return w
}

func TestProbes(t *testing.T) {
	tests := []struct {
		name       string
		ready      ReadinessChecker
		path       string
		wantCode   int
		wantStatus string
	}{
		{"liveness", nil, "/healthz", http.StatusOK, "alive"},
		{"ready without checker", nil, "/readyz", http.StatusOK, "ready"},
		{"ready", func(context.Context) error { return nil }, "/readyz", http.StatusOK, "ready"},
		{"not ready", func(context.Context) error { return errors.New("database unreachable") }, "/readyz", http.StatusServiceUnavailable, "not ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(tt.ready)
			w := get(t, srv.mux, tt.path)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %q, want %q", body["status"], tt.wantStatus)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		var body HealthResponse
		w := get(t, newTestServer(nil).mux, "/api/v1/health")
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "ok" || body.Service != "farmtech" {
			t.Errorf("body = %+v", body)
		}
		if body.Version["version"] == "" {
			t.Error("expected version map in response")
		}
		if body.Modules["listener"].Status != "healthy" {
			t.Errorf("modules = %v", body.Modules)
		}
	})

	t.Run("degraded module", func(t *testing.T) {
		srv := newTestServer(nil,
			&stubPlugin{info: plugin.PluginInfo{Name: "readings"}, health: "healthy"},
			&stubPlugin{info: plugin.PluginInfo{Name: "mqtt"}, health: "degraded"},
		)
		var body HealthResponse
		w := get(t, srv.mux, "/api/v1/health")
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "degraded" {
			t.Errorf("status = %q, want degraded", body.Status)
		}
	})
}

func TestHandlePlugins(t *testing.T) {
	w := get(t, newTestServer(nil).mux, "/api/v1/plugins")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var plugins []PluginResponse
	if err := json.NewDecoder(w.Body).Decode(&plugins); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(plugins) != 1 || plugins[0].Name != "listener" || plugins[0].Version != "0.1.0" {
		t.Errorf("plugins = %+v", plugins)
	}
}

func TestHandleMetrics(t *testing.T) {
	w := get(t, newTestServer(nil).mux, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected prometheus Go runtime metrics in /metrics output")
	}
}

func TestUnknownAPIRoute_Problem(t *testing.T) {
	w := get(t, newTestServer(nil).mux, "/api/v1/nowhere")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content-type = %q", ct)
	}
}

func TestMiddlewareChain_Integration(t *testing.T) {
	w := get(t, newTestServer(nil).Handler(), "/healthz")

	if v := w.Header().Get("X-FarmTech-Version"); v == "" {
		t.Error("expected X-FarmTech-Version header from middleware")
	}
	if v := w.Header().Get("X-Request-ID"); v == "" {
		t.Error("expected X-Request-ID header from middleware")
	}
	if v := w.Header().Get("X-Content-Type-Options"); v != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", v)
	}
}

func TestPluginRoutes_Mounted(t *testing.T) {
	plugins := &mockPluginSource{
		routes: map[string][]plugin.Route{
			"listener": {{
				Method: "POST",
				Path:   "/listeners/{name}/start",
				Handler: func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusAccepted)
					_, _ = w.Write([]byte(r.PathValue("name")))
				},
			}},
		},
	}
	srv := New(testConfig(), plugins, zap.NewNop(), nil, nil)

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/listener/listeners/north/start", http.NoBody))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if w.Body.String() != "north" {
		t.Errorf("path value = %q, want north", w.Body.String())
	}
}

func TestGuard_ProtectsMutations(t *testing.T) {
	tokens, err := auth.NewTokenService([]byte("test-secret-key-that-is-32-bytes!"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	plugins := &mockPluginSource{
		routes: map[string][]plugin.Route{
			"readings": {
				{Method: "GET", Path: "/readings", Handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }},
				{Method: "POST", Path: "/readings", Handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) }},
			},
		},
	}
	srv := New(testConfig(), plugins, zap.NewNop(), nil, auth.Guard(tokens))
	token, _, err := tokens.Issue("field-ops")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		method, auth string
		want         int
	}{
		{"GET", "", http.StatusOK},
		{"POST", "", http.StatusUnauthorized},
		{"POST", "Bearer not-a-token", http.StatusUnauthorized},
		{"POST", "Bearer " + token, http.StatusCreated},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/api/v1/readings/readings", http.NoBody)
		if tt.auth != "" {
			req.Header.Set("Authorization", tt.auth)
		}
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s with %q: status = %d, want %d", tt.method, tt.auth, w.Code, tt.want)
		}
	}
}

// Bearer tokens must never reach the request log.
func TestRequestLog_OmitsCredentials(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	srv := New(testConfig(), &mockPluginSource{}, zap.New(core), nil, nil)

	const secret = "eyJhbGciOiJIUzI1NiJ9.secret-payload.sig"
	req := httptest.NewRequest("GET", "/api/v1/plugins?verbose=1", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+secret)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	if logs.Len() == 0 {
		t.Fatal("expected a request log entry")
	}
	for _, e := range logs.All() {
		for k, v := range e.ContextMap() {
			if s, ok := v.(string); ok && strings.Contains(s, secret) {
				t.Errorf("log field %q leaks the bearer token", k)
			}
		}
	}
}

func TestConfigFromViper_Defaults(t *testing.T) {
	cfg, err := ConfigFromViper(nil)
	if err != nil {
		t.Fatalf("ConfigFromViper: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}
