package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/fetcher"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

const testDelegation = "apnic|JP|ipv4|1.0.16.0|4096|20110412|allocated\n"

func testFetcher(ctx context.Context, req fetcher.Request) (*fetcher.Result, error) {
	body := `{"prefixes": [{"ipv4Prefix": "8.8.4.0/24"}]}`
	if strings.Contains(req.URL, "apnic") {
		body = testDelegation
	}
	return &fetcher.Result{Body: []byte(body), StatusCode: http.StatusOK, EffectiveURL: req.URL}, nil
}

type testEnv struct {
	router http.Handler
	target string
	hasher *config.ConfigHasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, "[general]\ncountry = \"JP\"\n")
}

func newTestEnvWithConfig(t *testing.T, content string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "geoip-allow.toml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.GetAbsTargetFile(), []byte("RewriteEngine On\n"), 0644); err != nil {
		t.Fatal(err)
	}

	now := func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	builder := allowlist.NewBuilder(cfg, fetcher.FetcherFunc(testFetcher), allowlist.WithClock(now))
	hasher := config.NewConfigHasher(configPath)

	return &testEnv{
		router: NewRouter(builder, hasher, VersionInfo{Version: "test"}),
		target: cfg.GetAbsTargetFile(),
		hasher: hasher,
	}
}

func (e *testEnv) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}

func TestGetAllowlist(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/allowlist")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("Missing ETag")
	}

	var res allowlist.BuildResult
	decodeData(t, rec, &res)
	if !res.Regenerated || res.Path != env.target {
		t.Errorf("Unexpected result: %+v", res)
	}
	if !strings.Contains(res.Content, "Allow from 1.0.16.0/20") {
		t.Error("Content lacks APNIC prefix")
	}
	if env.hasher.GetActiveConfigHash() == "" {
		t.Error("Active config hash not recorded after build")
	}

	rec = env.do(http.MethodGet, "/api/v1/allowlist")
	decodeData(t, rec, &res)
	if res.Regenerated {
		t.Error("Fresh block rebuilt on second read")
	}

	rec = env.do(http.MethodGet, "/api/v1/allowlist?force=true")
	decodeData(t, rec, &res)
	if !res.Regenerated {
		t.Error("force=true did not rebuild")
	}

	rec = env.do(http.MethodGet, "/api/v1/allowlist?force=maybe")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid force, got %d", rec.Code)
	}
}

func TestBuildAndDeleteAllowlist(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/allowlist/build")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	rec = env.do(http.MethodDelete, "/api/v1/allowlist")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var res DeleteResponse
	decodeData(t, rec, &res)
	if !res.Removed || res.Message != "File processed successfully!" {
		t.Errorf("Unexpected delete response: %+v", res)
	}

	data, _ := os.ReadFile(env.target)
	if string(data) != "RewriteEngine On\n" {
		t.Errorf("Unexpected file after delete: %q", data)
	}
}

func TestPreviewAndDownload(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/allowlist/preview")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "<pre>### ADD GeoIPAllow ###") {
		t.Errorf("Unexpected preview: %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/allowlist/preview", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	req.Header.Set("If-None-Match", rec.Header().Get("ETag"))
	cached := httptest.NewRecorder()
	env.router.ServeHTTP(cached, req)
	if cached.Code != http.StatusNotModified {
		t.Errorf("Expected 304, got %d", cached.Code)
	}

	rec = env.do(http.MethodGet, "/allowlist/download")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Disposition") != `attachment; filename=".htaccess"` {
		t.Errorf("Unexpected disposition: %q", rec.Header().Get("Content-Disposition"))
	}
	data, _ := os.ReadFile(env.target)
	if rec.Body.String() != string(data) {
		t.Error("Download body differs from target file")
	}
}

func TestPreviewDryRun(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/allowlist/preview")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	data, _ := os.ReadFile(env.target)
	if string(data) != "RewriteEngine On\n" {
		t.Error("Dry run modified the target file")
	}
}

func TestStatusAndSources(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/status")
	var status StatusResponse
	decodeData(t, rec, &status)
	if status.Block == nil || status.Block.State != "absent" {
		t.Errorf("Unexpected status: %+v", status)
	}
	if status.Version.Version != "test" {
		t.Errorf("Unexpected version: %+v", status.Version)
	}

	rec = env.do(http.MethodGet, "/api/v1/sources")
	var srcs SourcesResponse
	decodeData(t, rec, &srcs)
	if len(srcs.Sources) != 5 || srcs.Sources[4].Name != "apnic" {
		t.Errorf("Unexpected sources: %+v", srcs.Sources)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health")
	var health HealthCheckResponse
	decodeData(t, rec, &health)
	if rec.Code != http.StatusOK || !health.Healthy {
		t.Errorf("Expected healthy, got %d %+v", rec.Code, health)
	}
}

func TestSubnetAccess(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       int
	}{
		{"loopback", "127.0.0.1:40000", nil, http.StatusOK},
		{"private LAN", "192.168.1.5:1000", nil, http.StatusOK},
		{"ipv6 loopback", "[::1]:40000", nil, http.StatusOK},
		{"ipv4-mapped private", "[::ffff:192.168.0.9]:80", nil, http.StatusOK},
		{"public", "203.0.113.10:5555", nil, http.StatusForbidden},
		{"public peer spoofing forwarded header", "203.0.113.10:5555", map[string]string{"X-Forwarded-For": "127.0.0.1"}, http.StatusForbidden},
		{"local proxy forwarding private client", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "10.1.2.3, 127.0.0.1"}, http.StatusOK},
		{"local proxy forwarding public client", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.10, 10.0.0.1"}, http.StatusForbidden},
		{"local proxy real ip header", "127.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.1"}, http.StatusForbidden},
		{"local proxy garbage header", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "not-an-ip"}, http.StatusForbidden},
		{"unparsable peer", "somewhere", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("Expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusForbidden {
				var body ErrorResponse
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatal(err)
				}
				if body.Error.Code != ErrCodeForbidden {
					t.Errorf("Unexpected error code %s", body.Error.Code)
				}
			}
		})
	}
}

func TestSubnetAccess_ConfiguredSubnets(t *testing.T) {
	env := newTestEnvWithConfig(t, "[general]\ncountry = \"JP\"\n\n[api]\nallowed_subnets = [\"203.0.113.0/24\"]\n")

	for addr, want := range map[string]int{
		"203.0.113.10:5555": http.StatusOK,
		"127.0.0.1:40000":   http.StatusForbidden,
		"192.168.1.5:1000":  http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("%s: expected %d, got %d", addr, want, rec.Code)
		}
	}
}

func TestRequestLog_ReportsBlockOutcome(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stdout)

	env := newTestEnv(t)

	steps := []struct {
		method  string
		path    string
		route   string
		outcome string
	}{
		{http.MethodGet, "/api/v1/allowlist", "/api/v1/allowlist", "rebuilt:absent"},
		{http.MethodGet, "/api/v1/allowlist?force=false", "/api/v1/allowlist", "fresh"},
		{http.MethodPost, "/api/v1/allowlist/build", "/api/v1/allowlist/build", "forced"},
		{http.MethodGet, "/api/v1/allowlist/preview", "/api/v1/allowlist/preview", "preview"},
		{http.MethodDelete, "/api/v1/allowlist", "/api/v1/allowlist", "deleted"},
		{http.MethodDelete, "/api/v1/allowlist", "/api/v1/allowlist", "absent"},
	}

	for _, step := range steps {
		buf.Reset()
		rec := env.do(step.method, step.path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200, got %d", step.method, step.path, rec.Code)
		}
		if got := rec.Header().Get(OutcomeHeader); got != step.outcome {
			t.Errorf("%s %s: outcome %q, want %q", step.method, step.path, got, step.outcome)
		}
		line := buf.String()
		if !strings.Contains(line, step.method+" "+step.route+" -> 200") {
			t.Errorf("%s %s: log lacks route and status: %s", step.method, step.path, line)
		}
		if !strings.Contains(line, "block "+step.outcome) {
			t.Errorf("%s %s: log lacks outcome: %s", step.method, step.path, line)
		}
	}

	buf.Reset()
	env.do(http.MethodGet, "/api/v1/sources")
	if strings.Contains(buf.String(), "block ") {
		t.Errorf("Requests without a block outcome should not log one: %s", buf.String())
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}
