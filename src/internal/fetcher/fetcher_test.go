package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/errors"
)

func TestSanitizeURL(t *testing.T) {
	tests := map[string]string{
		`"https://www.gstatic.com/ipranges/goog.json"`: "https://www.gstatic.com/ipranges/goog.json",
		"  'https://example.com/a'  ":                  "https://example.com/a",
		"https://exa`mple.com/´b¨":                     "https://example.com/b",
		"   ":                                          "",
	}

	for in, want := range tests {
		if got := SanitizeURL(in); got != want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTTPFetcher_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"prefixes":[]}`))
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{})
	result, err := f.Fetch(context.Background(), Request{URL: `"` + server.URL + `"`})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !result.OK() {
		t.Errorf("Expected status 200, got %d", result.StatusCode)
	}
	if string(result.Body) != `{"prefixes":[]}` {
		t.Errorf("Unexpected body: %q", result.Body)
	}
	if result.EffectiveURL != server.URL {
		t.Errorf("Expected effective URL %s, got %s", server.URL, result.EffectiveURL)
	}
	if len(result.Checksum) != 32 {
		t.Errorf("Expected md5 hex checksum, got %q", result.Checksum)
	}
}

func TestHTTPFetcher_NonOKIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	result, err := NewHTTPFetcher(Options{}).Fetch(context.Background(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("Non-200 status must be returned as a result, got error: %v", err)
	}
	if result.OK() || result.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", result.StatusCode)
	}
}

func TestHTTPFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result, err := NewHTTPFetcher(Options{}).Fetch(context.Background(), Request{URL: server.URL + "/old"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.EffectiveURL != server.URL+"/new" {
		t.Errorf("Expected effective URL to be the redirect target, got %s", result.EffectiveURL)
	}
}

func TestHTTPFetcher_RedirectLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	_, err := NewHTTPFetcher(Options{MaxRedirects: 2}).Fetch(context.Background(), Request{URL: server.URL + "/"})
	if err == nil {
		t.Fatal("Expected error when exceeding the redirect limit")
	}
	if !errors.HasCode(err, errors.ErrCodeFetch) {
		t.Errorf("Expected FETCH error code, got %v", err)
	}
}

func TestHTTPFetcher_PostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("X-Token") != "abc" {
			t.Errorf("Expected custom header to be forwarded")
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	}))
	defer server.Close()

	result, err := NewHTTPFetcher(Options{}).Fetch(context.Background(), Request{
		URL:     server.URL,
		Method:  "post",
		Headers: map[string]string{"X-Token": "abc"},
		Form:    url.Values{"country": []string{"JP"}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(result.Body) != "country=JP" {
		t.Errorf("Expected form body to be echoed, got %q", result.Body)
	}
}

func TestHTTPFetcher_TLSVerification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secure"))
	}))
	defer server.Close()

	if _, err := NewHTTPFetcher(Options{}).Fetch(context.Background(), Request{URL: server.URL}); err == nil {
		t.Error("Expected certificate verification failure against a self-signed server")
	}

	result, err := NewHTTPFetcher(Options{InsecureSkipVerify: true}).Fetch(context.Background(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("Expected insecure fetch to succeed, got %v", err)
	}
	if string(result.Body) != "secure" {
		t.Errorf("Unexpected body: %q", result.Body)
	}
}

func TestHTTPFetcher_BodyLimit(t *testing.T) {
	row := "apnic|JP|ipv4|1.0.16.0|4096|20110412|allocated\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(row))
	}))
	defer server.Close()

	tests := []struct {
		name    string
		limit   int64
		wantErr bool
	}{
		{"cut inside a row", int64(strings.Index(row, "4096") + 1), true},
		{"one byte short", int64(len(row) - 1), true},
		{"exact fit", int64(len(row)), false},
		{"room to spare", int64(len(row) * 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewHTTPFetcher(Options{MaxBodyBytes: tt.limit}).Fetch(context.Background(), Request{URL: server.URL})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for oversized body, got %q", result.Body)
				}
				if !errors.HasCode(err, errors.ErrCodeFetch) {
					t.Errorf("Expected fetch error code, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(result.Body) != row {
				t.Errorf("Unexpected body %q", result.Body)
			}
			if result.Checksum == "" {
				t.Error("Expected checksum for complete body")
			}
		})
	}
}

func TestHTTPFetcher_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHTTPFetcher(Options{}).Fetch(ctx, Request{URL: server.URL}); err == nil {
		t.Error("Expected error for canceled context")
	}
}

func TestHTTPFetcher_EmptyURL(t *testing.T) {
	if _, err := NewHTTPFetcher(Options{}).Fetch(context.Background(), Request{URL: "``"}); err == nil {
		t.Error("Expected error for empty URL")
	}
}
