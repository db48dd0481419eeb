// Package fetcher retrieves remote range documents over HTTP.
//
// The allow-list builder only depends on the Fetcher interface. HTTPFetcher is
// the production implementation: it follows redirects, reports the effective
// URL and status code, and verifies TLS certificates unless the integrator opts
// out explicitly with InsecureSkipVerify.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/errors"
	"github.com/maksimkurb/geoip-allow/src/internal/hashing"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10
	DefaultMaxBodyBytes = 32 << 20
	DefaultUserAgent    = "geoip-allow"
)

// Request describes a single retrieval.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Form    url.Values
}

// Result is the raw outcome of a retrieval. A non-200 StatusCode is not an error.
type Result struct {
	Body         []byte
	EffectiveURL string
	StatusCode   int
	Checksum     string
}

// OK reports whether the retrieval returned HTTP 200.
func (r *Result) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Result, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*Result, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

// Options configures HTTPFetcher.
type Options struct {
	Timeout            time.Duration
	MaxRedirects       int
	MaxBodyBytes       int64
	UserAgent          string
	InsecureSkipVerify bool
}

// HTTPFetcher is a Fetcher backed by net/http.
type HTTPFetcher struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string
}

// NewHTTPFetcher creates a fetcher. Zero option values fall back to defaults.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	if opts.InsecureSkipVerify {
		log.Warnf("TLS certificate verification is disabled for source downloads")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	maxRedirects := opts.MaxRedirects
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		maxBodyBytes: opts.MaxBodyBytes,
		userAgent:    opts.UserAgent,
	}
}

// Fetch performs the request and returns the body, effective URL and status code.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	target := SanitizeURL(req.URL)
	if target == "" {
		return nil, errors.NewFetchError("empty URL", nil)
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method == http.MethodPost && req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.NewFetchError(fmt.Sprintf("failed to build request for %s", target), err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, errors.NewFetchError(fmt.Sprintf("failed to fetch %s", target), err)
	}
	defer resp.Body.Close()

	// One byte past the cap tells a body that fits exactly from one that was cut off.
	bodyProxy := hashing.NewMD5ReaderProxy(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	content, err := io.ReadAll(bodyProxy)
	if err != nil {
		return nil, errors.NewFetchError(fmt.Sprintf("failed to read response from %s", target), err)
	}
	if int64(len(content)) > f.maxBodyBytes {
		return nil, errors.NewFetchError(fmt.Sprintf("response from %s exceeds %d bytes", target, f.maxBodyBytes), nil)
	}

	result := &Result{
		Body:         content,
		EffectiveURL: resp.Request.URL.String(),
		StatusCode:   resp.StatusCode,
	}
	if checksum, err := bodyProxy.GetChecksum(); err != nil {
		log.Debugf("Failed to calculate checksum of %s: %v", result.EffectiveURL, err)
	} else {
		result.Checksum = checksum
	}

	log.Debugf("Fetched %s: status %d, %d bytes, md5 %s", result.EffectiveURL, result.StatusCode, len(content), result.Checksum)
	return result, nil
}

var urlReplacer = strings.NewReplacer(`"`, "", "'", "", "`", "", "´", "", "¨", "")

// SanitizeURL trims the URL and strips quote characters that break shell and
// config round-trips.
func SanitizeURL(raw string) string {
	return strings.TrimSpace(urlReplacer.Replace(strings.TrimSpace(raw)))
}
