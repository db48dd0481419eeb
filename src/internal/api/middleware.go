package api

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

// OutcomeHeader tells the client what the request did to the block: "fresh",
// "rebuilt:<previous state>", "forced", "preview", "deleted" or "absent".
// RequestLog includes it in the access log.
const OutcomeHeader = "X-Allowlist-Outcome"

func setOutcome(w http.ResponseWriter, outcome string) {
	w.Header().Set(OutcomeHeader, outcome)
}

func buildOutcome(res *allowlist.BuildResult) string {
	switch {
	case res.Forced:
		return "forced"
	case res.Regenerated:
		return "rebuilt:" + string(res.State)
	default:
		return string(res.State)
	}
}

// RequestLog logs one line per request with the matched route, status, size and
// block outcome. Server errors are logged as warnings.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		line := fmt.Sprintf("%s %s -> %d (%d bytes, %v)", r.Method, routeOf(r), rec.status, rec.bytes, time.Since(start).Round(time.Millisecond))
		if outcome := rec.Header().Get(OutcomeHeader); outcome != "" {
			line += ", block " + outcome
		}
		if rec.status >= http.StatusInternalServerError {
			log.Warnf("[API] %s", line)
		} else {
			log.Infof("[API] %s", line)
		}
	})
}

// routeOf returns the chi route pattern so paths with query strings or unknown
// routes do not flood the log with distinct keys.
func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// Recovery turns a panic in a handler into a 500 envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("[API] Panic in %s %s: %v", r.Method, r.URL.Path, err)
				WriteInternalError(w, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// SubnetAccess answers only clients inside the allowed subnets. The list is read
// per request so a reloaded config applies without restarting the server.
// Forwarding headers are trusted only from a loopback peer (a local reverse proxy).
func SubnetAccess(allowed func() []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, err := clientAddr(r)
			if err != nil {
				log.Warnf("[API] Rejecting %s: %v", r.URL.Path, err)
				WriteForbidden(w, "Access denied")
				return
			}

			for _, prefix := range allowed() {
				if prefix.Contains(client) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warnf("[API] Access denied for %s to %s", client, r.URL.Path)
			WriteForbidden(w, "Access denied: client is outside api.allowed_subnets")
		})
	}
}

func clientAddr(r *http.Request) (netip.Addr, error) {
	peer, err := parseAddr(r.RemoteAddr)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid remote address %q", r.RemoteAddr)
	}
	if !peer.IsLoopback() {
		return peer, nil
	}

	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// The first entry is the original client.
		forwarded, _, _ = strings.Cut(forwarded, ",")
	} else {
		forwarded = r.Header.Get("X-Real-IP")
	}
	forwarded = strings.TrimSpace(forwarded)
	if forwarded == "" {
		return peer, nil
	}

	client, err := parseAddr(forwarded)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid forwarded address %q", forwarded)
	}
	return client, nil
}

// parseAddr accepts "ip", "ip:port" and "[ipv6]:port"; zones and IPv4-mapped
// forms are dropped so prefix matching works.
func parseAddr(s string) (netip.Addr, error) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap().WithZone(""), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, err
	}
	return addr.Unmap().WithZone(""), nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}
