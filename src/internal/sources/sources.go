// Package sources is the fixed registry of remote IP range providers.
package sources

import (
	"fmt"
	"sort"
	"strings"
)

// Format identifies the wire format a source publishes.
type Format string

const (
	// FormatPrefixesJSON is the {"prefixes":[{"ipv4Prefix":...}]} document used by Google.
	FormatPrefixesJSON Format = "prefixes-json"
	// FormatDelegation is the pipe-delimited RIR delegation file.
	FormatDelegation Format = "registry-delegation"
)

const (
	Google                      = "google"
	Googlebot                   = "googlebot"
	GoogleSpecialCrawlers       = "google-special-crawlers"
	GoogleUserTriggeredFetchers = "google-user-triggered-fetchers"
	APNIC                       = "apnic"
)

// Endpoint is a single remote range source.
type Endpoint struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Format Format `json:"format"`
	Title  string `json:"title"`
}

// Header returns the comment lines that introduce the source in a rendered block.
func (e Endpoint) Header() []string {
	return []string{
		"############################",
		fmt.Sprintf("# %s IP Address Ranges", e.Title),
		"# " + e.URL,
		"############################",
	}
}

var registry = []Endpoint{
	{Name: Google, URL: "https://www.gstatic.com/ipranges/goog.json", Format: FormatPrefixesJSON, Title: "Google"},
	{Name: Googlebot, URL: "https://developers.google.com/static/search/apis/ipranges/googlebot.json", Format: FormatPrefixesJSON, Title: "Googlebot"},
	{Name: GoogleSpecialCrawlers, URL: "https://developers.google.com/static/search/apis/ipranges/special-crawlers.json", Format: FormatPrefixesJSON, Title: "Google special crawler"},
	{Name: GoogleUserTriggeredFetchers, URL: "https://developers.google.com/static/search/apis/ipranges/user-triggered-fetchers.json", Format: FormatPrefixesJSON, Title: "Google user triggered fetchers"},
	{Name: APNIC, URL: "https://ftp.apnic.net/stats/apnic/delegated-apnic-latest", Format: FormatDelegation, Title: "Geo"},
}

// Default returns a copy of the registry in rendering order.
func Default() []Endpoint {
	out := make([]Endpoint, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the endpoint registered under name.
func Lookup(name string) (Endpoint, bool) {
	for _, e := range registry {
		if e.Name == name {
			return e, true
		}
	}
	return Endpoint{}, false
}

// Names returns the registered endpoint names in rendering order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.Name)
	}
	return names
}

// WithOverrides returns the registry with URLs replaced for the named endpoints.
// Names and order never change; an unknown name is an error.
func WithOverrides(overrides map[string]string) ([]Endpoint, error) {
	endpoints := Default()
	if len(overrides) == 0 {
		return endpoints, nil
	}

	var unknown []string
	for name := range overrides {
		if _, ok := Lookup(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown source(s): %s (known: %s)", strings.Join(unknown, ", "), strings.Join(Names(), ", "))
	}

	for i := range endpoints {
		if url, ok := overrides[endpoints[i].Name]; ok && url != "" {
			endpoints[i].URL = url
		}
	}
	return endpoints, nil
}
