package block

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultMarkerName is the marker name used when none is configured.
const DefaultMarkerName = "GeoIPAllow"

var embeddedDateRegexp = regexp.MustCompile(`add\s(\d{4}-\d{2}-\d{2})`)

// Markers names the start and end lines of the region.
type Markers struct {
	Name    string
	pattern *regexp.Regexp
}

// NewMarkers creates markers for name, or for DefaultMarkerName when name is empty.
func NewMarkers(name string) Markers {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultMarkerName
	}
	m := Markers{Name: name}
	m.pattern = regexp.MustCompile("(?s)" +
		regexp.QuoteMeta(strings.TrimSpace(m.Start())) +
		".*?" +
		regexp.QuoteMeta(strings.TrimSpace(m.End())) +
		`(?:\r?\n)?`)
	return m
}

// Start returns the start marker line including its newline.
func (m Markers) Start() string {
	return fmt.Sprintf("### ADD %s ###\n", m.Name)
}

// End returns the end marker line including its newline.
func (m Markers) End() string {
	return fmt.Sprintf("### END %s ###\n", m.Name)
}

func (m Markers) regexp() *regexp.Regexp {
	if m.pattern == nil {
		return NewMarkers(m.Name).pattern
	}
	return m.pattern
}

// Find returns the first region in content.
func (m Markers) Find(content string) (string, bool) {
	loc := m.regexp().FindStringIndex(content)
	if loc == nil {
		return "", false
	}
	return content[loc[0]:loc[1]], true
}

// Count returns the number of regions in content.
func (m Markers) Count(content string) int {
	return len(m.regexp().FindAllStringIndex(content, -1))
}

// Strip removes every region from content, including the newline that ends each
// end marker.
func (m Markers) Strip(content string) string {
	return m.regexp().ReplaceAllLiteralString(content, "")
}

// Wrap surrounds body with the markers. A missing trailing newline is added so
// the end marker stays on its own line.
func (m Markers) Wrap(body string) string {
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return m.Start() + body + m.End()
}

// Prepend replaces any region in content with a new one at the top.
func (m Markers) Prepend(content, body string) string {
	return m.Wrap(body) + m.Strip(content)
}

// Append replaces any region in content with a new one at the bottom.
func (m Markers) Append(content, body string) string {
	rest := m.Strip(content)
	if rest != "" && !strings.HasSuffix(rest, "\n") {
		rest += "\n"
	}
	return rest + m.Wrap(body)
}

// EmbeddedDate extracts the generation date from a region. The date is
// interpreted in loc.
func EmbeddedDate(region string, loc *time.Location) (time.Time, error) {
	match := embeddedDateRegexp.FindStringSubmatch(region)
	if match == nil {
		return time.Time{}, fmt.Errorf("no generation date found in block")
	}
	if loc == nil {
		loc = time.Local
	}
	date, err := time.ParseInLocation("2006-01-02", match[1], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid generation date %q: %w", match[1], err)
	}
	return date, nil
}
