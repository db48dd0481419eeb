// Package render formats normalized prefixes as a web-server allow block.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/valyala/fasttemplate"

	"github.com/maksimkurb/geoip-allow/src/internal/ranges"
	"github.com/maksimkurb/geoip-allow/src/internal/sources"
)

// DateLayout is the layout of the generation date embedded in the block.
const DateLayout = "2006-01-02"

// Dialect is the server configuration syntax of the rendered block.
type Dialect string

const (
	Apache Dialect = "apache"
	Nginx  Dialect = "nginx"
)

// ParseDialect parses a dialect name case-insensitively.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case Apache, Nginx:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported server dialect %q (expected apache or nginx)", s)
	}
}

// Directive renders a single allow directive for p.
func (d Dialect) Directive(p ranges.Prefix) string {
	if d == Nginx {
		return "allow " + p.String() + ";"
	}
	return "Allow from " + p.String()
}

// Config holds everything the renderer needs besides the prefixes.
type Config struct {
	Dialect     Dialect
	Country     string
	GeneratedAt time.Time
	PreText     string
	PostText    string
}

// SourceBlock is one source's contribution to the block.
type SourceBlock struct {
	Name     string
	Header   []string
	Prefixes []ranges.Prefix
}

// Render produces the block body: title, dialect preamble, pre-text, the source
// blocks in registry order, post-text and, for nginx, the closing conditional.
func Render(cfg Config, blocks []SourceBlock) string {
	var sb strings.Builder

	vars := map[string]interface{}{
		"country": cfg.Country,
		"date":    cfg.GeneratedAt.Format(DateLayout),
	}
	sb.WriteString(fasttemplate.ExecuteString(titleTemplate, "{{", "}}", vars))

	if cfg.Dialect == Nginx {
		sb.WriteString(nginxPreamble)
	} else {
		sb.WriteString(apachePreamble)
	}

	sb.WriteString("\n")
	sb.WriteString(snippet(cfg.PreText))

	for _, block := range orderBlocks(blocks) {
		writeSourceBlock(&sb, cfg.Dialect, block)
	}

	sb.WriteString(snippet(cfg.PostText))

	if cfg.Dialect == Nginx {
		sb.WriteString(nginxEpilogue)
	}

	return sb.String()
}

func writeSourceBlock(sb *strings.Builder, dialect Dialect, block SourceBlock) {
	for _, line := range block.Header {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	for _, p := range block.Prefixes {
		sb.WriteString(dialect.Directive(p))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// snippet returns caller text followed by a blank line, or nothing for empty text.
func snippet(text string) string {
	if text == "" {
		return ""
	}
	return text + "\n\n"
}

// orderBlocks sorts blocks by registry position. Unknown names keep their
// relative order after the registered ones.
func orderBlocks(blocks []SourceBlock) []SourceBlock {
	rank := make(map[string]int)
	for i, name := range sources.Names() {
		rank[name] = i
	}
	position := func(name string) int {
		if r, ok := rank[name]; ok {
			return r
		}
		return len(rank)
	}

	ordered := make([]SourceBlock, len(blocks))
	copy(ordered, blocks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return position(ordered[i].Name) < position(ordered[j].Name)
	})
	return ordered
}
