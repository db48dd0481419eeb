package delivery

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/render"
)

const (
	EmptyMessage    = "File is not contents."
	DeleteSucceeded = "File processed successfully!"
	DeleteFailed    = "File processed unsuccessfully!"
)

// Mode selects how a build result is presented.
type Mode string

const (
	ModeReport   Mode = "report"
	ModePreview  Mode = "preview"
	ModeDownload Mode = "download"
)

// IsEmpty reports whether an unforced build produced an empty file.
func IsEmpty(res *allowlist.BuildResult) bool {
	return res.Content == "" && !res.Forced
}

// DeleteMessage returns the message printed after a delete.
func DeleteMessage(ok bool) string {
	if ok {
		return DeleteSucceeded
	}
	return DeleteFailed
}

// WriteReport prints the output path and a table of the sources fetched.
func WriteReport(w io.Writer, res *allowlist.BuildResult) error {
	if IsEmpty(res) {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}

	if _, err := fmt.Fprintf(w, "Output path: %s\n", res.Path); err != nil {
		return err
	}

	if !res.Regenerated {
		generated := "unknown"
		if !res.GeneratedAt.IsZero() {
			generated = res.GeneratedAt.Format(render.DateLayout)
		}
		_, err := fmt.Fprintf(w, "Block is %s (generated %s), nothing was fetched.\n", res.State, generated)
		return err
	}

	if _, err := fmt.Fprintf(w, "Block rebuilt on %s (was %s).\n", res.GeneratedAt.Format(render.DateLayout), res.State); err != nil {
		return err
	}
	if len(res.Sources) == 0 {
		return nil
	}

	table, err := SourcesTable(res.Sources)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, table)
	return err
}

// SourcesTable renders source reports as a text table.
func SourcesTable(reports []allowlist.SourceReport) (string, error) {
	data := pterm.TableData{
		{"Source", "Status", "HTTP", "Prefixes", "Skipped", "Checksum"},
	}

	for _, r := range reports {
		status := "ok"
		if r.Degraded() {
			status = "degraded: " + r.Error
		}
		httpStatus := "-"
		if r.StatusCode != 0 {
			httpStatus = strconv.Itoa(r.StatusCode)
		}
		data = append(data, []string{
			r.Name,
			status,
			httpStatus,
			strconv.Itoa(r.Prefixes),
			strconv.Itoa(r.Skipped),
			r.Checksum,
		})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Srender()
	if err != nil {
		return "", fmt.Errorf("failed to render sources table: %w", err)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

// WritePreview writes the content HTML-escaped inside a <pre> element.
func WritePreview(w io.Writer, res *allowlist.BuildResult) error {
	if IsEmpty(res) {
		_, err := fmt.Fprint(w, EmptyMessage)
		return err
	}
	_, err := fmt.Fprintf(w, "<pre>%s</pre>", html.EscapeString(res.Content))
	return err
}
