package block

import (
	"fmt"
	"os"
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/errors"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
	"github.com/maksimkurb/geoip-allow/src/internal/utils"
)

// Position selects where a regenerated region is placed.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// RenderFunc produces the region body for the given generation time.
type RenderFunc func(now time.Time) (string, error)

// Manager reads and rewrites the region of a single target file.
type Manager struct {
	Path     string
	Markers  Markers
	Position Position
	// Perm is used when the target file does not exist yet.
	Perm os.FileMode
}

// NewManager creates a manager with default permissions and top placement.
func NewManager(path string, markers Markers) *Manager {
	return &Manager{
		Path:     path,
		Markers:  markers,
		Position: PositionTop,
		Perm:     0644,
	}
}

// Outcome describes what Build did.
type Outcome struct {
	// Content is the full file content after the operation.
	Content string
	// Previous is the classification before the operation.
	Previous Inspection
	// Regenerated is true when the file was rewritten.
	Regenerated bool
}

// Load returns the current file content. A missing file reads as empty.
func (m *Manager) Load() (string, bool, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.NewFileError(fmt.Sprintf("failed to read %s", m.Path), err)
	}
	return string(data), true, nil
}

// Inspect loads the file and classifies it relative to now.
func (m *Manager) Inspect(now time.Time) (Inspection, string, error) {
	content, _, err := m.Load()
	if err != nil {
		return Inspection{}, "", err
	}
	return m.Markers.Inspect(content, now), content, nil
}

// Build regenerates the region when it is absent or stale, or when force is set.
// render is only called when regeneration happens.
func (m *Manager) Build(now time.Time, force bool, render RenderFunc) (*Outcome, error) {
	inspection, content, err := m.Inspect(now)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Content: content, Previous: inspection}
	if !force && !inspection.NeedsBuild() {
		log.Debugf("Block in %s is fresh (%s), skipping rebuild", m.Path, inspection.Date.Format("2006-01-02"))
		return outcome, nil
	}
	if inspection.DateErr != nil {
		log.Warnf("Block in %s has no usable date, rebuilding: %v", m.Path, inspection.DateErr)
	}
	if inspection.Regions > 1 {
		log.Warnf("Found %d blocks in %s, they will be merged into one", inspection.Regions, m.Path)
	}

	body, err := render(now)
	if err != nil {
		return nil, err
	}

	var updated string
	if m.Position == PositionBottom {
		updated = m.Markers.Append(content, body)
	} else {
		updated = m.Markers.Prepend(content, body)
	}

	if err := m.write(updated); err != nil {
		return nil, err
	}

	outcome.Content = updated
	outcome.Regenerated = true
	return outcome, nil
}

// Delete removes every region from the file. A missing file or a file without a
// region is left untouched and reported as not removed.
func (m *Manager) Delete() (bool, string, error) {
	content, exists, err := m.Load()
	if err != nil {
		return false, "", err
	}
	if !exists || m.Markers.Count(content) == 0 {
		return false, content, nil
	}

	stripped := m.Markers.Strip(content)
	if err := m.write(stripped); err != nil {
		return false, content, err
	}
	return true, stripped, nil
}

func (m *Manager) write(content string) error {
	perm := m.Perm
	if perm == 0 {
		perm = 0644
	}
	if err := utils.WriteFileAtomic(m.Path, []byte(content), perm); err != nil {
		return errors.NewFileError(fmt.Sprintf("failed to write %s", m.Path), err)
	}
	return nil
}
