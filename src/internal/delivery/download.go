package delivery

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"github.com/maksimkurb/geoip-allow/src/internal/errors"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
	"github.com/maksimkurb/geoip-allow/src/internal/utils"
)

const fallbackContentType = "application/octet-stream"

var contentTypeRegexp = regexp.MustCompile(`\A\S+?/\S+`)

// DetectContentType sniffs the MIME type of a file. Anything that is not
// "type/subtype" falls back to application/octet-stream.
func DetectContentType(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		log.Debugf("Failed to detect MIME type of %s: %v", path, err)
		return fallbackContentType
	}
	return normalizeContentType(mtype.String())
}

func normalizeContentType(contentType string) string {
	if !contentTypeRegexp.MatchString(contentType) {
		return fallbackContentType
	}
	return contentType
}

// ServeDownload streams the file at path as an attachment. An empty
// contentType is sniffed from the file.
func ServeDownload(w http.ResponseWriter, path, contentType string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.NewFileError(fmt.Sprintf("file is not readable: %s", path), err)
	}
	defer utils.CloseOrWarn(file)

	info, err := file.Stat()
	if err != nil {
		return errors.NewFileError(fmt.Sprintf("failed to stat %s", path), err)
	}

	if contentType == "" {
		contentType = DetectContentType(path)
	}

	h := w.Header()
	h.Set("Content-Type", normalizeContentType(contentType))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	h.Set("Connection", "close")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, file); err != nil {
		log.Warnf("Download of %s interrupted: %v", path, err)
	}
	return nil
}

// SaveCopy writes content to dest, the CLI counterpart of ServeDownload.
func SaveCopy(dest, content string) error {
	if err := utils.WriteFileAtomic(dest, []byte(content), 0644); err != nil {
		return errors.NewFileError(fmt.Sprintf("failed to write %s", dest), err)
	}
	log.Infof("Saved copy to %s (%s)", dest, DetectContentType(dest))
	return nil
}
