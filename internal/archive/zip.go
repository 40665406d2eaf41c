// Package archive bundles processed documents into downloadable zip files.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// namePattern is the shape of every archive this package produces; the
// download handler validates requested names against it.
var namePattern = regexp.MustCompile(`^processed_invoices_\d{8}_\d{6}\.zip$`)

// ValidName reports whether a requested download name could have been
// produced here. Anything else is rejected before touching the disk.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Create writes a zip of the given files into destDir and returns the
// archive path. Entries are stored flat under their base names.
func Create(paths []string, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	name := fmt.Sprintf("processed_invoices_%s.zip", time.Now().Format("20060102_150405"))
	zipPath := filepath.Join(destDir, name)

	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, path := range paths {
		if err := addFile(zw, path); err != nil {
			zw.Close()
			os.Remove(zipPath)
			return "", fmt.Errorf("add %s: %w", path, err)
		}
	}
	if err := zw.Close(); err != nil {
		os.Remove(zipPath)
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	return zipPath, nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
