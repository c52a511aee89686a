// Package pathutil canonicalizes image paths and scans directory roots.
//
// Stored source paths are absolute, use forward slashes regardless of the
// platform separator, and are NFC-normalized; case is preserved. All path
// comparisons inside the store go through Canonical so the same file imported
// twice maps to one row.
package pathutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// Canonical converts a path to the stored form: absolute where possible,
// forward slashes, NFC normalization.
func Canonical(path string) string {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	if abs, err := filepath.Abs(cleaned); err == nil {
		cleaned = abs
	}
	return norm.NFC.String(filepath.ToSlash(cleaned))
}

// IsImageFile reports whether name carries one of the recognized image
// extensions, case-insensitively.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ScanImages returns the canonical paths of all image files directly inside
// dir and its subdirectories, sorted lexicographically.
func ScanImages(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if IsImageFile(entry.Name()) {
			paths = append(paths, Canonical(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
