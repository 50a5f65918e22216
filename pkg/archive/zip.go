// Package archive unpacks module zip files downloaded from a proxy.
package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/module"
	modzip "golang.org/x/mod/zip"
)

// maxZipSize bounds the archive accepted from a proxy.
const maxZipSize = modzip.MaxZipFile

// ExtractModuleZip unpacks a module zip to a temp directory. The returned dir
// holds the module root (the module@version/ prefix is stripped). cleanup
// removes everything that was written.
//
// Entries are validated by golang.org/x/mod/zip: paths must carry the module
// prefix, stay inside the module and respect the proxy size limits.
func ExtractModuleZip(data []byte, mod module.Version) (dir string, cleanup func(), err error) {
	if int64(len(data)) > maxZipSize {
		return "", nil, fmt.Errorf("zip archive is %d bytes, exceeds maximum of %d", len(data), maxZipSize)
	}

	tmpDir, err := os.MkdirTemp("", "apicompat-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanupFn := func() { os.RemoveAll(tmpDir) }

	zipPath := filepath.Join(tmpDir, "module.zip")
	if err := os.WriteFile(zipPath, data, 0o600); err != nil {
		cleanupFn()
		return "", nil, fmt.Errorf("failed to write zip archive: %w", err)
	}

	srcDir := filepath.Join(tmpDir, "src")
	if err := modzip.Unzip(srcDir, mod, zipPath); err != nil {
		cleanupFn()
		return "", nil, fmt.Errorf("failed to extract %s@%s: %w", mod.Path, mod.Version, err)
	}

	if err := os.Remove(zipPath); err != nil {
		cleanupFn()
		return "", nil, fmt.Errorf("failed to remove zip archive: %w", err)
	}

	return srcDir, cleanupFn, nil
}
