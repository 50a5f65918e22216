package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/emenda-labs/apicompat/core/apitree"
)

// ErrUnknownFormat is returned for file names or formats that are not a
// recognized snapshot serialization.
var ErrUnknownFormat = errors.New("unknown snapshot format")

// Compression wraps a serialized snapshot.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionZstd Compression = "zst"
	CompressionGzip Compression = "gz"
)

// DetectFormat derives the format and compression from a file name such as
// "api.json", "api.yaml.zst" or "api.yml.gz".
func DetectFormat(path string) (Format, Compression, error) {
	name := strings.ToLower(filepath.Base(path))

	comp := CompressionNone
	switch {
	case strings.HasSuffix(name, ".zst"):
		comp = CompressionZstd
	case strings.HasSuffix(name, ".gz"):
		comp = CompressionGzip
	}
	if comp != CompressionNone {
		name = strings.TrimSuffix(name, "."+string(comp))
	}

	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, comp, nil
	case ".yaml", ".yml":
		return FormatYAML, comp, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// IsSnapshotPath reports whether path names a snapshot file.
func IsSnapshotPath(path string) bool {
	_, _, err := DetectFormat(path)
	return err == nil
}

// Load reads the snapshot at path.
func Load(path string) (*apitree.Node, error) {
	format, comp, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch comp {
	case CompressionZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer dec.Close()
		r = dec
	case CompressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	root, err := Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return root, nil
}

// Save writes root to path, choosing format and compression from the file
// name.
func Save(path string, root *apitree.Node) (err error) {
	format, comp, err := DetectFormat(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing snapshot: %w", cerr)
		}
	}()

	var w io.WriteCloser
	switch comp {
	case CompressionZstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("opening zstd stream: %w", err)
		}
		w = enc
	case CompressionGzip:
		w = gzip.NewWriter(f)
	default:
		return Encode(f, root, format)
	}

	if err := Encode(w, root, format); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flushing %s stream: %w", comp, err)
	}
	return nil
}
