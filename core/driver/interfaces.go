// Package driver declares what a language front-end provides to the CLI.
package driver

import (
	"context"

	"github.com/emenda-labs/apicompat/core/apitree"
)

// LanguageDriver is the interface each language must implement to have its
// published packages checked for breaking changes.
type LanguageDriver interface {
	// FetchSource downloads module source and unpacks it to a local directory.
	// Returns the path to the unpacked source and a cleanup function that
	// removes the temp directory.
	FetchSource(ctx context.Context, module, version string) (path string, cleanup func(), err error)

	// LoadTree builds the public API tree of the source at path. The root
	// node is named after the module.
	LoadTree(ctx context.Context, path string) (*apitree.Node, error)
}

// VersionResolver finds the release a new version should be compared with.
type VersionResolver interface {
	// PreviousVersion returns the highest published release below version.
	PreviousVersion(ctx context.Context, module, version string) (string, error)
}
