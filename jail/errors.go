// Package jail confines filesystem paths to a root directory, resolving
// symlinks and traversal components so the result is provably inside the root.
package jail

import (
	"github.com/tphakala/pathjail/internal/errors"
)

// Sentinel errors for the jail package.
// These errors can be used with errors.Is to check for specific error conditions.
var (
	// ErrRootNotFound indicates the jail root directory does not exist.
	ErrRootNotFound = errors.NewStd("security error: jail root does not exist")

	// ErrRootNotDirectory indicates the jail root exists but is not a directory.
	ErrRootNotDirectory = errors.NewStd("security error: jail root is not a directory")

	// ErrInvalidInput indicates a structurally invalid path (e.g., embedded null byte).
	ErrInvalidInput = errors.NewStd("security error: invalid path input")

	// ErrAbsolutePath indicates Join was given an absolute path where a relative
	// path is required.
	ErrAbsolutePath = errors.NewStd("security error: absolute path not allowed")

	// ErrNotAbsolute indicates Contains/Relative was given a relative path where
	// an absolute path is required.
	ErrNotAbsolute = errors.NewStd("security error: path must be absolute")

	// ErrPathEscape indicates the resolved location falls outside the jail root,
	// via ".." past the root or a symlink target outside it.
	ErrPathEscape = errors.NewStd("security error: path escapes jail root")

	// ErrBrokenSymlink indicates a traversed or final symlink whose target cannot
	// be resolved; the result cannot be verified as inside the jail.
	ErrBrokenSymlink = errors.NewStd("security error: broken symlink cannot be verified")

	// ErrNotFound indicates Contains/Relative was given a path that does not
	// exist; those operations require existence end-to-end.
	ErrNotFound = errors.NewStd("path does not exist")
)
