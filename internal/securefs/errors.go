// Package securefs provides filesystem operations confined to a jail,
// with an os.Root handle as OS-level backstop.
package securefs

import (
	"github.com/tphakala/pathjail/internal/errors"
)

// Sentinel errors for the securefs package.
// Path validation failures surface the jail package's sentinels unchanged
// (jail.ErrPathEscape, jail.ErrBrokenSymlink, jail.ErrInvalidInput).
var (
	// ErrNotRegularFile indicates an attempt to read something that is not a regular file.
	ErrNotRegularFile = errors.NewStd("security error: not a regular file")

	// ErrFileTooLarge is returned when a file exceeds the configured ReadFile size limit.
	ErrFileTooLarge = errors.NewStd("file size exceeds maximum allowed size")
)
