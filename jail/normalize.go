package jail

import (
	"fmt"
	"path/filepath"
	"strings"
)

// checkNul rejects paths with embedded null bytes. C libraries downstream
// would truncate at the null, so a path that smuggles one past validation
// could name a different file than the one that was checked.
func checkNul(path string) error {
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidInput)
	}
	return nil
}

// isAbsoluteInput reports whether path is absolute in the platform's sense.
// filepath.IsAbs misses two Windows corners: paths beginning with a bare
// separator (root of the current drive) and drive-relative forms like
// "C:file", which VolumeName catches.
func isAbsoluteInput(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, string(filepath.Separator)) {
		return true
	}
	return filepath.VolumeName(path) != ""
}

// splitRelative validates a caller-supplied relative path and decomposes it
// into components. "." and ".." are kept for the resolver to interpret
// against the resolved walk position; eliminating them lexically here would
// evaluate ".." against nominal rather than resolved locations.
func splitRelative(path string) ([]string, error) {
	if err := checkNul(path); err != nil {
		return nil, err
	}
	if isAbsoluteInput(path) {
		return nil, fmt.Errorf("%w: %q", ErrAbsolutePath, path)
	}

	// On Windows this also maps backslash separators to "/"; on Unix a
	// backslash is an ordinary filename byte and passes through untouched.
	slashed := filepath.ToSlash(path)

	parts := strings.Split(slashed, "/")
	components := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			// Repeated or trailing separators contribute nothing.
			continue
		}
		components = append(components, part)
	}
	return components, nil
}
