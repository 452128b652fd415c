package jail

import (
	"path/filepath"
	"strings"
)

// pathComponents decomposes a canonical absolute path into its volume followed
// by its path components. The volume is the empty string on Unix, so "/a/b"
// becomes ["", "a", "b"] and "/" becomes [""]. On Windows an extended-length
// marker is folded away first so that "\\?\C:\a" and "C:\a" compare equal.
func pathComponents(path string) []string {
	path = normalizeVolume(path)
	vol := filepath.VolumeName(path)
	rest := strings.TrimPrefix(path[len(vol):], string(filepath.Separator))

	components := []string{vol}
	if rest != "" {
		components = append(components, strings.Split(rest, string(filepath.Separator))...)
	}
	return components
}

// depth returns the component count of a canonical path, used as the floor
// below which ".." may not pop during resolution.
func depth(path string) int {
	return len(pathComponents(path))
}

// isWithin reports whether target equals root or has root's component sequence
// as a prefix. Comparison is component-by-component, never by raw string
// prefix, so "/var/uploads-evil" does not match a root of "/var/uploads".
// Both paths must already be canonical (symlink-free, "."/".."-free).
func isWithin(root, target string) bool {
	rootComponents := pathComponents(root)
	targetComponents := pathComponents(target)

	if len(targetComponents) < len(rootComponents) {
		return false
	}
	for i := range rootComponents {
		if !sameComponent(rootComponents[i], targetComponents[i]) {
			return false
		}
	}
	return true
}
