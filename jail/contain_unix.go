//go:build !windows

package jail

// sameComponent compares path components byte for byte. Unix filesystems are
// case-sensitive by default, and backslashes are ordinary filename bytes.
func sameComponent(a, b string) bool {
	return a == b
}

// normalizeVolume is a no-op on Unix; there are no volume names or
// extended-length markers to fold.
func normalizeVolume(path string) string {
	return path
}
