//go:build windows

package jail

import "strings"

// sameComponent compares path components case-insensitively; NTFS and FAT
// are case-insensitive by default.
func sameComponent(a, b string) bool {
	return strings.EqualFold(a, b)
}

// normalizeVolume folds an extended-length marker so containment compares
// "\\?\C:\a" and "C:\a" as the same location. This affects only the
// comparison form; the display conversion applies its own length threshold.
func normalizeVolume(path string) string {
	return trimExtendedPrefix(path)
}
