package jail

import "strings"

// Windows extended-length path markers. Paths carrying these markers bypass
// the legacy MAX_PATH limit but also skip normalization of reserved device
// names and trailing dots/spaces, so stripping them is a usability trade-off
// gated by a length threshold rather than unconditional.
const (
	extendedPathPrefix = `\\?\`
	extendedUNCPrefix  = `\\?\UNC\`
)

// DefaultLongPathThreshold is the maximum length at which an extended-length
// marker is stripped from returned paths. Windows MAX_PATH is 260; 250 leaves
// room for callers to append a short filename before hitting the limit.
const DefaultLongPathThreshold = 250

// trimExtendedPrefix unconditionally converts an extended-length path to its
// standard form: \\?\C:\path becomes C:\path, \\?\UNC\server\share becomes
// \\server\share. Used for comparison, where length limits do not apply.
func trimExtendedPrefix(path string) string {
	if stripped, ok := strings.CutPrefix(path, extendedUNCPrefix); ok {
		return `\\` + stripped
	}
	if stripped, ok := strings.CutPrefix(path, extendedPathPrefix); ok {
		return stripped
	}
	return path
}

// stripExtendedPrefix converts an extended-length path to its standard form
// for display, but keeps the marker when the stripped form would exceed
// threshold, so long paths remain openable by the OS. A threshold of zero or
// below disables stripping entirely. The containment decision is always made
// before this conversion, on the raw canonical form.
func stripExtendedPrefix(path string, threshold int) string {
	if threshold <= 0 {
		return path
	}
	if stripped, ok := strings.CutPrefix(path, extendedUNCPrefix); ok {
		normalized := `\\` + stripped
		if len(normalized) > threshold {
			return path
		}
		return normalized
	}
	if stripped, ok := strings.CutPrefix(path, extendedPathPrefix); ok {
		if len(stripped) > threshold {
			return path
		}
		return stripped
	}
	return path
}
