//go:build windows

package jail

// displayPath converts a canonical path to the form returned to callers,
// stripping the extended-length marker when the result stays under the
// configured threshold. Containment has already been decided on the
// unstripped form by this point.
func displayPath(path string, longPathThreshold int) string {
	return stripExtendedPrefix(path, longPathThreshold)
}
