//go:build !windows

package jail

// displayPath converts a canonical path to the form returned to callers.
// Unix has no extended-length markers; the canonical form is the display form.
func displayPath(path string, longPathThreshold int) string {
	return path
}
