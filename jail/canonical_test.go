package jail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimExtendedPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want string
	}{
		{`C:\short`, `C:\short`},
		{`\\?\C:\short`, `C:\short`},
		{`\\?\UNC\server\share\file`, `\\server\share\file`},
		{`\\server\share\file`, `\\server\share\file`},
		{"/unix/path", "/unix/path"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, trimExtendedPrefix(tc.path), "path %q", tc.path)
	}
}

func TestStripExtendedPrefix(t *testing.T) {
	t.Parallel()

	longTail := strings.Repeat("a", 300)

	cases := []struct {
		name      string
		path      string
		threshold int
		want      string
	}{
		{"plain path untouched", `C:\short`, 250, `C:\short`},
		{"short extended path stripped", `\\?\C:\short`, 250, `C:\short`},
		{"long extended path kept", `\\?\C:\` + longTail, 250, `\\?\C:\` + longTail},
		{"short UNC stripped", `\\?\UNC\server\share`, 250, `\\server\share`},
		{"long UNC kept", `\\?\UNC\server\` + longTail, 250, `\\?\UNC\server\` + longTail},
		{"zero threshold disables stripping", `\\?\C:\short`, 0, `\\?\C:\short`},
		{"boundary is strictly greater-than", `\\?\C:\ab`, 5, `C:\ab`},
		{"one over the boundary kept", `\\?\C:\abc`, 5, `\\?\C:\abc`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, stripExtendedPrefix(tc.path, tc.threshold))
		})
	}
}
