package jail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupJail creates a temporary root directory and a Jail over it. The
// returned root is the canonical form, matching what the jail compares
// against (t.TempDir may itself sit behind a symlink, e.g. /tmp on macOS).
func setupJail(t *testing.T) (j *Jail, root string) {
	t.Helper()

	tempDir := t.TempDir()
	j, err := New(tempDir)
	require.NoError(t, err, "failed to create jail")

	root, err = filepath.EvalSymlinks(tempDir)
	require.NoError(t, err, "failed to canonicalize temp dir")

	return j, root
}

// writeTestFile creates a file with parent directories under root.
func writeTestFile(t *testing.T, root string, rel string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "failed to create parent dirs")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600), "failed to write file")
	return path
}

func TestNew(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	assert.Equal(t, root, j.Root(), "Root should return the canonical root")
	assert.Contains(t, j.String(), root, "String should include the root")
}

func TestNewRootNotFound(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"))
	require.ErrorIs(t, err, ErrRootNotFound)
}

func TestNewRootNotADirectory(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	file := filepath.Join(tempDir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := New(file)
	require.ErrorIs(t, err, ErrRootNotDirectory)
}

func TestNewRootResolvesSymlink(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	target := filepath.Join(tempDir, "real")
	require.NoError(t, os.Mkdir(target, 0o755))
	link := filepath.Join(tempDir, "link")
	require.NoError(t, os.Symlink(target, link))

	j, err := New(link)
	require.NoError(t, err, "symlinked root should be accepted")

	canonical, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, canonical, j.Root(), "root should canonicalize through the symlink")
}

func TestNewRootNulByte(t *testing.T) {
	t.Parallel()

	_, err := New("bad\x00root")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewRootEmpty(t *testing.T) {
	t.Parallel()

	// An empty root must not fall through to the working directory.
	_, err := New("")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestJoinSimple(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	got, err := j.Join("file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "file.txt"), got)
}

func TestJoinNested(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	got, err := j.Join("a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "b", "c.txt"), got)
}

func TestJoinDotComponents(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	got, err := j.Join("./sub/./file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub", "file.txt"), got)
}

func TestJoinInternalParentComponents(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	// ".." that stays inside the root is fine.
	got, err := j.Join("a/b/../c.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "c.txt"), got)
}

func TestJoinEmptyAndDot(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	for _, input := range []string{"", "."} {
		got, err := j.Join(input)
		require.NoError(t, err, "input %q should resolve to the root", input)
		assert.Equal(t, root, got)
	}
}

func TestJoinTraversalEscape(t *testing.T) {
	t.Parallel()
	j, _ := setupJail(t)

	inputs := []string{
		"..",
		"../file.txt",
		"../../file.txt",
		"a/../../file.txt",
		"a/b/../../../file.txt",
		strings.Repeat("../", 20) + "etc/passwd",
	}
	for _, input := range inputs {
		_, err := j.Join(input)
		require.ErrorIs(t, err, ErrPathEscape, "input %q should be rejected", input)
	}
}

func TestJoinAbsoluteRejected(t *testing.T) {
	t.Parallel()
	j, _ := setupJail(t)

	for _, input := range []string{"/etc/passwd", "//etc/passwd", "/"} {
		_, err := j.Join(input)
		require.ErrorIs(t, err, ErrAbsolutePath, "input %q should be rejected", input)
	}
}

func TestJoinNulByte(t *testing.T) {
	t.Parallel()
	j, _ := setupJail(t)

	_, err := j.Join("file\x00.txt")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestJoinUnusualNames(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	// Whitespace and non-ASCII names are ordinary components.
	cases := []struct {
		input string
		want  string
	}{
		{" ", filepath.Join(root, " ")},
		{"with space.txt", filepath.Join(root, "with space.txt")},
		{"ünïcödé/файл", filepath.Join(root, "ünïcödé", "файл")},
	}
	for _, tc := range cases {
		got, err := j.Join(tc.input)
		require.NoError(t, err, "input %q should be accepted", tc.input)
		assert.Equal(t, tc.want, got)
	}
}

func TestJoinRedundantSlashes(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	got, err := j.Join("a//b///c.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "b", "c.txt"), got)

	got, err = j.Join("a/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a"), got)
}

func TestJoinNonexistentLeaf(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	// Nothing under root exists yet; the join is still validated.
	got, err := j.Join("newdir/newfile.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "newdir", "newfile.txt"), got)
}

func TestJoinSymlinkEscape(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	_, err := j.Join("link/secret.txt")
	require.ErrorIs(t, err, ErrPathEscape, "path through an escaping symlink should be rejected")

	_, err = j.Join("link")
	require.ErrorIs(t, err, ErrPathEscape, "the escaping symlink itself should be rejected")
}

func TestJoinSymlinkFileEscape(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	outsideFile := writeTestFile(t, t.TempDir(), "secret.txt")
	require.NoError(t, os.Symlink(outsideFile, filepath.Join(root, "alias.txt")))

	_, err := j.Join("alias.txt")
	require.ErrorIs(t, err, ErrPathEscape)
}

func TestJoinSymlinkInternal(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	subdir := filepath.Join(root, "subdir")
	require.NoError(t, os.Mkdir(subdir, 0o755))
	require.NoError(t, os.Symlink(subdir, filepath.Join(root, "link")))

	got, err := j.Join("link/file.txt")
	require.NoError(t, err, "symlink staying inside the root is allowed")
	assert.Equal(t, filepath.Join(subdir, "file.txt"), got)
}

func TestJoinSymlinkChain(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	outside := t.TempDir()
	// link1 -> link2 -> outside
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link2")))
	require.NoError(t, os.Symlink(filepath.Join(root, "link2"), filepath.Join(root, "link1")))

	_, err := j.Join("link1/file.txt")
	require.ErrorIs(t, err, ErrPathEscape, "escape through a chain of symlinks should be rejected")
}

func TestJoinBrokenSymlink(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "broken")))

	_, err := j.Join("broken")
	require.ErrorIs(t, err, ErrBrokenSymlink, "broken symlink as the final component")

	_, err = j.Join("broken/file.txt")
	require.ErrorIs(t, err, ErrBrokenSymlink, "broken symlink mid-path")
}

func TestJoinSymlinkLoop(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	require.NoError(t, os.Symlink(filepath.Join(root, "loop"), filepath.Join(root, "loop")))

	_, err := j.Join("loop/file.txt")
	require.ErrorIs(t, err, ErrBrokenSymlink, "a self-referencing symlink cannot be resolved")
}

func TestJoinParentAfterMissingComponent(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	// "nope" does not exist, but popping it with ".." puts the walk back on
	// existing ground, so the symlink must still be resolved and rejected.
	_, err := j.Join("nope/../link/secret.txt")
	require.ErrorIs(t, err, ErrPathEscape)
}

func TestContains(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	file := writeTestFile(t, root, "subdir/file.txt")

	got, err := j.Contains(file)
	require.NoError(t, err)
	assert.Equal(t, file, got)
}

func TestContainsRoot(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	got, err := j.Contains(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestContainsOutside(t *testing.T) {
	t.Parallel()
	j, _ := setupJail(t)

	outsideFile := writeTestFile(t, t.TempDir(), "file.txt")

	_, err := j.Contains(outsideFile)
	require.ErrorIs(t, err, ErrPathEscape)
}

func TestContainsSiblingPrefix(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	root := filepath.Join(tempDir, "uploads")
	require.NoError(t, os.Mkdir(root, 0o755))
	sibling := filepath.Join(tempDir, "uploads-evil")
	require.NoError(t, os.Mkdir(sibling, 0o755))
	siblingFile := writeTestFile(t, sibling, "file.txt")

	j, err := New(root)
	require.NoError(t, err)

	// A sibling whose name extends the root's is not inside it.
	_, err = j.Contains(siblingFile)
	require.ErrorIs(t, err, ErrPathEscape)
}

func TestContainsRelativeInput(t *testing.T) {
	t.Parallel()
	j, _ := setupJail(t)

	_, err := j.Contains("subdir/file.txt")
	require.ErrorIs(t, err, ErrNotAbsolute)
}

func TestContainsNonexistent(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	_, err := j.Contains(filepath.Join(root, "missing.txt"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestContainsBrokenSymlink(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	broken := filepath.Join(root, "broken")
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), broken))

	_, err := j.Contains(broken)
	require.ErrorIs(t, err, ErrBrokenSymlink)
}

func TestContainsSymlinkEscape(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	outsideFile := writeTestFile(t, t.TempDir(), "secret.txt")
	link := filepath.Join(root, "alias.txt")
	require.NoError(t, os.Symlink(outsideFile, link))

	_, err := j.Contains(link)
	require.ErrorIs(t, err, ErrPathEscape, "symlink target outside the root should be rejected")
}

func TestContainsNulByte(t *testing.T) {
	t.Parallel()
	j, _ := setupJail(t)

	_, err := j.Contains("/tmp/bad\x00file")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRelative(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	file := writeTestFile(t, root, "subdir/file.txt")

	rel, err := j.Relative(file)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("subdir", "file.txt"), rel)
}

func TestRelativeRoot(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	rel, err := j.Relative(root)
	require.NoError(t, err)
	assert.Equal(t, ".", rel)
}

func TestRelativeOutside(t *testing.T) {
	t.Parallel()
	j, _ := setupJail(t)

	outsideFile := writeTestFile(t, t.TempDir(), "file.txt")

	_, err := j.Relative(outsideFile)
	require.ErrorIs(t, err, ErrPathEscape)
}

func TestJoinContainsRoundTrip(t *testing.T) {
	t.Parallel()
	j, root := setupJail(t)

	writeTestFile(t, root, "subdir/file.txt")

	joined, err := j.Join("subdir/file.txt")
	require.NoError(t, err)

	contained, err := j.Contains(joined)
	require.NoError(t, err)
	assert.Equal(t, joined, contained, "Contains(Join(p)) should return the same path")

	rel, err := j.Relative(joined)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("subdir", "file.txt"), rel, "Relative should invert Join")
}

func TestPackageJoin(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	root, err := filepath.EvalSymlinks(tempDir)
	require.NoError(t, err)

	got, err := Join(tempDir, "file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "file.txt"), got)

	_, err = Join(tempDir, "../file.txt")
	require.ErrorIs(t, err, ErrPathEscape)

	_, err = Join(filepath.Join(tempDir, "missing"), "file.txt")
	require.ErrorIs(t, err, ErrRootNotFound)
}
