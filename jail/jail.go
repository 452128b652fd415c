package jail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tphakala/pathjail/internal/errors"
	"github.com/tphakala/pathjail/internal/logging"
)

// getLogger returns the jail package logger. It is fetched from the global
// logger each time so it picks up configuration applied after package init.
func getLogger() *slog.Logger {
	return logging.ForService("jail")
}

// Jail confines paths to a single root directory. The root is canonicalized
// at construction (symlinks resolved, "."/".." eliminated) and never changes;
// a Jail holds no other state, so concurrent use needs no synchronization.
//
// Join turns untrusted relative input into a proven-contained absolute path;
// Contains verifies an existing absolute path; Relative strips the root from
// a verified path. All three resolve against the real filesystem, so results
// are point-in-time: nothing here protects against the filesystem changing
// between validation and use.
type Jail struct {
	root              string // canonical root, pre-display form
	longPathThreshold int
}

// Option configures a Jail at construction.
type Option func(*Jail)

// WithLongPathThreshold sets the maximum length at which a Windows
// extended-length marker is stripped from returned paths. Zero disables
// stripping. Has no effect on Unix or on the containment decision itself.
func WithLongPathThreshold(n int) Option {
	return func(j *Jail) {
		j.longPathThreshold = n
	}
}

// New creates a jail rooted at the given directory. The root must exist and
// be a directory; it is fully resolved (following symlinks) so that all
// later containment checks compare against its real location.
func New(root string, opts ...Option) (*Jail, error) {
	if root == "" {
		// filepath.Abs("") would silently resolve to the working directory.
		return nil, fmt.Errorf("%w: empty root path", ErrInvalidInput)
	}
	if err := checkNul(root); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	info, err := os.Stat(abs)
	switch {
	case err != nil && isNotExist(err):
		return nil, fmt.Errorf("%w: %q", ErrRootNotFound, root)
	case err != nil:
		return nil, fmt.Errorf("failed to stat root %q: %w", root, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %q", ErrRootNotDirectory, root)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize root %q: %w", root, err)
	}

	j := &Jail{
		root:              canonical,
		longPathThreshold: DefaultLongPathThreshold,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Root returns the canonicalized root path in display form.
func (j *Jail) Root() string {
	return displayPath(j.root, j.longPathThreshold)
}

// String implements fmt.Stringer.
func (j *Jail) String() string {
	return fmt.Sprintf("Jail(%q)", j.Root())
}

// Join safely joins a relative path to the jail root, resolving symlinks
// component by component. The final components may not exist yet; everything
// up to the last existing ancestor is still verified. Fails with
// ErrAbsolutePath, ErrPathEscape, ErrBrokenSymlink, or ErrInvalidInput.
func (j *Jail) Join(path string) (string, error) {
	components, err := splitRelative(path)
	if err != nil {
		return "", err
	}

	resolved, err := resolveWithin(j.root, components)
	if err != nil {
		if errors.Is(err, ErrPathEscape) {
			getLogger().Warn("join rejected escaping path",
				"root", j.root,
				"components", len(components))
		}
		return "", err
	}

	return displayPath(resolved, j.longPathThreshold), nil
}

// Contains verifies that an existing absolute path is inside the jail and
// returns its canonical form. Fails with ErrNotAbsolute, ErrNotFound,
// ErrBrokenSymlink, ErrPathEscape, or ErrInvalidInput.
func (j *Jail) Contains(path string) (string, error) {
	resolved, err := j.containsResolved(path)
	if err != nil {
		return "", err
	}
	return displayPath(resolved, j.longPathThreshold), nil
}

// Relative verifies an absolute path the way Contains does, then returns its
// location relative to the jail root. The root itself yields ".".
func (j *Jail) Relative(path string) (string, error) {
	resolved, err := j.containsResolved(path)
	if err != nil {
		return "", err
	}

	rootComponents := pathComponents(j.root)
	targetComponents := pathComponents(resolved)

	remainder := targetComponents[len(rootComponents):]
	if len(remainder) == 0 {
		return ".", nil
	}
	return filepath.Join(remainder...), nil
}

// containsResolved canonicalizes path and checks containment, returning the
// pre-display canonical form. The containment decision operates on that raw
// form; display conversion never participates in it.
func (j *Jail) containsResolved(path string) (string, error) {
	if err := checkNul(path); err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %q", ErrNotAbsolute, path)
	}

	resolved, err := resolveAbsolute(path)
	if err != nil {
		return "", err
	}

	if !isWithin(j.root, resolved) {
		getLogger().Warn("containment check rejected path outside root",
			"root", j.root)
		return "", fmt.Errorf("%w: %q resolves to %q outside %q", ErrPathEscape, path, resolved, j.root)
	}
	return resolved, nil
}

// Join is a one-shot validation: it constructs a Jail over root and joins
// path. For repeated validations against the same root, construct a Jail
// once and reuse it; construction canonicalizes the root each time.
func Join(root, path string) (string, error) {
	j, err := New(root)
	if err != nil {
		return "", err
	}
	return j.Join(path)
}
