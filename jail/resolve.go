package jail

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/tphakala/pathjail/internal/errors"
)

// isNotExist is a broader version of os.IsNotExist: ENOTDIR means a parent
// component is a regular file, which for resolution purposes is the same as
// the path not existing.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ENOTDIR)
}

// resolveWithin walks components from the canonical root one at a time,
// following symlinks as they are encountered and re-checking containment
// after every hop. The walk keeps two pieces of state: resolvedBase, the
// deepest ancestor verified to exist (always canonical and inside root),
// and pending, the lexical components stacked below it that do not exist
// on disk. A non-existent path cannot contain a symlink, so appends below
// resolvedBase are safe without I/O — but the moment ".." pops the pending
// stack empty, the walk is back on existing ground and resumes real
// resolution.
//
// ".." pops the resolved path, not the nominal one: after a symlink has
// been followed, ".." returns to the target's parent. Popping at the
// root's depth is an escape, not a clamp.
func resolveWithin(root string, components []string) (string, error) {
	resolvedBase := root
	floor := depth(root)
	var pending []string

	for _, component := range components {
		switch component {
		case ".":
			// no-op

		case "..":
			if len(pending) > 0 {
				pending = pending[:len(pending)-1]
				continue
			}
			if depth(resolvedBase) <= floor {
				return "", fmt.Errorf("%w: %q traverses above root", ErrPathEscape, "..")
			}
			resolvedBase = filepath.Dir(resolvedBase)

		default:
			if len(pending) > 0 {
				pending = append(pending, component)
				continue
			}

			next := filepath.Join(resolvedBase, component)
			info, err := os.Lstat(next)
			switch {
			case err == nil && info.Mode()&os.ModeSymlink != 0:
				resolved, rerr := filepath.EvalSymlinks(next)
				if rerr != nil {
					// Broken link or a cycle; either way the target cannot
					// be verified, mid-path or final.
					return "", fmt.Errorf("%w: %q", ErrBrokenSymlink, component)
				}
				if !isWithin(root, resolved) {
					return "", fmt.Errorf("%w: symlink %q resolves to %q", ErrPathEscape, component, resolved)
				}
				resolvedBase = resolved

			case err == nil:
				// Parent is resolved and this component is not a link, so
				// the joined path is already canonical.
				resolvedBase = next

			case isNotExist(err):
				pending = append(pending, component)

			default:
				// Transient I/O failures surface immediately; retrying or
				// ignoring them here could mask a race.
				return "", fmt.Errorf("failed to inspect %q: %w", component, err)
			}
		}
	}

	if len(pending) == 0 {
		return resolvedBase, nil
	}
	return filepath.Join(append([]string{resolvedBase}, pending...)...), nil
}

// resolveAbsolute canonicalizes an existing absolute path, classifying
// resolution failures: a leaf that is an unresolvable symlink reports
// ErrBrokenSymlink, a missing path reports ErrNotFound. The input is not
// lexically cleaned first; EvalSymlinks applies ".." against resolved
// positions during its walk, which is the behavior containment depends on.
func resolveAbsolute(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	if isNotExist(err) {
		if info, lerr := os.Lstat(path); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("%w: %q", ErrBrokenSymlink, path)
		}
		return "", fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return "", fmt.Errorf("failed to resolve %q: %w", path, err)
}
