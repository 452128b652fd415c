package securefs

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/pathjail/internal/logging"
	"github.com/tphakala/pathjail/jail"
)

// getLogger returns the securefs package logger. It is fetched from the
// global logger each time so it picks up configuration applied after
// package init.
func getLogger() *slog.Logger {
	return logging.ForService("securefs")
}

// SecureFS provides filesystem operations restricted to a base directory.
//
// Every path is validated through a jail.Jail (component-wise symlink-aware
// resolution) before it is used, and the operation itself then runs against
// an os.Root handle, which enforces the same boundary at the OS level. The
// double check is deliberate: the jail gives precise typed failures and
// supports non-existent leaves, while os.Root narrows the window between
// validation and use that a userspace check alone cannot close.
type SecureFS struct {
	jail            *jail.Jail // path validation and canonicalization
	root            *os.Root   // sandboxed filesystem handle
	cache           *PathCache // memoization for validation and stat
	maxReadFileSize int64      // maximum file size for ReadFile (0 = unlimited)
}

// New creates a secure filesystem rooted at baseDir, creating the directory
// if it does not exist. Permissions allow group read/execute for serving
// files but only owner write.
func New(baseDir string) (*SecureFS, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	j, err := jail.New(absPath)
	if err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(j.Root())
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem sandbox: %w", err)
	}

	return &SecureFS{
		jail:  j,
		root:  root,
		cache: NewPathCache(),
	}, nil
}

// BaseDir returns the canonical base directory of the secure filesystem.
func (sfs *SecureFS) BaseDir() string {
	return sfs.jail.Root()
}

// Jail exposes the underlying jail for callers that need Join/Contains/
// Relative directly.
func (sfs *SecureFS) Jail() *jail.Jail {
	return sfs.jail
}

// RelativePath validates a path (absolute or relative to the base directory)
// and returns its validated form relative to the base, suitable for os.Root
// operations. The leaf components may not exist yet.
func (sfs *SecureFS) RelativePath(path string) (string, error) {
	return sfs.cache.GetValidatePath(path, func(p string) (string, error) {
		rel := p
		if filepath.IsAbs(p) {
			r, err := filepath.Rel(sfs.jail.Root(), p)
			if err != nil {
				return "", fmt.Errorf("%w: %q is on a different tree than %q", jail.ErrPathEscape, p, sfs.jail.Root())
			}
			rel = r
		}

		// The jail walk resolves symlinks component by component and fails
		// closed on escapes and broken links.
		joined, err := sfs.jail.Join(rel)
		if err != nil {
			return "", err
		}

		validated, err := filepath.Rel(sfs.jail.Root(), joined)
		if err != nil {
			return "", fmt.Errorf("failed to make path relative: %w", err)
		}

		// Guard against a leading separator being treated as absolute by os.Root.
		validated = strings.TrimPrefix(validated, string(filepath.Separator))
		if validated == "" {
			validated = "."
		}
		return validated, nil
	})
}

// relNoFollow validates a path without following a final symlink: the parent
// directory goes through the full jail walk, the leaf is kept nominal. Used
// by operations that act on a link itself (Lstat, Readlink, Remove, Rename);
// os.Root still prevents the leaf from being followed outside the sandbox.
func (sfs *SecureFS) relNoFollow(path string) (string, error) {
	base := filepath.Base(path)
	if base == ".." {
		return "", fmt.Errorf("%w: path ends in %q", jail.ErrInvalidInput, "..")
	}

	dirRel, err := sfs.RelativePath(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	if base == "." || base == string(filepath.Separator) {
		return dirRel, nil
	}
	return filepath.Join(dirRel, base), nil
}

// Open opens a file for reading with path validation.
func (sfs *SecureFS) Open(path string) (*os.File, error) {
	relPath, err := sfs.RelativePath(path)
	if err != nil {
		return nil, err
	}
	return sfs.root.Open(relPath)
}

// OpenFile opens a file with path validation.
func (sfs *SecureFS) OpenFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	relPath, err := sfs.RelativePath(path)
	if err != nil {
		return nil, err
	}
	return sfs.root.OpenFile(relPath, flag, perm)
}

// Stat returns file info with path validation, memoized briefly.
func (sfs *SecureFS) Stat(path string) (fs.FileInfo, error) {
	relPath, err := sfs.RelativePath(path)
	if err != nil {
		return nil, err
	}
	return sfs.cache.GetStat(relPath, func(p string) (fs.FileInfo, error) {
		return sfs.root.Stat(p)
	})
}

// Lstat returns file info without following a final symlink.
func (sfs *SecureFS) Lstat(path string) (fs.FileInfo, error) {
	relPath, err := sfs.relNoFollow(path)
	if err != nil {
		return nil, err
	}
	return sfs.root.Lstat(relPath)
}

// Exists checks whether a path exists, with validation. A validation failure
// is returned rather than reported as "does not exist".
func (sfs *SecureFS) Exists(path string) (bool, error) {
	relPath, err := sfs.RelativePath(path)
	if err != nil {
		return false, err
	}

	_, err = sfs.root.Stat(relPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err // propagate unexpected errors
}

// ExistsNoErr is a convenience wrapper returning only a boolean. Validation
// errors are logged rather than returned.
func (sfs *SecureFS) ExistsNoErr(path string) bool {
	exists, err := sfs.Exists(path)
	if err != nil {
		getLogger().Warn("failed to validate path in Exists check",
			"path", path,
			"error", err)
		return false
	}
	return exists
}

// SetMaxReadFileSize sets the maximum file size that ReadFile will read.
// A value of 0 means unlimited. This helps prevent memory exhaustion from
// reading very large files.
func (sfs *SecureFS) SetMaxReadFileSize(maxSize int64) {
	sfs.maxReadFileSize = maxSize
}

// GetMaxReadFileSize returns the current maximum file size for ReadFile.
func (sfs *SecureFS) GetMaxReadFileSize() int64 {
	return sfs.maxReadFileSize
}

// ReadFile reads a file with path validation and returns its contents.
// Only regular files are read; if maxReadFileSize is set (> 0), files
// exceeding that size return ErrFileTooLarge.
func (sfs *SecureFS) ReadFile(path string) ([]byte, error) {
	file, err := sfs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			getLogger().Warn("failed to close file", "error", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	if sfs.maxReadFileSize > 0 && stat.Size() > sfs.maxReadFileSize {
		return nil, fmt.Errorf("%w: file is %d bytes, limit is %d bytes",
			ErrFileTooLarge, stat.Size(), sfs.maxReadFileSize)
	}

	return io.ReadAll(file)
}

// WriteFile writes data to a file with path validation, creating or
// truncating it.
func (sfs *SecureFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	file, err := sfs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			getLogger().Warn("failed to close file", "error", err)
		}
	}()

	_, err = file.Write(data)
	return err
}

// createDirComponent attempts to create a single directory component,
// ignoring "already exists" errors.
func (sfs *SecureFS) createDirComponent(path string, perm os.FileMode) error {
	err := sfs.root.Mkdir(path, perm)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to create directory component %s: %w", path, err)
	}
	return nil
}

// MkdirAll creates a directory and all necessary parents with path validation.
func (sfs *SecureFS) MkdirAll(path string, perm os.FileMode) error {
	relPath, err := sfs.RelativePath(path)
	if err != nil {
		return err
	}

	if relPath == "" || relPath == "." {
		return nil
	}

	components := strings.Split(relPath, string(filepath.Separator))
	currentPath := ""

	for _, component := range components {
		if component == "" {
			continue
		}

		currentPath = filepath.Join(currentPath, component)
		if err := sfs.createDirComponent(currentPath, perm); err != nil {
			return err
		}
	}

	return nil
}

// invalidateCached drops cache entries for a path about to be mutated. The
// validate cache is keyed by the caller-supplied path, the stat cache by the
// validated relative form, so both keys must be dropped.
func (sfs *SecureFS) invalidateCached(path, relPath string) {
	sfs.cache.Invalidate(path)
	sfs.cache.Invalidate(relPath)
}

// Remove removes a file, symlink, or empty directory with path validation.
// A symlink is removed itself, not followed.
func (sfs *SecureFS) Remove(path string) error {
	relPath, err := sfs.relNoFollow(path)
	if err != nil {
		return err
	}
	sfs.invalidateCached(path, relPath)
	return sfs.root.Remove(relPath)
}

// removeAllRelative removes a path using an already-validated relative path.
func (sfs *SecureFS) removeAllRelative(relPath string) error {
	info, err := sfs.root.Lstat(relPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return sfs.root.Remove(relPath)
	}

	return sfs.removeDirContents(relPath)
}

// removeDirContents removes all contents of a directory and then the
// directory itself.
func (sfs *SecureFS) removeDirContents(relPath string) error {
	dir, err := sfs.root.Open(relPath)
	if err != nil {
		return err
	}

	entries, err := dir.ReadDir(0)
	if closeErr := dir.Close(); closeErr != nil {
		getLogger().Warn("failed to close directory",
			"path", relPath,
			"error", closeErr)
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		childPath := filepath.Join(relPath, entry.Name())
		if err := sfs.removeAllRelative(childPath); err != nil {
			return err
		}
	}

	return sfs.root.Remove(relPath)
}

// RemoveAll removes a directory and all its contents with path validation,
// using os.Root operations for each individual entry rather than handing
// the whole subtree to os.RemoveAll.
func (sfs *SecureFS) RemoveAll(path string) error {
	relPath, err := sfs.relNoFollow(path)
	if err != nil {
		return err
	}
	sfs.invalidateCached(path, relPath)
	return sfs.removeAllRelative(relPath)
}

// Rename renames (moves) oldpath to newpath within the sandbox.
func (sfs *SecureFS) Rename(oldpath, newpath string) error {
	oldRelPath, err := sfs.relNoFollow(oldpath)
	if err != nil {
		return err
	}

	newRelPath, err := sfs.relNoFollow(newpath)
	if err != nil {
		return err
	}

	sfs.invalidateCached(oldpath, oldRelPath)
	sfs.invalidateCached(newpath, newRelPath)
	return sfs.root.Rename(oldRelPath, newRelPath)
}

// ReadDir reads the directory named by path and returns its entries.
func (sfs *SecureFS) ReadDir(path string) ([]os.DirEntry, error) {
	relPath, err := sfs.RelativePath(path)
	if err != nil {
		return nil, err
	}

	dirFile, err := sfs.root.Open(relPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	defer func() {
		if err := dirFile.Close(); err != nil {
			getLogger().Warn("failed to close directory", "error", err)
		}
	}()

	entries, err := dirFile.ReadDir(0) // 0 means read all entries
	if err != nil {
		return nil, fmt.Errorf("failed to read directory entries: %w", err)
	}

	return entries, nil
}

// Readlink reads the target of a symbolic link whose own location is inside
// the sandbox. The target is returned as-is without validating whether it is
// safe to follow; validation happens when the link is actually followed via
// Open, Stat, or the jail.
func (sfs *SecureFS) Readlink(path string) (string, error) {
	relPath, err := sfs.relNoFollow(path)
	if err != nil {
		return "", err
	}

	info, err := sfs.root.Lstat(relPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat symlink: %w", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return "", fmt.Errorf("not a symbolic link: %s", path)
	}

	return sfs.root.Readlink(relPath)
}

// ClearExpiredCache removes expired entries from the cache.
func (sfs *SecureFS) ClearExpiredCache() {
	if sfs.cache != nil {
		sfs.cache.ClearExpired()
	}
}

// GetCacheStats returns statistics about cache usage for monitoring.
func (sfs *SecureFS) GetCacheStats() CacheStats {
	if sfs.cache != nil {
		return sfs.cache.GetCacheStats()
	}
	return CacheStats{}
}

// StartCacheCleanup starts a background goroutine that periodically cleans
// expired cache entries. Closing the returned channel stops it.
func (sfs *SecureFS) StartCacheCleanup(interval time.Duration) chan<- struct{} {
	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sfs.ClearExpiredCache()
			case <-stopCh:
				return
			}
		}
	}()

	return stopCh
}

// Close closes the underlying root handle.
func (sfs *SecureFS) Close() error {
	if sfs.root != nil {
		return sfs.root.Close()
	}
	return nil
}
