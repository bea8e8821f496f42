package infrastructure

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// FileExists reports whether path is an existing regular file.
// A directory at path counts as missing.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(filepath.FromSlash(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// CreateEmpty creates an empty file at path along with its parent
// directories. An existing file is left as is.
func CreateEmpty(path string) error {
	native := filepath.FromSlash(path)
	if err := os.MkdirAll(filepath.Dir(native), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(native, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f.Close()
}

// MoveFile moves src to dst, creating dst's parent directories. Moves across
// filesystems fall back to copy and remove.
func MoveFile(src, dst string) error {
	nativeSrc, nativeDst := filepath.FromSlash(src), filepath.FromSlash(dst)
	if err := os.MkdirAll(filepath.Dir(nativeDst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	err := os.Rename(nativeSrc, nativeDst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}

	if err := copyFile(nativeSrc, nativeDst); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return os.Remove(nativeSrc)
}

// RemoveFile deletes path. A missing file is not an error.
func RemoveFile(path string) error {
	err := os.Remove(filepath.FromSlash(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
