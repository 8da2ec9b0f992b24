package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/xattr"
)

// CopyPayload transfers every entry under payloadRoot into installRoot,
// preserving symlinks, permissions, and extended attributes. It returns
// the "/"-prefixed path of every regular file or symlink it installed,
// relative to payloadRoot — the form logFile persists per §4.5.1 step 9.
func CopyPayload(payloadRoot, installRoot string) ([]string, error) {
	var installed []string

	err := filepath.Walk(payloadRoot, func(src string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(payloadRoot, src)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		recordPath := "/" + rel
		dst := filepath.Join(installRoot, recordPath)

		switch {
		case info.IsDir():
			return os.MkdirAll(dst, info.Mode())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(src)
			if err != nil {
				return fmt.Errorf("failed to read symlink %s: %w", src, err)
			}
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return err
			}
			os.Remove(dst)
			if err := os.Symlink(link, dst); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", dst, err)
			}
			installed = append(installed, recordPath)
			return nil
		default:
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return err
			}
			if err := copyFile(src, dst, info.Mode()); err != nil {
				return err
			}
			if err := copyXattrs(src, dst); err != nil {
				return fmt.Errorf("failed to copy xattrs from %s: %w", src, err)
			}
			installed = append(installed, recordPath)
			return nil
		}
	})
	if err != nil {
		return installed, fmt.Errorf("failed to copy payload from %s: %w", payloadRoot, err)
	}
	return installed, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

func copyXattrs(src, dst string) error {
	names, err := xattr.List(src)
	if err != nil {
		// Extended attributes are not supported on every filesystem;
		// treat their absence as a non-fatal no-op.
		return nil
	}
	for _, name := range names {
		v, err := xattr.Get(src, name)
		if err != nil {
			continue
		}
		if err := xattr.Set(dst, name, v); err != nil {
			return err
		}
	}
	return nil
}

// RemoveInstalled deletes every path in paths (each "/"-prefixed, relative
// to installRoot) in reverse order, used by the install rollback path
// (§4.5.1 step 13) and by Remove (§4.5.2).
func RemoveInstalled(installRoot string, paths []string) []error {
	var errs []error
	for i := len(paths) - 1; i >= 0; i-- {
		full := filepath.Join(installRoot, paths[i])
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", full, err))
		}
	}
	return errs
}
