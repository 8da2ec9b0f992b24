// Package archive extracts an apkg tar stream in-process, preserving
// symlinks, permissions, and extended attributes, replacing the shelled
// "tar -xf" pipeline of the source this system was distilled from.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/xattr"
)

// ManifestName is the manifest file the spec requires somewhere in the
// archive tree.
const ManifestName = "anemonix.yaml"

// InstallScriptName is the optional hook script file.
const InstallScriptName = "install.anemonix"

// PayloadDir is the directory whose subtree holds the install payload.
const PayloadDir = "package"

// Extracted describes where an archive's interesting members ended up
// after Extract runs.
type Extracted struct {
	// Dir is the temp directory the whole archive was extracted into.
	Dir string
	// ManifestPath is the absolute path to the extracted anemonix.yaml.
	ManifestPath string
	// InstallScriptPath is the absolute path to install.anemonix, or ""
	// if the archive did not carry one.
	InstallScriptPath string
	// PayloadRoot is the directory to copy into the install root: the
	// "package/" subtree if present, otherwise Dir itself.
	PayloadRoot string
}

// Extract unpacks the tar (optionally gzip-compressed) stream at
// archivePath into a fresh temp directory under tmpRoot and locates the
// manifest, optional install script, and payload root within it.
func Extract(archivePath, tmpRoot string) (Extracted, error) {
	dir, err := os.MkdirTemp(tmpRoot, "anemo-extract-*")
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to create extraction dir: %w", err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(archivePath, ".gz") || strings.HasSuffix(archivePath, ".tgz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return Extracted{}, fmt.Errorf("failed to open gzip stream in %s: %w", archivePath, err)
		}
		defer gz.Close()
		r = gz
	}

	if err := untar(r, dir); err != nil {
		return Extracted{}, fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}

	ex := Extracted{Dir: dir, PayloadRoot: dir}
	if err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		switch info.Name() {
		case ManifestName:
			ex.ManifestPath = path
		case InstallScriptName:
			ex.InstallScriptPath = path
		}
		if info.IsDir() && info.Name() == PayloadDir {
			ex.PayloadRoot = path
		}
		return nil
	}); err != nil {
		return Extracted{}, fmt.Errorf("failed to walk extracted archive: %w", err)
	}

	if ex.ManifestPath == "" {
		return Extracted{}, fmt.Errorf("archive %s has no %s", archivePath, ManifestName)
	}
	return ex, nil
}

func untar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, filepath.Clean("/"+hdr.Name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", target, err)
			}
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file %s: %w", target, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("failed to write file %s: %w", target, err)
			}
			out.Close()
			if err := applyXattrs(target, hdr); err != nil {
				return fmt.Errorf("failed to apply xattrs to %s: %w", target, err)
			}
		}
	}
}

// applyXattrs copies the extended attributes recorded in a PAX header
// (tar's portable xattr carrier, prefixed "SCHILY.xattr.") onto the
// extracted file, preserving the ACL/xattr metadata the spec requires.
func applyXattrs(path string, hdr *tar.Header) error {
	const prefix = "SCHILY.xattr."
	for k, v := range hdr.PAXRecords {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		name := strings.TrimPrefix(k, prefix)
		if err := xattr.Set(path, name, []byte(v)); err != nil {
			return err
		}
	}
	return nil
}
