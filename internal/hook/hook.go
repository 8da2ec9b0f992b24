// Package hook runs the lifecycle functions defined by a stored
// install.anemonix script, optionally inside a chroot, mirroring the
// shell-sourcing behavior of the source this system was distilled from
// (see SPEC_FULL.md §12.2).
package hook

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// PostInstall is run after a package's files are committed to the catalog.
const PostInstall = "post_install"

// PostRemove is run before a stored script is deleted on removal.
const PostRemove = "post_remove"

// Run sources scriptPath and invokes post_common (if defined) followed
// by hookName (if defined), inside chrootDir when it is set and not "/".
// A missing scriptPath is a no-op, not an error. A nonzero exit is
// reported but is always non-fatal to the caller (§7: HookNonZero is
// always a warning).
func Run(scriptPath, hookName, chrootDir string) error {
	if scriptPath == "" {
		return nil
	}
	if _, err := os.Stat(scriptPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat hook script %s: %w", scriptPath, err)
	}

	doChroot := chrootDir != "" && chrootDir != "/"
	inChrootPath := scriptPath
	if doChroot && strings.HasPrefix(scriptPath, chrootDir) {
		inChrootPath = strings.TrimPrefix(scriptPath, chrootDir)
		if inChrootPath == "" {
			inChrootPath = "/"
		}
	}

	inner := fmt.Sprintf(
		". '%s'; if command -v post_common >/dev/null 2>&1; then post_common; fi; "+
			"if command -v %s >/dev/null 2>&1; then %s; fi",
		inChrootPath, hookName, hookName,
	)

	var cmd *exec.Cmd
	if doChroot {
		cmd = exec.Command("chroot", chrootDir, "/bin/sh", "-e", "-c", inner)
	} else {
		cmd = exec.Command("/bin/sh", "-e", "-c", inner)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("hook %s in %s exited non-zero: %w (output: %s)", hookName, scriptPath, err, string(output))
	}
	return nil
}

// Stash copies the install script from srcPath to its stored location
// under scriptsDir, named "<name>-<version><ext>" per §6.2, overwriting
// any existing file there.
func Stash(srcPath, scriptsDir, name, ver, ext string) (string, error) {
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scripts dir %s: %w", scriptsDir, err)
	}
	dst := scriptsDir + "/" + name + "-" + ver + ext

	in, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to read install script %s: %w", srcPath, err)
	}
	if err := os.WriteFile(dst, in, 0o755); err != nil {
		return "", fmt.Errorf("failed to stash install script to %s: %w", dst, err)
	}
	return dst, nil
}
