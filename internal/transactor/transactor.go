// Package transactor implements §4.5: the install, remove, and audit
// engine that drives a single Catalog transaction through extraction,
// file-copy, commit/rollback, and hook invocation. Grounded step-for-step
// on original_source/src/Installer.cpp's installArchive/removePackage and
// Database.cpp's begin/commit/rollback boundaries.
package transactor

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cv2labs/anemo/internal/archive"
	"github.com/cv2labs/anemo/internal/catalog"
	"github.com/cv2labs/anemo/internal/config"
	"github.com/cv2labs/anemo/internal/errs"
	"github.com/cv2labs/anemo/internal/hook"
	"github.com/cv2labs/anemo/internal/manifest"
	"github.com/cv2labs/anemo/internal/output"
	"github.com/cv2labs/anemo/internal/version"
)

// Transactor owns the catalog and persisted layout for a single command
// invocation and drives install/remove/audit against them.
type Transactor struct {
	Cat    *catalog.Catalog
	Layout config.Layout
	Force  bool
	Log    *zap.Logger
}

// New builds a Transactor. log may be logging.Noop() for callers that
// don't care about the diagnostic trail (most tests).
func New(cat *catalog.Catalog, layout config.Layout, force bool, log *zap.Logger) *Transactor {
	return &Transactor{Cat: cat, Layout: layout, Force: force, Log: log}
}

// hostArch reports the architecture string the arch gate compares against.
// Go's GOARCH values (amd64, arm64, ...) stand in for the uname(2) machine
// string original_source compares; the two spellings differ on some
// hosts (amd64 vs x86_64).
func hostArch() string {
	return runtime.GOARCH
}

// InstallResult summarizes a completed InstallArchive call.
type InstallResult struct {
	Name     string
	Version  string
	Warnings []string
	Broken   bool
}

// InstallArchive runs §4.5.1 against a single local apkg. staged holds the
// names of every package queued in the same install batch, satisfying
// step 3's staged-set forward-reference exemption.
func (t *Transactor) InstallArchive(archivePath string, staged map[string]bool) (InstallResult, error) {
	tmpRoot := filepath.Join(os.TempDir(), "anemo-"+uuid.NewString())
	if err := os.MkdirAll(tmpRoot, 0o755); err != nil {
		return InstallResult{}, fmt.Errorf("%w: failed to create temp dir: %v", errs.ErrIOFailure, err)
	}

	ex, err := archive.Extract(archivePath, tmpRoot)
	if err != nil {
		return InstallResult{}, fmt.Errorf("%w: %v", errs.ErrParseFailure, err)
	}

	meta, err := manifest.ParseFile(ex.ManifestPath)
	if err != nil {
		return InstallResult{}, fmt.Errorf("%w: %v", errs.ErrParseFailure, err)
	}
	t.logf("install: extracted %s-%s from %s", meta.Name, meta.Version, archivePath)

	if meta.Arch != "any" && meta.Arch != "all" && meta.Arch != hostArch() {
		return InstallResult{}, fmt.Errorf("%w: package is %q but host is %q", errs.ErrArchMismatch, meta.Arch, hostArch())
	}

	var warnings []string
	warn := func(format string, args ...any) error {
		if !t.Force {
			return fmt.Errorf(format, args...)
		}
		msg := fmt.Sprintf(strings.ReplaceAll(format, "%w", "%v"), args...)
		warnings = append(warnings, msg)
		t.Log.Warn(msg)
		return nil
	}

	if err := t.gateDeps(meta, staged, warn); err != nil {
		return InstallResult{}, err
	}
	if err := t.gateConflicts(meta, warn); err != nil {
		return InstallResult{}, err
	}
	if err := t.applyReplaces(meta); err != nil {
		return InstallResult{}, err
	}

	var storedScript string
	if ex.InstallScriptPath != "" {
		ext := filepath.Ext(ex.InstallScriptPath)
		if ext == "" {
			ext = ".anemonix"
		}
		storedScript, err = hook.Stash(ex.InstallScriptPath, t.Layout.ScriptsDir, meta.Name, meta.Version, ext)
		if err != nil {
			return InstallResult{}, fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
		}
	}

	result, err := t.commitInstall(meta, storedScript, ex.PayloadRoot, warnings)
	if err != nil {
		if storedScript != "" {
			os.Remove(storedScript)
		}
		return InstallResult{}, err
	}

	if result.Broken {
		output.Warning("package installed with warnings; marking '%s' as broken", meta.Name)
	}
	if storedScript != "" {
		if hookErr := hook.Run(storedScript, hook.PostInstall, t.Layout.InstallRoot()); hookErr != nil {
			t.Log.Warn(hookErr.Error())
			output.Warning("%v", fmt.Errorf("%w: %v", errs.ErrHookNonZero, hookErr))
		}
	}
	output.Success("installed '%s-%s'", meta.Name, meta.Version)
	return result, nil
}

func (t *Transactor) gateDeps(meta catalog.Metadata, staged map[string]bool, warn func(string, ...any) error) error {
	providesSelf := make(map[string]bool, len(meta.Provides))
	for _, p := range meta.Provides {
		providesSelf[version.ParseConstraint(p).Name] = true
	}

	for _, raw := range meta.Deps {
		c := version.ParseConstraint(raw)
		if version.IsSONAME(c.Name) {
			continue
		}
		if providesSelf[c.Name] {
			continue
		}
		if ok, err := t.Cat.IsProvided(t.Cat.DB(), c.Name); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
		} else if ok {
			continue
		}
		if ok, err := t.Cat.ProvidesSatisfies(t.Cat.DB(), c); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
		} else if ok {
			continue
		}
		if staged[c.Name] {
			continue
		}

		instVer, installed, err := t.Cat.GetVersion(t.Cat.DB(), c.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
		}
		if installed {
			if c.Op == "" || version.EvalConstraint(instVer, c) {
				continue
			}
			if err := warn("dependency %q demands version %s%s, but found %s: %w", raw, c.Op, c.Version, instVer, errs.ErrVersionMismatch); err != nil {
				return err
			}
			continue
		}

		if err := warn("missing dependency %q: %w", raw, errs.ErrMissingDependency); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transactor) gateConflicts(meta catalog.Metadata, warn func(string, ...any) error) error {
	for _, raw := range meta.Conflicts {
		c := version.ParseConstraint(raw)
		instVer, installed, err := t.Cat.GetVersion(t.Cat.DB(), c.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
		}
		if !installed || (c.Op != "" && !version.EvalConstraint(instVer, c)) {
			continue
		}
		if err := warn("conflict with installed %q: %w", raw, errs.ErrConflict); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transactor) applyReplaces(meta catalog.Metadata) error {
	for _, raw := range meta.Replaces {
		c := version.ParseConstraint(raw)
		instVer, installed, err := t.Cat.GetVersion(t.Cat.DB(), c.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
		}
		if !installed || (c.Op != "" && !version.EvalConstraint(instVer, c)) {
			continue
		}
		output.Info("replacing %q", raw)
		if err := t.Remove(c.Name); err != nil {
			return fmt.Errorf("failed to remove replaced package %s: %w", c.Name, err)
		}
	}
	return nil
}

// commitInstall runs steps 8-11 of §4.5.1: begin, addPackage, copy payload
// with per-file logFile, commit, mark broken if forced past warnings. Any
// failure rolls back the transaction and undoes the files already copied.
func (t *Transactor) commitInstall(meta catalog.Metadata, storedScript, payloadRoot string, warnings []string) (InstallResult, error) {
	tx, err := t.Cat.Begin()
	if err != nil {
		return InstallResult{}, fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	}

	if err := t.Cat.AddPackage(tx, meta, storedScript); err != nil {
		tx.Rollback()
		return InstallResult{}, fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	}

	installed, copyErr := archive.CopyPayload(payloadRoot, t.Layout.InstallRoot())
	if copyErr != nil {
		tx.Rollback()
		t.rollbackFiles(installed)
		return InstallResult{}, fmt.Errorf("%w: %v", errs.ErrIOFailure, copyErr)
	}
	for _, rel := range installed {
		if err := t.Cat.LogFile(tx, meta.Name, rel); err != nil {
			tx.Rollback()
			t.rollbackFiles(installed)
			return InstallResult{}, fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
		}
	}

	broken := len(warnings) > 0 && t.Force
	if broken {
		if err := t.Cat.MarkBroken(tx, meta.Name); err != nil {
			tx.Rollback()
			t.rollbackFiles(installed)
			return InstallResult{}, fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
		}
	}

	if err := tx.Commit(); err != nil {
		t.rollbackFiles(installed)
		return InstallResult{}, fmt.Errorf("%w: failed to commit install of %s: %v", errs.ErrCatalogFailure, meta.Name, err)
	}

	return InstallResult{Name: meta.Name, Version: meta.Version, Warnings: warnings, Broken: broken}, nil
}

func (t *Transactor) rollbackFiles(installed []string) {
	for _, err := range archive.RemoveInstalled(t.Layout.InstallRoot(), installed) {
		t.Log.Warn(err.Error())
	}
}

// Remove runs §4.5.2 against an installed package.
func (t *Transactor) Remove(name string) error {
	if installed, err := t.Cat.IsInstalled(t.Cat.DB(), name); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	} else if !installed {
		return fmt.Errorf("%w: %s", errs.ErrNotInstalled, name)
	}

	rev, err := t.Cat.GetReverseDependencies(t.Cat.DB(), name)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	}
	if len(rev) > 0 {
		if !t.Force {
			return fmt.Errorf("%w: %s is required by %v", errs.ErrReverseDependencyBlocked, name, rev)
		}
		output.Warning("force removing %q; marking dependents as broken", name)
		for _, dep := range rev {
			if err := t.Cat.MarkBroken(t.Cat.DB(), dep); err != nil {
				return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
			}
		}
	}

	script, err := t.Cat.GetInstallScript(t.Cat.DB(), name)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	}

	files, err := t.Cat.GetFiles(t.Cat.DB(), name)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	}

	tx, err := t.Cat.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	}

	for _, errRm := range archive.RemoveInstalled(t.Layout.InstallRoot(), files) {
		output.Warning("%v", errRm)
	}

	if err := t.Cat.RemoveFiles(tx, name); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	}

	if script != "" {
		if hookErr := hook.Run(script, hook.PostRemove, t.Layout.InstallRoot()); hookErr != nil {
			t.Log.Warn(hookErr.Error())
			output.Warning("%v", fmt.Errorf("%w: %v", errs.ErrHookNonZero, hookErr))
		}
		if err := os.Remove(script); err != nil && !os.IsNotExist(err) {
			output.Warning("failed to remove script %q: %v", script, err)
		}
	}

	if err := t.Cat.DeletePackage(tx, name); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit removal of %s: %v", errs.ErrCatalogFailure, name, err)
	}

	output.Success("removed '%s'", name)
	return nil
}

// AuditResult is the outcome of re-checking one broken package's
// dependencies, per SPEC_FULL.md §12.4.
type AuditResult struct {
	Name         string
	Fixed        bool
	StillMissing []string
}

// Audit runs §4.5.3: for each broken package, clear its broken marker if
// every recorded dependency is now installed by name.
func (t *Transactor) Audit() ([]AuditResult, error) {
	broken, err := t.Cat.GetBrokenPackages(t.Cat.DB())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
	}

	var results []AuditResult
	for _, name := range broken {
		deps, err := t.Cat.GetDependencies(t.Cat.DB(), name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
		}

		var missing []string
		for _, raw := range deps {
			depName := version.ParseConstraint(raw).Name
			ok, err := t.Cat.IsInstalled(t.Cat.DB(), depName)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
			}
			if !ok {
				missing = append(missing, depName)
			}
		}

		if len(missing) == 0 {
			if err := t.Cat.RemoveBroken(t.Cat.DB(), name); err != nil {
				return nil, fmt.Errorf("%w: %v", errs.ErrCatalogFailure, err)
			}
			results = append(results, AuditResult{Name: name, Fixed: true})
		} else {
			results = append(results, AuditResult{Name: name, StillMissing: missing})
		}
	}
	return results, nil
}

func (t *Transactor) logf(format string, args ...any) {
	if t.Log != nil {
		t.Log.Sugar().Debugf(format, args...)
	}
}
