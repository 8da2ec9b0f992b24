package transactor

import (
	"archive/tar"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cv2labs/anemo/internal/catalog"
	"github.com/cv2labs/anemo/internal/config"
	"github.com/cv2labs/anemo/internal/errs"
	"github.com/cv2labs/anemo/internal/logging"
)

// apkgFixture describes the minimal contents of a fixture archive: the
// manifest YAML, an optional payload file (relative to package/), and an
// optional install script body.
type apkgFixture struct {
	manifest    string
	payloadFile string
	payloadBody string
	installSH   string
}

// buildApkg writes a tar archive satisfying archive.Extract's expectations
// (anemonix.yaml at the root, optional package/ subtree and
// install.anemonix) to a file under dir and returns its path.
func buildApkg(t *testing.T, dir, name string, fx apkgFixture) string {
	t.Helper()

	path := filepath.Join(dir, name+".apkg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	tw := tar.NewWriter(f)
	defer tw.Close()

	addFile := func(name string, body []byte) {
		if err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(body)),
		}); err != nil {
			t.Fatalf("failed to write header for %s: %v", name, err)
		}
		if _, err := tw.Write(body); err != nil {
			t.Fatalf("failed to write body for %s: %v", name, err)
		}
	}

	addFile("anemonix.yaml", []byte(fx.manifest))
	if fx.payloadFile != "" {
		addFile(filepath.Join("package", fx.payloadFile), []byte(fx.payloadBody))
	}
	if fx.installSH != "" {
		addFile("install.anemonix", []byte(fx.installSH))
	}

	return path
}

func newTestTransactor(t *testing.T, force bool) (*Transactor, *catalog.Catalog, config.Layout) {
	t.Helper()
	cat, err := catalog.Open(":memory:")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	layout := config.Dir(t.TempDir())
	if err := os.MkdirAll(layout.LibDir, 0o755); err != nil {
		t.Fatalf("failed to create lib dir: %v", err)
	}

	tr := New(cat, layout, force, logging.Noop())
	return tr, cat, layout
}

func hostArchYAML() string {
	return runtime.GOARCH
}

func TestInstallArchiveLeafPackage(t *testing.T) {
	tr, cat, _ := newTestTransactor(t, false)

	manifest := "name: libA\nversion: \"1.0\"\narch: " + hostArchYAML() + "\n"
	path := buildApkg(t, t.TempDir(), "libA", apkgFixture{
		manifest:    manifest,
		payloadFile: "lib/liba.so",
		payloadBody: "binary-content",
	})

	result, err := tr.InstallArchive(path, nil)
	if err != nil {
		t.Fatalf("InstallArchive() failed: %v", err)
	}
	if result.Name != "libA" || result.Version != "1.0" {
		t.Errorf("InstallArchive() result = %+v, want Name=libA Version=1.0", result)
	}
	if result.Broken {
		t.Error("expected leaf install to not be marked broken")
	}

	installed, err := cat.IsInstalled(cat.DB(), "libA")
	if err != nil {
		t.Fatalf("IsInstalled() failed: %v", err)
	}
	if !installed {
		t.Error("expected libA to be installed after InstallArchive")
	}

	installedPath := filepath.Join(tr.Layout.InstallRoot(), "lib", "liba.so")
	if _, err := os.Stat(installedPath); err != nil {
		t.Errorf("expected payload file at %s, got error: %v", installedPath, err)
	}
}

func TestInstallArchiveArchMismatch(t *testing.T) {
	tr, _, _ := newTestTransactor(t, false)

	path := buildApkg(t, t.TempDir(), "libA", apkgFixture{
		manifest: "name: libA\nversion: \"1.0\"\narch: bogus-arch\n",
	})

	_, err := tr.InstallArchive(path, nil)
	if !errors.Is(err, errs.ErrArchMismatch) {
		t.Fatalf("InstallArchive() error = %v, want ErrArchMismatch", err)
	}
}

func TestInstallArchiveMissingDependencyFatal(t *testing.T) {
	tr, _, _ := newTestTransactor(t, false)

	manifest := "name: libA\nversion: \"1.0\"\narch: " + hostArchYAML() + "\ndeps:\n  - libB\n"
	path := buildApkg(t, t.TempDir(), "libA", apkgFixture{manifest: manifest})

	_, err := tr.InstallArchive(path, nil)
	if !errors.Is(err, errs.ErrMissingDependency) {
		t.Fatalf("InstallArchive() error = %v, want ErrMissingDependency", err)
	}
}

func TestInstallArchiveMissingDependencyForcedMarksBroken(t *testing.T) {
	tr, cat, _ := newTestTransactor(t, true)

	manifest := "name: libA\nversion: \"1.0\"\narch: " + hostArchYAML() + "\ndeps:\n  - libB\n"
	path := buildApkg(t, t.TempDir(), "libA", apkgFixture{manifest: manifest})

	result, err := tr.InstallArchive(path, nil)
	if err != nil {
		t.Fatalf("InstallArchive() with --force failed: %v", err)
	}
	if !result.Broken {
		t.Error("expected package installed past a missing dependency to be marked broken")
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", result.Warnings)
	}

	broken, err := cat.GetBrokenPackages(cat.DB())
	if err != nil {
		t.Fatalf("GetBrokenPackages() failed: %v", err)
	}
	if len(broken) != 1 || broken[0] != "libA" {
		t.Errorf("GetBrokenPackages() = %v, want [libA]", broken)
	}
}

func TestInstallArchiveStagedDependencySatisfied(t *testing.T) {
	tr, _, _ := newTestTransactor(t, false)

	manifest := "name: libA\nversion: \"1.0\"\narch: " + hostArchYAML() + "\ndeps:\n  - libB\n"
	path := buildApkg(t, t.TempDir(), "libA", apkgFixture{manifest: manifest})

	staged := map[string]bool{"libB": true}
	if _, err := tr.InstallArchive(path, staged); err != nil {
		t.Fatalf("InstallArchive() with staged dependency failed: %v", err)
	}
}

func TestInstallArchiveConflictFatal(t *testing.T) {
	tr, cat, _ := newTestTransactor(t, false)

	tx, _ := cat.Begin()
	if err := cat.AddPackage(tx, catalog.Metadata{Name: "libOld", Version: "1.0", Arch: "any"}, ""); err != nil {
		t.Fatalf("AddPackage() failed: %v", err)
	}
	tx.Commit()

	manifest := "name: libNew\nversion: \"1.0\"\narch: " + hostArchYAML() + "\nconflicts:\n  - libOld\n"
	path := buildApkg(t, t.TempDir(), "libNew", apkgFixture{manifest: manifest})

	_, err := tr.InstallArchive(path, nil)
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("InstallArchive() error = %v, want ErrConflict", err)
	}
}

func TestInstallArchiveReplacesRemovesOld(t *testing.T) {
	tr, cat, _ := newTestTransactor(t, false)

	tx, _ := cat.Begin()
	if err := cat.AddPackage(tx, catalog.Metadata{Name: "libOld", Version: "1.0", Arch: "any"}, ""); err != nil {
		t.Fatalf("AddPackage() failed: %v", err)
	}
	tx.Commit()

	manifest := "name: libNew\nversion: \"2.0\"\narch: " + hostArchYAML() + "\nreplaces:\n  - libOld\n"
	path := buildApkg(t, t.TempDir(), "libNew", apkgFixture{manifest: manifest})

	if _, err := tr.InstallArchive(path, nil); err != nil {
		t.Fatalf("InstallArchive() failed: %v", err)
	}

	oldInstalled, err := cat.IsInstalled(cat.DB(), "libOld")
	if err != nil {
		t.Fatalf("IsInstalled() failed: %v", err)
	}
	if oldInstalled {
		t.Error("expected libOld to be removed by replaces")
	}
	newInstalled, err := cat.IsInstalled(cat.DB(), "libNew")
	if err != nil {
		t.Fatalf("IsInstalled() failed: %v", err)
	}
	if !newInstalled {
		t.Error("expected libNew to be installed")
	}
}

func TestRemoveBlockedByReverseDependency(t *testing.T) {
	tr, cat, _ := newTestTransactor(t, false)

	tx, _ := cat.Begin()
	cat.AddPackage(tx, catalog.Metadata{Name: "libA", Version: "1.0", Arch: "any"}, "")
	cat.AddPackage(tx, catalog.Metadata{Name: "libB", Version: "1.0", Arch: "any", Deps: []string{"libA"}}, "")
	tx.Commit()

	err := tr.Remove("libA")
	if !errors.Is(err, errs.ErrReverseDependencyBlocked) {
		t.Fatalf("Remove() error = %v, want ErrReverseDependencyBlocked", err)
	}
}

func TestRemoveForcedMarksDependentsBroken(t *testing.T) {
	tr, cat, _ := newTestTransactor(t, true)

	tx, _ := cat.Begin()
	cat.AddPackage(tx, catalog.Metadata{Name: "libA", Version: "1.0", Arch: "any"}, "")
	cat.AddPackage(tx, catalog.Metadata{Name: "libB", Version: "1.0", Arch: "any", Deps: []string{"libA"}}, "")
	tx.Commit()

	if err := tr.Remove("libA"); err != nil {
		t.Fatalf("Remove() with --force failed: %v", err)
	}

	installed, err := cat.IsInstalled(cat.DB(), "libA")
	if err != nil {
		t.Fatalf("IsInstalled() failed: %v", err)
	}
	if installed {
		t.Error("expected libA to be removed")
	}

	broken, err := cat.GetBrokenPackages(cat.DB())
	if err != nil {
		t.Fatalf("GetBrokenPackages() failed: %v", err)
	}
	if len(broken) != 1 || broken[0] != "libB" {
		t.Errorf("GetBrokenPackages() = %v, want [libB]", broken)
	}
}

func TestRemoveNotInstalled(t *testing.T) {
	tr, _, _ := newTestTransactor(t, false)

	err := tr.Remove("ghost")
	if !errors.Is(err, errs.ErrNotInstalled) {
		t.Fatalf("Remove() error = %v, want ErrNotInstalled", err)
	}
}

func TestAuditFixesResolvedDependency(t *testing.T) {
	tr, cat, _ := newTestTransactor(t, false)

	tx, _ := cat.Begin()
	cat.AddPackage(tx, catalog.Metadata{Name: "libB", Version: "1.0", Arch: "any", Deps: []string{"libA"}}, "")
	cat.MarkBroken(tx, "libB")
	tx.Commit()

	results, err := tr.Audit()
	if err != nil {
		t.Fatalf("Audit() failed: %v", err)
	}
	if len(results) != 1 || results[0].Fixed {
		t.Fatalf("Audit() before dependency installed = %+v, want one unfixed result", results)
	}

	tx, _ = cat.Begin()
	cat.AddPackage(tx, catalog.Metadata{Name: "libA", Version: "1.0", Arch: "any"}, "")
	tx.Commit()

	results, err = tr.Audit()
	if err != nil {
		t.Fatalf("Audit() failed: %v", err)
	}
	if len(results) != 1 || !results[0].Fixed || results[0].Name != "libB" {
		t.Fatalf("Audit() after dependency installed = %+v, want libB fixed", results)
	}

	broken, err := cat.GetBrokenPackages(cat.DB())
	if err != nil {
		t.Fatalf("GetBrokenPackages() failed: %v", err)
	}
	if len(broken) != 0 {
		t.Errorf("expected no broken packages after audit fix, got %v", broken)
	}
}
