package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeRepo(t *testing.T, repoDir, name, url string, priority int, pkgs []RepoPackage) {
	t.Helper()

	desc := descriptor{Name: name, URL: url, Priority: priority}
	raw, err := json.Marshal(desc)
	if err != nil {
		t.Fatalf("failed to marshal descriptor: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repoDir, name+".json"), raw, 0o644); err != nil {
		t.Fatalf("failed to write descriptor: %v", err)
	}

	dataDir := filepath.Join(repoDir, name)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("failed to create repo data dir: %v", err)
	}
	rf := repoFile{Packages: pkgs}
	raw, err = json.Marshal(rf)
	if err != nil {
		t.Fatalf("failed to marshal repo.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "repo.json"), raw, 0o644); err != nil {
		t.Fatalf("failed to write repo.json: %v", err)
	}
}

func TestLoadMissingDirIsEmptyNotError(t *testing.T) {
	idx, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load() on missing dir failed: %v", err)
	}
	if len(idx.All()) != 0 {
		t.Errorf("expected empty index, got %v", idx.All())
	}
}

func TestLoadAndLookup(t *testing.T) {
	repoDir := t.TempDir()
	writeRepo(t, repoDir, "main", "https://example.test/main", 50, []RepoPackage{
		{PkgName: "libA", PkgVer: "1.0", Arch: "any", Filename: "libA-1.0.apkg"},
		{PkgName: "libB", PkgVer: "2.0", Arch: "any", Filename: "libB-2.0.apkg", Provides: []string{"libA-compat=2.0"}},
	})

	idx, err := Load(repoDir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	direct := idx.Lookup("libA")
	if len(direct) != 1 || direct[0].PkgVer != "1.0" {
		t.Errorf("Lookup(libA) = %v, want one entry at 1.0", direct)
	}

	virtual := idx.Lookup("libA-compat")
	if len(virtual) != 1 || virtual[0].PkgName != "libB" {
		t.Errorf("Lookup(libA-compat) = %v, want libB as provider", virtual)
	}

	all := idx.All()
	if len(all) != 2 {
		t.Fatalf("All() = %v, want 2 real packages", all)
	}
	for _, pkg := range all {
		if pkg.RepoName != "main" || pkg.Priority != 50 {
			t.Errorf("All() entry %+v missing repo metadata", pkg)
		}
	}
}

func TestAllExcludesVirtualAliasesFromSubstringSearch(t *testing.T) {
	repoDir := t.TempDir()
	writeRepo(t, repoDir, "main", "https://example.test/main", 10, []RepoPackage{
		{PkgName: "openssl", PkgVer: "3.0", Arch: "any", Provides: []string{"libssl=3.0"}},
	})

	idx, err := Load(repoDir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	var matchedUnderProvidedName bool
	for _, pkg := range idx.All() {
		if pkg.PkgName == "libssl" {
			matchedUnderProvidedName = true
		}
	}
	if matchedUnderProvidedName {
		t.Error("All() should not expose packages under their virtual-provided names")
	}
}

func TestLoadSkipsRepoWithMissingSyncedIndex(t *testing.T) {
	repoDir := t.TempDir()
	desc := descriptor{Name: "unsynced", URL: "https://example.test/unsynced", Priority: 10}
	raw, _ := json.Marshal(desc)
	if err := os.WriteFile(filepath.Join(repoDir, "unsynced.json"), raw, 0o644); err != nil {
		t.Fatalf("failed to write descriptor: %v", err)
	}

	idx, err := Load(repoDir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(idx.All()) != 0 {
		t.Errorf("expected no packages for an unsynced repo, got %v", idx.All())
	}
}
