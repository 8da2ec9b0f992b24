package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cv2labs/anemo/internal/config"
)

func seedSyncedRepo(t *testing.T, bootstrap, name, packagesJSON string) {
	t.Helper()
	layout := config.Dir(bootstrap)
	dataDir := filepath.Join(layout.ReposDir, name)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("failed to create repo data dir: %v", err)
	}
	desc := `{"name":"` + name + `","url":"https://example.test/` + name + `","priority":50}`
	if err := os.WriteFile(filepath.Join(layout.ReposDir, name+".json"), []byte(desc), 0o644); err != nil {
		t.Fatalf("failed to write descriptor: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "repo.json"), []byte(packagesJSON), 0o644); err != nil {
		t.Fatalf("failed to write repo.json: %v", err)
	}
}

func TestRunQueryMatchesSubstring(t *testing.T) {
	bootstrap := withBootstrap(t)
	seedSyncedRepo(t, bootstrap, "main", `{"packages":[
		{"pkgname":"libfoo","pkgver":"1.0","arch":"any"},
		{"pkgname":"libbar","pkgver":"2.0","arch":"any"}
	]}`)

	flagParse = false
	if err := runQuery(queryCmd, []string{"foo"}); err != nil {
		t.Fatalf("runQuery() failed: %v", err)
	}
}

func TestRunQueryNoMatches(t *testing.T) {
	bootstrap := withBootstrap(t)
	seedSyncedRepo(t, bootstrap, "main", `{"packages":[{"pkgname":"libbar","pkgver":"2.0","arch":"any"}]}`)

	flagParse = false
	if err := runQuery(queryCmd, []string{"zzz-nothing-matches"}); err != nil {
		t.Fatalf("runQuery() with no matches should not error: %v", err)
	}
}
