// Package config resolves the on-disk layout of §6.2 under an optional
// bootstrap root, and parses the optional anemo.conf settings file.
package config

import "path/filepath"

// Product is the persisted directory name used under var/lib.
const Product = "anemo"

// Layout is every persisted path under a single bootstrap root.
type Layout struct {
	Root string // bootstrap root, "" for the real filesystem root

	LibDir     string
	DBPath     string
	ReposDir   string
	ScriptsDir string
	ConfigPath string
}

// Dir resolves every path of §6.2 under bootstrap, or under "/" when
// bootstrap is empty. filepath.Join cleans the result regardless of
// whether bootstrap ends in "/", which is the fix for the §9 Open
// Question on ad hoc path joining.
func Dir(bootstrap string) Layout {
	root := bootstrap
	if root == "" {
		root = "/"
	}
	lib := filepath.Join(root, "var", "lib", Product)
	return Layout{
		Root:       bootstrap,
		LibDir:     lib,
		DBPath:     filepath.Join(lib, Product+".db"),
		ReposDir:   filepath.Join(lib, "repos"),
		ScriptsDir: filepath.Join(lib, "scripts"),
		ConfigPath: filepath.Join(lib, Product+".conf"),
	}
}

// InstallRoot is the filesystem root that package payloads are copied
// into: the bootstrap directory itself, or "/" when none was given.
func (l Layout) InstallRoot() string {
	if l.Root == "" {
		return "/"
	}
	return l.Root
}
