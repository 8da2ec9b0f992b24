// Package index aggregates per-repo synced package descriptors into a
// name→candidates map, including virtual providers, per §4.3.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cv2labs/anemo/internal/version"
)

// RepoPackage is one entry of a synced repo index.
type RepoPackage struct {
	PkgName  string               `json:"pkgname"`
	PkgVer   string               `json:"pkgver"`
	Arch     string               `json:"arch"`
	Filename string               `json:"filename"`
	RepoURL  string               `json:"-"`
	RepoName string               `json:"-"`
	Priority int                  `json:"-"`
	Depends  []string             `json:"depends"`
	Provides []string             `json:"provides"`
}

// descriptor mirrors <repoName>.json: {name, url, priority}.
type descriptor struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Priority int    `json:"priority"`
}

// repoFile mirrors a synced <repoBase>/<name>/repo.json.
type repoFile struct {
	Packages []RepoPackage `json:"packages"`
}

// Index is the in-memory name→candidates map built from every configured
// repo's synced descriptor.
type Index struct {
	byName map[string][]RepoPackage
	all    []RepoPackage
	cache  *lru.Cache[string, repoFile]
}

// Load reads every <repoDir>/<name>.json descriptor and its sibling
// <repoDir>/<name>/repo.json, constructing the aggregated index. A repo
// descriptor whose repo.json is missing is skipped silently, per §4.3.
func Load(repoDir string) (*Index, error) {
	cache, err := lru.New[string, repoFile](32)
	if err != nil {
		return nil, fmt.Errorf("failed to create repo descriptor cache: %w", err)
	}
	idx := &Index{byName: make(map[string][]RepoPackage), cache: cache}

	entries, err := os.ReadDir(repoDir)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("failed to read repo descriptor dir %s: %w", repoDir, err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		descPath := filepath.Join(repoDir, e.Name())
		desc, err := readDescriptor(descPath)
		if err != nil {
			return nil, err
		}
		if err := idx.loadRepo(repoDir, desc); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func readDescriptor(path string) (descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return descriptor{}, fmt.Errorf("failed to read repo descriptor %s: %w", path, err)
	}
	var d descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return descriptor{}, fmt.Errorf("failed to parse repo descriptor %s: %w", path, err)
	}
	return d, nil
}

func (idx *Index) loadRepo(repoDir string, desc descriptor) error {
	repoJSONPath := filepath.Join(repoDir, desc.Name, "repo.json")

	var rf repoFile
	if cached, ok := idx.cache.Get(repoJSONPath); ok {
		rf = cached
	} else {
		raw, err := os.ReadFile(repoJSONPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("failed to read synced index %s: %w", repoJSONPath, err)
		}
		if err := json.Unmarshal(raw, &rf); err != nil {
			return fmt.Errorf("failed to parse synced index %s: %w", repoJSONPath, err)
		}
		idx.cache.Add(repoJSONPath, rf)
	}

	for _, pkg := range rf.Packages {
		pkg.RepoURL = desc.URL
		pkg.RepoName = desc.Name
		pkg.Priority = desc.Priority

		idx.all = append(idx.all, pkg)
		idx.byName[pkg.PkgName] = append(idx.byName[pkg.PkgName], pkg)
		for _, provided := range pkg.Provides {
			name := version.ParseConstraint(provided).Name
			if name == pkg.PkgName {
				continue
			}
			idx.byName[name] = append(idx.byName[name], pkg)
		}
	}
	return nil
}

// Lookup returns every candidate registered under name, real packages and
// virtual providers alike.
func (idx *Index) Lookup(name string) []RepoPackage {
	return idx.byName[name]
}

// All returns every real package entry across every synced repo, in the
// order they were loaded, for commands that scan the whole catalog of
// available packages (e.g. query) rather than resolving a single name.
func (idx *Index) All() []RepoPackage {
	return idx.all
}
