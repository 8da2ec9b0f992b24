// Package resolver implements the dependency DFS of §4.4: given raw
// requirement strings, it produces an install plan ordered so that every
// dependency of an entry precedes it.
package resolver

import (
	"fmt"
	"sort"

	"github.com/cv2labs/anemo/internal/catalog"
	"github.com/cv2labs/anemo/internal/errs"
	"github.com/cv2labs/anemo/internal/index"
	"github.com/cv2labs/anemo/internal/version"
)

// Plan is an ordered install plan together with any non-fatal diagnostics
// collected while resolving it (cycle warnings, see §9, and "already
// satisfied" when nothing is left to install).
type Plan struct {
	Packages    []index.RepoPackage
	Diagnostics []string
}

type resolver struct {
	cat       *catalog.Catalog
	idx       *index.Index
	visited   map[string]bool
	inStack   map[string]bool
	plan      []index.RepoPackage
	planNames map[string]bool
	diags     []string
}

// Resolve runs the DFS over requirements and returns the ordered plan.
func Resolve(cat *catalog.Catalog, idx *index.Index, requirements []string) (Plan, error) {
	r := &resolver{
		cat:       cat,
		idx:       idx,
		visited:   make(map[string]bool),
		inStack:   make(map[string]bool),
		planNames: make(map[string]bool),
	}

	for _, req := range requirements {
		if err := r.resolve(req); err != nil {
			return Plan{}, err
		}
	}

	stripped, err := r.stripAlreadyInstalled()
	if err != nil {
		return Plan{}, err
	}
	if len(stripped) == 0 {
		return Plan{Diagnostics: append(r.diags, "already satisfied")}, nil
	}
	return Plan{Packages: stripped, Diagnostics: r.diags}, nil
}

func (r *resolver) resolve(req string) error {
	c := version.ParseConstraint(req)

	if r.visited[c.Name] {
		return nil
	}

	if ver, ok, err := r.cat.GetVersion(r.cat.DB(), c.Name); err != nil {
		return err
	} else if ok && (c.Op == "" || version.EvalConstraint(ver, c)) {
		r.visited[c.Name] = true
		return nil
	}

	candidates := r.idx.Lookup(c.Name)
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %s", errs.ErrNotFoundInRepo, c.Name)
	}

	var filtered []index.RepoPackage
	for _, cand := range candidates {
		if c.Op == "" || version.EvalConstraint(cand.PkgVer, c) {
			filtered = append(filtered, cand)
		}
	}
	if len(filtered) == 0 {
		return fmt.Errorf("%s: no candidate satisfies %s", c.Name, req)
	}

	hasReal := false
	for _, cand := range filtered {
		if cand.PkgName == c.Name {
			hasReal = true
			break
		}
	}
	if hasReal {
		var real []index.RepoPackage
		for _, cand := range filtered {
			if cand.PkgName == c.Name {
				real = append(real, cand)
			}
		}
		filtered = real
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Priority != filtered[j].Priority {
			return filtered[i].Priority > filtered[j].Priority
		}
		return version.Compare(filtered[i].PkgVer, filtered[j].PkgVer) > 0
	})
	best := filtered[0]

	if r.inStack[c.Name] {
		r.diags = append(r.diags, fmt.Sprintf("warning: dependency cycle tolerated at %s", c.Name))
		r.visited[c.Name] = true
		return nil
	}

	r.inStack[c.Name] = true
	for _, dep := range best.Depends {
		depConstraint := version.ParseConstraint(dep)
		if version.IsSONAME(depConstraint.Name) || depConstraint.Name == c.Name {
			continue
		}
		if ver, ok, err := r.cat.GetVersion(r.cat.DB(), depConstraint.Name); err != nil {
			return err
		} else if ok && (depConstraint.Op == "" || version.EvalConstraint(ver, depConstraint)) {
			r.visited[depConstraint.Name] = true
			continue
		}
		if err := r.resolve(dep); err != nil {
			return err
		}
	}
	delete(r.inStack, c.Name)
	r.visited[c.Name] = true

	if !r.planNames[best.PkgName] {
		r.plan = append(r.plan, best)
		r.planNames[best.PkgName] = true
	}
	return nil
}

// stripAlreadyInstalled removes plan entries whose (name, version) already
// equals the catalog's installed version, per §4.4's post-DFS step.
func (r *resolver) stripAlreadyInstalled() ([]index.RepoPackage, error) {
	var out []index.RepoPackage
	for _, pkg := range r.plan {
		ver, ok, err := r.cat.GetVersion(r.cat.DB(), pkg.PkgName)
		if err != nil {
			return nil, err
		}
		if ok && version.Compare(ver, pkg.PkgVer) == 0 {
			continue
		}
		out = append(out, pkg)
	}
	return out, nil
}
