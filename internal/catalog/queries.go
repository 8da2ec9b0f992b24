package catalog

import (
	"database/sql"
	"fmt"

	"github.com/cv2labs/anemo/internal/version"
)

// DB returns the underlying *sql.DB as an executor, for callers that need
// to run a query outside of a transaction.
func (c *Catalog) DB() executor { return c.db }

// IsInstalled reports whether a package by this name has a catalog row.
func (c *Catalog) IsInstalled(ex executor, name string) (bool, error) {
	var count int
	err := ex.QueryRow(`SELECT COUNT(1) FROM packages WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check install state of %s: %w", name, err)
	}
	return count > 0, nil
}

// GetVersion returns the installed version of name, or "", false if absent.
func (c *Catalog) GetVersion(ex executor, name string) (string, bool, error) {
	var v string
	err := ex.QueryRow(`SELECT version FROM packages WHERE name = ?`, name).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get version of %s: %w", name, err)
	}
	return v, true, nil
}

// AddPackage upserts the packages row for meta and replaces its
// dependencies and provides side tables. It must run inside a
// transaction; callers pass the *sql.Tx from Begin as ex.
func (c *Catalog) AddPackage(ex executor, meta Metadata, scriptPath string) error {
	var script sql.NullString
	if scriptPath != "" {
		script = sql.NullString{String: scriptPath, Valid: true}
	}

	if _, err := ex.Exec(
		`INSERT INTO packages (name, version, arch, install_script) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET version = excluded.version, arch = excluded.arch, install_script = excluded.install_script`,
		meta.Name, meta.Version, meta.Arch, script,
	); err != nil {
		return fmt.Errorf("failed to upsert package %s: %w", meta.Name, err)
	}

	if _, err := ex.Exec(`DELETE FROM dependencies WHERE package = ?`, meta.Name); err != nil {
		return fmt.Errorf("failed to clear dependencies for %s: %w", meta.Name, err)
	}
	for _, dep := range meta.Deps {
		if _, err := ex.Exec(`INSERT INTO dependencies (package, dependency) VALUES (?, ?)`, meta.Name, dep); err != nil {
			return fmt.Errorf("failed to insert dependency %s -> %s: %w", meta.Name, dep, err)
		}
	}

	if _, err := ex.Exec(`DELETE FROM provides WHERE package = ?`, meta.Name); err != nil {
		return fmt.Errorf("failed to clear provides for %s: %w", meta.Name, err)
	}
	for _, p := range meta.Provides {
		if _, err := ex.Exec(`INSERT INTO provides (package, provided) VALUES (?, ?)`, meta.Name, p); err != nil {
			return fmt.Errorf("failed to insert provides %s -> %s: %w", meta.Name, p, err)
		}
	}

	return nil
}

// LogFile appends a single installed file path for name.
func (c *Catalog) LogFile(ex executor, name, absPath string) error {
	if _, err := ex.Exec(`INSERT INTO files (package, filepath) VALUES (?, ?)`, name, absPath); err != nil {
		return fmt.Errorf("failed to log file %s for %s: %w", absPath, name, err)
	}
	return nil
}

// GetFiles returns every path logged for name.
func (c *Catalog) GetFiles(ex executor, name string) ([]string, error) {
	rows, err := ex.Query(`SELECT filepath FROM files WHERE package = ? ORDER BY filepath`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get files for %s: %w", name, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan file row for %s: %w", name, err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files for %s: %w", name, err)
	}
	return paths, nil
}

// GetDependencies returns the raw dependency constraint strings recorded
// for name at install time.
func (c *Catalog) GetDependencies(ex executor, name string) ([]string, error) {
	rows, err := ex.Query(`SELECT dependency FROM dependencies WHERE package = ? ORDER BY dependency`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get dependencies for %s: %w", name, err)
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan dependency row for %s: %w", name, err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies for %s: %w", name, err)
	}
	return deps, nil
}

// GetReverseDependencies returns every installed package that names name
// as one of its dependencies.
func (c *Catalog) GetReverseDependencies(ex executor, name string) ([]string, error) {
	rows, err := ex.Query(
		`SELECT DISTINCT package FROM dependencies WHERE dependency = ? ORDER BY package`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get reverse dependencies for %s: %w", name, err)
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan reverse dependency row for %s: %w", name, err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reverse dependencies for %s: %w", name, err)
	}
	return deps, nil
}

// GetInstallScript returns the stored script path for name, or "" if none.
func (c *Catalog) GetInstallScript(ex executor, name string) (string, error) {
	var script sql.NullString
	err := ex.QueryRow(`SELECT install_script FROM packages WHERE name = ?`, name).Scan(&script)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get install script for %s: %w", name, err)
	}
	return script.String, nil
}

// IsProvided reports whether any installed package provides name, i.e.
// any provides row starts with name (see §4.2).
func (c *Catalog) IsProvided(ex executor, name string) (bool, error) {
	rows, err := ex.Query(`SELECT provided FROM provides WHERE provided LIKE ?`, name+"%")
	if err != nil {
		return false, fmt.Errorf("failed to check provides for %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var provided string
		if err := rows.Scan(&provided); err != nil {
			return false, fmt.Errorf("failed to scan provides row for %s: %w", name, err)
		}
		if version.ParseConstraint(provided).Name == name {
			return true, nil
		}
	}
	return false, rows.Err()
}

// ProvidesSatisfies reports whether any installed package's provides entry
// matches c's name and satisfies c's operator/version.
func (c *Catalog) ProvidesSatisfies(ex executor, cnst version.Constraint) (bool, error) {
	rows, err := ex.Query(`SELECT provided FROM provides WHERE provided LIKE ?`, cnst.Name+"%")
	if err != nil {
		return false, fmt.Errorf("failed to scan provides for %s: %w", cnst.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var provided string
		if err := rows.Scan(&provided); err != nil {
			return false, fmt.Errorf("failed to scan provides row for %s: %w", cnst.Name, err)
		}
		parsed := version.ParseConstraint(provided)
		if parsed.Name != cnst.Name {
			continue
		}
		if cnst.Op == "" || version.EvalConstraint(parsed.Version, cnst) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// MarkBroken records name as broken.
func (c *Catalog) MarkBroken(ex executor, name string) error {
	if _, err := ex.Exec(`INSERT OR REPLACE INTO broken_packages (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("failed to mark %s broken: %w", name, err)
	}
	return nil
}

// RemoveBroken clears name's broken marker, if any.
func (c *Catalog) RemoveBroken(ex executor, name string) error {
	if _, err := ex.Exec(`DELETE FROM broken_packages WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to clear broken marker for %s: %w", name, err)
	}
	return nil
}

// GetBrokenPackages lists every currently-broken package name.
func (c *Catalog) GetBrokenPackages(ex executor) ([]string, error) {
	rows, err := ex.Query(`SELECT name FROM broken_packages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list broken packages: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan broken package row: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// RemoveFiles deletes every logged file row for name.
func (c *Catalog) RemoveFiles(ex executor, name string) error {
	if _, err := ex.Exec(`DELETE FROM files WHERE package = ?`, name); err != nil {
		return fmt.Errorf("failed to remove file rows for %s: %w", name, err)
	}
	return nil
}

// DeletePackage removes the packages row for name; cascades drop its
// dependencies, provides, files, and broken_packages rows.
func (c *Catalog) DeletePackage(ex executor, name string) error {
	result, err := ex.Exec(`DELETE FROM packages WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete package %s: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected deleting %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("package %s not found", name)
	}
	return nil
}

// ListPackages returns every installed package joined with its broken
// state, ordered by name.
func (c *Catalog) ListPackages(ex executor) ([]Package, error) {
	rows, err := ex.Query(`
		SELECT p.name, p.version, p.arch, b.name IS NOT NULL AS broken
		FROM packages p
		LEFT JOIN broken_packages b ON b.name = p.name
		ORDER BY p.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var pkgs []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.Name, &p.Version, &p.Arch, &p.Broken); err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}

// GetPackage returns the single catalog row for name.
func (c *Catalog) GetPackage(ex executor, name string) (Package, error) {
	var p Package
	var broken bool
	err := ex.QueryRow(`
		SELECT p.name, p.version, p.arch, b.name IS NOT NULL AS broken
		FROM packages p
		LEFT JOIN broken_packages b ON b.name = p.name
		WHERE p.name = ?
	`, name).Scan(&p.Name, &p.Version, &p.Arch, &broken)
	if err == sql.ErrNoRows {
		return Package{}, fmt.Errorf("package %s not found", name)
	}
	if err != nil {
		return Package{}, fmt.Errorf("failed to get package %s: %w", name, err)
	}
	p.Broken = broken
	return p, nil
}
