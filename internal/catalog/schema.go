package catalog

const schema = `
CREATE TABLE IF NOT EXISTS packages (
    name TEXT PRIMARY KEY,
    version TEXT NOT NULL,
    arch TEXT NOT NULL,
    install_script TEXT
);

CREATE TABLE IF NOT EXISTS dependencies (
    package TEXT NOT NULL,
    dependency TEXT NOT NULL,
    FOREIGN KEY (package) REFERENCES packages(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS provides (
    package TEXT NOT NULL,
    provided TEXT NOT NULL,
    FOREIGN KEY (package) REFERENCES packages(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS files (
    package TEXT NOT NULL,
    filepath TEXT NOT NULL,
    FOREIGN KEY (package) REFERENCES packages(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS broken_packages (
    name TEXT PRIMARY KEY,
    FOREIGN KEY (name) REFERENCES packages(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_dependencies_package ON dependencies(package);
CREATE INDEX IF NOT EXISTS idx_dependencies_dependency ON dependencies(dependency);
CREATE INDEX IF NOT EXISTS idx_provides_package ON provides(package);
CREATE INDEX IF NOT EXISTS idx_provides_provided ON provides(provided);
CREATE INDEX IF NOT EXISTS idx_files_package ON files(package);
`
