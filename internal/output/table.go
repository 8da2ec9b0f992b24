// Package output provides terminal output utilities for anemo.
//
// This package includes:
//   - The §7 error/warning/info/success ANSI-colored channels
//   - Table rendering for installed packages, repo query matches, and
//     single-package info, plus their -p/--parse pipe-delimited forms
//   - Progress bars and spinners (install drives a progress bar over its
//     per-package install loop)
//
// Rendering uses ANSI color codes for terminal output; the package
// table's separator line is drawn with the box-drawing character "─".
// Progress indicators are thread-safe.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/cv2labs/anemo/internal/catalog"
	"github.com/cv2labs/anemo/internal/index"
)

// ANSI color codes for the §7 output channels.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// Error prints a red "error:" line to stderr, per §7.
func Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", colorize(colorRed, "error:"), fmt.Sprintf(format, args...))
}

// Warning prints a yellow "warning:" line to stderr, per §7.
func Warning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", colorize(colorYellow, "warning:"), fmt.Sprintf(format, args...))
}

// Info prints a green "info:" line to stdout, per §7.
func Info(format string, args ...any) {
	fmt.Fprintf(os.Stdout, "%s %s\n", colorize(colorGreen, "info:"), fmt.Sprintf(format, args...))
}

// Success prints a green "success:" line to stdout, per §7.
func Success(format string, args ...any) {
	fmt.Fprintf(os.Stdout, "%s %s\n", colorize(colorGreen, "success:"), fmt.Sprintf(format, args...))
}

// RenderPackageTable renders the `list` command's human-readable table
// of installed packages, a Status column of "ok" or "broken" marking
// broken packages.
func RenderPackageTable(packages []catalog.Package) string {
	if len(packages) == 0 {
		return "No packages installed.\n"
	}

	sorted := make([]catalog.Package, len(packages))
	copy(sorted, packages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %-13s %-8s %s\n", "Package", "Version", "Arch", "Status"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	for _, pkg := range sorted {
		status := colorize(colorGreen, "ok")
		if pkg.Broken {
			status = colorize(colorYellow, "broken")
		}
		sb.WriteString(fmt.Sprintf("%-24s %-13s %-8s %s\n",
			truncate(pkg.Name, 24), pkg.Version, pkg.Arch, status))
	}
	return sb.String()
}

// RenderPackageTableParsed renders `list -p`'s pipe-delimited form per
// SPEC_FULL.md §12.1: "name|version|arch|broken", broken as "1"/"0".
func RenderPackageTableParsed(packages []catalog.Package) string {
	var sb strings.Builder
	for _, pkg := range packages {
		broken := "0"
		if pkg.Broken {
			broken = "1"
		}
		sb.WriteString(fmt.Sprintf("%s|%s|%s|%s\n", pkg.Name, pkg.Version, pkg.Arch, broken))
	}
	return sb.String()
}

// RenderInfo renders the `info` command's human-readable detail block for
// a single installed package.
func RenderInfo(pkg catalog.Package) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%s %s\n", colorize(colorGray, "Package:"), pkg.Name))
	sb.WriteString(fmt.Sprintf("  %s %s\n", colorize(colorGray, "Version:"), pkg.Version))
	sb.WriteString(fmt.Sprintf("  %s %s\n", colorize(colorGray, "Arch:"), pkg.Arch))
	if pkg.Broken {
		sb.WriteString(fmt.Sprintf("  %s\n", colorize(colorYellow, "broken")))
	}
	return sb.String()
}

// RenderInfoParsed renders `info -p`'s pipe-delimited form per §12.1:
// "name|version|arch".
func RenderInfoParsed(pkg catalog.Package) string {
	return fmt.Sprintf("%s|%s|%s\n", pkg.Name, pkg.Version, pkg.Arch)
}

// QueryMatch is one `query` result: a repo candidate whose name matched
// the search pattern.
type QueryMatch struct {
	RepoName string
	Pkg      index.RepoPackage
}

// RenderQueryResults renders the `query` command's human-readable output,
// grouped by repository.
func RenderQueryResults(matches []QueryMatch) string {
	if len(matches) == 0 {
		return ""
	}

	var sb strings.Builder
	lastRepo := ""
	for _, m := range matches {
		if m.RepoName != lastRepo {
			sb.WriteString(fmt.Sprintf("%s %s\n", colorize(colorGray, "Repository:"), m.RepoName))
			lastRepo = m.RepoName
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s [%s]\n",
			colorize(colorGreen, "*"), m.Pkg.PkgName, colorize(colorGray, m.Pkg.PkgVer), m.Pkg.Arch))
	}
	return sb.String()
}

// RenderQueryResultsParsed renders `query -p`'s pipe-delimited form per
// §12.1: "repo|name|version|arch|filename".
func RenderQueryResultsParsed(matches []QueryMatch) string {
	var sb strings.Builder
	for _, m := range matches {
		sb.WriteString(fmt.Sprintf("%s|%s|%s|%s|%s\n", m.RepoName, m.Pkg.PkgName, m.Pkg.PkgVer, m.Pkg.Arch, m.Pkg.Filename))
	}
	return sb.String()
}

// formatSize renders a byte count with go-humanize (SI units, e.g.
// "1.0 kB"). No renderer in this package calls it.
func formatSize(bytes int64) string {
	return humanize.Bytes(uint64(bytes))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
