package output

import (
	"strings"
	"testing"

	"github.com/cv2labs/anemo/internal/catalog"
	"github.com/cv2labs/anemo/internal/index"
)

func TestRenderPackageTable(t *testing.T) {
	tests := []struct {
		name     string
		packages []catalog.Package
		contains []string
	}{
		{
			name:     "empty packages",
			packages: []catalog.Package{},
			contains: []string{"No packages installed"},
		},
		{
			name: "single package",
			packages: []catalog.Package{
				{Name: "libfoo", Version: "1.2.3", Arch: "x86_64"},
			},
			contains: []string{"libfoo", "1.2.3", "x86_64", "ok"},
		},
		{
			name: "broken package marked",
			packages: []catalog.Package{
				{Name: "libbar", Version: "2.0.0", Arch: "any", Broken: true},
			},
			contains: []string{"libbar", "broken"},
		},
		{
			name: "multiple packages sorted by name",
			packages: []catalog.Package{
				{Name: "zlib", Version: "1.0", Arch: "any"},
				{Name: "alib", Version: "2.0", Arch: "any"},
			},
			contains: []string{"alib", "zlib"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderPackageTable(tt.packages)
			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderPackageTable() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}

	t.Run("sorted order", func(t *testing.T) {
		result := RenderPackageTable([]catalog.Package{
			{Name: "zlib", Version: "1.0", Arch: "any"},
			{Name: "alib", Version: "2.0", Arch: "any"},
		})
		if strings.Index(result, "alib") > strings.Index(result, "zlib") {
			t.Errorf("expected alib to sort before zlib, got:\n%s", result)
		}
	})
}

func TestRenderPackageTableParsed(t *testing.T) {
	packages := []catalog.Package{
		{Name: "libfoo", Version: "1.2.3", Arch: "x86_64"},
		{Name: "libbar", Version: "2.0.0", Arch: "any", Broken: true},
	}

	result := RenderPackageTableParsed(packages)
	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), result)
	}
	if lines[0] != "libfoo|1.2.3|x86_64|0" {
		t.Errorf("unexpected line 0: %q", lines[0])
	}
	if lines[1] != "libbar|2.0.0|any|1" {
		t.Errorf("unexpected line 1: %q", lines[1])
	}
}

func TestRenderInfo(t *testing.T) {
	pkg := catalog.Package{Name: "libfoo", Version: "1.2.3", Arch: "x86_64"}
	result := RenderInfo(pkg)
	for _, expected := range []string{"libfoo", "1.2.3", "x86_64"} {
		if !strings.Contains(result, expected) {
			t.Errorf("RenderInfo() missing %q, got:\n%s", expected, result)
		}
	}
}

func TestRenderInfoParsed(t *testing.T) {
	pkg := catalog.Package{Name: "libfoo", Version: "1.2.3", Arch: "x86_64"}
	want := "libfoo|1.2.3|x86_64\n"
	if got := RenderInfoParsed(pkg); got != want {
		t.Errorf("RenderInfoParsed() = %q, want %q", got, want)
	}
}

func TestRenderQueryResults(t *testing.T) {
	matches := []QueryMatch{
		{RepoName: "main", Pkg: index.RepoPackage{PkgName: "libfoo", PkgVer: "1.2.3", Arch: "x86_64"}},
		{RepoName: "main", Pkg: index.RepoPackage{PkgName: "libfoobar", PkgVer: "0.1", Arch: "any"}},
		{RepoName: "extra", Pkg: index.RepoPackage{PkgName: "libfoobaz", PkgVer: "3.0", Arch: "any"}},
	}

	result := RenderQueryResults(matches)
	for _, expected := range []string{"main", "extra", "libfoo", "libfoobar", "libfoobaz"} {
		if !strings.Contains(result, expected) {
			t.Errorf("RenderQueryResults() missing %q, got:\n%s", expected, result)
		}
	}
}

func TestRenderQueryResultsEmpty(t *testing.T) {
	if got := RenderQueryResults(nil); got != "" {
		t.Errorf("RenderQueryResults(nil) = %q, want empty", got)
	}
}

func TestRenderQueryResultsParsed(t *testing.T) {
	matches := []QueryMatch{
		{RepoName: "main", Pkg: index.RepoPackage{PkgName: "libfoo", PkgVer: "1.2.3", Arch: "x86_64", Filename: "libfoo-1.2.3.apkg"}},
	}

	want := "main|libfoo|1.2.3|x86_64|libfoo-1.2.3.apkg\n"
	if got := RenderQueryResultsParsed(matches); got != want {
		t.Errorf("RenderQueryResultsParsed() = %q, want %q", got, want)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"bytes", 512, "512 B"},
		{"kilobytes", 1024, "1.0 kB"},
		{"megabytes", 1048576, "1.0 MB"},
		{"gigabytes", 1073741824, "1.1 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatSize(tt.bytes)
			if got != tt.want {
				t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"equal to max", "hello", 5, "hello"},
		{"longer than max", "hello world", 8, "hello..."},
		{"very short max", "hello", 2, "he"},
		{"max of 3", "hello", 3, "hel"},
		{"max of 4", "hello world", 4, "h..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestColorizeNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if IsColorEnabled() {
		t.Error("IsColorEnabled() should be false when NO_COLOR is set")
	}
	if got := colorize(colorRed, "x"); got != "x" {
		t.Errorf("colorize() with NO_COLOR set = %q, want plain text", got)
	}
}
