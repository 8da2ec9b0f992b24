package resolver

import (
	"testing"

	"github.com/cv2labs/anemo/internal/catalog"
	"github.com/cv2labs/anemo/internal/index"
)

func loadIndex(t *testing.T, repoDir string) (*index.Index, error) {
	t.Helper()
	return index.Load(repoDir)
}

func openCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Open(":memory:")
	if err != nil {
		t.Fatalf("catalog.Open() failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
