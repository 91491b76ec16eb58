package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/polaudit/internal/domain"
)

func newTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "biden"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "biden", "Joe Biden on the Issues.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "biden", "plan.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "biden", "nested"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "biden", ".gitkeep"), nil, 0o600))

	names := map[string]string{"plan.pdf": "The Biden Plan"}
	return New(root, "http://localhost:3000/", names, zap.NewNop()), root
}

func TestDisplayName(t *testing.T) {
	c, _ := newTestCatalog(t)

	assert.Equal(t, "The Biden Plan", c.DisplayName("plan.pdf"))
	assert.Equal(t, "Joe Biden on the Issues", c.DisplayName("Joe Biden on the Issues.pdf"))
	assert.Equal(t, "archive.tar", c.DisplayName("archive.tar.gz"))
	assert.Equal(t, "README", c.DisplayName("README"))
	assert.Equal(t, ".pdf", c.DisplayName(".pdf"))
	assert.True(t, c.HasDisplayName("plan.pdf"))
	assert.False(t, c.HasDisplayName("other.pdf"))
}

func TestURL_ExistingFile(t *testing.T) {
	c, _ := newTestCatalog(t)

	assert.Equal(t,
		"http://localhost:3000/api/doc/biden/Joe%20Biden%20on%20the%20Issues.pdf",
		c.URL("biden", "Joe Biden on the Issues.pdf"))
}

func TestURL_MissingFileIsEmpty(t *testing.T) {
	c, _ := newTestCatalog(t)

	assert.Empty(t, c.URL("biden", "absent.pdf"))
	assert.Empty(t, c.URL("trump", "plan.pdf"))
	assert.Empty(t, c.URL("biden", ""))
}

func TestPath_RejectsTraversal(t *testing.T) {
	c, root := newTestCatalog(t)

	for _, tc := range []struct{ subject, filename string }{
		{"biden", "../secret"},
		{"..", "plan.pdf"},
		{"biden", "a/b.pdf"},
		{"biden", `a\b.pdf`},
	} {
		_, err := c.Path(tc.subject, tc.filename)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "%s/%s: %v", tc.subject, tc.filename, err)
	}

	p, err := c.Path("biden", "plan.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "biden", "plan.pdf"), p)
}

func TestList(t *testing.T) {
	c, _ := newTestCatalog(t)

	files, err := c.List("biden")
	require.NoError(t, err)
	assert.Equal(t, []string{"Joe Biden on the Issues.pdf", "plan.pdf"}, files)

	files, err = c.List("trump")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLoadDisplayNames(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "display-names.yaml")
	content := "\"Biden Congress 3.pdf\": \"Legislation Sponsored or Co-sponsored by Joe Biden (3)\"\n" +
		"plan.pdf: The Biden Plan\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	names, err := LoadDisplayNames(p)
	require.NoError(t, err)
	assert.Equal(t, "Legislation Sponsored or Co-sponsored by Joe Biden (3)", names["Biden Congress 3.pdf"])
	assert.Equal(t, "The Biden Plan", names["plan.pdf"])
}

func TestLoadDisplayNames_Missing(t *testing.T) {
	_, err := LoadDisplayNames(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
