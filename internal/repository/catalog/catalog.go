package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/polaudit/internal/domain"
)

// Catalog resolves display names, links and on-disk paths of source documents
// stored under <root>/<subject>/<filename>.
type Catalog struct {
	root         string
	baseURL      string
	displayNames map[string]string
	logger       *zap.Logger
}

// New creates a catalog. baseURL is the public origin of this API, e.g.
// "http://localhost:3000".
func New(root, baseURL string, displayNames map[string]string, logger *zap.Logger) *Catalog {
	if displayNames == nil {
		displayNames = map[string]string{}
	}
	return &Catalog{
		root:         root,
		baseURL:      strings.TrimRight(baseURL, "/"),
		displayNames: displayNames,
		logger:       logger,
	}
}

// LoadDisplayNames reads a YAML mapping of filename -> display name.
func LoadDisplayNames(path string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read display names %s: %w", path, err)
	}
	var names map[string]string
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse display names %s: %w", path, err)
	}
	if names == nil {
		names = map[string]string{}
	}
	return names, nil
}

// DisplayName returns the configured name for filename, or the filename
// without its extension.
func (c *Catalog) DisplayName(filename string) string {
	if name, ok := c.displayNames[filename]; ok && name != "" {
		return name
	}
	if ext := filepath.Ext(filename); ext != "" && ext != filename {
		return strings.TrimSuffix(filename, ext)
	}
	return filename
}

// HasDisplayName reports whether filename has an explicit display name.
func (c *Catalog) HasDisplayName(filename string) bool {
	_, ok := c.displayNames[filename]
	return ok
}

// URL links to the document, or returns "" when the file is not on disk.
func (c *Catalog) URL(subject, filename string) string {
	p, err := c.Path(subject, filename)
	if err != nil {
		c.logger.Debug("document unavailable",
			zap.String("subject", subject),
			zap.String("filename", filename),
			zap.Error(err),
		)
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		c.logger.Debug("document missing",
			zap.String("subject", subject),
			zap.String("filename", filename),
		)
		return ""
	}
	return c.baseURL + "/api/doc/" + url.PathEscape(subject) + "/" + url.PathEscape(filename)
}

// Path returns the on-disk location of a document, rejecting names that would
// escape the subject directory.
func (c *Catalog) Path(subject, filename string) (string, error) {
	if !safeName(subject) || !safeName(filename) {
		return "", fmt.Errorf("%w: invalid document name", domain.ErrNotFound)
	}
	return filepath.Join(c.root, subject, filename), nil
}

// List returns the document filenames stored for subject. Hidden files are skipped.
func (c *Catalog) List(subject string) ([]string, error) {
	if !safeName(subject) {
		return nil, fmt.Errorf("%w: invalid subject", domain.ErrNotFound)
	}
	entries, err := os.ReadDir(filepath.Join(c.root, subject))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list documents for %s: %w", subject, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func safeName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && !strings.ContainsRune(s, 0)
}
