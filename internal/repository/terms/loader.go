package terms

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/polaudit/internal/domain/term"
)

// Paths locates the three static tables produced by the offline term mapper.
type Paths struct {
	IgnoredTerms     string // newline-delimited terms
	ArticleNames     string // "title|term|link" per line
	ArticleSummaries string // JSON object: title -> summary
}

// Load reads the tables once and builds an immutable resolver.
func Load(p Paths) (*term.Resolver, error) {
	ignored, err := readIgnored(p.IgnoredTerms)
	if err != nil {
		return nil, err
	}
	articles, err := readArticleNames(p.ArticleNames)
	if err != nil {
		return nil, err
	}
	summaries, err := readSummaries(p.ArticleSummaries)
	if err != nil {
		return nil, err
	}
	return term.NewResolver(ignored, articles, summaries), nil
}

func readIgnored(path string) ([]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read ignored terms %s: %w", path, err)
	}

	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			out = append(out, t)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ignored terms %s: %w", path, err)
	}
	return out, nil
}

// readArticleNames parses "title|term|link" lines into term -> article.
// Blank and malformed lines are skipped; later lines win for repeated terms.
func readArticleNames(path string) (map[string]term.Article, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read article names %s: %w", path, err)
	}

	out := make(map[string]term.Article)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 3 || parts[1] == "" {
			continue
		}
		out[parts[1]] = term.Article{Title: parts[0], Link: parts[2]}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan article names %s: %w", path, err)
	}
	return out, nil
}

func readSummaries(path string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read article summaries %s: %w", path, err)
	}

	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse article summaries %s: %w", path, err)
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}
