package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kailas-cloud/polaudit/internal/domain/search/result"
)

// MinConfidence is the lowest confidence a result may have to be returned.
const MinConfidence = 0.05

// aggregate merges results sharing a filename, drops low-confidence results and
// orders the rest by descending confidence. Equal confidences keep merge order.
func aggregate(results []result.Result) []result.Result {
	merged := make([]result.Result, 0, len(results))
	byFilename := make(map[string]int, len(results))

	for i := range results {
		if idx, ok := byFilename[results[i].Filename]; ok {
			merged[idx].Merge(&results[i])
			continue
		}
		byFilename[results[i].Filename] = len(merged)
		merged = append(merged, results[i])
	}

	out := merged[:0]
	for _, r := range merged {
		if r.Confidence >= MinConfidence {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

var wordStartRe = regexp.MustCompile(`^\w| \w`)

// normalizeCategories splits hierarchical labels such as
// "/law, govt and politics/government" into capitalized path segments.
func normalizeCategories(labels []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		for _, part := range strings.Split(strings.TrimPrefix(label, "/"), "/") {
			if part == "" {
				continue
			}
			part = wordStartRe.ReplaceAllStringFunc(part, strings.ToUpper)
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}
