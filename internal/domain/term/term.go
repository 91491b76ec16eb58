// Package term resolves entities and concepts extracted from documents to
// curated knowledge-base articles.
package term

// Article is the canonical knowledge-base entry a term maps to.
type Article struct {
	Title string
	Link  string
}

// ExploreTerm is a term enriched with its knowledge-base article, if any.
type ExploreTerm struct {
	OriginalTerm   string `json:"originalTerm"`
	ArticleTitle   string `json:"articleTitle"`
	ArticleLink    string `json:"articleLink"`
	ArticleSummary string `json:"articleSummary"`
}

// Resolver holds the immutable ignore list, term -> article and
// title -> summary tables. Safe for concurrent use; never mutated after New.
type Resolver struct {
	ignored   map[string]struct{}
	articles  map[string]Article
	summaries map[string]string
}

// NewResolver creates a resolver over the given tables. The maps are copied.
func NewResolver(ignored []string, articles map[string]Article, summaries map[string]string) *Resolver {
	r := &Resolver{
		ignored:   make(map[string]struct{}, len(ignored)),
		articles:  make(map[string]Article, len(articles)),
		summaries: make(map[string]string, len(summaries)),
	}
	for _, t := range ignored {
		r.ignored[t] = struct{}{}
	}
	for k, v := range articles {
		r.articles[k] = v
	}
	for k, v := range summaries {
		r.summaries[k] = v
	}
	return r
}

// ShouldIgnore reports whether term is on the ignore list.
func (r *Resolver) ShouldIgnore(term string) bool {
	_, ok := r.ignored[term]
	return ok
}

// Article returns the article a term maps to.
func (r *Resolver) Article(term string) (Article, bool) {
	a, ok := r.articles[term]
	return a, ok
}

// Summary returns the summary stored for an article title.
func (r *Resolver) Summary(title string) (string, bool) {
	s, ok := r.summaries[title]
	return s, ok
}

// Known reports whether term is either ignored or mapped.
func (r *Resolver) Known(term string) bool {
	if r.ShouldIgnore(term) {
		return true
	}
	_, ok := r.articles[term]
	return ok
}

// Explore resolves a single term. Unmapped terms yield a placeholder carrying
// only the original term.
func (r *Resolver) Explore(term string) ExploreTerm {
	a, ok := r.articles[term]
	if !ok {
		return ExploreTerm{OriginalTerm: term}
	}
	return ExploreTerm{
		OriginalTerm:   term,
		ArticleTitle:   a.Title,
		ArticleLink:    a.Link,
		ArticleSummary: r.summaries[a.Title],
	}
}

// ResolveAll drops empty and ignored terms, resolves the rest and keeps the
// first term seen for each article title.
//
// Unresolved terms all share the empty title, so at most one placeholder
// survives per call.
func (r *Resolver) ResolveAll(terms []string) []ExploreTerm {
	out := make([]ExploreTerm, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if t == "" || r.ShouldIgnore(t) {
			continue
		}
		et := r.Explore(t)
		if _, dup := seen[et.ArticleTitle]; dup {
			continue
		}
		seen[et.ArticleTitle] = struct{}{}
		out = append(out, et)
	}
	return out
}

// Stats reports table sizes.
func (r *Resolver) Stats() (ignored, articles, summaries int) {
	return len(r.ignored), len(r.articles), len(r.summaries)
}
