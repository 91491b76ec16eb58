package query

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/polaudit/internal/domain"
	"github.com/kailas-cloud/polaudit/internal/domain/excerpt"
	"github.com/kailas-cloud/polaudit/internal/domain/hit"
	"github.com/kailas-cloud/polaudit/internal/domain/search/request"
	"github.com/kailas-cloud/polaudit/internal/domain/search/result"
	"github.com/kailas-cloud/polaudit/internal/domain/term"
)

// --- Mocks ---

type mockSearch struct {
	resp        hit.Response
	err         error
	called      bool
	collection  string
	query       string
	hasDeadline bool
}

func (m *mockSearch) Search(ctx context.Context, collectionID, q string) (hit.Response, error) {
	m.called = true
	m.collection = collectionID
	m.query = q
	_, m.hasDeadline = ctx.Deadline()
	return m.resp, m.err
}

type mockCatalog struct {
	names map[string]string
	files map[string]bool
}

func (m *mockCatalog) DisplayName(filename string) string {
	if n, ok := m.names[filename]; ok {
		return n
	}
	return filename
}

func (m *mockCatalog) URL(subject, filename string) string {
	if m.files[filename] {
		return "http://localhost:3000/api/doc/" + subject + "/" + filename
	}
	return ""
}

func newTestService(search *mockSearch) *Service {
	subjects := domain.NewSubjects(map[string]string{"biden": "col-biden", "trump": "col-trump"})
	resolver := term.NewResolver(
		[]string{"thing"},
		map[string]term.Article{"Biden": {Title: "Joe Biden", Link: "https://en.wikipedia.org/wiki/Joe_Biden"}},
		map[string]string{"Joe Biden": "46th president"},
	)
	catalog := &mockCatalog{
		names: map[string]string{"plan.pdf": "The Biden Plan"},
		files: map[string]bool{"plan.pdf": true},
	}
	return New(search, subjects, resolver, excerpt.New(), catalog)
}

func mustRequest(t *testing.T, subject, q string) *request.Request {
	t.Helper()
	r, err := request.New(subject, q)
	require.NoError(t, err)
	return &r
}

// --- Tests ---

func TestQuery_UnknownSubjectRejectedBeforeSearch(t *testing.T) {
	search := &mockSearch{}
	svc := newTestService(search)

	_, err := svc.Query(context.Background(), mustRequest(t, "obama", "healthcare"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownSubject)
	assert.False(t, search.called, "search must not be called for unknown subject")
}

func TestQuery_SearchErrorPropagated(t *testing.T) {
	search := &mockSearch{err: domain.NewServiceError(503, "unavailable")}
	svc := newTestService(search)

	_, err := svc.Query(context.Background(), mustRequest(t, "biden", "healthcare"))
	require.Error(t, err)
	var se *domain.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.Code)
}

func TestQuery_DuplicateFilenamesMerged(t *testing.T) {
	search := &mockSearch{resp: hit.Response{Hits: []hit.Hit{
		{ID: "d1", Filename: "plan.pdf", Confidence: 0.3, Score: 2, Text: "Biden plan one", Categories: []string{"/law/government"}},
		{ID: "d2", Filename: "plan.pdf", Confidence: 0.7, Score: 1, Text: "Biden plan two", Categories: []string{"/economy"}},
	}}}
	svc := newTestService(search)

	results, err := svc.Query(context.Background(), mustRequest(t, "BIDEN", "Biden"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 0.7, r.Confidence)
	assert.Equal(t, 2.0, r.Score)
	assert.Equal(t, "d1", r.DocumentID, "first-seen document id is kept")
	assert.Equal(t, "Biden plan one", r.Text)
	assert.Equal(t, []string{"Law", "Government", "Economy"}, r.Categories)
	assert.Equal(t, []string{"Biden plan one", "Biden plan two"}, r.Excerpts)
	assert.Equal(t, "col-biden", search.collection)
	assert.Equal(t, "Biden", search.query)
}

func TestQuery_FormatsHit(t *testing.T) {
	search := &mockSearch{resp: hit.Response{
		Hits: []hit.Hit{{
			ID:         "d1",
			Filename:   "plan.pdf",
			Text:       "Joe Biden's plan for clean energy.",
			Confidence: 0.9,
			Score:      12,
			Entities:   []string{"Biden", "thing", ""},
			Concepts:   []string{"clean energy"},
		}},
		Passages: []hit.Passage{{DocumentID: "d1", Text: "clean energy", Score: 3}},
	}}
	svc := newTestService(search)

	results, err := svc.Query(context.Background(), mustRequest(t, "biden", "Biden"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "The Biden Plan", r.DisplayName)
	assert.Equal(t, "http://localhost:3000/api/doc/biden/plan.pdf", r.DocumentURL)
	require.Len(t, r.Terms, 2)
	assert.Equal(t, term.ExploreTerm{
		OriginalTerm:   "Biden",
		ArticleTitle:   "Joe Biden",
		ArticleLink:    "https://en.wikipedia.org/wiki/Joe_Biden",
		ArticleSummary: "46th president",
	}, r.Terms[0])
	assert.Equal(t, term.ExploreTerm{OriginalTerm: "clean energy"}, r.Terms[1])
	// extracted window + extended passage, both the whole short document
	assert.Equal(t, []string{r.Text, r.Text}, r.Excerpts)
	assert.Empty(t, r.Categories)
}

func TestQuery_MissingFileYieldsEmptyURL(t *testing.T) {
	search := &mockSearch{resp: hit.Response{Hits: []hit.Hit{
		{ID: "d1", Filename: "gone.pdf", Confidence: 0.5},
	}}}
	svc := newTestService(search)

	results, err := svc.Query(context.Background(), mustRequest(t, "biden", "x"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].DocumentURL)
	assert.Empty(t, results[0].Excerpts)
}

func TestQuery_FilterAndSort(t *testing.T) {
	search := &mockSearch{resp: hit.Response{Hits: []hit.Hit{
		{ID: "a", Filename: "a.pdf", Confidence: 0.2},
		{ID: "b", Filename: "b.pdf", Confidence: 0.04},
		{ID: "c", Filename: "c.pdf", Confidence: 0.9},
		{ID: "d", Filename: "d.pdf", Confidence: 0.05},
		{ID: "e", Filename: "e.pdf", Confidence: 0.2},
	}}}
	svc := newTestService(search)

	results, err := svc.Query(context.Background(), mustRequest(t, "biden", "x"))
	require.NoError(t, err)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.DocumentID
	}
	assert.Equal(t, []string{"c", "a", "e", "d"}, ids)
	assert.True(t, sort.SliceIsSorted(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	}))
}

func TestQuery_NegativeScoresClampedToZero(t *testing.T) {
	search := &mockSearch{resp: hit.Response{Hits: []hit.Hit{
		{ID: "a", Filename: "a.pdf", Confidence: 0.5, Score: -3},
	}}}
	svc := newTestService(search)

	results, err := svc.Query(context.Background(), mustRequest(t, "biden", "x"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].Score)
}

func TestQuery_TimeoutAppliedToSearch(t *testing.T) {
	search := &mockSearch{}
	svc := newTestService(search).WithTimeout(5 * time.Second)

	_, err := svc.Query(context.Background(), mustRequest(t, "biden", "x"))
	require.NoError(t, err)
	assert.True(t, search.hasDeadline)
}

func TestQuery_NoTimeoutByDefault(t *testing.T) {
	search := &mockSearch{}
	svc := newTestService(search)

	_, err := svc.Query(context.Background(), mustRequest(t, "biden", "x"))
	require.NoError(t, err)
	assert.False(t, search.hasDeadline)
}

func TestQuery_ContextCanceledError(t *testing.T) {
	search := &mockSearch{err: context.DeadlineExceeded}
	svc := newTestService(search)

	_, err := svc.Query(context.Background(), mustRequest(t, "biden", "x"))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAggregate_AtMostOnePerFilename(t *testing.T) {
	in := []result.Result{
		{Filename: "a", Confidence: 0.5},
		{Filename: "b", Confidence: 0.6},
		{Filename: "a", Confidence: 0.1},
		{Filename: "b", Confidence: 0.9},
		{Filename: "a", Confidence: 0.8},
	}

	out := aggregate(in)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Filename)
	assert.Equal(t, 0.9, out[0].Confidence)
	assert.Equal(t, "a", out[1].Filename)
	assert.Equal(t, 0.8, out[1].Confidence)
}

func TestAggregate_MergedConfidenceCanPassThreshold(t *testing.T) {
	in := []result.Result{
		{Filename: "a", Confidence: 0.01},
		{Filename: "a", Confidence: 0.06},
	}

	out := aggregate(in)
	require.Len(t, out, 1)
	assert.Equal(t, 0.06, out[0].Confidence)
}

func TestAggregate_StableForTies(t *testing.T) {
	in := []result.Result{
		{Filename: "x", DocumentID: "1", Confidence: 0.5},
		{Filename: "y", DocumentID: "2", Confidence: 0.5},
		{Filename: "z", DocumentID: "3", Confidence: 0.5},
	}

	out := aggregate(in)
	require.Len(t, out, 3)
	assert.Equal(t, "1", out[0].DocumentID)
	assert.Equal(t, "2", out[1].DocumentID)
	assert.Equal(t, "3", out[2].DocumentID)
}

func TestNormalizeCategories(t *testing.T) {
	got := normalizeCategories([]string{
		"/law, govt and politics/government",
		"/law, govt and politics/legal issues",
		"",
		"/science/weather/climate change",
	})
	assert.Equal(t, []string{
		"Law, Govt And Politics",
		"Government",
		"Legal Issues",
		"Science",
		"Weather",
		"Climate Change",
	}, got)
}
