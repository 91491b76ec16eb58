package result

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/polaudit/internal/domain/term"
)

func TestMerge_UnionsAndMaxes(t *testing.T) {
	first := Result{
		DisplayName: "Plan",
		DocumentID:  "doc-1",
		Filename:    "plan.pdf",
		Excerpts:    []string{"e1", "e2", "e1"},
		Categories:  []string{"Law", "Government"},
		Confidence:  0.3,
		Score:       9,
		DocumentURL: "http://localhost/api/doc/biden/plan.pdf",
		Terms:       []term.ExploreTerm{{OriginalTerm: "Biden", ArticleTitle: "Joe Biden"}},
	}
	later := Result{
		DisplayName: "Other",
		DocumentID:  "doc-2",
		Filename:    "plan.pdf",
		Excerpts:    []string{"e3", "e2"},
		Categories:  []string{"Government", "Economy"},
		Confidence:  0.7,
		Score:       4,
		Terms:       []term.ExploreTerm{{OriginalTerm: "Tax"}},
	}

	first.Merge(&later)

	if !reflect.DeepEqual(first.Excerpts, []string{"e1", "e2", "e3"}) {
		t.Errorf("Excerpts = %v", first.Excerpts)
	}
	if !reflect.DeepEqual(first.Categories, []string{"Law", "Government", "Economy"}) {
		t.Errorf("Categories = %v", first.Categories)
	}
	if first.Confidence != 0.7 {
		t.Errorf("Confidence = %f, want 0.7", first.Confidence)
	}
	if first.Score != 9 {
		t.Errorf("Score = %f, want 9", first.Score)
	}
	if first.DocumentID != "doc-1" || first.DisplayName != "Plan" {
		t.Errorf("first-seen fields overwritten: %+v", first)
	}
	if first.DocumentURL == "" {
		t.Error("DocumentURL should be kept from first hit")
	}
	if len(first.Terms) != 1 || first.Terms[0].OriginalTerm != "Biden" {
		t.Errorf("Terms = %v", first.Terms)
	}
}

func TestMerge_EmptyInputs(t *testing.T) {
	var r Result
	r.Merge(&Result{})

	if r.Excerpts == nil || len(r.Excerpts) != 0 {
		t.Errorf("Excerpts = %#v, want empty non-nil slice", r.Excerpts)
	}
	if r.Categories == nil || len(r.Categories) != 0 {
		t.Errorf("Categories = %#v, want empty non-nil slice", r.Categories)
	}
}
