package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kailas-cloud/polaudit/internal/domain/hit"
)

// Wire payloads. Absent or null fields decode to zero values, which are the
// defaults the rest of the pipeline expects.
type (
	queryResponse struct {
		MatchingResults int               `json:"matching_results"`
		Results         []queryResult     `json:"results"`
		Passages        []queryPassage    `json:"passages"`
		Aggregations    []termAggregation `json:"aggregations"`
	}

	queryResult struct {
		ID             string `json:"id"`
		Text           string `json:"text"`
		ResultMetadata struct {
			Score      float64 `json:"score"`
			Confidence float64 `json:"confidence"`
		} `json:"result_metadata"`
		ExtractedMetadata struct {
			Filename string `json:"filename"`
		} `json:"extracted_metadata"`
		EnrichedText struct {
			Entities   []textItem  `json:"entities"`
			Concepts   []textItem  `json:"concepts"`
			Categories []labelItem `json:"categories"`
		} `json:"enriched_text"`
	}

	textItem struct {
		Text string `json:"text"`
	}

	labelItem struct {
		Label string `json:"label"`
	}

	queryPassage struct {
		DocumentID   string  `json:"document_id"`
		PassageScore float64 `json:"passage_score"`
		PassageText  string  `json:"passage_text"`
	}

	termAggregation struct {
		Type    string `json:"type"`
		Field   string `json:"field"`
		Results []struct {
			Key             string `json:"key"`
			MatchingResults int    `json:"matching_results"`
		} `json:"results"`
	}
)

// Search runs a natural language query with passages enabled.
func (c *Client) Search(ctx context.Context, collectionID, query string) (hit.Response, error) {
	params := url.Values{}
	params.Set("natural_language_query", query)
	params.Set("passages", "true")
	if c.passagesCount > 0 {
		params.Set("passages.count", strconv.Itoa(c.passagesCount))
	}

	var resp queryResponse
	if err := c.do(ctx, "query", http.MethodGet, c.collectionPath(collectionID, "query"), params, nil, &resp); err != nil {
		return hit.Response{}, err
	}
	return toResponse(&resp), nil
}

// TermAggregate returns the topN most frequent values of field.
// Empty keys are dropped.
func (c *Client) TermAggregate(ctx context.Context, collectionID, field string, topN int) ([]hit.TermCount, error) {
	params := url.Values{}
	params.Set("aggregation", fmt.Sprintf("term(%s,count:%d)", field, topN))
	params.Set("count", "0")

	var resp queryResponse
	if err := c.do(ctx, "aggregate", http.MethodGet, c.collectionPath(collectionID, "query"), params, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Aggregations) == 0 {
		return nil, nil
	}

	agg := resp.Aggregations[0]
	out := make([]hit.TermCount, 0, len(agg.Results))
	for _, r := range agg.Results {
		if r.Key == "" {
			continue
		}
		out = append(out, hit.TermCount{Term: r.Key, Count: r.MatchingResults})
	}
	return out, nil
}

func toResponse(resp *queryResponse) hit.Response {
	out := hit.Response{
		Hits:     make([]hit.Hit, 0, len(resp.Results)),
		Passages: make([]hit.Passage, 0, len(resp.Passages)),
	}
	for i := range resp.Results {
		r := &resp.Results[i]
		out.Hits = append(out.Hits, hit.Hit{
			ID:         r.ID,
			Text:       r.Text,
			Filename:   r.ExtractedMetadata.Filename,
			Confidence: r.ResultMetadata.Confidence,
			Score:      r.ResultMetadata.Score,
			Entities:   texts(r.EnrichedText.Entities),
			Concepts:   texts(r.EnrichedText.Concepts),
			Categories: labels(r.EnrichedText.Categories),
		})
	}
	for _, p := range resp.Passages {
		out.Passages = append(out.Passages, hit.Passage{
			DocumentID: p.DocumentID,
			Text:       p.PassageText,
			Score:      p.PassageScore,
		})
	}
	return out
}

func texts(items []textItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Text)
	}
	return out
}

func labels(items []labelItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}
