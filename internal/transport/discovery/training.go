package discovery

import (
	"context"
	"net/http"

	"github.com/kailas-cloud/polaudit/internal/domain/training"
)

type (
	trainingDataResponse struct {
		Queries []trainingQuery `json:"queries"`
	}

	trainingQuery struct {
		QueryID              string            `json:"query_id,omitempty"`
		NaturalLanguageQuery string            `json:"natural_language_query"`
		Examples             []trainingExample `json:"examples"`
	}

	trainingExample struct {
		DocumentID string `json:"document_id"`
		Relevance  int    `json:"relevance"`
	}
)

// ListTrainingQueries returns every training query of the collection.
func (c *Client) ListTrainingQueries(ctx context.Context, collectionID string) ([]training.Query, error) {
	var resp trainingDataResponse
	if err := c.do(ctx, "list_training_data", http.MethodGet,
		c.collectionPath(collectionID, "training_data"), nil, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]training.Query, 0, len(resp.Queries))
	for i := range resp.Queries {
		out = append(out, fromWire(&resp.Queries[i]))
	}
	return out, nil
}

// CreateExample appends an example to an existing training query.
func (c *Client) CreateExample(ctx context.Context, collectionID, queryID string, ex training.Example) error {
	body := trainingExample{DocumentID: ex.DocumentID, Relevance: int(ex.Relevancy)}
	return c.do(ctx, "create_training_example", http.MethodPost,
		c.collectionPath(collectionID, "training_data", queryID, "examples"), nil, body, nil)
}

// AddTrainingQuery creates a training query with its initial examples.
func (c *Client) AddTrainingQuery(
	ctx context.Context, collectionID, text string, examples []training.Example,
) (training.Query, error) {
	body := trainingQuery{NaturalLanguageQuery: text, Examples: toWireExamples(examples)}

	var created trainingQuery
	if err := c.do(ctx, "add_training_data", http.MethodPost,
		c.collectionPath(collectionID, "training_data"), nil, body, &created); err != nil {
		return training.Query{}, err
	}
	return fromWire(&created), nil
}

// DeleteTrainingQuery removes a training query and its examples.
func (c *Client) DeleteTrainingQuery(ctx context.Context, collectionID, queryID string) error {
	return c.do(ctx, "delete_training_data", http.MethodDelete,
		c.collectionPath(collectionID, "training_data", queryID), nil, nil, nil)
}

func fromWire(q *trainingQuery) training.Query {
	examples := make([]training.Example, 0, len(q.Examples))
	for _, ex := range q.Examples {
		examples = append(examples, training.Example{
			DocumentID: ex.DocumentID,
			Relevancy:  training.Relevancy(ex.Relevance),
		})
	}
	return training.Query{ID: q.QueryID, Text: q.NaturalLanguageQuery, Examples: examples}
}

func toWireExamples(examples []training.Example) []trainingExample {
	out := make([]trainingExample, 0, len(examples))
	for _, ex := range examples {
		out = append(out, trainingExample{DocumentID: ex.DocumentID, Relevance: int(ex.Relevancy)})
	}
	return out
}
