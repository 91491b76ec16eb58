package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/polaudit/internal/domain"
)

// MaxQueryLength is the maximum allowed natural-language query length.
const MaxQueryLength = 4096

// Request is a validated natural-language search query against one subject.
type Request struct {
	subject string
	query   string
}

// New validates search parameters. The subject is lowercased; the query is
// trimmed but otherwise passed to the search service unchanged.
func New(subject, query string) (Request, error) {
	subject = strings.ToLower(strings.TrimSpace(subject))
	if subject == "" {
		return Request{}, fmt.Errorf("%w: subject is required", domain.ErrInvalidQuery)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	return Request{subject: subject, query: query}, nil
}

// Subject returns the normalized subject.
func (r *Request) Subject() string { return r.subject }

// Query returns the query text.
func (r *Request) Query() string { return r.query }
