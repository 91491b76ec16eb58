package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Subjects maps topical subjects to the backing collection identifiers of the
// external search service. Subject names are matched case-insensitively.
type Subjects struct {
	collections map[string]string
}

// NewSubjects creates a subject registry from subject -> collection id pairs.
func NewSubjects(collections map[string]string) Subjects {
	m := make(map[string]string, len(collections))
	for name, id := range collections {
		m[strings.ToLower(strings.TrimSpace(name))] = id
	}
	return Subjects{collections: m}
}

// Collection resolves a subject to its collection id.
func (s Subjects) Collection(subject string) (string, error) {
	id, ok := s.collections[strings.ToLower(subject)]
	if !ok || id == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
	}
	return id, nil
}

// Names returns the configured subject names in sorted order.
func (s Subjects) Names() []string {
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
