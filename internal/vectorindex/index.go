// Package vectorindex stores chunk embeddings and answers owner-scoped
// similarity queries over them.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	ErrOwnerRequired     = errors.New("owner is required for search")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

type Item struct {
	DocumentID uint
	OwnerID    uint
	Ordinal    int
	Content    string
	Vector     []float32
}

type Hit struct {
	DocumentID uint    `json:"document_id"`
	Ordinal    int     `json:"ordinal"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

type ItemFailure struct {
	DocumentID uint
	Ordinal    int
	Err        error
}

// WriteError reports the items an upsert could not store. Items not listed were written.
type WriteError struct {
	Failures []ItemFailure
}

func (e *WriteError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("doc %d chunk %d: %v", f.DocumentID, f.Ordinal, f.Err))
	}
	return fmt.Sprintf("index write failed for %d item(s): %s", len(e.Failures), strings.Join(parts, "; "))
}

type Index interface {
	Upsert(ctx context.Context, items []Item) error
	Search(ctx context.Context, owner uint, vector []float32, k int, opts ...SearchOption) ([]Hit, error)
	DeleteDocument(ctx context.Context, documentID uint) error
}

type searchOptions struct {
	documentID uint
}

type SearchOption func(*searchOptions)

// WithDocument restricts a search to the chunks of one document.
func WithDocument(id uint) SearchOption {
	return func(o *searchOptions) { o.documentID = id }
}

func applyOptions(opts []SearchOption) searchOptions {
	var o searchOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func validateItem(item Item, dims int) error {
	if item.OwnerID == 0 {
		return ErrOwnerRequired
	}
	if item.DocumentID == 0 {
		return errors.New("document id is required")
	}
	if dims > 0 && len(item.Vector) != dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(item.Vector), dims)
	}
	return nil
}

func validateQuery(owner uint, vector []float32, dims int) error {
	if owner == 0 {
		return ErrOwnerRequired
	}
	if dims > 0 && len(vector) != dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), dims)
	}
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero
// norm or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rank scores candidates given in insertion order and keeps the best k.
// Equal scores keep insertion order.
func rank(query []float32, candidates []candidate, k int) []Hit {
	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, Hit{
			DocumentID: c.documentID,
			Ordinal:    c.ordinal,
			Content:    c.content,
			Score:      Cosine(query, c.vector),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

type candidate struct {
	documentID uint
	ordinal    int
	content    string
	vector     []float32
}
