package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(doc, owner uint, ordinal int, content string, vec ...float32) Item {
	return Item{DocumentID: doc, OwnerID: owner, Ordinal: ordinal, Content: content, Vector: vec}
}

func contents(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Content
	}
	return out
}

func TestMemoryIndexSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by similarity and bounds by k", func(t *testing.T) {
		idx := NewMemoryIndex(2)
		require.NoError(t, idx.Upsert(ctx, []Item{
			item(1, 7, 0, "far", 0, 1),
			item(1, 7, 1, "close", 1, 0.1),
			item(1, 7, 2, "exact", 1, 0),
		}))

		hits, err := idx.Search(ctx, 7, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "exact", hits[0].Content)
		assert.Equal(t, "close", hits[1].Content)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	})

	t.Run("never returns another owner's chunks", func(t *testing.T) {
		idx := NewMemoryIndex(2)
		require.NoError(t, idx.Upsert(ctx, []Item{
			item(1, 7, 0, "mine", 0, 1),
			item(2, 8, 0, "theirs", 1, 0),
		}))

		hits, err := idx.Search(ctx, 7, []float32{1, 0}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "mine", hits[0].Content)

		hits, err = idx.Search(ctx, 9, []float32{1, 0}, 10)
		require.NoError(t, err)
		assert.NotNil(t, hits)
		assert.Empty(t, hits)
	})

	t.Run("ties keep insertion order even after overwrite", func(t *testing.T) {
		idx := NewMemoryIndex(2)
		require.NoError(t, idx.Upsert(ctx, []Item{
			item(1, 7, 0, "first", 1, 0),
			item(1, 7, 1, "second", 1, 0),
			item(2, 7, 0, "third", 1, 0),
		}))
		require.NoError(t, idx.Upsert(ctx, []Item{item(1, 7, 0, "first", 2, 0)}))

		for i := 0; i < 5; i++ {
			hits, err := idx.Search(ctx, 7, []float32{1, 0}, 3)
			require.NoError(t, err)
			require.Len(t, hits, 3)
			assert.Equal(t, []string{"first", "second", "third"}, []string{hits[0].Content, hits[1].Content, hits[2].Content})
		}
	})

	t.Run("repeated searches return identical results", func(t *testing.T) {
		idx := NewMemoryIndex(2)
		require.NoError(t, idx.Upsert(ctx, []Item{
			item(1, 7, 0, "tie-a", 1, 1),
			item(1, 7, 1, "low", 0, 1),
			item(2, 7, 0, "top", 1, 0),
			item(2, 7, 1, "tie-b", 1, 1),
			item(3, 7, 0, "mid", 1, 0.5),
			item(3, 7, 1, "tie-c", 2, 2),
		}))
		query := []float32{1, 0.2}

		first, err := idx.Search(ctx, 7, query, 5)
		require.NoError(t, err)
		second, err := idx.Search(ctx, 7, query, 5)
		require.NoError(t, err)

		require.Len(t, first, 5)
		assert.Equal(t, first, second)
		assert.Equal(t, []string{"top", "mid", "tie-a", "tie-b", "tie-c"}, contents(first))
	})

	t.Run("document filter", func(t *testing.T) {
		idx := NewMemoryIndex(2)
		require.NoError(t, idx.Upsert(ctx, []Item{
			item(1, 7, 0, "bio", 1, 0),
			item(2, 7, 0, "chem", 1, 0),
		}))

		hits, err := idx.Search(ctx, 7, []float32{1, 0}, 5, WithDocument(2))
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "chem", hits[0].Content)
	})

	t.Run("requires owner and matching dimensions", func(t *testing.T) {
		idx := NewMemoryIndex(2)
		_, err := idx.Search(ctx, 0, []float32{1, 0}, 3)
		assert.ErrorIs(t, err, ErrOwnerRequired)

		_, err = idx.Search(ctx, 7, []float32{1, 0, 0}, 3)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestMemoryIndexUpsertPartialFailure(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(2)

	err := idx.Upsert(ctx, []Item{
		item(1, 7, 0, "ok", 1, 0),
		item(1, 7, 1, "bad dims", 1, 0, 0),
		item(1, 0, 2, "no owner", 1, 0),
	})

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	require.Len(t, writeErr.Failures, 2)
	assert.Equal(t, 1, writeErr.Failures[0].Ordinal)
	assert.ErrorIs(t, writeErr.Failures[0].Err, ErrDimensionMismatch)
	assert.ErrorIs(t, writeErr.Failures[1].Err, ErrOwnerRequired)

	hits, err := idx.Search(ctx, 7, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ok", hits[0].Content)
}

func TestMemoryIndexDeleteDocument(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(2)
	require.NoError(t, idx.Upsert(ctx, []Item{
		item(1, 7, 0, "a", 1, 0),
		item(1, 7, 1, "b", 1, 0),
		item(2, 7, 0, "c", 1, 0),
	}))

	require.NoError(t, idx.DeleteDocument(ctx, 1))
	require.NoError(t, idx.DeleteDocument(ctx, 42))

	hits, err := idx.Search(ctx, 7, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint(2), hits[0].DocumentID)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-3, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 0}))
}
