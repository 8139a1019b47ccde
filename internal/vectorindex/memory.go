package vectorindex

import (
	"context"
	"sort"
	"sync"
)

type chunkKey struct {
	documentID uint
	ordinal    int
}

type memoryEntry struct {
	seq     uint64
	ownerID uint
	content string
	vector  []float32
}

// MemoryIndex keeps every chunk in process memory. Sequence numbers record
// first insertion so overwrites keep their original tie-break position.
type MemoryIndex struct {
	dims    int
	mu      sync.RWMutex
	nextSeq uint64
	entries map[chunkKey]*memoryEntry
}

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex(dims int) *MemoryIndex {
	return &MemoryIndex{dims: dims, entries: make(map[chunkKey]*memoryEntry)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, items []Item) error {
	var failures []ItemFailure
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			failures = append(failures, ItemFailure{DocumentID: item.DocumentID, Ordinal: item.Ordinal, Err: err})
			continue
		}
		if err := validateItem(item, m.dims); err != nil {
			failures = append(failures, ItemFailure{DocumentID: item.DocumentID, Ordinal: item.Ordinal, Err: err})
			continue
		}
		vec := append([]float32(nil), item.Vector...)
		key := chunkKey{documentID: item.DocumentID, ordinal: item.Ordinal}
		if existing, ok := m.entries[key]; ok {
			existing.ownerID = item.OwnerID
			existing.content = item.Content
			existing.vector = vec
			continue
		}
		m.nextSeq++
		m.entries[key] = &memoryEntry{seq: m.nextSeq, ownerID: item.OwnerID, content: item.Content, vector: vec}
	}
	if len(failures) > 0 {
		return &WriteError{Failures: failures}
	}
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, owner uint, vector []float32, k int, opts ...SearchOption) ([]Hit, error) {
	if err := validateQuery(owner, vector, m.dims); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Hit{}, nil
	}
	o := applyOptions(opts)

	type seqCandidate struct {
		seq uint64
		candidate
	}
	m.mu.RLock()
	scoped := make([]seqCandidate, 0)
	for key, entry := range m.entries {
		if entry.ownerID != owner {
			continue
		}
		if o.documentID != 0 && key.documentID != o.documentID {
			continue
		}
		scoped = append(scoped, seqCandidate{seq: entry.seq, candidate: candidate{
			documentID: key.documentID,
			ordinal:    key.ordinal,
			content:    entry.content,
			vector:     entry.vector,
		}})
	}
	m.mu.RUnlock()

	sort.Slice(scoped, func(i, j int) bool { return scoped[i].seq < scoped[j].seq })
	candidates := make([]candidate, len(scoped))
	for i, c := range scoped {
		candidates[i] = c.candidate
	}
	return rank(vector, candidates, k), nil
}

func (m *MemoryIndex) DeleteDocument(ctx context.Context, documentID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if key.documentID == documentID {
			delete(m.entries, key)
		}
	}
	return nil
}
