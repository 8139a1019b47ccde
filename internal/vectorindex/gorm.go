package vectorindex

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"notetutor/internal/model"
)

// GormIndex stores vectors in the chunks table and scores them in process
// after an owner-scoped scan.
type GormIndex struct {
	db   *gorm.DB
	dims int
}

var _ Index = (*GormIndex)(nil)

func NewGormIndex(db *gorm.DB, dims int) *GormIndex {
	return &GormIndex{db: db, dims: dims}
}

func (g *GormIndex) Upsert(ctx context.Context, items []Item) error {
	var failures []ItemFailure
	for _, item := range items {
		if err := g.upsertOne(ctx, item); err != nil {
			failures = append(failures, ItemFailure{DocumentID: item.DocumentID, Ordinal: item.Ordinal, Err: err})
		}
	}
	if len(failures) > 0 {
		return &WriteError{Failures: failures}
	}
	return nil
}

func (g *GormIndex) upsertOne(ctx context.Context, item Item) error {
	if err := validateItem(item, g.dims); err != nil {
		return err
	}
	row := model.Chunk{
		DocumentID: item.DocumentID,
		UserID:     item.OwnerID,
		Ordinal:    item.Ordinal,
		Content:    item.Content,
		Dimensions: len(item.Vector),
		Embedding:  model.Vector(item.Vector),
	}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}, {Name: "ordinal"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "content", "dimensions", "embedding", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert chunk failed: %w", err)
	}
	return nil
}

func (g *GormIndex) Search(ctx context.Context, owner uint, vector []float32, k int, opts ...SearchOption) ([]Hit, error) {
	if err := validateQuery(owner, vector, g.dims); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Hit{}, nil
	}
	o := applyOptions(opts)

	q := g.db.WithContext(ctx).Where("user_id = ?", owner)
	if o.documentID != 0 {
		q = q.Where("document_id = ?", o.documentID)
	}
	var rows []model.Chunk
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("scan chunks failed: %w", err)
	}

	candidates := make([]candidate, 0, len(rows))
	for _, row := range rows {
		if len(row.Embedding) != len(vector) {
			continue
		}
		candidates = append(candidates, candidate{
			documentID: row.DocumentID,
			ordinal:    row.Ordinal,
			content:    row.Content,
			vector:     row.Embedding,
		})
	}
	return rank(vector, candidates, k), nil
}

func (g *GormIndex) DeleteDocument(ctx context.Context, documentID uint) error {
	if err := g.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by document failed: %w", err)
	}
	return nil
}
