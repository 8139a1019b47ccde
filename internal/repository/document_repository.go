package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"notetutor/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// ListByUserID returns the user's documents newest first, without their full text.
func (r *DocumentRepository) ListByUserID(userID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Select("id", "user_id", "title", "summary", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// ListAll returns only the ids and owners of every document, oldest first.
func (r *DocumentRepository) ListAll() ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Select("id", "user_id").Order("id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list all documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) GetByIDAndUserID(id, userID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) SetSummary(id, userID uint, summary string) error {
	res := r.db.Model(&model.Document{}).Where("id = ? AND user_id = ?", id, userID).Update("summary", summary)
	if res.Error != nil {
		return fmt.Errorf("save document summary failed: %w", res.Error)
	}
	return nil
}

// DeleteByIDAndUserID removes the document and its chunk rows and detaches
// artifacts generated from it, in one transaction.
func (r *DocumentRepository) DeleteByIDAndUserID(id, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Artifact{}).
			Where("source_document_id = ? AND user_id = ?", id, userID).
			Update("source_document_id", nil).Error; err != nil {
			return fmt.Errorf("detach artifacts failed: %w", err)
		}
		if err := tx.Where("document_id = ? AND user_id = ?", id, userID).Delete(&model.Chunk{}).Error; err != nil {
			return fmt.Errorf("delete document chunks failed: %w", err)
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Document{}).Error; err != nil {
			return fmt.Errorf("delete document failed: %w", err)
		}
		return nil
	})
}
