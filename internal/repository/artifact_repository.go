package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"notetutor/internal/model"
)

type ArtifactRepository struct {
	db *gorm.DB
}

func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

func (r *ArtifactRepository) Create(artifact *model.Artifact) error {
	if err := r.db.Create(artifact).Error; err != nil {
		return fmt.Errorf("create artifact failed: %w", err)
	}
	return nil
}

// ListByUserIDAndKind returns artifacts newest first; bodies are left out.
func (r *ArtifactRepository) ListByUserIDAndKind(userID uint, kind model.ArtifactKind) ([]model.Artifact, error) {
	var list []model.Artifact
	err := r.db.Select("id", "user_id", "source_document_id", "kind", "title", "score", "created_at").
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list artifacts failed: %w", err)
	}
	return list, nil
}

func (r *ArtifactRepository) GetByIDAndUserID(id, userID uint, kind model.ArtifactKind) (*model.Artifact, error) {
	var artifact model.Artifact
	if err := r.db.Where("id = ? AND user_id = ? AND kind = ?", id, userID, kind).First(&artifact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get artifact failed: %w", err)
	}
	return &artifact, nil
}

// DeleteByIDAndUserID reports whether a row was removed.
func (r *ArtifactRepository) DeleteByIDAndUserID(id, userID uint, kind model.ArtifactKind) (bool, error) {
	res := r.db.Where("id = ? AND user_id = ? AND kind = ?", id, userID, kind).Delete(&model.Artifact{})
	if res.Error != nil {
		return false, fmt.Errorf("delete artifact failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *ArtifactRepository) SetScore(id, userID uint, score int) error {
	err := r.db.Model(&model.Artifact{}).
		Where("id = ? AND user_id = ? AND kind = ?", id, userID, model.ArtifactQuiz).
		Update("score", score).Error
	if err != nil {
		return fmt.Errorf("save quiz score failed: %w", err)
	}
	return nil
}
