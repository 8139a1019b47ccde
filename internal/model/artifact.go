package model

import (
	"time"

	"gorm.io/datatypes"
)

type ArtifactKind string

const (
	ArtifactQuiz ArtifactKind = "quiz"
	ArtifactQA   ArtifactKind = "qa"
)

// Artifact is a persisted quiz or Q&A set. SourceDocumentID is cleared when the
// source document is deleted; the artifact itself survives.
type Artifact struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null;index:idx_artifact_owner_kind" json:"user_id"`
	SourceDocumentID *uint          `gorm:"index" json:"source_document_id"`
	Kind             ArtifactKind   `gorm:"size:16;not null;index:idx_artifact_owner_kind" json:"kind"`
	Title            string         `gorm:"size:256;not null" json:"title"`
	Body             datatypes.JSON `gorm:"not null" json:"body,omitempty"`
	Score            *int           `json:"score,omitempty"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
}
