package app

import (
	"context"
	"time"

	"notetutor/internal/cache"
	"notetutor/internal/model"
	"notetutor/internal/study"
)

type DocumentStore interface {
	Create(doc *model.Document) error
	ListByUserID(userID uint) ([]model.Document, error)
	ListAll() ([]model.Document, error)
	GetByIDAndUserID(id, userID uint) (*model.Document, error)
	SetSummary(id, userID uint, summary string) error
	DeleteByIDAndUserID(id, userID uint) error
}

type ArtifactStore interface {
	Create(artifact *model.Artifact) error
	ListByUserIDAndKind(userID uint, kind model.ArtifactKind) ([]model.Artifact, error)
	GetByIDAndUserID(id, userID uint, kind model.ArtifactKind) (*model.Artifact, error)
	DeleteByIDAndUserID(id, userID uint, kind model.ArtifactKind) (bool, error)
	SetScore(id, userID uint, score int) error
}

type UserStore interface {
	Create(user *model.User) error
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetByID(id uint) (*model.User, error)
	TouchLastLogin(id uint, at time.Time) error
}

type IngestStatusStore interface {
	Set(ctx context.Context, documentID uint, status cache.IngestStatus) error
	Get(ctx context.Context, documentID uint) (*cache.IngestStatus, bool, error)
	Delete(ctx context.Context, documentID uint) error
}

// UploadArchive keeps the original bytes of uploaded files.
type UploadArchive interface {
	Put(ctx context.Context, userID uint, filename, contentType string, body []byte) (string, error)
}

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Generators interface {
	Quiz(ctx context.Context, title, text string) (*study.Quiz, error)
	QA(ctx context.Context, title, text string) (*study.QASet, error)
	Summary(ctx context.Context, title, text string) (string, error)
}
