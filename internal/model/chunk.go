package model

import "time"

// Chunk is one embedded segment of a Document. UserID is copied from the
// parent document so searches can be scoped without a join.
type Chunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;uniqueIndex:idx_chunk_doc_ordinal" json:"document_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Ordinal    int       `gorm:"not null;uniqueIndex:idx_chunk_doc_ordinal" json:"ordinal"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Dimensions int       `gorm:"not null" json:"dimensions"`
	Embedding  Vector    `gorm:"type:mediumblob;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Document carries the foreign key; chunk rows never outlive their note.
	Document *Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}
