package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// ContentTypePageImage marks index entries derived from rendered page images.
const ContentTypePageImage = "page_image"

// Embedding is one indexed vector: a chunk of page content with its
// embedding and the metadata every query filters on. The user_id +
// document_id pair is written once at ingestion and never updated;
// deletion always names both.
//
// Learning: KSUIDs double as the index-native ID scheme, so concurrent
// upserts from different requests can never collide on an ID.
type Embedding struct {
	ID          string          `json:"id" gorm:"type:char(27);primaryKey"`
	UserID      string          `json:"user_id" gorm:"type:varchar(64);not null;index:idx_embeddings_scope,priority:1"`
	DocumentID  string          `json:"document_id" gorm:"type:char(27);not null;index:idx_embeddings_scope,priority:2"`
	Page        int             `json:"page" gorm:"not null;default:0"`
	Source      string          `json:"source" gorm:"type:text;not null;default:''"`
	ImagePath   string          `json:"image_path" gorm:"type:text;not null;default:''"`
	ContentType string          `json:"content_type" gorm:"type:varchar(32);not null;default:'page_image'"`
	ChunkIndex  int             `json:"chunk_index" gorm:"not null;default:0"`
	ChunkText   string          `json:"chunk_text" gorm:"type:text;not null"`
	Embedding   pgvector.Vector `json:"-" gorm:"type:vector(1536);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (e *Embedding) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = ksuid.New().String()
	}
	return nil
}

// Hit is a single retrieval result: chunk text plus its full index
// metadata, ordered by decreasing cosine similarity.
type Hit struct {
	Text        string  `json:"text"`
	UserID      string  `json:"user_id"`
	DocumentID  string  `json:"document_id"`
	Page        int     `json:"page"`
	Source      string  `json:"source"`
	ImagePath   string  `json:"image_path"`
	ContentType string  `json:"content_type"`
	ChunkIndex  int     `json:"chunk_index"`
	Score       float32 `json:"score"`
}
