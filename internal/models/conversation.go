package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Message roles. Only these two are ever persisted.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation groups an ordered exchange of messages for one user.
// UpdatedAt advances on every completed turn.
type Conversation struct {
	ID        string    `json:"id" gorm:"type:char(27);primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"type:varchar(64);not null;index"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null;default:''"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

// Message is a single user or assistant turn within a conversation.
// Display order and the history fed back to the synthesizer are both
// created_at ascending.
type Message struct {
	ID             string    `json:"id" gorm:"type:char(27);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(27);not null;index"`
	Role           string    `json:"role" gorm:"type:varchar(16);not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = ksuid.New().String()
	}
	return nil
}

// MessageSource records provenance for an assistant answer: which retrieved
// chunk backed it and, when attribution succeeds, which owned document it
// came from. DocumentID stays null when no owned document matches.
type MessageSource struct {
	ID         string  `json:"id" gorm:"type:char(27);primaryKey"`
	MessageID  string  `json:"message_id" gorm:"type:char(27);not null;index"`
	DocumentID *string `json:"document_id" gorm:"type:char(27);index"`
	Page       int     `json:"page" gorm:"not null;default:0"`
	Snippet    string  `json:"snippet" gorm:"type:text;not null;default:''"`
	ImagePath  string  `json:"image_path" gorm:"type:text;not null;default:''"`
	Source     string  `json:"source" gorm:"type:text;not null;default:''"`
}

func (s *MessageSource) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = ksuid.New().String()
	}
	return nil
}
