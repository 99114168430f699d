package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huzaifa003/docuchat/internal/models"

	"gorm.io/gorm"
)

// ConversationRepositoryImpl handles conversations, their messages and
// answer provenance rows.
type ConversationRepositoryImpl struct {
	db *gorm.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *gorm.DB) *ConversationRepositoryImpl {
	return &ConversationRepositoryImpl{db: db}
}

// Create inserts a new conversation for the owner.
func (r *ConversationRepositoryImpl) Create(ctx context.Context, convo *models.Conversation) error {
	if err := r.db.WithContext(ctx).Create(convo).Error; err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// GetOwned retrieves a conversation by id, restricted to the given owner.
func (r *ConversationRepositoryImpl) GetOwned(ctx context.Context, id, ownerID string) (*models.Conversation, error) {
	var convo models.Conversation

	err := r.db.WithContext(ctx).First(&convo, "id = ? AND owner_id = ?", id, ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &convo, nil
}

// ListByOwner returns the owner's conversations, newest first.
func (r *ConversationRepositoryImpl) ListByOwner(ctx context.Context, ownerID string) ([]*models.Conversation, error) {
	var convos []*models.Conversation

	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id DESC").
		Find(&convos).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return convos, nil
}

// Rename updates the conversation title.
func (r *ConversationRepositoryImpl) Rename(ctx context.Context, id, ownerID, title string) (*models.Conversation, error) {
	convo, err := r.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(convo).Update("title", title).Error; err != nil {
		return nil, fmt.Errorf("failed to rename conversation: %w", err)
	}
	return convo, nil
}

// Delete removes a conversation and cascades to its messages and their
// sources in one transaction.
func (r *ConversationRepositoryImpl) Delete(ctx context.Context, id, ownerID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var convo models.Conversation
		err := tx.First(&convo, "id = ? AND owner_id = ?", id, ownerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get conversation: %w", err)
		}

		err = tx.Where(
			"message_id IN (?)",
			tx.Model(&models.Message{}).Select("id").Where("conversation_id = ?", id),
		).Delete(&models.MessageSource{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete message sources: %w", err)
		}

		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}

		if err := tx.Delete(&convo).Error; err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		return nil
	})
}

// Touch advances the conversation's updated_at after a completed turn.
func (r *ConversationRepositoryImpl) Touch(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error

	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// CreateMessage appends one message to a conversation.
func (r *ConversationRepositoryImpl) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListMessages returns a conversation's messages ordered oldest to
// newest. This ordering is what the synthesizer receives as history.
func (r *ConversationRepositoryImpl) ListMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	var messages []*models.Message

	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// CreateSources stores provenance rows for an assistant message.
func (r *ConversationRepositoryImpl) CreateSources(ctx context.Context, sources []*models.MessageSource) error {
	if len(sources) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&sources).Error; err != nil {
		return fmt.Errorf("failed to create message sources: %w", err)
	}
	return nil
}

// ListSources returns the provenance rows for a message.
func (r *ConversationRepositoryImpl) ListSources(ctx context.Context, messageID string) ([]*models.MessageSource, error) {
	var sources []*models.MessageSource

	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&sources).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list message sources: %w", err)
	}

	return sources, nil
}
