package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/huzaifa003/docuchat/internal/models"

	"gorm.io/gorm"
)

// DocumentRepositoryImpl handles database operations for documents.
// Every read and delete is owner-scoped; a document id belonging to
// another user behaves exactly like a missing one.
type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) *DocumentRepositoryImpl {
	return &DocumentRepositoryImpl{db: db}
}

// Create inserts a new document. The KSUID is generated in the
// BeforeCreate hook.
func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *models.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetOwned retrieves a document by id, restricted to the given owner.
func (r *DocumentRepositoryImpl) GetOwned(ctx context.Context, id, ownerID string) (*models.Document, error) {
	var doc models.Document

	err := r.db.WithContext(ctx).First(&doc, "id = ? AND owner_id = ?", id, ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// ListByOwner returns the owner's documents, newest first.
// KSUIDs are time-ordered so sorting by id is sorting by creation time.
func (r *DocumentRepositoryImpl) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	var documents []*models.Document

	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id DESC").
		Find(&documents).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return documents, nil
}

// FilterOwnedIDs returns the subset of ids actually owned by ownerID,
// silently dropping any id that is missing or belongs to someone else.
func (r *DocumentRepositoryImpl) FilterOwnedIDs(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var owned []string
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Pluck("id", &owned).Error

	if err != nil {
		return nil, fmt.Errorf("failed to check document ownership: %w", err)
	}

	return owned, nil
}

// FindByNameContains returns the owner's first document whose original
// name contains the given fragment, or ErrNotFound.
func (r *DocumentRepositoryImpl) FindByNameContains(ctx context.Context, ownerID, fragment string) (*models.Document, error) {
	var doc models.Document

	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND original_name ILIKE ?", ownerID, "%"+fragment+"%").
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to match document by name: %w", err)
	}

	return &doc, nil
}

// Delete permanently removes a document record. The caller is
// responsible for purging the vector index and blob first.
func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id, ownerID string) error {
	result := r.db.WithContext(ctx).Delete(&models.Document{}, "id = ? AND owner_id = ?", id, ownerID)

	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}

	return nil
}
