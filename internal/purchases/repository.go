package purchases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
)

// Repository wires together purchase persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreatePurchase inserts the purchase together with its addon rows.
func (r *Repository) CreatePurchase(ctx context.Context, purchase *models.Purchase) (*models.Purchase, error) {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

// FindByToken loads the purchase holding the download token, with its beat
// and addon rows.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		Preload("Beat").
		Preload("Addons").
		First(&purchase, "download_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindByOrderID loads the purchase created for the given order, if any.
func (r *Repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		Preload("Beat").
		Preload("Addons").
		First(&purchase, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// MarkDownloaded flags the purchase after its first successful redemption.
func (r *Repository) MarkDownloaded(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND is_downloaded = false", id).
		Update("is_downloaded", true).Error
}
