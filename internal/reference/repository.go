package reference

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
)

// Repository wires together license and addon persistence helpers.
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

// ListLicenses returns the active license tiers ordered cheapest first.
func (r *Repository) ListLicenses(ctx context.Context) ([]models.License, error) {
	var licenses []models.License
	if err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("base_price ASC").
		Find(&licenses).Error; err != nil {
		return nil, err
	}
	return licenses, nil
}

// FindLicenseByID loads one license row.
func (r *Repository) FindLicenseByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	var license models.License
	if err := r.db.WithContext(ctx).First(&license, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

// ListAddons returns the active addons ordered by price.
func (r *Repository) ListAddons(ctx context.Context) ([]models.Addon, error) {
	var addons []models.Addon
	if err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("price ASC").
		Find(&addons).Error; err != nil {
		return nil, err
	}
	return addons, nil
}

// FindAddonsByIDs loads the active addons matching the given ids.
func (r *Repository) FindAddonsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Addon, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var addons []models.Addon
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = true", ids).
		Find(&addons).Error; err != nil {
		return nil, err
	}
	return addons, nil
}

// FindAddonsByTypes loads the active addons matching the given types.
func (r *Repository) FindAddonsByTypes(ctx context.Context, types []enums.AddonType) ([]models.Addon, error) {
	if len(types) == 0 {
		return nil, nil
	}
	var addons []models.Addon
	if err := r.db.WithContext(ctx).
		Where("type IN ? AND is_active = true", types).
		Find(&addons).Error; err != nil {
		return nil, err
	}
	return addons, nil
}
