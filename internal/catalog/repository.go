package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/pagination"
)

// BeatRepository defines persistence operations for catalog listings.
type BeatRepository interface {
	CreateBeat(context.Context, *models.Beat) (*models.Beat, error)
	UpdateBeat(context.Context, *models.Beat) (*models.Beat, error)
	DeleteBeat(context.Context, uuid.UUID) error
	FindByID(context.Context, uuid.UUID) (*models.Beat, error)
	FindActiveByID(context.Context, uuid.UUID) (*models.Beat, error)
	ListBeats(context.Context, beatListQuery) ([]models.Beat, int64, error)
}

type beatListQuery struct {
	Pagination      pagination.Params
	Filters         BeatListFilters
	IncludeInactive bool
}

// Repository wires together catalog persistence helpers.
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

// CreateBeat inserts the listing and returns the stored row.
func (r *Repository) CreateBeat(ctx context.Context, beat *models.Beat) (*models.Beat, error) {
	if err := r.db.WithContext(ctx).Create(beat).Error; err != nil {
		return nil, err
	}
	return beat, nil
}

// UpdateBeat saves every column of the listing.
func (r *Repository) UpdateBeat(ctx context.Context, beat *models.Beat) (*models.Beat, error) {
	if err := r.db.WithContext(ctx).Save(beat).Error; err != nil {
		return nil, err
	}
	return beat, nil
}

// DeleteBeat removes the listing row.
func (r *Repository) DeleteBeat(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Beat{}, "id = ?", id).Error
}

// FindByID loads the listing regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Beat, error) {
	var beat models.Beat
	if err := r.db.WithContext(ctx).First(&beat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &beat, nil
}

// FindActiveByID loads the listing only if it is visible on the storefront.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Beat, error) {
	var beat models.Beat
	if err := r.db.WithContext(ctx).First(&beat, "id = ? AND is_active = true", id).Error; err != nil {
		return nil, err
	}
	return &beat, nil
}

// ListBeats returns one filtered page of listings plus the unpaged total.
func (r *Repository) ListBeats(ctx context.Context, q beatListQuery) ([]models.Beat, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Beat{})
	tx = applyBeatFilters(tx, q.Filters)
	if !q.IncludeInactive {
		tx = tx.Where("is_active = true")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var beats []models.Beat
	if err := tx.
		Order("created_at DESC, id DESC").
		Limit(q.Pagination.Limit()).
		Offset(q.Pagination.Offset()).
		Find(&beats).Error; err != nil {
		return nil, 0, err
	}
	return beats, total, nil
}

func applyBeatFilters(tx *gorm.DB, filters BeatListFilters) *gorm.DB {
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		tx = tx.Where(
			"LOWER(title) LIKE ? OR LOWER(beat_number) LIKE ? OR LOWER(genres) LIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE LOWER(t) LIKE ?)",
			pattern, pattern, pattern, pattern,
		)
	}
	if g := strings.TrimSpace(filters.Genre); g != "" {
		tx = tx.Where("LOWER(genres) LIKE ?", "%"+strings.ToLower(g)+"%")
	}
	if t := strings.TrimSpace(filters.TrackType); t != "" {
		tx = tx.Where("LOWER(track_type) = ?", strings.ToLower(t))
	}
	if tag := strings.TrimSpace(filters.Tag); tag != "" {
		tx = tx.Where("? = ANY(tags)", tag)
	}
	if k := strings.TrimSpace(filters.Key); k != "" {
		tx = tx.Where("LOWER(musical_key) = ?", strings.ToLower(k))
	}
	if filters.BPMMin != nil {
		tx = tx.Where("bpm >= ?", *filters.BPMMin)
	}
	if filters.BPMMax != nil {
		tx = tx.Where("bpm <= ?", *filters.BPMMax)
	}
	if filters.PriceMin != nil && strings.TrimSpace(*filters.PriceMin) != "" {
		tx = tx.Where("non_exclusive_price >= ?", strings.TrimSpace(*filters.PriceMin))
	}
	if filters.PriceMax != nil && strings.TrimSpace(*filters.PriceMax) != "" {
		tx = tx.Where("non_exclusive_price <= ?", strings.TrimSpace(*filters.PriceMax))
	}
	return tx
}
