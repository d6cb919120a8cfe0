package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
)

// Repository wires together order persistence helpers.
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

// CreateOrder inserts the pending order row.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByPayPalOrderID loads the order keyed by the provider id.
func (r *Repository) FindByPayPalOrderID(ctx context.Context, paypalOrderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Beat").
		First(&order, "paypal_order_id = ?", paypalOrderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionFromPending moves the order out of PENDING. Returns false when the
// order already left PENDING, which callers treat as the idempotent path.
func (r *Repository) TransitionFromPending(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, customerEmail string) (bool, error) {
	updates := map[string]any{"status": status}
	if customerEmail != "" {
		updates["customer_email"] = customerEmail
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
