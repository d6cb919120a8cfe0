package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/pkg/enums"
)

// Order is a pending payment intent created when a PayPal session is opened.
// Status moves exactly once from PENDING to a terminal state.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PayPalOrderID string            `gorm:"column:paypal_order_id;not null;uniqueIndex:orders_paypal_order_id_key"`
	BeatID        uuid.UUID         `gorm:"column:beat_id;type:uuid;not null"`
	Beat          *Beat             `gorm:"foreignKey:BeatID"`
	LicenseType   enums.LicenseType `gorm:"column:license_type;type:license_type;not null"`
	AddonTypes    pq.StringArray    `gorm:"column:addon_types;type:text[];not null;default:ARRAY[]::text[]"`
	Amount        decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	CustomerEmail string            `gorm:"column:customer_email;not null;default:''"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
