package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/pkg/enums"
)

// Purchase is the durable proof of entitlement created once payment is
// captured. The download token is the sole credential a customer holds.
type Purchase struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BeatID        uuid.UUID         `gorm:"column:beat_id;type:uuid;not null"`
	Beat          *Beat             `gorm:"foreignKey:BeatID"`
	OrderID       *uuid.UUID        `gorm:"column:order_id;type:uuid;uniqueIndex:purchases_order_id_key"`
	LicenseType   enums.LicenseType `gorm:"column:license_type;type:license_type;not null"`
	CustomerEmail string            `gorm:"column:customer_email;not null"`
	DownloadToken string            `gorm:"column:download_token;not null;uniqueIndex:purchases_download_token_key"`
	ExpiresAt     time.Time         `gorm:"column:expires_at;not null"`
	TransactionID string            `gorm:"column:transaction_id;not null"`
	Amount        decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	IsDownloaded  bool              `gorm:"column:is_downloaded;not null;default:false"`
	Addons        []PurchaseAddon   `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Expired reports whether the redemption window has closed as of now.
func (p *Purchase) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// PurchaseAddon is the per-deliverable line item created atomically with its
// parent purchase.
type PurchaseAddon struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseID  uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null"`
	Type        enums.AddonType `gorm:"column:type;type:addon_type;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DownloadURL string          `gorm:"column:download_url;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
