package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/pkg/enums"
)

// License is static reference data describing one license tier.
type License struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"column:name;not null;uniqueIndex"`
	Type        enums.LicenseType `gorm:"column:type;type:license_type;not null"`
	Description string            `gorm:"column:description;not null"`
	BasePrice   decimal.Decimal   `gorm:"column:base_price;type:numeric(12,2);not null"`
	Rights      pq.StringArray    `gorm:"column:rights;type:text[];not null;default:ARRAY[]::text[]"`
	AllowsStems bool              `gorm:"column:allows_stems;not null;default:false"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
