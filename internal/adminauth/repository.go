package adminauth

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
)

// Repository wires together admin user and OTP persistence helpers.
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

// FindAdminByEmail loads the admin account for the email, if any.
func (r *Repository) FindAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.WithContext(ctx).First(&admin, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// UpsertOTP replaces the outstanding code for the email. One live code per
// admin at a time.
func (r *Repository) UpsertOTP(ctx context.Context, otp *models.OTPVerification) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "verified", "updated_at"}),
		}).
		Create(otp).Error
}

// FindOTPByEmail loads the outstanding code for the email.
func (r *Repository) FindOTPByEmail(ctx context.Context, email string) (*models.OTPVerification, error) {
	var otp models.OTPVerification
	if err := r.db.WithContext(ctx).First(&otp, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &otp, nil
}

// MarkOTPVerified consumes the code.
func (r *Repository) MarkOTPVerified(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).
		Model(&models.OTPVerification{}).
		Where("email = ? AND verified = false", email).
		Update("verified", true).Error
}
