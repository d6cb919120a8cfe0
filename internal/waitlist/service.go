package waitlist

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db"
	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
)

// Repository persists waitlist signups.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// CreateEntry inserts one signup row.
func (r *Repository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Service records launch-notification signups.
type Service interface {
	Join(ctx context.Context, email string) error
}

type service struct {
	repo *Repository
}

// NewService constructs a waitlist service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("waitlist repository required")
	}
	return &service{repo: repo}, nil
}

// Join stores the email once; repeat signups surface as a conflict.
func (s *service) Join(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	entry := &models.WaitlistEntry{Email: email}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "waitlist_entries_email_key") {
			return pkgerrors.New(pkgerrors.CodeConflict, "email is already on the waitlist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert waitlist entry")
	}
	return nil
}
