package reference

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
)

// Service exposes reads over the static license and addon catalogs.
type Service interface {
	ListLicenses(ctx context.Context) ([]LicenseDTO, error)
	ListAddons(ctx context.Context) ([]AddonDTO, error)
}

// LicenseDTO is the storefront view of one license tier.
type LicenseDTO struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Type        enums.LicenseType `json:"type"`
	Description string            `json:"description"`
	BasePrice   string            `json:"basePrice"`
	Rights      []string          `json:"rights"`
	AllowsStems bool              `json:"allowsStems"`
}

// AddonDTO is the storefront view of one addon.
type AddonDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Type        enums.AddonType `json:"type"`
	Description string          `json:"description"`
	Price       string          `json:"price"`
}

// NewLicenseDTO maps a license row to its storefront view.
func NewLicenseDTO(license *models.License) LicenseDTO {
	return LicenseDTO{
		ID:          license.ID,
		Name:        license.Name,
		Type:        license.Type,
		Description: license.Description,
		BasePrice:   license.BasePrice.StringFixed(2),
		Rights:      append([]string(nil), license.Rights...),
		AllowsStems: license.AllowsStems,
	}
}

// NewAddonDTO maps an addon row to its storefront view.
func NewAddonDTO(addon *models.Addon) AddonDTO {
	return AddonDTO{
		ID:          addon.ID,
		Name:        addon.Name,
		Type:        addon.Type,
		Description: addon.Description,
		Price:       addon.Price.StringFixed(2),
	}
}

type service struct {
	repo *Repository
}

// NewService constructs a reference data service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reference repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListLicenses(ctx context.Context) ([]LicenseDTO, error) {
	licenses, err := s.repo.ListLicenses(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []LicenseDTO{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list licenses")
	}
	out := make([]LicenseDTO, 0, len(licenses))
	for i := range licenses {
		out = append(out, NewLicenseDTO(&licenses[i]))
	}
	return out, nil
}

func (s *service) ListAddons(ctx context.Context) ([]AddonDTO, error) {
	addons, err := s.repo.ListAddons(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []AddonDTO{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addons")
	}
	out := make([]AddonDTO, 0, len(addons))
	for i := range addons {
		out = append(out, NewAddonDTO(&addons[i]))
	}
	return out, nil
}
