package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
)

// Tolerance is the largest computed/supplied difference accepted on a quote.
var Tolerance = decimal.RequireFromString("0.01")

type beatReader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Beat, error)
}

type referenceReader interface {
	FindLicenseByID(ctx context.Context, id uuid.UUID) (*models.License, error)
	FindAddonsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Addon, error)
}

// Quote is a fully-resolved price for one checkout selection.
type Quote struct {
	Beat    *models.Beat
	License *models.License
	Addons  []models.Addon
	Total   decimal.Decimal
}

// Service resolves checkout selections to authoritative totals.
type Service interface {
	Quote(ctx context.Context, beatID, licenseID uuid.UUID, addonIDs []uuid.UUID) (*Quote, error)
	VerifyAmount(computed, supplied decimal.Decimal) error
}

type service struct {
	beats     beatReader
	reference referenceReader
}

// NewService constructs a pricing service instance.
func NewService(beats beatReader, reference referenceReader) (Service, error) {
	if beats == nil {
		return nil, fmt.Errorf("beat reader required")
	}
	if reference == nil {
		return nil, fmt.Errorf("reference reader required")
	}
	return &service{beats: beats, reference: reference}, nil
}

// Quote loads the beat, license, and addons, and sums the authoritative total.
// Inactive or missing references surface as NotFound so a stale storefront
// cannot buy retired items.
func (s *service) Quote(ctx context.Context, beatID, licenseID uuid.UUID, addonIDs []uuid.UUID) (*Quote, error) {
	beat, err := s.beats.FindActiveByID(ctx, beatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "beat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beat")
	}

	license, err := s.reference.FindLicenseByID(ctx, licenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load license")
	}
	if !license.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
	}

	ids, err := dedupeIDs(addonIDs)
	if err != nil {
		return nil, err
	}

	addons, err := s.reference.FindAddonsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load addons")
	}
	if len(addons) != len(ids) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "addon not found")
	}

	total := license.BasePrice
	for _, addon := range addons {
		total = total.Add(addon.Price)
	}

	return &Quote{
		Beat:    beat,
		License: license,
		Addons:  addons,
		Total:   total,
	}, nil
}

// VerifyAmount accepts the supplied amount when it is within a cent of the
// computed total.
func (s *service) VerifyAmount(computed, supplied decimal.Decimal) error {
	if computed.Sub(supplied).Abs().GreaterThan(Tolerance) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "amount does not match the selected items").
			WithDetails(map[string]string{
				"expected": computed.StringFixed(2),
				"supplied": supplied.StringFixed(2),
			})
	}
	return nil
}

func dedupeIDs(raw []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(raw))
	out := make([]uuid.UUID, 0, len(raw))
	for _, id := range raw {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "addon id is required")
		}
		if _, ok := seen[id]; ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate addon id")
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
