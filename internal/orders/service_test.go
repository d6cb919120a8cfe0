package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/internal/pricing"
	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/paypal"
)

type stubProvider struct {
	calls int
	err   error
}

func (s *stubProvider) CreateOrder(context.Context, decimal.Decimal) (*paypal.CreateOrderResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &paypal.CreateOrderResult{ID: "PP-1", Status: "CREATED"}, nil
}

type stubBeats struct {
	beat *models.Beat
}

func (s *stubBeats) FindActiveByID(context.Context, uuid.UUID) (*models.Beat, error) {
	if s.beat == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.beat, nil
}

type stubReference struct {
	license *models.License
}

func (s *stubReference) FindLicenseByID(context.Context, uuid.UUID) (*models.License, error) {
	return s.license, nil
}

func (s *stubReference) FindAddonsByIDs(context.Context, []uuid.UUID) ([]models.Addon, error) {
	return nil, nil
}

func newCreateFixture(t *testing.T, provider *stubProvider) (Service, CreateOrderInput) {
	t.Helper()
	beat := &models.Beat{ID: uuid.New(), IsActive: true}
	license := &models.License{
		ID:        uuid.New(),
		Type:      enums.LicenseTypeExclusive,
		BasePrice: decimal.RequireFromString("299.00"),
		IsActive:  true,
	}

	pricingSvc, err := pricing.NewService(&stubBeats{beat: beat}, &stubReference{license: license})
	if err != nil {
		t.Fatalf("pricing service: %v", err)
	}
	svc, err := NewService(NewRepository(nil), pricingSvc, provider, nil)
	if err != nil {
		t.Fatalf("order service: %v", err)
	}

	return svc, CreateOrderInput{
		BeatID:    beat.ID,
		LicenseID: license.ID,
		Amount:    decimal.RequireFromString("299.00"),
	}
}

func TestCreateRejectsMismatchedAmountBeforeProviderCall(t *testing.T) {
	provider := &stubProvider{}
	svc, input := newCreateFixture(t, provider)
	input.Amount = decimal.RequireFromString("300.00")

	_, err := svc.Create(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for mismatched amount, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("expected no provider order for mismatched amount, got %d", provider.calls)
	}
}

func TestCreateAcceptsAmountWithinTolerance(t *testing.T) {
	// The failing provider both proves the amount check passed and stops the
	// flow before it reaches persistence.
	provider := &stubProvider{err: pkgerrors.New(pkgerrors.CodeDependency, "provider unavailable")}
	svc, input := newCreateFixture(t, provider)
	input.Amount = decimal.RequireFromString("299.01")

	_, err := svc.Create(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected the provider error to surface, got %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected one provider order, got %d", provider.calls)
	}
}

func TestCreateRejectsUnknownBeatBeforeProviderCall(t *testing.T) {
	provider := &stubProvider{}
	license := &models.License{
		ID:        uuid.New(),
		Type:      enums.LicenseTypeNonExclusive,
		BasePrice: decimal.RequireFromString("19.99"),
		IsActive:  true,
	}
	pricingSvc, err := pricing.NewService(&stubBeats{}, &stubReference{license: license})
	if err != nil {
		t.Fatalf("pricing service: %v", err)
	}
	svc, err := NewService(NewRepository(nil), pricingSvc, provider, nil)
	if err != nil {
		t.Fatalf("order service: %v", err)
	}

	_, err = svc.Create(context.Background(), CreateOrderInput{
		BeatID:    uuid.New(),
		LicenseID: license.ID,
		Amount:    decimal.RequireFromString("19.99"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown beat, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("expected no provider order for unknown beat, got %d", provider.calls)
	}
}
