package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
)

type stubBeats struct {
	beat *models.Beat
	err  error
}

func (s *stubBeats) FindActiveByID(context.Context, uuid.UUID) (*models.Beat, error) {
	return s.beat, s.err
}

type stubReference struct {
	license *models.License
	addons  map[uuid.UUID]models.Addon
	err     error
}

func (s *stubReference) FindLicenseByID(context.Context, uuid.UUID) (*models.License, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.license, nil
}

func (s *stubReference) FindAddonsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Addon, error) {
	out := make([]models.Addon, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.addons[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	stemsID = uuid.New()
	midiID  = uuid.New()
)

func fixtureService(t *testing.T) Service {
	t.Helper()
	beats := &stubBeats{beat: &models.Beat{ID: uuid.New(), IsActive: true}}
	ref := &stubReference{
		license: &models.License{
			ID:        uuid.New(),
			Type:      enums.LicenseTypeExclusive,
			BasePrice: dec("99.00"),
			IsActive:  true,
		},
		addons: map[uuid.UUID]models.Addon{
			stemsID: {ID: stemsID, Type: enums.AddonTypeStems, Price: dec("200.00")},
			midiID:  {ID: midiID, Type: enums.AddonTypeMIDI, Price: dec("100.00")},
		},
	}
	svc, err := NewService(beats, ref)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestQuoteSumsLicenseAndAddons(t *testing.T) {
	svc := fixtureService(t)
	ctx := context.Background()

	quote, err := svc.Quote(ctx, uuid.New(), uuid.New(), []uuid.UUID{stemsID})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !quote.Total.Equal(dec("299.00")) {
		t.Fatalf("expected total 299.00, got %s", quote.Total)
	}

	both, err := svc.Quote(ctx, uuid.New(), uuid.New(), []uuid.UUID{midiID, stemsID})
	if err != nil {
		t.Fatalf("quote with both addons: %v", err)
	}
	if !both.Total.Equal(dec("399.00")) {
		t.Fatalf("expected total 399.00, got %s", both.Total)
	}
}

func TestQuoteRejectsDuplicateAddons(t *testing.T) {
	svc := fixtureService(t)

	_, err := svc.Quote(context.Background(), uuid.New(), uuid.New(), []uuid.UUID{stemsID, stemsID})
	if err == nil {
		t.Fatal("expected validation error for duplicate addons")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestQuoteUnknownAddonIsNotFound(t *testing.T) {
	svc := fixtureService(t)

	_, err := svc.Quote(context.Background(), uuid.New(), uuid.New(), []uuid.UUID{uuid.New()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown addon, got %v", err)
	}
}

func TestQuoteMissingBeatIsNotFound(t *testing.T) {
	ref := &stubReference{license: &models.License{BasePrice: dec("19.99"), IsActive: true}}
	svc, err := NewService(&stubBeats{err: gorm.ErrRecordNotFound}, ref)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Quote(context.Background(), uuid.New(), uuid.New(), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQuoteInactiveLicenseIsNotFound(t *testing.T) {
	beats := &stubBeats{beat: &models.Beat{IsActive: true}}
	ref := &stubReference{license: &models.License{BasePrice: dec("19.99"), IsActive: false}}
	svc, err := NewService(beats, ref)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Quote(context.Background(), uuid.New(), uuid.New(), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive license, got %v", err)
	}
}

func TestVerifyAmountTolerance(t *testing.T) {
	svc := fixtureService(t)

	if err := svc.VerifyAmount(dec("299.00"), dec("299.00")); err != nil {
		t.Fatalf("exact amount rejected: %v", err)
	}
	if err := svc.VerifyAmount(dec("299.00"), dec("299.01")); err != nil {
		t.Fatalf("amount within tolerance rejected: %v", err)
	}
	if err := svc.VerifyAmount(dec("299.00"), dec("298.99")); err != nil {
		t.Fatalf("amount within tolerance rejected: %v", err)
	}

	err := svc.VerifyAmount(dec("299.00"), dec("300.00"))
	if err == nil {
		t.Fatal("expected mismatch to be rejected")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict code, got %v", err)
	}
}
