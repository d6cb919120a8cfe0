package lemonsqueezywebhook

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

type stubPurchaseCreator struct {
	created []*models.Purchase
	err     error
}

func (s *stubPurchaseCreator) CreatePurchase(_ context.Context, purchase *models.Purchase) (*models.Purchase, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, purchase)
	return purchase, nil
}

type stubBeats struct {
	beat *models.Beat
}

func (s *stubBeats) FindByID(context.Context, uuid.UUID) (*models.Beat, error) {
	if s.beat == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.beat, nil
}

type stubReference struct {
	license *models.License
	addons  map[uuid.UUID]models.Addon
}

func (s *stubReference) FindLicenseByID(context.Context, uuid.UUID) (*models.License, error) {
	if s.license == nil {
		return nil, gorm.ErrRecordNotFound
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

func eventBody(eventName, eventID string, data *CheckoutData) *Event {
	event := &Event{}
	event.Meta.EventName = eventName
	event.Data.ID = eventID
	event.Data.Attributes.CustomerEmail = "Buyer@Example.com"
	if data != nil {
		raw := fmt.Sprintf(
			`{"beatId":%q,"licenseId":%q,"addonIds":[%s],"downloadToken":%q}`,
			data.BeatID, data.LicenseID, joinQuoted(data.AddonIDs), data.DownloadToken,
		)
		event.Data.Attributes.CheckoutData = []byte(raw)
	}
	return event
}

func joinQuoted(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%q", v)
	}
	return out
}

func newTestService(t *testing.T, creator *stubPurchaseCreator, beats *stubBeats, ref *stubReference) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		PurchaseRepo: creator,
		Beats:        beats,
		Reference:    ref,
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		DownloadBase: "https://dl.example.com",
		TokenTTL:     720 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func fixtures() (*stubBeats, *stubReference, uuid.UUID) {
	stemsID := uuid.New()
	beats := &stubBeats{beat: &models.Beat{ID: uuid.New(), Title: "Night Drive"}}
	ref := &stubReference{
		license: &models.License{
			ID:        uuid.New(),
			Type:      enums.LicenseTypeExclusive,
			BasePrice: decimal.RequireFromString("99.00"),
			IsActive:  true,
		},
		addons: map[uuid.UUID]models.Addon{
			stemsID: {ID: stemsID, Type: enums.AddonTypeStems, Price: decimal.RequireFromString("200.00")},
		},
	}
	return beats, ref, stemsID
}

func TestHandleEventRecordsPurchase(t *testing.T) {
	beats, ref, stemsID := fixtures()
	creator := &stubPurchaseCreator{}
	svc := newTestService(t, creator, beats, ref)

	event := eventBody(EventOrderCreated, "evt-1", &CheckoutData{
		BeatID:        beats.beat.ID.String(),
		LicenseID:     ref.license.ID.String(),
		AddonIDs:      []string{stemsID.String()},
		DownloadToken: "feedfacefeedfacefeedfacefeedface",
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(creator.created) != 1 {
		t.Fatalf("expected one purchase, got %d", len(creator.created))
	}

	purchase := creator.created[0]
	if purchase.DownloadToken != "feedfacefeedfacefeedfacefeedface" {
		t.Fatalf("expected supplied token kept, got %q", purchase.DownloadToken)
	}
	if !purchase.Amount.Equal(decimal.RequireFromString("299.00")) {
		t.Fatalf("expected amount 299.00, got %s", purchase.Amount)
	}
	if purchase.CustomerEmail != "buyer@example.com" {
		t.Fatalf("expected normalized email, got %q", purchase.CustomerEmail)
	}
	if purchase.TransactionID != "evt-1" {
		t.Fatalf("expected event id as transaction id, got %q", purchase.TransactionID)
	}
	wantURL := fmt.Sprintf("https://dl.example.com/stems/%s", beats.beat.ID)
	if len(purchase.Addons) != 1 || purchase.Addons[0].DownloadURL != wantURL {
		t.Fatalf("expected addon url %q, got %+v", wantURL, purchase.Addons)
	}
	if remaining := time.Until(purchase.ExpiresAt); remaining < 719*time.Hour || remaining > 721*time.Hour {
		t.Fatalf("expected ~30 day expiry, got %s", remaining)
	}
}

func TestHandleEventIgnoresOtherEventTypes(t *testing.T) {
	beats, ref, _ := fixtures()
	creator := &stubPurchaseCreator{}
	svc := newTestService(t, creator, beats, ref)

	event := eventBody("subscription_created", "evt-2", nil)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected ignored event to succeed, got %v", err)
	}
	if len(creator.created) != 0 {
		t.Fatal("expected no purchase for ignored event")
	}
}

func TestHandleEventRejectsIncompleteCheckoutData(t *testing.T) {
	beats, ref, _ := fixtures()
	creator := &stubPurchaseCreator{}
	svc := newTestService(t, creator, beats, ref)

	event := eventBody(EventOrderCreated, "evt-3", &CheckoutData{
		BeatID:    beats.beat.ID.String(),
		LicenseID: ref.license.ID.String(),
		// no download token
	})

	err := svc.HandleEvent(context.Background(), event)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(creator.created) != 0 {
		t.Fatal("expected no purchase for malformed event")
	}
}

func TestParseEventRequiresEnvelopeFields(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"meta":{},"data":{"id":"x"}}`)); err == nil {
		t.Fatal("expected error for missing event name")
	}
	if _, err := ParseEvent([]byte(`{"meta":{"event_name":"order_created"},"data":{}}`)); err == nil {
		t.Fatal("expected error for missing event id")
	}
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
