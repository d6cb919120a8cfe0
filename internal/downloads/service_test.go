package downloads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

type stubPurchases struct {
	byToken map[string]*models.Purchase
	marked  []uuid.UUID
}

func (s *stubPurchases) FindByToken(_ context.Context, token string) (*models.Purchase, error) {
	if p, ok := s.byToken[token]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPurchases) MarkDownloaded(_ context.Context, id uuid.UUID) error {
	s.marked = append(s.marked, id)
	return nil
}

func validPurchase() *models.Purchase {
	return &models.Purchase{
		ID:          uuid.New(),
		LicenseType: enums.LicenseTypeExclusive,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
		Beat: &models.Beat{
			Title:      "Night Drive",
			BeatNumber: "1A2B3",
			WavURL:     "https://cdn.example.com/wavs/night.wav",
		},
		Addons: []models.PurchaseAddon{
			{Type: enums.AddonTypeStems, DownloadURL: "https://dl.example.com/stems/x"},
		},
	}
}

func newTestService(t *testing.T, store *stubPurchases) Service {
	t.Helper()
	svc, err := NewService(store, nil, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRedeemReturnsFileLinks(t *testing.T) {
	purchase := validPurchase()
	store := &stubPurchases{byToken: map[string]*models.Purchase{"tok": purchase}}
	svc := newTestService(t, store)

	payload, err := svc.Redeem(context.Background(), "tok")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if payload.BeatTitle != "Night Drive" {
		t.Fatalf("unexpected beat title %q", payload.BeatTitle)
	}
	if len(payload.Files) != 2 {
		t.Fatalf("expected wav + addon links, got %d", len(payload.Files))
	}
	if payload.Files[0].URL != purchase.Beat.WavURL {
		t.Fatalf("expected wav link first, got %q", payload.Files[0].URL)
	}
	if len(store.marked) != 1 || store.marked[0] != purchase.ID {
		t.Fatalf("expected purchase flagged as downloaded, got %v", store.marked)
	}
}

func TestRedeemIsMultiUseUntilExpiry(t *testing.T) {
	purchase := validPurchase()
	purchase.IsDownloaded = true
	store := &stubPurchases{byToken: map[string]*models.Purchase{"tok": purchase}}
	svc := newTestService(t, store)

	if _, err := svc.Redeem(context.Background(), "tok"); err != nil {
		t.Fatalf("redeem already-downloaded purchase: %v", err)
	}
	if len(store.marked) != 0 {
		t.Fatal("expected no second downloaded flag write")
	}
}

func TestRedeemUnknownAndExpiredAreIndistinguishable(t *testing.T) {
	expired := validPurchase()
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	store := &stubPurchases{byToken: map[string]*models.Purchase{"expired": expired}}
	svc := newTestService(t, store)

	_, unknownErr := svc.Redeem(context.Background(), "missing")
	_, expiredErr := svc.Redeem(context.Background(), "expired")

	for _, err := range []error{unknownErr, expiredErr} {
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if unknownErr.Error() != expiredErr.Error() {
		t.Fatalf("expected identical errors, got %q and %q", unknownErr, expiredErr)
	}
	if len(store.marked) != 0 {
		t.Fatal("expected no downloaded flag writes on invalid tokens")
	}
}

func TestRedeemExpiryBoundary(t *testing.T) {
	purchase := validPurchase()
	purchase.ExpiresAt = time.Now().Add(-time.Nanosecond)
	store := &stubPurchases{byToken: map[string]*models.Purchase{"tok": purchase}}
	svc := newTestService(t, store)

	if _, err := svc.Redeem(context.Background(), "tok"); err == nil {
		t.Fatal("expected expiry at the boundary to be rejected")
	}
}
