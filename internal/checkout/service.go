package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/internal/pricing"
	"github.com/arlomercer/beatvault-backend/internal/purchases"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/lemonsqueezy"
	"github.com/arlomercer/beatvault-backend/pkg/metrics"
)

type checkoutCreator interface {
	CreateCheckout(ctx context.Context, amount decimal.Decimal, data lemonsqueezy.CheckoutData) (string, error)
}

// SessionInput is the validated payload for opening a hosted checkout.
type SessionInput struct {
	BeatID    uuid.UUID
	LicenseID uuid.UUID
	AddonIDs  []uuid.UUID
}

// SessionResult carries the hosted checkout URL.
type SessionResult struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// Service opens hosted checkout sessions. The download token is minted here
// and travels through the provider, coming back in the order webhook.
type Service interface {
	CreateSession(ctx context.Context, input SessionInput) (*SessionResult, error)
}

type service struct {
	pricing  pricing.Service
	provider checkoutCreator
	metrics  *metrics.StoreMetrics
}

// NewService constructs a checkout service instance.
func NewService(pricingSvc pricing.Service, provider checkoutCreator, store *metrics.StoreMetrics) (Service, error) {
	if pricingSvc == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if provider == nil {
		return nil, fmt.Errorf("checkout provider required")
	}
	return &service{
		pricing:  pricingSvc,
		provider: provider,
		metrics:  store,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, input SessionInput) (*SessionResult, error) {
	quote, err := s.pricing.Quote(ctx, input.BeatID, input.LicenseID, input.AddonIDs)
	if err != nil {
		s.metrics.IncOrderCreated("rejected")
		return nil, err
	}

	token, err := purchases.NewDownloadToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate download token")
	}

	addonIDs := make([]string, 0, len(quote.Addons))
	for _, addon := range quote.Addons {
		addonIDs = append(addonIDs, addon.ID.String())
	}

	url, err := s.provider.CreateCheckout(ctx, quote.Total, lemonsqueezy.CheckoutData{
		BeatID:        quote.Beat.ID.String(),
		LicenseID:     quote.License.ID.String(),
		AddonIDs:      addonIDs,
		DownloadToken: token,
	})
	if err != nil {
		s.metrics.IncOrderCreated("provider_error")
		return nil, err
	}

	s.metrics.IncOrderCreated("created")
	return &SessionResult{CheckoutURL: url}, nil
}
