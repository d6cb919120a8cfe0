package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/internal/pricing"
	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/metrics"
	"github.com/arlomercer/beatvault-backend/pkg/paypal"
)

type providerOrderCreator interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal) (*paypal.CreateOrderResult, error)
}

// CreateOrderInput is the validated payload for opening a payment order.
type CreateOrderInput struct {
	BeatID    uuid.UUID
	LicenseID uuid.UUID
	AddonIDs  []uuid.UUID
	Amount    decimal.Decimal
}

// CreateOrderResult carries both the internal and the provider order ids.
type CreateOrderResult struct {
	ID            uuid.UUID `json:"id"`
	PayPalOrderID string    `json:"orderId"`
}

// Service opens payment orders against the provider.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
}

type service struct {
	repo    *Repository
	pricing pricing.Service
	paypal  providerOrderCreator
	metrics *metrics.StoreMetrics
}

// NewService constructs an order service instance.
func NewService(repo *Repository, pricingSvc pricing.Service, provider providerOrderCreator, store *metrics.StoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if pricingSvc == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	return &service{
		repo:    repo,
		pricing: pricingSvc,
		paypal:  provider,
		metrics: store,
	}, nil
}

// Create quotes the selection, verifies the supplied amount, opens the
// provider order, and only then inserts the PENDING row.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	quote, err := s.pricing.Quote(ctx, input.BeatID, input.LicenseID, input.AddonIDs)
	if err != nil {
		s.metrics.IncOrderCreated("rejected")
		return nil, err
	}
	if err := s.pricing.VerifyAmount(quote.Total, input.Amount); err != nil {
		s.metrics.IncOrderCreated("amount_mismatch")
		return nil, err
	}

	provider, err := s.paypal.CreateOrder(ctx, quote.Total)
	if err != nil {
		s.metrics.IncOrderCreated("provider_error")
		return nil, err
	}

	addonTypes := make(pq.StringArray, 0, len(quote.Addons))
	for _, addon := range quote.Addons {
		addonTypes = append(addonTypes, addon.Type.String())
	}

	order := &models.Order{
		PayPalOrderID: provider.ID,
		BeatID:        quote.Beat.ID,
		LicenseType:   quote.License.Type,
		AddonTypes:    addonTypes,
		Amount:        quote.Total,
		Status:        enums.OrderStatusPending,
	}
	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		s.metrics.IncOrderCreated("db_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
	}

	s.metrics.IncOrderCreated("created")
	return &CreateOrderResult{
		ID:            created.ID,
		PayPalOrderID: created.PayPalOrderID,
	}, nil
}
