package lemonsqueezywebhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db"
	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
	"github.com/arlomercer/beatvault-backend/pkg/metrics"
)

type purchaseCreator interface {
	CreatePurchase(ctx context.Context, purchase *models.Purchase) (*models.Purchase, error)
}

type beatReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Beat, error)
}

type referenceReader interface {
	FindLicenseByID(ctx context.Context, id uuid.UUID) (*models.License, error)
	FindAddonsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Addon, error)
}

// ServiceParams collects the webhook service dependencies.
type ServiceParams struct {
	PurchaseRepo purchaseCreator
	Beats        beatReader
	Reference    referenceReader
	Metrics      *metrics.StoreMetrics
	Logger       *logger.Logger
	DownloadBase string
	TokenTTL     time.Duration
}

// Service turns verified order_created events into purchases.
type Service struct {
	purchaseRepo purchaseCreator
	beats        beatReader
	reference    referenceReader
	metrics      *metrics.StoreMetrics
	logger       *logger.Logger
	downloadBase string
	tokenTTL     time.Duration
}

// NewService constructs the webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.PurchaseRepo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if params.Beats == nil {
		return nil, fmt.Errorf("beat reader required")
	}
	if params.Reference == nil {
		return nil, fmt.Errorf("reference reader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &Service{
		purchaseRepo: params.PurchaseRepo,
		beats:        params.Beats,
		reference:    params.Reference,
		metrics:      params.Metrics,
		logger:       params.Logger,
		downloadBase: strings.TrimRight(params.DownloadBase, "/"),
		tokenTTL:     params.TokenTTL,
	}, nil
}

// HandleEvent records the purchase carried by an order_created event. Other
// event types are acknowledged without side effects. A replayed event carries
// the same download token, so the unique token constraint turns replays into
// the already-processed path even if the Redis guard misses.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}
	if event.Meta.EventName != EventOrderCreated {
		s.metrics.IncWebhookEvent("ignored")
		return nil
	}

	data, err := event.ParseCheckoutData()
	if err != nil {
		s.metrics.IncWebhookEvent("malformed")
		return err
	}

	beatID, err := uuid.Parse(data.BeatID)
	if err != nil {
		s.metrics.IncWebhookEvent("malformed")
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse beat id")
	}
	licenseID, err := uuid.Parse(data.LicenseID)
	if err != nil {
		s.metrics.IncWebhookEvent("malformed")
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse license id")
	}
	addonIDs := make([]uuid.UUID, 0, len(data.AddonIDs))
	for _, raw := range data.AddonIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.metrics.IncWebhookEvent("malformed")
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse addon id")
		}
		addonIDs = append(addonIDs, id)
	}

	beat, err := s.beats.FindByID(ctx, beatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncWebhookEvent("unknown_beat")
			return pkgerrors.New(pkgerrors.CodeNotFound, "beat not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beat")
	}

	license, err := s.reference.FindLicenseByID(ctx, licenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncWebhookEvent("unknown_license")
			return pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load license")
	}

	addons, err := s.reference.FindAddonsByIDs(ctx, addonIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load addons")
	}
	if len(addons) != len(addonIDs) {
		s.metrics.IncWebhookEvent("unknown_addon")
		return pkgerrors.New(pkgerrors.CodeNotFound, "addon not found")
	}

	amount := license.BasePrice
	addonRows := make([]models.PurchaseAddon, 0, len(addons))
	for _, addon := range addons {
		amount = amount.Add(addon.Price)
		addonRows = append(addonRows, models.PurchaseAddon{
			Type:  addon.Type,
			Price: addon.Price,
			// Webhook deliverables are always served from the download base.
			DownloadURL: fmt.Sprintf("%s/%s/%s", s.downloadBase, strings.ToLower(addon.Type.String()), beat.ID),
		})
	}

	purchase := &models.Purchase{
		BeatID:        beat.ID,
		LicenseType:   license.Type,
		CustomerEmail: strings.ToLower(strings.TrimSpace(event.Data.Attributes.CustomerEmail)),
		DownloadToken: data.DownloadToken,
		ExpiresAt:     time.Now().Add(s.tokenTTL),
		TransactionID: event.Data.ID,
		Amount:        amount,
		Addons:        addonRows,
	}

	if _, err := s.purchaseRepo.CreatePurchase(ctx, purchase); err != nil {
		if db.IsUniqueViolation(err, "purchases_download_token_key") {
			s.metrics.IncWebhookEvent("replay")
			s.logger.Info(ctx, fmt.Sprintf("event %s already recorded", event.Data.ID))
			return nil
		}
		s.metrics.IncWebhookEvent("db_error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert purchase")
	}

	s.metrics.IncWebhookEvent("processed")
	return nil
}
