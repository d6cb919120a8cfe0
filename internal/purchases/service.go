package purchases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/internal/orders"
	"github.com/arlomercer/beatvault-backend/pkg/db"
	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
	"github.com/arlomercer/beatvault-backend/pkg/mailer"
	"github.com/arlomercer/beatvault-backend/pkg/metrics"
	"github.com/arlomercer/beatvault-backend/pkg/paypal"
)

type providerOrderCapturer interface {
	CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureOrderResult, error)
}

type addonReader interface {
	FindAddonsByTypes(ctx context.Context, types []enums.AddonType) ([]models.Addon, error)
}

type beatReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Beat, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CaptureResult is returned to the storefront once payment settles.
type CaptureResult struct {
	Success         bool      `json:"success"`
	DownloadPageURL string    `json:"downloadPageUrl"`
	PurchaseID      uuid.UUID `json:"purchaseId"`
}

// Service settles provider orders into durable purchases.
type Service interface {
	Capture(ctx context.Context, paypalOrderID string) (*CaptureResult, error)
}

// ServiceParams collects the capture service dependencies.
type ServiceParams struct {
	Repo         *Repository
	OrderRepo    *orders.Repository
	Beats        beatReader
	Addons       addonReader
	Provider     providerOrderCapturer
	TxRunner     txRunner
	Mailer       mailer.Sender
	Metrics      *metrics.StoreMetrics
	Logger       *logger.Logger
	PublicURL    string
	DownloadBase string
	TokenTTL     time.Duration
}

type service struct {
	repo         *Repository
	orderRepo    *orders.Repository
	beats        beatReader
	addons       addonReader
	provider     providerOrderCapturer
	txRunner     txRunner
	mailer       mailer.Sender
	metrics      *metrics.StoreMetrics
	logger       *logger.Logger
	publicURL    string
	downloadBase string
	tokenTTL     time.Duration
}

// NewService constructs the capture service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Beats == nil {
		return nil, fmt.Errorf("beat reader required")
	}
	if params.Addons == nil {
		return nil, fmt.Errorf("addon reader required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &service{
		repo:         params.Repo,
		orderRepo:    params.OrderRepo,
		beats:        params.Beats,
		addons:       params.Addons,
		provider:     params.Provider,
		txRunner:     params.TxRunner,
		mailer:       params.Mailer,
		metrics:      params.Metrics,
		logger:       params.Logger,
		publicURL:    strings.TrimRight(params.PublicURL, "/"),
		downloadBase: params.DownloadBase,
		tokenTTL:     params.TokenTTL,
	}, nil
}

// Capture settles the provider order and records the purchase exactly once.
// A second capture of a COMPLETED order returns the existing purchase.
func (s *service) Capture(ctx context.Context, paypalOrderID string) (*CaptureResult, error) {
	order, err := s.orderRepo.FindByPayPalOrderID(ctx, paypalOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncCapture("not_found")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	switch order.Status {
	case enums.OrderStatusCompleted:
		s.metrics.IncCapture("replay")
		return s.existingResult(ctx, order.ID)
	case enums.OrderStatusFailed:
		s.metrics.IncCapture("terminal")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already failed")
	}

	captured, err := s.provider.CaptureOrder(ctx, paypalOrderID)
	if err != nil {
		if _, txErr := s.orderRepo.TransitionFromPending(ctx, order.ID, enums.OrderStatusFailed, ""); txErr != nil {
			s.logger.Warn(ctx, fmt.Sprintf("could not mark order %s failed: %v", order.ID, txErr))
		}
		s.metrics.IncCapture("provider_error")
		return nil, err
	}
	if captured.Status != "COMPLETED" {
		if _, txErr := s.orderRepo.TransitionFromPending(ctx, order.ID, enums.OrderStatusFailed, ""); txErr != nil {
			s.logger.Warn(ctx, fmt.Sprintf("could not mark order %s failed: %v", order.ID, txErr))
		}
		s.metrics.IncCapture("not_completed")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment was not completed").
			WithDetails(map[string]string{"status": captured.Status})
	}

	token, err := NewDownloadToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate download token")
	}

	beat := order.Beat
	if beat == nil {
		beat, err = s.beats.FindByID(ctx, order.BeatID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beat")
		}
	}

	addonRows, err := s.buildAddonRows(ctx, order, beat)
	if err != nil {
		return nil, err
	}

	orderID := order.ID
	expiresAt := time.Now().Add(s.tokenTTL)
	purchase := &models.Purchase{
		BeatID:        order.BeatID,
		OrderID:       &orderID,
		LicenseType:   order.LicenseType,
		CustomerEmail: captured.Payer.EmailAddress,
		DownloadToken: token,
		ExpiresAt:     expiresAt,
		TransactionID: captured.ID,
		Amount:        order.Amount,
		Addons:        addonRows,
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.orderRepo.WithTx(tx).TransitionFromPending(ctx, order.ID, enums.OrderStatusCompleted, captured.Payer.EmailAddress)
		if err != nil {
			return err
		}
		if !moved {
			return errAlreadyCaptured
		}
		_, err = s.repo.WithTx(tx).CreatePurchase(ctx, purchase)
		return err
	})
	if err != nil {
		if errors.Is(err, errAlreadyCaptured) || db.IsUniqueViolation(err, "purchases_order_id_key") {
			s.metrics.IncCapture("replay")
			return s.existingResult(ctx, order.ID)
		}
		s.metrics.IncCapture("db_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record purchase")
	}

	s.sendConfirmation(ctx, purchase, beat)

	s.metrics.IncCapture("captured")
	return &CaptureResult{
		Success:         true,
		DownloadPageURL: s.downloadPageURL(token),
		PurchaseID:      purchase.ID,
	}, nil
}

var errAlreadyCaptured = errors.New("order already captured")

func (s *service) existingResult(ctx context.Context, orderID uuid.UUID) (*CaptureResult, error) {
	purchase, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already settled without a purchase")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	return &CaptureResult{
		Success:         true,
		DownloadPageURL: s.downloadPageURL(purchase.DownloadToken),
		PurchaseID:      purchase.ID,
	}, nil
}

func (s *service) buildAddonRows(ctx context.Context, order *models.Order, beat *models.Beat) ([]models.PurchaseAddon, error) {
	if len(order.AddonTypes) == 0 {
		return nil, nil
	}
	types := make([]enums.AddonType, 0, len(order.AddonTypes))
	for _, raw := range order.AddonTypes {
		t, err := enums.ParseAddonType(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order carries an unknown addon type")
		}
		types = append(types, t)
	}

	addons, err := s.addons.FindAddonsByTypes(ctx, types)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load addons")
	}
	if len(addons) != len(types) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order references a retired addon")
	}

	rows := make([]models.PurchaseAddon, 0, len(addons))
	for _, addon := range addons {
		rows = append(rows, models.PurchaseAddon{
			Type:        addon.Type,
			Price:       addon.Price,
			DownloadURL: AddonDownloadURL(s.downloadBase, addon.Type, beat),
		})
	}
	return rows, nil
}

func (s *service) sendConfirmation(ctx context.Context, purchase *models.Purchase, beat *models.Beat) {
	if s.mailer == nil || purchase.CustomerEmail == "" {
		return
	}

	email := mailer.PurchaseConfirmation(purchase.CustomerEmail, beat.Title, s.downloadPageURL(purchase.DownloadToken), purchase.ExpiresAt)
	email.To = purchase.CustomerEmail

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if sendErr := s.mailer.Send(ctx, email); sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		// The purchase stands even when the email never leaves.
		s.logger.Warn(ctx, fmt.Sprintf("confirmation email failed for purchase %s: %v", purchase.ID, err))
	}
}

func (s *service) downloadPageURL(token string) string {
	return s.publicURL + "/download/" + token
}

// AddonDownloadURL resolves the deliverable URL for an addon. The beat's own
// stems/midi upload wins; otherwise the conventional path under the download
// base serves it.
func AddonDownloadURL(base string, t enums.AddonType, beat *models.Beat) string {
	switch t {
	case enums.AddonTypeStems:
		if beat.StemsURL != nil && *beat.StemsURL != "" {
			return *beat.StemsURL
		}
	case enums.AddonTypeMIDI:
		if beat.MIDIURL != nil && *beat.MIDIURL != "" {
			return *beat.MIDIURL
		}
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), strings.ToLower(t.String()), beat.ID)
}
