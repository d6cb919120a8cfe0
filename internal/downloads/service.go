package downloads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	"github.com/arlomercer/beatvault-backend/pkg/enums"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
	"github.com/arlomercer/beatvault-backend/pkg/metrics"
)

type purchaseStore interface {
	FindByToken(ctx context.Context, token string) (*models.Purchase, error)
	MarkDownloaded(ctx context.Context, id uuid.UUID) error
}

// FileLink is one downloadable deliverable.
type FileLink struct {
	Label string `json:"label"`
	Type  string `json:"type"`
	URL   string `json:"url"`
}

// Payload is the redemption response for a valid token.
type Payload struct {
	BeatTitle   string            `json:"beatTitle"`
	BeatNumber  string            `json:"beatNumber"`
	LicenseType enums.LicenseType `json:"licenseType"`
	Files       []FileLink        `json:"files"`
	ExpiresAt   time.Time         `json:"expiresAt"`
}

// Service redeems download tokens.
type Service interface {
	Redeem(ctx context.Context, token string) (*Payload, error)
}

type service struct {
	purchases purchaseStore
	metrics   *metrics.StoreMetrics
	logger    *logger.Logger
}

// NewService constructs a download service instance.
func NewService(purchases purchaseStore, store *metrics.StoreMetrics, logg *logger.Logger) (Service, error) {
	if purchases == nil {
		return nil, fmt.Errorf("purchase store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		purchases: purchases,
		metrics:   store,
		logger:    logg,
	}, nil
}

// errTokenInvalid is the single response for unknown and expired tokens, so a
// probe cannot tell whether a token ever existed.
var errTokenInvalid = pkgerrors.New(pkgerrors.CodeNotFound, "download link is invalid or has expired")

// Redeem resolves the token to its file links. Tokens stay redeemable until
// expiry; the first redemption flags the purchase as downloaded.
func (s *service) Redeem(ctx context.Context, token string) (*Payload, error) {
	if token == "" {
		s.metrics.IncDownload("invalid")
		return nil, errTokenInvalid
	}

	purchase, err := s.purchases.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncDownload("unknown")
			return nil, errTokenInvalid
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}

	if purchase.Expired(time.Now()) {
		s.metrics.IncDownload("expired")
		return nil, errTokenInvalid
	}
	if purchase.Beat == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchase has no beat")
	}

	if !purchase.IsDownloaded {
		if err := s.purchases.MarkDownloaded(ctx, purchase.ID); err != nil {
			s.logger.Warn(ctx, fmt.Sprintf("could not flag purchase %s as downloaded: %v", purchase.ID, err))
		}
	}

	files := []FileLink{{
		Label: "WAV master",
		Type:  "wav",
		URL:   purchase.Beat.WavURL,
	}}
	for _, addon := range purchase.Addons {
		files = append(files, FileLink{
			Label: addon.Type.String(),
			Type:  addon.Type.String(),
			URL:   addon.DownloadURL,
		})
	}

	s.metrics.IncDownload("redeemed")
	return &Payload{
		BeatTitle:   purchase.Beat.Title,
		BeatNumber:  purchase.Beat.BeatNumber,
		LicenseType: purchase.LicenseType,
		Files:       files,
		ExpiresAt:   purchase.ExpiresAt,
	}, nil
}
