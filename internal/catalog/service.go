package catalog

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/arlomercer/beatvault-backend/pkg/db"
	"github.com/arlomercer/beatvault-backend/pkg/db/models"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
	"github.com/arlomercer/beatvault-backend/pkg/pagination"
	"github.com/arlomercer/beatvault-backend/pkg/storage/r2"
)

// Price bands enforced on every listing write.
var (
	nonExclusiveMin = decimal.RequireFromString("4.99")
	nonExclusiveMax = decimal.RequireFromString("19.99")
	exclusiveMin    = decimal.RequireFromString("99")
	exclusiveMax    = decimal.RequireFromString("599")
	buyoutMin       = decimal.RequireFromString("599")
	buyoutMax       = decimal.RequireFromString("4999")
)

const uploadURLTTL = 15 * time.Minute

// Service exposes catalog browse and management operations.
type Service interface {
	GetBeat(ctx context.Context, id uuid.UUID) (*BeatDTO, error)
	ListBeats(ctx context.Context, input ListBeatsInput) (*BeatListResult, error)
	CreateBeat(ctx context.Context, input CreateBeatInput) (*AdminBeatDTO, error)
	UpdateBeat(ctx context.Context, id uuid.UUID, input UpdateBeatInput) (*AdminBeatDTO, error)
	DeleteBeat(ctx context.Context, id uuid.UUID) error
	GetBeatAdmin(ctx context.Context, id uuid.UUID) (*AdminBeatDTO, error)
	ListBeatsAdmin(ctx context.Context, input ListBeatsInput) (*AdminBeatListResult, error)
	PresignUpload(ctx context.Context, input PresignUploadInput) (*PresignUploadResult, error)
}

// CreateBeatInput holds the validated payload to create a listing. The beat
// number is generated server-side.
type CreateBeatInput struct {
	Title             string
	BPM               int
	MusicalKey        string
	Genres            string
	TrackType         string
	Tags              []string
	DurationSeconds   int
	CoverImageURL     string
	PreviewMP3URL     string
	WavURL            string
	StemsURL          *string
	MIDIURL           *string
	NonExclusivePrice decimal.Decimal
	ExclusivePrice    decimal.Decimal
	BuyoutPrice       decimal.Decimal
	IsActive          bool
}

// UpdateBeatInput holds optional mutation values for a listing.
type UpdateBeatInput struct {
	Title             *string
	BeatNumber        *string
	BPM               *int
	MusicalKey        *string
	Genres            *string
	TrackType         *string
	Tags              *[]string
	DurationSeconds   *int
	CoverImageURL     *string
	PreviewMP3URL     *string
	WavURL            *string
	StemsURL          *string
	MIDIURL           *string
	NonExclusivePrice *decimal.Decimal
	ExclusivePrice    *decimal.Decimal
	BuyoutPrice       *decimal.Decimal
	IsActive          *bool
}

// PresignUploadInput names the object an admin wants to upload.
type PresignUploadInput struct {
	Kind        string
	Filename    string
	ContentType string
}

// PresignUploadResult carries the signed PUT URL and the public URL the
// uploaded object will be served from.
type PresignUploadResult struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

var uploadKinds = map[string]string{
	"cover":   "covers",
	"preview": "previews",
	"wav":     "wavs",
	"stems":   "stems",
	"midi":    "midi",
}

type service struct {
	repo    *Repository
	storage r2.Deleter
	signer  r2.Presigner
	logger  *logger.Logger
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, storage r2.Deleter, signer r2.Presigner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if storage == nil {
		return nil, fmt.Errorf("storage deleter required")
	}
	if signer == nil {
		return nil, fmt.Errorf("storage presigner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		storage: storage,
		signer:  signer,
		logger:  logg,
	}, nil
}

// GetBeat loads one active listing for the storefront.
func (s *service) GetBeat(ctx context.Context, id uuid.UUID) (*BeatDTO, error) {
	beat, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "beat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beat")
	}
	return NewBeatDTO(beat), nil
}

// ListBeats returns one storefront page of active listings.
func (s *service) ListBeats(ctx context.Context, input ListBeatsInput) (*BeatListResult, error) {
	input.IncludeInactive = false
	beats, total, err := s.repo.ListBeats(ctx, beatListQuery{
		Pagination: input.Pagination,
		Filters:    input.Filters,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list beats")
	}

	out := make([]BeatDTO, 0, len(beats))
	for i := range beats {
		out = append(out, *NewBeatDTO(&beats[i]))
	}
	return &BeatListResult{
		Beats: out,
		Meta:  pagination.NewMeta(input.Pagination, total),
	}, nil
}

// CreateBeat validates prices and inserts the listing.
func (s *service) CreateBeat(ctx context.Context, input CreateBeatInput) (*AdminBeatDTO, error) {
	if err := validatePriceBands(input.NonExclusivePrice, input.ExclusivePrice, input.BuyoutPrice); err != nil {
		return nil, err
	}

	beat := &models.Beat{
		Title:             strings.TrimSpace(input.Title),
		BPM:               input.BPM,
		MusicalKey:        strings.TrimSpace(input.MusicalKey),
		Genres:            strings.TrimSpace(input.Genres),
		TrackType:         strings.TrimSpace(input.TrackType),
		Tags:              append([]string(nil), input.Tags...),
		DurationSeconds:   input.DurationSeconds,
		CoverImageURL:     input.CoverImageURL,
		PreviewMP3URL:     input.PreviewMP3URL,
		WavURL:            input.WavURL,
		StemsURL:          input.StemsURL,
		MIDIURL:           input.MIDIURL,
		NonExclusivePrice: input.NonExclusivePrice,
		ExclusivePrice:    input.ExclusivePrice,
		BuyoutPrice:       input.BuyoutPrice,
		IsActive:          input.IsActive,
	}

	// Beat numbers are short, so regenerate on the rare collision.
	for attempt := 0; attempt < 3; attempt++ {
		number, err := newBeatNumber()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate beat number")
		}
		beat.BeatNumber = number

		created, err := s.repo.CreateBeat(ctx, beat)
		if err == nil {
			return NewAdminBeatDTO(created), nil
		}
		if !db.IsUniqueViolation(err, "beats_beat_number_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert beat")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a beat number")
}

// newBeatNumber returns a 5-char uppercase hex short code.
func newBeatNumber() (string, error) {
	var buf [3]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf[:]))[:5], nil
}

// UpdateBeat applies the partial update after re-validating prices.
func (s *service) UpdateBeat(ctx context.Context, id uuid.UUID, input UpdateBeatInput) (*AdminBeatDTO, error) {
	beat, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "beat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beat")
	}

	applyUpdateToBeat(beat, input)
	if err := validatePriceBands(beat.NonExclusivePrice, beat.ExclusivePrice, beat.BuyoutPrice); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateBeat(ctx, beat)
	if err != nil {
		if db.IsUniqueViolation(err, "beats_beat_number_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "beat number already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update beat")
	}
	return NewAdminBeatDTO(updated), nil
}

// DeleteBeat removes the listing and then best-effort deletes its stored
// assets. Asset cleanup failures are logged, not surfaced: the row is gone.
func (s *service) DeleteBeat(ctx context.Context, id uuid.UUID) error {
	beat, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "beat not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beat")
	}

	if err := s.repo.DeleteBeat(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete beat")
	}

	if err := s.deleteAssets(ctx, beat.AssetURLs()); err != nil {
		s.logger.Warn(ctx, fmt.Sprintf("asset cleanup incomplete for beat %s: %v", beat.ID, err))
	}
	return nil
}

// GetBeatAdmin loads a listing regardless of its active flag.
func (s *service) GetBeatAdmin(ctx context.Context, id uuid.UUID) (*AdminBeatDTO, error) {
	beat, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "beat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beat")
	}
	return NewAdminBeatDTO(beat), nil
}

// ListBeatsAdmin returns one page of listings including inactive rows.
func (s *service) ListBeatsAdmin(ctx context.Context, input ListBeatsInput) (*AdminBeatListResult, error) {
	beats, total, err := s.repo.ListBeats(ctx, beatListQuery{
		Pagination:      input.Pagination,
		Filters:         input.Filters,
		IncludeInactive: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list beats")
	}

	out := make([]AdminBeatDTO, 0, len(beats))
	for i := range beats {
		out = append(out, *NewAdminBeatDTO(&beats[i]))
	}
	return &AdminBeatListResult{
		Beats: out,
		Meta:  pagination.NewMeta(input.Pagination, total),
	}, nil
}

// PresignUpload mints a short-lived PUT URL for one catalog asset.
func (s *service) PresignUpload(ctx context.Context, input PresignUploadInput) (*PresignUploadResult, error) {
	prefix, ok := uploadKinds[strings.ToLower(strings.TrimSpace(input.Kind))]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported upload kind")
	}
	name := sanitizeFilename(input.Filename)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filename is required")
	}

	key := fmt.Sprintf("%s/%s_%s", prefix, uuid.NewString(), name)
	uploadURL, err := s.signer.PresignPutObject(key, input.ContentType, uploadURLTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "presign upload")
	}
	return &PresignUploadResult{
		Key:       key,
		UploadURL: uploadURL,
		PublicURL: s.signer.PublicURL(key),
	}, nil
}

func (s *service) deleteAssets(ctx context.Context, urls []string) error {
	keys := make([]string, 0, len(urls))
	for _, raw := range urls {
		if key, ok := s.storage.KeyFromURL(raw); ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	errs := make([]error, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			if err := s.storage.DeleteObject(ctx, key); err != nil {
				errs[i] = fmt.Errorf("delete %s: %w", key, err)
			}
		}(i, key)
	}
	wg.Wait()
	return multierr.Combine(errs...)
}

func validatePriceBands(nonExclusive, exclusive, buyout decimal.Decimal) error {
	if nonExclusive.LessThan(nonExclusiveMin) || nonExclusive.GreaterThan(nonExclusiveMax) {
		return pkgerrors.New(pkgerrors.CodeValidation, "non_exclusive_price must be between 4.99 and 19.99")
	}
	if exclusive.LessThan(exclusiveMin) || exclusive.GreaterThan(exclusiveMax) {
		return pkgerrors.New(pkgerrors.CodeValidation, "exclusive_price must be between 99 and 599")
	}
	if buyout.LessThan(buyoutMin) || buyout.GreaterThan(buyoutMax) {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyout_price must be between 599 and 4999")
	}
	return nil
}

func applyUpdateToBeat(beat *models.Beat, input UpdateBeatInput) {
	if input.Title != nil {
		beat.Title = strings.TrimSpace(*input.Title)
	}
	if input.BeatNumber != nil {
		beat.BeatNumber = strings.TrimSpace(*input.BeatNumber)
	}
	if input.BPM != nil {
		beat.BPM = *input.BPM
	}
	if input.MusicalKey != nil {
		beat.MusicalKey = strings.TrimSpace(*input.MusicalKey)
	}
	if input.Genres != nil {
		beat.Genres = strings.TrimSpace(*input.Genres)
	}
	if input.TrackType != nil {
		beat.TrackType = strings.TrimSpace(*input.TrackType)
	}
	if input.Tags != nil {
		beat.Tags = append([]string(nil), *input.Tags...)
	}
	if input.DurationSeconds != nil {
		beat.DurationSeconds = *input.DurationSeconds
	}
	if input.CoverImageURL != nil {
		beat.CoverImageURL = *input.CoverImageURL
	}
	if input.PreviewMP3URL != nil {
		beat.PreviewMP3URL = *input.PreviewMP3URL
	}
	if input.WavURL != nil {
		beat.WavURL = *input.WavURL
	}
	if input.StemsURL != nil {
		beat.StemsURL = input.StemsURL
	}
	if input.MIDIURL != nil {
		beat.MIDIURL = input.MIDIURL
	}
	if input.NonExclusivePrice != nil {
		beat.NonExclusivePrice = *input.NonExclusivePrice
	}
	if input.ExclusivePrice != nil {
		beat.ExclusivePrice = *input.ExclusivePrice
	}
	if input.BuyoutPrice != nil {
		beat.BuyoutPrice = *input.BuyoutPrice
	}
	if input.IsActive != nil {
		beat.IsActive = *input.IsActive
	}
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._-")
}
