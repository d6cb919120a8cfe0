package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/api/responses"
	"github.com/arlomercer/beatvault-backend/api/validators"
	"github.com/arlomercer/beatvault-backend/internal/catalog"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

type createBeatRequest struct {
	Title             string   `json:"title" validate:"required"`
	BPM               int      `json:"bpm" validate:"required,min=1,max=400"`
	MusicalKey        string   `json:"musicalKey" validate:"required"`
	Genres            string   `json:"genres" validate:"required"`
	TrackType         string   `json:"trackType" validate:"required"`
	Tags              []string `json:"tags,omitempty"`
	DurationSeconds   int      `json:"durationSeconds" validate:"required,min=1"`
	CoverImageURL     string   `json:"coverImageUrl" validate:"required,url"`
	PreviewMP3URL     string   `json:"previewMp3Url" validate:"required,url"`
	WavURL            string   `json:"wavUrl" validate:"required,url"`
	StemsURL          *string  `json:"stemsUrl,omitempty" validate:"omitempty,url"`
	MIDIURL           *string  `json:"midiUrl,omitempty" validate:"omitempty,url"`
	NonExclusivePrice string   `json:"nonExclusivePrice" validate:"required"`
	ExclusivePrice    string   `json:"exclusivePrice" validate:"required"`
	BuyoutPrice       string   `json:"buyoutPrice" validate:"required"`
	IsActive          *bool    `json:"isActive,omitempty"`
}

func (p createBeatRequest) toInput() (catalog.CreateBeatInput, error) {
	nonExclusive, err := parsePrice(p.NonExclusivePrice, "nonExclusivePrice")
	if err != nil {
		return catalog.CreateBeatInput{}, err
	}
	exclusive, err := parsePrice(p.ExclusivePrice, "exclusivePrice")
	if err != nil {
		return catalog.CreateBeatInput{}, err
	}
	buyout, err := parsePrice(p.BuyoutPrice, "buyoutPrice")
	if err != nil {
		return catalog.CreateBeatInput{}, err
	}

	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}

	return catalog.CreateBeatInput{
		Title:             p.Title,
		BPM:               p.BPM,
		MusicalKey:        p.MusicalKey,
		Genres:            p.Genres,
		TrackType:         p.TrackType,
		Tags:              p.Tags,
		DurationSeconds:   p.DurationSeconds,
		CoverImageURL:     p.CoverImageURL,
		PreviewMP3URL:     p.PreviewMP3URL,
		WavURL:            p.WavURL,
		StemsURL:          p.StemsURL,
		MIDIURL:           p.MIDIURL,
		NonExclusivePrice: nonExclusive,
		ExclusivePrice:    exclusive,
		BuyoutPrice:       buyout,
		IsActive:          active,
	}, nil
}

type updateBeatRequest struct {
	Title             *string   `json:"title,omitempty"`
	BPM               *int      `json:"bpm,omitempty" validate:"omitempty,min=1,max=400"`
	MusicalKey        *string   `json:"musicalKey,omitempty"`
	Genres            *string   `json:"genres,omitempty"`
	TrackType         *string   `json:"trackType,omitempty"`
	Tags              *[]string `json:"tags,omitempty"`
	DurationSeconds   *int      `json:"durationSeconds,omitempty" validate:"omitempty,min=1"`
	CoverImageURL     *string   `json:"coverImageUrl,omitempty" validate:"omitempty,url"`
	PreviewMP3URL     *string   `json:"previewMp3Url,omitempty" validate:"omitempty,url"`
	WavURL            *string   `json:"wavUrl,omitempty" validate:"omitempty,url"`
	StemsURL          *string   `json:"stemsUrl,omitempty"`
	MIDIURL           *string   `json:"midiUrl,omitempty"`
	NonExclusivePrice *string   `json:"nonExclusivePrice,omitempty"`
	ExclusivePrice    *string   `json:"exclusivePrice,omitempty"`
	BuyoutPrice       *string   `json:"buyoutPrice,omitempty"`
	IsActive          *bool     `json:"isActive,omitempty"`
}

func (p updateBeatRequest) toInput() (catalog.UpdateBeatInput, error) {
	input := catalog.UpdateBeatInput{
		Title:           p.Title,
		BPM:             p.BPM,
		MusicalKey:      p.MusicalKey,
		Genres:          p.Genres,
		TrackType:       p.TrackType,
		Tags:            p.Tags,
		DurationSeconds: p.DurationSeconds,
		CoverImageURL:   p.CoverImageURL,
		PreviewMP3URL:   p.PreviewMP3URL,
		WavURL:          p.WavURL,
		StemsURL:        p.StemsURL,
		MIDIURL:         p.MIDIURL,
		IsActive:        p.IsActive,
	}
	if p.NonExclusivePrice != nil {
		price, err := parsePrice(*p.NonExclusivePrice, "nonExclusivePrice")
		if err != nil {
			return catalog.UpdateBeatInput{}, err
		}
		input.NonExclusivePrice = &price
	}
	if p.ExclusivePrice != nil {
		price, err := parsePrice(*p.ExclusivePrice, "exclusivePrice")
		if err != nil {
			return catalog.UpdateBeatInput{}, err
		}
		input.ExclusivePrice = &price
	}
	if p.BuyoutPrice != nil {
		price, err := parsePrice(*p.BuyoutPrice, "buyoutPrice")
		if err != nil {
			return catalog.UpdateBeatInput{}, err
		}
		input.BuyoutPrice = &price
	}
	return input, nil
}

func parsePrice(raw, field string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal string").WithDetails(map[string]any{"field": field})
	}
	return price, nil
}

// AdminBeatCreate handles listing creation.
func AdminBeatCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createBeatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		beat, err := svc.CreateBeat(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, beat)
	}
}

// AdminBeatUpdate applies a sparse patch to a listing.
func AdminBeatUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "beatId"), "beatId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBeatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		beat, err := svc.UpdateBeat(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, beat)
	}
}

// AdminBeatDelete removes a listing and its stored assets.
func AdminBeatDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "beatId"), "beatId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteBeat(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminBeatDetail serves a listing with asset URLs included.
func AdminBeatDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "beatId"), "beatId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		beat, err := svc.GetBeatAdmin(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, beat)
	}
}

// AdminBeatList serves the full catalog, inactive listings included.
func AdminBeatList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := beatListInputFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.IncludeInactive = true

		result, err := svc.ListBeatsAdmin(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type presignUploadRequest struct {
	Kind        string `json:"kind" validate:"required"`
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
}

// AdminBeatPresignUpload returns a signed PUT URL for an asset upload.
func AdminBeatPresignUpload(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload presignUploadRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PresignUpload(r.Context(), catalog.PresignUploadInput{
			Kind:        payload.Kind,
			Filename:    payload.Filename,
			ContentType: payload.ContentType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
