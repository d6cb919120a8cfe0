package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arlomercer/beatvault-backend/api/responses"
	"github.com/arlomercer/beatvault-backend/api/validators"
	"github.com/arlomercer/beatvault-backend/internal/catalog"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
	"github.com/arlomercer/beatvault-backend/pkg/pagination"
)

// BeatList serves the public storefront catalog.
func BeatList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.ListBeats(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// BeatDetail serves a single active listing.
func BeatDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		beat, err := svc.GetBeat(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, beat)
	}
}

func beatListInputFromRequest(r *http.Request) (catalog.ListBeatsInput, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return catalog.ListBeatsInput{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "per_page", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
	if err != nil {
		return catalog.ListBeatsInput{}, err
	}
	bpmMin, err := validators.ParseQueryIntPtr(r, "bpm_min", 1, 400)
	if err != nil {
		return catalog.ListBeatsInput{}, err
	}
	bpmMax, err := validators.ParseQueryIntPtr(r, "bpm_max", 1, 400)
	if err != nil {
		return catalog.ListBeatsInput{}, err
	}

	filters := catalog.BeatListFilters{
		Query:     validators.SanitizeString(r.URL.Query().Get("q"), 120),
		Genre:     validators.SanitizeString(r.URL.Query().Get("genre"), 60),
		TrackType: validators.SanitizeString(r.URL.Query().Get("track_type"), 60),
		Tag:       validators.SanitizeString(r.URL.Query().Get("tag"), 60),
		Key:       validators.SanitizeString(r.URL.Query().Get("key"), 20),
		BPMMin:    bpmMin,
		BPMMax:    bpmMax,
	}
	if raw := validators.SanitizeString(r.URL.Query().Get("price_min"), 20); raw != "" {
		filters.PriceMin = &raw
	}
	if raw := validators.SanitizeString(r.URL.Query().Get("price_max"), 20); raw != "" {
		filters.PriceMax = &raw
	}

	return catalog.ListBeatsInput{
		Filters:    filters,
		Pagination: pagination.Params{Page: page, PerPage: perPage},
	}, nil
}
