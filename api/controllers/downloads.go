package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arlomercer/beatvault-backend/api/responses"
	downloadsvc "github.com/arlomercer/beatvault-backend/internal/downloads"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

// DownloadRedeem resolves a download token to its file links.
func DownloadRedeem(svc downloadsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "download service unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		payload, err := svc.Redeem(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payload)
	}
}
