package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/arlomercer/beatvault-backend/api/responses"
	"github.com/arlomercer/beatvault-backend/api/validators"
	checkoutsvc "github.com/arlomercer/beatvault-backend/internal/checkout"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

type checkoutSessionRequest struct {
	BeatID    uuid.UUID   `json:"beatId" validate:"required"`
	LicenseID uuid.UUID   `json:"licenseId" validate:"required"`
	AddonIDs  []uuid.UUID `json:"addonIds,omitempty"`
}

// CheckoutSession opens a hosted checkout for a priced selection.
func CheckoutSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateSession(r.Context(), checkoutsvc.SessionInput{
			BeatID:    payload.BeatID,
			LicenseID: payload.LicenseID,
			AddonIDs:  payload.AddonIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
