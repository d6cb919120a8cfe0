package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/api/responses"
	"github.com/arlomercer/beatvault-backend/api/validators"
	ordersvc "github.com/arlomercer/beatvault-backend/internal/orders"
	"github.com/arlomercer/beatvault-backend/internal/purchases"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

type createOrderRequest struct {
	BeatID    uuid.UUID   `json:"beatId" validate:"required"`
	LicenseID uuid.UUID   `json:"licenseId" validate:"required"`
	AddonIDs  []uuid.UUID `json:"addonIds,omitempty"`
	// Amount accepts both JSON numbers and numeric strings.
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// OrderCreate opens a provider payment order for a priced selection.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), ordersvc.CreateOrderInput{
			BeatID:    payload.BeatID,
			LicenseID: payload.LicenseID,
			AddonIDs:  payload.AddonIDs,
			Amount:    payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type captureOrderRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// OrderCapture settles a provider order into a purchase.
func OrderCapture(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "capture service unavailable"))
			return
		}

		var payload captureOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Capture(r.Context(), strings.TrimSpace(payload.OrderID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
