package controllers

import (
	"net/http"

	"github.com/arlomercer/beatvault-backend/api/middleware"
	"github.com/arlomercer/beatvault-backend/api/responses"
	"github.com/arlomercer/beatvault-backend/api/validators"
	adminauthsvc "github.com/arlomercer/beatvault-backend/internal/adminauth"
	"github.com/arlomercer/beatvault-backend/pkg/config"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

type otpRequestPayload struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthRequestOTP emails a one-time login code. The response is identical
// whether or not the address belongs to an admin.
func AuthRequestOTP(svc adminauthsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload otpRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RequestOTP(r.Context(), payload.Email); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "sent"})
	}
}

type otpVerifyPayload struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// AuthVerifyOTP exchanges a valid code for the signed session cookie.
func AuthVerifyOTP(svc adminauthsvc.Service, session config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload otpVerifyPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := svc.VerifyOTP(r.Context(), payload.Email, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(session.TTL().Seconds()),
			HttpOnly: true,
			Secure:   session.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})

		responses.WriteSuccess(w, map[string]string{"status": "authenticated"})
	}
}

// AuthLogout clears the session cookie.
func AuthLogout(session config.SessionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   session.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthMe reports the authenticated admin.
func AuthMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := middleware.AdminEmailFromContext(r.Context())
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"email": email})
	}
}
