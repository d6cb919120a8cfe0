package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/arlomercer/beatvault-backend/api/responses"
	lemonsqueezywebhook "github.com/arlomercer/beatvault-backend/internal/webhooks/lemonsqueezy"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/lemonsqueezy"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

// Service handles a parsed provider event.
type Service interface {
	HandleEvent(ctx context.Context, event *lemonsqueezywebhook.Event) error
}

// Guard deduplicates provider events by id.
type Guard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// LemonSqueezyWebhook handles order lifecycle events from the hosted checkout
// provider. The signature check runs before anything else touches state.
func LemonSqueezyWebhook(svc Service, secret string, guard Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if secret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get("X-Signature")
		if !lemonsqueezy.VerifySignature(secret, payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		event, err := lemonsqueezywebhook.ParseEvent(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.Data.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			_ = guard.Delete(ctx, event.Data.ID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("lemonsqueezy event %s processed", event.Data.ID))
		}
		responses.WriteSuccess(w, nil)
	}
}
