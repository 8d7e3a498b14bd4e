package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/victorybazaar/victorybazaar-backend/api/responses"
	"github.com/victorybazaar/victorybazaar-backend/internal/webhooks"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

// maxWebhookBytes bounds provider notification bodies.
const maxWebhookBytes = 1 << 20

type handler interface {
	Handle(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*webhooks.Result, error)
}

// PaymentWebhook receives gateway notifications. The raw body is passed through
// untouched because signatures are computed over the exact bytes.
func PaymentWebhook(svc handler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		gateway, err := enums.ParsePaymentGateway(strings.TrimSpace(chi.URLParam(r, "gateway")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown payment gateway"))
			return
		}
		if logg != nil {
			ctx = logg.WithField(ctx, "gateway", string(gateway))
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		result, err := svc.Handle(ctx, gateway, payload, r.Header)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"event_id":  result.EventID,
				"duplicate": result.Duplicate,
				"applied":   result.Applied,
			}), "webhook.received")
		}
		responses.WriteSuccess(w, result)
	}
}
