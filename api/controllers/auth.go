package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/victorybazaar/victorybazaar-backend/api/middleware"
	"github.com/victorybazaar/victorybazaar-backend/api/responses"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

type tokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthLogout blocks the presented token until it would have expired anyway.
func AuthLogout(revoker tokenRevoker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if revoker == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}
		tokenID, expiresAt := middleware.TokenFromContext(ctx)
		if tokenID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token context missing"))
			return
		}

		ttl := time.Until(expiresAt)
		if ttl > 0 {
			if err := revoker.Revoke(ctx, tokenID, ttl); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke token"))
				return
			}
		}
		if logg != nil {
			logg.Info(ctx, "auth.logout")
		}
		responses.WriteMessage(w, http.StatusOK, "logged out", nil)
	}
}
