package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/victorybazaar/victorybazaar-backend/api/middleware"
	"github.com/victorybazaar/victorybazaar-backend/api/validators"
	"github.com/victorybazaar/victorybazaar-backend/internal/orders"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
)

// RequireUser returns the authenticated subject or an Unauthorized error.
func RequireUser(r *http.Request) (string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

// ActorFromRequest pairs the subject with its role for ownership checks.
func ActorFromRequest(r *http.Request) (orders.Actor, error) {
	userID, err := RequireUser(r)
	if err != nil {
		return orders.Actor{}, err
	}
	return orders.Actor{UserID: userID, Role: enums.Role(middleware.RoleFromContext(r.Context()))}, nil
}

// PathParam returns a trimmed chi URL parameter, failing validation when empty.
func PathParam(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", name)
	}
	return value, nil
}

// PageParams reads page and limit query values.
func PageParams(r *http.Request, defaultLimit int) pagination.Params {
	q := r.URL.Query()
	return pagination.Parse(q.Get("page"), q.Get("limit"), defaultLimit)
}

func unavailable(name string) error {
	return pkgerrors.Newf(pkgerrors.CodeInternal, "%s service unavailable", name)
}

// DecodeOptionalJSON decodes the body into dst, leaving dst untouched when the
// request carries no body.
func DecodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	err := validators.DecodeJSONBody(r, dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Message() == "request body required" {
		return nil
	}
	return err
}
