package controllers

import (
	"net/http"

	"github.com/victorybazaar/victorybazaar-backend/api/responses"
	"github.com/victorybazaar/victorybazaar-backend/api/validators"
	"github.com/victorybazaar/victorybazaar-backend/internal/users"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

const adminUserPageSize = 20

// AdminUserList filters by status and a free-text search over name and email.
func AdminUserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errUsersUnavailable)
			return
		}

		filter := users.ListFilter{Search: validators.QueryString(r, "search", 100)}
		if raw := validators.QueryString(r, "status", 20); raw != "" {
			status, err := enums.ParseUserStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		list, err := svc.List(ctx, filter, PageParams(r, adminUserPageSize))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminUserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errUsersUnavailable)
			return
		}
		id, err := PathParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		user, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func AdminUserUpdateStatus(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errUsersUnavailable)
			return
		}
		id, err := PathParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload users.StatusInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseUserStatus(payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		user, err := svc.UpdateStatus(ctx, id, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "user status updated", user)
	}
}
