package controllers

import (
	"net/http"

	"github.com/victorybazaar/victorybazaar-backend/api/responses"
	"github.com/victorybazaar/victorybazaar-backend/api/validators"
	"github.com/victorybazaar/victorybazaar-backend/internal/users"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

var errUsersUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable")

// UserSync mirrors the identity provider's record after login. The first sync
// answers 201.
func UserSync(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errUsersUnavailable)
			return
		}
		subject, err := RequireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload users.SyncInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, created, err := svc.Sync(ctx, subject, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if created {
			if logg != nil {
				logg.Info(ctx, "user.created")
			}
			responses.WriteMessage(w, http.StatusCreated, "user created", user)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "user synced", user)
	}
}

func UserProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return usersHandler(svc, logg, func(r *http.Request, uid string) (any, error) {
		return svc.GetProfile(r.Context(), uid)
	})
}

func UserUpdateProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return usersHandler(svc, logg, func(r *http.Request, uid string) (any, error) {
		var payload users.ProfileUpdate
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateProfile(r.Context(), uid, payload)
	})
}

func UserPreferences(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return usersHandler(svc, logg, func(r *http.Request, uid string) (any, error) {
		return svc.GetPreferences(r.Context(), uid)
	})
}

func UserUpdatePreferences(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return usersHandler(svc, logg, func(r *http.Request, uid string) (any, error) {
		var payload users.PreferencesUpdate
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdatePreferences(r.Context(), uid, payload)
	})
}

func UserLoyalty(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return usersHandler(svc, logg, func(r *http.Request, uid string) (any, error) {
		return svc.Loyalty(r.Context(), uid)
	})
}

func usersHandler(svc users.Service, logg *logger.Logger, run func(r *http.Request, uid string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errUsersUnavailable)
			return
		}
		uid, err := RequireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		data, err := run(r, uid)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, data)
	}
}
