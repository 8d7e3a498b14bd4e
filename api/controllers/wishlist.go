package controllers

import (
	"net/http"

	"github.com/victorybazaar/victorybazaar-backend/api/responses"
	"github.com/victorybazaar/victorybazaar-backend/api/validators"
	"github.com/victorybazaar/victorybazaar-backend/internal/wishlist"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

type addWishlistItemPayload struct {
	ProductID string `json:"productId" validate:"required"`
	Notes     string `json:"notes" validate:"max=200"`
	Priority  string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type wishlistPriorityPayload struct {
	Priority string `json:"priority" validate:"required,oneof=low medium high"`
}

type wishlistVisibilityPayload struct {
	IsPublic *bool `json:"isPublic" validate:"required"`
}

type moveToCartPayload struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type sharePayload struct {
	Message string `json:"message" validate:"max=500"`
}

var errWishlistUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable")

// wishlistHandler covers the routes that only need the caller and the service.
func wishlistHandler(svc wishlist.Service, logg *logger.Logger, run func(r *http.Request, userID string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errWishlistUnavailable)
			return
		}
		userID, err := RequireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		data, err := run(r, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, data)
	}
}

// WishlistGet returns the caller's wishlist, creating it on first access.
func WishlistGet(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		return svc.GetWishlist(r.Context(), userID)
	})
}

// WishlistAddItem adds a product or refreshes the notes and priority of an existing entry.
func WishlistAddItem(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		var payload addWishlistItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.AddItem(r.Context(), userID, wishlist.AddItemInput{
			ProductID: payload.ProductID,
			Notes:     payload.Notes,
			Priority:  payload.Priority,
		})
	})
}

func WishlistRemoveItem(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		productID, err := PathParam(r, "productId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), userID, productID)
	})
}

func WishlistClear(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		return svc.Clear(r.Context(), userID)
	})
}

func WishlistUpdatePriority(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		productID, err := PathParam(r, "productId")
		if err != nil {
			return nil, err
		}
		var payload wishlistPriorityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdatePriority(r.Context(), userID, productID, payload.Priority)
	})
}

func WishlistUpdateVisibility(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		var payload wishlistVisibilityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateVisibility(r.Context(), userID, *payload.IsPublic)
	})
}

// WishlistMoveToCart moves one entry into the cart. The quantity defaults to 1.
func WishlistMoveToCart(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		productID, err := PathParam(r, "productId")
		if err != nil {
			return nil, err
		}
		var payload moveToCartPayload
		if err := DecodeOptionalJSON(r, &payload); err != nil {
			return nil, err
		}
		quantity := payload.Quantity
		if quantity == 0 {
			quantity = 1
		}
		return svc.MoveToCart(r.Context(), userID, productID, quantity)
	})
}

func WishlistSuggestions(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		return svc.Suggestions(r.Context(), userID)
	})
}

func WishlistAnalytics(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		return svc.Analytics(r.Context(), userID)
	})
}

func WishlistShare(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistHandler(svc, logg, func(r *http.Request, userID string) (any, error) {
		var payload sharePayload
		if err := DecodeOptionalJSON(r, &payload); err != nil {
			return nil, err
		}
		return svc.Share(r.Context(), userID, payload.Message)
	})
}

// WishlistPublic serves a shared wishlist without authentication.
func WishlistPublic(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errWishlistUnavailable)
			return
		}
		ownerID, err := PathParam(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		list, err := svc.GetPublic(ctx, ownerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
