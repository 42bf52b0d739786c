package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/inkforge/inkforge-backend/api/responses"
	"github.com/inkforge/inkforge-backend/api/validators"
	"github.com/inkforge/inkforge-backend/internal/cart"
	"github.com/inkforge/inkforge-backend/pkg/logger"
)

type addCartItemRequest struct {
	VariantID       uuid.UUID       `json:"variantId" validate:"required"`
	Quantity        int             `json:"quantity" validate:"required,min=1"`
	FrontDesign     json.RawMessage `json:"frontDesign,omitempty"`
	BackDesign      json.RawMessage `json:"backDesign,omitempty"`
	FrontPreviewURL *string         `json:"frontPreviewUrl,omitempty"`
	BackPreviewURL  *string         `json:"backPreviewUrl,omitempty"`
}

type updateCartItemRequest struct {
	Quantity        *int            `json:"quantity,omitempty" validate:"omitempty,min=1"`
	FrontDesign     json.RawMessage `json:"frontDesign,omitempty"`
	BackDesign      json.RawMessage `json:"backDesign,omitempty"`
	FrontPreviewURL *string         `json:"frontPreviewUrl,omitempty"`
	BackPreviewURL  *string         `json:"backPreviewUrl,omitempty"`
}

// CartFetch returns the caller's cart, creating an empty one on first read.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userCart, err := svc.GetOrCreate(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, userCart)
	}
}

func CartItemAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), userID, cart.AddItemInput{
			VariantID:       req.VariantID,
			Quantity:        req.Quantity,
			FrontDesign:     req.FrontDesign,
			BackDesign:      req.BackDesign,
			FrontPreviewURL: req.FrontPreviewURL,
			BackPreviewURL:  req.BackPreviewURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func CartItemUpdate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), userID, itemID, cart.UpdateItemInput{
			Quantity:        req.Quantity,
			FrontDesign:     req.FrontDesign,
			BackDesign:      req.BackDesign,
			FrontPreviewURL: req.FrontPreviewURL,
			BackPreviewURL:  req.BackPreviewURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func CartItemRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}
