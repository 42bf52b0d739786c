package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkforge/inkforge-backend/api/middleware"
	"github.com/inkforge/inkforge-backend/api/responses"
	"github.com/inkforge/inkforge-backend/api/validators"
	"github.com/inkforge/inkforge-backend/internal/orders"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/logger"
)

type orderItemRequest struct {
	VariantID       uuid.UUID       `json:"variantId" validate:"required"`
	Quantity        int             `json:"quantity" validate:"required,min=1"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	FrontDesign     json.RawMessage `json:"frontDesign,omitempty"`
	BackDesign      json.RawMessage `json:"backDesign,omitempty"`
	FrontPreviewURL *string         `json:"frontPreviewUrl,omitempty"`
	BackPreviewURL  *string         `json:"backPreviewUrl,omitempty"`
}

type createOrderRequest struct {
	UserID        *uuid.UUID         `json:"userId,omitempty"`
	CustomerName  string             `json:"customerName" validate:"required"`
	CustomerPhone string             `json:"customerPhone" validate:"required"`
	Region        string             `json:"region" validate:"required"`
	Address       string             `json:"address" validate:"required"`
	TotalPrice    decimal.Decimal    `json:"totalPrice" validate:"required"`
	Status        string             `json:"status,omitempty"`
	PaymentStatus string             `json:"paymentStatus,omitempty"`
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type createOrderItemRequest struct {
	OrderID         uuid.UUID       `json:"orderId" validate:"required"`
	VariantID       uuid.UUID       `json:"variantId" validate:"required"`
	Quantity        int             `json:"quantity" validate:"required,min=1"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	FrontDesign     json.RawMessage `json:"frontDesign,omitempty"`
	BackDesign      json.RawMessage `json:"backDesign,omitempty"`
	FrontPreviewURL *string         `json:"frontPreviewUrl,omitempty"`
	BackPreviewURL  *string         `json:"backPreviewUrl,omitempty"`
}

type updateOrderItemRequest struct {
	VariantID       *uuid.UUID       `json:"variantId,omitempty"`
	Quantity        *int             `json:"quantity,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	FrontDesign     json.RawMessage  `json:"frontDesign,omitempty"`
	BackDesign      json.RawMessage  `json:"backDesign,omitempty"`
	FrontPreviewURL *string          `json:"frontPreviewUrl,omitempty"`
	BackPreviewURL  *string          `json:"backPreviewUrl,omitempty"`
}

type checkoutRequest struct {
	CustomerName  string `json:"customerName" validate:"required"`
	CustomerPhone string `json:"customerPhone" validate:"required"`
	Region        string `json:"region" validate:"required"`
	Address       string `json:"address" validate:"required"`
}

type updateOrderRequest struct {
	UserID        *uuid.UUID       `json:"userId,omitempty"`
	CustomerName  *string          `json:"customerName,omitempty"`
	CustomerPhone *string          `json:"customerPhone,omitempty"`
	Region        *string          `json:"region,omitempty"`
	Address       *string          `json:"address,omitempty"`
	Status        *string          `json:"status,omitempty"`
	PaymentStatus *string          `json:"paymentStatus,omitempty"`
	TotalPrice    *decimal.Decimal `json:"totalPrice,omitempty"`
}

func isStaff(r *http.Request) bool {
	return enums.Role(middleware.RoleFromContext(r.Context())).IsStaff()
}

func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Staff may place orders for another user, or as a guest order with no
		// owner at all. Everyone else always owns the order they create.
		owner := &userID
		if isStaff(r) {
			owner = req.UserID
		}

		input := orders.CreateInput{
			UserID:        owner,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Region:        req.Region,
			Address:       req.Address,
			TotalPrice:    req.TotalPrice,
			Status:        enums.OrderStatus(req.Status),
			PaymentStatus: enums.PaymentStatus(req.PaymentStatus),
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, orders.ItemInput{
				VariantID:       item.VariantID,
				Quantity:        item.Quantity,
				Price:           item.Price,
				FrontDesign:     item.FrontDesign,
				BackDesign:      item.BackDesign,
				FrontPreviewURL: item.FrontPreviewURL,
				BackPreviewURL:  item.BackPreviewURL,
			})
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderCheckout places an order from the caller's cart.
func OrderCheckout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateFromCart(r.Context(), userID, orders.CheckoutDetails{
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Region:        req.Region,
			Address:       req.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// OrderDetail serves an order to its owner or to staff.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !isStaff(r) && !ownsOrder(r, order) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ownsOrder(r *http.Request, order *models.Order) bool {
	if order.UserID == nil {
		return false
	}
	return order.UserID.String() == middleware.UserIDFromContext(r.Context())
}

func OrderUpdate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patch := orders.UpdateInput{
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Region:        req.Region,
			Address:       req.Address,
			TotalPrice:    req.TotalPrice,
		}
		if req.UserID != nil {
			owner := req.UserID
			patch.UserID = &owner
		}
		if req.Status != nil {
			status := enums.OrderStatus(*req.Status)
			patch.Status = &status
		}
		if req.PaymentStatus != nil {
			paymentStatus := enums.PaymentStatus(*req.PaymentStatus)
			patch.PaymentStatus = &paymentStatus
		}

		order, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// OrderPrintDetails serves the denormalized production view for fulfillment.
func OrderPrintDetails(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		details, err := svc.GetOrderPrintDetails(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}

func OrderItemDesigns(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		designs, err := svc.GetOrderItemDesigns(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, designs)
	}
}

// OrderItemCreate attaches an item to an existing order. The fulfillment
// surface stores designs verbatim, so element documents produced by the print
// renderer pass through unchanged. Stock is not touched here.
func OrderItemCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), orders.ItemCreateInput{
			OrderID:         req.OrderID,
			VariantID:       req.VariantID,
			Quantity:        req.Quantity,
			Price:           req.Price,
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

func OrderItemList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListItems(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func OrderItemDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func OrderItemUpdate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateOrderItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), itemID, orders.ItemUpdateInput{
			VariantID:       req.VariantID,
			Quantity:        req.Quantity,
			Price:           req.Price,
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

func OrderItemDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func OrderItemFinalPrintFile(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url, err := svc.GetFinalPrintFile(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"finalPrintFile": url})
	}
}
