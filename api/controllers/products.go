package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkforge/inkforge-backend/api/responses"
	"github.com/inkforge/inkforge-backend/api/validators"
	"github.com/inkforge/inkforge-backend/internal/products"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/logger"
)

type variantRequest struct {
	Color           string          `json:"color" validate:"required"`
	Size            string          `json:"size" validate:"required"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	Stock           int             `json:"stock" validate:"min=0"`
	FrontImageURL   *string         `json:"frontImageUrl,omitempty"`
	BackImageURL    *string         `json:"backImageUrl,omitempty"`
	PrintAreaTop    float64         `json:"printAreaTop"`
	PrintAreaLeft   float64         `json:"printAreaLeft"`
	PrintAreaWidth  float64         `json:"printAreaWidth"`
	PrintAreaHeight float64         `json:"printAreaHeight"`
}

type createProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description *string          `json:"description,omitempty"`
	Category    string           `json:"category" validate:"required"`
	Variants    []variantRequest `json:"variants" validate:"dive"`
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

type updateVariantRequest struct {
	Color           *string          `json:"color,omitempty"`
	Size            *string          `json:"size,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Stock           *int             `json:"stock,omitempty"`
	FrontImageURL   *string          `json:"frontImageUrl,omitempty"`
	BackImageURL    *string          `json:"backImageUrl,omitempty"`
	PrintAreaTop    *float64         `json:"printAreaTop,omitempty"`
	PrintAreaLeft   *float64         `json:"printAreaLeft,omitempty"`
	PrintAreaWidth  *float64         `json:"printAreaWidth,omitempty"`
	PrintAreaHeight *float64         `json:"printAreaHeight,omitempty"`
}

func (v variantRequest) toInput() (products.VariantInput, error) {
	size, err := enums.ParseSize(v.Size)
	if err != nil {
		return products.VariantInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant size")
	}
	return products.VariantInput{
		Color:           v.Color,
		Size:            size,
		Price:           v.Price,
		Stock:           v.Stock,
		FrontImageURL:   v.FrontImageURL,
		BackImageURL:    v.BackImageURL,
		PrintAreaTop:    v.PrintAreaTop,
		PrintAreaLeft:   v.PrintAreaLeft,
		PrintAreaWidth:  v.PrintAreaWidth,
		PrintAreaHeight: v.PrintAreaHeight,
	}, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseProductCategory(req.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		input := products.CreateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Category:    category,
		}
		for _, v := range req.Variants {
			variant, err := v.toInput()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Variants = append(input.Variants, variant)
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patch := products.UpdateProductInput{
			Name:        req.Name,
			Description: req.Description,
			IsActive:    req.IsActive,
		}
		if req.Category != nil {
			category, err := enums.ParseProductCategory(*req.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			patch.Category = &category
		}

		product, err := svc.UpdateProduct(r.Context(), id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func VariantCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req variantRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variant, err := svc.CreateVariant(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, variant)
	}
}

func VariantDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variant, err := svc.GetVariant(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variant)
	}
}

func VariantUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateVariantRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patch := products.UpdateVariantInput{
			Color:           req.Color,
			Price:           req.Price,
			Stock:           req.Stock,
			FrontImageURL:   req.FrontImageURL,
			BackImageURL:    req.BackImageURL,
			PrintAreaTop:    req.PrintAreaTop,
			PrintAreaLeft:   req.PrintAreaLeft,
			PrintAreaWidth:  req.PrintAreaWidth,
			PrintAreaHeight: req.PrintAreaHeight,
		}
		if req.Size != nil {
			size, err := enums.ParseSize(*req.Size)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant size"))
				return
			}
			patch.Size = &size
		}

		variant, err := svc.UpdateVariant(r.Context(), id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variant)
	}
}

func VariantDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteVariant(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
