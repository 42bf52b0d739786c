package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
)

// Service defines catalog operations over products and their variants.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.Variant, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error)
	UpdateVariant(ctx context.Context, id uuid.UUID, patch UpdateVariantInput) (*models.Variant, error)
	DeleteVariant(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// CreateProductInput carries a new product plus its initial variants.
type CreateProductInput struct {
	Name        string
	Description *string
	Category    enums.ProductCategory
	Variants    []VariantInput
}

// UpdateProductInput is a partial product patch.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *enums.ProductCategory
	IsActive    *bool
}

// VariantInput carries one sellable color/size configuration.
type VariantInput struct {
	Color           string
	Size            enums.Size
	Price           decimal.Decimal
	Stock           int
	FrontImageURL   *string
	BackImageURL    *string
	PrintAreaTop    float64
	PrintAreaLeft   float64
	PrintAreaWidth  float64
	PrintAreaHeight float64
}

// UpdateVariantInput is a partial variant patch.
type UpdateVariantInput struct {
	Color           *string
	Size            *enums.Size
	Price           *decimal.Decimal
	Stock           *int
	FrontImageURL   *string
	BackImageURL    *string
	PrintAreaTop    *float64
	PrintAreaLeft   *float64
	PrintAreaWidth  *float64
	PrintAreaHeight *float64
}

// NewService wires catalog dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid product category %q", input.Category)
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		IsActive:    true,
	}
	for _, v := range input.Variants {
		variant, err := buildVariant(v)
		if err != nil {
			return nil, err
		}
		product.Variants = append(product.Variants, *variant)
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, patch UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = patch.Description
	}
	if patch.Category != nil {
		if !patch.Category.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid product category %q", *patch.Category)
		}
		product.Category = *patch.Category
	}
	if patch.IsActive != nil {
		product.IsActive = *patch.IsActive
	}

	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	for _, variant := range product.Variants {
		refs, err := s.repo.CountVariantReferences(ctx, variant.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check variant references")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product has variants referenced by carts or orders")
		}
	}

	deleted, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.Variant, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	variant, err := buildVariant(input)
	if err != nil {
		return nil, err
	}
	variant.ProductID = productID

	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create variant")
	}
	return variant, nil
}

func (s *service) GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	variant, err := s.repo.FindVariant(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return variant, nil
}

func (s *service) UpdateVariant(ctx context.Context, id uuid.UUID, patch UpdateVariantInput) (*models.Variant, error) {
	variant, err := s.GetVariant(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Color != nil {
		if *patch.Color == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant color cannot be empty")
		}
		variant.Color = *patch.Color
	}
	if patch.Size != nil {
		if !patch.Size.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid size %q", *patch.Size)
		}
		variant.Size = *patch.Size
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant price cannot be negative")
		}
		variant.Price = *patch.Price
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant stock cannot be negative")
		}
		variant.Stock = *patch.Stock
	}
	if patch.FrontImageURL != nil {
		variant.FrontImageURL = patch.FrontImageURL
	}
	if patch.BackImageURL != nil {
		variant.BackImageURL = patch.BackImageURL
	}
	if patch.PrintAreaTop != nil {
		variant.PrintAreaTop = *patch.PrintAreaTop
	}
	if patch.PrintAreaLeft != nil {
		variant.PrintAreaLeft = *patch.PrintAreaLeft
	}
	if patch.PrintAreaWidth != nil {
		variant.PrintAreaWidth = *patch.PrintAreaWidth
	}
	if patch.PrintAreaHeight != nil {
		variant.PrintAreaHeight = *patch.PrintAreaHeight
	}

	if err := s.repo.SaveVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant")
	}
	return variant, nil
}

func (s *service) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetVariant(ctx, id); err != nil {
		return err
	}

	refs, err := s.repo.CountVariantReferences(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check variant references")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "variant is referenced by cart or order items")
	}

	deleted, err := s.repo.DeleteVariant(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete variant")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return nil
}

func buildVariant(input VariantInput) (*models.Variant, error) {
	if input.Color == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant color required")
	}
	if !input.Size.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid size %q", input.Size)
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant price cannot be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant stock cannot be negative")
	}

	return &models.Variant{
		Color:           input.Color,
		Size:            input.Size,
		Price:           input.Price,
		Stock:           input.Stock,
		FrontImageURL:   input.FrontImageURL,
		BackImageURL:    input.BackImageURL,
		PrintAreaTop:    input.PrintAreaTop,
		PrintAreaLeft:   input.PrintAreaLeft,
		PrintAreaWidth:  input.PrintAreaWidth,
		PrintAreaHeight: input.PrintAreaHeight,
	}, nil
}
