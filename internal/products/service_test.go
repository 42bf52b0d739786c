package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
)

type stubProductRepo struct {
	product       *models.Product
	productErr    error
	variant       *models.Variant
	variantErr    error
	variantRefs   int64
	deletedRows   int64
	savedVariants []*models.Variant
}

func (s *stubProductRepo) WithTx(*gorm.DB) Repository { return s }
func (s *stubProductRepo) CreateProduct(_ context.Context, p *models.Product) error {
	s.product = p
	return nil
}
func (s *stubProductRepo) FindProduct(context.Context, uuid.UUID) (*models.Product, error) {
	return s.product, s.productErr
}
func (s *stubProductRepo) ListProducts(context.Context) ([]models.Product, error) {
	return nil, nil
}
func (s *stubProductRepo) SaveProduct(context.Context, *models.Product) error { return nil }
func (s *stubProductRepo) DeleteProduct(context.Context, uuid.UUID) (int64, error) {
	return s.deletedRows, nil
}
func (s *stubProductRepo) CreateVariant(_ context.Context, v *models.Variant) error {
	s.savedVariants = append(s.savedVariants, v)
	return nil
}
func (s *stubProductRepo) FindVariant(context.Context, uuid.UUID) (*models.Variant, error) {
	return s.variant, s.variantErr
}
func (s *stubProductRepo) SaveVariant(context.Context, *models.Variant) error { return nil }
func (s *stubProductRepo) DeleteVariant(context.Context, uuid.UUID) (int64, error) {
	return s.deletedRows, nil
}
func (s *stubProductRepo) CountVariantReferences(context.Context, uuid.UUID) (int64, error) {
	return s.variantRefs, nil
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	assert.Equal(t, code, appErr.Code())
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, err := NewService(&stubProductRepo{})
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), CreateProductInput{Category: enums.ProductCategoryTShirt})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateProduct(context.Background(), CreateProductInput{Name: "Classic Tee", Category: "SOCKS"})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "Classic Tee",
		Category: enums.ProductCategoryTShirt,
		Variants: []VariantInput{{Color: "black", Size: enums.SizeM, Price: decimal.NewFromInt(-1)}},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateProduct_WithVariants(t *testing.T) {
	repo := &stubProductRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "Classic Tee",
		Category: enums.ProductCategoryTShirt,
		Variants: []VariantInput{
			{Color: "black", Size: enums.SizeM, Price: decimal.RequireFromString("19.99"), Stock: 10},
			{Color: "white", Size: enums.SizeL, Price: decimal.RequireFromString("21.50"), Stock: 5},
		},
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	require.Len(t, created.Variants, 2)
	assert.Equal(t, 10, created.Variants[0].Stock)
}

func TestGetProduct_NotFound(t *testing.T) {
	svc, err := NewService(&stubProductRepo{productErr: gorm.ErrRecordNotFound})
	require.NoError(t, err)

	_, err = svc.GetProduct(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteVariant_RejectsReferenced(t *testing.T) {
	repo := &stubProductRepo{
		variant:     &models.Variant{ID: uuid.New()},
		variantRefs: 2,
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	err = svc.DeleteVariant(context.Background(), repo.variant.ID)
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestDeleteVariant_Unreferenced(t *testing.T) {
	repo := &stubProductRepo{
		variant:     &models.Variant{ID: uuid.New()},
		deletedRows: 1,
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	assert.NoError(t, svc.DeleteVariant(context.Background(), repo.variant.ID))
}

func TestUpdateVariant_StockFloor(t *testing.T) {
	negative := -3
	repo := &stubProductRepo{variant: &models.Variant{ID: uuid.New(), Stock: 4}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.UpdateVariant(context.Background(), repo.variant.ID, UpdateVariantInput{Stock: &negative})
	assertCode(t, err, pkgerrors.CodeValidation)
}
