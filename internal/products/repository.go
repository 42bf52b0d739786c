package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/pkg/db/models"
)

// Repository wires together product and variant persistence helpers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProduct(ctx context.Context, product *models.Product) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	SaveProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)

	CreateVariant(ctx context.Context, variant *models.Variant) error
	FindVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error)
	SaveVariant(ctx context.Context, variant *models.Variant) error
	DeleteVariant(ctx context.Context, id uuid.UUID) (int64, error)
	CountVariantReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repositoryImpl) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Variants").First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Preload("Variants").Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *repositoryImpl) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variants").Save(product).Error
}

func (r *repositoryImpl) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CreateVariant(ctx context.Context, variant *models.Variant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *repositoryImpl) FindVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repositoryImpl) SaveVariant(ctx context.Context, variant *models.Variant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

func (r *repositoryImpl) DeleteVariant(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Variant{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

// CountVariantReferences counts cart and order items still pointing at the
// variant. Deletion is refused while any exist.
func (r *repositoryImpl) CountVariantReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var cartRefs int64
	if err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("variant_id = ?", id).Count(&cartRefs).Error; err != nil {
		return 0, err
	}
	var orderRefs int64
	if err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("variant_id = ?", id).Count(&orderRefs).Error; err != nil {
		return 0, err
	}
	return cartRefs + orderRefs, nil
}
