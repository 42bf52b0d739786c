package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/pkg/db/models"
)

// Repository exposes persistence helpers for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	DecrementStock(ctx context.Context, variantID uuid.UUID, quantity int) (bool, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderWithVariants(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	ListItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	SaveItem(ctx context.Context, item *models.OrderItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *repositoryImpl) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Omit("Variant").Create(item).Error
}

// DecrementStock subtracts quantity from the variant's stock only when enough
// remains. The false return means the guard failed and nothing changed.
func (r *repositoryImpl) DecrementStock(ctx context.Context, variantID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE variants
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, quantity, variantID, quantity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repositoryImpl) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) FindOrderWithVariants(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Variant").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *repositoryImpl) SaveOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

func (r *repositoryImpl) DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).Preload("Variant").First(&item, "id = ?", itemID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) ListItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Preload("Variant").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repositoryImpl) SaveItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Omit("Variant").Save(item).Error
}

func (r *repositoryImpl) DeleteItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.OrderItem{}, "id = ?", itemID)
	return result.RowsAffected, result.Error
}
