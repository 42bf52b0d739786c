package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/internal/cart"
	"github.com/inkforge/inkforge-backend/internal/notifications"
	"github.com/inkforge/inkforge-backend/internal/users"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/design"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/logger"
)

// TxRunner executes a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Catalog is the slice of the product domain the order workflow reads.
type Catalog interface {
	FindVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service runs the order workflow: placement, checkout from cart, status
// transitions and the admin print views.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	CreateFromCart(ctx context.Context, userID uuid.UUID, details CheckoutDetails) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, patch UpdateInput) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetOrderPrintDetails(ctx context.Context, id uuid.UUID) (*PrintDetails, error)
	GetFinalPrintFile(ctx context.Context, orderItemID uuid.UUID) (string, error)
	GetOrderItemDesigns(ctx context.Context, orderItemID uuid.UUID) (*ItemDesigns, error)

	AddItem(ctx context.Context, input ItemCreateInput) (*models.OrderItem, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, patch ItemUpdateInput) (*models.OrderItem, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
}

type service struct {
	repo     Repository
	users    users.Repository
	catalog  Catalog
	carts    cart.Repository
	notifier notifications.Service
	tx       TxRunner
	logg     *logger.Logger
}

// ItemInput is one requested line of a new order.
type ItemInput struct {
	VariantID       uuid.UUID
	Quantity        int
	Price           decimal.Decimal
	FrontDesign     json.RawMessage
	BackDesign      json.RawMessage
	FrontPreviewURL *string
	BackPreviewURL  *string
	FinalPrintFile  *string
}

// CreateInput carries a full order request.
type CreateInput struct {
	UserID        *uuid.UUID
	CustomerName  string
	CustomerPhone string
	Region        string
	Address       string
	TotalPrice    decimal.Decimal
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
	Items         []ItemInput
}

// ItemCreateInput attaches a line to an already-placed order. Unlike order
// placement, the fulfillment surface stores designs verbatim (any well-formed
// JSON, including element documents for the print renderer) and leaves stock
// alone.
type ItemCreateInput struct {
	OrderID         uuid.UUID
	VariantID       uuid.UUID
	Quantity        int
	Price           decimal.Decimal
	FrontDesign     json.RawMessage
	BackDesign      json.RawMessage
	FrontPreviewURL *string
	BackPreviewURL  *string
}

// ItemUpdateInput is a partial order-item patch.
type ItemUpdateInput struct {
	VariantID       *uuid.UUID
	Quantity        *int
	Price           *decimal.Decimal
	FrontDesign     json.RawMessage
	BackDesign      json.RawMessage
	FrontPreviewURL *string
	BackPreviewURL  *string
}

// CheckoutDetails carries the contact fields for a cart checkout.
type CheckoutDetails struct {
	CustomerName  string
	CustomerPhone string
	Region        string
	Address       string
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
}

// UpdateInput is a partial order patch. UserID is only applied when the
// pointer is set, so an absent field never nulls out ownership.
type UpdateInput struct {
	UserID        **uuid.UUID
	CustomerName  *string
	CustomerPhone *string
	Region        *string
	Address       *string
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	TotalPrice    *decimal.Decimal
}

// PrintDetails is the denormalized admin view of an order's printable items.
type PrintDetails struct {
	Order    PrintOrderSummary  `json:"order"`
	Customer CustomerSnapshot   `json:"customer"`
	Items    []PrintItemDetails `json:"items"`
}

type PrintOrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	TotalPrice    decimal.Decimal     `json:"totalPrice"`
}

type CustomerSnapshot struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone *string   `json:"phone"`
}

type PrintItemDetails struct {
	ID               uuid.UUID        `json:"id"`
	Variant          PrintVariantInfo `json:"variant"`
	Product          PrintProductInfo `json:"product"`
	Quantity         int              `json:"quantity"`
	Price            decimal.Decimal  `json:"price"`
	FrontOriginalURL *string          `json:"frontOriginalUrl"`
	FrontPreviewURL  *string          `json:"frontPreviewUrl"`
	BackPreviewURL   *string          `json:"backPreviewUrl"`
	FrontDesign      json.RawMessage  `json:"frontCoordinates"`
	BackDesign       json.RawMessage  `json:"backCoordinates"`
}

type PrintVariantInfo struct {
	ID         uuid.UUID  `json:"id"`
	Color      string     `json:"color"`
	Size       enums.Size `json:"size"`
	FrontImage *string    `json:"frontImage"`
	BackImage  *string    `json:"backImage"`
}

type PrintProductInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ItemDesigns returns the stored design payloads of one order item.
type ItemDesigns struct {
	FrontDesign json.RawMessage `json:"frontDesign"`
	BackDesign  json.RawMessage `json:"backDesign"`
}

// NewService wires the order workflow dependencies.
func NewService(
	repo Repository,
	userRepo users.Repository,
	catalog Catalog,
	cartRepo cart.Repository,
	notifier notifications.Service,
	tx TxRunner,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if userRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog required")
	}
	if cartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:     repo,
		users:    userRepo,
		catalog:  catalog,
		carts:    cartRepo,
		notifier: notifier,
		tx:       tx,
		logg:     logg,
	}, nil
}

// Create validates the whole request up front, then inserts the order, its
// items and the stock decrements in one transaction.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := s.validateRequest(ctx, &input); err != nil {
		return nil, err
	}
	return s.placeOrder(ctx, input)
}

// CreateFromCart builds an order from the user's cart at current variant
// prices, then clears the cart. Cart clearing is best-effort: a failure after
// commit leaves the order standing.
func (s *service) CreateFromCart(ctx context.Context, userID uuid.UUID, details CheckoutDetails) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	userCart, err := s.carts.FindCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(userCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	total := decimal.Zero
	items := make([]ItemInput, 0, len(userCart.Items))
	for _, cartItem := range userCart.Items {
		variant, err := s.findVariant(ctx, cartItem.VariantID)
		if err != nil {
			return nil, err
		}

		item := ItemInput{
			VariantID:       cartItem.VariantID,
			Quantity:        cartItem.Quantity,
			Price:           variant.Price, // current price, never the cached one
			FrontPreviewURL: cartItem.FrontPreviewURL,
			BackPreviewURL:  cartItem.BackPreviewURL,
		}
		if cartItem.FrontDesign != nil {
			item.FrontDesign = json.RawMessage(*cartItem.FrontDesign)
		}
		if cartItem.BackDesign != nil {
			item.BackDesign = json.RawMessage(*cartItem.BackDesign)
		}
		items = append(items, item)
		total = total.Add(variant.Price.Mul(decimal.NewFromInt(int64(cartItem.Quantity))))
	}

	input := CreateInput{
		UserID:        &userID,
		CustomerName:  details.CustomerName,
		CustomerPhone: details.CustomerPhone,
		Region:        details.Region,
		Address:       details.Address,
		TotalPrice:    total,
		Status:        details.Status,
		PaymentStatus: details.PaymentStatus,
		Items:         items,
	}
	if err := s.validateRequest(ctx, &input); err != nil {
		return nil, err
	}

	order, err := s.placeOrder(ctx, input)
	if err != nil {
		return nil, err
	}

	if _, err := s.carts.DeleteItemsByCart(ctx, userCart.ID); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "clearing cart after checkout failed")
	}
	return order, nil
}

func (s *service) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// Update applies a partial patch. A status change creates one notification
// for the owning user before the new status is persisted; guest orders skip
// the notification.
func (s *service) Update(ctx context.Context, id uuid.UUID, patch UpdateInput) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	statusChanging := patch.Status != nil && *patch.Status != order.Status
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *patch.Status)
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", *patch.PaymentStatus)
	}

	if statusChanging && order.UserID != nil {
		_, err := s.notifier.Create(ctx, notifications.CreateInput{
			UserID:  *order.UserID,
			Type:    enums.NotificationTypeOrder,
			Title:   "Order Status Updated",
			Message: fmt.Sprintf("Your order #%s status has been updated to %s", order.ID, *patch.Status),
		})
		if err != nil {
			return nil, err
		}
	}

	if patch.UserID != nil {
		order.UserID = *patch.UserID
	}
	if patch.CustomerName != nil {
		order.CustomerName = *patch.CustomerName
	}
	if patch.CustomerPhone != nil {
		order.CustomerPhone = *patch.CustomerPhone
	}
	if patch.Region != nil {
		order.Region = *patch.Region
	}
	if patch.Address != nil {
		order.Address = *patch.Address
	}
	if patch.Status != nil {
		order.Status = *patch.Status
	}
	if patch.PaymentStatus != nil {
		order.PaymentStatus = *patch.PaymentStatus
	}
	if patch.TotalPrice != nil {
		if patch.TotalPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "total price cannot be negative")
		}
		order.TotalPrice = *patch.TotalPrice
	}

	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return order, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteOrder(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func (s *service) GetOrderPrintDetails(ctx context.Context, id uuid.UUID) (*PrintDetails, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrderWithVariants(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no associated user")
	}

	user, err := s.users.FindByID(ctx, *order.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no associated user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	details := &PrintDetails{
		Order: PrintOrderSummary{
			ID:            order.ID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			TotalPrice:    order.TotalPrice,
		},
		Customer: CustomerSnapshot{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Phone: user.Phone,
		},
		Items: make([]PrintItemDetails, 0, len(order.Items)),
	}

	for _, item := range order.Items {
		entry := PrintItemDetails{
			ID:               item.ID,
			Quantity:         item.Quantity,
			Price:            item.Price,
			FrontOriginalURL: item.FinalPrintFile,
			FrontPreviewURL:  item.FrontPreviewURL,
			BackPreviewURL:   item.BackPreviewURL,
		}
		if item.FrontDesign != nil {
			entry.FrontDesign = json.RawMessage(*item.FrontDesign)
		}
		if item.BackDesign != nil {
			entry.BackDesign = json.RawMessage(*item.BackDesign)
		}
		if item.Variant != nil {
			entry.Variant = PrintVariantInfo{
				ID:         item.Variant.ID,
				Color:      item.Variant.Color,
				Size:       item.Variant.Size,
				FrontImage: item.Variant.FrontImageURL,
				BackImage:  item.Variant.BackImageURL,
			}
			product, err := s.catalog.FindProduct(ctx, item.Variant.ProductID)
			if err == nil {
				entry.Product = PrintProductInfo{ID: product.ID, Name: product.Name}
			}
		}
		details.Items = append(details.Items, entry)
	}
	return details, nil
}

func (s *service) GetFinalPrintFile(ctx context.Context, orderItemID uuid.UUID) (string, error) {
	if orderItemID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}

	item, err := s.repo.FindItem(ctx, orderItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "final print file not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	if item.FinalPrintFile == nil || *item.FinalPrintFile == "" {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "final print file not found")
	}
	return *item.FinalPrintFile, nil
}

func (s *service) GetOrderItemDesigns(ctx context.Context, orderItemID uuid.UUID) (*ItemDesigns, error) {
	if orderItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}

	item, err := s.repo.FindItem(ctx, orderItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}

	designs := &ItemDesigns{}
	if item.FrontDesign != nil {
		designs.FrontDesign = json.RawMessage(*item.FrontDesign)
	}
	if item.BackDesign != nil {
		designs.BackDesign = json.RawMessage(*item.BackDesign)
	}
	return designs, nil
}

// AddItem inserts one line onto an existing order. This is the fulfillment
// fixup path: no stock movement, and design payloads only need to be
// well-formed JSON so print-renderer element documents can be attached.
func (s *service) AddItem(ctx context.Context, input ItemCreateInput) (*models.OrderItem, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
	}
	if _, err := s.Get(ctx, input.OrderID); err != nil {
		return nil, err
	}
	if _, err := s.findVariant(ctx, input.VariantID); err != nil {
		return nil, err
	}

	front, err := serializeItemDesign(input.FrontDesign)
	if err != nil {
		return nil, err
	}
	back, err := serializeItemDesign(input.BackDesign)
	if err != nil {
		return nil, err
	}

	item := &models.OrderItem{
		OrderID:         input.OrderID,
		VariantID:       input.VariantID,
		Quantity:        input.Quantity,
		Price:           input.Price,
		FrontDesign:     front,
		BackDesign:      back,
		FrontPreviewURL: input.FrontPreviewURL,
		BackPreviewURL:  input.BackPreviewURL,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}
	return items, nil
}

// UpdateItem applies a partial patch to one order item. Designs follow the
// same verbatim policy as AddItem.
func (s *service) UpdateItem(ctx context.Context, itemID uuid.UUID, patch ItemUpdateInput) (*models.OrderItem, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if patch.VariantID != nil {
		if _, err := s.findVariant(ctx, *patch.VariantID); err != nil {
			return nil, err
		}
		item.VariantID = *patch.VariantID
		item.Variant = nil
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		item.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
		item.Price = *patch.Price
	}
	if len(patch.FrontDesign) > 0 {
		front, err := serializeItemDesign(patch.FrontDesign)
		if err != nil {
			return nil, err
		}
		item.FrontDesign = front
	}
	if len(patch.BackDesign) > 0 {
		back, err := serializeItemDesign(patch.BackDesign)
		if err != nil {
			return nil, err
		}
		item.BackDesign = back
	}
	if patch.FrontPreviewURL != nil {
		item.FrontPreviewURL = patch.FrontPreviewURL
	}
	if patch.BackPreviewURL != nil {
		item.BackPreviewURL = patch.BackPreviewURL
	}

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
	}
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}
	deleted, err := s.repo.DeleteItem(ctx, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order item")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
	}
	return nil
}

// validateRequest runs every precondition before any write: user existence,
// variant existence, stock coverage and design schema for every line item.
func (s *service) validateRequest(ctx context.Context, input *CreateInput) error {
	if input.CustomerName == "" || input.CustomerPhone == "" || input.Region == "" || input.Address == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name, phone, region and address required")
	}
	if input.TotalPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total price cannot be negative")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	if input.Status == "" {
		input.Status = enums.OrderStatusPending
	} else if !input.Status.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", input.Status)
	}
	if input.PaymentStatus == "" {
		input.PaymentStatus = enums.PaymentStatusUnpaid
	} else if !input.PaymentStatus.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", input.PaymentStatus)
	}

	if input.UserID != nil {
		exists, err := s.users.Exists(ctx, *input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
	}

	for _, item := range input.Items {
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		if item.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}

		variant, err := s.findVariant(ctx, item.VariantID)
		if err != nil {
			return err
		}
		if variant.Stock < item.Quantity {
			return insufficientStock(item.VariantID, variant.Stock, item.Quantity)
		}

		if err := design.Validate(item.FrontDesign); err != nil {
			return err
		}
		if err := design.Validate(item.BackDesign); err != nil {
			return err
		}
	}
	return nil
}

// placeOrder runs the atomic unit: insert order, then per item insert the row
// and decrement stock. A failed decrement aborts the whole transaction.
func (s *service) placeOrder(ctx context.Context, input CreateInput) (*models.Order, error) {
	order := &models.Order{
		UserID:        input.UserID,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		Region:        input.Region,
		Address:       input.Address,
		Status:        input.Status,
		PaymentStatus: input.PaymentStatus,
		TotalPrice:    input.TotalPrice,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for _, item := range input.Items {
			row := &models.OrderItem{
				OrderID:         order.ID,
				VariantID:       item.VariantID,
				Quantity:        item.Quantity,
				Price:           item.Price,
				FrontPreviewURL: item.FrontPreviewURL,
				BackPreviewURL:  item.BackPreviewURL,
				FinalPrintFile:  item.FinalPrintFile,
			}
			if len(item.FrontDesign) > 0 {
				serialized := string(item.FrontDesign)
				row.FrontDesign = &serialized
			}
			if len(item.BackDesign) > 0 {
				serialized := string(item.BackDesign)
				row.BackDesign = &serialized
			}
			if err := repo.CreateItem(ctx, row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
			}

			decremented, err := repo.DecrementStock(ctx, item.VariantID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !decremented {
				available := 0
				var variant models.Variant
				if vErr := tx.WithContext(ctx).First(&variant, "id = ?", item.VariantID).Error; vErr == nil {
					available = variant.Stock
				}
				return insufficientStock(item.VariantID, available, item.Quantity)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) findVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	variant, err := s.catalog.FindVariant(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "variant %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return variant, nil
}

// serializeItemDesign stores the payload verbatim; only well-formedness is
// checked. The strict DesignObject schema applies to order placement, not to
// the fulfillment item surface.
func serializeItemDesign(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "design must be valid JSON")
	}
	serialized := string(raw)
	return &serialized, nil
}

func insufficientStock(variantID uuid.UUID, available, requested int) error {
	return pkgerrors.Newf(
		pkgerrors.CodeInsufficientStock,
		"Insufficient stock for variant %s. Available: %d, Requested: %d",
		variantID, available, requested,
	).WithDetails(map[string]int{
		"available": available,
		"requested": requested,
	})
}
