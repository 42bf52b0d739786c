package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/internal/users"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
)

// VariantFinder is the slice of the catalog the cart needs.
type VariantFinder interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error)
}

// Service manages the single per-user cart and its items.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, patch UpdateItemInput) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	users    users.Repository
	variants VariantFinder
}

// AddItemInput carries a new cart line.
type AddItemInput struct {
	VariantID       uuid.UUID
	Quantity        int
	FrontDesign     json.RawMessage
	BackDesign      json.RawMessage
	FrontPreviewURL *string
	BackPreviewURL  *string
}

// UpdateItemInput is a partial cart line patch.
type UpdateItemInput struct {
	Quantity        *int
	FrontDesign     json.RawMessage
	BackDesign      json.RawMessage
	FrontPreviewURL *string
	BackPreviewURL  *string
}

// NewService wires cart dependencies.
func NewService(repo Repository, userRepo users.Repository, variants VariantFinder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if userRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if variants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "variant finder required")
	}
	return &service{repo: repo, users: userRepo, variants: variants}, nil
}

// Create makes a cart for the user, refusing a second one.
func (s *service) Create(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	if _, err := s.repo.FindCartByUser(ctx, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already has a cart")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	cart := &models.Cart{UserID: userID}
	if err := s.repo.CreateCart(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return cart, nil
}

// GetOrCreate returns the user's cart with items, creating an empty cart on
// first read.
func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	cart, err := s.repo.FindCartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	fresh := &models.Cart{UserID: userID, Items: []models.CartItem{}}
	if err := s.repo.CreateCart(ctx, fresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return fresh, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if _, err := s.variants.GetVariant(ctx, input.VariantID); err != nil {
		return nil, err
	}

	frontDesign, err := serializeDesign(input.FrontDesign)
	if err != nil {
		return nil, err
	}
	backDesign, err := serializeDesign(input.BackDesign)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := &models.CartItem{
		CartID:          cart.ID,
		VariantID:       input.VariantID,
		Quantity:        input.Quantity,
		FrontDesign:     frontDesign,
		BackDesign:      backDesign,
		FrontPreviewURL: input.FrontPreviewURL,
		BackPreviewURL:  input.BackPreviewURL,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, patch UpdateItemInput) (*models.CartItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if patch.Quantity != nil {
		if *patch.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		item.Quantity = *patch.Quantity
	}
	if patch.FrontDesign != nil {
		serialized, err := serializeDesign(patch.FrontDesign)
		if err != nil {
			return nil, err
		}
		item.FrontDesign = serialized
	}
	if patch.BackDesign != nil {
		serialized, err := serializeDesign(patch.BackDesign)
		if err != nil {
			return nil, err
		}
		item.BackDesign = serialized
	}
	if patch.FrontPreviewURL != nil {
		item.FrontPreviewURL = patch.FrontPreviewURL
	}
	if patch.BackPreviewURL != nil {
		item.BackPreviewURL = patch.BackPreviewURL
	}

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteItem(ctx, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

// Clear removes every item from the user's cart. The cart row itself stays.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if _, err := s.repo.DeleteItemsByCart(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id required")
	}

	cart, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item.CartID != cart.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}

// serializeDesign stores the payload verbatim. Cart designs are free-form
// (they may carry compositor element documents); the strict DesignObject
// schema is enforced by the order workflow.
func serializeDesign(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "design must be valid JSON")
	}
	serialized := string(raw)
	return &serialized, nil
}
