package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/internal/users"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
)

type stubCartRepo struct {
	cart         *models.Cart
	cartErr      error
	item         *models.CartItem
	itemErr      error
	createdCarts []*models.Cart
	createdItems []*models.CartItem
	clearedCarts []uuid.UUID
}

func (s *stubCartRepo) WithTx(*gorm.DB) Repository { return s }
func (s *stubCartRepo) CreateCart(_ context.Context, c *models.Cart) error {
	c.ID = uuid.New()
	s.createdCarts = append(s.createdCarts, c)
	return nil
}
func (s *stubCartRepo) FindCartByUser(context.Context, uuid.UUID) (*models.Cart, error) {
	return s.cart, s.cartErr
}
func (s *stubCartRepo) FindItem(context.Context, uuid.UUID) (*models.CartItem, error) {
	return s.item, s.itemErr
}
func (s *stubCartRepo) CreateItem(_ context.Context, i *models.CartItem) error {
	s.createdItems = append(s.createdItems, i)
	return nil
}
func (s *stubCartRepo) SaveItem(context.Context, *models.CartItem) error { return nil }
func (s *stubCartRepo) DeleteItem(context.Context, uuid.UUID) (int64, error) {
	return 1, nil
}
func (s *stubCartRepo) DeleteItemsByCart(_ context.Context, cartID uuid.UUID) (int64, error) {
	s.clearedCarts = append(s.clearedCarts, cartID)
	return 2, nil
}

type stubUserRepo struct {
	exists bool
}

func (s *stubUserRepo) WithTx(*gorm.DB) users.Repository                          { return s }
func (s *stubUserRepo) Create(context.Context, *models.User) error                { return nil }
func (s *stubUserRepo) FindByID(context.Context, uuid.UUID) (*models.User, error) { return nil, nil }
func (s *stubUserRepo) FindByEmail(context.Context, string) (*models.User, error) { return nil, nil }
func (s *stubUserRepo) Exists(context.Context, uuid.UUID) (bool, error)           { return s.exists, nil }
func (s *stubUserRepo) Save(context.Context, *models.User) error                  { return nil }
func (s *stubUserRepo) FindByPhone(context.Context, string) (*models.User, error) { return nil, nil }
func (s *stubUserRepo) List(context.Context) ([]models.User, error)               { return nil, nil }
func (s *stubUserRepo) Delete(context.Context, uuid.UUID) (int64, error)          { return 0, nil }

type stubVariantFinder struct {
	variant *models.Variant
	err     error
}

func (s *stubVariantFinder) GetVariant(context.Context, uuid.UUID) (*models.Variant, error) {
	return s.variant, s.err
}

func newCartService(t *testing.T, repo *stubCartRepo, userExists bool, variants *stubVariantFinder) Service {
	t.Helper()
	if variants == nil {
		variants = &stubVariantFinder{variant: &models.Variant{ID: uuid.New()}}
	}
	svc, err := NewService(repo, &stubUserRepo{exists: userExists}, variants)
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	assert.Equal(t, code, appErr.Code())
}

func TestCreate_SecondCartRejected(t *testing.T) {
	repo := &stubCartRepo{cart: &models.Cart{ID: uuid.New()}}
	svc := newCartService(t, repo, true, nil)

	_, err := svc.Create(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestGetOrCreate_CreatesOnFirstRead(t *testing.T) {
	repo := &stubCartRepo{cartErr: gorm.ErrRecordNotFound}
	svc := newCartService(t, repo, true, nil)

	cart, err := svc.GetOrCreate(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Len(t, repo.createdCarts, 1)
}

func TestAddItem_UnknownVariant(t *testing.T) {
	repo := &stubCartRepo{cart: &models.Cart{ID: uuid.New()}}
	finder := &stubVariantFinder{err: pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")}
	svc := newCartService(t, repo, true, finder)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
		VariantID: uuid.New(),
		Quantity:  1,
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
	assert.Empty(t, repo.createdItems)
}

func TestAddItem_StoresDesignVerbatim(t *testing.T) {
	repo := &stubCartRepo{cart: &models.Cart{ID: uuid.New()}}
	svc := newCartService(t, repo, true, nil)

	payload := `{"elements":[{"assetUrl":"/uploads/a.png","x_percent":10,"y_percent":10,"width_percent":50,"height_percent":50}]}`
	item, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
		VariantID:   uuid.New(),
		Quantity:    2,
		FrontDesign: json.RawMessage(payload),
	})
	require.NoError(t, err)
	require.NotNil(t, item.FrontDesign)
	assert.Equal(t, payload, *item.FrontDesign)
	assert.Nil(t, item.BackDesign)
}

func TestAddItem_RejectsMalformedJSON(t *testing.T) {
	repo := &stubCartRepo{cart: &models.Cart{ID: uuid.New()}}
	svc := newCartService(t, repo, true, nil)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
		VariantID:   uuid.New(),
		Quantity:    1,
		FrontDesign: json.RawMessage(`{"broken":`),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateItem_ForeignItemHidden(t *testing.T) {
	userCart := &models.Cart{ID: uuid.New()}
	repo := &stubCartRepo{
		cart: userCart,
		item: &models.CartItem{ID: uuid.New(), CartID: uuid.New()}, // belongs elsewhere
	}
	svc := newCartService(t, repo, true, nil)

	_, err := svc.UpdateItem(context.Background(), uuid.New(), repo.item.ID, UpdateItemInput{})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestClear_MissingCartIsNoop(t *testing.T) {
	repo := &stubCartRepo{cartErr: gorm.ErrRecordNotFound}
	svc := newCartService(t, repo, true, nil)

	assert.NoError(t, svc.Clear(context.Background(), uuid.New()))
	assert.Empty(t, repo.clearedCarts)
}
