package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkforge/inkforge-backend/internal/assets"
	"github.com/inkforge/inkforge-backend/internal/auth"
	"github.com/inkforge/inkforge-backend/internal/cart"
	"github.com/inkforge/inkforge-backend/internal/notifications"
	"github.com/inkforge/inkforge-backend/internal/orders"
	"github.com/inkforge/inkforge-backend/internal/printfile"
	"github.com/inkforge/inkforge-backend/internal/products"
	"github.com/inkforge/inkforge-backend/internal/users"
	pkgauth "github.com/inkforge/inkforge-backend/pkg/auth"
	"github.com/inkforge/inkforge-backend/pkg/config"
	"github.com/inkforge/inkforge-backend/pkg/db"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	"github.com/inkforge/inkforge-backend/pkg/logger"
	"github.com/inkforge/inkforge-backend/pkg/storage"
)

type noopMailer struct{}

func (noopMailer) SendOTP(context.Context, string, string) error {
	return nil
}

func routerConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:                 "access-secret",
			RefreshSecret:          "refresh-secret",
			Issuer:                 "inkforge-test",
			ExpirationMinutes:      15,
			RefreshTokenTTLMinutes: 10080,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		OTP: config.OTPConfig{TTL: 10 * time.Minute},
		Storage: config.StorageConfig{
			Driver:        "local",
			UploadRoot:    "uploads",
			PublicBaseURL: "/uploads",
			MaxUploadMB:   5,
		},
		PrintFile: config.PrintFileConfig{CanvasSize: 100, RenderTimeout: 5 * time.Second},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB, *config.Config) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Variant{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
		&models.Asset{},
	))

	cfg := routerConfig()
	logg := logger.New(logger.Options{ServiceName: "routes-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	dbClient := db.NewWithConn(conn)

	store, err := storage.NewLocalStore(t.TempDir(), cfg.Storage)
	require.NoError(t, err)

	usersRepo := users.NewRepository(conn)
	productsRepo := products.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(conn), usersRepo)
	require.NoError(t, err)
	productsSvc, err := products.NewService(productsRepo)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cartRepo, usersRepo, productsSvc)
	require.NoError(t, err)
	ordersSvc, err := orders.NewService(ordersRepo, usersRepo, productsRepo, cartRepo, notificationsSvc, dbClient, logg)
	require.NoError(t, err)
	authSvc, err := auth.NewService(usersRepo, noopMailer{}, cfg, logg)
	require.NoError(t, err)
	usersSvc, err := users.NewService(usersRepo, cfg)
	require.NoError(t, err)
	assetsSvc, err := assets.NewService(assets.NewRepository(conn), store, logg)
	require.NoError(t, err)
	printFilesSvc, err := printfile.NewService(ordersRepo, store, cfg.PrintFile, logg)
	require.NoError(t, err)

	router := NewRouter(cfg, logg, dbClient, nil, nil, store.UploadDir(), Services{
		Auth:          authSvc,
		Users:         usersSvc,
		Products:      productsSvc,
		Cart:          cartSvc,
		Orders:        ordersSvc,
		Notifications: notificationsSvc,
		Assets:        assetsSvc,
		PrintFiles:    printFilesSvc,
	})
	return router, conn, cfg
}

func seedRouterUser(t *testing.T, conn *gorm.DB, role enums.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:    string(role) + "@example.com",
		Name:     "Test User",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func bearerFor(t *testing.T, cfg *config.Config, user *models.User) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.TokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, router http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthLive(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health/live", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-InkForge-Env"))
	assert.Contains(t, rec.Body.String(), `"live"`)
}

func TestRouter_PublicCatalogNeedsNoToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/products", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRoutesRejectMissingToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/cart", "/api/v1/notifications", "/api/v1/assets/mine"} {
		rec := doRequest(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "path %s", path)
	}
}

func TestRouter_StaffRoutesRejectRegularUsers(t *testing.T) {
	router, conn, cfg := newTestRouter(t)
	user := seedRouterUser(t, conn, enums.RoleUser)
	bearer := bearerFor(t, cfg, user)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/orders", bearer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/products", bearer, map[string]any{"name": "Tee"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_StaffCanListOrders(t *testing.T) {
	router, conn, cfg := newTestRouter(t)
	admin := seedRouterUser(t, conn, enums.RoleAdmin)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/orders", bearerFor(t, cfg, admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CartRoundTrip(t *testing.T) {
	router, conn, cfg := newTestRouter(t)
	user := seedRouterUser(t, conn, enums.RoleUser)
	bearer := bearerFor(t, cfg, user)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/cart", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.Cart `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEqual(t, uuid.Nil, envelope.Data.ID)
	assert.Equal(t, user.ID, envelope.Data.UserID)
}

func seedRouterVariant(t *testing.T, conn *gorm.DB) *models.Variant {
	t.Helper()
	product := &models.Product{Name: "Classic Tee", Category: enums.ProductCategoryTShirt, IsActive: true}
	require.NoError(t, conn.Create(product).Error)
	variant := &models.Variant{
		ProductID: product.ID,
		Color:     "black",
		Size:      enums.SizeM,
		Price:     decimal.RequireFromString("10.00"),
		Stock:     10,
	}
	require.NoError(t, conn.Create(variant).Error)
	return variant
}

func orderBody(variant *models.Variant, extra map[string]any) map[string]any {
	body := map[string]any{
		"customerName":  "Walk-in Customer",
		"customerPhone": "+15550002222",
		"region":        "Dhaka",
		"address":       "1 Guest Lane",
		"totalPrice":    "10.00",
		"items": []map[string]any{{
			"variantId": variant.ID.String(),
			"quantity":  1,
			"price":     "10.00",
		}},
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

// Staff can record orders that belong to no account (walk-in sales) or to a
// chosen account; regular callers always own what they create.
func TestRouter_StaffCreatesGuestOrder(t *testing.T) {
	router, conn, cfg := newTestRouter(t)
	admin := seedRouterUser(t, conn, enums.RoleAdmin)
	variant := seedRouterVariant(t, conn)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/orders", bearerFor(t, cfg, admin), orderBody(variant, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, conn.First(&order).Error)
	assert.Nil(t, order.UserID)
}

func TestRouter_StaffCreatesOrderForAnotherUser(t *testing.T) {
	router, conn, cfg := newTestRouter(t)
	admin := seedRouterUser(t, conn, enums.RoleAdmin)
	customer := seedRouterUser(t, conn, enums.RoleUser)
	variant := seedRouterVariant(t, conn)

	body := orderBody(variant, map[string]any{"userId": customer.ID.String()})
	rec := doRequest(t, router, http.MethodPost, "/api/v1/orders", bearerFor(t, cfg, admin), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, conn.First(&order).Error)
	require.NotNil(t, order.UserID)
	assert.Equal(t, customer.ID, *order.UserID)
}

func TestRouter_RegularUserCannotAssignOrderOwner(t *testing.T) {
	router, conn, cfg := newTestRouter(t)
	user := seedRouterUser(t, conn, enums.RoleUser)
	other := seedRouterUser(t, conn, enums.RoleAdmin)
	variant := seedRouterVariant(t, conn)

	body := orderBody(variant, map[string]any{"userId": other.ID.String()})
	rec := doRequest(t, router, http.MethodPost, "/api/v1/orders", bearerFor(t, cfg, user), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, conn.First(&order).Error)
	require.NotNil(t, order.UserID)
	assert.Equal(t, user.ID, *order.UserID)
}

func TestRouter_UserManagement(t *testing.T) {
	router, conn, cfg := newTestRouter(t)
	admin := seedRouterUser(t, conn, enums.RoleAdmin)
	bearer := bearerFor(t, cfg, admin)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users", bearer, map[string]any{
		"email":    "staffmade@example.com",
		"password": "s3cret-pass",
		"name":     "Staff Made",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	var envelope struct {
		Data struct {
			ID       uuid.UUID `json:"id"`
			IsActive bool      `json:"isActive"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.IsActive)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/users", bearer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPatch, "/api/v1/users/"+envelope.Data.ID.String(), bearer, map[string]any{
		"name": "Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Renamed")

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/users/"+envelope.Data.ID.String(), bearer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The management surface is staff-only.
	user := seedRouterUser(t, conn, enums.RoleUser)
	rec = doRequest(t, router, http.MethodGet, "/api/v1/users", bearerFor(t, cfg, user), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_UnknownTokenRejected(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/cart", "Bearer not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
