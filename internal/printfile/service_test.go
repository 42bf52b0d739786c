package printfile

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkforge/inkforge-backend/internal/orders"
	"github.com/inkforge/inkforge-backend/pkg/config"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/logger"
	"github.com/inkforge/inkforge-backend/pkg/storage"
)

type fixture struct {
	conn    *gorm.DB
	svc     Service
	baseDir string
}

func newFixture(t *testing.T, canvasSize int) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Product{},
		&models.Variant{},
		&models.Order{},
		&models.OrderItem{},
	))

	baseDir := t.TempDir()
	store, err := storage.NewLocalStore(baseDir, config.StorageConfig{
		UploadRoot:    "uploads",
		PublicBaseURL: "/uploads",
	})
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "printfile-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(orders.NewRepository(conn), store, config.PrintFileConfig{CanvasSize: canvasSize}, logg)
	require.NoError(t, err)

	return &fixture{conn: conn, svc: svc, baseDir: baseDir}
}

func (f *fixture) seedItem(t *testing.T, frontDesign, backDesign *string) *models.OrderItem {
	t.Helper()

	product := &models.Product{Name: "Classic Tee", Category: enums.ProductCategoryTShirt, IsActive: true}
	require.NoError(t, f.conn.Create(product).Error)
	variant := &models.Variant{
		ProductID: product.ID,
		Color:     "black",
		Size:      enums.SizeM,
		Price:     decimal.RequireFromString("19.99"),
		Stock:     10,
	}
	require.NoError(t, f.conn.Create(variant).Error)
	order := &models.Order{
		CustomerName:  "Ada Lovelace",
		CustomerPhone: "+15550001111",
		Region:        "Dhaka",
		Address:       "12 Example Road",
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
		TotalPrice:    decimal.RequireFromString("19.99"),
	}
	require.NoError(t, f.conn.Create(order).Error)

	item := &models.OrderItem{
		OrderID:     order.ID,
		VariantID:   variant.ID,
		Quantity:    1,
		Price:       variant.Price,
		FrontDesign: frontDesign,
		BackDesign:  backDesign,
	}
	require.NoError(t, f.conn.Create(item).Error)
	return item
}

// writeAsset drops a solid-red PNG under the upload root and returns its
// public URL.
func (f *fixture) writeAsset(t *testing.T, key string, size int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	target := filepath.Join(f.baseDir, "uploads", filepath.FromSlash(key))
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	out, err := os.Create(target)
	require.NoError(t, err)
	require.NoError(t, png.Encode(out, img))
	require.NoError(t, out.Close())

	return "/uploads/" + key
}

func decodePrintFile(t *testing.T, f *fixture, url string) image.Image {
	t.Helper()
	local := filepath.Join(f.baseDir, filepath.FromSlash(url[1:]))
	file, err := os.Open(local)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	return img
}

func strPtr(s string) *string { return &s }

func TestGeneratePrintFile_MissingAssetStillProducesCanvas(t *testing.T) {
	f := newFixture(t, 3000)
	item := f.seedItem(t, strPtr(`{"elements":[{"assetUrl":"/uploads/designs/missing.png","x_percent":10,"y_percent":10,"width_percent":50,"height_percent":50}]}`), nil)

	url, err := f.svc.GeneratePrintFile(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Contains(t, url, "/uploads/print-files/")
	assert.Contains(t, url, "_print.png")

	img := decodePrintFile(t, f, url)
	assert.Equal(t, 3000, img.Bounds().Dx())
	assert.Equal(t, 3000, img.Bounds().Dy())
	_, _, _, a := img.At(1500, 1500).RGBA()
	assert.Zero(t, a, "canvas should stay transparent when the asset is missing")

	var reloaded models.OrderItem
	require.NoError(t, f.conn.First(&reloaded, "id = ?", item.ID).Error)
	require.NotNil(t, reloaded.FinalPrintFile)
	assert.Equal(t, url, *reloaded.FinalPrintFile)
}

func TestGeneratePrintFile_CompositesAssetIntoElementBox(t *testing.T) {
	f := newFixture(t, 200)
	assetURL := f.writeAsset(t, "designs/red.png", 20)
	item := f.seedItem(t, strPtr(`{"elements":[{"assetUrl":"`+assetURL+`","x_percent":25,"y_percent":25,"width_percent":50,"height_percent":50}]}`), nil)

	url, err := f.svc.GeneratePrintFile(context.Background(), item.ID)
	require.NoError(t, err)

	img := decodePrintFile(t, f, url)
	r, _, _, a := img.At(100, 100).RGBA() // element box center
	assert.NotZero(t, a)
	assert.NotZero(t, r)

	_, _, _, edge := img.At(5, 5).RGBA() // outside the box
	assert.Zero(t, edge)
}

func TestGeneratePrintFile_FallsBackToBackDesign(t *testing.T) {
	f := newFixture(t, 100)
	item := f.seedItem(t, nil, strPtr(`{"elements":[]}`))

	url, err := f.svc.GeneratePrintFile(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Contains(t, url, "_print.png")
}

func TestGeneratePrintFile_NoDesign(t *testing.T) {
	f := newFixture(t, 100)
	item := f.seedItem(t, nil, nil)

	_, err := f.svc.GeneratePrintFile(context.Background(), item.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeInternal, appErr.Code())

	var reloaded models.OrderItem
	require.NoError(t, f.conn.First(&reloaded, "id = ?", item.ID).Error)
	assert.Nil(t, reloaded.FinalPrintFile)
}

func TestGeneratePrintFile_NonElementDesign(t *testing.T) {
	f := newFixture(t, 100)
	item := f.seedItem(t, strPtr(`{"x":10,"y":20}`), nil)

	_, err := f.svc.GeneratePrintFile(context.Background(), item.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeInternal, appErr.Code())
}

func TestGeneratePrintFile_UnknownItem(t *testing.T) {
	f := newFixture(t, 100)

	_, err := f.svc.GeneratePrintFile(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
