package printfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"gorm.io/gorm"

	_ "image/jpeg"

	"github.com/inkforge/inkforge-backend/internal/orders"
	"github.com/inkforge/inkforge-backend/pkg/config"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/design"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/logger"
	"github.com/inkforge/inkforge-backend/pkg/storage"
)

// Service renders production-ready print files from stored design documents.
type Service interface {
	GeneratePrintFile(ctx context.Context, orderItemID uuid.UUID) (string, error)
}

type service struct {
	items orders.Repository
	store storage.Store
	cfg   config.PrintFileConfig
	logg  *logger.Logger
}

// NewService wires the compositor dependencies.
func NewService(items orders.Repository, store storage.Store, cfg config.PrintFileConfig, logg *logger.Logger) (Service, error) {
	if items == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "storage store required")
	}
	if cfg.CanvasSize <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "canvas size must be positive")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{items: items, store: store, cfg: cfg, logg: logg}, nil
}

// GeneratePrintFile renders the item's design document onto a transparent
// square canvas, stores the PNG and persists its URL on the item. Elements
// whose asset cannot be found locally are skipped rather than failing the
// render.
func (s *service) GeneratePrintFile(ctx context.Context, orderItemID uuid.UUID) (string, error) {
	if orderItemID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}

	item, err := s.items.FindItem(ctx, orderItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}

	doc, err := s.designDocument(item)
	if err != nil {
		return "", err
	}

	if s.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RenderTimeout)
		defer cancel()
	}

	canvas, err := s.render(ctx, doc)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding print file")
	}

	key := fmt.Sprintf("print-files/%s_print.png", uuid.New())
	url, err := s.store.Save(ctx, key, "image/png", &buf)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing print file")
	}

	item.FinalPrintFile = &url
	if err := s.items.SaveItem(ctx, item); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving print file url")
	}
	return url, nil
}

// designDocument picks the front design, falling back to the back. The stored
// payload must be an element document to be printable.
func (s *service) designDocument(item *models.OrderItem) (design.Document, error) {
	stored := item.FrontDesign
	if stored == nil || *stored == "" {
		stored = item.BackDesign
	}
	if stored == nil || *stored == "" {
		return design.Document{}, pkgerrors.New(pkgerrors.CodeInternal, "order item has no design to print")
	}

	doc, ok := design.ParseDocument(*stored)
	if !ok {
		return design.Document{}, pkgerrors.New(pkgerrors.CodeInternal, "design is not a printable element document")
	}
	return doc, nil
}

func (s *service) render(ctx context.Context, doc design.Document) (*image.RGBA, error) {
	size := s.cfg.CanvasSize
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))

	for _, element := range doc.Elements {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "print file render timed out")
		}
		if element.AssetURL == "" {
			continue
		}

		src, ok := s.loadAsset(ctx, element.AssetURL)
		if !ok {
			continue
		}
		drawElement(canvas, src, element, float64(size))
	}
	return canvas, nil
}

// loadAsset resolves the asset URL against the local storage root. Remote or
// missing assets are skipped.
func (s *service) loadAsset(ctx context.Context, assetURL string) (image.Image, bool) {
	local, ok := s.store.Resolve(assetURL)
	if !ok {
		return nil, false
	}

	f, err := os.Open(local)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "asset_url", assetURL), "skipping unreadable print asset")
		return nil, false
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "asset_url", assetURL), "skipping undecodable print asset")
		return nil, false
	}
	return src, true
}

// drawElement places one asset on the canvas. Element coordinates are
// percentages of the canvas edge; the transform scales the source into the
// element box, rotates around the box center and translates it into place.
func drawElement(canvas *image.RGBA, src image.Image, element design.Element, canvasSize float64) {
	bounds := src.Bounds()
	srcW := float64(bounds.Dx())
	srcH := float64(bounds.Dy())
	if srcW == 0 || srcH == 0 {
		return
	}

	boxW := element.WidthPercent / 100 * canvasSize
	boxH := element.HeightPercent / 100 * canvasSize
	if boxW <= 0 || boxH <= 0 {
		return
	}

	scale := element.Scale
	if scale == 0 {
		scale = 1
	}
	scaleX := boxW / srcW * scale
	scaleY := boxH / srcH * scale

	centerX := element.XPercent/100*canvasSize + boxW/2
	centerY := element.YPercent/100*canvasSize + boxH/2

	theta := element.Rotation * math.Pi / 180
	cos := math.Cos(theta)
	sin := math.Sin(theta)

	// T(center) * R(theta) * S(scale) * T(-srcCenter)
	a := cos * scaleX
	b := -sin * scaleY
	d := sin * scaleX
	e := cos * scaleY
	transform := f64.Aff3{
		a, b, centerX - (a*srcW/2 + b*srcH/2),
		d, e, centerY - (d*srcW/2 + e*srcH/2),
	}

	draw.CatmullRom.Transform(canvas, transform, src, bounds, draw.Over, nil)
}
