package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/pkg/db/models"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/logger"
	"github.com/inkforge/inkforge-backend/pkg/storage"
)

// allowedContentTypes limits uploads to the design asset formats the
// compositor can decode.
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Service stores user-uploaded design assets.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (*models.Asset, error)
	List(ctx context.Context) ([]models.Asset, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Asset, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	store storage.Store
	logg  *logger.Logger
}

// UploadInput carries one multipart file upload.
type UploadInput struct {
	UserID      *uuid.UUID
	Filename    string
	ContentType string
	Body        io.Reader
}

// NewService wires asset dependencies.
func NewService(repo Repository, store storage.Store, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assets repository required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "storage store required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, store: store, logg: logg}, nil
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*models.Asset, error) {
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body required")
	}
	ext, ok := allowedContentTypes[strings.ToLower(input.ContentType)]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only jpeg and png uploads are allowed")
	}
	if got := strings.ToLower(path.Ext(input.Filename)); got != "" && got != ext && !(got == ".jpeg" && ext == ".jpg") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file extension does not match content type")
	}

	key := fmt.Sprintf("designs/%s%s", uuid.New(), ext)
	url, err := s.store.Save(ctx, key, input.ContentType, input.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing upload")
	}

	asset := &models.Asset{UserID: input.UserID, URL: url}
	if err := s.repo.Create(ctx, asset); err != nil {
		if delErr := s.store.Delete(ctx, url); delErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "asset_url", url), "orphaned upload cleanup failed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create asset")
	}
	return asset, nil
}

func (s *service) List(ctx context.Context) ([]models.Asset, error) {
	assets, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assets")
	}
	return assets, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Asset, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	assets, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assets")
	}
	return assets, nil
}

// Delete removes the database row and then the stored object. A storage
// failure is logged rather than surfaced so the row never outlives a
// half-deleted object.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}

	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete asset")
	}
	if err := s.store.Delete(ctx, asset.URL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "asset_url", asset.URL), "deleting stored object failed")
	}
	return nil
}
