package notifications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/internal/users"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/pagination"
)

type stubNotificationRepo struct {
	created    []*models.Notification
	found      *models.Notification
	findErr    error
	mark       markResult
	markErr    error
	deletedN   int64
	unread     int64
	listRows   []models.Notification
	listCursor *pagination.Cursor
}

func (s *stubNotificationRepo) WithTx(*gorm.DB) Repository { return s }
func (s *stubNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	s.created = append(s.created, n)
	return nil
}
func (s *stubNotificationRepo) FindByID(context.Context, uuid.UUID, uuid.UUID) (*models.Notification, error) {
	return s.found, s.findErr
}
func (s *stubNotificationRepo) List(context.Context, listParams) ([]models.Notification, *pagination.Cursor, error) {
	return s.listRows, s.listCursor, nil
}
func (s *stubNotificationRepo) MarkRead(context.Context, uuid.UUID, uuid.UUID) (markResult, error) {
	return s.mark, s.markErr
}
func (s *stubNotificationRepo) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 3, nil
}
func (s *stubNotificationRepo) CountUnread(context.Context, uuid.UUID) (int64, error) {
	return s.unread, nil
}
func (s *stubNotificationRepo) Delete(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return s.deletedN, nil
}

type stubUserRepo struct {
	exists bool
	err    error
}

func (s *stubUserRepo) WithTx(*gorm.DB) users.Repository                            { return s }
func (s *stubUserRepo) Create(context.Context, *models.User) error                  { return nil }
func (s *stubUserRepo) FindByID(context.Context, uuid.UUID) (*models.User, error)   { return nil, s.err }
func (s *stubUserRepo) FindByEmail(context.Context, string) (*models.User, error)   { return nil, s.err }
func (s *stubUserRepo) Exists(context.Context, uuid.UUID) (bool, error)             { return s.exists, s.err }
func (s *stubUserRepo) Save(context.Context, *models.User) error                    { return nil }
func (s *stubUserRepo) FindByPhone(context.Context, string) (*models.User, error)   { return nil, s.err }
func (s *stubUserRepo) List(context.Context) ([]models.User, error)                 { return nil, s.err }
func (s *stubUserRepo) Delete(context.Context, uuid.UUID) (int64, error)            { return 0, s.err }

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	assert.Equal(t, code, appErr.Code())
}

func TestCreate_RequiresExistingUser(t *testing.T) {
	repo := &stubNotificationRepo{}
	svc, err := NewService(repo, &stubUserRepo{exists: false})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{
		UserID:  uuid.New(),
		Title:   "Order update",
		Message: "Your order shipped",
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
	assert.Empty(t, repo.created)
}

func TestCreate_DefaultsTypeToOrder(t *testing.T) {
	repo := &stubNotificationRepo{}
	svc, err := NewService(repo, &stubUserRepo{exists: true})
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:  uuid.New(),
		Title:   "Order update",
		Message: "Your order shipped",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.NotificationTypeOrder, created.Type)
	require.Len(t, repo.created, 1)
}

func TestList_RejectsBadCursor(t *testing.T) {
	svc, err := NewService(&stubNotificationRepo{}, &stubUserRepo{exists: true})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListParams{
		UserID: uuid.New(),
		Cursor: "%%%not-base64%%%",
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestGet_NotFound(t *testing.T) {
	repo := &stubNotificationRepo{findErr: gorm.ErrRecordNotFound}
	svc, err := NewService(repo, &stubUserRepo{exists: true})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestMarkRead_NotFound(t *testing.T) {
	repo := &stubNotificationRepo{mark: markResult{Found: false}}
	svc, err := NewService(repo, &stubUserRepo{exists: true})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestMarkRead_AlreadyReadIsNoError(t *testing.T) {
	repo := &stubNotificationRepo{mark: markResult{Found: true, Updated: false}}
	svc, err := NewService(repo, &stubUserRepo{exists: true})
	require.NoError(t, err)

	assert.NoError(t, svc.MarkRead(context.Background(), uuid.New(), uuid.New()))
}

func TestDelete_NotFound(t *testing.T) {
	repo := &stubNotificationRepo{deletedN: 0}
	svc, err := NewService(repo, &stubUserRepo{exists: true})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}
