package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkforge/inkforge-backend/pkg/config"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/security"
)

func newUserService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	cfg := &config.Config{
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	}
	svc, err := NewService(NewRepository(conn), cfg)
	require.NoError(t, err)
	return svc, conn
}

func assertUserCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	assert.Equal(t, code, appErr.Code())
}

func TestCreate_ActivatesImmediatelyAndHashesPassword(t *testing.T) {
	svc, _ := newUserService(t)

	user, err := svc.Create(context.Background(), CreateInput{
		Email:    "Ops@Example.com",
		Password: "s3cret-pass",
		Name:     "Ops Person",
	})
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", user.Email)
	assert.Equal(t, enums.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.OTPCode)

	ok, err := security.VerifySecret("s3cret-pass", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreate_RejectsDuplicates(t *testing.T) {
	svc, _ := newUserService(t)
	phone := "+15550001111"

	_, err := svc.Create(context.Background(), CreateInput{
		Email:    "first@example.com",
		Password: "s3cret-pass",
		Name:     "First",
		Phone:    &phone,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{
		Email:    "first@example.com",
		Password: "s3cret-pass",
		Name:     "Second",
	})
	assertUserCode(t, err, pkgerrors.CodeConflict)

	_, err = svc.Create(context.Background(), CreateInput{
		Email:    "second@example.com",
		Password: "s3cret-pass",
		Name:     "Second",
		Phone:    &phone,
	})
	assertUserCode(t, err, pkgerrors.CodeConflict)
}

func TestCreate_RejectsUnknownRole(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		Email:    "role@example.com",
		Password: "s3cret-pass",
		Name:     "Role",
		Role:     enums.Role("OVERLORD"),
	})
	assertUserCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdate_PatchesFieldsAndChecksDuplicates(t *testing.T) {
	svc, _ := newUserService(t)

	first, err := svc.Create(context.Background(), CreateInput{
		Email:    "first@example.com",
		Password: "s3cret-pass",
		Name:     "First",
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateInput{
		Email:    "second@example.com",
		Password: "s3cret-pass",
		Name:     "Second",
	})
	require.NoError(t, err)

	name := "Renamed"
	admin := enums.RoleAdmin
	inactive := false
	updated, err := svc.Update(context.Background(), first.ID, UpdateInput{
		Name:     &name,
		Role:     &admin,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, enums.RoleAdmin, updated.Role)
	assert.False(t, updated.IsActive)

	// Re-saving the caller's own email is not a conflict.
	own := first.Email
	_, err = svc.Update(context.Background(), first.ID, UpdateInput{Email: &own})
	require.NoError(t, err)

	taken := second.Email
	_, err = svc.Update(context.Background(), first.ID, UpdateInput{Email: &taken})
	assertUserCode(t, err, pkgerrors.CodeConflict)

	password := "brand-new-pass"
	updated, err = svc.Update(context.Background(), first.ID, UpdateInput{Password: &password})
	require.NoError(t, err)
	ok, err := security.VerifySecret(password, updated.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdate_UnknownUser(t *testing.T) {
	svc, _ := newUserService(t)
	name := "Ghost"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Name: &name})
	assertUserCode(t, err, pkgerrors.CodeNotFound)
}

func TestListAndDelete(t *testing.T) {
	svc, conn := newUserService(t)

	user, err := svc.Create(context.Background(), CreateInput{
		Email:    "list@example.com",
		Password: "s3cret-pass",
		Name:     "Listed",
	})
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, user.ID, list[0].ID)

	require.NoError(t, svc.Delete(context.Background(), user.ID))
	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)

	err = svc.Delete(context.Background(), user.ID)
	assertUserCode(t, err, pkgerrors.CodeNotFound)
}
