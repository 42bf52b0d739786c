package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/internal/users"
	pkgauth "github.com/inkforge/inkforge-backend/pkg/auth"
	"github.com/inkforge/inkforge-backend/pkg/config"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/logger"
)

type memoryUserRepo struct {
	byID map[uuid.UUID]*models.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byID: map[uuid.UUID]*models.User{}}
}

func (m *memoryUserRepo) WithTx(*gorm.DB) users.Repository { return m }

func (m *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	for _, existing := range m.byID {
		if existing.Email == user.Email {
			return errors.New(`duplicate key value violates unique constraint "idx_users_email"`)
		}
		if user.Phone != nil && existing.Phone != nil && *existing.Phone == *user.Phone {
			return errors.New(`duplicate key value violates unique constraint "idx_users_phone"`)
		}
	}
	user.ID = uuid.New()
	clone := *user
	m.byID[user.ID] = &clone
	return nil
}

func (m *memoryUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.byID[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range m.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	for _, user := range m.byID {
		if user.Phone != nil && *user.Phone == phone {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) List(_ context.Context) ([]models.User, error) {
	list := make([]models.User, 0, len(m.byID))
	for _, user := range m.byID {
		list = append(list, *user)
	}
	return list, nil
}

func (m *memoryUserRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.byID[id]
	return ok, nil
}

func (m *memoryUserRepo) Save(_ context.Context, user *models.User) error {
	clone := *user
	m.byID[user.ID] = &clone
	return nil
}

func (m *memoryUserRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.byID[id]; !ok {
		return 0, nil
	}
	delete(m.byID, id)
	return 1, nil
}

type recordingMailer struct {
	sent []string
	err  error
}

func (r *recordingMailer) SendOTP(_ context.Context, to, code string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, code)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
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
	}
}

func newAuthService(t *testing.T, repo users.Repository, mailer *recordingMailer) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "auth-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(repo, mailer, testConfig(), logg)
	require.NoError(t, err)
	return svc
}

func assertAuthCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	assert.Equal(t, code, appErr.Code())
}

func register(t *testing.T, svc Service) (*models.User, string) {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ada@example.com",
		Password: "s3cret-password",
		Name:     "Ada Lovelace",
	})
	require.NoError(t, err)
	return user, "s3cret-password"
}

func TestRegister(t *testing.T) {
	repo := newMemoryUserRepo()
	mailer := &recordingMailer{}
	svc := newAuthService(t, repo, mailer)

	user, _ := register(t, svc)
	assert.False(t, user.IsActive)
	require.NotNil(t, user.OTPCode)
	assert.Len(t, *user.OTPCode, 6)
	require.NotNil(t, user.OTPExpiresAt)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, *user.OTPCode, mailer.sent[0])

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Ada@Example.com", // same address, different case
		Password: "another-password",
		Name:     "Ada Again",
	})
	assertAuthCode(t, err, pkgerrors.CodeConflict)
}

func TestRegister_MailFailureIsSoft(t *testing.T) {
	repo := newMemoryUserRepo()
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := newAuthService(t, repo, mailer)

	user, _ := register(t, svc)
	assert.NotEqual(t, uuid.Nil, user.ID)
}

func TestVerifyOTP(t *testing.T) {
	repo := newMemoryUserRepo()
	mailer := &recordingMailer{}
	svc := newAuthService(t, repo, mailer)
	user, _ := register(t, svc)

	err := svc.VerifyOTP(context.Background(), user.Email, "000000")
	assertAuthCode(t, err, pkgerrors.CodeValidation)

	require.NoError(t, svc.VerifyOTP(context.Background(), user.Email, *user.OTPCode))

	stored, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Nil(t, stored.OTPCode)
	assert.Nil(t, stored.OTPExpiresAt)

	// Code is consumed.
	err = svc.VerifyOTP(context.Background(), user.Email, *user.OTPCode)
	assertAuthCode(t, err, pkgerrors.CodeValidation)
}

func TestVerifyOTP_RejectsNearMisses(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newAuthService(t, repo, &recordingMailer{})
	user, _ := register(t, svc)
	code := *user.OTPCode

	// Prefixes, extensions and the empty string must all fail, not just
	// same-length mismatches.
	for _, attempt := range []string{"", code[:3], code + "9"} {
		err := svc.VerifyOTP(context.Background(), user.Email, attempt)
		assertAuthCode(t, err, pkgerrors.CodeValidation)
	}

	require.NoError(t, svc.VerifyOTP(context.Background(), user.Email, code))
}

func TestVerifyOTP_Expired(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newAuthService(t, repo, &recordingMailer{})
	user, _ := register(t, svc)

	stored, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute)
	stored.OTPExpiresAt = &past
	require.NoError(t, repo.Save(context.Background(), stored))

	err = svc.VerifyOTP(context.Background(), user.Email, *user.OTPCode)
	assertAuthCode(t, err, pkgerrors.CodeValidation)
}

func TestLogin(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newAuthService(t, repo, &recordingMailer{})
	user, password := register(t, svc)

	// Not verified yet.
	_, err := svc.Login(context.Background(), user.Email, password)
	assertAuthCode(t, err, pkgerrors.CodeForbidden)

	require.NoError(t, svc.VerifyOTP(context.Background(), user.Email, *user.OTPCode))

	_, err = svc.Login(context.Background(), user.Email, "wrong-password")
	assertAuthCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(context.Background(), "nobody@example.com", password)
	assertAuthCode(t, err, pkgerrors.CodeUnauthorized)

	session, err := svc.Login(context.Background(), user.Email, password)
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testConfig().JWT, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)

	stored, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.RefreshTokenHash)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestRefresh_RotatesToken(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newAuthService(t, repo, &recordingMailer{})
	user, password := register(t, svc)
	require.NoError(t, svc.VerifyOTP(context.Background(), user.Email, *user.OTPCode))

	session, err := svc.Login(context.Background(), user.Email, password)
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)

	_, err = svc.Refresh(context.Background(), "not-a-token")
	assertAuthCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefresh_AfterLogoutRejected(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newAuthService(t, repo, &recordingMailer{})
	user, password := register(t, svc)
	require.NoError(t, svc.VerifyOTP(context.Background(), user.Email, *user.OTPCode))

	session, err := svc.Login(context.Background(), user.Email, password)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), user.ID))

	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	assertAuthCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestResetPassword(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newAuthService(t, repo, &recordingMailer{})
	user, oldPassword := register(t, svc)
	require.NoError(t, svc.VerifyOTP(context.Background(), user.Email, *user.OTPCode))

	require.NoError(t, svc.SendOTP(context.Background(), user.Email))
	stored, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.OTPCode)

	err = svc.ResetPassword(context.Background(), ResetPasswordInput{
		Email:       user.Email,
		Code:        "999999",
		NewPassword: "brand-new-password",
	})
	assertAuthCode(t, err, pkgerrors.CodeValidation)

	require.NoError(t, svc.ResetPassword(context.Background(), ResetPasswordInput{
		Email:       user.Email,
		Code:        *stored.OTPCode,
		NewPassword: "brand-new-password",
	}))

	_, err = svc.Login(context.Background(), user.Email, oldPassword)
	assertAuthCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(context.Background(), user.Email, "brand-new-password")
	require.NoError(t, err)
}
