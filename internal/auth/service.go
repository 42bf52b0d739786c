package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/internal/users"
	pkgauth "github.com/inkforge/inkforge-backend/pkg/auth"
	"github.com/inkforge/inkforge-backend/pkg/config"
	"github.com/inkforge/inkforge-backend/pkg/db"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/logger"
	"github.com/inkforge/inkforge-backend/pkg/mail"
	"github.com/inkforge/inkforge-backend/pkg/security"
)

// Service implements registration, OTP verification and the JWT session
// lifecycle.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo   users.Repository
	mailer mail.Sender
	cfg    *config.Config
	logg   *logger.Logger
	now    func() time.Time
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
}

// ResetPasswordInput carries an OTP-backed password reset.
type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

// Session is a minted token pair plus the authenticated user.
type Session struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// NewService wires auth dependencies.
func NewService(repo users.Repository, mailer mail.Sender, cfg *config.Config, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mail sender required")
	}
	if cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "config required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// Register creates an inactive account and mails a verification code. A mail
// delivery failure is logged, not surfaced: the user can request a resend.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" || input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email, password and name required")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}

	hash, err := security.HashSecret(input.Password, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating otp")
	}
	expiresAt := s.now().Add(s.cfg.OTP.TTL)

	user := &models.User{
		Email:        email,
		Phone:        input.Phone,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         enums.RoleUser,
		IsActive:     false,
		OTPCode:      &code,
		OTPExpiresAt: &expiresAt,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or phone already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "sending verification code failed")
	}
	return user, nil
}

// SendOTP issues a fresh verification code to an existing account.
func (s *service) SendOTP(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating otp")
	}
	expiresAt := s.now().Add(s.cfg.OTP.TTL)
	user.OTPCode = &code
	user.OTPExpiresAt = &expiresAt

	if err := s.repo.Save(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save otp")
	}
	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending verification code")
	}
	return nil
}

// VerifyOTP activates the account and consumes the code.
func (s *service) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkOTP(user, code); err != nil {
		return err
	}

	user.IsActive = true
	user.OTPCode = nil
	user.OTPExpiresAt = nil
	if err := s.repo.Save(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate user")
	}
	return nil
}

// ResetPassword sets a new password after OTP verification and revokes any
// outstanding refresh token.
func (s *service) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if input.NewPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password required")
	}

	user, err := s.findByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if err := s.checkOTP(user, input.Code); err != nil {
		return err
	}

	hash, err := security.HashSecret(input.NewPassword, s.cfg.Password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user.PasswordHash = hash
	user.OTPCode = nil
	user.OTPExpiresAt = nil
	user.RefreshTokenHash = nil
	if err := s.repo.Save(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset password")
	}
	return nil
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	match, err := security.VerifySecret(password, user.PasswordHash)
	if err != nil || !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is not verified")
	}

	session, err := s.mintSession(ctx, user)
	if err != nil {
		return nil, err
	}

	loginAt := s.now()
	user.LastLoginAt = &loginAt
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
	}
	return session, nil
}

// Refresh validates the presented token against the stored hash and rotates
// the pair.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := pkgauth.ParseRefreshToken(s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.RefreshTokenHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}
	match, err := security.VerifySecret(refreshToken, *user.RefreshTokenHash)
	if err != nil || !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	session, err := s.mintSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}
	return session, nil
}

func (s *service) Logout(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	user.RefreshTokenHash = nil
	if err := s.repo.Save(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear refresh token")
	}
	return nil
}

// mintSession issues a token pair and stores the refresh token hash on the
// user. The caller persists the user.
func (s *service) mintSession(_ context.Context, user *models.User) (*Session, error) {
	payload := pkgauth.TokenPayload{UserID: user.ID, Email: user.Email, Role: user.Role}
	now := s.now()

	access, err := pkgauth.MintAccessToken(s.cfg.JWT, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}
	refresh, err := pkgauth.MintRefreshToken(s.cfg.JWT, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting refresh token")
	}

	refreshHash, err := security.HashSecret(refresh, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing refresh token")
	}
	user.RefreshTokenHash = &refreshHash

	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func (s *service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) checkOTP(user *models.User, code string) error {
	if code == "" || user.OTPCode == nil ||
		subtle.ConstantTimeCompare([]byte(*user.OTPCode), []byte(code)) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired verification code")
	}
	if user.OTPExpiresAt == nil || s.now().After(*user.OTPExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired verification code")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
