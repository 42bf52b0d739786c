package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkforge/inkforge-backend/pkg/config"
	"github.com/inkforge/inkforge-backend/pkg/db"
	"github.com/inkforge/inkforge-backend/pkg/db/models"
	"github.com/inkforge/inkforge-backend/pkg/enums"
	pkgerrors "github.com/inkforge/inkforge-backend/pkg/errors"
	"github.com/inkforge/inkforge-backend/pkg/security"
)

// Service implements the administrative account surface. Unlike registration,
// accounts created here are active immediately and skip OTP verification.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, patch UpdateInput) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	cfg  *config.Config
}

// CreateInput carries an admin-created account.
type CreateInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
	Role     enums.Role
}

// UpdateInput is a partial patch; nil fields keep their current value.
type UpdateInput struct {
	Email    *string
	Password *string
	Name     *string
	Phone    *string
	Role     *enums.Role
	IsActive *bool
}

// NewService wires the account management dependencies.
func NewService(repo Repository, cfg *config.Config) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "config required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email, password and name required")
	}
	role := input.Role
	if role == "" {
		role = enums.RoleUser
	}
	if !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", string(input.Role))
	}

	if err := s.checkEmailFree(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}
	if input.Phone != nil {
		if err := s.checkPhoneFree(ctx, *input.Phone, uuid.Nil); err != nil {
			return nil, err
		}
	}

	hash, err := security.HashSecret(input.Password, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Email:        email,
		Phone:        input.Phone,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or phone already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, nil
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return users, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch UpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		if email != user.Email {
			if err := s.checkEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if patch.Phone != nil {
		if err := s.checkPhoneFree(ctx, *patch.Phone, user.ID); err != nil {
			return nil, err
		}
		user.Phone = patch.Phone
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password cannot be empty")
		}
		hash, err := security.HashSecret(*patch.Password, s.cfg.Password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
		}
		user.PasswordHash = hash
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		user.Name = *patch.Name
	}
	if patch.Role != nil {
		if !patch.Role.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", string(*patch.Role))
		}
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}

	if err := s.repo.Save(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or phone already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return user, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

// checkEmailFree rejects an email owned by any user other than exclude.
func (s *service) checkEmailFree(ctx context.Context, email string, exclude uuid.UUID) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if existing.ID != exclude {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}
	return nil
}

func (s *service) checkPhoneFree(ctx context.Context, phone string, exclude uuid.UUID) error {
	if phone == "" {
		return nil
	}
	existing, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check phone")
	}
	if existing.ID != exclude {
		return pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
	}
	return nil
}
