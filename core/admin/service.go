package admin

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/ecrmi/institute/core"
)

var (
	// errors
	ErrNotFound           = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("an admin with this email already exists")
)

type (
	Repository interface {
		CreateAdmin(ctx context.Context, adm Admin) (Admin, error)
		GetAdminByID(ctx context.Context, id string) (Admin, error)
		GetAdminByEmail(ctx context.Context, email string) (Admin, error)
		UpdateAdmin(ctx context.Context, adm Admin) (Admin, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, email, password string) (Admin, error) {
	email = core.CleanString(email, true /* lower */)
	if _, err := svc.repo.GetAdminByEmail(ctx, email); err == nil {
		return Admin{}, ErrEmailExists
	} else if err != ErrNotFound {
		return Admin{}, err
	}

	now := time.Now().UTC()
	adm := Admin{Email: email, CreatedAt: now, UpdatedAt: now}
	if err := adm.SetPassword(password); err != nil {
		return Admin{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateAdmin(ctx, adm)
}

func (svc *Service) Authenticate(ctx context.Context, email, password string) (Admin, error) {
	adm, err := svc.repo.GetAdminByEmail(ctx, core.CleanString(email, true /* lower */))
	if err == ErrNotFound {
		return Admin{}, ErrInvalidCredentials
	} else if err != nil {
		return Admin{}, pkgerrors.Wrap(err, "finding admin by email")
	}
	if err = adm.CheckPassword(password); err != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return adm, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Admin, error) {
	return svc.repo.GetAdminByID(ctx, id)
}

// UpdateSettings changes the admin's email and/or password after verifying
// the current password.
func (svc *Service) UpdateSettings(ctx context.Context, id string, us UpdateSettings) (Admin, error) {
	adm, err := svc.repo.GetAdminByID(ctx, id)
	if err != nil {
		return Admin{}, err
	}
	if err = adm.CheckPassword(us.CurrentPassword); err != nil {
		return Admin{}, ErrInvalidCredentials
	}

	if us.Email != "" && us.Email != adm.Email {
		if _, err := svc.repo.GetAdminByEmail(ctx, us.Email); err == nil {
			return Admin{}, ErrEmailExists
		} else if err != ErrNotFound {
			return Admin{}, err
		}
		adm.Email = us.Email
	}
	if us.NewPassword != "" {
		if err = adm.SetPassword(us.NewPassword); err != nil {
			return Admin{}, pkgerrors.Wrap(err, "hashing password")
		}
	}
	adm.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAdmin(ctx, adm)
}

// ResetPassword sets a new password without checking the current one. CLI use only.
func (svc *Service) ResetPassword(ctx context.Context, email, password string) (Admin, error) {
	adm, err := svc.repo.GetAdminByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return Admin{}, err
	}
	if err = adm.SetPassword(password); err != nil {
		return Admin{}, pkgerrors.Wrap(err, "hashing password")
	}
	adm.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAdmin(ctx, adm)
}
