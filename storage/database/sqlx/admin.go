package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core/admin"
)

type adminRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type adminRepository struct {
	db *sqlx.DB
}

var _ admin.Repository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *sqlx.DB) *adminRepository {
	return &adminRepository{db: db}
}

func (repo adminRepository) unrow(r adminRow) admin.Admin {
	return admin.Admin{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (repo adminRepository) CreateAdmin(ctx context.Context, adm admin.Admin) (admin.Admin, error) {
	adm.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO admin (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		adm.ID, adm.Email, adm.PasswordHash, adm.CreatedAt.UTC(), adm.UpdatedAt.UTC())
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "inserting admin")
	}
	return adm, nil
}

func (repo adminRepository) GetAdminByID(ctx context.Context, id string) (admin.Admin, error) {
	var r adminRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM admin WHERE id = $1", id); err != nil {
		return admin.Admin{}, trapNoRowsErr(err, admin.ErrNotFound, "getting admin")
	}
	return repo.unrow(r), nil
}

func (repo adminRepository) GetAdminByEmail(ctx context.Context, email string) (admin.Admin, error) {
	var r adminRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM admin WHERE email = $1", email); err != nil {
		return admin.Admin{}, trapNoRowsErr(err, admin.ErrNotFound, "getting admin by email")
	}
	return repo.unrow(r), nil
}

func (repo adminRepository) UpdateAdmin(ctx context.Context, adm admin.Admin) (admin.Admin, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE admin SET email = $1, password_hash = $2, updated_at = $3 WHERE id = $4`,
		adm.Email, adm.PasswordHash, adm.UpdatedAt.UTC(), adm.ID)
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "updating admin")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return admin.Admin{}, admin.ErrNotFound
	}
	return adm, nil
}
