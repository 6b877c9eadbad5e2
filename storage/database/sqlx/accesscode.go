package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core/accesscode"
)

type accessCodeRow struct {
	ID          string         `db:"id"`
	Code        string         `db:"code"`
	CourseID    string         `db:"course_id"`
	Status      string         `db:"status"`
	UsedByEmail sql.NullString `db:"used_by_email"`
	UsedAt      sql.NullTime   `db:"used_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

type accessCodeRepository struct {
	db *sqlx.DB
}

var _ accesscode.Repository = (*accessCodeRepository)(nil) // interface compliance check

func NewAccessCodeRepository(db *sqlx.DB) *accessCodeRepository {
	return &accessCodeRepository{db: db}
}

func (repo accessCodeRepository) unrow(r accessCodeRow) accesscode.AccessCode {
	ac := accesscode.AccessCode{
		ID:        r.ID,
		Code:      r.Code,
		CourseID:  r.CourseID,
		Status:    accesscode.Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
	if r.UsedByEmail.Valid {
		ac.UsedByEmail = r.UsedByEmail.String
	}
	if r.UsedAt.Valid {
		ac.UsedAt = r.UsedAt.Time
	}
	return ac
}

func (repo accessCodeRepository) unrowSlice(rows []accessCodeRow) []accesscode.AccessCode {
	acs := make([]accesscode.AccessCode, 0, len(rows))
	for _, r := range rows {
		acs = append(acs, repo.unrow(r))
	}
	return acs
}

func (repo accessCodeRepository) CreateAccessCode(ctx context.Context, ac accesscode.AccessCode) (accesscode.AccessCode, error) {
	ac.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO access_code (id, code, course_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ac.ID, ac.Code, ac.CourseID, string(ac.Status), ac.CreatedAt.UTC())
	if err != nil {
		return accesscode.AccessCode{}, errors.Wrap(err, "inserting access code")
	}
	return ac, nil
}

func (repo accessCodeRepository) QueryAccessCodes(ctx context.Context) ([]accesscode.AccessCode, error) {
	var rows []accessCodeRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM access_code ORDER BY created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying access codes")
	}
	return repo.unrowSlice(rows), nil
}

func (repo accessCodeRepository) QueryAccessCodesByCourse(ctx context.Context, courseID string) ([]accesscode.AccessCode, error) {
	var rows []accessCodeRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM access_code WHERE course_id = $1 ORDER BY created_at DESC", courseID); err != nil {
		return nil, errors.Wrap(err, "querying access codes by course")
	}
	return repo.unrowSlice(rows), nil
}

func (repo accessCodeRepository) GetAccessCode(ctx context.Context, code, courseID string) (accesscode.AccessCode, error) {
	var r accessCodeRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM access_code WHERE code = $1 AND course_id = $2", code, courseID); err != nil {
		return accesscode.AccessCode{}, trapNoRowsErr(err, accesscode.ErrNotFound, "getting access code")
	}
	return repo.unrow(r), nil
}

func (repo accessCodeRepository) ConsumeAccessCode(ctx context.Context, code, courseID, email string, usedAt time.Time) (bool, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE access_code
		SET status = $1, used_by_email = $2, used_at = $3
		WHERE code = $4 AND course_id = $5 AND status = $6`,
		string(accesscode.StatusUsed), email, usedAt.UTC(), code, courseID, string(accesscode.StatusUnused))
	if err != nil {
		return false, errors.Wrap(err, "consuming access code")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "consuming access code")
	}
	return n > 0, nil
}

func (repo accessCodeRepository) DeleteUnusedAccessCode(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM access_code WHERE id = $1 AND status = $2", id, string(accesscode.StatusUnused))
	if err != nil {
		return errors.Wrap(err, "deleting access code")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return accesscode.ErrNotFound
	}
	return nil
}
