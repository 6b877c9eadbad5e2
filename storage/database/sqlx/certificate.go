package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core/certificate"
)

type certificateRow struct {
	ID               string    `db:"id"`
	Code             string    `db:"code"`
	ParticipantName  string    `db:"participant_name"`
	ParticipantEmail string    `db:"participant_email"`
	CourseID         string    `db:"course_id"`
	CourseTitle      string    `db:"course_title"`
	Score            int       `db:"score"`
	IssuedAt         time.Time `db:"issued_at"`
}

type participantRow struct {
	Email      string    `db:"email"`
	Name       string    `db:"name"`
	NameLocked bool      `db:"name_locked"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type certificateRepository struct {
	db *sqlx.DB
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db *sqlx.DB) *certificateRepository {
	return &certificateRepository{db: db}
}

func (repo certificateRepository) unrow(r certificateRow) certificate.Certificate {
	return certificate.Certificate{
		ID:               r.ID,
		Code:             r.Code,
		ParticipantName:  r.ParticipantName,
		ParticipantEmail: r.ParticipantEmail,
		CourseID:         r.CourseID,
		CourseTitle:      r.CourseTitle,
		Score:            r.Score,
		IssuedAt:         r.IssuedAt,
	}
}

func (repo certificateRepository) unrowSlice(rows []certificateRow) []certificate.Certificate {
	certs := make([]certificate.Certificate, 0, len(rows))
	for _, r := range rows {
		certs = append(certs, repo.unrow(r))
	}
	return certs
}

func (repo certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	cert.ID = uuid.New().String()
	r := certificateRow{
		ID:               cert.ID,
		Code:             cert.Code,
		ParticipantName:  cert.ParticipantName,
		ParticipantEmail: cert.ParticipantEmail,
		CourseID:         cert.CourseID,
		CourseTitle:      cert.CourseTitle,
		Score:            cert.Score,
		IssuedAt:         cert.IssuedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO certificate (id, code, participant_name, participant_email, course_id, course_title, score, issued_at)
		VALUES (:id, :code, :participant_name, :participant_email, :course_id, :course_title, :score, :issued_at)`, r)
	if err != nil {
		return certificate.Certificate{}, errors.Wrap(err, "inserting certificate")
	}
	return repo.unrow(r), nil
}

func (repo certificateRepository) GetCertificateByCode(ctx context.Context, code string) (certificate.Certificate, error) {
	var r certificateRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM certificate WHERE code = $1", code); err != nil {
		return certificate.Certificate{}, trapNoRowsErr(err, certificate.ErrNotFound, "getting certificate")
	}
	return repo.unrow(r), nil
}

func (repo certificateRepository) QueryCertificates(ctx context.Context) ([]certificate.Certificate, error) {
	var rows []certificateRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM certificate ORDER BY issued_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying certificates")
	}
	return repo.unrowSlice(rows), nil
}

func (repo certificateRepository) QueryCertificatesByEmail(ctx context.Context, email string) ([]certificate.Certificate, error) {
	var rows []certificateRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM certificate WHERE participant_email = $1 ORDER BY issued_at DESC", email); err != nil {
		return nil, errors.Wrap(err, "querying certificates by email")
	}
	return repo.unrowSlice(rows), nil
}

func (repo certificateRepository) CertificateCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM certificate WHERE code = $1)", code); err != nil {
		return false, errors.Wrap(err, "checking certificate code")
	}
	return exists, nil
}

func (repo certificateRepository) DeleteCertificateByCode(ctx context.Context, code string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM certificate WHERE code = $1", code)
	if err != nil {
		return errors.Wrap(err, "deleting certificate")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return certificate.ErrNotFound
	}
	return nil
}

func (repo certificateRepository) GetParticipantByEmail(ctx context.Context, email string) (certificate.Participant, error) {
	var r participantRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM participant WHERE email = $1", email); err != nil {
		return certificate.Participant{}, trapNoRowsErr(err, certificate.ErrNotFound, "getting participant")
	}
	return certificate.Participant{
		Email:      r.Email,
		Name:       r.Name,
		NameLocked: r.NameLocked,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func (repo certificateRepository) SaveParticipant(ctx context.Context, p certificate.Participant) (certificate.Participant, error) {
	r := participantRow{
		Email:      p.Email,
		Name:       p.Name,
		NameLocked: p.NameLocked,
		CreatedAt:  p.CreatedAt.UTC(),
		UpdatedAt:  p.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO participant (email, name, name_locked, created_at, updated_at)
		VALUES (:email, :name, :name_locked, :created_at, :updated_at)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, name_locked = EXCLUDED.name_locked, updated_at = EXCLUDED.updated_at`, r)
	if err != nil {
		return certificate.Participant{}, errors.Wrap(err, "saving participant")
	}
	return p, nil
}
