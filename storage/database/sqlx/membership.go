package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core/membership"
)

type applicationRow struct {
	ID              string       `db:"id"`
	Name            string       `db:"name"`
	Email           string       `db:"email"`
	Phone           string       `db:"phone"`
	JobTitle        string       `db:"job_title"`
	Organization    string       `db:"organization"`
	RequestedType   string       `db:"requested_type"`
	ApprovedType    string       `db:"approved_type"`
	DocumentURLs    stringSlice  `db:"document_urls"`
	Status          string       `db:"status"`
	IsUpdateRequest bool         `db:"is_update_request"`
	CertificateID   string       `db:"certificate_id"`
	AdminNotes      string       `db:"admin_notes"`
	SubmittedAt     time.Time    `db:"submitted_at"`
	ReviewedAt      sql.NullTime `db:"reviewed_at"`
}

type memberRow struct {
	ID                 string       `db:"id"`
	Email              string       `db:"email"`
	Name               string       `db:"name"`
	Phone              string       `db:"phone"`
	JobTitle           string       `db:"job_title"`
	Organization       string       `db:"organization"`
	MembershipType     string       `db:"membership_type"`
	CertificateID      string       `db:"certificate_id"`
	DocumentURLs       stringSlice  `db:"document_urls"`
	CertificateHistory historySlice `db:"certificate_history"`
	JoinedAt           time.Time    `db:"joined_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

type membershipRepository struct {
	db *sqlx.DB
}

var _ membership.Repository = (*membershipRepository)(nil) // interface compliance check

func NewMembershipRepository(db *sqlx.DB) *membershipRepository {
	return &membershipRepository{db: db}
}

func (repo membershipRepository) rowApp(app membership.Application) applicationRow {
	r := applicationRow{
		ID:              app.ID,
		Name:            app.Name,
		Email:           app.Email,
		Phone:           app.Phone,
		JobTitle:        app.JobTitle,
		Organization:    app.Organization,
		RequestedType:   app.RequestedType,
		ApprovedType:    app.ApprovedType,
		DocumentURLs:    stringSlice(app.DocumentURLs),
		Status:          string(app.Status),
		IsUpdateRequest: app.IsUpdateRequest,
		CertificateID:   app.CertificateID,
		AdminNotes:      app.AdminNotes,
		SubmittedAt:     app.SubmittedAt.UTC(),
	}
	if !app.ReviewedAt.IsZero() {
		r.ReviewedAt = sql.NullTime{Time: app.ReviewedAt.UTC(), Valid: true}
	}
	return r
}

func (repo membershipRepository) unrowApp(r applicationRow) membership.Application {
	app := membership.Application{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		JobTitle:        r.JobTitle,
		Organization:    r.Organization,
		RequestedType:   r.RequestedType,
		ApprovedType:    r.ApprovedType,
		DocumentURLs:    r.DocumentURLs,
		Status:          membership.Status(r.Status),
		IsUpdateRequest: r.IsUpdateRequest,
		CertificateID:   r.CertificateID,
		AdminNotes:      r.AdminNotes,
		SubmittedAt:     r.SubmittedAt,
	}
	if r.ReviewedAt.Valid {
		app.ReviewedAt = r.ReviewedAt.Time
	}
	return app
}

func (repo membershipRepository) rowMbr(mbr membership.Member) memberRow {
	return memberRow{
		ID:                 mbr.ID,
		Email:              mbr.Email,
		Name:               mbr.Name,
		Phone:              mbr.Phone,
		JobTitle:           mbr.JobTitle,
		Organization:       mbr.Organization,
		MembershipType:     mbr.MembershipType,
		CertificateID:      mbr.CertificateID,
		DocumentURLs:       stringSlice(mbr.DocumentURLs),
		CertificateHistory: historySlice(mbr.CertificateHistory),
		JoinedAt:           mbr.JoinedAt.UTC(),
		UpdatedAt:          mbr.UpdatedAt.UTC(),
	}
}

func (repo membershipRepository) unrowMbr(r memberRow) membership.Member {
	return membership.Member{
		ID:                 r.ID,
		Email:              r.Email,
		Name:               r.Name,
		Phone:              r.Phone,
		JobTitle:           r.JobTitle,
		Organization:       r.Organization,
		MembershipType:     r.MembershipType,
		CertificateID:      r.CertificateID,
		DocumentURLs:       r.DocumentURLs,
		CertificateHistory: r.CertificateHistory,
		JoinedAt:           r.JoinedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func (repo membershipRepository) CreateApplication(ctx context.Context, app membership.Application) (membership.Application, error) {
	app.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO membership_application (
			id, name, email, phone, job_title, organization, requested_type, approved_type,
			document_urls, status, is_update_request, certificate_id, admin_notes, submitted_at, reviewed_at
		) VALUES (
			:id, :name, :email, :phone, :job_title, :organization, :requested_type, :approved_type,
			:document_urls, :status, :is_update_request, :certificate_id, :admin_notes, :submitted_at, :reviewed_at
		)`, repo.rowApp(app))
	if err != nil {
		return membership.Application{}, errors.Wrap(err, "inserting membership application")
	}
	return app, nil
}

func (repo membershipRepository) GetApplicationByID(ctx context.Context, id string) (membership.Application, error) {
	var r applicationRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM membership_application WHERE id = $1", id); err != nil {
		return membership.Application{}, trapNoRowsErr(err, membership.ErrNotFound, "getting membership application")
	}
	return repo.unrowApp(r), nil
}

func (repo membershipRepository) QueryApplications(ctx context.Context) ([]membership.Application, error) {
	var rows []applicationRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM membership_application ORDER BY submitted_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying membership applications")
	}
	apps := make([]membership.Application, 0, len(rows))
	for _, r := range rows {
		apps = append(apps, repo.unrowApp(r))
	}
	return apps, nil
}

func (repo membershipRepository) QueryApplicationsByEmail(ctx context.Context, email string) ([]membership.Application, error) {
	var rows []applicationRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM membership_application WHERE email = $1 ORDER BY submitted_at DESC", email); err != nil {
		return nil, errors.Wrap(err, "querying membership applications by email")
	}
	apps := make([]membership.Application, 0, len(rows))
	for _, r := range rows {
		apps = append(apps, repo.unrowApp(r))
	}
	return apps, nil
}

func (repo membershipRepository) UpdateApplication(ctx context.Context, app membership.Application) (membership.Application, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE membership_application
		SET name = :name, email = :email, phone = :phone, job_title = :job_title,
			organization = :organization, requested_type = :requested_type, approved_type = :approved_type,
			document_urls = :document_urls, status = :status, is_update_request = :is_update_request,
			certificate_id = :certificate_id, admin_notes = :admin_notes, reviewed_at = :reviewed_at
		WHERE id = :id`, repo.rowApp(app))
	if err != nil {
		return membership.Application{}, errors.Wrap(err, "updating membership application")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return membership.Application{}, membership.ErrNotFound
	}
	return app, nil
}

func (repo membershipRepository) DeleteApplicationsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, "DELETE FROM membership_application WHERE id = ANY($1)", pq.Array(ids))
	return errors.Wrap(err, "deleting membership applications")
}

func (repo membershipRepository) ApplicationCertIDExists(ctx context.Context, certID string) (bool, error) {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM membership_application WHERE certificate_id = $1)", certID); err != nil {
		return false, errors.Wrap(err, "checking application certificate id")
	}
	return exists, nil
}

func (repo membershipRepository) GetMemberByEmail(ctx context.Context, email string) (membership.Member, error) {
	var r memberRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM member WHERE email = $1", email); err != nil {
		return membership.Member{}, trapNoRowsErr(err, membership.ErrMemberNotFound, "getting member by email")
	}
	return repo.unrowMbr(r), nil
}

func (repo membershipRepository) GetMemberByCertID(ctx context.Context, certID string) (membership.Member, error) {
	var r memberRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM member WHERE certificate_id = $1", certID); err != nil {
		return membership.Member{}, trapNoRowsErr(err, membership.ErrMemberNotFound, "getting member by certificate id")
	}
	return repo.unrowMbr(r), nil
}

func (repo membershipRepository) QueryMembers(ctx context.Context) ([]membership.Member, error) {
	var rows []memberRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM member ORDER BY joined_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	mbrs := make([]membership.Member, 0, len(rows))
	for _, r := range rows {
		mbrs = append(mbrs, repo.unrowMbr(r))
	}
	return mbrs, nil
}

func (repo membershipRepository) SaveMember(ctx context.Context, mbr membership.Member) (membership.Member, error) {
	if mbr.ID == "" {
		mbr.ID = uuid.New().String()
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO member (
			id, email, name, phone, job_title, organization, membership_type, certificate_id,
			document_urls, certificate_history, joined_at, updated_at
		) VALUES (
			:id, :email, :name, :phone, :job_title, :organization, :membership_type, :certificate_id,
			:document_urls, :certificate_history, :joined_at, :updated_at
		)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, phone = EXCLUDED.phone, job_title = EXCLUDED.job_title,
			organization = EXCLUDED.organization, membership_type = EXCLUDED.membership_type,
			certificate_id = EXCLUDED.certificate_id, document_urls = EXCLUDED.document_urls,
			certificate_history = EXCLUDED.certificate_history, updated_at = EXCLUDED.updated_at`, repo.rowMbr(mbr))
	if err != nil {
		return membership.Member{}, errors.Wrap(err, "saving member")
	}
	return mbr, nil
}

func (repo membershipRepository) DeleteMemberByEmail(ctx context.Context, email string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM member WHERE email = $1", email)
	if err != nil {
		return errors.Wrap(err, "deleting member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return membership.ErrMemberNotFound
	}
	return nil
}

func (repo membershipRepository) MemberCertIDExists(ctx context.Context, certID string) (bool, error) {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM member WHERE certificate_id = $1)", certID); err != nil {
		return false, errors.Wrap(err, "checking member certificate id")
	}
	return exists, nil
}
