package membership

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/mail"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/ecrmi/institute/core"
)

var (
	// errors
	ErrNotFound       = errors.New("application not found")
	ErrMemberNotFound = errors.New("member not found")

	errCertIDSpaceExhausted = errors.New("could not generate a unique membership certificate id")
)

const maxCertIDAttempts = 10

type (
	Repository interface {
		CreateApplication(ctx context.Context, app Application) (Application, error)
		GetApplicationByID(ctx context.Context, id string) (Application, error)
		QueryApplications(ctx context.Context) ([]Application, error)
		QueryApplicationsByEmail(ctx context.Context, email string) ([]Application, error)
		UpdateApplication(ctx context.Context, app Application) (Application, error)
		DeleteApplicationsByID(ctx context.Context, ids ...string) error
		ApplicationCertIDExists(ctx context.Context, certID string) (bool, error)

		GetMemberByEmail(ctx context.Context, email string) (Member, error)
		GetMemberByCertID(ctx context.Context, certID string) (Member, error)
		QueryMembers(ctx context.Context) ([]Member, error)
		SaveMember(ctx context.Context, m Member) (Member, error)
		DeleteMemberByEmail(ctx context.Context, email string) error
		MemberCertIDExists(ctx context.Context, certID string) (bool, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}

	// ImportReport summarizes a bulk CSV import; CreatedIDs feeds UndoImport.
	ImportReport struct {
		CreatedIDs []string `json:"created_ids"`
		Created    int      `json:"created"`
		Skipped    int      `json:"skipped"`
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

// Apply files a new pending application.
func (svc *Service) Apply(ctx context.Context, na NewApplication) (Application, error) {
	return svc.createPending(ctx, na, false)
}

// ApplyUpdate files an update request: a separate pending application for an
// email that usually already has an approved one. It never mutates the
// original.
func (svc *Service) ApplyUpdate(ctx context.Context, na NewApplication) (Application, error) {
	return svc.createPending(ctx, na, true)
}

func (svc *Service) createPending(ctx context.Context, na NewApplication, isUpdate bool) (Application, error) {
	app := Application{
		Name:            na.Name,
		Email:           na.Email,
		Phone:           na.Phone,
		JobTitle:        na.JobTitle,
		Organization:    na.Organization,
		RequestedType:   na.RequestedType,
		DocumentURLs:    na.DocumentURLs,
		Status:          StatusPending,
		IsUpdateRequest: isUpdate,
		SubmittedAt:     time.Now().UTC(),
	}
	app, err := svc.repo.CreateApplication(ctx, app)
	if err != nil {
		return Application{}, pkgerrors.Wrap(err, "inserting application")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: app.Name, Address: app.Email}},
		Subject:      "Membership application received",
		TemplateName: "membership-received",
		TemplateData: struct {
			Name          string
			RequestedType string
		}{app.Name, app.RequestedType},
	})
	return app, nil
}

// StatusByLookup resolves an applicant-facing status view by email or by
// membership certificate id.
func (svc *Service) StatusByLookup(ctx context.Context, lookup string) (LookupResult, error) {
	lookup = core.CleanString(lookup)

	if m, err := svc.repo.GetMemberByCertID(ctx, lookup); err == nil {
		return svc.lookupByEmail(ctx, m.Email)
	} else if err != ErrMemberNotFound {
		return LookupResult{}, err
	}
	return svc.lookupByEmail(ctx, core.CleanString(lookup, true /* lower */))
}

func (svc *Service) lookupByEmail(ctx context.Context, email string) (LookupResult, error) {
	var res LookupResult

	apps, err := svc.repo.QueryApplicationsByEmail(ctx, email)
	if err != nil {
		return LookupResult{}, pkgerrors.Wrap(err, "querying applications")
	}
	if len(apps) > 0 {
		latest := apps[0]
		for _, app := range apps[1:] {
			if app.SubmittedAt.After(latest.SubmittedAt) {
				latest = app
			}
		}
		res.Application = &latest
	}

	if m, err := svc.repo.GetMemberByEmail(ctx, email); err == nil {
		res.Member = &m
	} else if err != ErrMemberNotFound {
		return LookupResult{}, err
	}

	if res.Application == nil && res.Member == nil {
		return LookupResult{}, ErrNotFound
	}
	return res, nil
}

// Approve transitions an application to approved and rebuilds the Member
// projection for its email. The whole transition lives here so it can be
// reviewed in one place.
//
// Steps:
//  1. resolve the final approved type: explicit admin choice, else the type
//     approved earlier, else the originally requested one;
//  2. issue an ECRMI-<code>-<digits> certificate id when this application is
//     not an update request and has none yet;
//  3. upsert the Member keyed by email; when the member's current certificate
//     code prefix differs from the final type's code, archive the current
//     certificate into CertificateHistory (skipping duplicates) and issue a
//     fresh id for the new type;
//  4. persist both records.
//
// Re-approving with an already-issued certificate id is a no-op on the id and
// on history.
func (svc *Service) Approve(ctx context.Context, id, membershipType, notes string) (Application, Member, error) {
	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, Member{}, err
	}
	now := time.Now().UTC()

	finalType := core.CleanString(membershipType)
	if finalType == "" {
		finalType = app.ApprovedType
	}
	if finalType == "" {
		finalType = app.RequestedType
	}

	if !app.IsUpdateRequest && app.CertificateID == "" {
		certID, err := svc.newCertID(ctx, TypeCode(finalType))
		if err != nil {
			return Application{}, Member{}, err
		}
		app.CertificateID = certID
	}

	mbr, err := svc.projectMember(ctx, &app, finalType, now)
	if err != nil {
		return Application{}, Member{}, err
	}

	app.Status = StatusApproved
	app.ApprovedType = finalType
	if notes != "" {
		app.AdminNotes = notes
	}
	app.ReviewedAt = now
	app, err = svc.repo.UpdateApplication(ctx, app)
	if err != nil {
		return Application{}, Member{}, pkgerrors.Wrap(err, "updating application")
	}

	svc.sendDecisionMail(app, true)
	return app, mbr, nil
}

// projectMember upserts the Member read model for an approval.
func (svc *Service) projectMember(ctx context.Context, app *Application, finalType string, now time.Time) (Member, error) {
	mbr, err := svc.repo.GetMemberByEmail(ctx, app.Email)
	switch {
	case err == ErrMemberNotFound:
		certID := app.CertificateID
		if certID == "" {
			certID, err = svc.newCertID(ctx, TypeCode(finalType))
			if err != nil {
				return Member{}, err
			}
			app.CertificateID = certID
		}
		mbr = Member{
			Email:          app.Email,
			Name:           app.Name,
			Phone:          app.Phone,
			JobTitle:       app.JobTitle,
			Organization:   app.Organization,
			MembershipType: finalType,
			CertificateID:  certID,
			DocumentURLs:   app.DocumentURLs,
			JoinedAt:       now,
			UpdatedAt:      now,
		}

	case err != nil:
		return Member{}, pkgerrors.Wrap(err, "loading member")

	case certIDCode(mbr.CertificateID) != TypeCode(finalType):
		// the member is being re-typed: archive the current certificate and
		// issue a fresh one under the new type's code
		entry := HistoryEntry{
			CertificateID:  mbr.CertificateID,
			MembershipType: mbr.MembershipType,
			IssuedAt:       mbr.UpdatedAt,
			DocumentURLs:   mbr.DocumentURLs,
		}
		if !historyContains(mbr.CertificateHistory, entry) {
			mbr.CertificateHistory = append(mbr.CertificateHistory, entry)
		}
		certID, err := svc.newCertID(ctx, TypeCode(finalType))
		if err != nil {
			return Member{}, err
		}
		mbr.CertificateID = certID
		mbr.MembershipType = finalType
		svc.refreshProfile(&mbr, app, now)
		app.CertificateID = certID

	default:
		// same code prefix: keep the certificate, refresh the profile
		mbr.MembershipType = finalType
		svc.refreshProfile(&mbr, app, now)
		app.CertificateID = mbr.CertificateID
	}

	mbr, err = svc.repo.SaveMember(ctx, mbr)
	if err != nil {
		return Member{}, pkgerrors.Wrap(err, "saving member")
	}
	return mbr, nil
}

func (svc *Service) refreshProfile(mbr *Member, app *Application, now time.Time) {
	if app.Name != "" {
		mbr.Name = app.Name
	}
	if app.Phone != "" {
		mbr.Phone = app.Phone
	}
	if app.JobTitle != "" {
		mbr.JobTitle = app.JobTitle
	}
	if app.Organization != "" {
		mbr.Organization = app.Organization
	}
	if len(app.DocumentURLs) > 0 {
		mbr.DocumentURLs = app.DocumentURLs
	}
	mbr.UpdatedAt = now
}

func historyContains(history []HistoryEntry, entry HistoryEntry) bool {
	for _, h := range history {
		if h.CertificateID == entry.CertificateID && h.MembershipType == entry.MembershipType {
			return true
		}
	}
	return false
}

// Reject only updates status and notes; the Member projection is untouched.
func (svc *Service) Reject(ctx context.Context, id, notes string) (Application, error) {
	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	app.Status = StatusRejected
	if notes != "" {
		app.AdminNotes = notes
	}
	app.ReviewedAt = time.Now().UTC()
	app, err = svc.repo.UpdateApplication(ctx, app)
	if err != nil {
		return Application{}, pkgerrors.Wrap(err, "updating application")
	}

	svc.sendDecisionMail(app, false)
	return app, nil
}

// Verify is the public verify-by-certificate-id check.
func (svc *Service) Verify(ctx context.Context, certID string) (Verification, error) {
	mbr, err := svc.repo.GetMemberByCertID(ctx, core.CleanString(certID))
	if err == ErrMemberNotFound {
		return Verification{Valid: false}, nil
	} else if err != nil {
		return Verification{}, err
	}
	return Verification{
		Valid:          true,
		Name:           mbr.Name,
		MembershipType: mbr.MembershipType,
		CertificateID:  mbr.CertificateID,
		JoinedAt:       mbr.JoinedAt.Format("2 January 2006"),
	}, nil
}

func (svc *Service) GetApplication(ctx context.Context, id string) (Application, error) {
	return svc.repo.GetApplicationByID(ctx, id)
}

func (svc *Service) QueryApplications(ctx context.Context) ([]Application, error) {
	return svc.repo.QueryApplications(ctx)
}

func (svc *Service) QueryMembers(ctx context.Context) ([]Member, error) {
	return svc.repo.QueryMembers(ctx)
}

func (svc *Service) GetMemberByCertID(ctx context.Context, certID string) (Member, error) {
	return svc.repo.GetMemberByCertID(ctx, core.CleanString(certID))
}

// ImportCSV bulk-creates approved members from rows of
// name,email,phone,job_title,organization,membership_type[,certificate_id].
// Rows missing name, email or type are skipped silently rather than failing
// the batch. The returned ids feed UndoImport.
func (svc *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var report ImportReport
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return report, pkgerrors.Wrap(err, "reading csv")
		}
		if first {
			first = false
			// tolerate a header row
			if len(row) > 0 && strings.EqualFold(core.CleanString(row[0]), "name") {
				continue
			}
		}

		get := func(i int) string {
			if i < len(row) {
				return core.CleanString(row[i])
			}
			return ""
		}
		name, email, mtype := get(0), core.CleanString(get(1), true), get(5)
		if name == "" || email == "" || mtype == "" {
			report.Skipped++
			continue
		}

		app := Application{
			Name:          name,
			Email:         email,
			Phone:         get(2),
			JobTitle:      get(3),
			Organization:  get(4),
			RequestedType: mtype,
			CertificateID: get(6),
			Status:        StatusPending,
			SubmittedAt:   time.Now().UTC(),
		}
		app, err = svc.repo.CreateApplication(ctx, app)
		if err != nil {
			return report, pkgerrors.Wrap(err, "inserting imported application")
		}
		if _, _, err = svc.Approve(ctx, app.ID, mtype, "bulk import"); err != nil {
			return report, pkgerrors.Wrap(err, "approving imported application")
		}
		report.CreatedIDs = append(report.CreatedIDs, app.ID)
		report.Created++
	}
	return report, nil
}

// UndoImport removes applications created by a bulk import along with the
// member projections they produced.
func (svc *Service) UndoImport(ctx context.Context, ids []string) error {
	for _, id := range ids {
		app, err := svc.repo.GetApplicationByID(ctx, id)
		if err == ErrNotFound {
			continue
		} else if err != nil {
			return err
		}
		if mbr, err := svc.repo.GetMemberByEmail(ctx, app.Email); err == nil && mbr.CertificateID == app.CertificateID {
			if err = svc.repo.DeleteMemberByEmail(ctx, app.Email); err != nil {
				return pkgerrors.Wrap(err, "deleting imported member")
			}
		} else if err != nil && err != ErrMemberNotFound {
			return err
		}
	}
	return svc.repo.DeleteApplicationsByID(ctx, ids...)
}

// newCertID mints ECRMI-<code>-<4 random digits>, retrying on collision
// against both the applications and the member projection.
func (svc *Service) newCertID(ctx context.Context, code string) (string, error) {
	for i := 0; i < maxCertIDAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", pkgerrors.Wrap(err, "reading random digits")
		}
		certID := fmt.Sprintf("%s-%s-%04d", certIDPrefix, code, n.Int64())

		inApps, err := svc.repo.ApplicationCertIDExists(ctx, certID)
		if err != nil {
			return "", pkgerrors.Wrap(err, "checking certificate id against applications")
		}
		inMembers, err := svc.repo.MemberCertIDExists(ctx, certID)
		if err != nil {
			return "", pkgerrors.Wrap(err, "checking certificate id against members")
		}
		if !inApps && !inMembers {
			return certID, nil
		}
	}
	return "", errCertIDSpaceExhausted
}

func (svc *Service) sendDecisionMail(app Application, approved bool) {
	subject := "Membership application update"
	tmpl := "membership-rejected"
	if approved {
		subject = "Welcome to ECRMI"
		tmpl = "membership-approved"
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: app.Name, Address: app.Email}},
		Subject:      subject,
		TemplateName: tmpl,
		TemplateData: struct {
			Name           string
			MembershipType string
			CertificateID  string
			AdminNotes     string
		}{app.Name, app.ApprovedType, app.CertificateID, app.AdminNotes},
	})
}
