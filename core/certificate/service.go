package certificate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/ecrmi/institute/core"
)

var (
	// errors
	ErrNotFound   = errors.New("certificate not found")
	ErrNameLocked = errors.New("participant name is locked")

	errCodeSpaceExhausted = errors.New("could not generate a unique certificate code")
)

const maxCodeAttempts = 10

type (
	Repository interface {
		CreateCertificate(ctx context.Context, cert Certificate) (Certificate, error)
		GetCertificateByCode(ctx context.Context, code string) (Certificate, error)
		QueryCertificates(ctx context.Context) ([]Certificate, error)
		QueryCertificatesByEmail(ctx context.Context, email string) ([]Certificate, error)
		CertificateCodeExists(ctx context.Context, code string) (bool, error)
		DeleteCertificateByCode(ctx context.Context, code string) error

		GetParticipantByEmail(ctx context.Context, email string) (Participant, error)
		SaveParticipant(ctx context.Context, p Participant) (Participant, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

// Issue mints a certificate for a passing attempt. The participant's display
// name is locked on first issuance; when already locked the stored name wins
// over the submitted one.
func (svc *Service) Issue(ctx context.Context, name, email, courseID, courseTitle string, score int) (Certificate, error) {
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	p, err := svc.lockParticipant(ctx, name, email)
	if err != nil {
		return Certificate{}, pkgerrors.Wrap(err, "locking participant name")
	}

	code, err := svc.newCode(ctx)
	if err != nil {
		return Certificate{}, err
	}

	cert := Certificate{
		Code:             code,
		ParticipantName:  p.Name,
		ParticipantEmail: email,
		CourseID:         courseID,
		CourseTitle:      courseTitle,
		Score:            score,
		IssuedAt:         time.Now().UTC(),
	}
	cert, err = svc.repo.CreateCertificate(ctx, cert)
	if err != nil {
		return Certificate{}, pkgerrors.Wrap(err, "inserting certificate")
	}

	svc.sendIssuedMail(cert)
	return cert, nil
}

func (svc *Service) lockParticipant(ctx context.Context, name, email string) (Participant, error) {
	now := time.Now().UTC()
	p, err := svc.repo.GetParticipantByEmail(ctx, email)
	switch {
	case err == ErrNotFound:
		p = Participant{Email: email, Name: name, NameLocked: true, CreatedAt: now, UpdatedAt: now}
	case err != nil:
		return Participant{}, err
	default:
		if !p.NameLocked {
			if name != "" {
				p.Name = name
			}
			p.NameLocked = true
		}
		p.UpdatedAt = now
	}
	return svc.repo.SaveParticipant(ctx, p)
}

// UpdateParticipantName renames a participant; rejected once any certificate
// has been issued to that email.
func (svc *Service) UpdateParticipantName(ctx context.Context, email, name string) (Participant, error) {
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	p, err := svc.repo.GetParticipantByEmail(ctx, email)
	if err == ErrNotFound {
		p = Participant{Email: email, Name: core.CleanString(name), CreatedAt: now, UpdatedAt: now}
		return svc.repo.SaveParticipant(ctx, p)
	} else if err != nil {
		return Participant{}, err
	}
	if p.NameLocked {
		return Participant{}, ErrNameLocked
	}
	p.Name = core.CleanString(name)
	p.UpdatedAt = now
	return svc.repo.SaveParticipant(ctx, p)
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Certificate, error) {
	return svc.repo.GetCertificateByCode(ctx, strings.ToUpper(core.CleanString(code)))
}

func (svc *Service) QueryAll(ctx context.Context) ([]Certificate, error) {
	return svc.repo.QueryCertificates(ctx)
}

func (svc *Service) QueryByEmail(ctx context.Context, email string) ([]Certificate, error) {
	return svc.repo.QueryCertificatesByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Revoke hard-deletes a certificate; the participant name stays locked.
func (svc *Service) Revoke(ctx context.Context, code string) error {
	return svc.repo.DeleteCertificateByCode(ctx, strings.ToUpper(core.CleanString(code)))
}

// VerificationURL builds the public link encoded in the certificate's QR code.
func (svc *Service) VerificationURL(cert Certificate) string {
	return fmt.Sprintf("%s/verify/%s", strings.TrimRight(svc.conf.FrontendBaseURL, "/"), cert.Code)
}

// newCode mints a random opaque certificate code, retrying on collision.
func (svc *Service) newCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			return "", pkgerrors.Wrap(err, "reading random bytes")
		}
		code := strings.ToUpper(hex.EncodeToString(buf))

		exists, err := svc.repo.CertificateCodeExists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(err, "checking code uniqueness")
		}
		if !exists {
			return code, nil
		}
	}
	return "", errCodeSpaceExhausted
}

func (svc *Service) sendIssuedMail(cert Certificate) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: cert.ParticipantName, Address: cert.ParticipantEmail}},
		Subject:      "Your certificate for " + cert.CourseTitle,
		TemplateName: "certificate-issued",
		TemplateData: struct {
			Name            string
			CourseTitle     string
			Score           int
			Code            string
			VerificationURL string
		}{cert.ParticipantName, cert.CourseTitle, cert.Score, cert.Code, svc.VerificationURL(cert)},
	})
}
