package accesscode

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("access code not found")
	// ErrCodeInvalid covers unknown (code, course) pairs.
	ErrCodeInvalid = errors.New("invalid access code")
	// ErrCodeUsed means the code was already consumed by a different email.
	ErrCodeUsed = errors.New("access code already used")
)

const codeLen = 8

// codeAlphabet avoids ambiguous characters (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

type (
	Repository interface {
		CreateAccessCode(ctx context.Context, ac AccessCode) (AccessCode, error)
		QueryAccessCodes(ctx context.Context) ([]AccessCode, error)
		QueryAccessCodesByCourse(ctx context.Context, courseID string) ([]AccessCode, error)
		GetAccessCode(ctx context.Context, code, courseID string) (AccessCode, error)
		// ConsumeAccessCode atomically flips an unused (code, courseID) to
		// used by email; ok reports whether a row was flipped.
		ConsumeAccessCode(ctx context.Context, code, courseID, email string, usedAt time.Time) (ok bool, err error)
		DeleteUnusedAccessCode(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Generate mints a batch of unused codes scoped to one course.
func (svc *Service) Generate(ctx context.Context, courseID string, count int) ([]AccessCode, error) {
	codes := make([]AccessCode, 0, count)
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		code, err := randomCode()
		if err != nil {
			return nil, err
		}
		ac, err := svc.repo.CreateAccessCode(ctx, AccessCode{
			Code:      code,
			CourseID:  courseID,
			Status:    StatusUnused,
			CreatedAt: now,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(err, "inserting access code")
		}
		codes = append(codes, ac)
	}
	return codes, nil
}

// Consume redeems a code: an atomic unused→used flip. When the flip touches
// nothing, a code already consumed by the same email for the same course is a
// no-op success (legitimate re-entry); anything else is rejected.
func (svc *Service) Consume(ctx context.Context, code, courseID, email string) error {
	ok, err := svc.repo.ConsumeAccessCode(ctx, code, courseID, email, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(err, "consuming access code")
	}
	if ok {
		return nil
	}

	ac, err := svc.repo.GetAccessCode(ctx, code, courseID)
	if err == ErrNotFound {
		return ErrCodeInvalid
	} else if err != nil {
		return pkgerrors.Wrap(err, "looking up access code")
	}
	if ac.Status == StatusUsed && ac.UsedByEmail == email {
		return nil
	}
	return ErrCodeUsed
}

func (svc *Service) QueryAll(ctx context.Context) ([]AccessCode, error) {
	return svc.repo.QueryAccessCodes(ctx)
}

func (svc *Service) QueryByCourse(ctx context.Context, courseID string) ([]AccessCode, error) {
	return svc.repo.QueryAccessCodesByCourse(ctx, courseID)
}

// DeleteUnused removes a code that was never consumed.
func (svc *Service) DeleteUnused(ctx context.Context, id string) error {
	return svc.repo.DeleteUnusedAccessCode(ctx, id)
}

func randomCode() (string, error) {
	buf := make([]byte, codeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", pkgerrors.Wrap(err, "reading random bytes")
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
