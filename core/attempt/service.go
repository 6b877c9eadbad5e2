package attempt

import (
	"context"
	"errors"
	"math"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/ecrmi/institute/core/certificate"
	"github.com/ecrmi/institute/core/course"
)

// MaxAttempts is the ceiling of stored attempts per (email, course) pair.
const MaxAttempts = 3

var (
	// errors
	ErrNotFound = errors.New("attempt not found")
	// ErrAttemptsExhausted is returned by Repository.CreateAttempt when the
	// (email, course) pair already holds MaxAttempts attempts. The check and
	// the insert are a single atomic operation in the repository so two
	// concurrent submissions cannot both slip under the cap.
	ErrAttemptsExhausted = errors.New("maximum attempts reached")
)

type (
	Repository interface {
		// CreateAttempt persists att under the next sequence number for its
		// (email, course) pair, atomically refusing a SeqNo above MaxAttempts.
		CreateAttempt(ctx context.Context, att Attempt) (Attempt, error)
		QueryAttempts(ctx context.Context) ([]Attempt, error)
		QueryAttemptsByEmail(ctx context.Context, email string) ([]Attempt, error)
		DeleteAttempts(ctx context.Context, email, courseID string) error
	}

	Service struct {
		repo      Repository
		courseSvc *course.Service
		certSvc   *certificate.Service
	}
)

func NewService(repo Repository, courseSvc *course.Service, certSvc *certificate.Service) *Service {
	return &Service{repo: repo, courseSvc: courseSvc, certSvc: certSvc}
}

// Grade scores submitted answer indices against the course's questions.
// Empty questions or answers score 0.
func Grade(answers []*int, questions []course.Question) int {
	if len(questions) == 0 || len(answers) == 0 {
		return 0
	}
	var correct int
	for i, qst := range questions {
		if i >= len(answers) {
			break
		}
		if ans := answers[i]; ans != nil && *ans == qst.CorrectOption {
			correct++
		}
	}
	return int(math.Round(100 * float64(correct) / float64(len(questions))))
}

// Submit grades a submission, records the attempt and, on a pass, issues a
// certificate and locks the participant's display name. It does not
// special-case a participant who already passed; the attempt cap is the only
// gate here.
func (svc *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	crs, err := svc.courseSvc.GetByID(ctx, sub.CourseID)
	if err != nil {
		return Result{}, err
	}
	questions, err := svc.courseSvc.QueryQuestions(ctx, crs.ID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(err, "loading questions")
	}

	score := Grade(sub.Answers, questions)
	att := Attempt{
		ParticipantName:  sub.ParticipantName,
		ParticipantEmail: sub.ParticipantEmail,
		CourseID:         crs.ID,
		Answers:          sub.Answers,
		Score:            score,
		Passed:           score >= crs.PassMark,
		CreatedAt:        time.Now().UTC(),
	}
	att, err = svc.repo.CreateAttempt(ctx, att)
	if err != nil {
		return Result{}, err
	}

	res := Result{Score: att.Score, Passed: att.Passed}
	if att.Passed {
		cert, err := svc.certSvc.Issue(ctx, att.ParticipantName, att.ParticipantEmail, crs.ID, crs.Title, att.Score)
		if err != nil {
			return Result{}, pkgerrors.Wrap(err, "issuing certificate")
		}
		res.CertificateCode = cert.Code
	}
	return res, nil
}

// StatusFor reports per-course attempt counts and pass state for one email.
func (svc *Service) StatusFor(ctx context.Context, email string, courseIDs []string) (map[string]CourseStatus, error) {
	atts, err := svc.repo.QueryAttemptsByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying attempts")
	}

	wanted := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}

	status := make(map[string]CourseStatus, len(courseIDs))
	for _, id := range courseIDs {
		status[id] = CourseStatus{}
	}
	for _, att := range atts {
		if !wanted[att.CourseID] {
			continue
		}
		st := status[att.CourseID]
		st.Attempts++
		st.Passed = st.Passed || att.Passed
		status[att.CourseID] = st
	}
	return status, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Attempt, error) {
	return svc.repo.QueryAttempts(ctx)
}

// Reset deletes all attempts for the (email, course) pair, reopening the cap.
func (svc *Service) Reset(ctx context.Context, email, courseID string) error {
	return svc.repo.DeleteAttempts(ctx, email, courseID)
}
