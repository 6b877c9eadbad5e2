package attempt

import (
	"time"

	"github.com/ecrmi/institute/core"
)

// Attempt is one graded submission of answers for a participant/course pair.
// Immutable once created except via the admin reset, which deletes the pair's
// attempts wholesale.
type Attempt struct {
	ID               string    `json:"id"`
	ParticipantName  string    `json:"participant_name"`
	ParticipantEmail string    `json:"participant_email"`
	CourseID         string    `json:"course_id"`
	Answers          []*int    `json:"answers"`
	Score            int       `json:"score"`
	Passed           bool      `json:"passed"`
	SeqNo            int       `json:"seq_no"` // 1-based position within the (email, course) pair
	CreatedAt        time.Time `json:"created_at"` // UTC
}

// Submission contains information needed to grade a new Attempt.
// A nil answer means the participant skipped that question.
type Submission struct {
	ParticipantName  string `json:"participant_name" validate:"required"`
	ParticipantEmail string `json:"participant_email" validate:"required,email"`
	CourseID         string `json:"course_id" validate:"required"`
	Answers          []*int `json:"answers"`
}

func (s *Submission) Validate() error {
	s.ParticipantName = core.CleanString(s.ParticipantName)
	s.ParticipantEmail = core.CleanString(s.ParticipantEmail, true /* lower */)
	return core.Validate.Struct(s)
}

// Result is what the participant gets back after grading.
type Result struct {
	Score           int    `json:"score"`
	Passed          bool   `json:"passed"`
	CertificateCode string `json:"certificate_code,omitempty"`
}

// CourseStatus summarizes a participant's standing on one course.
type CourseStatus struct {
	Attempts int  `json:"attempts"`
	Passed   bool `json:"passed"`
}
