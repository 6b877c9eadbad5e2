package certificate

import "time"

// Certificate is the verifiable proof that a participant passed a course.
// Fields are denormalized at issuance time so the record renders on its own;
// it is never mutated after creation (admin revoke is a hard delete).
type Certificate struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"` // opaque, globally unique
	ParticipantName  string    `json:"participant_name"`
	ParticipantEmail string    `json:"participant_email"`
	CourseID         string    `json:"course_id"`
	CourseTitle      string    `json:"course_title"`
	Score            int       `json:"score"`
	IssuedAt         time.Time `json:"issued_at"` // UTC
}

// Participant holds the display name shown on certificates.
// NameLocked becomes permanently true the first time any certificate is
// issued to that email; the name is immutable thereafter.
type Participant struct {
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	NameLocked bool      `json:"name_locked"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}
