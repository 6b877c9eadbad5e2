package membership

import (
	"time"

	"github.com/ecrmi/institute/core"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Application is an applicant's submission. An update request is a new
// Application flagged IsUpdateRequest referencing the same email, never a
// mutation of the original.
type Application struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	JobTitle        string    `json:"job_title,omitempty"`
	Organization    string    `json:"organization,omitempty"`
	RequestedType   string    `json:"requested_type"`
	ApprovedType    string    `json:"approved_type,omitempty"`
	DocumentURLs    []string  `json:"document_urls,omitempty"`
	Status          Status    `json:"status"`
	IsUpdateRequest bool      `json:"is_update_request"`
	CertificateID   string    `json:"certificate_id,omitempty"`
	AdminNotes      string    `json:"admin_notes,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`           // UTC
	ReviewedAt      time.Time `json:"reviewed_at,omitempty"`  // UTC; zero until reviewed
}

// HistoryEntry archives a superseded membership certificate.
type HistoryEntry struct {
	CertificateID  string    `json:"certificate_id"`
	MembershipType string    `json:"membership_type"`
	IssuedAt       time.Time `json:"issued_at"`
	DocumentURLs   []string  `json:"document_urls,omitempty"`
}

// Member is the read model projected from approved applications, keyed by
// email. CertificateHistory grows only when a re-approval changes the
// membership type's code prefix.
type Member struct {
	ID                 string         `json:"id"`
	Email              string         `json:"email"`
	Name               string         `json:"name"`
	Phone              string         `json:"phone,omitempty"`
	JobTitle           string         `json:"job_title,omitempty"`
	Organization       string         `json:"organization,omitempty"`
	MembershipType     string         `json:"membership_type"`
	CertificateID      string         `json:"certificate_id"`
	DocumentURLs       []string       `json:"document_urls,omitempty"`
	CertificateHistory []HistoryEntry `json:"certificate_history,omitempty"`
	JoinedAt           time.Time      `json:"joined_at"`  // UTC
	UpdatedAt          time.Time      `json:"updated_at"` // UTC
}

// NewApplication contains information needed to file a membership application
// or an update request.
type NewApplication struct {
	Name          string   `json:"name" validate:"required"`
	Email         string   `json:"email" validate:"required,email"`
	Phone         string   `json:"phone"`
	JobTitle      string   `json:"job_title"`
	Organization  string   `json:"organization"`
	RequestedType string   `json:"requested_type" validate:"required"`
	DocumentURLs  []string `json:"document_urls" validate:"omitempty,dive,url"`
}

func (na *NewApplication) Validate() error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.RequestedType = core.CleanString(na.RequestedType)
	return core.Validate.Struct(na)
}

// Decision is the admin's review of a pending application.
type Decision struct {
	Action         string `json:"action" validate:"required,oneof=approve reject"`
	MembershipType string `json:"membership_type"`
	AdminNotes     string `json:"admin_notes"`
}

func (d *Decision) Validate() error {
	d.Action = core.CleanString(d.Action, true /* lower */)
	d.MembershipType = core.CleanString(d.MembershipType)
	return core.Validate.Struct(d)
}

// LookupResult is the applicant-facing status view.
type LookupResult struct {
	Application *Application `json:"application,omitempty"`
	Member      *Member      `json:"member,omitempty"`
}

// Verification is the public verify-by-code response.
type Verification struct {
	Valid          bool   `json:"valid"`
	Name           string `json:"name,omitempty"`
	MembershipType string `json:"membership_type,omitempty"`
	CertificateID  string `json:"certificate_id,omitempty"`
	JoinedAt       string `json:"joined_at,omitempty"`
}
