package accesscode

import (
	"strings"
	"time"

	"github.com/ecrmi/institute/core"
)

type Status string

const (
	StatusUnused Status = "unused"
	StatusUsed   Status = "used"
)

// AccessCode is a single-use token unlocking one course for one participant.
type AccessCode struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	CourseID    string    `json:"course_id"`
	Status      Status    `json:"status"`
	UsedByEmail string    `json:"used_by_email,omitempty"`
	UsedAt      time.Time `json:"used_at,omitempty"` // UTC; zero until consumed
	CreatedAt   time.Time `json:"created_at"`        // UTC
}

// GenerateRequest asks for a batch of codes scoped to one course.
type GenerateRequest struct {
	CourseID string `json:"course_id" validate:"required"`
	Count    int    `json:"count" validate:"required,min=1,max=500"`
}

func (gr *GenerateRequest) Validate() error {
	gr.CourseID = core.CleanString(gr.CourseID)
	return core.Validate.Struct(gr)
}

// ConsumeRequest redeems a code for course entry.
type ConsumeRequest struct {
	Code     string `json:"code" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

func (cr *ConsumeRequest) Validate() error {
	cr.Code = strings.ToUpper(core.CleanString(cr.Code))
	cr.CourseID = core.CleanString(cr.CourseID)
	cr.Email = core.CleanString(cr.Email, true /* lower */)
	return core.Validate.Struct(cr)
}
