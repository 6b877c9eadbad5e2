package course

import (
	"time"

	"github.com/ecrmi/institute/core"
)

// NumOptions is the fixed number of answer options per question.
const NumOptions = 4

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    string    `json:"duration"`
	PassMark    int       `json:"pass_mark"`
	IsActive    bool      `json:"is_active"`
	MaterialURL string    `json:"material_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Question struct {
	ID            string    `json:"id"`
	CourseID      string    `json:"course_id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"correct_option"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	PassMark    int    `json:"pass_mark" validate:"min=0,max=100"`
	IsActive    *bool  `json:"is_active"`
	MaterialURL string `json:"material_url" validate:"omitempty,url"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	PassMark    *int   `json:"pass_mark" validate:"omitempty,min=0,max=100"`
	IsActive    *bool  `json:"is_active"`
	MaterialURL string `json:"material_url" validate:"omitempty,url"`
}

func (uc *UpdateCourse) Validate() error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	return core.Validate.Struct(uc)
}

// NewQuestion contains information needed to create a new Question.
type NewQuestion struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,len=4,dive,required"`
	CorrectOption int      `json:"correct_option" validate:"min=0,max=3"`
}

func (nq *NewQuestion) Validate() error {
	nq.Text = core.CleanString(nq.Text)
	for i, opt := range nq.Options {
		nq.Options[i] = core.CleanString(opt)
	}
	return core.Validate.Struct(nq)
}

// UpdateQuestion defines what information may be provided to modify an existing Question.
type UpdateQuestion struct {
	Text          string   `json:"text"`
	Options       []string `json:"options" validate:"omitempty,len=4,dive,required"`
	CorrectOption *int     `json:"correct_option" validate:"omitempty,min=0,max=3"`
}

func (uq *UpdateQuestion) Validate() error {
	uq.Text = core.CleanString(uq.Text)
	for i, opt := range uq.Options {
		uq.Options[i] = core.CleanString(opt)
	}
	return core.Validate.Struct(uq)
}
