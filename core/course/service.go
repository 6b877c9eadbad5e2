package course

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		QueryActiveCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		// DeleteCourse removes the course and all its questions.
		DeleteCourse(ctx context.Context, id string) error

		CreateQuestion(ctx context.Context, qst Question) (Question, error)
		QueryQuestionsByCourse(ctx context.Context, courseID string) ([]Question, error)
		GetQuestionByID(ctx context.Context, id string) (Question, error)
		UpdateQuestion(ctx context.Context, qst Question) (Question, error)
		DeleteQuestion(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	active := true
	if nc.IsActive != nil {
		active = *nc.IsActive
	}
	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		Duration:    nc.Duration,
		PassMark:    nc.PassMark,
		IsActive:    active,
		MaterialURL: nc.MaterialURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

// QueryActive returns only active courses; this backs the public listing.
func (svc *Service) QueryActive(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryActiveCourses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if uc.Title != "" {
		crs.Title = uc.Title
	}
	if uc.Description != "" {
		crs.Description = uc.Description
	}
	if uc.Duration != "" {
		crs.Duration = uc.Duration
	}
	if uc.PassMark != nil {
		crs.PassMark = *uc.PassMark
	}
	if uc.IsActive != nil {
		crs.IsActive = *uc.IsActive
	}
	if uc.MaterialURL != "" {
		crs.MaterialURL = uc.MaterialURL
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) AddQuestion(ctx context.Context, courseID string, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Question{}, err
	}
	qst := Question{
		CourseID:      courseID,
		Text:          nq.Text,
		Options:       nq.Options,
		CorrectOption: nq.CorrectOption,
		CreatedAt:     time.Now().UTC(),
	}
	return svc.repo.CreateQuestion(ctx, qst)
}

func (svc *Service) QueryQuestions(ctx context.Context, courseID string) ([]Question, error) {
	return svc.repo.QueryQuestionsByCourse(ctx, courseID)
}

func (svc *Service) UpdateQuestion(ctx context.Context, id string, uq UpdateQuestion) (Question, error) {
	qst, err := svc.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if uq.Text != "" {
		qst.Text = uq.Text
	}
	if uq.Options != nil {
		qst.Options = uq.Options
	}
	if uq.CorrectOption != nil {
		qst.CorrectOption = *uq.CorrectOption
	}
	return svc.repo.UpdateQuestion(ctx, qst)
}

func (svc *Service) DeleteQuestion(ctx context.Context, id string) error {
	return svc.repo.DeleteQuestion(ctx, id)
}
