package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core/course"
)

type courseRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Duration    string    `db:"duration"`
	PassMark    int       `db:"pass_mark"`
	IsActive    bool      `db:"is_active"`
	MaterialURL string    `db:"material_url"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type questionRow struct {
	ID            string      `db:"id"`
	CourseID      string      `db:"course_id"`
	Text          string      `db:"text"`
	Options       stringSlice `db:"options"`
	CorrectOption int         `db:"correct_option"`
	CreatedAt     time.Time   `db:"created_at"`
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) row(crs course.Course) courseRow {
	return courseRow{
		ID:          crs.ID,
		Title:       crs.Title,
		Description: crs.Description,
		Duration:    crs.Duration,
		PassMark:    crs.PassMark,
		IsActive:    crs.IsActive,
		MaterialURL: crs.MaterialURL,
		CreatedAt:   crs.CreatedAt.UTC(),
		UpdatedAt:   crs.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) unrow(r courseRow) course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Duration:    r.Duration,
		PassMark:    r.PassMark,
		IsActive:    r.IsActive,
		MaterialURL: r.MaterialURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (repo courseRepository) unrowSlice(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, repo.unrow(r))
	}
	return courses
}

// trapNoRowsErr maps psql "no rows" err to the given domain error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	r := repo.row(crs)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO course (id, title, description, duration, pass_mark, is_active, material_url, created_at, updated_at)
		VALUES (:id, :title, :description, :duration, :pass_mark, :is_active, :material_url, :created_at, :updated_at)`, r)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.unrow(r), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM course ORDER BY created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return repo.unrowSlice(rows), nil
}

func (repo courseRepository) QueryActiveCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM course WHERE is_active ORDER BY created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying active courses")
	}
	return repo.unrowSlice(rows), nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var r courseRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM course WHERE id = $1", id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course")
	}
	return repo.unrow(r), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	r := repo.row(crs)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE course SET title = :title, description = :description, duration = :duration,
			pass_mark = :pass_mark, is_active = :is_active, material_url = :material_url, updated_at = :updated_at
		WHERE id = :id`, r)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.unrow(r), nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	// questions go with it via ON DELETE CASCADE
	res, err := repo.db.ExecContext(ctx, "DELETE FROM course WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo courseRepository) qrow(qst course.Question) questionRow {
	return questionRow{
		ID:            qst.ID,
		CourseID:      qst.CourseID,
		Text:          qst.Text,
		Options:       stringSlice(qst.Options),
		CorrectOption: qst.CorrectOption,
		CreatedAt:     qst.CreatedAt.UTC(),
	}
}

func (repo courseRepository) unqrow(r questionRow) course.Question {
	return course.Question{
		ID:            r.ID,
		CourseID:      r.CourseID,
		Text:          r.Text,
		Options:       []string(r.Options),
		CorrectOption: r.CorrectOption,
		CreatedAt:     r.CreatedAt,
	}
}

func (repo courseRepository) CreateQuestion(ctx context.Context, qst course.Question) (course.Question, error) {
	qst.ID = uuid.New().String()
	r := repo.qrow(qst)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO question (id, course_id, text, options, correct_option, created_at)
		VALUES (:id, :course_id, :text, :options, :correct_option, :created_at)`, r)
	if err != nil {
		return course.Question{}, errors.Wrap(err, "inserting question")
	}
	return repo.unqrow(r), nil
}

func (repo courseRepository) QueryQuestionsByCourse(ctx context.Context, courseID string) ([]course.Question, error) {
	var rows []questionRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM question WHERE course_id = $1 ORDER BY created_at", courseID); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]course.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, repo.unqrow(r))
	}
	return questions, nil
}

func (repo courseRepository) GetQuestionByID(ctx context.Context, id string) (course.Question, error) {
	var r questionRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM question WHERE id = $1", id); err != nil {
		return course.Question{}, trapNoRowsErr(err, course.ErrQuestionNotFound, "getting question")
	}
	return repo.unqrow(r), nil
}

func (repo courseRepository) UpdateQuestion(ctx context.Context, qst course.Question) (course.Question, error) {
	r := repo.qrow(qst)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE question SET text = :text, options = :options, correct_option = :correct_option
		WHERE id = :id`, r)
	if err != nil {
		return course.Question{}, errors.Wrap(err, "updating question")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Question{}, course.ErrQuestionNotFound
	}
	return repo.unqrow(r), nil
}

func (repo courseRepository) DeleteQuestion(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM question WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting question")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrQuestionNotFound
	}
	return nil
}
