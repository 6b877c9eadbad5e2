package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ecrmi/institute/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *courseRepository) QueryActiveCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.query() {
		if crs.IsActive {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.courses, id)
	for qid, qst := range repo.db.questions {
		if qst.CourseID == id {
			delete(repo.db.questions, qid)
		}
	}
	return nil
}

func (repo *courseRepository) CreateQuestion(ctx context.Context, qst course.Question) (course.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	qst.ID = uuid.New().String()
	repo.db.questions[qst.ID] = &qst
	return qst, nil
}

func (repo *courseRepository) QueryQuestionsByCourse(ctx context.Context, courseID string) ([]course.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	questions := make([]course.Question, 0)
	for _, qst := range repo.db.questions {
		if qst.CourseID == courseID {
			questions = append(questions, *qst)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].CreatedAt.Before(questions[j].CreatedAt) })
	return questions, nil
}

func (repo *courseRepository) GetQuestionByID(ctx context.Context, id string) (course.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if qst, ok := repo.db.questions[id]; ok {
		return *qst, nil
	}
	return course.Question{}, course.ErrQuestionNotFound
}

func (repo *courseRepository) UpdateQuestion(ctx context.Context, qst course.Question) (course.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.questions[qst.ID]; !ok {
		return course.Question{}, course.ErrQuestionNotFound
	}
	repo.db.questions[qst.ID] = &qst
	return qst, nil
}

func (repo *courseRepository) DeleteQuestion(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.questions[id]; !ok {
		return course.ErrQuestionNotFound
	}
	delete(repo.db.questions, id)
	return nil
}
