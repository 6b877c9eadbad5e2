package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ecrmi/institute/core/attempt"
)

type attemptRepository struct {
	db *attemptTable
}

var _ attempt.Repository = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *DB) attempt.Repository {
	return &attemptRepository{db: db.attempt}
}

func (repo *attemptRepository) query() []attempt.Attempt {
	attempts := make([]attempt.Attempt, 0, len(repo.db.table))
	for _, att := range repo.db.table {
		attempts = append(attempts, *att)
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].CreatedAt.Before(attempts[j].CreatedAt) })
	return attempts
}

func (repo *attemptRepository) CreateAttempt(ctx context.Context, att attempt.Attempt) (attempt.Attempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	maxSeq := 0
	for _, prev := range repo.db.table {
		if prev.ParticipantEmail == att.ParticipantEmail && prev.CourseID == att.CourseID && prev.SeqNo > maxSeq {
			maxSeq = prev.SeqNo
		}
	}
	if maxSeq >= attempt.MaxAttempts {
		return attempt.Attempt{}, attempt.ErrAttemptsExhausted
	}

	att.ID = uuid.New().String()
	att.SeqNo = maxSeq + 1
	repo.db.table[att.ID] = &att
	return att, nil
}

func (repo *attemptRepository) QueryAttempts(ctx context.Context) ([]attempt.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *attemptRepository) QueryAttemptsByEmail(ctx context.Context, email string) ([]attempt.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	attempts := make([]attempt.Attempt, 0)
	for _, att := range repo.query() {
		if att.ParticipantEmail == email {
			attempts = append(attempts, att)
		}
	}
	return attempts, nil
}

func (repo *attemptRepository) DeleteAttempts(ctx context.Context, email, courseID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, att := range repo.db.table {
		if att.ParticipantEmail == email && att.CourseID == courseID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
