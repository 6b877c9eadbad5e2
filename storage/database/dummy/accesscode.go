package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ecrmi/institute/core/accesscode"
)

type accessCodeRepository struct {
	db *accessCodeTable
}

var _ accesscode.Repository = (*accessCodeRepository)(nil) // interface compliance check

func NewAccessCodeRepository(db *DB) accesscode.Repository {
	return &accessCodeRepository{db: db.accessCode}
}

func (repo *accessCodeRepository) query() []accesscode.AccessCode {
	codes := make([]accesscode.AccessCode, 0, len(repo.db.table))
	for _, ac := range repo.db.table {
		codes = append(codes, *ac)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].CreatedAt.After(codes[j].CreatedAt) })
	return codes
}

func (repo *accessCodeRepository) CreateAccessCode(ctx context.Context, ac accesscode.AccessCode) (accesscode.AccessCode, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ac.ID = uuid.New().String()
	repo.db.table[ac.ID] = &ac
	return ac, nil
}

func (repo *accessCodeRepository) QueryAccessCodes(ctx context.Context) ([]accesscode.AccessCode, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *accessCodeRepository) QueryAccessCodesByCourse(ctx context.Context, courseID string) ([]accesscode.AccessCode, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	codes := make([]accesscode.AccessCode, 0)
	for _, ac := range repo.query() {
		if ac.CourseID == courseID {
			codes = append(codes, ac)
		}
	}
	return codes, nil
}

func (repo *accessCodeRepository) GetAccessCode(ctx context.Context, code, courseID string) (accesscode.AccessCode, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, ac := range repo.db.table {
		if ac.Code == code && ac.CourseID == courseID {
			return *ac, nil
		}
	}
	return accesscode.AccessCode{}, accesscode.ErrNotFound
}

func (repo *accessCodeRepository) ConsumeAccessCode(ctx context.Context, code, courseID, email string, usedAt time.Time) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, ac := range repo.db.table {
		if ac.Code == code && ac.CourseID == courseID && ac.Status == accesscode.StatusUnused {
			ac.Status = accesscode.StatusUsed
			ac.UsedByEmail = email
			ac.UsedAt = usedAt
			return true, nil
		}
	}
	return false, nil
}

func (repo *accessCodeRepository) DeleteUnusedAccessCode(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if ac, ok := repo.db.table[id]; ok && ac.Status == accesscode.StatusUnused {
		delete(repo.db.table, id)
		return nil
	}
	return accesscode.ErrNotFound
}
