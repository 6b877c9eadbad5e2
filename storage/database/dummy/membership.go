package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ecrmi/institute/core/membership"
)

type membershipRepository struct {
	db *membershipTable
}

var _ membership.Repository = (*membershipRepository)(nil) // interface compliance check

func NewMembershipRepository(db *DB) membership.Repository {
	return &membershipRepository{db: db.membership}
}

func (repo *membershipRepository) queryApps() []membership.Application {
	apps := make([]membership.Application, 0, len(repo.db.applications))
	for _, app := range repo.db.applications {
		apps = append(apps, *app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].SubmittedAt.After(apps[j].SubmittedAt) })
	return apps
}

func (repo *membershipRepository) CreateApplication(ctx context.Context, app membership.Application) (membership.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	app.ID = uuid.New().String()
	repo.db.applications[app.ID] = &app
	return app, nil
}

func (repo *membershipRepository) GetApplicationByID(ctx context.Context, id string) (membership.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if app, ok := repo.db.applications[id]; ok {
		return *app, nil
	}
	return membership.Application{}, membership.ErrNotFound
}

func (repo *membershipRepository) QueryApplications(ctx context.Context) ([]membership.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryApps(), nil
}

func (repo *membershipRepository) QueryApplicationsByEmail(ctx context.Context, email string) ([]membership.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	apps := make([]membership.Application, 0)
	for _, app := range repo.queryApps() {
		if app.Email == email {
			apps = append(apps, app)
		}
	}
	return apps, nil
}

func (repo *membershipRepository) UpdateApplication(ctx context.Context, app membership.Application) (membership.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.applications[app.ID]; !ok {
		return membership.Application{}, membership.ErrNotFound
	}
	repo.db.applications[app.ID] = &app
	return app, nil
}

func (repo *membershipRepository) DeleteApplicationsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.applications, id)
	}
	return nil
}

func (repo *membershipRepository) ApplicationCertIDExists(ctx context.Context, certID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, app := range repo.db.applications {
		if app.CertificateID == certID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *membershipRepository) GetMemberByEmail(ctx context.Context, email string) (membership.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mbr, ok := repo.db.members[email]; ok {
		return *mbr, nil
	}
	return membership.Member{}, membership.ErrMemberNotFound
}

func (repo *membershipRepository) GetMemberByCertID(ctx context.Context, certID string) (membership.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, mbr := range repo.db.members {
		if mbr.CertificateID == certID {
			return *mbr, nil
		}
	}
	return membership.Member{}, membership.ErrMemberNotFound
}

func (repo *membershipRepository) QueryMembers(ctx context.Context) ([]membership.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	mbrs := make([]membership.Member, 0, len(repo.db.members))
	for _, mbr := range repo.db.members {
		mbrs = append(mbrs, *mbr)
	}
	sort.Slice(mbrs, func(i, j int) bool { return mbrs[i].JoinedAt.After(mbrs[j].JoinedAt) })
	return mbrs, nil
}

func (repo *membershipRepository) SaveMember(ctx context.Context, mbr membership.Member) (membership.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if mbr.ID == "" {
		mbr.ID = uuid.New().String()
	}
	repo.db.members[mbr.Email] = &mbr
	return mbr, nil
}

func (repo *membershipRepository) DeleteMemberByEmail(ctx context.Context, email string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.members[email]; !ok {
		return membership.ErrMemberNotFound
	}
	delete(repo.db.members, email)
	return nil
}

func (repo *membershipRepository) MemberCertIDExists(ctx context.Context, certID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, mbr := range repo.db.members {
		if mbr.CertificateID == certID {
			return true, nil
		}
	}
	return false, nil
}
