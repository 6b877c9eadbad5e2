package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ecrmi/institute/core/certificate"
)

type certificateRepository struct {
	db *certificateTable
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db *DB) certificate.Repository {
	return &certificateRepository{db: db.certificate}
}

func (repo *certificateRepository) query() []certificate.Certificate {
	certs := make([]certificate.Certificate, 0, len(repo.db.certs))
	for _, cert := range repo.db.certs {
		certs = append(certs, *cert)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].IssuedAt.After(certs[j].IssuedAt) })
	return certs
}

func (repo *certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cert.ID = uuid.New().String()
	repo.db.certs[cert.Code] = &cert
	return cert, nil
}

func (repo *certificateRepository) GetCertificateByCode(ctx context.Context, code string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cert, ok := repo.db.certs[code]; ok {
		return *cert, nil
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) QueryCertificates(ctx context.Context) ([]certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *certificateRepository) QueryCertificatesByEmail(ctx context.Context, email string) ([]certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	certs := make([]certificate.Certificate, 0)
	for _, cert := range repo.query() {
		if cert.ParticipantEmail == email {
			certs = append(certs, cert)
		}
	}
	return certs, nil
}

func (repo *certificateRepository) CertificateCodeExists(ctx context.Context, code string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	_, ok := repo.db.certs[code]
	return ok, nil
}

func (repo *certificateRepository) DeleteCertificateByCode(ctx context.Context, code string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.certs[code]; !ok {
		return certificate.ErrNotFound
	}
	delete(repo.db.certs, code)
	return nil
}

func (repo *certificateRepository) GetParticipantByEmail(ctx context.Context, email string) (certificate.Participant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.participants[email]; ok {
		return *p, nil
	}
	return certificate.Participant{}, certificate.ErrNotFound
}

func (repo *certificateRepository) SaveParticipant(ctx context.Context, p certificate.Participant) (certificate.Participant, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.participants[p.Email] = &p
	return p, nil
}
