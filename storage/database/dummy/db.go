package dummydb

import (
	"sync"

	"github.com/ecrmi/institute/core/accesscode"
	"github.com/ecrmi/institute/core/admin"
	"github.com/ecrmi/institute/core/attempt"
	"github.com/ecrmi/institute/core/certificate"
	"github.com/ecrmi/institute/core/course"
	"github.com/ecrmi/institute/core/membership"
)

// DB is an in-memory store for tests and local hacking.
type (
	DB struct {
		course      *courseTable
		attempt     *attemptTable
		certificate *certificateTable
		membership  *membershipTable
		accessCode  *accessCodeTable
		admin       *adminTable
	}

	courseTable struct {
		sync.RWMutex
		courses   map[string]*course.Course
		questions map[string]*course.Question
	}

	attemptTable struct {
		sync.RWMutex
		table map[string]*attempt.Attempt
	}

	certificateTable struct {
		sync.RWMutex
		certs        map[string]*certificate.Certificate // keyed by code
		participants map[string]*certificate.Participant // keyed by email
	}

	membershipTable struct {
		sync.RWMutex
		applications map[string]*membership.Application
		members      map[string]*membership.Member // keyed by email
	}

	accessCodeTable struct {
		sync.RWMutex
		table map[string]*accesscode.AccessCode
	}

	adminTable struct {
		sync.RWMutex
		table map[string]*admin.Admin
	}
)

func Open() (*DB, error) {
	db := &DB{
		course: &courseTable{
			courses:   make(map[string]*course.Course),
			questions: make(map[string]*course.Question),
		},
		attempt: &attemptTable{table: make(map[string]*attempt.Attempt)},
		certificate: &certificateTable{
			certs:        make(map[string]*certificate.Certificate),
			participants: make(map[string]*certificate.Participant),
		},
		membership: &membershipTable{
			applications: make(map[string]*membership.Application),
			members:      make(map[string]*membership.Member),
		},
		accessCode: &accessCodeTable{table: make(map[string]*accesscode.AccessCode)},
		admin:      &adminTable{table: make(map[string]*admin.Admin)},
	}
	return db, nil
}
