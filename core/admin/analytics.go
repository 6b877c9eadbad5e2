package admin

import (
	"context"
	"math"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"github.com/ecrmi/institute/core/attempt"
	"github.com/ecrmi/institute/core/certificate"
	"github.com/ecrmi/institute/core/course"
	"github.com/ecrmi/institute/core/membership"
)

const recentAttemptsLimit = 10

type (
	// Dashboard is the admin analytics view, computed by scanning all
	// attempts in memory; the data set is human-paced and small.
	Dashboard struct {
		TotalCourses        int               `json:"total_courses"`
		TotalAttempts       int               `json:"total_attempts"`
		TotalCertificates   int               `json:"total_certificates"`
		TotalMembers        int               `json:"total_members"`
		PendingApplications int               `json:"pending_applications"`
		PassRate            float64           `json:"pass_rate"`
		Courses             []CourseStats     `json:"courses"`
		RecentAttempts      []attempt.Attempt `json:"recent_attempts"`
	}

	CourseStats struct {
		CourseID     string  `json:"course_id"`
		Title        string  `json:"title"`
		Attempts     int     `json:"attempts"`
		Passes       int     `json:"passes"`
		PassRate     float64 `json:"pass_rate"`
		AverageScore float64 `json:"average_score"`
	}

	Analytics struct {
		attemptSvc *attempt.Service
		courseSvc  *course.Service
		certSvc    *certificate.Service
		mbrSvc     *membership.Service
	}
)

func NewAnalytics(
	attemptSvc *attempt.Service,
	courseSvc *course.Service,
	certSvc *certificate.Service,
	mbrSvc *membership.Service,
) *Analytics {
	return &Analytics{attemptSvc: attemptSvc, courseSvc: courseSvc, certSvc: certSvc, mbrSvc: mbrSvc}
}

func (a *Analytics) Dashboard(ctx context.Context) (Dashboard, error) {
	var dash Dashboard

	courses, err := a.courseSvc.QueryAll(ctx)
	if err != nil {
		return Dashboard{}, pkgerrors.Wrap(err, "querying courses")
	}
	attempts, err := a.attemptSvc.QueryAll(ctx)
	if err != nil {
		return Dashboard{}, pkgerrors.Wrap(err, "querying attempts")
	}
	certs, err := a.certSvc.QueryAll(ctx)
	if err != nil {
		return Dashboard{}, pkgerrors.Wrap(err, "querying certificates")
	}
	members, err := a.mbrSvc.QueryMembers(ctx)
	if err != nil {
		return Dashboard{}, pkgerrors.Wrap(err, "querying members")
	}
	apps, err := a.mbrSvc.QueryApplications(ctx)
	if err != nil {
		return Dashboard{}, pkgerrors.Wrap(err, "querying applications")
	}

	dash.TotalCourses = len(courses)
	dash.TotalAttempts = len(attempts)
	dash.TotalCertificates = len(certs)
	dash.TotalMembers = len(members)
	for _, app := range apps {
		if app.Status == membership.StatusPending {
			dash.PendingApplications++
		}
	}

	type agg struct {
		attempts, passes, scoreSum int
	}
	perCourse := make(map[string]*agg, len(courses))
	var passes int
	for _, att := range attempts {
		if att.Passed {
			passes++
		}
		c, ok := perCourse[att.CourseID]
		if !ok {
			c = &agg{}
			perCourse[att.CourseID] = c
		}
		c.attempts++
		c.scoreSum += att.Score
		if att.Passed {
			c.passes++
		}
	}
	if len(attempts) > 0 {
		dash.PassRate = round2(100 * float64(passes) / float64(len(attempts)))
	}

	dash.Courses = make([]CourseStats, 0, len(courses))
	for _, crs := range courses {
		stats := CourseStats{CourseID: crs.ID, Title: crs.Title}
		if c, ok := perCourse[crs.ID]; ok {
			stats.Attempts = c.attempts
			stats.Passes = c.passes
			stats.PassRate = round2(100 * float64(c.passes) / float64(c.attempts))
			stats.AverageScore = round2(float64(c.scoreSum) / float64(c.attempts))
		}
		dash.Courses = append(dash.Courses, stats)
	}

	sort.Slice(attempts, func(i, j int) bool { return attempts[i].CreatedAt.After(attempts[j].CreatedAt) })
	if len(attempts) > recentAttemptsLimit {
		attempts = attempts[:recentAttemptsLimit]
	}
	dash.RecentAttempts = attempts

	return dash, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
