package attempt_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/attempt"
	"github.com/ecrmi/institute/core/certificate"
	"github.com/ecrmi/institute/core/course"
	emailsvc "github.com/ecrmi/institute/services/email"
	dummydb "github.com/ecrmi/institute/storage/database/dummy"
)

func TestMain(m *testing.M) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validator.New(), translator)
	os.Exit(m.Run())
}

func intPtr(i int) *int { return &i }

func TestGrade(t *testing.T) {
	questions := []course.Question{
		{CorrectOption: 0},
		{CorrectOption: 1},
		{CorrectOption: 2},
		{CorrectOption: 3},
	}

	tests := []struct {
		name      string
		answers   []*int
		questions []course.Question
		want      int
	}{
		{name: "no questions", answers: []*int{intPtr(0)}, questions: nil, want: 0},
		{name: "no answers", answers: nil, questions: questions, want: 0},
		{name: "all correct", answers: []*int{intPtr(0), intPtr(1), intPtr(2), intPtr(3)}, questions: questions, want: 100},
		{name: "three of four", answers: []*int{intPtr(0), intPtr(1), intPtr(2), intPtr(0)}, questions: questions, want: 75},
		{name: "skipped questions count wrong", answers: []*int{intPtr(0), nil, nil, intPtr(3)}, questions: questions, want: 50},
		{name: "short answer list", answers: []*int{intPtr(0)}, questions: questions, want: 25},
		{name: "rounding", answers: []*int{intPtr(0)}, questions: questions[:3], want: 33},
		{name: "rounds up", answers: []*int{intPtr(0), intPtr(1)}, questions: questions[:3], want: 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attempt.Grade(tt.answers, tt.questions))
		})
	}
}

type testEnv struct {
	courseSvc  *course.Service
	certSvc    *certificate.Service
	attemptSvc *attempt.Service
	crs        course.Course
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := &core.Config{
		TestMode:        true,
		AppName:         "ECRMI",
		FrontendBaseURL: "https://test.ecrmi.org",
		WorkDir:         core.Getwd(),
	}
	core.ParseEmailTemplates(conf, testLogger{})
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	courseSvc := course.NewService(dummydb.NewCourseRepository(db))
	certSvc := certificate.NewService(dummydb.NewCertificateRepository(db), mailSvc, conf)
	attemptSvc := attempt.NewService(dummydb.NewAttemptRepository(db), courseSvc, certSvc)

	ctx := context.Background()
	crs, err := courseSvc.Create(ctx, course.NewCourse{Title: "Risk Management Fundamentals", PassMark: 70})
	require.NoError(t, err)

	correct := []int{0, 1, 2, 3}
	for _, c := range correct {
		_, err = courseSvc.AddQuestion(ctx, crs.ID, course.NewQuestion{
			Text:          "Pick the right option",
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: c,
		})
		require.NoError(t, err)
	}

	return testEnv{courseSvc: courseSvc, certSvc: certSvc, attemptSvc: attemptSvc, crs: crs}
}

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(msg string, _ ...interface{}) {
	log.Fatal(msg)
}

func TestService_Submit_pass(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.attemptSvc.Submit(ctx, attempt.Submission{
		ParticipantName:  "Ada Obi",
		ParticipantEmail: "ada@test.cd",
		CourseID:         env.crs.ID,
		Answers:          []*int{intPtr(0), intPtr(1), intPtr(2), intPtr(0)}, // 3 of 4
	})
	require.NoError(t, err)
	assert.Equal(t, 75, res.Score)
	assert.True(t, res.Passed)
	assert.NotEmpty(t, res.CertificateCode)

	cert, err := env.certSvc.GetByCode(ctx, res.CertificateCode)
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", cert.ParticipantName)
	assert.Equal(t, env.crs.Title, cert.CourseTitle)
	assert.Equal(t, 75, cert.Score)

	// the participant's name is now locked
	_, err = env.certSvc.UpdateParticipantName(ctx, "ada@test.cd", "Someone Else")
	assert.Equal(t, certificate.ErrNameLocked, err)

	// a notification went out
	assert.Len(t, emailsvc.SentMessages, 1)
	assert.Contains(t, emailsvc.SentMessages[0].TextContent, res.CertificateCode)
}

func TestService_Submit_fail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.attemptSvc.Submit(ctx, attempt.Submission{
		ParticipantName:  "Ada Obi",
		ParticipantEmail: "ada@test.cd",
		CourseID:         env.crs.ID,
		Answers:          []*int{intPtr(0), intPtr(0), intPtr(0), intPtr(0)}, // 1 of 4
	})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Score)
	assert.False(t, res.Passed)
	assert.Empty(t, res.CertificateCode)

	// no certificate, no mail
	certs, err := env.certSvc.QueryByEmail(ctx, "ada@test.cd")
	require.NoError(t, err)
	assert.Empty(t, certs)
	assert.Empty(t, emailsvc.SentMessages)
}

func TestService_Submit_capExhausted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sub := attempt.Submission{
		ParticipantName:  "Ada Obi",
		ParticipantEmail: "ada@test.cd",
		CourseID:         env.crs.ID,
		Answers:          []*int{intPtr(1), intPtr(0), intPtr(0), intPtr(0)},
	}
	for i := 0; i < attempt.MaxAttempts; i++ {
		_, err := env.attemptSvc.Submit(ctx, sub)
		require.NoError(t, err)
	}

	_, err := env.attemptSvc.Submit(ctx, sub)
	assert.Equal(t, attempt.ErrAttemptsExhausted, err)

	// another participant is unaffected
	sub2 := sub
	sub2.ParticipantEmail = "obi@test.cd"
	sub2.ParticipantName = "Obi Ada"
	_, err = env.attemptSvc.Submit(ctx, sub2)
	assert.NoError(t, err)
}

func TestService_StatusFor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.attemptSvc.Submit(ctx, attempt.Submission{
		ParticipantName:  "Ada Obi",
		ParticipantEmail: "ada@test.cd",
		CourseID:         env.crs.ID,
		Answers:          []*int{intPtr(0), intPtr(0), intPtr(0), intPtr(0)},
	})
	require.NoError(t, err)
	_, err = env.attemptSvc.Submit(ctx, attempt.Submission{
		ParticipantName:  "Ada Obi",
		ParticipantEmail: "ada@test.cd",
		CourseID:         env.crs.ID,
		Answers:          []*int{intPtr(0), intPtr(1), intPtr(2), intPtr(3)},
	})
	require.NoError(t, err)

	status, err := env.attemptSvc.StatusFor(ctx, "ada@test.cd", []string{env.crs.ID, "missing-course"})
	require.NoError(t, err)
	assert.Equal(t, attempt.CourseStatus{Attempts: 2, Passed: true}, status[env.crs.ID])
	assert.Equal(t, attempt.CourseStatus{}, status["missing-course"])
}

func TestService_Reset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sub := attempt.Submission{
		ParticipantName:  "Ada Obi",
		ParticipantEmail: "ada@test.cd",
		CourseID:         env.crs.ID,
		Answers:          []*int{intPtr(1), intPtr(0), intPtr(0), intPtr(0)},
	}
	for i := 0; i < attempt.MaxAttempts; i++ {
		_, err := env.attemptSvc.Submit(ctx, sub)
		require.NoError(t, err)
	}
	_, err := env.attemptSvc.Submit(ctx, sub)
	require.Equal(t, attempt.ErrAttemptsExhausted, err)

	require.NoError(t, env.attemptSvc.Reset(ctx, sub.ParticipantEmail, sub.CourseID))

	res, err := env.attemptSvc.Submit(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Score)
}
