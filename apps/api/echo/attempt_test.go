package echoapi

import (
	"net/http"
	"testing"

	"github.com/ecrmi/institute/core/attempt"
)

func submitAttempt(t *testing.T, email, courseID string, answers []*int) (*attempt.Result, int) {
	t.Helper()
	body := marshallObj(t, attempt.Submission{
		ParticipantName:  "Chidi Eze",
		ParticipantEmail: email,
		CourseID:         courseID,
		Answers:          answers,
	})
	req, rec := newRequest(http.MethodPost, "/v1/attempts", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		return nil, rec.Code
	}
	var res attempt.Result
	unmarshalBody(t, rec, &res)
	return &res, rec.Code
}

func Test_attemptApi_submit(t *testing.T) {
	crs := seedCourse(t, "Enterprise Risk Fundamentals", 70, true)
	for i := 0; i < 4; i++ {
		seedQuestion(t, crs.ID, "Q", i)
	}
	allCorrect := []*int{intPtr(0), intPtr(1), intPtr(2), intPtr(3)}
	allWrong := []*int{intPtr(3), intPtr(0), intPtr(1), intPtr(2)}

	t.Run("Passing submission issues a certificate", func(t *testing.T) {
		res, code := submitAttempt(t, "chidi@test.ecrmi.org", crs.ID, allCorrect)
		if res == nil {
			t.Fatalf("code = %v", code)
		}
		if res.Score != 100 || !res.Passed || res.CertificateCode == "" {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("Failing submission earns no certificate", func(t *testing.T) {
		res, code := submitAttempt(t, "lara@test.ecrmi.org", crs.ID, allWrong)
		if res == nil {
			t.Fatalf("code = %v", code)
		}
		if res.Score != 0 || res.Passed || res.CertificateCode != "" {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("Unknown course", func(t *testing.T) {
		_, code := submitAttempt(t, "chidi@test.ecrmi.org", "nope", allCorrect)
		if code != http.StatusNotFound {
			t.Errorf("code = %v; want %v", code, http.StatusNotFound)
		}
	})

	t.Run("Invalid email", func(t *testing.T) {
		_, code := submitAttempt(t, "not-an-email", crs.ID, allCorrect)
		if code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", code, http.StatusBadRequest)
		}
	})
}

func Test_attemptApi_cap(t *testing.T) {
	crs := seedCourse(t, "Compliance Essentials", 70, true)
	for i := 0; i < 4; i++ {
		seedQuestion(t, crs.ID, "Q", i)
	}
	allWrong := []*int{intPtr(3), intPtr(0), intPtr(1), intPtr(2)}
	email := "tunde@test.ecrmi.org"

	for i := 0; i < attempt.MaxAttempts; i++ {
		if _, code := submitAttempt(t, email, crs.ID, allWrong); code != http.StatusCreated {
			t.Fatalf("attempt %d: code = %v", i+1, code)
		}
	}

	t.Run("Attempts beyond the cap are rejected", func(t *testing.T) {
		body := marshallObj(t, attempt.Submission{
			ParticipantName:  "Tunde Bello",
			ParticipantEmail: email,
			CourseID:         crs.ID,
			Answers:          allWrong,
		})
		req, rec := newRequest(http.MethodPost, "/v1/attempts", body)
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "maximum attempts reached"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Status reflects the burned attempts", func(t *testing.T) {
		body := marshallObj(t, map[string]interface{}{"email": email, "course_ids": []string{crs.ID, "nope"}})
		req, rec := newRequest(http.MethodPost, "/v1/attempts/status", body)
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marshallObj(t, map[string]attempt.CourseStatus{
				crs.ID: {Attempts: attempt.MaxAttempts, Passed: false},
				"nope": {},
			}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Admin reset reopens the course", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"email": email, "course_id": crs.ID})
		req, rec := newAuthRequest(t, http.MethodPost, "/v1/admin/attempts/reset", body)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, map[string]bool{"success": true})}
		checkCodeAndData(t, tt, rec)

		if _, code := submitAttempt(t, email, crs.ID, allWrong); code != http.StatusCreated {
			t.Errorf("submit after reset: code = %v", code)
		}
	})

	t.Run("Reset requires auth", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/admin/attempts/reset",
			body:     marshallObj(t, map[string]string{"email": email, "course_id": crs.ID}),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		}
		checkCodeAndData(t, tt, do(t, tt))
	})
}
