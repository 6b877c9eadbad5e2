package echoapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/ecrmi/institute/core/course"
)

func seedCourse(t *testing.T, title string, passMark int, active bool) course.Course {
	t.Helper()
	crs, err := courseSvc.Create(context.Background(), course.NewCourse{
		Title:    title,
		PassMark: passMark,
		IsActive: boolPtr(active),
	})
	if err != nil {
		t.Fatalf("seedCourse(): %v", err)
	}
	return crs
}

func seedQuestion(t *testing.T, courseID, text string, correct int) course.Question {
	t.Helper()
	qst, err := courseSvc.AddQuestion(context.Background(), courseID, course.NewQuestion{
		Text:          text,
		Options:       []string{"A", "B", "C", "D"},
		CorrectOption: correct,
	})
	if err != nil {
		t.Fatalf("seedQuestion(): %v", err)
	}
	return qst
}

func Test_courseApi_public(t *testing.T) {
	active := seedCourse(t, "Operational Risk Management", 70, true)
	inactive := seedCourse(t, "Retired Course", 70, false)
	seedQuestion(t, active.ID, "What is operational risk?", 2)

	t.Run("Listing omits inactive courses", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var courses []course.Course
		unmarshalBody(t, rec, &courses)

		seen := make(map[string]bool, len(courses))
		for _, c := range courses {
			if !c.IsActive {
				t.Errorf("inactive course %q in public listing", c.Title)
			}
			seen[c.ID] = true
		}
		if !seen[active.ID] {
			t.Error("active course missing from public listing")
		}
		if seen[inactive.ID] {
			t.Error("inactive course in public listing")
		}
	})

	t.Run("Retrieve", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/"+active.ID)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var crs course.Course
		unmarshalBody(t, rec, &crs)
		if crs.Title != active.Title {
			t.Errorf("title = %q; want %q", crs.Title, active.Title)
		}
	})

	tt := httpTest{
		name: "Retrieve unknown", path: "/v1/courses/nope",
		wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "course not found"}),
	}
	t.Run(tt.name, func(t *testing.T) {
		checkCodeAndData(t, tt, do(t, tt))
	})

	t.Run("Questions hide the answer key", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/"+active.ID+"/questions")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		if !strings.Contains(body, "options") {
			t.Error("questions missing options")
		}
		if strings.Contains(body, "correct_option") {
			t.Error("public questions leak the answer key")
		}
	})
}

func Test_courseApi_admin(t *testing.T) {
	tests := []httpTest{
		{
			name: "Create requires auth", method: http.MethodPost, path: "/v1/admin/courses",
			body:     marshallObj(t, course.NewCourse{Title: "X"}),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
		{
			name: "Listing requires auth", path: "/v1/admin/courses",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(t, tt))
		})
	}

	t.Run("Create", func(t *testing.T) {
		body := marshallObj(t, course.NewCourse{Title: "Credit Risk Analysis", PassMark: 60})
		req, rec := newAuthRequest(t, http.MethodPost, "/v1/admin/courses", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var crs course.Course
		unmarshalBody(t, rec, &crs)
		if crs.ID == "" || crs.Title != "Credit Risk Analysis" || !crs.IsActive {
			t.Errorf("unexpected course: %+v", crs)
		}
	})

	t.Run("Create without title fails", func(t *testing.T) {
		body := marshallObj(t, course.NewCourse{PassMark: 60})
		req, rec := newAuthRequest(t, http.MethodPost, "/v1/admin/courses", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("Admin questions include the answer key", func(t *testing.T) {
		crs := seedCourse(t, "Market Risk", 70, true)
		seedQuestion(t, crs.ID, "What is VaR?", 1)

		req, rec := newAuthRequest(t, http.MethodGet, "/v1/admin/courses/"+crs.ID+"/questions")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "correct_option") {
			t.Error("admin questions missing the answer key")
		}
	})

	t.Run("Update and delete", func(t *testing.T) {
		crs := seedCourse(t, "Liquidity Risk", 70, true)

		body := marshallObj(t, map[string]interface{}{"is_active": false})
		req, rec := newAuthRequest(t, http.MethodPut, "/v1/admin/courses/"+crs.ID, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("update: code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var updated course.Course
		unmarshalBody(t, rec, &updated)
		if updated.IsActive {
			t.Error("course still active after update")
		}

		req, rec = newAuthRequest(t, http.MethodDelete, "/v1/admin/courses/"+crs.ID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete: code = %v; body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newRequest(http.MethodGet, "/v1/courses/"+crs.ID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("get after delete: code = %v; want %v", rec.Code, http.StatusNotFound)
		}
	})
}
