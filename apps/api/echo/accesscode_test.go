package echoapi

import (
	"net/http"
	"testing"

	"github.com/ecrmi/institute/core/accesscode"
)

func consumeBody(t *testing.T, code, courseID, email string) []byte {
	t.Helper()
	return marshallObj(t, map[string]string{"code": code, "course_id": courseID, "email": email})
}

func Test_accessCodeApi(t *testing.T) {
	const courseID = "crs-codes"

	var codes []accesscode.AccessCode

	t.Run("Generate requires auth", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/admin/access-codes",
			body:     marshallObj(t, map[string]interface{}{"course_id": courseID, "count": 2}),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		}
		checkCodeAndData(t, tt, do(t, tt))
	})

	t.Run("Generate", func(t *testing.T) {
		body := marshallObj(t, map[string]interface{}{"course_id": courseID, "count": 2})
		req, rec := newAuthRequest(t, http.MethodPost, "/v1/admin/access-codes", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		unmarshalBody(t, rec, &codes)
		if len(codes) != 2 {
			t.Fatalf("got %d codes; want 2", len(codes))
		}
		for _, ac := range codes {
			if len(ac.Code) != 8 || ac.Status != accesscode.StatusUnused {
				t.Errorf("unexpected code: %+v", ac)
			}
		}
	})
	if len(codes) != 2 {
		t.Fatal("generation failed; aborting")
	}

	t.Run("Consume", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/access-codes/consume",
			body:     consumeBody(t, codes[0].Code, courseID, "dayo@test.ecrmi.org"),
			wantCode: http.StatusOK, wantData: marshallObj(t, map[string]bool{"success": true}),
		}
		checkCodeAndData(t, tt, do(t, tt))
	})

	tests := []httpTest{
		{
			name: "Same email may re-enter", method: http.MethodPost, path: "/v1/access-codes/consume",
			body:     consumeBody(t, codes[0].Code, courseID, "dayo@test.ecrmi.org"),
			wantCode: http.StatusOK, wantData: marshallObj(t, map[string]bool{"success": true}),
		},
		{
			name: "Used code rejects other emails", method: http.MethodPost, path: "/v1/access-codes/consume",
			body:     consumeBody(t, codes[0].Code, courseID, "femi@test.ecrmi.org"),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "access code already used"}),
		},
		{
			name: "Unknown code", method: http.MethodPost, path: "/v1/access-codes/consume",
			body:     consumeBody(t, "ZZZZZZZZ", courseID, "dayo@test.ecrmi.org"),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "invalid access code"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(t, tt))
		})
	}

	t.Run("Query by course", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/v1/admin/access-codes?course_id="+courseID)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var got []accesscode.AccessCode
		unmarshalBody(t, rec, &got)
		if len(got) != 2 {
			t.Errorf("got %d codes; want 2", len(got))
		}
	})

	t.Run("Used codes cannot be deleted", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodDelete, path: "/v1/admin/access-codes/" + codes[0].ID, auth: true,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "access code not found"}),
		}
		checkCodeAndData(t, tt, do(t, tt))
	})

	t.Run("Unused codes delete cleanly", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodDelete, "/v1/admin/access-codes/"+codes[1].ID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}
