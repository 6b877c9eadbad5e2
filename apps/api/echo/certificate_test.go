package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/ecrmi/institute/core/certificate"
)

func Test_certificateApi(t *testing.T) {
	cert, err := certSvc.Issue(context.Background(), "Zina Okafor", "zina@test.ecrmi.org", "crs-cert", "Risk Reporting", 88)
	if err != nil {
		t.Fatalf("certSvc.Issue(): %v", err)
	}

	tests := []httpTest{
		{
			name: "Verify", path: "/v1/certificates/" + cert.Code + "/verify",
			wantCode: http.StatusOK,
			wantData: marshallObj(t, certVerification{
				Valid:           true,
				ParticipantName: "Zina Okafor",
				CourseTitle:     "Risk Reporting",
				Score:           88,
				IssuedAt:        cert.IssuedAt.Format("2006-01-02"),
			}),
		},
		{
			name: "Verify unknown code", path: "/v1/certificates/FFFFFFFFFFFF/verify",
			wantCode: http.StatusOK, wantData: marshallObj(t, certVerification{Valid: false}),
		},
		{
			name: "Listing requires an email", path: "/v1/certificates",
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": "email is required"}),
		},
		{
			name: "Download unknown code", path: "/v1/certificates/FFFFFFFFFFFF",
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "certificate not found"}),
		},
		{
			name: "Admin listing requires auth", path: "/v1/admin/certificates",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(t, tt))
		})
	}

	t.Run("Listing by email", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/certificates?email=ZINA@test.ecrmi.org")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var certs []certificate.Certificate
		unmarshalBody(t, rec, &certs)
		if len(certs) != 1 || certs[0].Code != cert.Code {
			t.Errorf("unexpected listing: %+v", certs)
		}
	})

	t.Run("Download", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/certificates/"+cert.Code)
		app.ServeHTTP(rec, req)

		checkPDF(t, rec)
		want := `attachment; filename="certificate-` + cert.Code + `.pdf"`
		if got := rec.Header().Get("Content-Disposition"); got != want {
			t.Errorf("Content-Disposition = %q; want %q", got, want)
		}
	})

	t.Run("Admin revoke", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodDelete, "/v1/admin/certificates/"+cert.Code)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}

		tt := httpTest{
			path:     "/v1/certificates/" + cert.Code + "/verify",
			wantCode: http.StatusOK, wantData: marshallObj(t, certVerification{Valid: false}),
		}
		checkCodeAndData(t, tt, do(t, tt))
	})
}
