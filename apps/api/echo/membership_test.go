package echoapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/ecrmi/institute/core/membership"
)

func fileApplication(t *testing.T, name, email, requestedType string) membership.Application {
	t.Helper()
	body := marshallObj(t, membership.NewApplication{
		Name:          name,
		Email:         email,
		Organization:  "Test Bank Plc",
		RequestedType: requestedType,
	})
	req, rec := newRequest(http.MethodPost, "/v1/membership/apply", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("apply: code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var ma membership.Application
	unmarshalBody(t, rec, &ma)
	return ma
}

func Test_membershipApi_apply(t *testing.T) {
	ma := fileApplication(t, "Ngozi Ude", "ngozi@test.ecrmi.org", "Associate Member")

	if ma.ID == "" || ma.Status != membership.StatusPending {
		t.Errorf("unexpected application: %+v", ma)
	}
	if !ma.ReviewedAt.IsZero() {
		t.Error("fresh application must not carry a review date")
	}

	t.Run("Status by email", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/membership/status?lookup=ngozi@test.ecrmi.org")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res membership.LookupResult
		unmarshalBody(t, rec, &res)
		if res.Application == nil || res.Application.ID != ma.ID {
			t.Errorf("unexpected lookup result: %+v", res)
		}
		if res.Member != nil {
			t.Error("pending applicant must not resolve to a member")
		}
	})

	tests := []httpTest{
		{
			name: "Status requires a lookup", path: "/v1/membership/status",
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"lookup": "lookup is required"}),
		},
		{
			name: "Status for unknown lookup", path: "/v1/membership/status?lookup=nobody@test.ecrmi.org",
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "application not found"}),
		},
		{
			name: "Admin listing requires auth", path: "/v1/admin/memberships",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(t, tt))
		})
	}
}

func Test_membershipApi_review(t *testing.T) {
	ma := fileApplication(t, "Emeka Obi", "emeka@test.ecrmi.org", "Associate Member")

	var mbr membership.Member

	t.Run("Approve", func(t *testing.T) {
		body := marshallObj(t, membership.Decision{Action: "approve"})
		req, rec := newAuthRequest(t, http.MethodPost, "/v1/admin/memberships/"+ma.ID, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res struct {
			Application membership.Application `json:"application"`
			Member      membership.Member      `json:"member"`
		}
		unmarshalBody(t, rec, &res)

		if res.Application.Status != membership.StatusApproved || res.Application.ReviewedAt.IsZero() {
			t.Errorf("unexpected application: %+v", res.Application)
		}
		if !strings.HasPrefix(res.Member.CertificateID, "ECRMI-A-") {
			t.Errorf("certificate id = %q; want ECRMI-A- prefix", res.Member.CertificateID)
		}
		mbr = res.Member
	})
	if mbr.CertificateID == "" {
		t.Fatal("approval did not project a member")
	}

	t.Run("Verify by certificate id", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/membership/verify/"+mbr.CertificateID)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res membership.Verification
		unmarshalBody(t, rec, &res)
		if !res.Valid || res.Name != "Emeka Obi" || res.MembershipType != "Associate Member" {
			t.Errorf("unexpected verification: %+v", res)
		}
	})

	t.Run("Verify unknown certificate id", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/membership/verify/ECRMI-A-0000")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res membership.Verification
		unmarshalBody(t, rec, &res)
		if res.Valid {
			t.Error("unknown certificate id must not verify")
		}
	})

	t.Run("Certificate download", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/membership/download/"+mbr.CertificateID)
		app.ServeHTTP(rec, req)
		checkPDF(t, rec)
	})

	t.Run("Admission letter", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/membership/letter/"+mbr.CertificateID)
		app.ServeHTTP(rec, req)
		checkPDF(t, rec)
	})

	t.Run("Reject", func(t *testing.T) {
		rejected := fileApplication(t, "Sade Alao", "sade@test.ecrmi.org", "Fellowship")

		body := marshallObj(t, membership.Decision{Action: "reject", AdminNotes: "incomplete documents"})
		req, rec := newAuthRequest(t, http.MethodPost, "/v1/admin/memberships/"+rejected.ID, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res struct {
			Application membership.Application `json:"application"`
			Member      *membership.Member     `json:"member"`
		}
		unmarshalBody(t, rec, &res)
		if res.Application.Status != membership.StatusRejected || res.Application.AdminNotes != "incomplete documents" {
			t.Errorf("unexpected application: %+v", res.Application)
		}
		if res.Member != nil {
			t.Error("rejection must not project a member")
		}
	})

	t.Run("Invalid action", func(t *testing.T) {
		body := marshallObj(t, membership.Decision{Action: "maybe"})
		req, rec := newAuthRequest(t, http.MethodPost, "/v1/admin/memberships/"+ma.ID, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("Review unknown application", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/admin/memberships/nope", auth: true,
			body:     marshallObj(t, membership.Decision{Action: "approve"}),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "application not found"}),
		}
		checkCodeAndData(t, tt, do(t, tt))
	})
}

func Test_membershipApi_exports(t *testing.T) {
	fileApplication(t, "Bola Ade", "bola@test.ecrmi.org", "Technical Member")

	t.Run("Members export", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/v1/admin/memberships/export")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("Content-Type = %q; want text/csv", ct)
		}
		if !strings.Contains(rec.Body.String(), "name") {
			t.Error("export missing the header row")
		}
	})

	t.Run("Applications export", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/v1/admin/memberships/applications/export")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "bola@test.ecrmi.org") {
			t.Error("export missing the filed application")
		}
	})

	t.Run("Import and undo", func(t *testing.T) {
		csv := "name,email,phone,job_title,organization,membership_type,certificate_id\n" +
			"Kemi Ojo,kemi@test.ecrmi.org,,Risk Analyst,Test Bank Plc,Fellowship,\n"
		req, rec := newAuthRequest(t, http.MethodPost, "/v1/admin/memberships/import", []byte(csv))
		req.Header.Set("Content-Type", "text/csv")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("import: code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var report membership.ImportReport
		unmarshalBody(t, rec, &report)
		if report.Created != 1 || report.Skipped != 0 {
			t.Fatalf("unexpected report: %+v", report)
		}

		undo := marshallObj(t, map[string][]string{"ids": report.CreatedIDs})
		req, rec = newAuthRequest(t, http.MethodPost, "/v1/admin/memberships/import/undo", undo)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, map[string]bool{"success": true})}
		checkCodeAndData(t, tt, rec)

		req, rec = newRequest(http.MethodGet, "/v1/membership/status?lookup=kemi@test.ecrmi.org")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status after undo: code = %v; want %v", rec.Code, http.StatusNotFound)
		}
	})
}
