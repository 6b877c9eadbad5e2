package echoapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/ecrmi/institute/core/admin"
)

func Test_adminApi_login(t *testing.T) {
	tests := []httpTest{
		{
			name: "Wrong password", method: http.MethodPost, path: "/v1/admin/login",
			body:     marshallObj(t, map[string]string{"email": adminEmail, "password": "nope"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Unknown email", method: http.MethodPost, path: "/v1/admin/login",
			body:     marshallObj(t, map[string]string{"email": "nobody@test.ecrmi.org", "password": adminPassword}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(t, tt))
		})
	}

	t.Run("Valid credentials set the session cookie", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"email": adminEmail, "password": adminPassword})
		req, rec := newRequest(http.MethodPost, "/v1/admin/login", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var data map[string]string
		unmarshalBody(t, rec, &data)
		if data["email"] != adminEmail {
			t.Errorf("email = %q; want %q", data["email"], adminEmail)
		}

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == sessionCookieName {
				cookie = c
			}
		}
		if cookie == nil {
			t.Fatal("session cookie not set")
		}
		if !cookie.HttpOnly {
			t.Error("session cookie must be httpOnly")
		}
		if cookie.Value == "" {
			t.Error("session cookie is empty")
		}
	})
}

func Test_adminApi_session(t *testing.T) {
	tt := httpTest{
		name: "Auth required", path: "/v1/admin/me",
		wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
	}
	t.Run(tt.name, func(t *testing.T) {
		checkCodeAndData(t, tt, do(t, tt))
	})

	t.Run("Me", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/v1/admin/me")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var adm admin.Admin
		unmarshalBody(t, rec, &adm)
		if adm.Email != adminEmail {
			t.Errorf("email = %q; want %q", adm.Email, adminEmail)
		}
		if strings.Contains(strings.ToLower(rec.Body.String()), "password") {
			t.Error("response leaks password material")
		}
	})

	t.Run("Logout expires the cookie", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodPost, "/v1/admin/logout")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == sessionCookieName {
				cookie = c
			}
		}
		if cookie == nil {
			t.Fatal("expired session cookie not set")
		}
		if cookie.MaxAge >= 0 || cookie.Value != "" {
			t.Errorf("cookie not expired: MaxAge = %v; Value = %q", cookie.MaxAge, cookie.Value)
		}
	})
}

func Test_adminApi_updateSettings(t *testing.T) {
	tt := httpTest{
		name: "Wrong current password", method: http.MethodPut, path: "/v1/admin/settings", auth: true,
		body:     marshallObj(t, map[string]string{"current_password": "nope"}),
		wantCode: http.StatusBadRequest,
		wantData: marshallObj(t, map[string]string{"current_password": "current password is incorrect"}),
	}
	t.Run(tt.name, func(t *testing.T) {
		checkCodeAndData(t, tt, do(t, tt))
	})
}

func Test_adminApi_dashboard(t *testing.T) {
	tt := httpTest{
		name: "Auth required", path: "/v1/admin/dashboard",
		wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
	}
	t.Run(tt.name, func(t *testing.T) {
		checkCodeAndData(t, tt, do(t, tt))
	})

	t.Run("Dashboard", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/v1/admin/dashboard")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var dash admin.Dashboard
		unmarshalBody(t, rec, &dash)
	})
}
