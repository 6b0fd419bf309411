package tests

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/iypan/shiksha/core/user"
	testutil "github.com/iypan/shiksha/tests"
)

func TestUserLogin(t *testing.T) {
	env := setup(t)

	testutil.CreateUser(t, env.usrRepo, "Meena", "meena", "meena@test.test", "s3cret", nil, true)
	testutil.CreateUser(t, env.usrRepo, "Gone", "gone", "gone@test.test", "s3cret", nil, false)

	t.Run("success", func(t *testing.T) {
		body := []byte(`{"username": "meena", "password": "s3cret"}`)
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Token == "" {
			t.Error("expected a token")
		}
	})

	tests := []httpTest{
		{
			name:     "wrong password",
			body:     []byte(`{"username": "meena", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown user",
			body:     []byte(`{"username": "who", "password": "s3cret"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     []byte(`{"username": "gone", "password": "s3cret"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUserQuery(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, env.usrRepo, "Student", "student1", "student@test.test", "s3cret", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{
			name:     "anonymous is rejected",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "student is forbidden",
			token:    getToken(t, student),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "admin lists all users",
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallList(t, admin, student),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users?ordering=username", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUserQueryRoles(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)

	tt := httpTest{
		token:    getToken(t, admin),
		wantCode: http.StatusOK,
		wantData: marchallObj(t, user.Roles),
	}
	req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", tt.token)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func TestUserRetrieve(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, env.usrRepo, "Student", "student1", "student@test.test", "s3cret", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{
			name:     "student retrieves self",
			path:     "/v1/users/" + strconv.Itoa(student.ID),
			token:    getToken(t, student),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, student),
		},
		{
			name:     "student cannot see others",
			path:     "/v1/users/" + strconv.Itoa(admin.ID),
			token:    getToken(t, student),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "admin retrieves anyone",
			path:     "/v1/users/" + strconv.Itoa(student.ID),
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, student),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUserTokenRefresh(t *testing.T) {
	env := setup(t)

	usr := testutil.CreateUser(t, env.usrRepo, "Meena", "meena", "meena@test.test", "s3cret", nil, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a refreshed token")
	}
}
