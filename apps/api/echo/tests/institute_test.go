package tests

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/iypan/shiksha/core/institute"
	"github.com/iypan/shiksha/core/user"
	testutil "github.com/iypan/shiksha/tests"
)

func TestInstituteListings(t *testing.T) {
	env := setup(t)

	usr := testutil.CreateUser(t, env.usrRepo, "Meena", "meena", "meena@test.test", "s3cret", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)

	// shallow listings return an empty array, never null
	empty := []byte(`[]`)
	tests := []httpTest{
		{name: "states", path: "/v1/states", token: getToken(t, usr), wantCode: http.StatusOK, wantData: empty},
		{name: "centers", path: "/v1/centers", token: getToken(t, usr), wantCode: http.StatusOK, wantData: empty},
		{name: "batches", path: "/v1/batches", token: getToken(t, usr), wantCode: http.StatusOK, wantData: empty},
		{name: "courses", path: "/v1/courses", token: getToken(t, usr), wantCode: http.StatusOK, wantData: empty},
		{name: "teachers", path: "/v1/teachers", token: getToken(t, usr), wantCode: http.StatusOK, wantData: empty},
		{name: "students", path: "/v1/students", token: getToken(t, usr), wantCode: http.StatusOK, wantData: empty},
		{name: "enrollments", path: "/v1/enrollments", token: getToken(t, usr), wantCode: http.StatusOK, wantData: empty},
		{name: "coordinators", path: "/v1/coordinators", token: getToken(t, usr), wantCode: http.StatusOK, wantData: empty},
		{name: "managers", path: "/v1/managers", token: getToken(t, admin), wantCode: http.StatusOK, wantData: empty},
		{name: "transactions", path: "/v1/transactions", token: getToken(t, admin), wantCode: http.StatusOK, wantData: empty},
		{name: "financial partners", path: "/v1/financial-partners", token: getToken(t, admin), wantCode: http.StatusOK, wantData: empty},
		{
			name:     "managers are back office only",
			path:     "/v1/managers",
			token:    getToken(t, usr),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "unknown state",
			path:     "/v1/states/99",
			token:    getToken(t, usr),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "non-numeric id",
			path:     "/v1/centers/abc",
			token:    getToken(t, usr),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
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

func TestLeadFunnel(t *testing.T) {
	env := setup(t)

	caller := testutil.CreateUser(t, env.usrRepo, "Caller", "caller1", "caller@test.test", "s3cret", nil, true)
	token := getToken(t, caller)

	// a new lead starts at the top of the funnel, owned by the caller
	body := []byte(`{"name": "Ravi", "phone": "+919800000002", "course": "French", "source": "Website"}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/leads", token, body)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var lead institute.Lead
	if err := json.Unmarshal(rec.Body.Bytes(), &lead); err != nil {
		t.Fatalf("unmarshalling lead: %v", err)
	}
	if lead.Status != institute.LeadStatusDataEntry {
		t.Errorf("status = %s; want %s", lead.Status, institute.LeadStatusDataEntry)
	}
	if lead.UserID != caller.ID {
		t.Errorf("user id = %d; want the caller's %d", lead.UserID, caller.ID)
	}

	t.Run("unknown course is rejected", func(t *testing.T) {
		body := []byte(`{"name": "Ravi", "phone": "+919800000002", "course": "Klingon", "source": "Website"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/leads", token, body)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("caller sees own leads", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/leads", token)
		env.app.ServeHTTP(rec, req)

		var leads []institute.Lead
		if err := json.Unmarshal(rec.Body.Bytes(), &leads); err != nil {
			t.Fatalf("unmarshalling leads: %v", err)
		}
		if len(leads) != 1 {
			t.Errorf("leads = %d; want 1", len(leads))
		}
	})

	t.Run("other callers see nothing", func(t *testing.T) {
		other := testutil.CreateUser(t, env.usrRepo, "Other", "other1", "other@test.test", "s3cret", nil, true)
		req, rec := newAuthRequest(http.MethodGet, "/v1/leads", getToken(t, other))
		env.app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("status moves along the funnel", func(t *testing.T) {
		body := []byte(`{"status": "interested", "remark": "call back friday"}`)
		req, rec := newAuthRequest(http.MethodPatch, "/v1/leads/"+strconv.Itoa(lead.LeadID)+"/status", token, body)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var updated institute.Lead
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling lead: %v", err)
		}
		if updated.Status != "interested" {
			t.Errorf("status = %s; want interested", updated.Status)
		}
		if !updated.Remark.Valid || updated.Remark.String != "call back friday" {
			t.Errorf("remark = %v; want it replaced", updated.Remark)
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		body := []byte(`{"status": "teleported"}`)
		req, rec := newAuthRequest(http.MethodPatch, "/v1/leads/"+strconv.Itoa(lead.LeadID)+"/status", token, body)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown lead", func(t *testing.T) {
		body := []byte(`{"status": "interested"}`)
		req, rec := newAuthRequest(http.MethodPatch, "/v1/leads/999/status", token, body)
		env.app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		}
		checkCodeAndData(t, tt, rec)
	})
}

func TestInfluencerRegistration(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)

	// registration is public and numbering starts above the floor
	body := []byte(`{"name": "Priya", "email": "Priya@Test.Test", "phone": "+919800000003"}`)
	req, rec := newRequest(http.MethodPost, "/v1/influencers/register", body)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var inf institute.Influencer
	if err := json.Unmarshal(rec.Body.Bytes(), &inf); err != nil {
		t.Fatalf("unmarshalling influencer: %v", err)
	}
	if inf.InfluencerID != "ismlinflu101" {
		t.Errorf("influencer id = %s; want ismlinflu101", inf.InfluencerID)
	}
	if inf.Email != "priya@test.test" {
		t.Errorf("email = %s; want it lowered", inf.Email)
	}

	t.Run("email is unique", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/influencers/register", body)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("listing is back office only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/influencers", "")
		env.app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("count", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/influencers/count", getToken(t, admin))
		env.app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: []byte(`{"count": 1}`)}
		checkCodeAndData(t, tt, rec)
	})
}
