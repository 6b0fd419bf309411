package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iypan/shiksha/core/giveaway"
	"github.com/iypan/shiksha/core/user"
	testutil "github.com/iypan/shiksha/tests"
)

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) giveaway.Result {
	t.Helper()
	var res giveaway.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling result: %v; body = %s", err, rec.Body.String())
	}
	return res
}

func TestGiveawayAccess(t *testing.T) {
	env := setup(t)

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
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/giveaway", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestGiveawaySubmitFlow(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	// first batch goes straight in and numbering starts above the floor
	body := []byte(`{"entries": [
		{"display_name": "Meena", "contact_email": "meena@test.test", "card_label": "EduPass"},
		{"display_name": "Ravi"}
	]}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/giveaway", token, body)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	res := decodeResult(t, rec)
	if res.Status != giveaway.ResultSuccess {
		t.Fatalf("status = %s; want %s", res.Status, giveaway.ResultSuccess)
	}
	if res.Inserted != 2 {
		t.Errorf("inserted = %d; want 2", res.Inserted)
	}
	if got := res.Accepted[0].ReferenceCode; got != "ISMLINO3860" {
		t.Errorf("reference code = %s; want ISMLINO3860", got)
	}

	// a repeated email is reported and nothing is written
	body = []byte(`{"entries": [
		{"display_name": "Meena2", "contact_email": "MEENA@test.test"},
		{"display_name": "Jaya", "contact_email": "jaya@test.test"}
	]}`)
	req, rec = newAuthRequest(http.MethodPost, "/v1/giveaway", token, body)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	res = decodeResult(t, rec)
	if res.Status != giveaway.ResultDuplicateFound {
		t.Fatalf("status = %s; want %s", res.Status, giveaway.ResultDuplicateFound)
	}
	if len(res.Duplicates) != 1 || res.Duplicates[0] != "MEENA@test.test" {
		t.Errorf("duplicates = %v; want the original casing reported", res.Duplicates)
	}

	// the operator confirms; exactly the shown accepted rows are committed
	confirmBody := marchallObj(t, struct {
		Entries []giveaway.Entry `json:"entries"`
	}{res.Accepted})
	req, rec = newAuthRequest(http.MethodPost, "/v1/giveaway/confirm", token, confirmBody)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	res = decodeResult(t, rec)
	if res.Status != giveaway.ResultSuccess || res.Inserted != 1 {
		t.Fatalf("confirm result = %+v; want 1 inserted", res)
	}

	// the listing now has all three entries
	req, rec = newAuthRequest(http.MethodGet, "/v1/giveaway", token)
	env.app.ServeHTTP(rec, req)

	var entries []giveaway.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshalling entries: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries = %d; want 3", len(entries))
	}
}

func TestGiveawayAddEntry(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	body := []byte(`{"display_name": "Solo", "contact_email": "solo@test.test"}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/giveaway/entry", token, body)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	res := decodeResult(t, rec)
	if res.Status != giveaway.ResultSuccess || res.Inserted != 1 {
		t.Fatalf("result = %+v; want 1 inserted", res)
	}

	// an invalid entry is rejected up front
	body = []byte(`{"display_name": "", "contact_email": "not-an-email"}`)
	req, rec = newAuthRequest(http.MethodPost, "/v1/giveaway/entry", token, body)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusBadRequest)
	}
}

func TestGiveawayUpload(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	csv := []byte("Name,Card,Place,Email\n" +
		"Meena,EduPass,Chennai,meena@test.test\n" +
		",EduPass,Chennai,broken@test.test\n" +
		"Ravi,ScholarPass,Madurai,\n")
	req, rec := newUploadRequest(t, "/v1/giveaway/upload", token, "sheet.csv", csv)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		giveaway.Result
		RowErrors []giveaway.RowError `json:"row_errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if resp.Status != giveaway.ResultSuccess || resp.Inserted != 2 {
		t.Errorf("result = %+v; want 2 inserted", resp.Result)
	}
	if len(resp.RowErrors) != 1 || resp.RowErrors[0].Line != 3 {
		t.Errorf("row errors = %+v; want line 3 reported", resp.RowErrors)
	}
}
