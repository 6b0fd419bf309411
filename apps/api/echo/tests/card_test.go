package tests

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/iypan/shiksha/core/card"
	"github.com/iypan/shiksha/core/user"
	testutil "github.com/iypan/shiksha/tests"
)

func sign(body []byte) string {
	mac := hmac.New(sha256.New, testConf.RazorpayWebhookSecret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

var capturedBody = []byte(`{
	"event": "payment.captured",
	"payload": {
		"payment": {
			"entity": {
				"id": "pay_123",
				"order_id": "order_456",
				"amount": 4900,
				"method": "upi",
				"vpa": "meena@upi",
				"email": "Meena@Test.Test",
				"contact": "+919800000001",
				"notes": {"full_name": "Meena K", "name_on_pass": "Meena", "city": "Chennai", "pin_code": "600001"},
				"acquirer_data": {"rrn": "112233445566"}
			}
		}
	}
}`)

func TestPaymentWebhook(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	t.Run("bad signature stores nothing", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/payments/webhook", capturedBody)
		req.Header.Set("X-Razorpay-Signature", "deadbeef")
		env.app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "webhook signature mismatch"}),
		}
		checkCodeAndData(t, tt, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/payments", token)
		env.app.ServeHTTP(rec, req)
		var payments []card.Payment
		if err := json.Unmarshal(rec.Body.Bytes(), &payments); err != nil {
			t.Fatalf("unmarshalling payments: %v", err)
		}
		if len(payments) != 0 {
			t.Errorf("payments = %d; want none", len(payments))
		}
	})

	t.Run("capture stores the payment and queues a card", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/payments/webhook", capturedBody)
		req.Header.Set("X-Razorpay-Signature", sign(capturedBody))
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/cards/pending", token)
		env.app.ServeHTTP(rec, req)
		var cards []card.GeneratedCard
		if err := json.Unmarshal(rec.Body.Bytes(), &cards); err != nil {
			t.Fatalf("unmarshalling cards: %v", err)
		}
		if len(cards) != 1 {
			t.Fatalf("pending cards = %d; want 1", len(cards))
		}
		gc := cards[0]
		if gc.Name != "Meena" {
			t.Errorf("name = %s; want the name on pass", gc.Name)
		}
		if gc.Email != "meena@test.test" {
			t.Errorf("email = %s; want it lowered", gc.Email)
		}
		if gc.CardName != card.PassEdu {
			t.Errorf("card = %s; want %s", gc.CardName, card.PassEdu)
		}
		if gc.Status != card.CardStatusGenerated {
			t.Errorf("status = %s; want %s", gc.Status, card.CardStatusGenerated)
		}
	})

	t.Run("other events are acknowledged and dropped", func(t *testing.T) {
		body := []byte(`{"event": "payment.failed", "payload": {"payment": {"entity": {"id": "pay_x", "amount": 4900}}}}`)
		req, rec := newRequest(http.MethodPost, "/v1/payments/webhook", body)
		req.Header.Set("X-Razorpay-Signature", sign(body))
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestActivationsUpload(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	csv := []byte("card no,card name,email\n" +
		"EC001,EduPass,a@test.test\n" +
		"EC002,ScholarPass,b@test.test\n" +
		",InfinitePass,missing@test.test\n")
	req, rec := newUploadRequest(t, "/v1/cards/activations/upload", token, "cards.csv", csv)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Imported  int             `json:"imported"`
		RowErrors []card.RowError `json:"row_errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if resp.Imported != 2 {
		t.Errorf("imported = %d; want 2", resp.Imported)
	}
	if len(resp.RowErrors) != 1 || resp.RowErrors[0].Line != 4 {
		t.Errorf("row errors = %+v; want line 4 reported", resp.RowErrors)
	}

	tt := httpTest{
		token:    token,
		wantCode: http.StatusOK,
		wantData: marchallObj(t, card.ActivationStats{Total: 2, Active: 0, Inactive: 2}),
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/cards/activations/stats", tt.token)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func TestEliteCards(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin1", "admin@test.test", "s3cret", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	body := []byte(`{"student_name": "Meena", "register_number": "REG-42", "card_number": "EC100", "card_type": "EduPass"}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/elite-cards", token, body)
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/elite-cards", token)
	env.app.ServeHTTP(rec, req)
	var cards []card.EliteCard
	if err := json.Unmarshal(rec.Body.Bytes(), &cards); err != nil {
		t.Fatalf("unmarshalling elite cards: %v", err)
	}
	if len(cards) != 1 || cards[0].CardNumber != "EC100" {
		t.Errorf("elite cards = %+v; want EC100", cards)
	}
}
