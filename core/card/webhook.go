package card

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

var (
	// ErrSignatureMismatch rejects a webhook delivery whose signature does not
	// verify against the shared secret. Nothing is stored for such deliveries.
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
)

// eventPaymentCaptured is the only gateway event acted upon; every other
// event type is acknowledged and dropped.
const eventPaymentCaptured = "payment.captured"

type (
	webhookEvent struct {
		Event   string         `json:"event"`
		Payload webhookPayload `json:"payload"`
	}

	webhookPayload struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
	}

	paymentEntity struct {
		ID           string            `json:"id"`
		OrderID      string            `json:"order_id"`
		Amount       int               `json:"amount"` // paise
		Method       string            `json:"method"`
		VPA          string            `json:"vpa"`
		Email        string            `json:"email"`
		Contact      string            `json:"contact"`
		Notes        map[string]string `json:"notes"`
		AcquirerData map[string]string `json:"acquirer_data"`
	}
)

// VerifySignature checks the gateway's HMAC-SHA256 hex signature over the raw
// request body. The comparison is constant-time.
func VerifySignature(secret, body []byte, signature string) error {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

func decodeWebhook(body []byte) (webhookEvent, error) {
	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return webhookEvent{}, errors.Wrap(err, "decoding webhook payload")
	}
	return event, nil
}
