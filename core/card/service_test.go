package card

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iypan/shiksha/core"
)

// fakeRepository is an in-memory card.Repository for service tests.
type fakeRepository struct {
	mu          sync.Mutex
	payments    []Payment
	cards       map[uuid.UUID]*GeneratedCard
	activations []Activation
	eliteCards  []EliteCard
	updates     int
}

var _ Repository = (*fakeRepository)(nil)

func newFakeRepository() *fakeRepository {
	return &fakeRepository{cards: make(map[uuid.UUID]*GeneratedCard)}
}

func (repo *fakeRepository) CreatePayment(ctx context.Context, pmt Payment) (Payment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.payments = append(repo.payments, pmt)
	return pmt, nil
}

func (repo *fakeRepository) QueryAllPayments(ctx context.Context) ([]Payment, error) {
	return repo.payments, nil
}

func (repo *fakeRepository) CreateGeneratedCard(ctx context.Context, gc GeneratedCard) (GeneratedCard, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.cards[gc.ID] = &gc
	return gc, nil
}

func (repo *fakeRepository) GetGeneratedCardByID(ctx context.Context, id uuid.UUID) (GeneratedCard, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if gc, ok := repo.cards[id]; ok {
		return *gc, nil
	}
	return GeneratedCard{}, ErrNotFound
}

func (repo *fakeRepository) QueryPendingCards(ctx context.Context) ([]GeneratedCard, error) {
	return repo.byStatus(CardStatusGenerated), nil
}

func (repo *fakeRepository) QueryApprovedCards(ctx context.Context) ([]GeneratedCard, error) {
	return repo.byStatus(CardStatusApproved), nil
}

func (repo *fakeRepository) UpdateGeneratedCard(ctx context.Context, gc GeneratedCard) (GeneratedCard, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.cards[gc.ID]; !ok {
		return GeneratedCard{}, ErrNotFound
	}
	repo.cards[gc.ID] = &gc
	repo.updates++
	return gc, nil
}

func (repo *fakeRepository) CreateActivations(ctx context.Context, acts []Activation) (int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.activations = append(repo.activations, acts...)
	return len(acts), nil
}

func (repo *fakeRepository) QueryAllActivations(ctx context.Context) ([]Activation, error) {
	return repo.activations, nil
}

func (repo *fakeRepository) CountActivations(ctx context.Context) (ActivationStats, error) {
	var stats ActivationStats
	for _, act := range repo.activations {
		stats.Total++
		if act.Active {
			stats.Active++
		} else {
			stats.Inactive++
		}
	}
	return stats, nil
}

func (repo *fakeRepository) QueryRecentInactiveActivations(ctx context.Context, limit int) ([]Activation, error) {
	var acts []Activation
	for i := len(repo.activations) - 1; i >= 0 && len(acts) < limit; i-- {
		if !repo.activations[i].Active {
			acts = append(acts, repo.activations[i])
		}
	}
	return acts, nil
}

func (repo *fakeRepository) CreateEliteCard(ctx context.Context, ec EliteCard) (EliteCard, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	ec.ID = len(repo.eliteCards) + 1
	repo.eliteCards = append(repo.eliteCards, ec)
	return ec, nil
}

func (repo *fakeRepository) QueryAllEliteCards(ctx context.Context) ([]EliteCard, error) {
	return repo.eliteCards, nil
}

func (repo *fakeRepository) byStatus(status string) []GeneratedCard {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var cards []GeneratedCard
	for _, gc := range repo.cards {
		if gc.Status == status {
			cards = append(cards, *gc)
		}
	}
	return cards
}

// mailRecorder records messages synchronously.
type mailRecorder struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
}

var _ core.EmailService = (*mailRecorder)(nil)

func (rec *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.messages = append(rec.messages, messages...)
}

var testSecret = []byte("whsec_test")

func newTestService(repo Repository, mailSvc core.EmailService) *Service {
	conf := new(core.Config)
	conf.RazorpayWebhookSecret = testSecret
	conf.EliteCard.SupportEmail = "support@test.test"
	conf.EliteCard.SupportPhone = "0000000000"

	logger := log.New(ioutil.Discard, "", 0)
	return NewService(conf, repo, mailSvc, testLogger{logger})
}

type testLogger struct{ std *log.Logger }

func (l testLogger) Enable(enabled bool)                   {}
func (l testLogger) Debug(msg string, args ...interface{}) { l.std.Println(msg) }
func (l testLogger) Info(msg string, args ...interface{})  { l.std.Println(msg) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.std.Println(msg) }
func (l testLogger) Error(msg string, args ...interface{}) { l.std.Println(msg) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.std.Fatal(msg) }

func sign(body []byte) string {
	mac := hmac.New(sha256.New, testSecret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedBody(amountPaise int) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_123",
					"order_id": "order_456",
					"amount": %d,
					"method": "upi",
					"vpa": "meena@upi",
					"email": "Meena@Test.Test",
					"contact": "+919800000001",
					"notes": {"full_name": "Meena R", "name_on_pass": "Meena", "city": "Chennai", "pin_code": "600001"},
					"acquirer_data": {"rrn": "1234567890"}
				}
			}
		}
	}`, amountPaise))
}

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a bad signature before reading the body", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, new(mailRecorder))

		body := capturedBody(4900)
		err := svc.HandleWebhook(ctx, body, "deadbeef")
		assert.Equal(t, ErrSignatureMismatch, err)
		assert.Empty(t, repo.payments)
		assert.Empty(t, repo.cards)
	})

	t.Run("stores a captured payment and generates a card", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, new(mailRecorder))

		body := capturedBody(4900)
		require.NoError(t, svc.HandleWebhook(ctx, body, sign(body)))

		require.Len(t, repo.payments, 1)
		pmt := repo.payments[0]
		assert.Equal(t, "pay_123", pmt.PaymentID)
		assert.Equal(t, 49, pmt.Amount)
		assert.Equal(t, PassEdu, pmt.CardName)
		assert.Equal(t, "meena@test.test", pmt.Email)
		assert.Equal(t, "1234567890", pmt.BankRRN.String)

		cards, err := svc.PendingCards(ctx)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, "Meena", cards[0].Name)
		assert.Equal(t, CardStatusGenerated, cards[0].Status)
	})

	t.Run("amount to pass mapping", func(t *testing.T) {
		tests := []struct {
			paise int
			pass  string
		}{
			{4900, PassEdu},
			{29900, PassScholar},
			{49900, PassInfinite},
		}
		for _, tt := range tests {
			repo := newFakeRepository()
			svc := newTestService(repo, new(mailRecorder))

			body := capturedBody(tt.paise)
			require.NoError(t, svc.HandleWebhook(ctx, body, sign(body)))
			require.Len(t, repo.payments, 1)
			assert.Equal(t, tt.pass, repo.payments[0].CardName)
		}
	})

	t.Run("unknown amount acknowledged but not stored", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, new(mailRecorder))

		body := capturedBody(10000)
		require.NoError(t, svc.HandleWebhook(ctx, body, sign(body)))
		assert.Empty(t, repo.payments)
	})

	t.Run("other events acknowledged but not stored", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, new(mailRecorder))

		body := []byte(`{"event": "payment.failed", "payload": {"payment": {"entity": {"id": "pay_123", "amount": 4900}}}}`)
		require.NoError(t, svc.HandleWebhook(ctx, body, sign(body)))
		assert.Empty(t, repo.payments)
	})
}

func TestApproveRejectCard(t *testing.T) {
	ctx := context.Background()

	seedCard := func(repo *fakeRepository) GeneratedCard {
		gc := GeneratedCard{
			ID:        uuid.New(),
			PaymentID: "pay_123",
			Name:      "Meena",
			Email:     "meena@test.test",
			CardName:  PassEdu,
			Status:    CardStatusGenerated,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		_, err := repo.CreateGeneratedCard(ctx, gc)
		require.NoError(t, err)
		return gc
	}

	origFetch := fetchAttachmentFunc
	fetchAttachmentFunc = func(url string) (io.ReadCloser, error) {
		return ioutil.NopCloser(bytes.NewReader([]byte("%PDF-1.4 fake"))), nil
	}
	defer func() { fetchAttachmentFunc = origFetch }()

	t.Run("approval updates status and mails the pass", func(t *testing.T) {
		repo := newFakeRepository()
		rec := new(mailRecorder)
		svc := newTestService(repo, rec)
		gc := seedCard(repo)

		approved, err := svc.ApproveCard(ctx, gc.ID, "https://cards.test/meena.pdf")
		require.NoError(t, err)
		assert.Equal(t, CardStatusApproved, approved.Status)
		assert.Equal(t, "https://cards.test/meena.pdf", approved.CardURL.String)

		require.Len(t, rec.messages, 1)
		msg := rec.messages[0]
		assert.Equal(t, "card-edupass", msg.TemplateName)
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	})

	t.Run("approval is idempotent", func(t *testing.T) {
		repo := newFakeRepository()
		rec := new(mailRecorder)
		svc := newTestService(repo, rec)
		gc := seedCard(repo)

		_, err := svc.ApproveCard(ctx, gc.ID, "https://cards.test/meena.pdf")
		require.NoError(t, err)
		_, err = svc.ApproveCard(ctx, gc.ID, "https://cards.test/meena.pdf")
		require.NoError(t, err)

		assert.Equal(t, 1, repo.updates, "second approval must not write")
		assert.Len(t, rec.messages, 1, "second approval must not re-send the mail")
	})

	t.Run("rejection notifies without attachment", func(t *testing.T) {
		repo := newFakeRepository()
		rec := new(mailRecorder)
		svc := newTestService(repo, rec)
		gc := seedCard(repo)

		rejected, err := svc.RejectCard(ctx, gc.ID)
		require.NoError(t, err)
		assert.Equal(t, CardStatusRejected, rejected.Status)

		require.Len(t, rec.messages, 1)
		assert.Equal(t, "card-rejected", rec.messages[0].TemplateName)
		assert.Empty(t, rec.messages[0].Attachments)
	})

	t.Run("a rejected card cannot be approved", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, new(mailRecorder))
		gc := seedCard(repo)

		_, err := svc.RejectCard(ctx, gc.ID)
		require.NoError(t, err)
		_, err = svc.ApproveCard(ctx, gc.ID, "https://cards.test/meena.pdf")
		assert.Error(t, err)
	})

	t.Run("unknown card", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, new(mailRecorder))

		_, err := svc.ApproveCard(ctx, uuid.New(), "https://cards.test/x.pdf")
		assert.Equal(t, ErrNotFound, err)
	})
}

func TestImportActivations(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, new(mailRecorder))

	in := "Card No,Card Name,Card Type,Payment ID,Email\n" +
		"EC001,Meena,EduPass,pay_123,meena@test.test\n" +
		",NoNumber,EduPass,,\n" +
		"EC002,Ravi,ScholarPass,,\n"

	count, rowErrors, err := svc.ImportActivations(context.Background(), bytes.NewReader([]byte(in)))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, 3, rowErrors[0].Line)

	stats, err := svc.ActivationStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActivationStats{Total: 2, Active: 0, Inactive: 2}, stats)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event": "payment.captured"}`)

	assert.NoError(t, VerifySignature(testSecret, body, sign(body)))
	assert.Equal(t, ErrSignatureMismatch, VerifySignature(testSecret, body, "bad"))
	assert.Equal(t, ErrSignatureMismatch, VerifySignature([]byte("other"), body, sign(body)))
}
