package card

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core"
)

var (
	// errors
	ErrNotFound  = errors.New("card not found")
	ErrCardFinal = errors.New("card already reviewed")

	// fetchAttachmentFunc downloads the rendered pass document for the
	// approval mail. Mockable.
	fetchAttachmentFunc = func(url string) (io.ReadCloser, error) {
		resp, err := http.Get(url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Errorf("fetching %s: %s", url, resp.Status)
		}
		return resp.Body, nil
	}
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		QueryAllPayments(ctx context.Context) ([]Payment, error)

		CreateGeneratedCard(ctx context.Context, gc GeneratedCard) (GeneratedCard, error)
		GetGeneratedCardByID(ctx context.Context, id uuid.UUID) (GeneratedCard, error)
		// QueryPendingCards returns cards awaiting review, oldest first.
		QueryPendingCards(ctx context.Context) ([]GeneratedCard, error)
		// QueryApprovedCards returns approved cards, most recently reviewed first.
		QueryApprovedCards(ctx context.Context) ([]GeneratedCard, error)
		UpdateGeneratedCard(ctx context.Context, gc GeneratedCard) (GeneratedCard, error)

		// CreateActivations must be atomic: it inserts all rows or none.
		CreateActivations(ctx context.Context, acts []Activation) (int, error)
		QueryAllActivations(ctx context.Context) ([]Activation, error)
		CountActivations(ctx context.Context) (ActivationStats, error)
		QueryRecentInactiveActivations(ctx context.Context, limit int) ([]Activation, error)

		CreateEliteCard(ctx context.Context, ec EliteCard) (EliteCard, error)
		QueryAllEliteCards(ctx context.Context) ([]EliteCard, error)
	}

	Service struct {
		conf    *core.Config
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{conf: conf, repo: repo, mailSvc: mailSvc, logger: logger}
}

// HandleWebhook ingests one gateway delivery. The signature must verify
// against the shared webhook secret before anything is read from the body;
// a mismatch stores nothing. Events other than payment capture, and captures
// for amounts outside the price list, are acknowledged and dropped.
func (svc *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if err := VerifySignature(svc.conf.RazorpayWebhookSecret, body, signature); err != nil {
		return err
	}

	event, err := decodeWebhook(body)
	if err != nil {
		return err
	}
	if event.Event != eventPaymentCaptured {
		svc.logger.Debug(fmt.Sprintf("webhook: ignoring event %s", event.Event))
		return nil
	}

	entity := event.Payload.Payment.Entity
	amount := entity.Amount / 100 // paise to rupees
	pass, ok := PassForAmount(amount)
	if !ok {
		svc.logger.Warn(fmt.Sprintf("webhook: no pass for amount %d (payment %s)", amount, entity.ID))
		return nil
	}

	now := time.Now().UTC()
	pmt := Payment{
		ID:        uuid.New(),
		PaymentID: entity.ID,
		OrderID:   entity.OrderID,
		Email:     core.CleanString(entity.Email, true /* lower */),
		Contact:   entity.Contact,
		Amount:    amount,
		CardName:  pass,
		Status:    "success",
		CreatedAt: now,
	}
	if entity.Method != "" {
		pmt.Method.SetValid(entity.Method)
	}
	if entity.VPA != "" {
		pmt.UPIID.SetValid(entity.VPA)
	}
	if rrn := entity.AcquirerData["rrn"]; rrn != "" {
		pmt.BankRRN.SetValid(rrn)
	}
	if v := entity.Notes["full_name"]; v != "" {
		pmt.FullName.SetValid(v)
	}
	if v := entity.Notes["name_on_pass"]; v != "" {
		pmt.NameOnPass.SetValid(v)
	}
	if v := entity.Notes["city"]; v != "" {
		pmt.City.SetValid(v)
	}
	if v := entity.Notes["pin_code"]; v != "" {
		pmt.PinCode.SetValid(v)
	}

	pmt, err = svc.repo.CreatePayment(ctx, pmt)
	if err != nil {
		return errors.Wrap(err, "inserting payment")
	}

	gc := GeneratedCard{
		ID:        uuid.New(),
		PaymentID: pmt.PaymentID,
		Name:      cardHolderName(pmt),
		Email:     pmt.Email,
		Phone:     pmt.Contact,
		CardName:  pass,
		Status:    CardStatusGenerated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := svc.repo.CreateGeneratedCard(ctx, gc); err != nil {
		return errors.Wrap(err, "inserting generated card")
	}
	return nil
}

func cardHolderName(pmt Payment) string {
	if pmt.NameOnPass.Valid {
		return pmt.NameOnPass.String
	}
	if pmt.FullName.Valid {
		return pmt.FullName.String
	}
	return pmt.Email
}

func (svc *Service) Payments(ctx context.Context) ([]Payment, error) {
	return svc.repo.QueryAllPayments(ctx)
}

func (svc *Service) PendingCards(ctx context.Context) ([]GeneratedCard, error) {
	return svc.repo.QueryPendingCards(ctx)
}

func (svc *Service) ApprovedCards(ctx context.Context) ([]GeneratedCard, error) {
	return svc.repo.QueryApprovedCards(ctx)
}

// ApproveCard marks a reviewed card approved and mails the holder their pass
// document. Approving an approved card is a no-op; an already rejected card
// cannot be approved. The mail is fire-and-forget: a send failure never rolls
// back the approval.
func (svc *Service) ApproveCard(ctx context.Context, id uuid.UUID, cardURL string) (GeneratedCard, error) {
	gc, err := svc.repo.GetGeneratedCardByID(ctx, id)
	if err != nil {
		return GeneratedCard{}, err
	}
	switch gc.Status {
	case CardStatusApproved:
		return gc, nil
	case CardStatusRejected:
		return GeneratedCard{}, core.NewValidationError(ErrCardFinal, core.FieldError{Field: "status", Error: ErrCardFinal.Error()})
	}

	gc.Status = CardStatusApproved
	gc.CardURL.SetValid(cardURL)
	gc.UpdatedAt = time.Now().UTC()
	gc, err = svc.repo.UpdateGeneratedCard(ctx, gc)
	if err != nil {
		return GeneratedCard{}, errors.Wrap(err, "updating generated card")
	}

	svc.sendApprovalMail(gc)
	return gc, nil
}

// RejectCard marks a reviewed card rejected and notifies the holder.
// Rejecting a rejected card is a no-op; an already approved card cannot be
// rejected.
func (svc *Service) RejectCard(ctx context.Context, id uuid.UUID) (GeneratedCard, error) {
	gc, err := svc.repo.GetGeneratedCardByID(ctx, id)
	if err != nil {
		return GeneratedCard{}, err
	}
	switch gc.Status {
	case CardStatusRejected:
		return gc, nil
	case CardStatusApproved:
		return GeneratedCard{}, core.NewValidationError(ErrCardFinal, core.FieldError{Field: "status", Error: ErrCardFinal.Error()})
	}

	gc.Status = CardStatusRejected
	gc.UpdatedAt = time.Now().UTC()
	gc, err = svc.repo.UpdateGeneratedCard(ctx, gc)
	if err != nil {
		return GeneratedCard{}, errors.Wrap(err, "updating generated card")
	}

	svc.sendRejectionMail(gc)
	return gc, nil
}

func (svc *Service) sendApprovalMail(gc GeneratedCard) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: gc.Name, Address: gc.Email}},
		Subject:      "Your " + gc.CardName + " is ready",
		TemplateName: "card-" + strings.ToLower(gc.CardName),
		TemplateData: svc.cardMailData(gc),
	}
	if gc.CardURL.Valid {
		doc, err := fetchAttachmentFunc(gc.CardURL.String)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("card approval mail: fetching pass document: %v", err), err)
		} else {
			defer doc.Close()
			if err := msg.Attach(doc, gc.CardName+".pdf", "application/pdf"); err != nil {
				svc.logger.Error(fmt.Sprintf("card approval mail: attaching pass document: %v", err), err)
			}
		}
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *Service) sendRejectionMail(gc GeneratedCard) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: gc.Name, Address: gc.Email}},
		Subject:      "About your " + gc.CardName + " application",
		TemplateName: "card-rejected",
		TemplateData: svc.cardMailData(gc),
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *Service) cardMailData(gc GeneratedCard) interface{} {
	return struct {
		Name         string
		CardName     string
		SupportEmail string
		SupportPhone string
	}{gc.Name, gc.CardName, svc.conf.EliteCard.SupportEmail, svc.conf.EliteCard.SupportPhone}
}

// ImportActivations bulk-loads distributed cards from an upload sheet. Rows
// default to inactive. Row errors never abort the rest of the file.
func (svc *Service) ImportActivations(ctx context.Context, r io.Reader) (int, []RowError, error) {
	acts, rowErrors, err := ParseActivationsCSV(r)
	if err != nil {
		return 0, nil, err
	}
	if len(acts) == 0 {
		return 0, rowErrors, nil
	}
	count, err := svc.repo.CreateActivations(ctx, acts)
	if err != nil {
		return 0, rowErrors, errors.Wrap(err, "inserting activations")
	}
	return count, rowErrors, nil
}

func (svc *Service) Activations(ctx context.Context) ([]Activation, error) {
	return svc.repo.QueryAllActivations(ctx)
}

func (svc *Service) ActivationStats(ctx context.Context) (ActivationStats, error) {
	return svc.repo.CountActivations(ctx)
}

func (svc *Service) RecentInactive(ctx context.Context, limit int) ([]Activation, error) {
	if limit <= 0 {
		limit = 50
	}
	return svc.repo.QueryRecentInactiveActivations(ctx, limit)
}

func (svc *Service) AddEliteCard(ctx context.Context, nc NewEliteCard) (EliteCard, error) {
	return svc.repo.CreateEliteCard(ctx, nc.eliteCard())
}

func (svc *Service) EliteCards(ctx context.Context) ([]EliteCard, error) {
	return svc.repo.QueryAllEliteCards(ctx)
}
