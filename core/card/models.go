package card

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/iypan/shiksha/core"
)

// Passes sold through the payment page, by price in rupees.
const (
	PassEdu      = "EduPass"
	PassScholar  = "ScholarPass"
	PassInfinite = "InfinitePass"
)

var passForAmount = map[int]string{
	49:  PassEdu,
	299: PassScholar,
	499: PassInfinite,
}

// PassForAmount maps a captured payment amount in rupees to the pass it
// bought. ok is false for amounts outside the price list.
func PassForAmount(amount int) (pass string, ok bool) {
	pass, ok = passForAmount[amount]
	return pass, ok
}

// Payment is one captured gateway payment, stored as received.
type Payment struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	PaymentID  string      `db:"payment_id" json:"payment_id"`
	OrderID    string      `db:"order_id" json:"order_id"`
	BankRRN    null.String `db:"bank_rrn" json:"bank_rrn,omitempty"`
	Method     null.String `db:"method" json:"method,omitempty"`
	UPIID      null.String `db:"upi_id" json:"upi_id,omitempty"`
	Email      string      `db:"email" json:"email"`
	Contact    string      `db:"contact" json:"contact"`
	Amount     int         `db:"amount" json:"amount"` // rupees
	FullName   null.String `db:"full_name" json:"full_name,omitempty"`
	NameOnPass null.String `db:"name_on_pass" json:"name_on_pass,omitempty"`
	City       null.String `db:"city" json:"city,omitempty"`
	PinCode    null.String `db:"pin_code" json:"pin_code,omitempty"`
	CardName   string      `db:"card_name" json:"card_name"`
	Status     string      `db:"status" json:"status"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"` // UTC
}

// GeneratedCard statuses.
const (
	CardStatusGenerated = "card_generated"
	CardStatusApproved  = "approved"
	CardStatusRejected  = "rejected"
)

// GeneratedCard tracks a pass from payment capture through manual review.
type GeneratedCard struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	PaymentID string      `db:"payment_id" json:"payment_id"`
	Name      string      `db:"name" json:"name"`
	Email     string      `db:"email" json:"email"`
	Phone     string      `db:"phone" json:"phone"`
	CardName  string      `db:"card_name" json:"card_name"`
	Status    string      `db:"status" json:"status"`
	CardURL   null.String `db:"card_url" json:"card_url,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"` // UTC
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"` // UTC
}

// Activation is one distributed physical card, inactive until its holder
// activates it.
type Activation struct {
	ID          int         `db:"id" json:"id"`
	CardNumber  string      `db:"card_number" json:"card_number"`
	CardName    string      `db:"card_name" json:"card_name"`
	CardType    null.String `db:"card_type" json:"card_type,omitempty"`
	PaymentID   null.String `db:"payment_id" json:"payment_id,omitempty"`
	PaymentDate null.String `db:"payment_date" json:"payment_date,omitempty"`
	Email       null.String `db:"email" json:"email,omitempty"`
	Phone       null.String `db:"phone" json:"phone,omitempty"`
	Active      bool        `db:"active" json:"active"`
	ActivatedAt null.Time   `db:"activated_at" json:"activated_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"` // UTC
}

// ActivationStats summarizes the activation ledger.
type ActivationStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// EliteCard is a manually registered card entry.
type EliteCard struct {
	ID             int       `db:"id" json:"id"`
	StudentName    string    `db:"student_name" json:"student_name"`
	RegisterNumber string    `db:"register_number" json:"register_number"`
	CardNumber     string    `db:"card_number" json:"card_number"`
	CardType       string    `db:"card_type" json:"card_type"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"` // UTC
}

// NewEliteCard contains information needed to register an EliteCard.
type NewEliteCard struct {
	StudentName    string `json:"student_name" validate:"required"`
	RegisterNumber string `json:"register_number" validate:"required"`
	CardNumber     string `json:"card_number" validate:"required"`
	CardType       string `json:"card_type" validate:"required"`
}

func (nc *NewEliteCard) Validate() error {
	nc.StudentName = core.CleanString(nc.StudentName)
	nc.RegisterNumber = core.CleanString(nc.RegisterNumber)
	nc.CardNumber = core.CleanString(nc.CardNumber)
	nc.CardType = core.CleanString(nc.CardType)
	return core.Validate.Struct(nc)
}

func (nc NewEliteCard) eliteCard() EliteCard {
	return EliteCard{
		StudentName:    nc.StudentName,
		RegisterNumber: nc.RegisterNumber,
		CardNumber:     nc.CardNumber,
		CardType:       nc.CardType,
		CreatedAt:      time.Now().UTC(),
	}
}
