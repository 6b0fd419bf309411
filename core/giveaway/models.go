package giveaway

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iypan/shiksha/core"
)

// Statuses an entry can be issued with. Any other caller-supplied value is
// stored as-is.
const (
	StatusSuccess = "success"
	StatusPending = "pending"
)

// Entry is one issued giveaway pass. Once persisted it is never updated or
// deleted.
type Entry struct {
	ID            int         `db:"id" json:"id"`
	ReferenceCode string      `db:"reference_code" json:"reference_code"`
	DisplayName   string      `db:"display_name" json:"display_name"`
	CardLabel     string      `db:"card_label" json:"card_label"`
	Locality      string      `db:"locality" json:"locality"`
	ContactEmail  null.String `db:"contact_email" json:"contact_email"`
	ContactPhone  null.String `db:"contact_phone" json:"contact_phone"`
	Status        string      `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"` // UTC, set at insertion
}

// NewEntry contains information needed to propose a giveaway Entry.
// It carries no identity until the batch it belongs to is committed.
type NewEntry struct {
	DisplayName  string `json:"display_name" validate:"required"`
	CardLabel    string `json:"card_label"`
	Locality     string `json:"locality"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone"`
	Status       string `json:"status"`
}

func (ne *NewEntry) Validate() error {
	ne.DisplayName = core.CleanString(ne.DisplayName)
	ne.CardLabel = core.CleanString(ne.CardLabel)
	ne.Locality = core.CleanString(ne.Locality)
	ne.ContactEmail = core.CleanString(ne.ContactEmail)
	ne.ContactPhone = core.CleanString(ne.ContactPhone)
	if ne.Status = core.CleanString(ne.Status, true /* lower */); ne.Status == "" {
		ne.Status = StatusSuccess
	}
	return core.Validate.Struct(ne)
}

func (ne NewEntry) entry(code string) Entry {
	e := Entry{
		ReferenceCode: code,
		DisplayName:   ne.DisplayName,
		CardLabel:     ne.CardLabel,
		Locality:      ne.Locality,
		Status:        ne.Status,
	}
	if ne.ContactEmail != "" {
		e.ContactEmail = null.StringFrom(ne.ContactEmail)
	}
	if ne.ContactPhone != "" {
		e.ContactPhone = null.StringFrom(ne.ContactPhone)
	}
	return e
}
