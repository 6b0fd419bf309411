package card

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core"
)

// RowError reports a single unusable upload row. Row errors never abort the
// rest of the file.
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// column aliases seen across the distribution sheets in circulation
var activationColumns = map[string]string{
	"card no":      "card_number",
	"card_no":      "card_number",
	"card number":  "card_number",
	"card_number":  "card_number",
	"card name":    "card_name",
	"card_name":    "card_name",
	"name":         "card_name",
	"card type":    "card_type",
	"card_type":    "card_type",
	"payment id":   "payment_id",
	"payment_id":   "payment_id",
	"payment date": "payment_date",
	"payment_date": "payment_date",
	"email":        "email",
	"phone":        "phone",
	"mobile":       "phone",
}

// ParseActivationsCSV reads a card distribution sheet into inactive
// activation rows, in file order. The first record is the header; columns are
// matched by name. Malformed rows are reported per-row and skipped. An error
// is returned only when the file itself is unreadable or has no usable
// header.
func ParseActivationsCSV(r io.Reader) ([]Activation, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows handled per-row
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading csv header")
	}
	fields := make(map[int]string, len(header))
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if name, ok := activationColumns[col]; ok {
			fields[i] = name
		}
	}
	if len(fields) == 0 {
		return nil, nil, errors.New("csv header has no recognized columns")
	}

	now := time.Now().UTC()
	var (
		acts      []Activation
		rowErrors []RowError
	)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Error: err.Error()})
			continue
		}

		act := Activation{CreatedAt: now}
		for i, value := range record {
			value = core.CleanString(value)
			if value == "" {
				continue
			}
			switch fields[i] {
			case "card_number":
				act.CardNumber = value
			case "card_name":
				act.CardName = value
			case "card_type":
				act.CardType.SetValid(value)
			case "payment_id":
				act.PaymentID.SetValid(value)
			case "payment_date":
				act.PaymentDate.SetValid(value)
			case "email":
				act.Email.SetValid(strings.ToLower(value))
			case "phone":
				act.Phone.SetValid(value)
			}
		}
		if act.CardNumber == "" {
			rowErrors = append(rowErrors, RowError{Line: line, Error: "missing card number"})
			continue
		}
		acts = append(acts, act)
	}
	return acts, rowErrors, nil
}
