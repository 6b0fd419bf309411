package giveaway

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// RowError reports a single unusable upload row. Row errors never abort the
// rest of the file.
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// column aliases seen across the upload sheets in circulation
var csvColumns = map[string]string{
	"name":          "display_name",
	"display_name":  "display_name",
	"card":          "card_label",
	"card_label":    "card_label",
	"card_name":     "card_label",
	"place":         "locality",
	"locality":      "locality",
	"city":          "locality",
	"email":         "contact_email",
	"contact_email": "contact_email",
	"phone":         "contact_phone",
	"contact_phone": "contact_phone",
	"status":        "status",
}

// ParseCSV reads a giveaway upload sheet into proposed entries, in file
// order. The first record is the header; columns are matched by name.
// Malformed or invalid rows are reported per-row and skipped. An error is
// returned only when the file itself is unreadable or has no usable header.
func ParseCSV(r io.Reader) ([]NewEntry, []RowError, error) {
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
		if name, ok := csvColumns[col]; ok {
			fields[i] = name
		}
	}
	if len(fields) == 0 {
		return nil, nil, errors.New("csv header has no recognized columns")
	}

	var (
		proposed  []NewEntry
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

		var ne NewEntry
		for i, value := range record {
			switch fields[i] {
			case "display_name":
				ne.DisplayName = value
			case "card_label":
				ne.CardLabel = value
			case "locality":
				ne.Locality = value
			case "contact_email":
				ne.ContactEmail = value
			case "contact_phone":
				ne.ContactPhone = value
			case "status":
				ne.Status = value
			}
		}
		if err := ne.Validate(); err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Error: fmt.Sprintf("invalid row: %v", err)})
			continue
		}
		proposed = append(proposed, ne)
	}
	return proposed, rowErrors, nil
}
