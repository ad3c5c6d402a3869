package view

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Tiliavir/medrem/internal/model"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Write renders records to w in the named format.
func Write(w io.Writer, format string, records []model.Medicine) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatText, "":
		_, err := io.WriteString(w, Cards(records))
		return err
	default:
		return fmt.Errorf("unknown format %q (want text, json or csv)", format)
	}
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []model.Medicine) error {
	if records == nil {
		records = []model.Medicine{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteCSV writes one line per record after a header line.
func WriteCSV(w io.Writer, records []model.Medicine) error {
	if _, err := fmt.Fprintln(w, "id,name,taken_time,dosage,uses,side_effects"); err != nil {
		return err
	}
	for _, m := range records {
		_, err := fmt.Fprintf(w, "%d,%s,%s,%s,%s,%s\n",
			m.ID,
			csvEscape(m.Name),
			csvEscape(m.TakenTime),
			csvEscape(m.Dosage),
			csvEscape(model.JoinList(m.Uses)),
			csvEscape(model.JoinList(m.SideEffects)),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
