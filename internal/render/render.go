// Package render prints ledger records for humans and scripts.
package render

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/pterm/pterm"
)

// Output formats accepted by Write.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatTable = "table"
)

// ErrUnknownFormat is returned by Write for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported format names.
func Formats() []string { return []string{FormatText, FormatJSON, FormatTable} }

// Write renders records to w in the named format.
func Write(w io.Writer, format string, records []chain.Record) error {
	switch format {
	case FormatText, "":
		return Text(w, records)
	case FormatJSON:
		return JSON(w, records)
	case FormatTable:
		return Table(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Text prints each record as five labelled lines followed by a blank line.
func Text(w io.Writer, records []chain.Record) error {
	for _, r := range records {
		if _, err := fmt.Fprintf(w,
			"Record #%d\nTimestamp: %s\nPayload: %s\nPrevious Hash: %s\nHash: %s\n\n",
			r.Position, r.Timestamp, r.Payload, r.PreviousHash, r.Hash,
		); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes records as an indented JSON array. A nil slice is written as [].
func JSON(w io.Writer, records []chain.Record) error {
	if records == nil {
		records = []chain.Record{}
	}
	return encodeIndented(w, records)
}

// Table writes records as a bordered table.
func Table(w io.Writer, records []chain.Record) error {
	data := pterm.TableData{{"#", "Timestamp", "Payload", "Previous Hash", "Hash"}}
	for _, r := range records {
		data = append(data, []string{
			strconv.Itoa(r.Position), r.Timestamp, r.Payload, r.PreviousHash, r.Hash,
		})
	}

	return writeTable(w, data)
}

func writeTable(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
