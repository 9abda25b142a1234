package render

import (
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/jmerrifield20/listingledger/internal/listing"
	"github.com/pterm/pterm"
)

// WriteListings renders folded listings to w in the named format.
func WriteListings(w io.Writer, format string, listings []listing.Listing) error {
	switch format {
	case FormatText, "":
		for _, l := range listings {
			if _, err := fmt.Fprintf(w,
				"Listing %s\nAddress: %s\nOwner: %s\nPrice: %s\nListed: %s\nUpdated: %s\nEvents: %d\n\n",
				l.ID, l.Address, l.Owner, l.Price, l.CreatedAt, l.UpdatedAt, len(l.PriceHistory),
			); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		if listings == nil {
			listings = []listing.Listing{}
		}
		return encodeIndented(w, listings)
	case FormatTable:
		data := pterm.TableData{{"ID", "Address", "Owner", "Price", "Updated", "Events"}}
		for _, l := range listings {
			data = append(data, []string{
				l.ID, l.Address, l.Owner, l.Price, l.UpdatedAt, strconv.Itoa(len(l.PriceHistory)),
			})
		}
		return writeTable(w, data)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteHistory renders the events of one listing to w in the named format.
func WriteHistory(w io.Writer, format string, events []listing.Event) error {
	switch format {
	case FormatText, "":
		for _, e := range events {
			if _, err := fmt.Fprintf(w,
				"Record #%d\nTimestamp: %s\nOwner: %s\nPrice: %s\nHash: %s\n\n",
				e.Position, e.Timestamp, e.Owner, e.Price, e.Hash,
			); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		if events == nil {
			events = []listing.Event{}
		}
		return encodeIndented(w, events)
	case FormatTable:
		data := pterm.TableData{{"#", "Timestamp", "Owner", "Price", "Hash"}}
		for _, e := range events {
			data = append(data, []string{strconv.Itoa(e.Position), e.Timestamp, e.Owner, e.Price, e.Hash})
		}
		return writeTable(w, data)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func encodeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
