package manifest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var money = message.NewPrinter(language.English)

// WriteCSV renders the document as the downloadable manifest sheet.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := [][]string{
		{doc.AgencyName, doc.AgencyTagline},
		{"Airline", doc.Airline},
		{"Flight", doc.FlightNumber},
		{"Date", doc.Date.Format("2006-01-02")},
		{"Route", doc.Route},
		{},
		{"#", "Name", "Type", "Gender", "Phone", "Agency", "Booking Ref", "Infants", "Total", "Issued By"},
	}
	for _, row := range header {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for _, row := range doc.Rows {
		if err := cw.Write([]string{
			strconv.Itoa(row.Seq),
			row.Name,
			row.Type,
			row.Gender,
			row.PhoneNumber,
			row.Agency,
			row.BookingReference,
			strings.Join(row.Infants, "; "),
			money.Sprintf("%.2f", row.TotalPrice),
			row.IssuedBy,
		}); err != nil {
			return err
		}
	}

	footer := [][]string{
		{},
		{"Adults", strconv.Itoa(doc.Summary.Adults)},
		{"Children", strconv.Itoa(doc.Summary.Children)},
		{"Infants", strconv.Itoa(doc.Summary.Infants)},
		{"Revenue", money.Sprintf("%.2f", doc.Summary.Revenue)},
	}
	for _, row := range footer {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
