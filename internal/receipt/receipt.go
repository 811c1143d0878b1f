// Package receipt formats a confirmed booking into a printable PDF. Pure
// transformation of booking data; no network access.
package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/cx-tal-miterani/flight-booking-client/internal/models"
)

const (
	pageLeft  = 15.0
	pageRight = 195.0
	timeLocal = "02 Jan 2006 15:04"
)

// Filename names the downloadable artifact by PNR.
func Filename(b *models.Booking) string {
	return fmt.Sprintf("Booking-Receipt-%s.pdf", b.Reference())
}

// Generate renders the booking receipt: header, booking and passenger
// detail tables, flight info, booked seats, and pricing, plus a QR code of
// the PNR for quick lookup at the counter.
func Generate(b *models.Booking) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageLeft, 15, pageLeft)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Flight Booking Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	drawKeyValueTable(pdf, "Detail", "Value", [][2]string{
		{"PNR", b.Reference()},
		{"Status", b.Status},
		{"Booked On", b.BookingTime.Local().Format(timeLocal)},
	})

	drawKeyValueTable(pdf, "Detail", "Value", [][2]string{
		{"Name", b.User.Name},
		{"Email", b.User.Email},
	})

	drawFlightTable(pdf, &b.Flight)
	drawSeatsTable(pdf, b.Seats)

	drawKeyValueTable(pdf, "Item", "Amount", [][2]string{
		{"Total Seats", fmt.Sprintf("%d", b.SeatsBooked)},
		{"Price Per Ticket", "INR " + b.PricePerTicket},
		{"Total Price", "INR " + b.TotalPrice},
	})

	if err := drawPNRCode(pdf, b.Reference()); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func drawHeaderRow(pdf *gofpdf.Fpdf, widths []float64, labels []string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(198, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	for i, label := range labels {
		pdf.CellFormat(widths[i], 8, label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 11)
}

func drawKeyValueTable(pdf *gofpdf.Fpdf, keyLabel, valueLabel string, rows [][2]string) {
	widths := []float64{60, 120}
	drawHeaderRow(pdf, widths, []string{keyLabel, valueLabel})
	for i, row := range rows {
		fill := i%2 == 1
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(widths[0], 8, row[0], "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[1], 8, row[1], "1", 0, "L", fill, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}

func drawFlightTable(pdf *gofpdf.Fpdf, f *models.Flight) {
	widths := []float64{34, 26, 30, 30, 30, 30}
	drawHeaderRow(pdf, widths, []string{"Airline", "Flight No.", "From", "To", "Departure", "Arrival"})

	arrival := "N/A"
	if f.ArrivalDatetime != nil {
		arrival = f.ArrivalDatetime.Local().Format(timeLocal)
	}
	pdf.SetFont("Helvetica", "", 9)
	cells := []string{
		f.Airline.Name,
		f.FlightNumber,
		f.Source,
		f.Destination,
		f.DepartureDatetime.Local().Format(timeLocal),
		arrival,
	}
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 8, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Ln(6)
}

func drawSeatsTable(pdf *gofpdf.Fpdf, seats []models.Seat) {
	widths := []float64{180}
	drawHeaderRow(pdf, widths, []string{"Booked Seat(s)"})
	if len(seats) == 0 {
		pdf.CellFormat(widths[0], 8, "No seats listed", "1", 1, "L", false, 0, "")
	} else {
		for i, seat := range seats {
			fill := i%2 == 1
			pdf.SetFillColor(245, 245, 245)
			pdf.CellFormat(widths[0], 8, seat.SeatNumber, "1", 1, "L", fill, 0, "")
		}
	}
	pdf.Ln(6)
}

func drawPNRCode(pdf *gofpdf.Fpdf, pnr string) error {
	encoded, err := qrcode.Encode(pnr, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encoding PNR code: %w", err)
	}
	pdf.RegisterImageOptionsReader("pnr-qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(encoded))
	y := pdf.GetY()
	pdf.ImageOptions("pnr-qr", pageRight-40, y, 30, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")
	pdf.SetY(y + 32)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().Local().Format(timeLocal)), "", 1, "L", false, 0, "")
	return nil
}
