package services

import (
	"fmt"
	"io"
	"time"

	"github.com/Clean-PRO/backend/models"
	"github.com/go-pdf/fpdf"
)

const CompanyName = "CleanPro"

// InvoiceNumber is stable for an order: INV/<creation date>/<id>.
func InvoiceNumber(order *models.Order) string {
	created := order.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return fmt.Sprintf("INV/%s/%06d", created.Format("20060102"), order.ID)
}

// RenderInvoice writes a one-page PDF invoice. The order must have its
// User, Address and Services.Service loaded.
func RenderInvoice(order *models.Order, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(InvoiceNumber(order), true)
	pdf.SetAuthor(CompanyName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, CompanyName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Invoice "+InvoiceNumber(order), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	a := order.Address
	address := fmt.Sprintf("%s, %s %d", a.City, a.Street, a.House)
	if a.Apartment != nil {
		address += fmt.Sprintf(", apt. %d", *a.Apartment)
	}
	rows := [][2]string{
		{"Customer", order.User.DisplayName()},
		{"Email", order.User.Email},
		{"Address", address},
		{"Cleaning", order.CleaningDate + " " + order.CleaningTime},
		{"Duration", fmt.Sprintf("%d min", order.TotalTime)},
		{"Status", order.OrderStatus},
	}
	if order.CleaningType != nil {
		rows = append(rows, [2]string{"Cleaning type", order.CleaningType.Title})
	}
	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 6, r[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(r[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{90, 25, 35, 40}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 236, 245)
	for i, h := range []string{"Service", "Amount", "Price", "Subtotal"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range order.Services {
		pdf.CellFormat(widths[0], 7, tr(line.Service.Title), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", line.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", line.Service.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%d", line.Amount*line.Service.Price), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, fmt.Sprintf("%d RUB", order.TotalSum), "1", 1, "R", false, 0, "")
	pdf.Ln(4)

	paid := "Not paid"
	if order.PayStatus {
		paid = "Paid"
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Payment: "+paid, "", 1, "L", false, 0, "")

	return pdf.Output(w)
}
