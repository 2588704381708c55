package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"mova/internal/modules/pricing"
)

// QuoteDocument is the client-facing devis for one quote. Operator payouts
// are not printed.
type QuoteDocument struct {
	Reference string
	IssuedAt  time.Time
	TripDate  time.Time
	Customer  string
	Route     string
	Quote     *pricing.QuoteResult
}

type Generator struct {
	fontName string
	company  string
}

func NewGenerator(company string) *Generator {
	if strings.TrimSpace(company) == "" {
		company = "Mova"
	}
	return &Generator{fontName: "Helvetica", company: company}
}

func (g *Generator) Generate(doc QuoteDocument) ([]byte, error) {
	if doc.Quote == nil {
		return nil, fmt.Errorf("quote document has no quote")
	}
	q := doc.Quote

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Devis "+doc.Reference, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, tr(g.company), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, tr("Devis de transport"), "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Référence : %s", safeValue(doc.Reference))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Date : %s", formatDate(doc.IssuedAt))), "", 1, "L", false, 0, "")
	if !doc.TripDate.IsZero() {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Date du trajet : %s", formatDate(doc.TripDate))), "", 1, "L", false, 0, "")
	}
	if doc.Customer != "" {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Client : %s", doc.Customer)), "", 1, "L", false, 0, "")
	}
	if doc.Route != "" {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Trajet : %s", doc.Route)), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Distance facturée : %s km", q.Meta.BilledDistanceKm.StringFixed(1))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Événement : %s", q.Meta.EventType)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	headers := []string{"Véhicule", "Nombre", "Prix / km", "Montant"}
	colWidths := []float64{80, 25, 35, 40}
	drawTableRow(pdf, g.fontName, translate(tr, headers), colWidths, true)
	for _, v := range q.Vehicles {
		drawTableRow(pdf, g.fontName, translate(tr, []string{
			v.Label,
			fmt.Sprintf("%d", v.Count),
			formatAmount(v.PerKm),
			formatAmount(v.ClientScaledShare.Round(2)),
		}), colWidths, false)
	}
	pdf.Ln(4)

	b := q.Breakdown
	pdf.SetFont(g.fontName, "", 10)
	lines := [][2]string{
		{"Tarif de base", formatAmount(b.Base)},
		{"Motivation chauffeurs", formatAmount(b.Motivation)},
		{fmt.Sprintf("Majoration événement (%s%%)", percent(q.Meta.EventPercent)), formatAmount(b.Event)},
		{fmt.Sprintf("Frais de paiement (%s%%)", percent(q.Meta.ClientMoneyFeePercent)), formatAmount(b.ClientFees)},
	}
	for _, line := range lines {
		pdf.CellFormat(140, 6, tr(line[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, tr(line[1]+" "+q.Currency), "", 1, "R", false, 0, "")
	}
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(140, 8, tr("Total à payer"), "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, tr(formatAmount(b.ClientRounded)+" "+q.Currency), "T", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont(g.fontName, "", 8)
	pdf.MultiCell(0, 4, tr("Montant arrondi au palier de 25 supérieur. Devis indicatif, sous réserve de disponibilité des véhicules."), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func translate(tr func(string) string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = tr(c)
	}
	return out
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String()
}

// formatAmount prints an amount with space-grouped thousands and cents only
// when they are not zero: 267150 -> "267 150", 5582.79 -> "5 582,79".
func formatAmount(d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs().Round(2)
	whole := d.Truncate(0).String()
	frac := d.Sub(d.Truncate(0))

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}
	out := grouped.String()
	if !frac.IsZero() {
		out += "," + frac.StringFixed(2)[2:]
	}
	if neg {
		out = "-" + out
	}
	return out
}
