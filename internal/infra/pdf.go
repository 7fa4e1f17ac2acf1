package infra

// pdf.go — Quote PDF generation using go-pdf/fpdf.
// A4 portrait document with:
//   - Company letterhead (name, NIT)
//   - Proposal number, date, salesperson and client block
//   - Item table (referencia, producto, cantidad, precio, descuento, total)
//   - Totals block (subtotal, descuento, base gravable, IVA, total)
//   - Observations footer
//
// Consumes the finalized aggregate read-only; money is formatted with
// StringFixed(2) here and only here — internal arithmetic never rounds.

import (
	"bytes"
	"fmt"

	"github.com/DiegoMao201/Cotizador-sub000/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// EmpresaInfo is the letterhead data printed on every quote.
type EmpresaInfo struct {
	Nombre string
	NIT    string
}

// GenerateCotizacionPDF renders the quote as PDF bytes.
func GenerateCotizacionPDF(cot *model.Cotizacion, empresa EmpresaInfo) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Letterhead ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 8, empresa.Nombre, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "NIT "+empresa.NIT, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Proposal block ───────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, "Cotización "+cot.PropuestaID, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Fecha: "+cot.CreatedAt.Format("02/01/2006"), "", 1, "L", false, 0, "")
	if cot.Vendedor != "" {
		pdf.CellFormat(contentW, 5, "Vendedor: "+cot.Vendedor, "", 1, "L", false, 0, "")
	}
	if cot.ClienteNombre != "" {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Cliente: %s — NIT %s", cot.ClienteNombre, cot.ClienteNIT), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Item table ───────────────────────────────────────────────────────────
	colRef := contentW * 0.14
	colNom := contentW * 0.36
	colCant := contentW * 0.09
	colPrecio := contentW * 0.15
	colDesc := contentW * 0.10
	colTotal := contentW * 0.16

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(colRef, 6, "Ref.", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colNom, 6, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colCant, 6, "Cant.", "B", 0, "C", false, 0, "")
	pdf.CellFormat(colPrecio, 6, "Precio", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colDesc, 6, "Desc.", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 6, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, it := range cot.Items {
		nombre := truncarNombre(it.Nombre, 42)
		pdf.CellFormat(colRef, 6, it.Referencia, "", 0, "L", false, 0, "")
		pdf.CellFormat(colNom, 6, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(colCant, 6, fmt.Sprintf("%d", it.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(colPrecio, 6, "$"+it.PrecioUnitario.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(colDesc, 6, it.DescuentoPct.StringFixed(1)+"%", "", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 6, "$"+it.TotalLinea.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	labelW := contentW - colTotal
	totalRow := func(label, value string, bold bool) {
		style := ""
		size := 9.0
		if bold {
			style = "B"
			size = 11
		}
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(labelW, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 6, value, "", 1, "R", false, 0, "")
	}

	totalRow("Subtotal bruto:", "$"+cot.SubtotalBruto.StringFixed(2), false)
	if !cot.DescuentoTotal.IsZero() {
		totalRow("Descuento:", "-$"+cot.DescuentoTotal.StringFixed(2), false)
	}
	totalRow("Base gravable:", "$"+cot.BaseGravable.StringFixed(2), false)
	ivaPct := cot.TasaIVA.Mul(decimal.NewFromInt(100))
	totalRow(fmt.Sprintf("IVA (%s%%):", ivaPct.StringFixed(0)), "$"+cot.IVA.StringFixed(2), false)
	totalRow("TOTAL:", "$"+cot.TotalNeto.StringFixed(2), true)

	// ── Observations ─────────────────────────────────────────────────────────
	if cot.Observaciones != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, cot.Observaciones, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// truncarNombre caps a product name at max runes for the item table.
// Rune-based so accented catalog names never get cut mid-character.
func truncarNombre(nombre string, max int) string {
	runes := []rune(nombre)
	if len(runes) <= max {
		return nombre
	}
	return string(runes[:max-1]) + "…"
}
