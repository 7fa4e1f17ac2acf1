package model

import "github.com/shopspring/decimal"

// totales.go — motor de totales de la cotización.
// Pure decimal arithmetic over the item sequence: no rounding of
// intermediates, no external state. Presentation rounding (StringFixed(2))
// happens only at the PDF/JSON boundary, so summing many lines never
// accumulates rounding drift.

var cien = decimal.NewFromInt(100)

// Totales is the derived aggregate of a quote. Always a pure function of the
// items and the tax rate — no stored total may diverge from these formulas.
type Totales struct {
	SubtotalBruto  decimal.Decimal `json:"subtotal_bruto"`
	DescuentoTotal decimal.Decimal `json:"descuento_total"`
	BaseGravable   decimal.Decimal `json:"base_gravable"`
	IVA            decimal.Decimal `json:"iva"`
	TotalNeto      decimal.Decimal `json:"total_neto"`

	// Rollups internos para el encabezado — nunca van al PDF del cliente.
	CostoTotal     decimal.Decimal `json:"costo_total"`
	MargenAbsoluto decimal.Decimal `json:"margen_absoluto"`
	MargenPct      decimal.Decimal `json:"margen_pct"`
}

// TotalLinea computes cantidad × precio × (1 − descuento/100).
func TotalLinea(cantidad int, precio, descuentoPct decimal.Decimal) decimal.Decimal {
	bruto := precio.Mul(decimal.NewFromInt(int64(cantidad)))
	return bruto.Sub(bruto.Mul(descuentoPct).Div(cien))
}

// DescuentoLinea computes cantidad × precio × descuento/100.
func DescuentoLinea(cantidad int, precio, descuentoPct decimal.Decimal) decimal.Decimal {
	return precio.Mul(decimal.NewFromInt(int64(cantidad))).Mul(descuentoPct).Div(cien)
}

// CalcularTotales folds the item sequence into the aggregate:
//
//	subtotal_bruto = Σ cantidad·precio
//	descuento_total = Σ cantidad·precio·descuento/100
//	base_gravable  = subtotal_bruto − descuento_total
//	iva            = base_gravable · tasaIVA
//	total_neto     = base_gravable + iva
//
// Deterministic and idempotent; an empty sequence yields all zeros
// (margen_pct included — no division by zero).
func CalcularTotales(items []CotizacionItem, tasaIVA decimal.Decimal) Totales {
	t := Totales{
		SubtotalBruto:  decimal.Zero,
		DescuentoTotal: decimal.Zero,
		BaseGravable:   decimal.Zero,
		IVA:            decimal.Zero,
		TotalNeto:      decimal.Zero,
		CostoTotal:     decimal.Zero,
		MargenAbsoluto: decimal.Zero,
		MargenPct:      decimal.Zero,
	}

	for _, it := range items {
		cant := decimal.NewFromInt(int64(it.Cantidad))
		bruto := it.PrecioUnitario.Mul(cant)
		t.SubtotalBruto = t.SubtotalBruto.Add(bruto)
		t.DescuentoTotal = t.DescuentoTotal.Add(bruto.Mul(it.DescuentoPct).Div(cien))
		t.CostoTotal = t.CostoTotal.Add(it.Costo.Mul(cant))
	}

	t.BaseGravable = t.SubtotalBruto.Sub(t.DescuentoTotal)
	t.IVA = t.BaseGravable.Mul(tasaIVA)
	t.TotalNeto = t.BaseGravable.Add(t.IVA)

	t.MargenAbsoluto = t.BaseGravable.Sub(t.CostoTotal)
	if t.BaseGravable.IsPositive() {
		t.MargenPct = t.MargenAbsoluto.Div(t.BaseGravable).Mul(cien)
	}
	return t
}

// Recalcular recomputes every derived field of the aggregate from its items:
// per-line TotalLinea/DescuentoValor plus the header totals cache. Invoked
// synchronously after every mutation and after every load — never lazily.
func (c *Cotizacion) Recalcular() Totales {
	for idx := range c.Items {
		it := &c.Items[idx]
		it.TotalLinea = TotalLinea(it.Cantidad, it.PrecioUnitario, it.DescuentoPct)
		it.DescuentoValor = DescuentoLinea(it.Cantidad, it.PrecioUnitario, it.DescuentoPct)
	}

	t := CalcularTotales(c.Items, c.TasaIVA)
	c.SubtotalBruto = t.SubtotalBruto
	c.DescuentoTotal = t.DescuentoTotal
	c.BaseGravable = t.BaseGravable
	c.IVA = t.IVA
	c.TotalNeto = t.TotalNeto
	c.CostoTotal = t.CostoTotal
	c.MargenAbsoluto = t.MargenAbsoluto
	c.MargenPct = t.MargenPct
	return t
}
