package dto

import (
	"github.com/shopspring/decimal"

	"github.com/DiegoMao201/Cotizador-sub000/internal/model"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// CotizacionFilter is bound from query string of GET /v1/cotizaciones.
type CotizacionFilter struct {
	Estado string `form:"estado,default=all"` // borrador | enviada | aceptada | rechazada | all
	Fecha  string `form:"fecha"`              // YYYY-MM-DD; empty = sin filtro
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// CotizacionListItem is the header-only projection for the list view.
// Totals shown here come straight from the cached header columns; the full
// GET recomputes from items.
type CotizacionListItem struct {
	PropuestaID    string          `json:"propuesta_id"`
	Vendedor       string          `json:"vendedor"`
	ClienteNombre  string          `json:"cliente_nombre"`
	Estado         string          `json:"estado"`
	TotalNeto      decimal.Decimal `json:"total_neto"`
	MargenPct      decimal.Decimal `json:"margen_pct"`
	CreatedAt      string          `json:"created_at"`
}

type CotizacionListResponse struct {
	Data  []CotizacionListItem `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemCotizacionRequest struct {
	Referencia     string          `json:"referencia"      validate:"required"`
	Nombre         string          `json:"nombre"          validate:"required"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
	Costo          decimal.Decimal `json:"costo"           validate:"min=0"`
	DescuentoPct   decimal.Decimal `json:"descuento_pct"   validate:"min=0,max=100"`
	StockActual    int             `json:"stock_actual"`
}

// GuardarCotizacionRequest carries the full aggregate on PUT. The server
// holds no quote state between requests — the body IS the quote.
type GuardarCotizacionRequest struct {
	Vendedor      string                  `json:"vendedor"`
	ClienteNombre string                  `json:"cliente_nombre"`
	Estado        string                  `json:"estado"        validate:"omitempty,oneof=borrador enviada aceptada rechazada"`
	Observaciones string                  `json:"observaciones"`
	Items         []ItemCotizacionRequest `json:"items"         validate:"dive"`
}

// EnviarCotizacionRequest selects the delivery channel for a saved quote.
type EnviarCotizacionRequest struct {
	Canal        string `json:"canal"        validate:"required,oneof=email whatsapp"`
	Destinatario string `json:"destinatario" validate:"required"` // email o teléfono E.164 sin '+'
	Mensaje      string `json:"mensaje"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemCotizacionResponse struct {
	Referencia     string          `json:"referencia"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	DescuentoPct   decimal.Decimal `json:"descuento_pct"`
	DescuentoValor decimal.Decimal `json:"descuento_valor"`
	TotalLinea     decimal.Decimal `json:"total_linea"`
	StockActual    int             `json:"stock_actual"`
}

// ItemRechazado reports a grid row that failed validation during a wholesale
// replace; the previous row at that position was retained.
type ItemRechazado struct {
	Posicion int    `json:"posicion"`
	Motivo   string `json:"motivo"`
}

type CotizacionResponse struct {
	PropuestaID   string                   `json:"propuesta_id"`
	Vendedor      string                   `json:"vendedor"`
	ClienteNombre string                   `json:"cliente_nombre"`
	ClienteNIT    string                   `json:"cliente_nit"`
	// ClienteEncontrado=false flags a non-fatal load warning: the attached
	// client no longer exists in the directory and the reference was cleared.
	ClienteEncontrado bool                     `json:"cliente_encontrado"`
	Estado            string                   `json:"estado"`
	TasaIVA           decimal.Decimal          `json:"tasa_iva"`
	Items             []ItemCotizacionResponse `json:"items"`
	ItemsRechazados   []ItemRechazado          `json:"items_rechazados,omitempty"`
	Totales           model.Totales            `json:"totales"`
	Observaciones     string                   `json:"observaciones"`
	CreatedAt         string                   `json:"created_at"`
}

type EnviarCotizacionResponse struct {
	PropuestaID string `json:"propuesta_id"`
	Canal       string `json:"canal"`
	Encolado    bool   `json:"encolado"`
	// WhatsAppURL viene poblado sólo para canal=whatsapp: el envío es un
	// link wa.me que el vendedor abre, no una llamada a una API.
	WhatsAppURL string `json:"whatsapp_url,omitempty"`
}
