package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de una cotización. El estado es metadata operativa asignada por el
// vendedor — no hay máquina de transiciones: cualquier estado válido puede
// asignarse en cualquier momento.
const (
	EstadoBorrador  = "borrador"
	EstadoEnviada   = "enviada"
	EstadoAceptada  = "aceptada"
	EstadoRechazada = "rechazada"
)

// EstadoValido reports whether s is one of the four known states.
func EstadoValido(s string) bool {
	switch s {
	case EstadoBorrador, EstadoEnviada, EstadoAceptada, EstadoRechazada:
		return true
	}
	return false
}

// Cotizacion is the quote header row. The totals columns (SubtotalBruto …
// MargenPct) are a persisted cache of CalcularTotales over the item rows:
// every load recomputes from Items and overwrites them, the rows are never
// trusted as a source of truth.
//
// PropuestaID starts as a timestamp draft id (BORRADOR-20060102150405) and is
// replaced by a sequential PROP-<año>-<n> the first time the quote is saved.
// After that it is immutable and further saves update in place.
type Cotizacion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PropuestaID string    `gorm:"uniqueIndex;not null"`
	Vendedor    string

	// Cliente snapshot — copy-in at assignment time, NOT a foreign key.
	// A client deleted from the directory after being attached still
	// persists with its last-known name/NIT.
	ClienteNombre string
	ClienteNIT    string

	Estado  string          `gorm:"type:varchar(20);not null;default:'borrador'"`
	TasaIVA decimal.Decimal `gorm:"type:decimal(6,4);not null;column:tasa_iva"`

	SubtotalBruto  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	DescuentoTotal decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	BaseGravable   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	IVA            decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:iva"`
	TotalNeto      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CostoTotal     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	MargenAbsoluto decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	MargenPct      decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0"`

	Observaciones string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Items travels with the in-memory aggregate only. Item rows are
	// persisted through ReplaceItems as an independent store call, mirroring
	// the header-row / item-rows split of the tabular store.
	Items []CotizacionItem `gorm:"-"`
}

func (Cotizacion) TableName() string { return "cotizaciones" }

// CotizacionItem is one product line. TotalLinea and DescuentoValor are
// derived cache columns — always recomputed, never user-set.
type CotizacionItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PropuestaID string    `gorm:"index;not null"`
	Posicion    int       `gorm:"not null;default:0"` // orden en la grilla

	Referencia     string          `gorm:"not null"`
	Nombre         string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Costo          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DescuentoPct   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TotalLinea     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	DescuentoValor decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	// StockActual is informational only (what the catalog reported when the
	// line was added) — it never gates the quote.
	StockActual int `gorm:"not null;default:0"`

	CreatedAt time.Time
}

func (CotizacionItem) TableName() string { return "cotizacion_items" }

// Validar checks the line constraints: cantidad ≥ 1, precio ≥ 0,
// descuento en [0,100]. Violations wrap ErrInvalidInput.
func (i *CotizacionItem) Validar() error {
	if i.Cantidad < 1 {
		return errInvalid("cantidad debe ser >= 1")
	}
	if i.PrecioUnitario.IsNegative() {
		return errInvalid("precio_unitario no puede ser negativo")
	}
	if i.DescuentoPct.IsNegative() || i.DescuentoPct.GreaterThan(cien) {
		return errInvalid("descuento_pct debe estar entre 0 y 100")
	}
	return nil
}
