package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is one row of the product catalog. PrecioCosto feeds the margin
// rollups of the quote header; StockActual is informational for the seller
// (a quote never reserves stock).
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Referencia   string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"index;not null"`
	Descripcion  *string
	PrecioCosto  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PrecioVenta  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockActual  int             `gorm:"not null;default:0"`
	UnidadMedida string          `gorm:"not null;default:'unidad'"`
	Activo       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Producto) TableName() string { return "productos" }
