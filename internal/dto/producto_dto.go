package dto

import "github.com/shopspring/decimal"

// ProductoFilter is bound from query string of GET /v1/productos.
// Busqueda matches referencia exacta o nombre parcial (ILIKE).
type ProductoFilter struct {
	Busqueda string `form:"q"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type ProductoResponse struct {
	Referencia   string          `json:"referencia"`
	Nombre       string          `json:"nombre"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"`
	PrecioCosto  decimal.Decimal `json:"precio_costo"`
	StockActual  int             `json:"stock_actual"`
	UnidadMedida string          `json:"unidad_medida"`
}

type ProductoListResponse struct {
	Data []ProductoResponse `json:"data"`
}
