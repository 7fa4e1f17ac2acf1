package dto

type CrearClienteRequest struct {
	Nombre    string `json:"nombre"    validate:"required,min=3"`
	NIT       string `json:"nit"       validate:"required"`
	Telefono  string `json:"telefono"`
	Email     string `json:"email"     validate:"omitempty,email"`
	Direccion string `json:"direccion"`
}

type ClienteResponse struct {
	ID        string `json:"id"`
	Nombre    string `json:"nombre"`
	NIT       string `json:"nit"`
	Telefono  string `json:"telefono"`
	Email     string `json:"email"`
	Direccion string `json:"direccion"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
}
