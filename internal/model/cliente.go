package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is one entry of the client directory. Quotes take a copy of
// Nombre/NIT at assignment time; deleting a Cliente never breaks a saved
// quote.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"uniqueIndex;not null"`
	NIT       string    `gorm:"column:nit"`
	Telefono  string
	Email     string
	Direccion string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }
