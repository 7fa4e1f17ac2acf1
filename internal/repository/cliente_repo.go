package repository

import (
	"context"

	"github.com/DiegoMao201/Cotizador-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClienteRepository interface {
	FindByNombre(ctx context.Context, nombre string) (*model.Cliente, error)
	List(ctx context.Context) ([]model.Cliente, int64, error)
	Create(ctx context.Context, c *model.Cliente) error
	// Upsert by nombre — used by the catalog seeder.
	Upsert(ctx context.Context, c *model.Cliente) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) FindByNombre(ctx context.Context, nombre string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Where("nombre = ?", nombre).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clienteRepo) List(ctx context.Context) ([]model.Cliente, int64, error) {
	var clientes []model.Cliente
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Cliente{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("nombre ASC").Find(&clientes).Error
	return clientes, total, err
}

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) Upsert(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "nombre"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"nit", "telefono", "email", "direccion", "updated_at",
		}),
	}).Create(c).Error
}
