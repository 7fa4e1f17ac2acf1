package repository

import (
	"context"

	"github.com/DiegoMao201/Cotizador-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductoRepository interface {
	FindByReferencia(ctx context.Context, referencia string) (*model.Producto, error)
	// Search matches referencia exacta o nombre parcial, solo activos.
	Search(ctx context.Context, q string, limit int) ([]model.Producto, error)
	Upsert(ctx context.Context, p *model.Producto) error
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) FindByReferencia(ctx context.Context, referencia string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("referencia = ?", referencia).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) Search(ctx context.Context, q string, limit int) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo = true").
		Where("referencia = ? OR nombre ILIKE ?", q, "%"+q+"%").
		Order("nombre ASC").
		Limit(limit).
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Upsert(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "referencia"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"nombre", "precio_costo", "precio_venta", "stock_actual",
			"unidad_medida", "activo", "updated_at",
		}),
	}).Create(p).Error
}
