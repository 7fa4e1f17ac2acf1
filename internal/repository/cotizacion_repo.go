package repository

import (
	"context"

	"github.com/DiegoMao201/Cotizador-sub000/internal/dto"
	"github.com/DiegoMao201/Cotizador-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CotizacionRepository is the narrow contract against the tabular store that
// holds quote header rows and item rows. Header and item operations are
// deliberately independent calls — the store gives no cross-call atomicity,
// so a save can partially fail (header written, items not). Callers treat
// the in-memory aggregate as the source of truth and re-attempt the save as
// a whole.
type CotizacionRepository interface {
	GetHeader(ctx context.Context, propuestaID string) (*model.Cotizacion, error)
	GetItems(ctx context.Context, propuestaID string) ([]model.CotizacionItem, error)
	HeaderExists(ctx context.Context, propuestaID string) (bool, error)
	UpsertHeader(ctx context.Context, c *model.Cotizacion) error
	// ReplaceItems deletes every item row of the proposal and re-inserts the
	// given sequence. Delete-then-reinsert avoids stale trailing rows when
	// the item count shrinks across edits.
	ReplaceItems(ctx context.Context, propuestaID string, items []model.CotizacionItem) error
	NextSequence(ctx context.Context) (int, error)
	List(ctx context.Context, filter dto.CotizacionFilter) ([]model.Cotizacion, int64, error)
}

type cotizacionRepo struct{ db *gorm.DB }

func NewCotizacionRepository(db *gorm.DB) CotizacionRepository { return &cotizacionRepo{db: db} }

func (r *cotizacionRepo) GetHeader(ctx context.Context, propuestaID string) (*model.Cotizacion, error) {
	var c model.Cotizacion
	err := r.db.WithContext(ctx).Where("propuesta_id = ?", propuestaID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cotizacionRepo) GetItems(ctx context.Context, propuestaID string) ([]model.CotizacionItem, error) {
	var items []model.CotizacionItem
	err := r.db.WithContext(ctx).
		Where("propuesta_id = ?", propuestaID).
		Order("posicion ASC").
		Find(&items).Error
	return items, err
}

func (r *cotizacionRepo) HeaderExists(ctx context.Context, propuestaID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Cotizacion{}).
		Where("propuesta_id = ?", propuestaID).
		Count(&count).Error
	return count > 0, err
}

// UpsertHeader inserts the header row or overwrites it in place by
// propuesta_id. Blind overwrite: no version column, no conflict detection —
// concurrent saves of the same proposal are last-write-wins, matching the
// single-operator usage the tool was built for.
func (r *cotizacionRepo) UpsertHeader(ctx context.Context, c *model.Cotizacion) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "propuesta_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"vendedor", "cliente_nombre", "cliente_nit", "estado", "tasa_iva",
			"subtotal_bruto", "descuento_total", "base_gravable", "iva",
			"total_neto", "costo_total", "margen_absoluto", "margen_pct",
			"observaciones", "updated_at",
		}),
	}).Create(c).Error
}

func (r *cotizacionRepo) ReplaceItems(ctx context.Context, propuestaID string, items []model.CotizacionItem) error {
	if err := r.db.WithContext(ctx).
		Where("propuesta_id = ?", propuestaID).
		Delete(&model.CotizacionItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *cotizacionRepo) NextSequence(ctx context.Context) (int, error) {
	// PostgreSQL sequence for atomic proposal numbering (created in
	// infra.NewDatabase). Gaps after failed saves are acceptable.
	var num int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('propuestas_numero_seq')").Scan(&num).Error
	return num, err
}

func (r *cotizacionRepo) List(ctx context.Context, filter dto.CotizacionFilter) ([]model.Cotizacion, int64, error) {
	var cots []model.Cotizacion
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Cotizacion{})
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Fecha != "" {
		q = q.Where("DATE(created_at) = ?", filter.Fecha)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&cots).Error
	return cots, total, err
}
