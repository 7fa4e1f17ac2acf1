package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DiegoMao201/Cotizador-sub000/internal/dto"
	"github.com/DiegoMao201/Cotizador-sub000/internal/model"
	"github.com/DiegoMao201/Cotizador-sub000/internal/repository"

	"github.com/redis/go-redis/v9"
)

// ProductoService is the catalog search the quote grid pulls from. Results
// are cached in Redis per query — the catalog changes once a day (seeder),
// the grid queries it on every keystroke.
type ProductoService interface {
	Buscar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
}

type productoService struct {
	repo repository.ProductoRepository
	rdb  *redis.Client
}

func NewProductoService(repo repository.ProductoRepository, rdb *redis.Client) ProductoService {
	return &productoService{repo: repo, rdb: rdb}
}

const cacheTTLCatalogo = 10 * time.Minute

func (s *productoService) Buscar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	key := "catalogo:busqueda:" + filter.Busqueda

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var resp dto.ProductoListResponse
			if json.Unmarshal(cached, &resp) == nil {
				return &resp, nil
			}
		}
	}

	productos, err := s.repo.Search(ctx, filter.Busqueda, filter.Limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductoListResponse{}
	for _, p := range productos {
		resp.Data = append(resp.Data, productoToResponse(&p))
	}

	if s.rdb != nil {
		if encoded, err := json.Marshal(resp); err == nil {
			_ = s.rdb.Set(ctx, key, encoded, cacheTTLCatalogo).Err()
		}
	}
	return resp, nil
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		Referencia:   p.Referencia,
		Nombre:       p.Nombre,
		PrecioVenta:  p.PrecioVenta,
		PrecioCosto:  p.PrecioCosto,
		StockActual:  p.StockActual,
		UnidadMedida: p.UnidadMedida,
	}
}
