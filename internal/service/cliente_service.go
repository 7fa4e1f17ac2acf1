package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DiegoMao201/Cotizador-sub000/internal/dto"
	"github.com/DiegoMao201/Cotizador-sub000/internal/model"
	"github.com/DiegoMao201/Cotizador-sub000/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ClienteService exposes the client directory. The directory is external to
// the quoting core: quotes only take name/NIT snapshots from it.
type ClienteService interface {
	Listar(ctx context.Context) (*dto.ClienteListResponse, error)
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
}

type clienteService struct {
	repo repository.ClienteRepository
	rdb  *redis.Client
}

func NewClienteService(repo repository.ClienteRepository, rdb *redis.Client) ClienteService {
	return &clienteService{repo: repo, rdb: rdb}
}

const (
	cacheKeyClientes = "directorio:clientes"
	cacheTTLClientes = 5 * time.Minute
)

func (s *clienteService) Listar(ctx context.Context) (*dto.ClienteListResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKeyClientes).Bytes(); err == nil {
			var resp dto.ClienteListResponse
			if json.Unmarshal(cached, &resp) == nil {
				return &resp, nil
			}
		}
	}

	clientes, total, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.ClienteListResponse{Total: total}
	for _, c := range clientes {
		resp.Data = append(resp.Data, clienteToResponse(&c))
	}

	if s.rdb != nil {
		if encoded, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, cacheKeyClientes, encoded, cacheTTLClientes).Err(); err != nil {
				log.Warn().Err(err).Msg("no se pudo cachear el directorio de clientes")
			}
		}
	}
	return resp, nil
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nombre:    req.Nombre,
		NIT:       req.NIT,
		Telefono:  req.Telefono,
		Email:     req.Email,
		Direccion: req.Direccion,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	// Invalidate the directory cache so the new client is visible at once.
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, cacheKeyClientes).Err()
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func clienteToResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		NIT:       c.NIT,
		Telefono:  c.Telefono,
		Email:     c.Email,
		Direccion: c.Direccion,
	}
}
