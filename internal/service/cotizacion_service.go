package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DiegoMao201/Cotizador-sub000/internal/config"
	"github.com/DiegoMao201/Cotizador-sub000/internal/dto"
	"github.com/DiegoMao201/Cotizador-sub000/internal/infra"
	"github.com/DiegoMao201/Cotizador-sub000/internal/model"
	"github.com/DiegoMao201/Cotizador-sub000/internal/repository"
	"github.com/DiegoMao201/Cotizador-sub000/internal/worker"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CotizacionService owns the quote lifecycle: draft creation, item
// mutations, client assignment, load/save reconciliation against the
// tabular store, and dispatch of the rendered document.
//
// There is no server-side quote singleton: every operation receives or
// returns the aggregate explicitly. Saves are blind overwrites with no
// conflict detection — two operators saving the same proposal id
// concurrently is last-write-wins, an accepted limitation of the
// single-operator workflow (see Guardar).
type CotizacionService interface {
	Nueva() *model.Cotizacion
	Descartar() *model.Cotizacion
	AgregarItem(c *model.Cotizacion, req dto.ItemCotizacionRequest) error
	ActualizarItems(c *model.Cotizacion, reqs []dto.ItemCotizacionRequest) []dto.ItemRechazado
	QuitarItems(c *model.Cotizacion)
	Cargar(ctx context.Context, propuestaID string) (*dto.CotizacionResponse, error)
	Guardar(ctx context.Context, propuestaID string, req dto.GuardarCotizacionRequest) (*dto.CotizacionResponse, error)
	Listar(ctx context.Context, filter dto.CotizacionFilter) (*dto.CotizacionListResponse, error)
	Enviar(ctx context.Context, propuestaID string, req dto.EnviarCotizacionRequest) (*dto.EnviarCotizacionResponse, error)
}

type cotizacionService struct {
	repo       repository.CotizacionRepository
	clientes   repository.ClienteRepository
	dispatcher *worker.Dispatcher
	cfg        *config.Config
}

func NewCotizacionService(
	repo repository.CotizacionRepository,
	clientes repository.ClienteRepository,
	dispatcher *worker.Dispatcher,
	cfg *config.Config,
) CotizacionService {
	return &cotizacionService{repo: repo, clientes: clientes, dispatcher: dispatcher, cfg: cfg}
}

const draftPrefix = "BORRADOR-"

// ── Nueva / Descartar ────────────────────────────────────────────────────────

// Nueva returns a fresh Draft aggregate with a timestamp draft id. The draft
// id is provisional: the first Guardar replaces it with PROP-<año>-<seq>.
func (s *cotizacionService) Nueva() *model.Cotizacion {
	c := &model.Cotizacion{
		PropuestaID:   draftPrefix + time.Now().Format("20060102150405"),
		Estado:        model.EstadoBorrador,
		TasaIVA:       s.cfg.TasaIVA(),
		Observaciones: s.cfg.Observaciones,
		CreatedAt:     time.Now(),
	}
	c.Recalcular()
	return c
}

// Descartar abandons the in-memory aggregate and hands back a fresh draft.
// Never touches the store.
func (s *cotizacionService) Descartar() *model.Cotizacion { return s.Nueva() }

// ── Mutaciones de items ──────────────────────────────────────────────────────

// AgregarItem validates and appends one line, then recomputes the aggregate.
func (s *cotizacionService) AgregarItem(c *model.Cotizacion, req dto.ItemCotizacionRequest) error {
	item := itemFromRequest(req)
	if err := item.Validar(); err != nil {
		return err
	}
	c.Items = append(c.Items, item)
	c.Recalcular()
	return nil
}

// ActualizarItems replaces the item sequence wholesale (inline grid edit).
// Each incoming row is re-validated; an invalid row keeps the previous row
// at its position (or is dropped when there is no previous row) and is
// reported back. Recompute always follows.
func (s *cotizacionService) ActualizarItems(c *model.Cotizacion, reqs []dto.ItemCotizacionRequest) []dto.ItemRechazado {
	prev := c.Items
	next := make([]model.CotizacionItem, 0, len(reqs))
	var rechazados []dto.ItemRechazado

	for idx, req := range reqs {
		item := itemFromRequest(req)
		if err := item.Validar(); err != nil {
			rechazados = append(rechazados, dto.ItemRechazado{Posicion: idx, Motivo: err.Error()})
			if idx < len(prev) {
				next = append(next, prev[idx])
			}
			continue
		}
		next = append(next, item)
	}

	c.Items = next
	c.Recalcular()
	return rechazados
}

// QuitarItems clears the cart; every aggregate field goes to zero.
func (s *cotizacionService) QuitarItems(c *model.Cotizacion) {
	c.Items = nil
	c.Recalcular()
}

func itemFromRequest(req dto.ItemCotizacionRequest) model.CotizacionItem {
	return model.CotizacionItem{
		Referencia:     req.Referencia,
		Nombre:         req.Nombre,
		Cantidad:       req.Cantidad,
		PrecioUnitario: req.PrecioUnitario,
		Costo:          req.Costo,
		DescuentoPct:   req.DescuentoPct,
		StockActual:    req.StockActual,
	}
}

// ── Cargar ───────────────────────────────────────────────────────────────────

// Cargar reconstructs the aggregate from the store and recomputes every
// derived total from the item rows — the persisted totals columns are only a
// cache and are never trusted. The attached client is re-resolved by name
// against the directory; a miss clears the reference and is reported as a
// non-fatal warning in the response, not an error.
func (s *cotizacionService) Cargar(ctx context.Context, propuestaID string) (*dto.CotizacionResponse, error) {
	header, err := s.repo.GetHeader(ctx, propuestaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", model.ErrPropuestaNoEncontrada, propuestaID)
		}
		return nil, fmt.Errorf("%w: leyendo encabezado %s: %w", model.ErrPersistencia, propuestaID, err)
	}

	items, err := s.repo.GetItems(ctx, propuestaID)
	if err != nil {
		return nil, fmt.Errorf("%w: leyendo items %s: %w", model.ErrPersistencia, propuestaID, err)
	}
	header.Items = items
	header.Recalcular()

	clienteEncontrado := true
	if header.ClienteNombre != "" {
		cli, cliErr := s.clientes.FindByNombre(ctx, header.ClienteNombre)
		switch {
		case cliErr == nil:
			// Refresh the snapshot with current directory data.
			header.ClienteNIT = cli.NIT
		case errors.Is(cliErr, gorm.ErrRecordNotFound):
			// Directory miss is non-fatal: clear the reference and warn.
			log.Warn().
				Str("propuesta_id", propuestaID).
				Str("cliente", header.ClienteNombre).
				Msg("cliente ya no existe en el directorio — referencia limpiada")
			header.ClienteNombre = ""
			header.ClienteNIT = ""
			clienteEncontrado = false
		default:
			// A directory-store fault is not a miss; the snapshot stays.
			return nil, fmt.Errorf("%w: buscando cliente %s: %w", model.ErrPersistencia, header.ClienteNombre, cliErr)
		}
	}

	resp := cotizacionToResponse(header)
	resp.ClienteEncontrado = clienteEncontrado
	return resp, nil
}

// ── Guardar ──────────────────────────────────────────────────────────────────

// Guardar reconciles the incoming aggregate with the store:
//
//   - unknown proposal id → allocate PROP-<año>-<seq> and insert header+items
//   - known id → overwrite the header in place, delete all item rows and
//     re-insert the current sequence
//
// Header upsert and item replace are two independent store calls; a fault in
// either surfaces as ErrPersistencia and the caller re-attempts the whole
// save — nothing in memory is discarded. No locking, no version check: the
// later of two concurrent saves wins silently.
func (s *cotizacionService) Guardar(ctx context.Context, propuestaID string, req dto.GuardarCotizacionRequest) (*dto.CotizacionResponse, error) {
	header, prevItems, err := s.cargarOPreparar(ctx, propuestaID)
	if err != nil {
		return nil, err
	}

	if req.Vendedor != "" {
		header.Vendedor = req.Vendedor
	}
	if req.Observaciones != "" {
		header.Observaciones = req.Observaciones
	}
	if req.Estado != "" && model.EstadoValido(req.Estado) {
		header.Estado = req.Estado
	}

	if err := s.asignarCliente(ctx, header, req.ClienteNombre); err != nil {
		return nil, err
	}

	header.Items = prevItems
	rechazados := s.ActualizarItems(header, req.Items)

	if err := s.persistir(ctx, header); err != nil {
		return nil, err
	}

	resp := cotizacionToResponse(header)
	resp.ClienteEncontrado = true
	resp.ItemsRechazados = rechazados
	return resp, nil
}

// cargarOPreparar fetches the existing header+items for an update-in-place,
// or builds a fresh draft when the id is unknown to the store.
func (s *cotizacionService) cargarOPreparar(ctx context.Context, propuestaID string) (*model.Cotizacion, []model.CotizacionItem, error) {
	if propuestaID != "" && !strings.HasPrefix(propuestaID, draftPrefix) {
		header, err := s.repo.GetHeader(ctx, propuestaID)
		switch {
		case err == nil:
			prev, itemsErr := s.repo.GetItems(ctx, propuestaID)
			if itemsErr != nil {
				return nil, nil, fmt.Errorf("%w: leyendo items %s: %w", model.ErrPersistencia, propuestaID, itemsErr)
			}
			return header, prev, nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			// fall through: treat as first save
		default:
			return nil, nil, fmt.Errorf("%w: leyendo encabezado %s: %w", model.ErrPersistencia, propuestaID, err)
		}
	}

	header := s.Nueva()
	if propuestaID != "" {
		header.PropuestaID = propuestaID
	}
	return header, nil, nil
}

// asignarCliente updates the client snapshot. The snapshot is copy-in: when
// the name is unchanged the stored NIT survives even if the directory entry
// was deleted, so re-saving an old quote never fails on a dead client.
// Assigning a NEW name that the directory does not know is an error.
func (s *cotizacionService) asignarCliente(ctx context.Context, header *model.Cotizacion, nombre string) error {
	if nombre == "" || nombre == header.ClienteNombre {
		return nil
	}
	cli, err := s.clientes.FindByNombre(ctx, nombre)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", model.ErrClienteNoEncontrado, nombre)
		}
		return fmt.Errorf("%w: buscando cliente %s: %w", model.ErrPersistencia, nombre, err)
	}
	header.ClienteNombre = cli.Nombre
	header.ClienteNIT = cli.NIT
	return nil
}

func (s *cotizacionService) persistir(ctx context.Context, header *model.Cotizacion) error {
	header.Recalcular()

	exists, err := s.repo.HeaderExists(ctx, header.PropuestaID)
	if err != nil {
		return fmt.Errorf("%w: verificando %s: %w", model.ErrPersistencia, header.PropuestaID, err)
	}
	if !exists {
		seq, seqErr := s.repo.NextSequence(ctx)
		if seqErr != nil {
			return fmt.Errorf("%w: asignando numero de propuesta: %w", model.ErrPersistencia, seqErr)
		}
		header.PropuestaID = fmt.Sprintf("PROP-%d-%04d", time.Now().Year(), seq)
	}

	for idx := range header.Items {
		header.Items[idx].PropuestaID = header.PropuestaID
		header.Items[idx].Posicion = idx
	}

	if err := s.repo.UpsertHeader(ctx, header); err != nil {
		return fmt.Errorf("%w: escribiendo encabezado %s: %w", model.ErrPersistencia, header.PropuestaID, err)
	}
	if err := s.repo.ReplaceItems(ctx, header.PropuestaID, header.Items); err != nil {
		return fmt.Errorf("%w: escribiendo items %s: %w", model.ErrPersistencia, header.PropuestaID, err)
	}
	return nil
}

// ── Listar ───────────────────────────────────────────────────────────────────

func (s *cotizacionService) Listar(ctx context.Context, filter dto.CotizacionFilter) (*dto.CotizacionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	cots, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CotizacionListItem, 0, len(cots))
	for _, c := range cots {
		items = append(items, dto.CotizacionListItem{
			PropuestaID:   c.PropuestaID,
			Vendedor:      c.Vendedor,
			ClienteNombre: c.ClienteNombre,
			Estado:        c.Estado,
			TotalNeto:     c.TotalNeto,
			MargenPct:     c.MargenPct,
			CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return &dto.CotizacionListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Enviar ───────────────────────────────────────────────────────────────────

// Enviar marks a persisted quote as enviada and hands it to the delivery
// channel: email delivery goes through the async worker (render PDF + SMTP),
// whatsapp delivery returns a wa.me share link for the seller to open.
func (s *cotizacionService) Enviar(ctx context.Context, propuestaID string, req dto.EnviarCotizacionRequest) (*dto.EnviarCotizacionResponse, error) {
	header, err := s.repo.GetHeader(ctx, propuestaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", model.ErrPropuestaNoEncontrada, propuestaID)
		}
		return nil, fmt.Errorf("%w: leyendo encabezado %s: %w", model.ErrPersistencia, propuestaID, err)
	}

	header.Estado = model.EstadoEnviada
	if err := s.repo.UpsertHeader(ctx, header); err != nil {
		return nil, fmt.Errorf("%w: marcando enviada %s: %w", model.ErrPersistencia, propuestaID, err)
	}

	resp := &dto.EnviarCotizacionResponse{PropuestaID: propuestaID, Canal: req.Canal}

	switch req.Canal {
	case "whatsapp":
		mensaje := req.Mensaje
		if mensaje == "" {
			mensaje = fmt.Sprintf("Hola! Te comparto la cotización %s de %s por un total de $%s.",
				propuestaID, s.cfg.EmpresaNombre, header.TotalNeto.StringFixed(2))
		}
		resp.WhatsAppURL = infra.WhatsAppLink(req.Destinatario, mensaje)
	default: // email
		if s.dispatcher != nil {
			payload := worker.EntregaJobPayload{
				PropuestaID: propuestaID,
				ToEmail:     req.Destinatario,
				Asunto:      fmt.Sprintf("Cotización %s — %s", propuestaID, s.cfg.EmpresaNombre),
				Cuerpo:      req.Mensaje,
			}
			if err := s.dispatcher.EnqueueEntrega(ctx, payload); err != nil {
				log.Error().Err(err).Str("propuesta_id", propuestaID).Msg("no se pudo encolar la entrega")
				return resp, nil
			}
			resp.Encolado = true
		}
	}
	return resp, nil
}

// ── Mapeo a DTO ──────────────────────────────────────────────────────────────

// ToResponse maps an in-memory aggregate to its API shape. Exposed for the
// handlers that hand out fresh drafts.
func ToResponse(c *model.Cotizacion) *dto.CotizacionResponse {
	resp := cotizacionToResponse(c)
	resp.ClienteEncontrado = true
	return resp
}

func cotizacionToResponse(c *model.Cotizacion) *dto.CotizacionResponse {
	items := make([]dto.ItemCotizacionResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, dto.ItemCotizacionResponse{
			Referencia:     it.Referencia,
			Nombre:         it.Nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			DescuentoPct:   it.DescuentoPct,
			DescuentoValor: it.DescuentoValor,
			TotalLinea:     it.TotalLinea,
			StockActual:    it.StockActual,
		})
	}
	return &dto.CotizacionResponse{
		PropuestaID:   c.PropuestaID,
		Vendedor:      c.Vendedor,
		ClienteNombre: c.ClienteNombre,
		ClienteNIT:    c.ClienteNIT,
		Estado:        c.Estado,
		TasaIVA:       c.TasaIVA,
		Items:         items,
		Totales: model.Totales{
			SubtotalBruto:  c.SubtotalBruto,
			DescuentoTotal: c.DescuentoTotal,
			BaseGravable:   c.BaseGravable,
			IVA:            c.IVA,
			TotalNeto:      c.TotalNeto,
			CostoTotal:     c.CostoTotal,
			MargenAbsoluto: c.MargenAbsoluto,
			MargenPct:      c.MargenPct,
		},
		Observaciones: c.Observaciones,
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
