package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DiegoMao201/Cotizador-sub000/internal/config"
	"github.com/DiegoMao201/Cotizador-sub000/internal/dto"
	"github.com/DiegoMao201/Cotizador-sub000/internal/model"
	"github.com/DiegoMao201/Cotizador-sub000/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubCotizacionRepo is an in-memory tabular store. Header and item maps are
// independent, like the real adapter's independent calls.
type stubCotizacionRepo struct {
	headers map[string]model.Cotizacion
	items   map[string][]model.CotizacionItem
	seq     int

	failUpsert  bool
	failReplace bool
}

func newStubCotizacionRepo() *stubCotizacionRepo {
	return &stubCotizacionRepo{
		headers: make(map[string]model.Cotizacion),
		items:   make(map[string][]model.CotizacionItem),
	}
}

func (r *stubCotizacionRepo) GetHeader(_ context.Context, id string) (*model.Cotizacion, error) {
	h, ok := r.headers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := h
	copia.Items = nil
	return &copia, nil
}

func (r *stubCotizacionRepo) GetItems(_ context.Context, id string) ([]model.CotizacionItem, error) {
	return append([]model.CotizacionItem(nil), r.items[id]...), nil
}

func (r *stubCotizacionRepo) HeaderExists(_ context.Context, id string) (bool, error) {
	_, ok := r.headers[id]
	return ok, nil
}

func (r *stubCotizacionRepo) UpsertHeader(_ context.Context, c *model.Cotizacion) error {
	if r.failUpsert {
		return errors.New("store caido")
	}
	copia := *c
	copia.Items = nil
	r.headers[c.PropuestaID] = copia
	return nil
}

func (r *stubCotizacionRepo) ReplaceItems(_ context.Context, id string, items []model.CotizacionItem) error {
	if r.failReplace {
		return errors.New("store caido")
	}
	r.items[id] = append([]model.CotizacionItem(nil), items...)
	return nil
}

func (r *stubCotizacionRepo) NextSequence(_ context.Context) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubCotizacionRepo) List(_ context.Context, _ dto.CotizacionFilter) ([]model.Cotizacion, int64, error) {
	var out []model.Cotizacion
	for _, h := range r.headers {
		out = append(out, h)
	}
	return out, int64(len(out)), nil
}

var _ repository.CotizacionRepository = (*stubCotizacionRepo)(nil)

// stubClienteRepo is an in-memory client directory keyed by nombre.
type stubClienteRepo struct {
	clientes map[string]model.Cliente

	failFind error
}

func newStubClienteRepo(clientes ...model.Cliente) *stubClienteRepo {
	s := &stubClienteRepo{clientes: make(map[string]model.Cliente)}
	for _, c := range clientes {
		s.clientes[c.Nombre] = c
	}
	return s
}

func (r *stubClienteRepo) FindByNombre(_ context.Context, nombre string) (*model.Cliente, error) {
	if r.failFind != nil {
		return nil, r.failFind
	}
	c, ok := r.clientes[nombre]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *stubClienteRepo) List(_ context.Context) ([]model.Cliente, int64, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	r.clientes[c.Nombre] = *c
	return nil
}

func (r *stubClienteRepo) Upsert(_ context.Context, c *model.Cliente) error {
	r.clientes[c.Nombre] = *c
	return nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		IVARate:       "0.19",
		EmpresaNombre: "Ferreinox SAS BIC",
		Observaciones: "Validez de la oferta: 15 dias.",
	}
}

func newTestService(repo *stubCotizacionRepo, clientes *stubClienteRepo) CotizacionService {
	return NewCotizacionService(repo, clientes, nil, testConfig())
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func itemReq(ref string, cantidad int, precio, descuento string) dto.ItemCotizacionRequest {
	return dto.ItemCotizacionRequest{
		Referencia:     ref,
		Nombre:         "Producto " + ref,
		Cantidad:       cantidad,
		PrecioUnitario: dec(precio),
		DescuentoPct:   dec(descuento),
	}
}

// ── Nueva / Descartar ────────────────────────────────────────────────────────

func TestNueva(t *testing.T) {
	svc := newTestService(newStubCotizacionRepo(), newStubClienteRepo())

	cot := svc.Nueva()

	assert.True(t, strings.HasPrefix(cot.PropuestaID, "BORRADOR-"))
	assert.Equal(t, model.EstadoBorrador, cot.Estado)
	assert.Empty(t, cot.Items)
	assert.True(t, cot.TotalNeto.IsZero())
	assert.True(t, cot.TasaIVA.Equal(dec("0.19")))
	assert.NotEmpty(t, cot.Observaciones)
}

func TestDescartar_NoTocaElStore(t *testing.T) {
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, newStubClienteRepo())

	cot := svc.Nueva()
	require.NoError(t, svc.AgregarItem(cot, itemReq("TORN-001", 5, "1200", "0")))

	fresco := svc.Descartar()

	assert.Empty(t, fresco.Items)
	assert.True(t, strings.HasPrefix(fresco.PropuestaID, "BORRADOR-"))
	assert.Empty(t, repo.headers, "descartar no debe escribir nada")
}

// ── Mutaciones de items ──────────────────────────────────────────────────────

func TestAgregarItem_Valido(t *testing.T) {
	svc := newTestService(newStubCotizacionRepo(), newStubClienteRepo())
	cot := svc.Nueva()

	require.NoError(t, svc.AgregarItem(cot, itemReq("MART-010", 2, "45000", "10")))

	require.Len(t, cot.Items, 1)
	assert.True(t, cot.Items[0].TotalLinea.Equal(dec("81000")))
	assert.True(t, cot.SubtotalBruto.Equal(dec("90000")))
	assert.True(t, cot.DescuentoTotal.Equal(dec("9000")))
}

func TestAgregarItem_Invalido(t *testing.T) {
	svc := newTestService(newStubCotizacionRepo(), newStubClienteRepo())
	cot := svc.Nueva()

	err := svc.AgregarItem(cot, itemReq("MART-010", 0, "45000", "0"))

	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, cot.Items, "un item invalido nunca entra al agregado")
	assert.True(t, cot.TotalNeto.IsZero())
}

func TestActualizarItems_FilaInvalidaRetieneLaAnterior(t *testing.T) {
	svc := newTestService(newStubCotizacionRepo(), newStubClienteRepo())
	cot := svc.Nueva()
	require.NoError(t, svc.AgregarItem(cot, itemReq("TORN-001", 10, "500", "0")))
	require.NoError(t, svc.AgregarItem(cot, itemReq("TUER-002", 20, "300", "0")))

	rechazados := svc.ActualizarItems(cot, []dto.ItemCotizacionRequest{
		itemReq("TORN-001", 15, "500", "0"),  // edicion valida
		itemReq("TUER-002", 20, "300", "150"), // descuento fuera de rango
	})

	require.Len(t, rechazados, 1)
	assert.Equal(t, 1, rechazados[0].Posicion)
	require.Len(t, cot.Items, 2)
	assert.Equal(t, 15, cot.Items[0].Cantidad, "fila valida aplicada")
	assert.True(t, cot.Items[1].DescuentoPct.IsZero(), "fila invalida retiene la version previa")
}

func TestActualizarItems_FilaNuevaInvalidaSeDescarta(t *testing.T) {
	svc := newTestService(newStubCotizacionRepo(), newStubClienteRepo())
	cot := svc.Nueva()

	rechazados := svc.ActualizarItems(cot, []dto.ItemCotizacionRequest{
		itemReq("TORN-001", 1, "500", "0"),
		itemReq("MALO-999", -3, "100", "0"), // sin fila previa que retener
	})

	require.Len(t, rechazados, 1)
	assert.Len(t, cot.Items, 1)
}

func TestQuitarItems_TodoACero(t *testing.T) {
	svc := newTestService(newStubCotizacionRepo(), newStubClienteRepo())
	cot := svc.Nueva()
	require.NoError(t, svc.AgregarItem(cot, itemReq("TORN-001", 10, "500", "5")))

	svc.QuitarItems(cot)

	assert.Empty(t, cot.Items)
	assert.True(t, cot.SubtotalBruto.IsZero())
	assert.True(t, cot.DescuentoTotal.IsZero())
	assert.True(t, cot.BaseGravable.IsZero())
	assert.True(t, cot.IVA.IsZero())
	assert.True(t, cot.TotalNeto.IsZero())
}

// ── Guardar ──────────────────────────────────────────────────────────────────

func TestGuardar_PrimerGuardadoAsignaPropuestaID(t *testing.T) {
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, newStubClienteRepo())

	resp, err := svc.Guardar(context.Background(), "BORRADOR-20260831120000", dto.GuardarCotizacionRequest{
		Vendedor: "Diego",
		Items:    []dto.ItemCotizacionRequest{itemReq("TORN-001", 2, "100000", "10")},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.PropuestaID, "PROP-"), "id: %s", resp.PropuestaID)
	assert.Contains(t, repo.headers, resp.PropuestaID)
	assert.Len(t, repo.items[resp.PropuestaID], 1)
	assert.True(t, resp.Totales.TotalNeto.Equal(dec("214200")))
}

func TestGuardar_ActualizaEnSitioYReemplazaItems(t *testing.T) {
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, newStubClienteRepo())
	ctx := context.Background()

	resp, err := svc.Guardar(ctx, "", dto.GuardarCotizacionRequest{
		Items: []dto.ItemCotizacionRequest{
			itemReq("A", 1, "100", "0"),
			itemReq("B", 2, "200", "0"),
			itemReq("C", 3, "300", "0"),
		},
	})
	require.NoError(t, err)
	id := resp.PropuestaID

	// Second save shrinks the cart: delete+reinsert must not leave stale rows.
	resp2, err := svc.Guardar(ctx, id, dto.GuardarCotizacionRequest{
		Items: []dto.ItemCotizacionRequest{itemReq("A", 1, "100", "0")},
	})
	require.NoError(t, err)

	assert.Equal(t, id, resp2.PropuestaID, "el id es inmutable tras persistir")
	assert.Len(t, repo.items[id], 1, "sin filas obsoletas tras reducir el carrito")
	assert.Equal(t, 1, repo.seq, "la secuencia solo se consume en el primer guardado")
}

func TestGuardar_UltimoGana(t *testing.T) {
	// Two sessions saving the same id: the later write wins silently,
	// no conflict error.
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, newStubClienteRepo())
	ctx := context.Background()

	resp, err := svc.Guardar(ctx, "", dto.GuardarCotizacionRequest{
		Items: []dto.ItemCotizacionRequest{itemReq("A", 1, "100", "0")},
	})
	require.NoError(t, err)
	id := resp.PropuestaID

	_, err = svc.Guardar(ctx, id, dto.GuardarCotizacionRequest{
		Items: []dto.ItemCotizacionRequest{itemReq("B", 5, "900", "0")},
	})
	require.NoError(t, err)

	_, err = svc.Guardar(ctx, id, dto.GuardarCotizacionRequest{
		Items: []dto.ItemCotizacionRequest{itemReq("C", 7, "111", "0")},
	})
	require.NoError(t, err)

	require.Len(t, repo.items[id], 1)
	assert.Equal(t, "C", repo.items[id][0].Referencia)
}

func TestGuardar_FallaDePersistencia(t *testing.T) {
	repo := newStubCotizacionRepo()
	repo.failUpsert = true
	svc := newTestService(repo, newStubClienteRepo())

	_, err := svc.Guardar(context.Background(), "", dto.GuardarCotizacionRequest{
		Items: []dto.ItemCotizacionRequest{itemReq("A", 1, "100", "0")},
	})

	assert.ErrorIs(t, err, model.ErrPersistencia)
	assert.Empty(t, repo.headers, "nada comprometido tras el fallo")
}

func TestGuardar_FallaParcialItems(t *testing.T) {
	// The adapter contract treats header upsert and item replace as
	// independent calls: the header can land while the items fail. The
	// caller re-attempts the save as a whole.
	repo := newStubCotizacionRepo()
	repo.failReplace = true
	svc := newTestService(repo, newStubClienteRepo())

	_, err := svc.Guardar(context.Background(), "", dto.GuardarCotizacionRequest{
		Items: []dto.ItemCotizacionRequest{itemReq("A", 1, "100", "0")},
	})

	require.ErrorIs(t, err, model.ErrPersistencia)
	assert.Len(t, repo.headers, 1, "el encabezado alcanzo a escribirse")

	// Retry after the store recovers succeeds as a whole.
	repo.failReplace = false
	var id string
	for k := range repo.headers {
		id = k
	}
	_, err = svc.Guardar(context.Background(), id, dto.GuardarCotizacionRequest{
		Items: []dto.ItemCotizacionRequest{itemReq("A", 1, "100", "0")},
	})
	require.NoError(t, err)
	assert.Len(t, repo.items[id], 1)
}

func TestGuardar_SnapshotDeClienteSobreviveBorrado(t *testing.T) {
	clientes := newStubClienteRepo(model.Cliente{Nombre: "Construcciones XYZ", NIT: "900123456-1"})
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, clientes)
	ctx := context.Background()

	resp, err := svc.Guardar(ctx, "", dto.GuardarCotizacionRequest{
		ClienteNombre: "Construcciones XYZ",
		Items:         []dto.ItemCotizacionRequest{itemReq("A", 1, "100", "0")},
	})
	require.NoError(t, err)
	id := resp.PropuestaID

	// El cliente desaparece del directorio; re-guardar con el mismo nombre
	// conserva el snapshot nombre/NIT.
	delete(clientes.clientes, "Construcciones XYZ")

	resp2, err := svc.Guardar(ctx, id, dto.GuardarCotizacionRequest{
		ClienteNombre: "Construcciones XYZ",
		Items:         []dto.ItemCotizacionRequest{itemReq("A", 2, "100", "0")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Construcciones XYZ", resp2.ClienteNombre)
	assert.Equal(t, "900123456-1", resp2.ClienteNIT)
	assert.Equal(t, "900123456-1", repo.headers[id].ClienteNIT)
}

func TestGuardar_ClienteNuevoDesconocido(t *testing.T) {
	svc := newTestService(newStubCotizacionRepo(), newStubClienteRepo())

	_, err := svc.Guardar(context.Background(), "", dto.GuardarCotizacionRequest{
		ClienteNombre: "No Existe SAS",
		Items:         []dto.ItemCotizacionRequest{itemReq("A", 1, "100", "0")},
	})

	assert.ErrorIs(t, err, model.ErrClienteNoEncontrado)
}

// ── Cargar ───────────────────────────────────────────────────────────────────

func TestCargar_RoundTrip(t *testing.T) {
	clientes := newStubClienteRepo(model.Cliente{Nombre: "Construcciones XYZ", NIT: "900123456-1"})
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, clientes)
	ctx := context.Background()

	guardada, err := svc.Guardar(ctx, "", dto.GuardarCotizacionRequest{
		Vendedor:      "Diego",
		ClienteNombre: "Construcciones XYZ",
		Items: []dto.ItemCotizacionRequest{
			itemReq("TORN-001", 2, "100000", "10"),
			itemReq("MART-010", 1, "45000", "0"),
		},
	})
	require.NoError(t, err)

	cargada, err := svc.Cargar(ctx, guardada.PropuestaID)
	require.NoError(t, err)

	assert.Equal(t, guardada.PropuestaID, cargada.PropuestaID)
	require.Len(t, cargada.Items, 2)
	assert.Equal(t, guardada.Items, cargada.Items)
	assert.True(t, guardada.Totales.TotalNeto.Equal(cargada.Totales.TotalNeto))
	assert.True(t, guardada.Totales.SubtotalBruto.Equal(cargada.Totales.SubtotalBruto))
	assert.True(t, cargada.ClienteEncontrado)
}

func TestCargar_PropuestaDesconocida(t *testing.T) {
	svc := newTestService(newStubCotizacionRepo(), newStubClienteRepo())

	_, err := svc.Cargar(context.Background(), "PROP-UNKNOWN")

	assert.ErrorIs(t, err, model.ErrPropuestaNoEncontrada)
}

func TestCargar_RecomputaDefensivamente(t *testing.T) {
	// Los totales persistidos son solo cache: un encabezado con totales
	// adulterados se corrige al cargar, los items mandan.
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, newStubClienteRepo())

	repo.headers["PROP-2026-0001"] = model.Cotizacion{
		PropuestaID: "PROP-2026-0001",
		Estado:      model.EstadoBorrador,
		TasaIVA:     dec("0.19"),
		TotalNeto:   dec("999999999"), // cache corrupto
	}
	repo.items["PROP-2026-0001"] = []model.CotizacionItem{
		{Referencia: "A", Nombre: "A", Cantidad: 2, PrecioUnitario: dec("100000"), DescuentoPct: dec("10")},
	}

	resp, err := svc.Cargar(context.Background(), "PROP-2026-0001")
	require.NoError(t, err)

	assert.True(t, resp.Totales.TotalNeto.Equal(dec("214200")), "total recalculado: %s", resp.Totales.TotalNeto)
}

func TestCargar_ClienteBorradoEsAdvertenciaNoError(t *testing.T) {
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, newStubClienteRepo()) // directorio vacio

	repo.headers["PROP-2026-0002"] = model.Cotizacion{
		PropuestaID:   "PROP-2026-0002",
		ClienteNombre: "Cliente Fantasma",
		ClienteNIT:    "800000000-0",
		TasaIVA:       dec("0.19"),
	}

	resp, err := svc.Cargar(context.Background(), "PROP-2026-0002")
	require.NoError(t, err, "cliente desaparecido no debe abortar la carga")

	assert.False(t, resp.ClienteEncontrado)
	assert.Empty(t, resp.ClienteNombre)
	assert.Empty(t, resp.ClienteNIT)
}

func TestCargar_FallaDelDirectorioNoLimpiaElSnapshot(t *testing.T) {
	// Una caída del directorio no es un "cliente borrado": la carga falla
	// con error de persistencia y el snapshot queda intacto en el store.
	repo := newStubCotizacionRepo()
	clientes := newStubClienteRepo()
	clientes.failFind = errors.New("directorio caido")
	svc := newTestService(repo, clientes)

	repo.headers["PROP-2026-0003"] = model.Cotizacion{
		PropuestaID:   "PROP-2026-0003",
		ClienteNombre: "Construcciones XYZ",
		ClienteNIT:    "900123456-1",
		TasaIVA:       dec("0.19"),
	}

	_, err := svc.Cargar(context.Background(), "PROP-2026-0003")

	assert.ErrorIs(t, err, model.ErrPersistencia)
	assert.Equal(t, "900123456-1", repo.headers["PROP-2026-0003"].ClienteNIT)
}

func TestCargar_CreatedAtEnUTC(t *testing.T) {
	// La fecha sale normalizada a UTC aunque el store la tenga en hora local.
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, newStubClienteRepo())

	bogota := time.FixedZone("America/Bogota", -5*60*60)
	repo.headers["PROP-2026-0004"] = model.Cotizacion{
		PropuestaID: "PROP-2026-0004",
		TasaIVA:     dec("0.19"),
		CreatedAt:   time.Date(2026, 8, 31, 9, 30, 0, 0, bogota),
	}

	resp, err := svc.Cargar(context.Background(), "PROP-2026-0004")
	require.NoError(t, err)

	assert.Equal(t, "2026-08-31T14:30:00Z", resp.CreatedAt)
}

// ── Enviar ───────────────────────────────────────────────────────────────────

func TestEnviar_WhatsAppDevuelveLink(t *testing.T) {
	repo := newStubCotizacionRepo()
	svc := newTestService(repo, newStubClienteRepo())
	ctx := context.Background()

	resp, err := svc.Guardar(ctx, "", dto.GuardarCotizacionRequest{
		Items: []dto.ItemCotizacionRequest{itemReq("A", 1, "100", "0")},
	})
	require.NoError(t, err)

	envio, err := svc.Enviar(ctx, resp.PropuestaID, dto.EnviarCotizacionRequest{
		Canal:        "whatsapp",
		Destinatario: "+57 300 1234567",
	})
	require.NoError(t, err)

	assert.Contains(t, envio.WhatsAppURL, "https://wa.me/573001234567")
	assert.False(t, envio.Encolado)
	assert.Equal(t, model.EstadoEnviada, repo.headers[resp.PropuestaID].Estado)
}

func TestEnviar_PropuestaDesconocida(t *testing.T) {
	svc := newTestService(newStubCotizacionRepo(), newStubClienteRepo())

	_, err := svc.Enviar(context.Background(), "PROP-UNKNOWN", dto.EnviarCotizacionRequest{
		Canal:        "email",
		Destinatario: "x@y.com",
	})

	assert.ErrorIs(t, err, model.ErrPropuestaNoEncontrada)
}
