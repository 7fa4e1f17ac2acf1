package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DiegoMao201/Cotizador-sub000/internal/apierror"
	"github.com/DiegoMao201/Cotizador-sub000/internal/dto"
	"github.com/DiegoMao201/Cotizador-sub000/internal/infra"
	"github.com/DiegoMao201/Cotizador-sub000/internal/model"
	"github.com/DiegoMao201/Cotizador-sub000/internal/repository"
	"github.com/DiegoMao201/Cotizador-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type CotizacionesHandler struct {
	svc     service.CotizacionService
	repo    repository.CotizacionRepository
	empresa infra.EmpresaInfo
}

func NewCotizacionesHandler(svc service.CotizacionService, repo repository.CotizacionRepository, empresa infra.EmpresaInfo) *CotizacionesHandler {
	return &CotizacionesHandler{svc: svc, repo: repo, empresa: empresa}
}

// Nueva godoc
// @Summary      Nueva cotización en borrador
// @Description  Devuelve un agregado en estado borrador con id provisional. No persiste nada.
// @Tags         cotizaciones
// @Produce      json
// @Success      200 {object} dto.CotizacionResponse
// @Router       /v1/cotizaciones [post]
func (h *CotizacionesHandler) Nueva(c *gin.Context) {
	cot := h.svc.Nueva()
	c.JSON(http.StatusOK, service.ToResponse(cot))
}

// Listar godoc
// @Summary      Listar cotizaciones
// @Description  Lista paginada de encabezados, filtrada por estado y fecha.
// @Tags         cotizaciones
// @Produce      json
// @Param        estado query string false "borrador | enviada | aceptada | rechazada | all"
// @Param        fecha  query string false "Fecha YYYY-MM-DD"
// @Param        page   query int    false "Página (default 1)"
// @Param        limit  query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.CotizacionListResponse
// @Router       /v1/cotizaciones [get]
func (h *CotizacionesHandler) Listar(c *gin.Context) {
	var filter dto.CotizacionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar cotizaciones"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cargar godoc
// @Summary      Cargar una cotización
// @Description  Reconstruye el agregado desde el store y recalcula los totales desde los items.
// @Tags         cotizaciones
// @Produce      json
// @Param        id path string true "Propuesta ID (PROP-2026-0001)"
// @Success      200 {object} dto.CotizacionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cotizaciones/{id} [get]
func (h *CotizacionesHandler) Cargar(c *gin.Context) {
	resp, err := h.svc.Cargar(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrPropuestaNoEncontrada) {
			status = http.StatusNotFound
		}
		c.JSON(status, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Guardar godoc
// @Summary      Guardar una cotización
// @Description  Primer guardado asigna PROP-<año>-<seq>; guardados posteriores sobreescriben el encabezado y reemplazan los items (delete+reinsert). Sin detección de conflictos: el último guardado gana.
// @Tags         cotizaciones
// @Accept       json
// @Produce      json
// @Param        id   path string                       true "Propuesta ID (o borrador)"
// @Param        body body dto.GuardarCotizacionRequest true "Agregado completo"
// @Success      200 {object} dto.CotizacionResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/cotizaciones/{id} [put]
func (h *CotizacionesHandler) Guardar(c *gin.Context) {
	var req dto.GuardarCotizacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Guardar(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, model.ErrPersistencia) {
			status = http.StatusBadGateway
		}
		c.JSON(status, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Enviar godoc
// @Summary      Enviar una cotización
// @Description  Marca la cotización como enviada y la entrega: email encola render+SMTP, whatsapp devuelve un link wa.me.
// @Tags         cotizaciones
// @Accept       json
// @Produce      json
// @Param        id   path string                      true "Propuesta ID"
// @Param        body body dto.EnviarCotizacionRequest true "Canal y destinatario"
// @Success      200 {object} dto.EnviarCotizacionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cotizaciones/{id}/enviar [post]
func (h *CotizacionesHandler) Enviar(c *gin.Context) {
	var req dto.EnviarCotizacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Enviar(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrPropuestaNoEncontrada) {
			status = http.StatusNotFound
		}
		c.JSON(status, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF godoc
// @Summary      PDF de la cotización
// @Description  Renderiza el PDF en línea desde el agregado recalculado.
// @Tags         cotizaciones
// @Produce      application/pdf
// @Param        id path string true "Propuesta ID"
// @Success      200
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cotizaciones/{id}/pdf [get]
func (h *CotizacionesHandler) PDF(c *gin.Context) {
	id := c.Param("id")
	cot, err := h.repo.GetHeader(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Cotización no encontrada"))
		return
	}
	items, err := h.repo.GetItems(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("Error leyendo items"))
		return
	}
	cot.Items = items
	cot.Recalcular()

	pdfBytes, err := infra.GenerateCotizacionPDF(cot, h.empresa)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error generando PDF"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=cotizacion_%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
