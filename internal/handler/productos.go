package handler

import (
	"net/http"

	"github.com/DiegoMao201/Cotizador-sub000/internal/apierror"
	"github.com/DiegoMao201/Cotizador-sub000/internal/dto"
	"github.com/DiegoMao201/Cotizador-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct{ svc service.ProductoService }

func NewProductosHandler(svc service.ProductoService) *ProductosHandler {
	return &ProductosHandler{svc: svc}
}

// Buscar godoc
// @Summary      Buscar en el catálogo
// @Description  Referencia exacta o nombre parcial; resultados cacheados en Redis.
// @Tags         productos
// @Produce      json
// @Param        q     query string false "Referencia o nombre"
// @Param        limit query int    false "Máximo de resultados (default 20)"
// @Success      200 {object} dto.ProductoListResponse
// @Router       /v1/productos [get]
func (h *ProductosHandler) Buscar(c *gin.Context) {
	var filter dto.ProductoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Buscar(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al buscar productos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
