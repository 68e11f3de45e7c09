package handler

import (
	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/facet"
	"github.com/fekuna/medequip-catalog-service/internal/facet/dto"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/httpapi"
	"github.com/gin-gonic/gin"
)

type HTTPHandler struct {
	uc facet.UseCase
}

func NewHTTPHandler(uc facet.UseCase) *HTTPHandler {
	return &HTTPHandler{uc: uc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/facets", h.GetFacets)
}

func (h *HTTPHandler) GetFacets(c *gin.Context) {
	var filter dto.FacetFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httpapi.Error(c, apperr.Validation("INVALID_QUERY", "invalid query parameters: "+err.Error()))
		return
	}
	sections, err := h.uc.GetFacets(c.Request.Context(), &filter)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, sections)
}
