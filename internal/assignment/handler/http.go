package handler

import (
	"encoding/json"

	"github.com/fekuna/medequip-catalog-service/internal/assignment"
	"github.com/fekuna/medequip-catalog-service/internal/assignment/dto"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/httpapi"
	"github.com/gin-gonic/gin"
)

type HTTPHandler struct {
	uc assignment.UseCase
}

func NewHTTPHandler(uc assignment.UseCase) *HTTPHandler {
	return &HTTPHandler{uc: uc}
}

type setValuesBody struct {
	Values []dto.AssignedValue `json:"values"`
}

// RegisterRoutes mounts under /products, sharing its :id and :variantId params
// with the product routes.
func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	p := rg.Group("/products")
	p.GET("/:id/characteristics", h.getProductAssignments)
	p.PUT("/:id/characteristics", h.setProductAssignments)
	p.GET("/:id/variants/:variantId/characteristics", h.getVariantAssignments)
	p.PUT("/:id/variants/:variantId/characteristics", h.setVariantAssignments)
	p.GET("/:id/configurable", h.GetConfigurable)
	p.PUT("/:id/configurable", h.SetConfigurable)
}

func (h *HTTPHandler) getProductAssignments(c *gin.Context) {
	h.getAssignments(c, model.OwnerProduct, c.Param("id"))
}

func (h *HTTPHandler) getVariantAssignments(c *gin.Context) {
	h.getAssignments(c, model.OwnerVariant, c.Param("variantId"))
}

func (h *HTTPHandler) setProductAssignments(c *gin.Context) {
	h.setAssignments(c, model.OwnerProduct, c.Param("id"))
}

func (h *HTTPHandler) setVariantAssignments(c *gin.Context) {
	h.setAssignments(c, model.OwnerVariant, c.Param("variantId"))
}

// getAssignments and setAssignments scope the owner to the product in the path.
func (h *HTTPHandler) getAssignments(c *gin.Context, ownerType model.OwnerType, ownerID string) {
	assignments, err := h.uc.GetAssignments(c.Request.Context(), &dto.OwnerInput{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		ProductID: c.Param("id"),
	})
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, assignments)
}

func (h *HTTPHandler) setAssignments(c *gin.Context, ownerType model.OwnerType, ownerID string) {
	var body setValuesBody
	if !httpapi.BindJSON(c, &body) {
		return
	}
	assignments, err := h.uc.SetAssignments(c.Request.Context(), &dto.SetAssignmentsInput{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		ProductID: c.Param("id"),
		Values:    body.Values,
	})
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, assignments)
}

func (h *HTTPHandler) GetConfigurable(c *gin.Context) {
	doc, err := h.uc.GetConfigurable(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, doc)
}

// SetConfigurable takes the raw JSON array as the request body.
func (h *HTTPHandler) SetConfigurable(c *gin.Context) {
	var raw json.RawMessage
	if !httpapi.BindJSON(c, &raw) {
		return
	}
	doc, err := h.uc.SetConfigurable(c.Request.Context(), &dto.SetConfigurableInput{
		ProductID:       c.Param("id"),
		Characteristics: raw,
	})
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, doc)
}
