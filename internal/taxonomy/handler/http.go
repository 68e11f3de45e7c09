package handler

import (
	"github.com/fekuna/medequip-catalog-service/internal/pkg/httpapi"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy/dto"
	"github.com/gin-gonic/gin"
)

// HTTPHandler exposes the taxonomy over the admin REST API.
type HTTPHandler struct {
	uc taxonomy.UseCase
}

func NewHTTPHandler(uc taxonomy.UseCase) *HTTPHandler {
	return &HTTPHandler{uc: uc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	t := rg.Group("/taxonomy")
	t.GET("/tree", h.ListTree)
	t.POST("/groups", h.CreateGroup)
	t.GET("/groups/:id", h.GetGroup)
	t.PUT("/groups/:id", h.UpdateGroup)
	t.DELETE("/groups/:id", h.DeleteGroup)
	t.GET("/groups/:id/delete-impact", h.GetDeleteImpact)
	t.GET("/groups/:id/values", h.GetGroupValues)
	t.POST("/groups/:id/values", h.CreateValue)
	t.DELETE("/values/:id", h.DeleteValue)
}

func (h *HTTPHandler) ListTree(c *gin.Context) {
	tree, err := h.uc.ListTree(c.Request.Context())
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, tree)
}

func (h *HTTPHandler) GetGroup(c *gin.Context) {
	group, err := h.uc.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, group)
}

func (h *HTTPHandler) CreateGroup(c *gin.Context) {
	var input dto.CreateGroupInput
	if !httpapi.BindJSON(c, &input) {
		return
	}
	group, err := h.uc.CreateGroup(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Created(c, group)
}

func (h *HTTPHandler) UpdateGroup(c *gin.Context) {
	var input dto.UpdateGroupInput
	if !httpapi.BindJSON(c, &input) {
		return
	}
	input.ID = c.Param("id")
	group, err := h.uc.UpdateGroup(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, group)
}

func (h *HTTPHandler) GetDeleteImpact(c *gin.Context) {
	impact, err := h.uc.GetDeleteImpact(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, impact)
}

func (h *HTTPHandler) DeleteGroup(c *gin.Context) {
	impact, err := h.uc.DeleteGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, impact)
}

func (h *HTTPHandler) GetGroupValues(c *gin.Context) {
	values, err := h.uc.GetGroupValues(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, values)
}

func (h *HTTPHandler) CreateValue(c *gin.Context) {
	var input dto.CreateValueInput
	if !httpapi.BindJSON(c, &input) {
		return
	}
	input.GroupID = c.Param("id")
	value, err := h.uc.CreateValue(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Created(c, value)
}

func (h *HTTPHandler) DeleteValue(c *gin.Context) {
	if err := h.uc.DeleteValue(c.Request.Context(), c.Param("id")); err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.NoContent(c)
}
