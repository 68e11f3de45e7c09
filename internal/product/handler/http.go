package handler

import (
	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/httpapi"
	"github.com/fekuna/medequip-catalog-service/internal/product"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
	"github.com/gin-gonic/gin"
)

type HTTPHandler struct {
	uc product.UseCase
}

func NewHTTPHandler(uc product.UseCase) *HTTPHandler {
	return &HTTPHandler{uc: uc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	p := rg.Group("/products")
	p.GET("", h.ListProducts)
	p.POST("", h.CreateProduct)
	p.GET("/:id", h.GetProduct)
	p.PUT("/:id", h.UpdateProduct)
	p.DELETE("/:id", h.DeleteProduct)
	p.GET("/:id/effective", h.ResolveEffective)
	p.PUT("/:id/stock", h.UpdateStock)

	p.GET("/:id/variants", h.ListVariants)
	p.POST("/:id/variants", h.AddVariant)
	p.POST("/:id/variants/ensure", h.EnsureVariant)
	p.PUT("/:id/variants/:variantId", h.UpdateVariant)
	p.DELETE("/:id/variants/:variantId", h.DeleteVariant)
}

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	var filters dto.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httpapi.Error(c, apperr.Validation("INVALID_QUERY", "invalid query parameters: "+err.Error()))
		return
	}
	products, total, err := h.uc.ListProducts(c.Request.Context(), &filters)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.SuccessWithMeta(c, products, total, filters.Page, filters.PageSize)
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var input dto.CreateProductInput
	if !httpapi.BindJSON(c, &input) {
		return
	}
	p, err := h.uc.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Created(c, p)
}

func (h *HTTPHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, p)
}

func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	var input dto.UpdateProductInput
	if !httpapi.BindJSON(c, &input) {
		return
	}
	input.ID = c.Param("id")
	p, err := h.uc.UpdateProduct(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, p)
}

func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	if err := h.uc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.NoContent(c)
}

func (h *HTTPHandler) ResolveEffective(c *gin.Context) {
	input := dto.ResolveInput{ProductID: c.Param("id")}
	if variantID := c.Query("variant_id"); variantID != "" {
		input.VariantID = &variantID
	}
	eff, err := h.uc.ResolveEffective(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, eff)
}

func (h *HTTPHandler) UpdateStock(c *gin.Context) {
	var input dto.StockUpdate
	if !httpapi.BindJSON(c, &input) {
		return
	}
	input.ProductID = c.Param("id")
	if err := h.uc.UpdateStock(c.Request.Context(), &input); err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.NoContent(c)
}

func (h *HTTPHandler) ListVariants(c *gin.Context) {
	variants, err := h.uc.ListVariants(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, variants)
}

func (h *HTTPHandler) AddVariant(c *gin.Context) {
	var input dto.CreateVariantInput
	if !httpapi.BindJSON(c, &input) {
		return
	}
	input.ProductID = c.Param("id")
	v, err := h.uc.AddVariant(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Created(c, v)
}

func (h *HTTPHandler) EnsureVariant(c *gin.Context) {
	v, err := h.uc.EnsureVariant(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, v)
}

func (h *HTTPHandler) UpdateVariant(c *gin.Context) {
	var input dto.UpdateVariantInput
	if !httpapi.BindJSON(c, &input) {
		return
	}
	input.ProductID = c.Param("id")
	input.ID = c.Param("variantId")
	v, err := h.uc.UpdateVariant(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.Success(c, v)
}

func (h *HTTPHandler) DeleteVariant(c *gin.Context) {
	if err := h.uc.DeleteVariant(c.Request.Context(), c.Param("id"), c.Param("variantId")); err != nil {
		httpapi.Error(c, err)
		return
	}
	httpapi.NoContent(c)
}
