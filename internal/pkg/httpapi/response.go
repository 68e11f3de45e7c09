// Package httpapi holds the response envelope shared by the gin handlers.
package httpapi

import (
	"net/http"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/auth"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Success   bool              `json:"success"`
	Data      any               `json:"data,omitempty"`
	Error     *apperr.ErrorBody `json:"error,omitempty"`
	Meta      *Meta             `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type Meta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, RequestID: auth.GetRequestID(c.Request.Context())})
}

func SuccessWithMeta(c *gin.Context, data any, total, page, pageSize int) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Meta:      &Meta{Total: total, Page: page, PageSize: pageSize},
		RequestID: auth.GetRequestID(c.Request.Context()),
	})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data, RequestID: auth.GetRequestID(c.Request.Context())})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes err using its apperr kind. The error is also attached to the
// gin context so the request logger records it.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	body := apperr.Body(err)
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), Response{
		Success:   false,
		Error:     &body,
		RequestID: auth.GetRequestID(c.Request.Context()),
	})
}

// BindJSON decodes the request body into dst, reporting malformed JSON as a
// validation error.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Error(c, apperr.Validation("MALFORMED_BODY", "request body is not valid JSON: "+err.Error()))
		return false
	}
	return true
}
