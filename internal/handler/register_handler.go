package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-proxy-api/internal/dto"
	"github.com/noah-isme/sma-proxy-api/internal/service"
	"github.com/noah-isme/sma-proxy-api/pkg/response"
)

type registerRenderer interface {
	Render(ctx context.Context, query dto.RegisterQuery) (*service.RegisterFile, error)
}

// RegisterHandler serves the daily proxy register download.
type RegisterHandler struct {
	service registerRenderer
}

// NewRegisterHandler builds a new handler.
func NewRegisterHandler(service registerRenderer) *RegisterHandler {
	return &RegisterHandler{service: service}
}

// Download godoc
// @Summary Download the daily proxy register
// @Tags Proxies
// @Produce text/csv
// @Produce application/pdf
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /proxies/register [get]
func (h *RegisterHandler) Download(c *gin.Context) {
	file, err := h.service.Render(c.Request.Context(), dto.RegisterQuery{Date: c.Query("date"), Format: c.Query("format")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
