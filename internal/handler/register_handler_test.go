package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-proxy-api/internal/dto"
	"github.com/noah-isme/sma-proxy-api/internal/service"
	appErrors "github.com/noah-isme/sma-proxy-api/pkg/errors"
)

type registerServiceMock struct {
	file      *service.RegisterFile
	err       error
	lastQuery dto.RegisterQuery
}

func (m *registerServiceMock) Render(ctx context.Context, query dto.RegisterQuery) (*service.RegisterFile, error) {
	m.lastQuery = query
	return m.file, m.err
}

func TestRegisterHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registerServiceMock{file: &service.RegisterFile{
		Filename:    "proxy-register-2024-03-04.csv",
		ContentType: "text/csv",
		Payload:     []byte("Period,Class\n1,5A\n"),
	}}
	handler := NewRegisterHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/proxies/register?date=2024-03-04&format=csv", nil)
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.RegisterQuery{Date: "2024-03-04", Format: "csv"}, mockSvc.lastQuery)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "proxy-register-2024-03-04.csv")
	assert.Equal(t, "Period,Class\n1,5A\n", w.Body.String())
}

func TestRegisterHandlerDownloadInvalidFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegisterHandler(&registerServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")})

	c, w := newGinContext(http.MethodGet, "/proxies/register?date=2024-03-04&format=xls", nil)
	handler.Download(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
