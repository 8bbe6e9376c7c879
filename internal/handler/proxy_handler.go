package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-proxy-api/internal/dto"
	"github.com/noah-isme/sma-proxy-api/internal/models"
	appErrors "github.com/noah-isme/sma-proxy-api/pkg/errors"
	"github.com/noah-isme/sma-proxy-api/pkg/response"
)

type proxyService interface {
	ResolveDaySlot(rawDate string) (*dto.DaySlotResponse, error)
	AvailableTeachers(ctx context.Context, query dto.AvailabilityQuery) ([]dto.AvailableTeacher, error)
	AbsentPeriods(ctx context.Context, teacherID, rawDate string) ([]dto.AbsentPeriod, error)
	Recommend(ctx context.Context, teacherID, rawDate string, exclude []string) ([]dto.PeriodRecommendation, error)
	Commit(ctx context.Context, actor *models.JWTClaims, req dto.CommitProxiesRequest) ([]models.ProxyAssignment, error)
	List(ctx context.Context, query dto.ProxyListQuery) ([]models.ProxyAssignmentDetail, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	ListAbsences(ctx context.Context, rawDate string) ([]models.AbsenceDetail, error)
}

// ProxyHandler exposes the substitute teacher endpoints.
type ProxyHandler struct {
	service proxyService
}

// NewProxyHandler builds a new handler.
func NewProxyHandler(service proxyService) *ProxyHandler {
	return &ProxyHandler{service: service}
}

// DaySlot godoc
// @Summary Resolve the timetable day for a date
// @Tags Proxies
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /proxies/day-slot [get]
func (h *ProxyHandler) DaySlot(c *gin.Context) {
	resp, err := h.service.ResolveDaySlot(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Available godoc
// @Summary List teachers free to cover a period, least loaded first
// @Tags Proxies
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param periodId query string true "Period ID"
// @Param excludeTeacherId query string false "Absent teacher to exclude"
// @Param exclude query string false "Comma separated teacher IDs to exclude"
// @Success 200 {object} response.Envelope
// @Router /proxies/available [get]
func (h *ProxyHandler) Available(c *gin.Context) {
	query := dto.AvailabilityQuery{
		Date:             c.Query("date"),
		PeriodID:         c.Query("periodId"),
		ExcludeTeacherID: c.Query("excludeTeacherId"),
		Exclude:          queryList(c, "exclude"),
	}
	items, err := h.service.AvailableTeachers(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// AbsentPeriods godoc
// @Summary List the periods an absent teacher would have taught
// @Tags Proxies
// @Produce json
// @Param teacherId path string true "Absent teacher ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /proxies/absences/{teacherId}/periods [get]
func (h *ProxyHandler) AbsentPeriods(c *gin.Context) {
	items, err := h.service.AbsentPeriods(c.Request.Context(), c.Param("teacherId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Recommendations godoc
// @Summary Ranked substitutes for every period of an absent teacher
// @Tags Proxies
// @Produce json
// @Param teacherId query string true "Absent teacher ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param exclude query string false "Comma separated teacher IDs to exclude"
// @Success 200 {object} response.Envelope
// @Router /proxies/recommendations [get]
func (h *ProxyHandler) Recommendations(c *gin.Context) {
	teacherID := c.Query("teacherId")
	if teacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacherId is required"))
		return
	}
	items, err := h.service.Recommend(c.Request.Context(), teacherID, c.Query("date"), queryList(c, "exclude"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Commit godoc
// @Summary Commit a batch of substitutions for one absent teacher
// @Tags Proxies
// @Accept json
// @Produce json
// @Param payload body dto.CommitProxiesRequest true "Substitution batch"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proxies/commit [post]
func (h *ProxyHandler) Commit(c *gin.Context) {
	var req dto.CommitProxiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid proxy commit payload"))
		return
	}
	created, err := h.service.Commit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List godoc
// @Summary List committed substitutions for a date
// @Tags Proxies
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param absentTeacherId query string false "Absent teacher filter"
// @Param periodId query string false "Period filter"
// @Param substituteTeacherId query string false "Substitute filter"
// @Success 200 {object} response.Envelope
// @Router /proxies [get]
func (h *ProxyHandler) List(c *gin.Context) {
	query := dto.ProxyListQuery{
		Date:                c.Query("date"),
		AbsentTeacherID:     c.Query("absentTeacherId"),
		PeriodID:            c.Query("periodId"),
		SubstituteTeacherID: c.Query("substituteTeacherId"),
	}
	items, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Delete godoc
// @Summary Delete a committed substitution
// @Tags Proxies
// @Param id path string true "Proxy assignment ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /proxies/{id} [delete]
func (h *ProxyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Absences godoc
// @Summary List absences recorded for a date
// @Tags Absences
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /absences [get]
func (h *ProxyHandler) Absences(c *gin.Context) {
	items, err := h.service.ListAbsences(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// queryList accepts both repeated parameters and comma separated values.
func queryList(c *gin.Context, key string) []string {
	var values []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}
