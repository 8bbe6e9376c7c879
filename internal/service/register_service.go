package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-proxy-api/internal/dto"
	"github.com/noah-isme/sma-proxy-api/internal/models"
	appErrors "github.com/noah-isme/sma-proxy-api/pkg/errors"
	"github.com/noah-isme/sma-proxy-api/pkg/export"
)

type registerSource interface {
	List(ctx context.Context, query dto.ProxyListQuery) ([]models.ProxyAssignmentDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

var registerHeaders = []string{"Period", "Class", "Subject", "Absent Teacher", "Substitute", "Status", "Remarks"}

// RegisterFile is a rendered daily proxy register.
type RegisterFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// RegisterService renders the daily proxy register as CSV or PDF.
type RegisterService struct {
	source    registerSource
	csv       csvRenderer
	pdf       pdfRenderer
	title     string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegisterService constructs a RegisterService.
func NewRegisterService(source registerSource, csv csvRenderer, pdf pdfRenderer, title string, validate *validator.Validate, logger *zap.Logger) *RegisterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if title == "" {
		title = "Daily Proxy Register"
	}
	return &RegisterService{source: source, csv: csv, pdf: pdf, title: title, validator: validate, logger: logger}
}

// Render builds the register for a date in the requested format. CSV is the default.
func (s *RegisterService) Render(ctx context.Context, query dto.RegisterQuery) (*RegisterFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register query")
	}
	items, err := s.source.List(ctx, dto.ProxyListQuery{Date: query.Date})
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:    s.title,
		Subtitle: query.Date,
		Headers:  registerHeaders,
		Rows:     make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		remarks := ""
		if item.Remarks != nil {
			remarks = *item.Remarks
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Period":         strconv.Itoa(item.PeriodOrdinal),
			"Class":          item.ClassName,
			"Subject":        item.SubjectName,
			"Absent Teacher": item.AbsentTeacherName,
			"Substitute":     item.SubstituteTeacherName,
			"Status":         string(item.Status),
			"Remarks":        remarks,
		})
	}

	format := strings.ToLower(query.Format)
	if format == "" {
		format = "csv"
	}
	var (
		payload     []byte
		contentType string
	)
	switch format {
	case "pdf":
		payload, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	}
	if err != nil {
		s.logger.Error("failed to render proxy register", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render proxy register")
	}

	return &RegisterFile{
		Filename:    fmt.Sprintf("proxy-register-%s.%s", query.Date, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}
