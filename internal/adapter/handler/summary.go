package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/adapter/dto"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/summary"
)

// Summary handles clinical summarization endpoints
type Summary struct {
	service *summary.Service
	logger  *zap.Logger
}

// NewSummary creates a new summary handler
func NewSummary(service *summary.Service, logger *zap.Logger) *Summary {
	return &Summary{
		service: service,
		logger:  logger,
	}
}

// Create generates a clinical summary from free-form or structured case text.
func (h *Summary) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SummarizeRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("case_text is required"))
	}

	var (
		text string
		err  error
	)
	if req.Structured {
		text, err = h.service.SummarizeStructured(ctx, req.CaseText)
	} else {
		text, err = h.service.SummarizeTranscript(ctx, req.CaseText)
	}
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, dto.SummarizeResponse{Summary: text})
}
