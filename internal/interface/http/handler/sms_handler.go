package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/ignatzorin/water-alert-backend/internal/interface/http/dto"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/ignatzorin/water-alert-backend/internal/sms"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/report"
)

type SMSHandler struct {
	inboundUC *report.SubmitSMSReportUseCase
	clock     clockwork.Clock
}

func NewSMSHandler(inboundUC *report.SubmitSMSReportUseCase, clock clockwork.Clock) *SMSHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SMSHandler{inboundUC: inboundUC, clock: clock}
}

func (h *SMSHandler) Instructions(c *gin.Context) {
	response.Success(c, gin.H{"instructions": sms.Instructions()})
}

// Format обрабатывает POST /api/sms/format: готовит текст для отправки по SMS.
func (h *SMSHandler) Format(c *gin.Context) {
	var req dto.SMSFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	var missing []string
	if req.PinCode == "" {
		missing = append(missing, "pin_code")
	}
	if req.Problem == "" {
		missing = append(missing, "problem")
	}
	if req.SourceType == "" {
		missing = append(missing, "source_type")
	}
	if len(missing) > 0 {
		response.Error(c, apperror.Validation("не заполнены обязательные поля", missing...))
		return
	}

	formatted := sms.Format(sms.ReportFields{
		PinCode:      req.PinCode,
		Problem:      req.Problem,
		Source:       req.SourceType,
		LocalityName: req.LocalityName,
		Description:  req.Description,
	}, h.clock.Now())

	response.Success(c, dto.ToSMSFormatResponse(formatted))
}

// Inbound обрабатывает вебхук SMS-шлюза. Токен проверяет middleware.WebhookToken.
func (h *SMSHandler) Inbound(c *gin.Context) {
	var req dto.SMSInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	r, parsed, err := h.inboundUC.Execute(c.Request.Context(), req.Text)
	if err != nil {
		logger.Log.WithError(err).WithField("from", req.From).Warn("SMS-отчёт отклонён")
		response.Error(c, err)
		return
	}

	response.Created(c, dto.SMSInboundResponse{
		Format: string(parsed.Format),
		Report: dto.ToReportResponse(r),
	})
}
