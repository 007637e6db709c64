package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/dto"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/report"
)

type ReportHandler struct {
	submitUC *report.SubmitReportUseCase
	listUC   *report.ListRecentReportsUseCase
	upvoteUC *report.UpvoteReportUseCase
}

func NewReportHandler(
	submitUC *report.SubmitReportUseCase,
	listUC *report.ListRecentReportsUseCase,
	upvoteUC *report.UpvoteReportUseCase,
) *ReportHandler {
	return &ReportHandler{
		submitUC: submitUC,
		listUC:   listUC,
		upvoteUC: upvoteUC,
	}
}

// Submit обрабатывает POST /api/reports. Канал всегда web.
func (h *ReportHandler) Submit(c *gin.Context) {
	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	r, err := h.submitUC.Execute(c.Request.Context(), report.SubmitReportInput{
		ProblemType:  req.ProblemType,
		SourceType:   req.SourceType,
		LocationKey:  req.LocationKey,
		District:     req.District,
		LocalityName: req.LocalityName,
		Description:  req.Description,
		Channel:      string(valueobject.ChannelWeb),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToReportResponse(r))
}

// List обрабатывает GET /api/reports?district=&limit=.
func (h *ReportHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", report.DefaultListLimit)

	reports, err := h.listUC.Execute(c.Request.Context(), c.Query("district"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReportResponses(reports))
}

// Upvote обрабатывает POST /api/reports/:id/upvote.
func (h *ReportHandler) Upvote(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		response.BadRequest(c, "некорректный идентификатор отчёта")
		return
	}

	upvotes, err := h.upvoteUC.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.UpvoteResponse{ID: id, Upvotes: upvotes})
}
