package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/water-alert-backend/internal/http/middleware"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/dto"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/aggregation"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/escalation"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/report"
)

type AuthorityHandler struct {
	listGroupsUC     *aggregation.ListGroupsUseCase
	escalateUC       *escalation.EscalateUseCase
	setCoordinatesUC *escalation.SetCoordinatesUseCase
	confirmCleanUC   *escalation.ConfirmCleanUseCase
	verifyUC         *report.VerifyReportUseCase
}

func NewAuthorityHandler(
	listGroupsUC *aggregation.ListGroupsUseCase,
	escalateUC *escalation.EscalateUseCase,
	setCoordinatesUC *escalation.SetCoordinatesUseCase,
	confirmCleanUC *escalation.ConfirmCleanUseCase,
	verifyUC *report.VerifyReportUseCase,
) *AuthorityHandler {
	return &AuthorityHandler{
		listGroupsUC:     listGroupsUC,
		escalateUC:       escalateUC,
		setCoordinatesUC: setCoordinatesUC,
		confirmCleanUC:   confirmCleanUC,
		verifyUC:         verifyUC,
	}
}

// ListGroups обрабатывает GET /api/authority/groups?district=.
func (h *AuthorityHandler) ListGroups(c *gin.Context) {
	groups, err := h.listGroupsUC.Execute(c.Request.Context(), c.Query("district"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToGroupResponses(groups))
}

// Escalate обрабатывает POST /api/authority/escalations.
func (h *AuthorityHandler) Escalate(c *gin.Context) {
	var req dto.EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	a, err := h.escalateUC.Execute(c.Request.Context(), escalation.EscalateInput{
		LocationKey:  req.LocationKey,
		ReportIDs:    req.ReportIDs,
		Severity:     req.Severity,
		Coordinates:  req.Coordinates.ToValueObject(),
		Notes:        req.Notes,
		UseGazetteer: req.UseGazetteer,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToAssignmentResponse(a))
}

// SetCoordinates обрабатывает PUT /api/authority/assignments/:id/coordinates.
func (h *AuthorityHandler) SetCoordinates(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		response.BadRequest(c, "некорректный идентификатор назначения")
		return
	}

	var req dto.SetCoordinatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	var missing []string
	if req.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if req.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		response.Error(c, apperror.Validation("не переданы координаты", missing...))
		return
	}

	a, err := h.setCoordinatesUC.Execute(c.Request.Context(), id, *req.Latitude, *req.Longitude)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAssignmentResponse(a))
}

// ConfirmClean обрабатывает POST /api/authority/assignments/:id/confirm-clean.
func (h *AuthorityHandler) ConfirmClean(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		response.BadRequest(c, "некорректный идентификатор назначения")
		return
	}

	// тело необязательно
	var req dto.ConfirmCleanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}

	a, err := h.confirmCleanUC.Execute(c.Request.Context(), escalation.ConfirmCleanInput{
		AssignmentID: id,
		FinalNotes:   req.FinalNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAssignmentResponse(a))
}

// Verify обрабатывает POST /api/authority/reports/:id/verify.
func (h *AuthorityHandler) Verify(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		response.BadRequest(c, "некорректный идентификатор отчёта")
		return
	}

	r, err := h.verifyUC.Execute(c.Request.Context(), id, c.GetString(middleware.ContextSubjectKey))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReportResponse(r))
}
