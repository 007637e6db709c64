package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/water-alert-backend/internal/interface/http/dto"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/ignatzorin/water-alert-backend/internal/storage"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/escalation"
)

// DocumentStore сохраняет документы лаборатории: решения и результаты анализов.
type DocumentStore interface {
	Save(ctx context.Context, assignmentID uuid.UUID, originalName string, r io.Reader) (storage.StoredDocument, error)
	Delete(ctx context.Context, relativePath string) error
}

type LabHandler struct {
	listUC          *escalation.ListAssignmentsUseCase
	getUC           *escalation.GetAssignmentUseCase
	uploadUC        *escalation.UploadSolutionUseCase
	testResultUC    *escalation.UploadTestResultUseCase
	listSolutionsUC *escalation.ListSolutionsUseCase
	documents       DocumentStore
	maxUploadBytes  int64
}

func NewLabHandler(
	listUC *escalation.ListAssignmentsUseCase,
	getUC *escalation.GetAssignmentUseCase,
	uploadUC *escalation.UploadSolutionUseCase,
	testResultUC *escalation.UploadTestResultUseCase,
	listSolutionsUC *escalation.ListSolutionsUseCase,
	documents DocumentStore,
	maxUploadMB int64,
) *LabHandler {
	return &LabHandler{
		listUC:          listUC,
		getUC:           getUC,
		uploadUC:        uploadUC,
		testResultUC:    testResultUC,
		listSolutionsUC: listSolutionsUC,
		documents:       documents,
		maxUploadBytes:  maxUploadMB * 1024 * 1024,
	}
}

// List обрабатывает GET /api/lab/assignments?district=&status=.
func (h *LabHandler) List(c *gin.Context) {
	list, err := h.listUC.Execute(c.Request.Context(), c.Query("district"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAssignmentResponses(list))
}

func (h *LabHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		response.BadRequest(c, "некорректный идентификатор назначения")
		return
	}

	a, err := h.getUC.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAssignmentResponse(a))
}

// UploadSolution обрабатывает POST /api/lab/assignments/:id/solution.
// Ожидает multipart: solution_description и файл document.
func (h *LabHandler) UploadSolution(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		response.BadRequest(c, "некорректный идентификатор назначения")
		return
	}

	h.limitBody(c)

	description := strings.TrimSpace(c.PostForm("solution_description"))
	fileHeader, fileErr := c.FormFile("document")

	var missing []string
	if description == "" {
		missing = append(missing, "solution_description")
	}
	if fileErr != nil {
		missing = append(missing, "document")
	}
	if len(missing) > 0 {
		response.Error(c, apperror.Validation("необходимо описание решения и документ", missing...))
		return
	}

	doc, ok := h.saveDocument(c, id, fileHeader)
	if !ok {
		return
	}

	a, err := h.uploadUC.Execute(c.Request.Context(), escalation.UploadSolutionInput{
		AssignmentID:        id,
		SolutionDescription: description,
		DocumentRef:         doc.Path,
	})
	if err != nil {
		h.discardDocument(c, doc.Path)
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAssignmentResponse(a))
}

// UploadTestResult обрабатывает POST /api/lab/assignments/:id/test-result.
// Ожидает multipart: файл document и необязательное поле test_notes.
func (h *LabHandler) UploadTestResult(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		response.BadRequest(c, "некорректный идентификатор назначения")
		return
	}

	h.limitBody(c)

	fileHeader, err := c.FormFile("document")
	if err != nil {
		response.Error(c, apperror.Validation("необходим документ с результатом анализа", "document"))
		return
	}

	doc, ok := h.saveDocument(c, id, fileHeader)
	if !ok {
		return
	}

	a, err := h.testResultUC.Execute(c.Request.Context(), escalation.UploadTestResultInput{
		AssignmentID: id,
		TestNotes:    c.PostForm("test_notes"),
		DocumentRef:  doc.Path,
	})
	if err != nil {
		h.discardDocument(c, doc.Path)
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAssignmentResponse(a))
}

func (h *LabHandler) limitBody(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		// запас на остальные поля формы
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	}
}

// saveDocument пишет файл только для существующего назначения. При отказе ответ уже отправлен.
func (h *LabHandler) saveDocument(c *gin.Context, id uuid.UUID, fileHeader *multipart.FileHeader) (storage.StoredDocument, bool) {
	if _, err := h.getUC.Execute(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return storage.StoredDocument{}, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "не удалось прочитать файл")
		return storage.StoredDocument{}, false
	}
	defer file.Close()

	doc, err := h.documents.Save(c.Request.Context(), id, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return storage.StoredDocument{}, false
	}
	return doc, true
}

func (h *LabHandler) discardDocument(c *gin.Context, path string) {
	if err := h.documents.Delete(context.WithoutCancel(c.Request.Context()), path); err != nil {
		logger.Log.WithError(err).WithField("path", path).Warn("не удалось удалить документ после ошибки")
	}
}

// ListSolutions обрабатывает GET /api/lab/solutions?district=.
func (h *LabHandler) ListSolutions(c *gin.Context) {
	list, err := h.listSolutionsUC.Execute(c.Request.Context(), c.Query("district"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAssignmentResponses(list))
}
