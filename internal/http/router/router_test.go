package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/water-alert-backend/internal/config"
	"github.com/ignatzorin/water-alert-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/water-alert-backend/internal/infrastructure/pincode"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/handler"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
	"github.com/ignatzorin/water-alert-backend/internal/observability"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/keylock"
	"github.com/ignatzorin/water-alert-backend/internal/service"
	"github.com/ignatzorin/water-alert-backend/internal/storage"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/aggregation"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/alert"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/escalation"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/report"
)

const webhookToken = "gateway-secret"

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

type testServer struct {
	engine         *gin.Engine
	authorityToken string
	labToken       string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(webhookToken), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                  "test",
		StoreDriver:          config.StoreDriverMemory,
		JWTSecret:            "test-secret-test-secret-test-secret",
		AccessTokenTTL:       time.Hour,
		RateLimitLimit:       1000,
		RateLimitPeriod:      time.Minute,
		DocumentStoragePath:  t.TempDir(),
		MaxUploadSizeMB:      1,
		StoreTimeout:         time.Second,
		AlertDefaultRadiusKm: 2,
		AlertMaxRadiusKm:     50,
		SMSWebhookTokenHash:  string(hash),
	}

	store := memory.NewStore()
	reports := store.Reports()
	assignments := store.Assignments()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	locker := keylock.New()
	gazetteer := pincode.NewGazetteer()
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	documents, err := storage.NewDocumentStorage(cfg.DocumentStoragePath, cfg.MaxUploadSizeMB, clock)
	require.NoError(t, err)

	propagator := escalation.NewStatusPropagator(reports, metrics)
	submitUC := report.NewSubmitReportUseCase(reports, clock, metrics)
	listGroupsUC := aggregation.NewListGroupsUseCase(reports, assignments)

	h := Handlers{
		Health: handler.NewHealthHandler(nil, cfg.StoreDriver),
		Report: handler.NewReportHandler(
			submitUC,
			report.NewListRecentReportsUseCase(reports),
			report.NewUpvoteReportUseCase(reports),
		),
		Alert: handler.NewAlertHandler(
			alert.NewGetActiveAlertsNearUseCase(assignments, cfg.AlertDefaultRadiusKm, cfg.AlertMaxRadiusKm, metrics),
		),
		Pincode: handler.NewPincodeHandler(gazetteer),
		SMS:     handler.NewSMSHandler(report.NewSubmitSMSReportUseCase(submitUC, gazetteer), clock),
		Authority: handler.NewAuthorityHandler(
			listGroupsUC,
			escalation.NewEscalateUseCase(reports, assignments, store, locker, propagator, gazetteer, clock, metrics),
			escalation.NewSetCoordinatesUseCase(assignments),
			escalation.NewConfirmCleanUseCase(assignments, store, locker, propagator, clock, metrics),
			report.NewVerifyReportUseCase(reports),
		),
		Lab: handler.NewLabHandler(
			escalation.NewListAssignmentsUseCase(assignments),
			escalation.NewGetAssignmentUseCase(assignments),
			escalation.NewUploadSolutionUseCase(assignments, store, locker, propagator, clock, metrics),
			escalation.NewUploadTestResultUseCase(assignments, store, locker, clock),
			escalation.NewListSolutionsUseCase(assignments),
			documents,
			cfg.MaxUploadSizeMB,
		),
	}

	authorityToken, _, err := tokens.GenerateAccess("officer-1", service.RoleAuthority)
	require.NoError(t, err)
	labToken, _, err := tokens.GenerateAccess("lab-7", service.RoleLab)
	require.NoError(t, err)

	return &testServer{
		engine:         SetupRouter(cfg, h, tokens, registry),
		authorityToken: authorityToken,
		labToken:       labToken,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) submitReport(t *testing.T, locationKey string) uuid.UUID {
	t.Helper()

	w, env := s.do(t, http.MethodPost, "/api/reports", "", map[string]interface{}{
		"problem_type":  "reddish_brown_water",
		"source_type":   "tube_well",
		"location_key":  locationKey,
		"district":      "Kamrup Metropolitan",
		"locality_name": "Pan Bazaar",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	return created.ID
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, "memory", got.Checks["store"])
}

func TestSubmitReport_ValidationListsFields(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/reports", "", map[string]interface{}{
		"problem_type": "reddish_brown_water",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "source_type")
	assert.Contains(t, env.Error.Fields, "location_key")
}

func TestAuthorityRoutes_RequireAuthorityRole(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/authority/groups", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/authority/groups", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/authority/groups", s.labToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/authority/groups", s.authorityToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestEscalationLifecycle_EndToEnd(t *testing.T) {
	s := newTestServer(t)

	ids := make([]uuid.UUID, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, s.submitReport(t, "781001"))
	}

	// группа достигла порога
	w, env := s.do(t, http.MethodGet, "/api/authority/groups", s.authorityToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	groups := decode[[]struct {
		LocationKey string `json:"location_key"`
		Count       int    `json:"count"`
		Severity    string `json:"severity"`
		Eligible    bool   `json:"eligible"`
	}](t, env.Data)
	require.Len(t, groups, 1)
	assert.Equal(t, "781001", groups[0].LocationKey)
	assert.Equal(t, 5, groups[0].Count)
	assert.Equal(t, "mild", groups[0].Severity)
	assert.True(t, groups[0].Eligible)

	escalate := map[string]interface{}{
		"location_key":  "781001",
		"report_ids":    ids,
		"severity":      "mild",
		"notes":         "проверить скважину",
		"use_gazetteer": true,
	}
	w, env = s.do(t, http.MethodPost, "/api/authority/escalations", s.authorityToken, escalate)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assignment := decode[struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}](t, env.Data)
	assert.Equal(t, "pending_lab_visit", assignment.Status)

	w, env = s.do(t, http.MethodPost, "/api/authority/escalations", s.authorityToken, escalate)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ALREADY_ESCALATED", env.Error.Code)

	// отчёты переведены в contaminated
	w, env = s.do(t, http.MethodGet, "/api/reports", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, r := range decode[[]struct {
		Status string `json:"status"`
	}](t, env.Data) {
		assert.Equal(t, "contaminated", r.Status)
	}

	nearbyPath := "/api/alerts/nearby?lat=26.1450&lon=91.7360&radius_km=5"
	w, env = s.do(t, http.MethodGet, nearbyPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	alerts := decode[[]struct {
		AssignmentID uuid.UUID `json:"assignment_id"`
		DistanceKm   float64   `json:"distance_km"`
	}](t, env.Data)
	require.Len(t, alerts, 1)
	assert.Equal(t, assignment.ID, alerts[0].AssignmentID)
	assert.Less(t, alerts[0].DistanceKm, 1.0)

	// результат анализа не меняет статус
	req := multipartForm(t, fmt.Sprintf("/api/lab/assignments/%s/test-result", assignment.ID), "water-test.pdf",
		map[string]string{"test_notes": "железо 1.2 мг/л"})
	req.Header.Set("Authorization", "Bearer "+s.labToken)
	w, env = s.serve(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tested := decode[struct {
		Status                string  `json:"status"`
		TestNotes             *string `json:"test_notes"`
		TestResultDocumentRef *string `json:"test_result_document_ref"`
	}](t, env.Data)
	assert.Equal(t, "pending_lab_visit", tested.Status)
	require.NotNil(t, tested.TestNotes)
	assert.Equal(t, "железо 1.2 мг/л", *tested.TestNotes)
	require.NotNil(t, tested.TestResultDocumentRef)
	assert.True(t, strings.HasPrefix(*tested.TestResultDocumentRef, assignment.ID.String()+"/water-test_"))

	// лаборатория загружает решение
	req = multipartUpload(t, fmt.Sprintf("/api/lab/assignments/%s/solution", assignment.ID), "Промывка и хлорирование")
	req.Header.Set("Authorization", "Bearer "+s.labToken)
	w, env = s.serve(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	uploaded := decode[struct {
		Status              string  `json:"status"`
		SolutionDocumentRef *string `json:"solution_document_ref"`
	}](t, env.Data)
	assert.Equal(t, "solution_uploaded", uploaded.Status)
	require.NotNil(t, uploaded.SolutionDocumentRef)
	assert.True(t, strings.HasPrefix(*uploaded.SolutionDocumentRef, assignment.ID.String()+"/"))

	w, env = s.do(t, http.MethodGet, "/api/lab/solutions", s.labToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]json.RawMessage](t, env.Data))

	w, env = s.do(t, http.MethodPost, fmt.Sprintf("/api/authority/assignments/%s/confirm-clean", assignment.ID), s.authorityToken,
		map[string]string{"final_notes": "вода чистая"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cleaned", decode[struct {
		Status string `json:"status"`
	}](t, env.Data).Status)

	w, env = s.do(t, http.MethodGet, "/api/lab/solutions", s.labToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]json.RawMessage](t, env.Data), 1)

	// после очистки оповещение пропадает, а отчёты выходят из агрегации
	w, env = s.do(t, http.MethodGet, nearbyPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, env = s.do(t, http.MethodGet, "/api/authority/groups", s.authorityToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestLabUpload_ValidatesFormBeforeStoring(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/lab/assignments/%s/solution", uuid.New()), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.labToken)

	w, env := s.serve(t, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.ElementsMatch(t, []string{"solution_description", "document"}, env.Error.Fields)
}

func TestLabUpload_AuthorityForbidden(t *testing.T) {
	s := newTestServer(t)

	req := multipartUpload(t, fmt.Sprintf("/api/lab/assignments/%s/solution", uuid.New()), "описание")
	req.Header.Set("Authorization", "Bearer "+s.authorityToken)

	w, _ := s.serve(t, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLabGet_InvalidUUID(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/lab/assignments/not-a-uuid", s.labToken, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestSMSInbound(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"from": "+910000000000", "text": "WQ|781001|metallic taste|handpump|с утра"}

	w, _ := s.do(t, http.MethodPost, "/api/sms/inbound", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/sms/inbound", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Token", webhookToken)

	w, env := s.serve(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := decode[struct {
		Format string `json:"format_detected"`
		Report struct {
			LocationKey string `json:"location_key"`
			District    string `json:"district"`
			ProblemType string `json:"problem_type"`
			SourceType  string `json:"source_type"`
			Channel     string `json:"channel"`
		} `json:"report"`
	}](t, env.Data)
	assert.Equal(t, "compact", got.Format)
	assert.Equal(t, "781001", got.Report.LocationKey)
	assert.Equal(t, "Kamrup Metropolitan", got.Report.District)
	assert.Equal(t, "metallic_taste", got.Report.ProblemType)
	assert.Equal(t, "handpump", got.Report.SourceType)
	assert.Equal(t, "sms", got.Report.Channel)
}

func TestNearby_InputErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		code   string
		fields []string
	}{
		{"missing lat", "/api/alerts/nearby?lon=91.7", "VALIDATION_ERROR", []string{"lat"}},
		{"non-numeric lon", "/api/alerts/nearby?lat=26.1&lon=east", "INVALID_COORDINATE", []string{"lon"}},
		{"non-numeric lat without lon", "/api/alerts/nearby?lat=abc", "INVALID_COORDINATE", []string{"lat"}},
		{"both non-numeric", "/api/alerts/nearby?lat=abc&lon=east", "INVALID_COORDINATE", []string{"lat", "lon"}},
		{"both missing", "/api/alerts/nearby", "VALIDATION_ERROR", []string{"lat", "lon"}},
		{"latitude out of range", "/api/alerts/nearby?lat=91&lon=91.7", "INVALID_COORDINATE", nil},
		{"non-numeric radius", "/api/alerts/nearby?lat=26.1&lon=91.7&radius_km=far", "INVALID_RADIUS", []string{"radius_km"}},
		{"negative radius", "/api/alerts/nearby?lat=26.1&lon=91.7&radius_km=-1", "INVALID_RADIUS", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodGet, tt.path, "", nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			if tt.fields != nil {
				assert.Equal(t, tt.fields, env.Error.Fields)
			}
		})
	}
}

func TestPincodeLookup(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/pincodes/782001", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		District string `json:"district"`
	}](t, env.Data)
	assert.Equal(t, "Nagaon", got.District)

	w, _ = s.do(t, http.MethodGet, "/api/pincodes/999999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPincodesByDistrict(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/pincodes?district=kamrup", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]struct {
		PinCode  string `json:"pin_code"`
		District string `json:"district"`
	}](t, env.Data)
	require.Len(t, got, 3)
	assert.Equal(t, "781101", got[0].PinCode)
	assert.Equal(t, "781103", got[2].PinCode)
	for _, e := range got {
		assert.Equal(t, "Kamrup", e.District)
	}

	w, env = s.do(t, http.MethodGet, "/api/pincodes?district=Atlantis", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, env = s.do(t, http.MethodGet, "/api/pincodes", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, []string{"district"}, env.Error.Fields)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.submitReport(t, "781003")

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "water_alert_reports_submitted_total")
}

func multipartUpload(t *testing.T, path, description string) *http.Request {
	t.Helper()
	return multipartForm(t, path, "lab-report.pdf", map[string]string{"solution_description": description})
}

func multipartForm(t *testing.T, path, fileName string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("document", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
