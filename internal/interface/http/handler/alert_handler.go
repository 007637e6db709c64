package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/water-alert-backend/internal/interface/http/dto"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/alert"
)

type AlertHandler struct {
	nearbyUC *alert.GetActiveAlertsNearUseCase
}

func NewAlertHandler(nearbyUC *alert.GetActiveAlertsNearUseCase) *AlertHandler {
	return &AlertHandler{nearbyUC: nearbyUC}
}

// Nearby обрабатывает GET /api/alerts/nearby?lat=&lon=&radius_km=&limit=.
func (h *AlertHandler) Nearby(c *gin.Context) {
	lat, latOK := parseFloatQuery(c, "lat")
	lon, lonOK := parseFloatQuery(c, "lon")

	// нечисловое значение важнее отсутствующего
	var invalid, missing []string
	for _, q := range []struct {
		name  string
		value *float64
		ok    bool
	}{{"lat", lat, latOK}, {"lon", lon, lonOK}} {
		switch {
		case !q.ok:
			invalid = append(invalid, q.name)
		case q.value == nil:
			missing = append(missing, q.name)
		}
	}
	if len(invalid) > 0 {
		response.Error(c, apperror.WithFields(apperror.ErrCodeInvalidCoordinate, "координаты должны быть числами", invalid...))
		return
	}
	if len(missing) > 0 {
		response.Error(c, apperror.Validation("не переданы координаты", missing...))
		return
	}

	radius, ok := parseFloatQuery(c, "radius_km")
	if !ok {
		response.Error(c, apperror.WithFields(apperror.ErrCodeInvalidRadius, "радиус должен быть числом", "radius_km"))
		return
	}

	alerts, err := h.nearbyUC.Execute(c.Request.Context(), alert.GetActiveAlertsNearInput{
		Latitude:  *lat,
		Longitude: *lon,
		RadiusKm:  radius,
		Limit:     parseIntQuery(c, "limit", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToNearbyAlertResponses(alerts))
}
