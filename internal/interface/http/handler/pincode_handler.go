package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/water-alert-backend/internal/infrastructure/pincode"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/dto"
	"github.com/ignatzorin/water-alert-backend/internal/interface/http/response"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
)

type PincodeHandler struct {
	gazetteer *pincode.Gazetteer
}

func NewPincodeHandler(gazetteer *pincode.Gazetteer) *PincodeHandler {
	return &PincodeHandler{gazetteer: gazetteer}
}

// Lookup обрабатывает GET /api/pincodes/:pin.
func (h *PincodeHandler) Lookup(c *gin.Context) {
	entry, err := h.gazetteer.Lookup(c.Param("pin"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toPincodeResponse(entry))
}

// ByDistrict обрабатывает GET /api/pincodes?district=. Неизвестный район даёт пустой список.
func (h *PincodeHandler) ByDistrict(c *gin.Context) {
	district := strings.TrimSpace(c.Query("district"))
	if district == "" {
		response.Error(c, apperror.Validation("не указан район", "district"))
		return
	}

	entries := h.gazetteer.ByDistrict(district)
	out := make([]dto.PincodeResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toPincodeResponse(e))
	}
	response.Success(c, out)
}

func toPincodeResponse(e pincode.Entry) dto.PincodeResponse {
	return dto.PincodeResponse{
		PinCode:   e.PinCode,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
		Locality:  e.Locality,
		District:  e.District,
	}
}
