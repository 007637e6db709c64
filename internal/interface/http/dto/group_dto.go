package dto

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/aggregation"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/alert"
)

type GroupResponse struct {
	LocationKey        string           `json:"location_key"`
	District           string           `json:"district"`
	Count              int              `json:"count"`
	Severity           string           `json:"severity"`
	Eligible           bool             `json:"eligible"`
	ActiveAssignmentID *uuid.UUID       `json:"active_assignment_id,omitempty"`
	Reports            []ReportResponse `json:"reports"`
}

func ToGroupResponses(groups []aggregation.Group) []GroupResponse {
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupResponse{
			LocationKey:        g.LocationKey,
			District:           g.District,
			Count:              g.Count,
			Severity:           string(g.Severity),
			Eligible:           g.Eligible,
			ActiveAssignmentID: g.ActiveAssignmentID,
			Reports:            ToReportResponses(g.Reports),
		})
	}
	return out
}

type NearbyAlertResponse struct {
	AssignmentID uuid.UUID      `json:"assignment_id"`
	LocationKey  string         `json:"location_key"`
	District     string         `json:"district"`
	Severity     string         `json:"severity"`
	Status       string         `json:"status"`
	Coordinates  CoordinatesDTO `json:"coordinates"`
	DistanceKm   float64        `json:"distance_km"`
}

func ToNearbyAlertResponses(alerts []alert.NearbyAlert) []NearbyAlertResponse {
	out := make([]NearbyAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, NearbyAlertResponse{
			AssignmentID: a.Assignment.ID,
			LocationKey:  a.Assignment.LocationKey,
			District:     a.Assignment.District,
			Severity:     string(a.Assignment.Severity),
			Status:       string(a.Assignment.Status),
			Coordinates: CoordinatesDTO{
				Latitude:  a.Assignment.Coordinates.Latitude,
				Longitude: a.Assignment.Coordinates.Longitude,
			},
			DistanceKm: a.DistanceKm,
		})
	}
	return out
}
