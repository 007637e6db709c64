package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
)

type CoordinatesDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c *CoordinatesDTO) ToValueObject() *valueobject.Coordinates {
	if c == nil {
		return nil
	}
	return &valueobject.Coordinates{Latitude: c.Latitude, Longitude: c.Longitude}
}

type EscalateRequest struct {
	LocationKey  string          `json:"location_key"`
	ReportIDs    []uuid.UUID     `json:"report_ids"`
	Severity     string          `json:"severity"`
	Coordinates  *CoordinatesDTO `json:"coordinates"`
	Notes        string          `json:"notes"`
	UseGazetteer bool            `json:"use_gazetteer"`
}

type SetCoordinatesRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type ConfirmCleanRequest struct {
	FinalNotes string `json:"final_notes"`
}

type AssignmentResponse struct {
	ID                  uuid.UUID       `json:"id"`
	LocationKey         string          `json:"location_key"`
	District            string          `json:"district"`
	ReportIDs           []uuid.UUID     `json:"report_ids"`
	Severity            string          `json:"severity"`
	Coordinates         *CoordinatesDTO `json:"coordinates,omitempty"`
	Status              string          `json:"status"`
	Notes               string          `json:"notes"`
	SolutionDescription *string         `json:"solution_description,omitempty"`
	SolutionDocumentRef *string         `json:"solution_document_ref,omitempty"`
	FinalNotes          *string         `json:"final_notes,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	SolutionUploadedAt  *time.Time      `json:"solution_uploaded_at,omitempty"`
	ConfirmedCleanAt    *time.Time      `json:"confirmed_clean_at,omitempty"`

	TestResultDocumentRef *string    `json:"test_result_document_ref,omitempty"`
	TestNotes             *string    `json:"test_notes,omitempty"`
	TestResultUploadedAt  *time.Time `json:"test_result_uploaded_at,omitempty"`
}

func ToAssignmentResponse(a *entity.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:                  a.ID,
		LocationKey:         a.LocationKey,
		District:            a.District,
		ReportIDs:           a.ReportIDs,
		Severity:            string(a.Severity),
		Status:              string(a.Status),
		Notes:               a.Notes,
		SolutionDescription: a.SolutionDescription,
		SolutionDocumentRef: a.SolutionDocumentRef,
		FinalNotes:          a.FinalNotes,
		CreatedAt:           a.CreatedAt,
		SolutionUploadedAt:  a.SolutionUploadedAt,
		ConfirmedCleanAt:    a.ConfirmedCleanAt,

		TestResultDocumentRef: a.TestResultDocumentRef,
		TestNotes:             a.TestNotes,
		TestResultUploadedAt:  a.TestResultUploadedAt,
	}
	if a.Coordinates != nil {
		resp.Coordinates = &CoordinatesDTO{Latitude: a.Coordinates.Latitude, Longitude: a.Coordinates.Longitude}
	}
	return resp
}

func ToAssignmentResponses(list []*entity.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, ToAssignmentResponse(a))
	}
	return out
}
