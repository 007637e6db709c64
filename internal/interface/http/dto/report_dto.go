package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
)

type SubmitReportRequest struct {
	ProblemType  string  `json:"problem_type"`
	SourceType   string  `json:"source_type"`
	LocationKey  string  `json:"location_key"`
	District     string  `json:"district"`
	LocalityName string  `json:"locality_name"`
	Description  *string `json:"description"`
}

type ReportResponse struct {
	ID           uuid.UUID `json:"id"`
	LocationKey  string    `json:"location_key"`
	District     string    `json:"district"`
	LocalityName string    `json:"locality_name"`
	ProblemType  string    `json:"problem_type"`
	SourceType   string    `json:"source_type"`
	Description  *string   `json:"description,omitempty"`
	Status       string    `json:"status"`
	Active       bool      `json:"active"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Upvotes      int       `json:"upvotes"`
	Verified     bool      `json:"verified"`
	Channel      string    `json:"channel"`
}

type UpvoteResponse struct {
	ID      uuid.UUID `json:"id"`
	Upvotes int       `json:"upvotes"`
}

func ToReportResponse(r *entity.Report) ReportResponse {
	return ReportResponse{
		ID:           r.ID,
		LocationKey:  r.LocationKey,
		District:     r.District,
		LocalityName: r.LocalityName,
		ProblemType:  string(r.ProblemType),
		SourceType:   string(r.SourceType),
		Description:  r.Description,
		Status:       string(r.Status),
		Active:       r.Active(),
		SubmittedAt:  r.SubmittedAt,
		Upvotes:      r.Upvotes,
		Verified:     r.Verified,
		Channel:      string(r.Channel),
	}
}

func ToReportResponses(reports []*entity.Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, ToReportResponse(r))
	}
	return out
}
