package valueobject

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
)

func TestSeverityForCount(t *testing.T) {
	cases := map[int]Severity{
		0:  SeverityNone,
		4:  SeverityNone,
		5:  SeverityMild,
		9:  SeverityMild,
		10: SeverityMedium,
		19: SeverityMedium,
		20: SeveritySevere,
		75: SeveritySevere,
	}
	for count, want := range cases {
		assert.Equal(t, want, SeverityForCount(count), "count=%d", count)
	}
}

func TestSeverity_Escalatable(t *testing.T) {
	assert.False(t, SeverityNone.IsEscalatable())
	assert.True(t, SeverityMild.IsEscalatable())
	assert.True(t, SeveritySevere.IsEscalatable())

	_, err := NewSeverity("critical")
	assert.True(t, apperror.IsValidation(err))
	assert.Greater(t, SeveritySevere.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMild.Rank(), SeverityNone.Rank())
}

func TestReportStatus_Transitions(t *testing.T) {
	assert.True(t, ReportStatusReported.CanTransitionTo(ReportStatusContaminated))
	assert.True(t, ReportStatusContaminated.CanTransitionTo(ReportStatusCleaned))

	assert.False(t, ReportStatusReported.CanTransitionTo(ReportStatusCleaned))
	assert.False(t, ReportStatusContaminated.CanTransitionTo(ReportStatusReported))
	assert.False(t, ReportStatusCleaned.CanTransitionTo(ReportStatusReported))
	assert.False(t, ReportStatusCleaned.CanTransitionTo(ReportStatusCleaned))

	assert.True(t, ReportStatusContaminated.IsActive())
	assert.False(t, ReportStatusCleaned.IsActive())
}

func TestAssignmentStatus_Transitions(t *testing.T) {
	assert.True(t, AssignmentStatusPendingLabVisit.CanTransitionTo(AssignmentStatusSolutionUploaded))
	assert.True(t, AssignmentStatusSolutionUploaded.CanTransitionTo(AssignmentStatusCleaned))
	assert.False(t, AssignmentStatusPendingLabVisit.CanTransitionTo(AssignmentStatusCleaned))
	assert.False(t, AssignmentStatusCleaned.CanTransitionTo(AssignmentStatusPendingLabVisit))

	_, err := NewAssignmentStatus("closed")
	assert.Error(t, err)
}

func TestNormalizeLocationKey(t *testing.T) {
	key, ok := NormalizeLocationKey(" 781001 ")
	assert.True(t, ok)
	assert.Equal(t, "781001", key)

	for _, bad := range []string{"", "012345", "78100", "7810011", "78a001"} {
		_, ok := NormalizeLocationKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestCoordinates_Validate(t *testing.T) {
	_, err := NewCoordinates(26.14, 91.73)
	require.NoError(t, err)

	for _, c := range []Coordinates{
		{Latitude: 91, Longitude: 0},
		{Latitude: -90.5, Longitude: 0},
		{Latitude: 0, Longitude: 181},
		{Latitude: math.NaN(), Longitude: 0},
	} {
		err := c.Validate()
		assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidCoordinate), c.String())
	}
}

func TestCoordinates_DistanceKm(t *testing.T) {
	guwahati := Coordinates{Latitude: 26.1445, Longitude: 91.7362}
	assert.InDelta(t, 0, guwahati.DistanceKm(guwahati), 1e-9)

	// один градус широты ~111.19 км
	north := Coordinates{Latitude: 27.1445, Longitude: 91.7362}
	assert.InDelta(t, 111.19, guwahati.DistanceKm(north), 0.05)
	assert.InDelta(t, guwahati.DistanceKm(north), north.DistanceKm(guwahati), 1e-9)

	// антиподы не дают NaN
	antipode := Coordinates{Latitude: -26.1445, Longitude: 91.7362 - 180}
	d := guwahati.DistanceKm(antipode)
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 0.5)
}

func TestParseLabels(t *testing.T) {
	assert.Equal(t, ProblemHealthSymptoms, ParseProblemLabel("Health symptoms"))
	assert.Equal(t, ProblemReddishBrownWater, ParseProblemLabel("Reddish-brown water"))
	assert.Equal(t, ProblemMuddyWater, ParseProblemLabel("muddy_water"))
	assert.Equal(t, ProblemOther, ParseProblemLabel("something strange"))

	assert.Equal(t, SourceTubeWell, ParseSourceLabel("Tube well"))
	assert.Equal(t, SourceHandpump, ParseSourceLabel("Hand pump"))
	assert.Equal(t, SourcePondReservoir, ParseSourceLabel("Pond"))
	assert.Equal(t, SourceOther, ParseSourceLabel("bucket"))

	_, err := NewProblemType("Health symptoms")
	assert.True(t, apperror.IsValidation(err))
}
