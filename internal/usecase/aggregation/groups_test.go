package aggregation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/water-alert-backend/internal/usecase/aggregation"
)

var base = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func report(key, district string, minute int, status valueobject.ReportStatus) *entity.Report {
	return &entity.Report{
		ID:           uuid.New(),
		LocationKey:  key,
		District:     district,
		LocalityName: "Locality",
		ProblemType:  valueobject.ProblemMuddyWater,
		SourceType:   valueobject.SourceTubeWell,
		Status:       status,
		SubmittedAt:  base.Add(time.Duration(minute) * time.Minute),
		Channel:      valueobject.ChannelWeb,
	}
}

func reports(key, district string, n int) []*entity.Report {
	out := make([]*entity.Report, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, report(key, district, i, valueobject.ReportStatusReported))
	}
	return out
}

func TestComputeGroups_SeverityBoundaries(t *testing.T) {
	var all []*entity.Report
	all = append(all, reports("781001", "Kamrup Metropolitan", 4)...)
	all = append(all, reports("781002", "Kamrup Metropolitan", 5)...)
	all = append(all, reports("782001", "Nagaon", 10)...)
	all = append(all, reports("785001", "Jorhat", 20)...)

	groups := aggregation.ComputeGroups(all)
	require.Len(t, groups, 4)

	// сортировка: severe, medium, mild, none
	assert.Equal(t, "785001", groups[0].LocationKey)
	assert.Equal(t, valueobject.SeveritySevere, groups[0].Severity)
	assert.Equal(t, valueobject.SeverityMedium, groups[1].Severity)
	assert.Equal(t, valueobject.SeverityMild, groups[2].Severity)
	assert.True(t, groups[2].Eligible)
	assert.Equal(t, valueobject.SeverityNone, groups[3].Severity)
	assert.False(t, groups[3].Eligible)
}

func TestComputeGroups_SkipsInactiveAndMalformed(t *testing.T) {
	all := reports("781001", "Kamrup Metropolitan", 5)
	all[0].Status = valueobject.ReportStatusCleaned
	all = append(all, report("12345", "Nowhere", 0, valueobject.ReportStatusReported), nil)

	groups := aggregation.ComputeGroups(all)
	require.Len(t, groups, 1)
	assert.Equal(t, 4, groups[0].Count)
	assert.Equal(t, valueobject.SeverityNone, groups[0].Severity)
	assert.False(t, groups[0].Eligible)
}

func TestComputeGroups_ContaminatedStillCounts(t *testing.T) {
	all := reports("781001", "Kamrup Metropolitan", 5)
	all[1].Status = valueobject.ReportStatusContaminated

	groups := aggregation.ComputeGroups(all)
	require.Len(t, groups, 1)
	assert.Equal(t, 5, groups[0].Count)
}

func TestComputeGroups_DistrictFromEarliestAndOrder(t *testing.T) {
	late := report("782001", "Nagaon", 30, valueobject.ReportStatusReported)
	early := report("782001", "Nagaon Rural", 1, valueobject.ReportStatusReported)

	groups := aggregation.ComputeGroups([]*entity.Report{late, early})
	require.Len(t, groups, 1)
	assert.Equal(t, "Nagaon Rural", groups[0].District)
	assert.Equal(t, []uuid.UUID{early.ID, late.ID}, groups[0].ReportIDs())
}

func TestComputeGroups_TieBreakByKey(t *testing.T) {
	var all []*entity.Report
	all = append(all, reports("782002", "Nagaon", 5)...)
	all = append(all, reports("782001", "Nagaon", 5)...)

	groups := aggregation.ComputeGroups(all)
	require.Len(t, groups, 2)
	assert.Equal(t, "782001", groups[0].LocationKey)
	assert.Equal(t, "782002", groups[1].LocationKey)
}

func TestComputeGroups_Empty(t *testing.T) {
	assert.Empty(t, aggregation.ComputeGroups(nil))
}

func TestMarkEligibility(t *testing.T) {
	groups := aggregation.ComputeGroups(reports("781001", "Kamrup Metropolitan", 6))
	assignmentID := uuid.New()

	aggregation.MarkEligibility(groups, map[string]uuid.UUID{"781001": assignmentID})
	assert.False(t, groups[0].Eligible)
	require.NotNil(t, groups[0].ActiveAssignmentID)
	assert.Equal(t, assignmentID, *groups[0].ActiveAssignmentID)
}

func TestListGroupsUseCase(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	for _, r := range reports("781001", "Kamrup Metropolitan", 5) {
		require.NoError(t, store.Reports().Create(ctx, r))
	}
	nagaon := reports("782001", "Nagaon", 7)
	for _, r := range nagaon {
		require.NoError(t, store.Reports().Create(ctx, r))
	}

	a, err := entity.NewAssignment("782001", "Nagaon", []uuid.UUID{nagaon[0].ID}, valueobject.SeverityMild, nil, "", base)
	require.NoError(t, err)
	require.NoError(t, store.Assignments().Create(ctx, a))

	uc := aggregation.NewListGroupsUseCase(store.Reports(), store.Assignments())

	groups, err := uc.Execute(ctx, "")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "782001", groups[0].LocationKey)
	assert.False(t, groups[0].Eligible)
	assert.Equal(t, a.ID, *groups[0].ActiveAssignmentID)
	assert.True(t, groups[1].Eligible)

	groups, err = uc.Execute(ctx, " Kamrup Metropolitan ")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "781001", groups[0].LocationKey)
}

func TestListGroupsUseCase_DistrictFilterKeepsWholeGroup(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	// один PIN, но район записан по-разному: веб-форма и справочник для SMS
	var all []*entity.Report
	for i := 0; i < 3; i++ {
		all = append(all, report("781014", "Kamrup Metro", i, valueobject.ReportStatusReported))
		all = append(all, report("781014", "Kamrup", 10+i, valueobject.ReportStatusReported))
	}
	all = append(all, reports("782001", "Nagaon", 5)...)
	for _, r := range all {
		require.NoError(t, store.Reports().Create(ctx, r))
	}

	uc := aggregation.NewListGroupsUseCase(store.Reports(), store.Assignments())

	for _, district := range []string{"", "Kamrup", "kamrup metro"} {
		groups, err := uc.Execute(ctx, district)
		require.NoError(t, err)

		var got *aggregation.Group
		for i := range groups {
			if groups[i].LocationKey == "781014" {
				got = &groups[i]
			}
		}
		require.NotNil(t, got, "district %q", district)
		assert.Equal(t, 6, got.Count, "district %q", district)
		assert.Equal(t, valueobject.SeverityMild, got.Severity, "district %q", district)
		assert.True(t, got.Eligible, "district %q", district)
		assert.Len(t, got.Reports, 6)
	}

	groups, err := uc.Execute(ctx, "Kamrup")
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestFilterByDistrict(t *testing.T) {
	var all []*entity.Report
	all = append(all, reports("781001", "Kamrup Metropolitan", 2)...)
	all = append(all, report("781001", "Unknown", 9, valueobject.ReportStatusReported))
	all = append(all, reports("782001", "Nagaon", 1)...)
	groups := aggregation.ComputeGroups(all)

	assert.Len(t, aggregation.FilterByDistrict(groups, ""), 2)

	unknown := aggregation.FilterByDistrict(groups, "Unknown")
	require.Len(t, unknown, 1)
	assert.Equal(t, "781001", unknown[0].LocationKey)
	assert.Equal(t, 3, unknown[0].Count)

	assert.Empty(t, aggregation.FilterByDistrict(groups, "Jorhat"))
}
