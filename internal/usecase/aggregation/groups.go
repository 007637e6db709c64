package aggregation

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
)

type Group struct {
	LocationKey string
	// District берётся из самого раннего отчёта группы.
	District string
	Count    int
	Reports  []*entity.Report
	Severity valueobject.Severity
	Eligible bool
	// ActiveAssignmentID заполняется, если по ключу уже идёт работа лаборатории.
	ActiveAssignmentID *uuid.UUID
}

func (g Group) ReportIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(g.Reports))
	for i, r := range g.Reports {
		ids[i] = r.ID
	}
	return ids
}

// ComputeGroups разбивает активные отчёты по ключу локации и вычисляет серьёзность.
// Неактивные отчёты и отчёты с некорректным ключом не попадают ни в одну группу.
// Eligible здесь равен порогу по количеству; назначения учитывает MarkEligibility.
func ComputeGroups(reports []*entity.Report) []Group {
	byKey := make(map[string][]*entity.Report)
	for _, r := range reports {
		if r == nil || !r.Active() || !valueobject.IsValidLocationKey(r.LocationKey) {
			continue
		}
		byKey[r.LocationKey] = append(byKey[r.LocationKey], r)
	}

	groups := make([]Group, 0, len(byKey))
	for key, members := range byKey {
		sort.SliceStable(members, func(i, j int) bool {
			if !members[i].SubmittedAt.Equal(members[j].SubmittedAt) {
				return members[i].SubmittedAt.Before(members[j].SubmittedAt)
			}
			return members[i].ID.String() < members[j].ID.String()
		})

		count := len(members)
		groups = append(groups, Group{
			LocationKey: key,
			District:    members[0].District,
			Count:       count,
			Reports:     members,
			Severity:    valueobject.SeverityForCount(count),
			Eligible:    count >= valueobject.EscalationThreshold,
		})
	}

	SortGroups(groups)
	return groups
}

// MarkEligibility снимает признак готовности с групп, по которым есть активное назначение.
func MarkEligibility(groups []Group, active map[string]uuid.UUID) {
	for i := range groups {
		if id, ok := active[groups[i].LocationKey]; ok {
			assignmentID := id
			groups[i].ActiveAssignmentID = &assignmentID
			groups[i].Eligible = false
			continue
		}
		groups[i].Eligible = groups[i].Count >= valueobject.EscalationThreshold
	}
}

// FilterByDistrict оставляет группы, в которых хотя бы один отчёт относится к району.
// Состав и счётчики групп не меняются. Пустой район возвращает все группы.
func FilterByDistrict(groups []Group, district string) []Group {
	if district == "" {
		return groups
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		for _, r := range g.Reports {
			if strings.EqualFold(strings.TrimSpace(r.District), district) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// SortGroups: серьёзность по убыванию, затем количество по убыванию, затем ключ.
func SortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.LocationKey < b.LocationKey
	})
}
