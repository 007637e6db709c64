package alert

import (
	"fmt"
	"math"
	"sort"

	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
)

const (
	DefaultRadiusKm    = 2.0
	DefaultMaxRadiusKm = 50.0
)

type NearbyAlert struct {
	Assignment *entity.Assignment
	DistanceKm float64
}

// FindNearby отбирает активные назначения с координатами в пределах radiusKm
// и сортирует их по расстоянию. Радиус проверяется до вызова (ValidateRadius).
func FindNearby(userLat, userLon, radiusKm float64, assignments []*entity.Assignment) ([]NearbyAlert, error) {
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		return nil, invalidRadius(radiusKm)
	}

	user, err := valueobject.NewCoordinates(userLat, userLon)
	if err != nil {
		return nil, err
	}

	alerts := make([]NearbyAlert, 0)
	for _, a := range assignments {
		if a == nil || !a.Active() || a.Coordinates == nil {
			continue
		}
		if err := a.Coordinates.Validate(); err != nil {
			return nil, apperror.WithFields(apperror.ErrCodeInvalidCoordinate,
				fmt.Sprintf("у назначения %s некорректные координаты", a.ID), a.ID.String())
		}

		d := user.DistanceKm(*a.Coordinates)
		if d <= radiusKm {
			alerts = append(alerts, NearbyAlert{Assignment: a, DistanceKm: d})
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].DistanceKm != alerts[j].DistanceKm {
			return alerts[i].DistanceKm < alerts[j].DistanceKm
		}
		ai, aj := alerts[i].Assignment, alerts[j].Assignment
		if !ai.CreatedAt.Equal(aj.CreatedAt) {
			return ai.CreatedAt.Before(aj.CreatedAt)
		}
		return ai.ID.String() < aj.ID.String()
	})

	return alerts, nil
}

// ValidateRadius проверяет радиус против настроенного максимума.
func ValidateRadius(radiusKm, maxRadiusKm float64) error {
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 || radiusKm > maxRadiusKm {
		return invalidRadius(radiusKm)
	}
	return nil
}

func invalidRadius(radiusKm float64) error {
	return apperror.WithFields(apperror.ErrCodeInvalidRadius,
		fmt.Sprintf("некорректный радиус %v км", radiusKm), "radius_km")
}
