package valueobject

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
)

// средний радиус Земли для формулы гаверсинусов
const EarthRadiusKm = 6371.0

// Ключ локации — шестизначный индийский PIN-код без ведущего нуля.
var locationKeyPattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// NormalizeLocationKey обрезает пробелы и проверяет формат ключа.
func NormalizeLocationKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if !locationKeyPattern.MatchString(key) {
		return "", false
	}
	return key, true
}

func IsValidLocationKey(key string) bool {
	return locationKeyPattern.MatchString(key)
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func NewCoordinates(lat, lon float64) (Coordinates, error) {
	c := Coordinates{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return apperror.WithFields(apperror.ErrCodeInvalidCoordinate,
			fmt.Sprintf("широта %v вне диапазона [-90, 90]", c.Latitude), "latitude")
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return apperror.WithFields(apperror.ErrCodeInvalidCoordinate,
			fmt.Sprintf("долгота %v вне диапазона [-180, 180]", c.Longitude), "longitude")
	}
	return nil
}

// DistanceKm считает расстояние по большому кругу (гаверсинусы). Координаты должны быть валидны.
func (c Coordinates) DistanceKm(other Coordinates) float64 {
	lat1 := toRadians(c.Latitude)
	lat2 := toRadians(other.Latitude)
	dLat := toRadians(other.Latitude - c.Latitude)
	dLon := toRadians(other.Longitude - c.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// для почти антиподальных точек погрешность может дать a > 1
	a = math.Min(a, 1)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Latitude, c.Longitude)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
