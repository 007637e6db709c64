package pincode

import (
	"sort"
	"strings"

	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
)

type Entry struct {
	PinCode   string
	Latitude  float64
	Longitude float64
	Locality  string
	District  string
}

func (e Entry) Coordinates() valueobject.Coordinates {
	return valueobject.Coordinates{Latitude: e.Latitude, Longitude: e.Longitude}
}

// Gazetteer хранит статический справочник PIN-кодов Ассама с центрами почтовых зон.
type Gazetteer struct {
	entries map[string]Entry
}

func NewGazetteer() *Gazetteer {
	entries := make(map[string]Entry, len(assamPinCodes))
	for pin, e := range assamPinCodes {
		e.PinCode = pin
		entries[pin] = e
	}
	return &Gazetteer{entries: entries}
}

func (g *Gazetteer) Lookup(pin string) (Entry, error) {
	e, ok := g.entries[strings.TrimSpace(pin)]
	if !ok {
		return Entry{}, apperror.ErrPincodeNotFound
	}
	return e, nil
}

// Coordinates нужен сценарию эскалации для подстановки координат назначения.
func (g *Gazetteer) Coordinates(pin string) (valueobject.Coordinates, bool) {
	e, ok := g.entries[strings.TrimSpace(pin)]
	if !ok {
		return valueobject.Coordinates{}, false
	}
	return e.Coordinates(), true
}

// ByDistrict возвращает PIN-коды района в порядке возрастания, регистр не важен.
func (g *Gazetteer) ByDistrict(district string) []Entry {
	var out []Entry
	for _, e := range g.entries {
		if strings.EqualFold(e.District, strings.TrimSpace(district)) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PinCode < out[j].PinCode })
	return out
}

var assamPinCodes = map[string]Entry{
	"781001": {Latitude: 26.1445, Longitude: 91.7362, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781002": {Latitude: 26.1507, Longitude: 91.7297, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781003": {Latitude: 26.1591, Longitude: 91.7411, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781004": {Latitude: 26.1442, Longitude: 91.7588, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781005": {Latitude: 26.1389, Longitude: 91.7244, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781006": {Latitude: 26.1502, Longitude: 91.7149, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781007": {Latitude: 26.1555, Longitude: 91.7492, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781008": {Latitude: 26.1356, Longitude: 91.7168, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781009": {Latitude: 26.1623, Longitude: 91.7531, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781010": {Latitude: 26.1314, Longitude: 91.7089, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781011": {Latitude: 26.1467, Longitude: 91.7438, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781012": {Latitude: 26.1534, Longitude: 91.7268, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781013": {Latitude: 26.1398, Longitude: 91.7521, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781014": {Latitude: 26.1290, Longitude: 91.7045, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781015": {Latitude: 26.1687, Longitude: 91.7604, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781016": {Latitude: 26.1243, Longitude: 91.6978, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781017": {Latitude: 26.1756, Longitude: 91.7689, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781018": {Latitude: 26.1186, Longitude: 91.6912, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781019": {Latitude: 26.1823, Longitude: 91.7762, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781020": {Latitude: 26.1129, Longitude: 91.6847, Locality: "Guwahati", District: "Kamrup Metropolitan"},
	"781101": {Latitude: 26.1234, Longitude: 90.2567, Locality: "Rangia", District: "Kamrup"},
	"781102": {Latitude: 26.2145, Longitude: 90.1923, Locality: "Rangia", District: "Kamrup"},
	"781103": {Latitude: 26.1567, Longitude: 90.3401, Locality: "Rani", District: "Kamrup"},
	"782001": {Latitude: 25.8850, Longitude: 92.6897, Locality: "Nagaon", District: "Nagaon"},
	"782002": {Latitude: 25.8923, Longitude: 92.7012, Locality: "Nagaon", District: "Nagaon"},
	"784101": {Latitude: 26.5897, Longitude: 92.5123, Locality: "Tezpur", District: "Sonitpur"},
	"784102": {Latitude: 26.6012, Longitude: 92.5234, Locality: "Tezpur", District: "Sonitpur"},
	"781301": {Latitude: 26.3156, Longitude: 90.0123, Locality: "Barpeta", District: "Barpeta"},
	"781302": {Latitude: 26.3267, Longitude: 90.0234, Locality: "Barpeta", District: "Barpeta"},
	"783370": {Latitude: 26.2734, Longitude: 89.6234, Locality: "Kokrajhar", District: "Kokrajhar"},
	"783371": {Latitude: 26.2845, Longitude: 89.6345, Locality: "Kokrajhar", District: "Kokrajhar"},
}

// Place возвращает населённый пункт и район для PIN-кода. Используется при приёме SMS.
func (g *Gazetteer) Place(pin string) (locality, district string, ok bool) {
	e, found := g.entries[strings.TrimSpace(pin)]
	if !found {
		return "", "", false
	}
	return e.Locality, e.District, true
}
