// Package geocoder resolves where an alert applies from the free text the
// upstream feed provides.
package geocoder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/weatherengine/maritime/internal/models"
)

// seaArea is a named basin with a representative position
type seaArea struct {
	name   string
	center models.Coordinates
}

// Known basins, longest names first so "North Atlantic" wins over "Atlantic".
var seaAreas = []seaArea{
	{"Gulf of Mexico", models.Coordinates{Lat: 25, Lon: -90}},
	{"Mediterranean Sea", models.Coordinates{Lat: 35, Lon: 18}},
	{"North Atlantic", models.Coordinates{Lat: 40, Lon: -40}},
	{"South Atlantic", models.Coordinates{Lat: -25, Lon: -15}},
	{"North Pacific", models.Coordinates{Lat: 35, Lon: -160}},
	{"South Pacific", models.Coordinates{Lat: -25, Lon: -140}},
	{"South China Sea", models.Coordinates{Lat: 12, Lon: 114}},
	{"Bay of Bengal", models.Coordinates{Lat: 15, Lon: 88}},
	{"Caribbean Sea", models.Coordinates{Lat: 15, Lon: -75}},
	{"Arabian Sea", models.Coordinates{Lat: 15, Lon: 65}},
	{"Indian Ocean", models.Coordinates{Lat: -20, Lon: 80}},
	{"Gulf of Aden", models.Coordinates{Lat: 12.5, Lon: 48}},
	{"Persian Gulf", models.Coordinates{Lat: 26.5, Lon: 52}},
	{"Red Sea", models.Coordinates{Lat: 20, Lon: 38}},
	{"North Sea", models.Coordinates{Lat: 56, Lon: 3}},
	{"Baltic Sea", models.Coordinates{Lat: 58, Lon: 20}},
	{"Coral Sea", models.Coordinates{Lat: -18, Lon: 155}},
}

// Geocoder provides geolocation functionality for alerts
type Geocoder struct {
	coordRegex *regexp.Regexp
	zoneRegex  *regexp.Regexp
}

// New creates a new geocoder instance
func New() *Geocoder {
	return &Geocoder{
		coordRegex: regexp.MustCompile(`(\d{1,2}(?:\.\d+)?)\s*°\s*([NSns])\s*,?\s*(\d{1,3}(?:\.\d+)?)\s*°\s*([EWew])`),
		zoneRegex:  regexp.MustCompile(`(?i)\bzone\s+\d+\b`),
	}
}

// Geocode fills the alert's location and coordinates from its text when
// they are missing. Explicit positions such as "(35°N, 45°W)" win over a
// named sea area.
func (g *Geocoder) Geocode(alert *models.Alert) error {
	text := alert.Location + " " + alert.Title + " " + alert.Description

	if alert.Coordinates == nil {
		if c, ok := g.ParseCoordinates(text); ok {
			alert.Coordinates = &c
		}
	}

	area, found := findSeaArea(text)
	if alert.Location == "" && found {
		alert.Location = area.name
		if zone := g.zoneRegex.FindString(text); zone != "" {
			alert.Location += " - " + zone
		}
	}
	if alert.Coordinates == nil && found {
		c := area.center
		alert.Coordinates = &c
	}
	return nil
}

// ParseCoordinates extracts the first degree position in text
func (g *Geocoder) ParseCoordinates(text string) (models.Coordinates, bool) {
	m := g.coordRegex.FindStringSubmatch(text)
	if m == nil {
		return models.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil || lat > 90 {
		return models.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(m[3], 64)
	if err != nil || lon > 180 {
		return models.Coordinates{}, false
	}
	if strings.EqualFold(m[2], "S") {
		lat = -lat
	}
	if strings.EqualFold(m[4], "W") {
		lon = -lon
	}
	return models.Coordinates{Lat: lat, Lon: lon}, true
}

func findSeaArea(text string) (seaArea, bool) {
	lower := strings.ToLower(text)
	best, bestAt := seaArea{}, -1
	for _, a := range seaAreas {
		at := strings.Index(lower, strings.ToLower(a.name))
		if at >= 0 && (bestAt < 0 || at < bestAt) {
			best, bestAt = a, at
		}
	}
	return best, bestAt >= 0
}
