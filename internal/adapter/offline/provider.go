// Package offline implements domain.GeocodeProvider from an embedded
// zipcode-centroid dataset. It is the guaranteed terminal fallback of the
// resolver chain: coarse (zip/city granularity only), but it never fails
// for valid coordinates and needs no credential.
package offline

import (
	"context"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/stormbuster/hailrisk/internal/domain"
)

// ProviderName identifies this provider in configuration, logs, and results.
const ProviderName = "offline"

//go:embed zipcodes.csv
var zipData embed.FS

type centroid struct {
	zipcode string
	city    string
	state   string
	lat     float64
	lon     float64
}

var (
	loadOnce  sync.Once
	centroids []centroid
)

// Provider resolves coordinates to the nearest known zipcode centroid.
type Provider struct{}

// NewProvider creates the offline provider. The embedded dataset is parsed
// once, on first use.
func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string { return ProviderName }

// ReverseGeocode returns the address of the nearest zipcode centroid. For
// coordinates far from every centroid (open ocean, other continents) it
// still returns a country-level address rather than failing.
func (p *Provider) ReverseGeocode(_ context.Context, lat, lon float64) (domain.Address, error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return domain.Address{}, err
	}

	loadOnce.Do(loadCentroids)

	nearest, distance := nearestCentroid(lat, lon)
	if nearest == nil || distance > maxMatchDegrees {
		return domain.Address{
			FormattedAddress: "United States",
			Country:          "United States",
			Lat:              lat,
			Lon:              lon,
			Provider:         ProviderName,
		}, nil
	}

	return domain.Address{
		FormattedAddress: fmt.Sprintf("%s, %s %s, United States", nearest.city, nearest.state, nearest.zipcode),
		City:             nearest.city,
		State:            nearest.state,
		PostalCode:       nearest.zipcode,
		Country:          "United States",
		Lat:              lat,
		Lon:              lon,
		Provider:         ProviderName,
	}, nil
}

// maxMatchDegrees bounds how far (in equirectangular degrees) a coordinate
// may be from its nearest centroid before the match falls back to a
// country-level address. ~5 degrees is roughly 550 km.
const maxMatchDegrees = 5.0

func nearestCentroid(lat, lon float64) (*centroid, float64) {
	var best *centroid
	bestDist := math.MaxFloat64

	cosLat := math.Cos(lat * math.Pi / 180)
	for i := range centroids {
		c := &centroids[i]
		dLat := c.lat - lat
		dLon := (c.lon - lon) * cosLat
		dist := math.Sqrt(dLat*dLat + dLon*dLon)
		if dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best, bestDist
}

func loadCentroids() {
	f, err := zipData.Open("zipcodes.csv")
	if err != nil {
		// The dataset is compiled in; a missing file is a build defect.
		panic(fmt.Sprintf("offline geocoder dataset missing: %v", err))
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		panic(fmt.Sprintf("offline geocoder dataset header: %v", err))
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) != 5 {
			continue
		}
		lat, latErr := strconv.ParseFloat(rec[3], 64)
		lon, lonErr := strconv.ParseFloat(rec[4], 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		centroids = append(centroids, centroid{
			zipcode: rec[0],
			city:    rec[1],
			state:   rec[2],
			lat:     lat,
			lon:     lon,
		})
	}
}
