// Package quality defines the measurement-confidence model used by the
// statistics and correction packages. The values come from an optional
// YAML file, but the struct lives here so the algorithms can be tested
// without importing any configuration machinery.
package quality

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gnss-survey/internal/models"
)

// Model names the constants that encode how much a single fix is trusted.
// All of them are approximations of a specific, swappable confidence
// model rather than physical truths, which is why they are overridable.
type Model struct {
	// MetersPerDegree converts a degree of latitude (or, latitude-scaled,
	// longitude) to meters. Flat-Earth small-area approximation.
	MetersPerDegree float64 `yaml:"meters_per_degree"`

	// SatelliteNorm is the satellite count that yields a weight factor
	// of 1.0.
	SatelliteNorm float64 `yaml:"satellite_norm"`

	// HDOPFloor caps how much a very small HDOP can inflate a weight.
	HDOPFloor float64 `yaml:"hdop_floor"`

	// DefaultSatellites and DefaultHDOP stand in for records that did not
	// report the field.
	DefaultSatellites float64 `yaml:"default_satellites"`
	DefaultHDOP       float64 `yaml:"default_hdop"`

	// Weights maps fix quality to a base confidence weight.
	// DefaultWeight applies to qualities not in the table.
	Weights       map[models.FixQuality]float64 `yaml:"weights"`
	DefaultWeight float64                       `yaml:"default_weight"`

	// HighPrecision lists the qualities counted toward the
	// signal-quality percentage.
	HighPrecision []models.FixQuality `yaml:"high_precision"`
}

// Default returns the stock model.
func Default() Model {
	return Model{
		MetersPerDegree:   111000,
		SatelliteNorm:     12,
		HDOPFloor:         0.5,
		DefaultSatellites: 4,
		DefaultHDOP:       2.0,
		DefaultWeight:     1.0,
		Weights: map[models.FixQuality]float64{
			models.QualityRTKFixed: 10.0,
			models.QualityRTKFloat: 5.0,
			models.QualityDGPSFix:  2.0,
			models.QualityGPSFix:   1.0,
			models.QualityNoFix:    0.1,
		},
		HighPrecision: []models.FixQuality{
			models.QualityRTKFixed,
			models.QualityRTKFloat,
			models.QualityDGPSFix,
		},
	}
}

// Load reads model overrides from a YAML file. Keys missing from the file
// keep their default values.
func Load(path string) (Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Model{}, err
	}

	m := Default()
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Model{}, fmt.Errorf("failed to parse model file: %w", err)
	}

	if m.MetersPerDegree <= 0 {
		return Model{}, fmt.Errorf("meters_per_degree must be > 0")
	}
	if m.SatelliteNorm <= 0 {
		return Model{}, fmt.Errorf("satellite_norm must be > 0")
	}
	if m.HDOPFloor <= 0 {
		return Model{}, fmt.Errorf("hdop_floor must be > 0")
	}
	if m.DefaultSatellites <= 0 {
		return Model{}, fmt.Errorf("default_satellites must be > 0")
	}
	if m.DefaultHDOP <= 0 {
		return Model{}, fmt.Errorf("default_hdop must be > 0")
	}
	if m.DefaultWeight <= 0 {
		return Model{}, fmt.Errorf("default_weight must be > 0")
	}

	return m, nil
}

// Weight computes the confidence weight of a single GGA record:
// qualityWeight * (satellites / norm) * (1 / max(hdop, floor)).
func (m Model) Weight(g models.GGAFix) float64 {
	w, ok := m.Weights[g.FixQuality]
	if !ok {
		w = m.DefaultWeight
	}

	sats := m.DefaultSatellites
	if g.NumSatellites != nil && *g.NumSatellites > 0 {
		sats = float64(*g.NumSatellites)
	}

	hdop := m.DefaultHDOP
	if g.HDOP != nil && *g.HDOP > 0 {
		hdop = *g.HDOP
	}
	if hdop < m.HDOPFloor {
		hdop = m.HDOPFloor
	}

	return w * (sats / m.SatelliteNorm) * (1 / hdop)
}

// IsHighPrecision reports whether the quality counts toward the
// signal-quality percentage.
func (m Model) IsHighPrecision(q models.FixQuality) bool {
	for _, hp := range m.HighPrecision {
		if q == hp {
			return true
		}
	}
	return false
}
