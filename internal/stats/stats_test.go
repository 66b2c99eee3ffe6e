package stats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnss-survey/internal/models"
	"gnss-survey/internal/quality"
)

func iptr(v int) *int         { return &v }
func fptr(v float64) *float64 { return &v }

func ggaFix(lat, lon float64, alt *float64, q models.FixQuality, sats *int, hdop *float64) models.Fix {
	return models.Fix{Type: models.SentenceGGA, GGA: &models.GGAFix{
		Latitude:      lat,
		Longitude:     lon,
		Altitude:      alt,
		FixQuality:    q,
		NumSatellites: sats,
		HDOP:          hdop,
	}}
}

func gsaFix(pdop, hdop, vdop *float64) models.Fix {
	return models.Fix{Type: models.SentenceGSA, GSA: &models.GSAFix{
		Mode:    "A",
		FixType: models.FixType3D,
		PDOP:    pdop,
		HDOP:    hdop,
		VDOP:    vdop,
	}}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, quality.Default())
	assert.Equal(t, models.Summary{}, s)

	// An empty input marshals to an empty document.
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}

func TestSummarizeCounts(t *testing.T) {
	records := []models.Fix{
		ggaFix(37.0, -122.0, nil, models.QualityGPSFix, nil, nil),
		ggaFix(37.1, -122.1, nil, models.QualityGPSFix, nil, nil),
		gsaFix(nil, fptr(1.2), nil),
		{Type: models.SentenceRMC, RMC: &models.RMCFix{Status: models.StatusActive}},
	}

	s := Summarize(records, quality.Default())

	assert.Equal(t, 4, s.TotalSentences)
	assert.Equal(t, 2, s.SentenceCounts[models.SentenceGGA])
	assert.Equal(t, 1, s.SentenceCounts[models.SentenceGSA])
	assert.Equal(t, 1, s.SentenceCounts[models.SentenceRMC])
}

func TestSummarizeGGA(t *testing.T) {
	records := []models.Fix{
		ggaFix(37.000, -122.000, fptr(10.0), models.QualityGPSFix, iptr(8), fptr(1.0)),
		ggaFix(37.002, -122.002, fptr(14.0), models.QualityRTKFixed, iptr(10), fptr(0.8)),
		ggaFix(36.998, -121.998, nil, models.QualityDGPSFix, iptr(6), fptr(1.2)),
	}

	s := Summarize(records, quality.Default())
	require.NotNil(t, s.GGA)
	g := s.GGA

	require.NotNil(t, g.Latitude)
	assert.InDelta(t, 37.0, g.Latitude.Avg, 1e-9)
	assert.InDelta(t, 36.998, g.Latitude.Min, 1e-9)
	assert.InDelta(t, 37.002, g.Latitude.Max, 1e-9)

	require.NotNil(t, g.Longitude)
	assert.InDelta(t, -122.0, g.Longitude.Avg, 1e-9)

	// Altitude stats cover the two records that carry one.
	require.NotNil(t, g.Altitude)
	assert.InDelta(t, 12.0, g.Altitude.Avg, 1e-9)
	assert.InDelta(t, 4.0, g.Altitude.Range, 1e-9)

	require.NotNil(t, g.Satellites)
	assert.InDelta(t, 8.0, g.Satellites.Avg, 1e-9)
	assert.Equal(t, 6, g.Satellites.Min)
	assert.Equal(t, 10, g.Satellites.Max)

	// Spread: lat range 0.004, lon range 0.004.
	require.NotNil(t, g.PositionSpreadM)
	assert.InDelta(t, 628.0, *g.PositionSpreadM, 1.0)

	assert.Equal(t, 1, g.FixCounts[models.QualityGPSFix])
	assert.Equal(t, 1, g.FixCounts[models.QualityRTKFixed])
	assert.Equal(t, 1, g.FixCounts[models.QualityDGPSFix])

	// Percentages are rounded to one decimal and sum to ~100.
	sum := 0.0
	for _, pct := range g.FixPercentages {
		assert.GreaterOrEqual(t, pct, 0.0)
		assert.LessOrEqual(t, pct, 100.0)
		sum += pct
	}
	assert.InDelta(t, 100.0, sum, 0.2)

	// RTK Fixed + DGPS Fix out of three records.
	assert.InDelta(t, 66.7, g.SignalQualityPercent, 1e-9)
}

func TestSummarizeExcludesZeroValues(t *testing.T) {
	records := []models.Fix{
		ggaFix(37.0, -122.0, fptr(0.0), models.QualityGPSFix, iptr(0), nil),
		ggaFix(0, 0, nil, models.QualityNoFix, nil, nil), // no position
	}

	s := Summarize(records, quality.Default())
	require.NotNil(t, s.GGA)

	// Zero altitude and zero satellite count are excluded, not averaged in.
	assert.Nil(t, s.GGA.Altitude)
	assert.Nil(t, s.GGA.Satellites)

	// Only the positioned record contributes coordinates.
	require.NotNil(t, s.GGA.Latitude)
	assert.InDelta(t, 37.0, s.GGA.Latitude.Min, 1e-9)
	assert.InDelta(t, 37.0, s.GGA.Latitude.Max, 1e-9)
}

func TestSummarizeDOP(t *testing.T) {
	records := []models.Fix{
		gsaFix(fptr(2.0), fptr(1.0), fptr(1.5)),
		gsaFix(nil, fptr(3.0), nil),
		gsaFix(fptr(4.0), nil, nil), // missing HDOP excluded, not zero
	}

	s := Summarize(records, quality.Default())
	require.NotNil(t, s.DOP)

	require.NotNil(t, s.DOP.HDOP)
	assert.InDelta(t, 2.0, s.DOP.HDOP.Avg, 1e-9)
	assert.InDelta(t, 1.0, s.DOP.HDOP.Min, 1e-9)
	assert.InDelta(t, 3.0, s.DOP.HDOP.Max, 1e-9)

	require.NotNil(t, s.DOP.AvgPDOP)
	assert.InDelta(t, 3.0, *s.DOP.AvgPDOP, 1e-9)
	require.NotNil(t, s.DOP.AvgVDOP)
	assert.InDelta(t, 1.5, *s.DOP.AvgVDOP, 1e-9)
}

func TestSummarizeDOPAllMissing(t *testing.T) {
	s := Summarize([]models.Fix{gsaFix(nil, nil, nil)}, quality.Default())
	assert.Equal(t, 1, s.SentenceCounts[models.SentenceGSA])
	assert.Nil(t, s.DOP)
}

func TestSignalQualityBounds(t *testing.T) {
	all := []models.Fix{
		ggaFix(37.0, -122.0, nil, models.QualityRTKFixed, nil, nil),
		ggaFix(37.0, -122.0, nil, models.QualityRTKFloat, nil, nil),
	}
	none := []models.Fix{
		ggaFix(37.0, -122.0, nil, models.QualityNoFix, nil, nil),
	}

	assert.Equal(t, 100.0, Summarize(all, quality.Default()).GGA.SignalQualityPercent)
	assert.Equal(t, 0.0, Summarize(none, quality.Default()).GGA.SignalQualityPercent)
}
