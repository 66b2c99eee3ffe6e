// Package correction derives a single best-estimate position from
// repeated static-point fixes and reports how far it moved each raw fix.
package correction

import (
	"fmt"
	"math"
	"sort"

	"gnss-survey/internal/models"
	"gnss-survey/internal/quality"
)

// ErrInsufficientData is the message reported when fewer than two
// qualifying position fixes are available.
const ErrInsufficientData = "Insufficient data for corrections (need at least 2 position fixes)"

// Calculate computes a corrected position over the GGA records that carry
// usable coordinates. Invalid input is reported inside the result rather
// than raised: an unknown method or an insufficient point count yields a
// result whose Error field is set.
func Calculate(records []models.Fix, method models.Method, weightByQuality bool, model quality.Model) models.CorrectionResult {
	switch method {
	case models.MethodMean, models.MethodMedian, models.MethodWeightedAverage:
	default:
		return models.CorrectionResult{
			Error: fmt.Sprintf("Unknown correction method: %s", method),
		}
	}

	var pts []*models.GGAFix
	for _, r := range records {
		if r.Type == models.SentenceGGA && r.GGA.HasPosition() {
			pts = append(pts, r.GGA)
		}
	}
	if len(pts) < 2 {
		return models.CorrectionResult{Error: ErrInsufficientData, NumPoints: len(pts)}
	}

	lats := make([]float64, len(pts))
	lons := make([]float64, len(pts))
	weights := make([]float64, len(pts))
	for i, g := range pts {
		lats[i] = g.Latitude
		lons[i] = g.Longitude
		weights[i] = 1.0
	}
	if method == models.MethodWeightedAverage && weightByQuality {
		for i, g := range pts {
			weights[i] = model.Weight(*g)
		}
	}

	// Altitude participates only through present, non-zero samples; when
	// there are none every altitude output stays 0.
	var alts, altWeights []float64
	for i, g := range pts {
		if g.Altitude != nil && *g.Altitude != 0 {
			alts = append(alts, *g.Altitude)
			altWeights = append(altWeights, weights[i])
		}
	}

	var corrected models.Position
	switch method {
	case models.MethodMean:
		corrected.Latitude = mean(lats)
		corrected.Longitude = mean(lons)
		if len(alts) > 0 {
			corrected.Altitude = mean(alts)
		}
	case models.MethodMedian:
		corrected.Latitude = median(lats)
		corrected.Longitude = median(lons)
		if len(alts) > 0 {
			corrected.Altitude = median(alts)
		}
	case models.MethodWeightedAverage:
		lat, ok := weightedMean(lats, weights)
		if !ok {
			return models.CorrectionResult{
				Error:     "Total quality weight is zero; cannot compute weighted average",
				NumPoints: len(pts),
			}
		}
		corrected.Latitude = lat
		corrected.Longitude, _ = weightedMean(lons, weights)
		if len(alts) > 0 {
			corrected.Altitude, _ = weightedMean(alts, altWeights)
		}
	}

	// Baseline for comparison: the unweighted mean, whatever the method.
	center := models.Position{Latitude: mean(lats), Longitude: mean(lons)}
	if len(alts) > 0 {
		center.Altitude = mean(alts)
	}

	dists := make([]float64, len(pts))
	for i := range pts {
		dlatM := (corrected.Latitude - lats[i]) * model.MetersPerDegree
		dlonM := (corrected.Longitude - lons[i]) * model.MetersPerDegree * math.Cos(lats[i]*math.Pi/180)
		dists[i] = math.Hypot(dlatM, dlonM)
	}

	meanAlt := 0.0
	for _, a := range alts {
		meanAlt += corrected.Altitude - a
	}
	if len(alts) > 0 {
		meanAlt /= float64(len(alts))
	}

	latMin, latMax := bounds(lats)
	lonMin, lonMax := bounds(lons)
	distMin, distMax := bounds(dists)
	spreadBefore := math.Sqrt(sq(latMax-latMin)+sq(lonMax-lonMin)) * model.MetersPerDegree

	return models.CorrectionResult{
		NumPoints:         len(pts),
		Method:            method,
		WeightByQuality:   weightByQuality,
		CorrectedPosition: &corrected,
		OriginalCenter:    &center,
		Corrections: &models.CorrectionStats{
			MeanDistanceCorrectionM: mean(dists),
			MinDistanceCorrectionM:  distMin,
			MaxDistanceCorrectionM:  distMax,
			MeanLatCorrection:       corrected.Latitude - center.Latitude,
			MeanLonCorrection:       corrected.Longitude - center.Longitude,
			MeanAltCorrection:       meanAlt,
		},
		AccuracyImprovement: &models.AccuracyStats{
			LatStdBefore:  sampleStd(lats),
			LonStdBefore:  sampleStd(lons),
			SpreadBeforeM: spreadBefore,
			NumPoints:     len(pts),
		},
	}
}

// Apply broadcasts a correction result onto a record collection. Records
// that are not GGA or lack usable coordinates pass through unmodified;
// qualifying records come back as copies carrying both the original and
// corrected coordinates. An error result returns the input content
// unchanged. Output order and length always match the input.
func Apply(records []models.Fix, result models.CorrectionResult) []models.Fix {
	out := make([]models.Fix, len(records))
	copy(out, records)

	if result.Failed() || result.CorrectedPosition == nil {
		return out
	}
	cp := *result.CorrectedPosition

	for i, r := range records {
		if r.Type != models.SentenceGGA || !r.GGA.HasPosition() {
			continue
		}
		g := *r.GGA
		altOriginal := 0.0
		if g.Altitude != nil {
			altOriginal = *g.Altitude
		}
		g.LatitudeOriginal = fptr(g.Latitude)
		g.LongitudeOriginal = fptr(g.Longitude)
		g.AltitudeOriginal = fptr(altOriginal)
		g.LatitudeCorrected = fptr(cp.Latitude)
		g.LongitudeCorrected = fptr(cp.Longitude)
		g.AltitudeCorrected = fptr(cp.Altitude)
		out[i] = models.Fix{Type: models.SentenceGGA, GGA: &g}
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median returns the standard statistical median: the middle value for
// odd counts, the average of the two middle values for even counts.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// weightedMean returns sum(w*v)/sum(w). ok is false when the total weight
// is not positive, which callers must treat as an error condition.
func weightedMean(values, weights []float64) (float64, bool) {
	var sum, total float64
	for i, v := range values {
		sum += v * weights[i]
		total += weights[i]
	}
	if total <= 0 {
		return 0, false
	}
	return sum / total, true
}

// sampleStd is the sample standard deviation (n-1 denominator), 0 for
// fewer than two values.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += sq(v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func bounds(values []float64) (min, max float64) {
	min, max = values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func sq(v float64) float64 { return v * v }

func fptr(v float64) *float64 { return &v }
