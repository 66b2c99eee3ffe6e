// Package stats reduces a fix record collection to descriptive
// statistics. Everything here is a pure function over its inputs.
package stats

import (
	"math"

	"gnss-survey/internal/models"
	"gnss-survey/internal/quality"
)

// Summarize computes summary statistics over records. An empty input
// yields the zero Summary, which marshals to an empty document.
func Summarize(records []models.Fix, model quality.Model) models.Summary {
	if len(records) == 0 {
		return models.Summary{}
	}

	s := models.Summary{
		TotalSentences: len(records),
		SentenceCounts: make(map[models.SentenceType]int),
	}

	var gga []*models.GGAFix
	var gsa []*models.GSAFix
	for _, r := range records {
		s.SentenceCounts[r.Type]++
		switch {
		case r.Type == models.SentenceGGA && r.GGA != nil:
			gga = append(gga, r.GGA)
		case r.Type == models.SentenceGSA && r.GSA != nil:
			gsa = append(gsa, r.GSA)
		}
	}

	if len(gga) > 0 {
		s.GGA = summarizeGGA(gga, model)
	}
	if len(gsa) > 0 {
		s.DOP = summarizeDOP(gsa)
	}
	return s
}

func summarizeGGA(gga []*models.GGAFix, model quality.Model) *models.GGAStats {
	var lats, lons, alts []float64
	var sats []int

	counts := make(map[models.FixQuality]int)
	highPrecision := 0

	for _, g := range gga {
		if g.HasPosition() {
			lats = append(lats, g.Latitude)
			lons = append(lons, g.Longitude)
		}
		// A zero altitude is indistinguishable from a missing one at the
		// decoder boundary; both are excluded from the aggregates.
		if g.Altitude != nil && *g.Altitude != 0 {
			alts = append(alts, *g.Altitude)
		}
		if g.NumSatellites != nil && *g.NumSatellites > 0 {
			sats = append(sats, *g.NumSatellites)
		}
		counts[g.FixQuality]++
		if model.IsHighPrecision(g.FixQuality) {
			highPrecision++
		}
	}

	percentages := make(map[models.FixQuality]float64, len(counts))
	for q, c := range counts {
		percentages[q] = round1(100 * float64(c) / float64(len(gga)))
	}

	out := &models.GGAStats{
		FixCounts:            counts,
		FixPercentages:       percentages,
		SignalQualityPercent: round1(100 * float64(highPrecision) / float64(len(gga))),
	}

	if len(lats) > 0 && len(lons) > 0 {
		la := axis(lats)
		lo := axis(lons)
		out.Latitude = &la
		out.Longitude = &lo
		spread := math.Sqrt(sq(la.Max-la.Min)+sq(lo.Max-lo.Min)) * model.MetersPerDegree
		out.PositionSpreadM = &spread
	}

	if len(alts) > 0 {
		a := axis(alts)
		out.Altitude = &models.AltitudeStats{AxisStats: a, Range: a.Max - a.Min}
	}

	if len(sats) > 0 {
		st := models.SatelliteStats{Min: sats[0], Max: sats[0]}
		sum := 0
		for _, n := range sats {
			sum += n
			if n < st.Min {
				st.Min = n
			}
			if n > st.Max {
				st.Max = n
			}
		}
		st.Avg = float64(sum) / float64(len(sats))
		out.Satellites = &st
	}

	return out
}

func summarizeDOP(gsa []*models.GSAFix) *models.DOPStats {
	var hdops, pdops, vdops []float64
	for _, g := range gsa {
		// Zero or missing DOP values are excluded, not counted as zero.
		if g.HDOP != nil && *g.HDOP > 0 {
			hdops = append(hdops, *g.HDOP)
		}
		if g.PDOP != nil && *g.PDOP > 0 {
			pdops = append(pdops, *g.PDOP)
		}
		if g.VDOP != nil && *g.VDOP > 0 {
			vdops = append(vdops, *g.VDOP)
		}
	}

	if len(hdops) == 0 && len(pdops) == 0 && len(vdops) == 0 {
		return nil
	}

	out := &models.DOPStats{}
	if len(hdops) > 0 {
		h := axis(hdops)
		out.HDOP = &h
	}
	if len(pdops) > 0 {
		v := mean(pdops)
		out.AvgPDOP = &v
	}
	if len(vdops) > 0 {
		v := mean(vdops)
		out.AvgVDOP = &v
	}
	return out
}

func axis(values []float64) models.AxisStats {
	st := models.AxisStats{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		sum += v
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
	}
	st.Avg = sum / float64(len(values))
	return st
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sq(v float64) float64 { return v * v }

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
