package models

// Summary holds descriptive statistics over a record collection. The zero
// value marshals to an empty JSON document, which is what an empty input
// produces.
type Summary struct {
	TotalSentences int                  `json:"total_sentences,omitempty"`
	SentenceCounts map[SentenceType]int `json:"sentence_counts,omitempty"`
	GGA            *GGAStats            `json:"gga,omitempty"`
	DOP            *DOPStats            `json:"dop,omitempty"`
}

// AxisStats is an average/min/max triple over one numeric field.
type AxisStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AltitudeStats extends AxisStats with the observed range.
type AltitudeStats struct {
	AxisStats
	Range float64 `json:"range"`
}

// SatelliteStats summarizes satellite counts.
type SatelliteStats struct {
	Avg float64 `json:"avg"`
	Min int     `json:"min"`
	Max int     `json:"max"`
}

// GGAStats summarizes the GGA subset of a record collection. Optional
// sections are nil when no record supplied the underlying field.
type GGAStats struct {
	Latitude   *AxisStats      `json:"latitude,omitempty"`
	Longitude  *AxisStats      `json:"longitude,omitempty"`
	Altitude   *AltitudeStats  `json:"altitude,omitempty"`
	Satellites *SatelliteStats `json:"satellites,omitempty"`

	// PositionSpreadM is a flat-Earth estimate of the position scatter:
	// sqrt(latRange^2 + lonRange^2) scaled by meters-per-degree.
	PositionSpreadM *float64 `json:"position_spread_m,omitempty"`

	FixCounts      map[FixQuality]int     `json:"fix_counts"`
	FixPercentages map[FixQuality]float64 `json:"fix_percentages"`

	// SignalQualityPercent is the share of GGA records whose fix quality
	// is in the model's high-precision set.
	SignalQualityPercent float64 `json:"signal_quality_percent"`
}

// DOPStats summarizes dilution-of-precision over the GSA subset. Only
// strictly positive values contribute.
type DOPStats struct {
	HDOP    *AxisStats `json:"hdop,omitempty"`
	AvgPDOP *float64   `json:"avg_pdop,omitempty"`
	AvgVDOP *float64   `json:"avg_vdop,omitempty"`
}
