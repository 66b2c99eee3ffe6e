package models

// Method selects the position estimator.
type Method string

const (
	MethodMean            Method = "mean"
	MethodMedian          Method = "median"
	MethodWeightedAverage Method = "weighted_average"
)

// Position is a point estimate in decimal degrees and meters.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// CorrectionRequest is the accepted shape for correction calls.
// Method defaults to mean and WeightByQuality to true when omitted.
type CorrectionRequest struct {
	Method          Method `json:"method"`
	WeightByQuality *bool  `json:"weight_by_quality"`
}

// CorrectionStats reports how far the corrected position moved each
// qualifying record, signed per axis and as planar distances in meters.
type CorrectionStats struct {
	MeanDistanceCorrectionM float64 `json:"mean_distance_correction_m"`
	MinDistanceCorrectionM  float64 `json:"min_distance_correction_m"`
	MaxDistanceCorrectionM  float64 `json:"max_distance_correction_m"`
	MeanLatCorrection       float64 `json:"mean_lat_correction"`
	MeanLonCorrection       float64 `json:"mean_lon_correction"`
	MeanAltCorrection       float64 `json:"mean_alt_correction"`
}

// AccuracyStats describes the scatter of the raw fixes before correction.
type AccuracyStats struct {
	LatStdBefore  float64 `json:"lat_std_before"`
	LonStdBefore  float64 `json:"lon_std_before"`
	SpreadBeforeM float64 `json:"spread_before_m"`
	NumPoints     int     `json:"num_points"`
}

// CorrectionResult is the outcome of a correction calculation. On failure
// only Error and NumPoints are set; computation-level problems are data,
// not faults, so callers can render them without special-casing panics.
type CorrectionResult struct {
	Error     string `json:"error,omitempty"`
	NumPoints int    `json:"num_points"`

	Method              Method           `json:"method,omitempty"`
	WeightByQuality     bool             `json:"weight_by_quality"`
	CorrectedPosition   *Position        `json:"corrected_position,omitempty"`
	OriginalCenter      *Position        `json:"original_center,omitempty"`
	Corrections         *CorrectionStats `json:"corrections,omitempty"`
	AccuracyImprovement *AccuracyStats   `json:"accuracy_improvement,omitempty"`
}

// Failed reports whether the result carries an error instead of a
// corrected position.
func (r CorrectionResult) Failed() bool {
	return r.Error != ""
}
