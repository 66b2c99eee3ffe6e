package models

// SentenceType identifies which NMEA sentence a fix record was decoded from.
type SentenceType string

const (
	SentenceGGA SentenceType = "GGA"
	SentenceRMC SentenceType = "RMC"
	SentenceGSA SentenceType = "GSA"
	SentenceGSV SentenceType = "GSV"
)

// FixQuality is the GGA quality indicator as a human-readable name.
type FixQuality string

const (
	QualityNoFix      FixQuality = "No Fix"
	QualityGPSFix     FixQuality = "GPS Fix"
	QualityDGPSFix    FixQuality = "DGPS Fix"
	QualityPPSFix     FixQuality = "PPS Fix"
	QualityRTKFixed   FixQuality = "RTK Fixed"
	QualityRTKFloat   FixQuality = "RTK Float"
	QualityEstimated  FixQuality = "Estimated"
	QualityManual     FixQuality = "Manual"
	QualitySimulation FixQuality = "Simulation"
	QualityUnknown    FixQuality = "Unknown"
)

// RMC status values.
const (
	StatusActive = "Active"
	StatusVoid   = "Void"
)

// GSA fix type names.
const (
	FixTypeNone    = "No Fix"
	FixType2D      = "2D Fix"
	FixType3D      = "3D Fix"
	FixTypeUnknown = "Unknown"
)

// Fix is a single decoded NMEA sentence. Exactly one of the sentence
// fields is non-nil and it matches Type.
type Fix struct {
	Type SentenceType `json:"sentence_type"`
	GGA  *GGAFix      `json:"gga,omitempty"`
	RMC  *RMCFix      `json:"rmc,omitempty"`
	GSA  *GSAFix      `json:"gsa,omitempty"`
	GSV  *GSVFix      `json:"gsv,omitempty"`
}

// GGAFix carries position and fix-quality data. Altitude, NumSatellites
// and HDOP are nil when the sentence left the field empty. A latitude or
// longitude of exactly 0 is treated as missing: receivers emit empty
// coordinate fields as zero, and a survey point sitting exactly on the
// equator or prime meridian is outside this tool's intended use.
type GGAFix struct {
	Timestamp     string     `json:"timestamp,omitempty"`
	Latitude      float64    `json:"latitude"`
	Longitude     float64    `json:"longitude"`
	Altitude      *float64   `json:"altitude,omitempty"`
	FixQuality    FixQuality `json:"fix_quality"`
	NumSatellites *int       `json:"num_satellites,omitempty"`
	HDOP          *float64   `json:"hdop,omitempty"`

	// Populated by the correction applicator.
	LatitudeOriginal   *float64 `json:"latitude_original,omitempty"`
	LongitudeOriginal  *float64 `json:"longitude_original,omitempty"`
	AltitudeOriginal   *float64 `json:"altitude_original,omitempty"`
	LatitudeCorrected  *float64 `json:"latitude_corrected,omitempty"`
	LongitudeCorrected *float64 `json:"longitude_corrected,omitempty"`
	AltitudeCorrected  *float64 `json:"altitude_corrected,omitempty"`
}

// HasPosition reports whether the record carries usable coordinates.
func (g *GGAFix) HasPosition() bool {
	return g != nil && g.Latitude != 0 && g.Longitude != 0
}

// RMCFix carries recommended-minimum navigation data.
type RMCFix struct {
	Timestamp  string  `json:"timestamp,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	SpeedKnots float64 `json:"speed"`
	Course     float64 `json:"course"`
	Status     string  `json:"status"`
}

// GSAFix carries dilution-of-precision and active satellite data.
// DOP fields are nil when the sentence left them empty.
type GSAFix struct {
	Mode         string   `json:"mode"`
	FixType      string   `json:"fix_type"`
	PDOP         *float64 `json:"pdop,omitempty"`
	HDOP         *float64 `json:"hdop,omitempty"`
	VDOP         *float64 `json:"vdop,omitempty"`
	SatelliteIDs []string `json:"satellite_ids,omitempty"`
}

// GSVFix carries satellites-in-view data.
type GSVFix struct {
	NumMessages int            `json:"num_messages"`
	MsgNum      int            `json:"msg_num"`
	NumSVInView int            `json:"num_sv_in_view"`
	Satellites  []GSVSatellite `json:"satellites,omitempty"`
}

// GSVSatellite is one satellite entry within a GSV sentence.
type GSVSatellite struct {
	ID        int `json:"id"`
	Elevation int `json:"elevation"`
	Azimuth   int `json:"azimuth"`
	SNR       int `json:"snr"`
}
