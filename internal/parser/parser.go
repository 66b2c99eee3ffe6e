// Package parser is the boundary to the external NMEA decoder. It turns
// raw sentence lines into fix records and keeps an inspectable count of
// everything it could not decode.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"gnss-survey/internal/models"
)

// Skip records one undecodable line and why it was dropped.
type Skip struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Report counts the outcome of a multi-line parse.
type Report struct {
	Lines   int    `json:"lines"`
	Decoded int    `json:"decoded"`
	Skipped int    `json:"skipped"`
	Skips   []Skip `json:"skips,omitempty"`
}

// DecodeSentence decodes a single NMEA sentence into a fix record. The
// returned error is a skip reason (bad checksum, malformed fields,
// unsupported sentence type), never a fault.
func DecodeSentence(line string) (models.Fix, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return models.Fix{}, fmt.Errorf("not an NMEA sentence")
	}

	sent, err := nmea.Parse(line)
	if err != nil {
		return models.Fix{}, err
	}

	switch sent.DataType() {
	case nmea.TypeGGA:
		m := sent.(nmea.GGA)
		g := &models.GGAFix{
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			FixQuality: fixQualityName(m.FixQuality),
		}
		if m.Time.Valid {
			g.Timestamp = m.Time.String()
		}
		if m.Altitude != 0 {
			alt := m.Altitude
			g.Altitude = &alt
		}
		if m.NumSatellites > 0 {
			n := int(m.NumSatellites)
			g.NumSatellites = &n
		}
		if m.HDOP > 0 {
			h := m.HDOP
			g.HDOP = &h
		}
		return models.Fix{Type: models.SentenceGGA, GGA: g}, nil

	case nmea.TypeRMC:
		m := sent.(nmea.RMC)
		r := &models.RMCFix{
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			SpeedKnots: m.Speed,
			Course:     m.Course,
			Status:     models.StatusVoid,
		}
		if m.Time.Valid {
			r.Timestamp = m.Time.String()
		}
		if m.Validity == "A" {
			r.Status = models.StatusActive
		}
		return models.Fix{Type: models.SentenceRMC, RMC: r}, nil

	case nmea.TypeGSA:
		m := sent.(nmea.GSA)
		g := &models.GSAFix{
			Mode:    m.Mode,
			FixType: fixTypeName(m.FixType),
		}
		if m.PDOP > 0 {
			v := m.PDOP
			g.PDOP = &v
		}
		if m.HDOP > 0 {
			v := m.HDOP
			g.HDOP = &v
		}
		if m.VDOP > 0 {
			v := m.VDOP
			g.VDOP = &v
		}
		for _, sv := range m.SV {
			if sv != "" {
				g.SatelliteIDs = append(g.SatelliteIDs, sv)
			}
		}
		return models.Fix{Type: models.SentenceGSA, GSA: g}, nil

	case nmea.TypeGSV:
		m := sent.(nmea.GSV)
		g := &models.GSVFix{
			NumMessages: int(m.TotalMessages),
			MsgNum:      int(m.MessageNumber),
			NumSVInView: int(m.NumberSVsInView),
		}
		for _, info := range m.Info {
			g.Satellites = append(g.Satellites, models.GSVSatellite{
				ID:        int(info.SVPRNNumber),
				Elevation: int(info.Elevation),
				Azimuth:   int(info.Azimuth),
				SNR:       int(info.SNR),
			})
		}
		return models.Fix{Type: models.SentenceGSV, GSV: g}, nil
	}

	return models.Fix{}, fmt.Errorf("unsupported sentence type %s", sent.DataType())
}

// ParseReader decodes every line of r. Undecodable lines are dropped from
// the record sequence and tallied in the report.
func ParseReader(r io.Reader) ([]models.Fix, Report, error) {
	var records []models.Fix
	var report Report

	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		report.Lines++

		fix, err := DecodeSentence(line)
		if err != nil {
			report.Skipped++
			report.Skips = append(report.Skips, Skip{Line: lineNum, Reason: err.Error()})
			continue
		}
		report.Decoded++
		records = append(records, fix)
	}

	if err := scanner.Err(); err != nil {
		return records, report, fmt.Errorf("error reading input: %w", err)
	}
	return records, report, nil
}

// ParseFile decodes an NMEA log file.
func ParseFile(filename string) ([]models.Fix, Report, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file)
}

// fixQualityName converts the GGA quality indicator to a readable name.
func fixQualityName(code string) models.FixQuality {
	switch strings.TrimSpace(code) {
	case "0":
		return models.QualityNoFix
	case "1":
		return models.QualityGPSFix
	case "2":
		return models.QualityDGPSFix
	case "3":
		return models.QualityPPSFix
	case "4":
		return models.QualityRTKFixed
	case "5":
		return models.QualityRTKFloat
	case "6":
		return models.QualityEstimated
	case "7":
		return models.QualityManual
	case "8":
		return models.QualitySimulation
	}
	return models.QualityUnknown
}

// fixTypeName converts the GSA fix type to a readable name.
func fixTypeName(code string) string {
	switch strings.TrimSpace(code) {
	case "1":
		return models.FixTypeNone
	case "2":
		return models.FixType2D
	case "3":
		return models.FixType3D
	}
	return models.FixTypeUnknown
}
