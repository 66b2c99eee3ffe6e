package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnss-survey/internal/models"
	"gnss-survey/internal/quality"
)

func iptr(v int) *int         { return &v }
func fptr(v float64) *float64 { return &v }

func ggaFix(lat, lon float64) models.Fix {
	return models.Fix{Type: models.SentenceGGA, GGA: &models.GGAFix{
		Latitude:      lat,
		Longitude:     lon,
		FixQuality:    models.QualityGPSFix,
		NumSatellites: iptr(8),
		HDOP:          fptr(1.0),
	}}
}

func testDataset() []models.Fix {
	return []models.Fix{
		ggaFix(37.0000, -122.0000),
		ggaFix(37.0010, -122.0010),
		ggaFix(36.9990, -121.9990),
		{Type: models.SentenceRMC, RMC: &models.RMCFix{Status: models.StatusActive}},
	}
}

func doRequest(t *testing.T, s *Server, method, path string, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestHealth(t *testing.T) {
	s := NewServer(testDataset(), quality.Default())

	rec, payload := doRequest(t, s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestGetData(t *testing.T) {
	s := NewServer(testDataset(), quality.Default())

	rec, payload := doRequest(t, s, http.MethodGet, "/api/data", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, float64(4), payload["count"])
	assert.Len(t, payload["data"], 4)
}

func TestGetStats(t *testing.T) {
	s := NewServer(testDataset(), quality.Default())

	rec, payload := doRequest(t, s, http.MethodGet, "/api/stats", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	stats, ok := payload["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(4), stats["total_sentences"])
}

func TestGetPositions(t *testing.T) {
	s := NewServer(testDataset(), quality.Default())

	rec, payload := doRequest(t, s, http.MethodGet, "/api/positions", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Only the three GGA records carry positions; the RMC is skipped.
	positions, ok := payload["positions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, positions, 3)

	first, ok := positions[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 37.0, first["lat"])
	assert.Equal(t, string(models.QualityGPSFix), first["fix_quality"])
}

func TestCorrectionsDefaults(t *testing.T) {
	s := NewServer(testDataset(), quality.Default())

	// An empty body means method=mean, weight_by_quality=true.
	rec, payload := doRequest(t, s, http.MethodPost, "/api/corrections", nil, "application/json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", payload["status"])

	corrections, ok := payload["corrections"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(models.MethodMean), corrections["method"])
	assert.Equal(t, true, corrections["weight_by_quality"])
	assert.Equal(t, float64(3), corrections["num_points"])

	pos, ok := corrections["corrected_position"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 37.0, pos["latitude"].(float64), 1e-9)
}

func TestCorrectionsBadMethod(t *testing.T) {
	s := NewServer(testDataset(), quality.Default())

	body := bytes.NewBufferString(`{"method": "centroid"}`)
	rec, payload := doRequest(t, s, http.MethodPost, "/api/corrections", body, "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", payload["status"])
	assert.Contains(t, payload["message"], "centroid")
}

func TestCorrectionsInsufficientData(t *testing.T) {
	s := NewServer([]models.Fix{ggaFix(37.0, -122.0)}, quality.Default())

	rec, payload := doRequest(t, s, http.MethodPost, "/api/corrections", nil, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", payload["status"])
	assert.Contains(t, payload["message"], "Insufficient data")
}

func TestCorrectionsInvalidJSON(t *testing.T) {
	s := NewServer(testDataset(), quality.Default())

	body := bytes.NewBufferString(`{not json`)
	rec, payload := doRequest(t, s, http.MethodPost, "/api/corrections", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", payload["status"])
}

func TestApplyCorrections(t *testing.T) {
	s := NewServer(testDataset(), quality.Default())

	body := bytes.NewBufferString(`{"method": "median", "weight_by_quality": false}`)
	rec, payload := doRequest(t, s, http.MethodPost, "/api/apply_corrections", body, "application/json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", payload["status"])

	data, ok := payload["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 4)

	first, ok := data[0].(map[string]interface{})
	require.True(t, ok)
	gga, ok := first["gga"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, gga, "latitude_original")
	assert.Contains(t, gga, "latitude_corrected")

	// Corrected stats and the correction result ride along.
	assert.Contains(t, payload, "stats")
	corrections, ok := payload["corrections"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(models.MethodMedian), corrections["method"])
}

func TestUpload(t *testing.T) {
	s := NewServer(nil, quality.Default())

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "upload.nmea")
	require.NoError(t, err)

	content := strings.Join([]string{
		nmeaSentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"),
		"garbage line",
		nmeaSentence("GPGGA,123520,4807.039,N,01131.001,E,1,08,0.9,545.6,M,46.9,M,,"),
	}, "\n")
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec, payload := doRequest(t, s, http.MethodPost, "/api/upload", &buf, writer.FormDataContentType())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, float64(2), payload["count"])
	assert.Equal(t, float64(1), payload["skipped"])
	assert.Contains(t, payload, "stats")
}

func TestUploadMissingFile(t *testing.T) {
	s := NewServer(nil, quality.Default())

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	rec, payload := doRequest(t, s, http.MethodPost, "/api/upload", &buf, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", payload["status"])
}

// nmeaSentence wraps a payload with the leading $ and a valid checksum.
func nmeaSentence(body string) string {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, cs)
}
