package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"gnss-survey/internal/correction"
	"gnss-survey/internal/models"
	"gnss-survey/internal/parser"
	"gnss-survey/internal/quality"
	"gnss-survey/internal/stats"

	"github.com/gorilla/mux"
)

const maxUploadBytes = 10 << 20

// Server serves the loaded dataset and the computations over it. The
// dataset is handed in at construction and never mutated afterwards, so
// handlers can run concurrently without coordination.
type Server struct {
	data   []models.Fix
	stats  models.Summary
	model  quality.Model
	router *mux.Router
}

// NewServer creates an API server over an immutable record collection.
func NewServer(data []models.Fix, model quality.Model) *Server {
	s := &Server{
		data:   data,
		stats:  stats.Summarize(data, model),
		model:  model,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/data", s.handleData).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/positions", s.handlePositions).Methods("GET")
	s.router.HandleFunc("/api/upload", s.handleUpload).Methods("POST")
	s.router.HandleFunc("/api/corrections", s.handleCorrections).Methods("POST")
	s.router.HandleFunc("/api/apply_corrections", s.handleApplyCorrections).Methods("POST")

	s.router.Use(loggingMiddleware)
	s.router.Use(jsonMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

// Middleware
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Response helpers. Success payloads carry status:"success" plus their
// own keys; failures carry status:"error" and a message.
func respondSuccess(w http.ResponseWriter, payload map[string]interface{}) {
	payload["status"] = "success"
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}

// Handlers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{"health": "ok"})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"data":  s.data,
		"count": len(s.data),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{"stats": s.stats})
}

// positionPoint is the flattened shape the mapping front end consumes.
type positionPoint struct {
	Lat           float64           `json:"lat"`
	Lon           float64           `json:"lon"`
	Alt           float64           `json:"alt"`
	FixQuality    models.FixQuality `json:"fix_quality"`
	NumSatellites int               `json:"num_satellites"`
	Timestamp     string            `json:"timestamp"`
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions := []positionPoint{}
	for _, rec := range s.data {
		if rec.Type != models.SentenceGGA || !rec.GGA.HasPosition() {
			continue
		}
		g := rec.GGA
		p := positionPoint{
			Lat:        g.Latitude,
			Lon:        g.Longitude,
			FixQuality: g.FixQuality,
			Timestamp:  g.Timestamp,
		}
		if g.Altitude != nil {
			p.Alt = *g.Altitude
		}
		if g.NumSatellites != nil {
			p.NumSatellites = *g.NumSatellites
		}
		positions = append(positions, p)
	}

	respondSuccess(w, map[string]interface{}{"positions": positions})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, http.StatusBadRequest, "No file selected")
		return
	}

	records, report, err := parser.ParseReader(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondSuccess(w, map[string]interface{}{
		"data":    records,
		"stats":   stats.Summarize(records, s.model),
		"count":   len(records),
		"skipped": report.Skipped,
	})
}

// decodeCorrectionRequest applies the documented defaults: method mean,
// weight_by_quality true. An empty body is a valid request.
func decodeCorrectionRequest(r *http.Request) (models.Method, bool, error) {
	var req models.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}

	method := req.Method
	if method == "" {
		method = models.MethodMean
	}
	weighted := true
	if req.WeightByQuality != nil {
		weighted = *req.WeightByQuality
	}
	return method, weighted, nil
}

func (s *Server) handleCorrections(w http.ResponseWriter, r *http.Request) {
	method, weighted, err := decodeCorrectionRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result := correction.Calculate(s.data, method, weighted, s.model)
	if result.Failed() {
		respondError(w, http.StatusBadRequest, result.Error)
		return
	}

	respondSuccess(w, map[string]interface{}{"corrections": result})
}

func (s *Server) handleApplyCorrections(w http.ResponseWriter, r *http.Request) {
	method, weighted, err := decodeCorrectionRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result := correction.Calculate(s.data, method, weighted, s.model)
	if result.Failed() {
		respondError(w, http.StatusBadRequest, result.Error)
		return
	}

	corrected := correction.Apply(s.data, result)
	respondSuccess(w, map[string]interface{}{
		"data":        corrected,
		"stats":       stats.Summarize(corrected, s.model),
		"corrections": result,
	})
}
