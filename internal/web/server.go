// Package web provides an HTTP status server for the greenhouse-bridge daemon.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/history"
	"github.com/sweeney/greenhouse-bridge/internal/status"
)

// History is the read side of the history store.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
	Summarize(ctx context.Context, since time.Time) (history.Summary, error)
}

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 5000
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	history    History
}

// New creates a Server that reads state from the given tracker. hist may be
// nil, in which case /history.json returns 404.
func New(addr string, tracker *status.Tracker, hist History) *Server {
	s := &Server{tracker: tracker, history: hist}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/display.json", s.handleDisplay)
	mux.HandleFunc("/history.json", s.handleHistory)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(status.FormatDisplayJSON(snap))
}

// HistoryJSON is the response body of /history.json.
type HistoryJSON struct {
	Summary SummaryJSON  `json:"summary"`
	Records []RecordJSON `json:"records"`
}

// SummaryJSON aggregates the returned window.
type SummaryJSON struct {
	Since        string `json:"since"`
	Periods      int    `json:"periods"`
	ReadFailures int    `json:"read_failures"`
	PumpPeriods  int    `json:"pump_periods"`
	FanPeriods   int    `json:"fan_periods"`
	MinMoisture  uint16 `json:"min_moisture"`
	MaxHumidity  int    `json:"max_humidity"`
}

// RecordJSON is one producer period. Reading fields are null when the read
// failed.
type RecordJSON struct {
	Timestamp   string   `json:"timestamp"`
	ReadOK      bool     `json:"read_ok"`
	Moisture    *uint16  `json:"moisture"`
	Humidity    *int     `json:"humidity"`
	Temperature *float64 `json:"temperature"`
	Pump        string   `json:"pump"`
	Fan         string   `json:"fan"`
	BusWord     uint16   `json:"bus_word"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.NotFound(w, r)
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("web: history: %v", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	out := HistoryJSON{Records: make([]RecordJSON, 0, len(records))}
	var since time.Time
	for _, rec := range records {
		out.Records = append(out.Records, recordJSON(rec))
		since = rec.Timestamp
	}
	if len(records) > 0 {
		sum, err := s.history.Summarize(r.Context(), since)
		if err != nil {
			log.Printf("web: history summary: %v", err)
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		out.Summary = SummaryJSON{
			Since:        since.UTC().Format(time.RFC3339),
			Periods:      sum.Periods,
			ReadFailures: sum.ReadFailures,
			PumpPeriods:  sum.PumpPeriods,
			FanPeriods:   sum.FanPeriods,
			MinMoisture:  sum.MinMoisture,
			MaxHumidity:  sum.MaxHumidity,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func recordJSON(rec history.Record) RecordJSON {
	out := RecordJSON{
		Timestamp: rec.Timestamp.UTC().Format(time.RFC3339),
		ReadOK:    rec.ReadOK,
		Pump:      string(rec.Command.PumpState()),
		Fan:       string(rec.Command.FanState()),
		BusWord:   rec.BusWord,
	}
	if rec.ReadOK {
		m, h, t := rec.Reading.Moisture, rec.Reading.Humidity, rec.Reading.Temperature
		out.Moisture, out.Humidity, out.Temperature = &m, &h, &t
	}
	return out
}
