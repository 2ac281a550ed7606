// Package server exposes the image index and the crop planner over a
// small JSON API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pdillis/earthview/pkg/index"
	"github.com/pdillis/earthview/pkg/tiling"
)

// Server implements the API handlers.
type Server struct {
	startTime time.Time
	version   string
	indexPath string
}

// New creates a server reading the index from indexPath.
func New(version, indexPath string) *Server {
	return &Server{
		startTime: time.Now(),
		version:   version,
		indexPath: indexPath,
	}
}

// Routes registers the API endpoints on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.GetHealth)
	r.Get("/index", s.GetIndex)
	r.Get("/plan", s.GetPlan)
}

// healthResponse is the health check payload.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    int       `json:"uptime"`
	Version   string    `json:"version"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// gridResponse mirrors tiling.Grid with JSON field names.
type gridResponse struct {
	Cols  int `json:"crop_cols"`
	Rows  int `json:"crop_rows"`
	StepX int `json:"width_step"`
	StepY int `json:"height_step"`
}

// cropResponse is one planned crop rectangle.
type cropResponse struct {
	Index  int `json:"index"`
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// planResponse is the full tiling plan for one image shape.
type planResponse struct {
	Grid  gridResponse   `json:"grid"`
	Crops []cropResponse `json:"crops"`
}

// GetHealth implements the health check endpoint.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    int(time.Since(s.startTime).Seconds()),
		Version:   s.version,
	})
}

// GetIndex serves the image index loaded from disk.
func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	records, err := index.Load(s.indexPath)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "INDEX_UNAVAILABLE",
			"index file could not be read; run 'earthview fetch' first")
		return
	}

	s.writeJSON(w, http.StatusOK, records)
}

// GetPlan computes the crop grid for the width, height and size query
// parameters.
func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request) {
	width, err := queryInt(r, "width")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}
	height, err := queryInt(r, "height")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}
	size, err := queryInt(r, "size")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}

	grid, err := tiling.PlanGrid(width, height, size)
	if err != nil {
		if errors.Is(err, tiling.ErrInvalidDimension) {
			s.writeError(w, http.StatusBadRequest, "INVALID_DIMENSION", err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	crops, err := tiling.Plan(width, height, size)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	resp := planResponse{
		Grid:  gridResponse{Cols: grid.Cols, Rows: grid.Rows, StepX: grid.StepX, StepY: grid.StepY},
		Crops: make([]cropResponse, 0, len(crops)),
	}
	for _, c := range crops {
		resp.Crops = append(resp.Crops, cropResponse{
			Index:  c.Index,
			Left:   c.Rect.Min.X,
			Top:    c.Rect.Min.Y,
			Right:  c.Rect.Max.X,
			Bottom: c.Rect.Max.Y,
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("parameter %s is required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: message})
}
