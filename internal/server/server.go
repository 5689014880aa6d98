// Package server exposes the stitching pipeline over HTTP: a JSON
// upload-and-stitch API, a run-history listing, a websocket run-event
// stream, and an embedded single-page front end.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/S3OPS/autoflight/internal/errs"
	"github.com/S3OPS/autoflight/internal/imgio"
	"github.com/S3OPS/autoflight/internal/output"
	"github.com/S3OPS/autoflight/internal/pipeline"
	"github.com/S3OPS/autoflight/internal/stitch"
	"github.com/S3OPS/autoflight/internal/storage"
)

// maxRequestBytes caps uploaded request bodies.
const maxRequestBytes = 256 << 20

// Server wraps the HTTP gateway around the stitch orchestrator.
type Server struct {
	addr       string
	orch       *stitch.Orchestrator
	controller *pipeline.Controller
	store      *storage.Store
	hub        *hub
	log        *slog.Logger
	server     *http.Server
}

// New creates a gateway. store and controller may be nil; the run-history
// and event-stream endpoints then serve empty results.
func New(addr string, engine stitch.Engine, controller *pipeline.Controller, store *storage.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		addr:       addr,
		orch:       stitch.NewOrchestrator(engine, log),
		controller: controller,
		store:      store,
		hub:        newHub(log),
		log:        log,
	}
}

// Router builds the route table. Split out so tests can drive the handlers
// through httptest without binding a socket. The CORS middleware wraps the
// mux from outside so preflight requests and unmatched routes get the
// headers too; mux middlewares never run for the not-found and
// method-not-allowed handlers.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/stitch", s.handleStitch).Methods(http.MethodPost)
	r.HandleFunc("/api/runs", s.handleRuns).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.hub.handleWebSocket).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.handleNotFound)
	return corsMiddleware(r)
}

// Start runs the server until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.run(ctx)
	if s.controller != nil {
		events, unsubscribe := s.controller.Subscribe()
		defer unsubscribe()
		go s.forwardRunEvents(ctx, events)
	}

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info("server starting", "addr", s.addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) forwardRunEvents(ctx context.Context, events <-chan storage.RunRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-events:
			if !ok {
				return
			}
			s.hub.broadcastJSON(rec)
		}
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []storage.RunRecord{})
		return
	}
	recs, err := s.store.RecentRuns(100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []storage.RunRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type stitchRequest struct {
	Images []string `json:"images"`
	Mode   string   `json:"mode"`
}

type stitchResponse struct {
	Success    bool   `json:"success"`
	Image      string `json:"image,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	ImageCount int    `json:"image_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) handleStitch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req stitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, stitchResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	if len(req.Images) == 0 {
		writeJSON(w, http.StatusBadRequest, stitchResponse{Error: "No images provided"})
		return
	}
	if req.Mode == "" {
		req.Mode = string(stitch.ModePanorama)
	}
	mode, ok := stitch.ParseMode(req.Mode)
	if !ok {
		writeJSON(w, http.StatusBadRequest, stitchResponse{Error: "Invalid stitching mode: " + req.Mode})
		return
	}

	images := make([]image.Image, 0, len(req.Images))
	for i, payload := range req.Images {
		img, err := imgio.DecodeBase64(payload)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, stitchResponse{
				Error: fmt.Sprintf("Failed to decode image %d: %v", i+1, err),
			})
			return
		}
		images = append(images, img)
	}

	mosaic, err := s.orch.Stitch(images, mode, nil)
	if err != nil {
		writeJSON(w, statusFor(err), stitchResponse{Error: err.Error()})
		return
	}

	payload, err := imgio.EncodeBase64PNG(mosaic, output.DefaultPNGCompression)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, stitchResponse{Error: "Failed to encode result image"})
		return
	}

	bounds := mosaic.Bounds()
	writeJSON(w, http.StatusOK, stitchResponse{
		Success:    true,
		Image:      payload,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		ImageCount: len(images),
	})
}

// statusFor maps the error taxonomy to HTTP statuses: malformed input is a
// bad request, stitching domain failures are unprocessable, everything
// else is a server error.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation, errs.KindSecurity:
		return http.StatusBadRequest
	case errs.KindStitching:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
