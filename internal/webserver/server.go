package webserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/store"
)

// runner abstracts the pipeline so handlers can be tested without upstreams.
type runner interface {
	Run(ctx context.Context, videoURL, language string) (*ResultDoc, error)
}

// Server wires the job registry and the pipeline into an HTTP handler.
type Server struct {
	registry *Registry
	pipeline runner

	// jobTimeout bounds one background run end to end.
	jobTimeout time.Duration
}

func NewServer() *Server {
	return &Server{
		registry:   NewRegistry(),
		pipeline:   NewPipeline(),
		jobTimeout: 10 * time.Minute,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/status/{id}", s.handleStatus)
	r.Get("/results/{id}", s.handleResults)
	r.Get("/history", s.handleHistory)
	r.Get("/metrics", s.handleMetrics)

	if dir := engine.Cfg.OutputDir; dir != "" {
		fs := http.StripPrefix("/data/", http.FileServer(http.Dir(dir)))
		r.Get("/data/*", fs.ServeHTTP)
	}

	return r
}

type analyzeRequest struct {
	VideoURL string `json:"video_url"`
	Language string `json:"language,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze accepts a video URL, registers a job and runs it in the
// background. The response carries the job id for polling.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.VideoURL == "" {
		writeError(w, http.StatusBadRequest, "video_url is required")
		return
	}

	job := s.registry.Create(req.VideoURL, req.Language)
	go s.runJob(job)

	writeJSON(w, http.StatusAccepted, job.Status())
}

func (s *Server) runJob(job *Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	job.setRunning()
	doc, err := s.pipeline.Run(ctx, job.VideoURL, job.Language)
	if err != nil {
		slog.Error("analysis job failed",
			slog.String("job_id", job.ID), slog.String("url", job.VideoURL), slog.Any("error", err))
		job.fail(err)
		return
	}
	job.complete(doc)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	writeJSON(w, http.StatusOK, job.Status())
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	job, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	doc, done := job.Result()
	if !done {
		status := job.Status()
		if status.State == JobFailed {
			writeError(w, http.StatusUnprocessableEntity, status.Error)
			return
		}
		writeError(w, http.StatusConflict, "job not finished")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := store.ListAnalyses(r.Context(), r.URL.Query().Get("video_id"), limit)
	if err != nil {
		slog.Error("history query failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(engine.FormatMetrics())) //nolint:errcheck
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
