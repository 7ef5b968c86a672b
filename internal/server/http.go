package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BlockCodeLab/sound/internal/asset"
	"github.com/BlockCodeLab/sound/internal/audio"
	"github.com/BlockCodeLab/sound/internal/metrics"
	"github.com/BlockCodeLab/sound/internal/studio"
)

// maxUploadBytes caps a single multipart upload request.
const maxUploadBytes = 64 << 20

// HTTPServer provides the HTTP JSON API over the studio engine
type HTTPServer struct {
	server  *http.Server
	logger  *slog.Logger
	engine  *studio.Engine
	metrics *metrics.Metrics

	startTime time.Time
}

// HTTPServerConfig contains HTTP server configuration
type HTTPServerConfig struct {
	Port    int
	Address string
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg HTTPServerConfig, engine *studio.Engine, m *metrics.Metrics, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}

	h := &HTTPServer{
		logger:    logger,
		engine:    engine,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Handler returns the routed handler, used directly by tests.
func (h *HTTPServer) Handler() http.Handler {
	return h.server.Handler
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	mux.HandleFunc("/sounds", h.withMetrics("/sounds", h.handleSounds))
	mux.HandleFunc("/sounds/import", h.withMetrics("/sounds/import", h.handleImportURL))
	mux.HandleFunc("/sounds/", h.withMetrics("/sounds/{id}", h.handleSoundDetail))

	mux.HandleFunc("/record/start", h.withMetrics("/record/start", h.handleRecordStart))
	mux.HandleFunc("/record/stop", h.withMetrics("/record/stop", h.handleRecordStop))

	mux.Handle("/metrics", promhttp.Handler())
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		if h.metrics == nil {
			return
		}
		duration := time.Since(startTime).Seconds()
		h.metrics.RecordHTTPRequest(r.Method, endpoint, fmt.Sprintf("%d", ww.statusCode), duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name": "sound-editor-service",
		},
		"components": map[string]interface{}{
			"assets": map[string]interface{}{
				"count": len(h.engine.Sounds()),
			},
			"recording": map[string]interface{}{
				"state": h.engine.RecordingState().String(),
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// soundListing decorates an asset with the selector's duration label.
type soundListing struct {
	asset.Sound
	Duration string `json:"duration"`
}

// handleSounds implements GET /sounds (list) and POST /sounds (multipart
// upload of one or more files)
func (h *HTTPServer) handleSounds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sounds := h.engine.Sounds()
		selectedID := ""
		if sel, ok := h.engine.Selected(); ok {
			selectedID = sel.ID
		}
		listings := make([]soundListing, 0, len(sounds))
		for _, s := range sounds {
			listings = append(listings, soundListing{
				Sound:    s,
				Duration: asset.FormatTime(s.Duration()),
			})
		}
		response := map[string]interface{}{
			"total":    len(sounds),
			"selected": selectedID,
			"sounds":   listings,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)

	case http.MethodPost:
		h.handleUpload(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart upload", http.StatusBadRequest)
		return
	}

	var files []studio.File
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, "Failed to read upload", http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, "Failed to read upload", http.StatusBadRequest)
				return
			}
			files = append(files, studio.File{Name: fh.Filename, Data: data})
		}
	}
	if len(files) == 0 {
		http.Error(w, "No files in upload", http.StatusBadRequest)
		return
	}

	imported := h.engine.ImportFiles(r.Context(), files)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"imported": imported,
		"failed":   len(files) - len(imported),
	})
}

// handleImportURL implements POST /sounds/import
func (h *HTTPServer) handleImportURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "Request body must be {\"url\": ...}", http.StatusBadRequest)
		return
	}

	s, err := h.engine.ImportURL(r.Context(), req.URL)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(s)
}

// handleSoundDetail dispatches /sounds/{id}, /sounds/{id}/select and
// /sounds/{id}/export
func (h *HTTPServer) handleSoundDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sounds/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "Sound ID required", http.StatusBadRequest)
		return
	}

	switch action {
	case "":
		h.handleSound(w, r, id)
	case "select":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := h.engine.Select(id); err != nil {
			h.writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "export":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		uri, err := h.engine.Export(id)
		if err != nil {
			h.writeEngineError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"uri": uri})
	default:
		http.Error(w, "Unknown action", http.StatusNotFound)
	}
}

func (h *HTTPServer) handleSound(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		s, err := h.engine.Get(id)
		if err != nil {
			h.writeEngineError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s)

	case http.MethodPatch:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "Request body must be {\"name\": ...}", http.StatusBadRequest)
			return
		}
		if err := h.engine.Rename(id, req.Name); err != nil {
			h.writeEngineError(w, err)
			return
		}
		s, err := h.engine.Get(id)
		if err != nil {
			h.writeEngineError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s)

	case http.MethodDelete:
		if err := h.engine.Delete(id); err != nil {
			h.writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRecordStart implements POST /record/start
func (h *HTTPServer) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	s, err := h.engine.StartRecording(req.Name)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(s)
}

// handleRecordStop implements POST /record/stop
func (h *HTTPServer) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.engine.StopRecording()
	w.WriteHeader(http.StatusNoContent)
}

// writeEngineError maps engine errors to HTTP status codes
func (h *HTTPServer) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, asset.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, audio.ErrUnsupportedFormat):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, asset.ErrDuplicateID):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}
