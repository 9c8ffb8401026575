package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tomp3/internal/application/queue"
	"tomp3/internal/domain/media"
)

type queueUseCases interface {
	Items() []media.View
	Item(id string) (media.View, error)
	BatchActive() bool
	IngestFiles(uploads []queue.Upload) int
	IngestURL(ctx context.Context, address string) (media.View, error)
	ConvertOne(ctx context.Context, id string) error
	ConvertAll(ctx context.Context) error
	Remove(id string) error
	Artifact(id string) (media.Artifact, error)
}

type engineStatus interface {
	Ready() bool
	Status() string
}

type Handler struct {
	queue          queueUseCases
	engine         engineStatus
	maxUploadBytes int64
}

// NewHandler wires HTTP handlers with application use cases.
func NewHandler(queueService queueUseCases, engine engineStatus, maxUploadBytes int64) *Handler {
	return &Handler{queue: queueService, engine: engine, maxUploadBytes: maxUploadBytes}
}

// Queue handles queue snapshot endpoint.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"items":       h.queue.Items(),
		"batchActive": h.queue.BatchActive(),
	})
}

// Engine handles engine readiness endpoint.
func (h *Handler) Engine(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":  h.engine.Ready(),
		"status": h.engine.Status(),
	})
}

// AddURL handles URL ingestion endpoint.
func (h *Handler) AddURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	view, err := h.queue.IngestURL(r.Context(), body.URL)
	switch {
	case errors.Is(err, queue.ErrEmptyAddress):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

// UploadFiles handles multipart file ingestion endpoint.
func (h *Handler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "No files in request", http.StatusBadRequest)
		return
	}

	uploads := make([]queue.Upload, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		uploads = append(uploads, queue.Upload{Name: header.Filename, Data: data})
	}

	accepted := h.queue.IngestFiles(uploads)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"accepted": accepted,
		"items":    h.queue.Items(),
	})
}

// Convert handles single item conversion endpoint. The response is sent
// once the item has settled, so conversions are detached from the
// request context.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.queue.ConvertOne(context.Background(), id)
	switch {
	case errors.Is(err, queue.ErrNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	case errors.Is(err, queue.ErrItemBusy):
		http.Error(w, "Conversion already in progress", http.StatusConflict)
		return
	case errors.Is(err, queue.ErrEngineNotReady):
		http.Error(w, h.engine.Status(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.queue.Item(id)
	if err != nil {
		// Removed while the conversion was running.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

// ConvertAll handles batch conversion endpoint.
func (h *Handler) ConvertAll(w http.ResponseWriter, r *http.Request) {
	err := h.queue.ConvertAll(context.Background())
	switch {
	case errors.Is(err, queue.ErrBatchActive):
		http.Error(w, "Batch conversion already running", http.StatusConflict)
		return
	case errors.Is(err, queue.ErrEngineNotReady):
		http.Error(w, h.engine.Status(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"items": h.queue.Items(),
	})
}

// Remove handles item removal endpoint.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Remove(mux.Vars(r)["id"]); err != nil {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "removed"})
}

// Download handles converted audio download endpoint.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	art, err := h.queue.Artifact(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "No converted audio for item", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", art.MIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Name}))
	http.ServeContent(w, r, art.Name, time.Time{}, bytes.NewReader(art.Data))
}
