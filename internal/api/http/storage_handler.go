package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"equiprent-backend/internal/storage"
)

// StorageDownloadHandler serves signed-URL downloads backed by local
// storage. TLS termination and real access control sit in front of the
// service in production deployments.
type StorageDownloadHandler struct {
	store storage.Storage
}

// NewStorageDownloadHandler creates a new download handler
func NewStorageDownloadHandler(store storage.Storage) *StorageDownloadHandler {
	return &StorageDownloadHandler{store: store}
}

// HandleDownload handles GET requests for signed storage URLs
func (h *StorageDownloadHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	bucket := r.URL.Query().Get("bucket")
	key := r.URL.Query().Get("key")
	if bucket == "" || key == "" {
		http.Error(w, "Missing bucket or key parameter", http.StatusBadRequest)
		return
	}

	if expires := r.URL.Query().Get("expires"); expires != "" {
		sec, err := strconv.ParseInt(expires, 10, 64)
		if err != nil || time.Now().Unix() > sec {
			http.Error(w, "URL expired", http.StatusForbidden)
			return
		}
	}

	data, err := h.store.Download(r.Context(), bucket, key)
	if err != nil {
		http.Error(w, "Object not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// RegisterStorageRoutes registers the storage download endpoint
func RegisterStorageRoutes(router *mux.Router, store storage.Storage) {
	handler := NewStorageDownloadHandler(store)
	router.HandleFunc("/storage/download", handler.HandleDownload).Methods("GET")
}
