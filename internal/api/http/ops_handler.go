package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

// OpsHandler exposes the archive maintenance surface over HTTP. Every
// endpoint is tenant-scoped through the X-Tenant-ID header; caller
// authentication is handled by the deployment's gateway.
type OpsHandler struct {
	archives service.ArchiveService
}

// NewOpsHandler creates a new ops handler
func NewOpsHandler(archives service.ArchiveService) *OpsHandler {
	return &OpsHandler{archives: archives}
}

func tenantID(r *http.Request) string {
	return r.Header.Get("X-Tenant-ID")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var nf *domain.NotFoundError
	var ve *domain.ValidationError
	var sc *domain.StateConflictError
	var ie *domain.IntegrityError
	switch {
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &sc), errors.As(err, &ie):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// HandleHealth reports liveness
func (h *OpsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleListArchives lists the tenant's archive records
func (h *OpsHandler) HandleListArchives(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	archives, err := h.archives.ListArchives(r.Context(), tenant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": archives})
}

// HandleVerifyArchive recomputes one archive's content hash
func (h *OpsHandler) HandleVerifyArchive(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	report, err := h.archives.VerifyArchiveIntegrity(r.Context(), tenant, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleDownloadArchive streams the verified archive document
func (h *OpsHandler) HandleDownloadArchive(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	data, record, err := h.archives.DownloadArchive(r.Context(), tenant, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+record.ContractID+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// HandleArchiveSignedURL issues a short-lived download link
func (h *OpsHandler) HandleArchiveSignedURL(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	ttl := 15 * time.Minute
	if raw := r.URL.Query().Get("ttl_seconds"); raw != "" {
		sec, err := strconv.Atoi(raw)
		if err != nil || sec <= 0 {
			http.Error(w, "Invalid ttl_seconds parameter", http.StatusBadRequest)
			return
		}
		ttl = time.Duration(sec) * time.Second
	}

	url, err := h.archives.GetArchiveSignedURL(r.Context(), tenant, id, ttl)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// HandleUpdateRetention changes an archive's retention period
func (h *OpsHandler) HandleUpdateRetention(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var body struct {
		RetentionYears int `json:"retention_years"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	record, err := h.archives.UpdateRetentionPeriod(r.Context(), tenant, id, body.RetentionYears)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// HandleCleanupExpired runs the expired-archive sweep for one tenant
func (h *OpsHandler) HandleCleanupExpired(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	result, err := h.archives.CleanupExpiredArchives(r.Context(), tenant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RegisterOpsRoutes registers the archive maintenance endpoints
func RegisterOpsRoutes(router *mux.Router, archives service.ArchiveService) {
	handler := NewOpsHandler(archives)
	router.HandleFunc("/healthz", handler.HandleHealth).Methods("GET")
	router.HandleFunc("/api/v1/archives", handler.HandleListArchives).Methods("GET")
	router.HandleFunc("/api/v1/archives/cleanup", handler.HandleCleanupExpired).Methods("POST")
	router.HandleFunc("/api/v1/archives/{id}/verify", handler.HandleVerifyArchive).Methods("POST")
	router.HandleFunc("/api/v1/archives/{id}/download", handler.HandleDownloadArchive).Methods("GET")
	router.HandleFunc("/api/v1/archives/{id}/signed-url", handler.HandleArchiveSignedURL).Methods("GET")
	router.HandleFunc("/api/v1/archives/{id}/retention", handler.HandleUpdateRetention).Methods("PUT")
}
