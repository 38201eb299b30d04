package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

// MultiEquipmentHandler manages contracts covering several equipment
// items with partial returns.
type MultiEquipmentHandler struct {
	multi service.MultiEquipmentService
}

// NewMultiEquipmentHandler creates a new multi-equipment handler
func NewMultiEquipmentHandler(multi service.MultiEquipmentService) *MultiEquipmentHandler {
	return &MultiEquipmentHandler{multi: multi}
}

type createMultiContractBody struct {
	Tenant      *domain.Tenant               `json:"tenant"`
	Items       []service.EquipmentItemInput `json:"items"`
	StartDate   time.Time                    `json:"start_date"`
	DepositRate *float64                     `json:"deposit_rate,omitempty"`
}

// HandleCreate opens a multi-equipment contract
func (h *MultiEquipmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var body createMultiContractBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Tenant != nil && body.Tenant.ID != tenant {
		http.Error(w, "Tenant mismatch", http.StatusBadRequest)
		return
	}

	contract, err := h.multi.CreateMultiEquipmentContract(r.Context(), body.Tenant, body.Items, body.StartDate, body.DepositRate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract)
}

type returnItemBody struct {
	ReturnedBy string `json:"returned_by"`
	Notes      string `json:"notes,omitempty"`
}

// HandleReturnItem marks one item returned, closing the contract when
// it was the last one out
func (h *MultiEquipmentHandler) HandleReturnItem(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var body returnItemBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	result, err := h.multi.ReturnItem(r.Context(), tenant, vars["id"], vars["itemId"], body.ReturnedBy, body.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleGet fetches one multi-equipment contract with its items
func (h *MultiEquipmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	contract, err := h.multi.GetContract(r.Context(), tenant, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// HandleRemainingItems lists the items still out
func (h *MultiEquipmentHandler) HandleRemainingItems(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	items, err := h.multi.GetRemainingItems(r.Context(), tenant, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// RegisterMultiEquipmentRoutes registers the multi-equipment endpoints
func RegisterMultiEquipmentRoutes(router *mux.Router, multi service.MultiEquipmentService) {
	handler := NewMultiEquipmentHandler(multi)
	router.HandleFunc("/api/v1/multi-contracts", handler.HandleCreate).Methods("POST")
	router.HandleFunc("/api/v1/multi-contracts/{id}", handler.HandleGet).Methods("GET")
	router.HandleFunc("/api/v1/multi-contracts/{id}/items/{itemId}/return", handler.HandleReturnItem).Methods("POST")
	router.HandleFunc("/api/v1/multi-contracts/{id}/remaining-items", handler.HandleRemainingItems).Methods("GET")
}
