package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/render"
	"equiprent-backend/internal/service"
)

// ContractHandler drives the contract lifecycle over HTTP.
type ContractHandler struct {
	contracts service.ContractService
	templates service.TemplateService
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contracts service.ContractService, templates service.TemplateService) *ContractHandler {
	return &ContractHandler{contracts: contracts, templates: templates}
}

type generateContractBody struct {
	TemplateType   domain.ContractType `json:"template_type"`
	Rental         *domain.Rental      `json:"rental"`
	Partner        *domain.Partner     `json:"partner"`
	Equipment      *domain.Equipment   `json:"equipment"`
	Tenant         *domain.Tenant      `json:"tenant"`
	DepositAmount  *int64              `json:"deposit_amount,omitempty"`
	ExtraVariables map[string]string   `json:"extra_variables,omitempty"`
}

// HandleGenerate creates a DRAFT contract with a frozen variable snapshot
func (h *ContractHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var body generateContractBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contract, err := h.contracts.GenerateContract(r.Context(), tenant, service.GenerateContractRequest{
		TemplateType:   body.TemplateType,
		Rental:         body.Rental,
		Partner:        body.Partner,
		Equipment:      body.Equipment,
		Tenant:         body.Tenant,
		DepositAmount:  body.DepositAmount,
		ExtraVariables: body.ExtraVariables,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract)
}

// HandleGeneratePDF renders the document and moves the contract to
// PENDING_SIGNATURE
func (h *ContractHandler) HandleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var opts render.Options
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	contract, err := h.contracts.GeneratePDF(r.Context(), tenant, mux.Vars(r)["id"], opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

type signContractBody struct {
	Type        domain.SignatureType `json:"type"`
	Image       string               `json:"image"`
	SignerName  string               `json:"signer_name"`
	SignerEmail string               `json:"signer_email,omitempty"`
}

// HandleSign records a signature and moves the contract to SIGNED
func (h *ContractHandler) HandleSign(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var body signContractBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contract, err := h.contracts.SignContract(r.Context(), tenant, mux.Vars(r)["id"], service.SignatureRequest{
		Type:        body.Type,
		Image:       body.Image,
		SignerName:  body.SignerName,
		SignerEmail: body.SignerEmail,
		IPAddress:   r.RemoteAddr,
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// HandleArchive moves a SIGNED contract into long-term storage
func (h *ContractHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var opts service.ArchiveOptions
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	contract, record, err := h.contracts.ArchiveContract(r.Context(), tenant, mux.Vars(r)["id"], opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contract": contract, "archive": record})
}

// HandleCancel cancels a DRAFT or PENDING_SIGNATURE contract
func (h *ContractHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contract, err := h.contracts.CancelContract(r.Context(), tenant, mux.Vars(r)["id"], body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// HandleGet fetches one contract
func (h *ContractHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	contract, err := h.contracts.GetContract(r.Context(), tenant, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// HandleList lists the tenant's contracts, optionally by status
func (h *ContractHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	status := domain.ContractStatus(r.URL.Query().Get("status"))
	contracts, err := h.contracts.ListContracts(r.Context(), tenant, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contracts": contracts})
}

type createTemplateBody struct {
	Name    string              `json:"name"`
	Type    domain.ContractType `json:"type"`
	Content string              `json:"content"`
}

// HandleCreateTemplate validates and stores a new template version
func (h *ContractHandler) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var body createTemplateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tmpl, err := h.templates.CreateTemplate(r.Context(), tenant, body.Name, body.Type, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

// HandleUpdateTemplate publishes new content as a new template version
func (h *ContractHandler) HandleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tmpl, err := h.templates.UpdateTemplateContent(r.Context(), tenant, mux.Vars(r)["id"], body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// HandleListTemplates lists the tenant's templates
func (h *ContractHandler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		http.Error(w, "Missing X-Tenant-ID header", http.StatusBadRequest)
		return
	}

	templates, err := h.templates.ListTemplates(r.Context(), tenant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// RegisterContractRoutes registers the lifecycle and template endpoints
func RegisterContractRoutes(router *mux.Router, contracts service.ContractService, templates service.TemplateService) {
	handler := NewContractHandler(contracts, templates)
	router.HandleFunc("/api/v1/templates", handler.HandleCreateTemplate).Methods("POST")
	router.HandleFunc("/api/v1/templates", handler.HandleListTemplates).Methods("GET")
	router.HandleFunc("/api/v1/templates/{id}", handler.HandleUpdateTemplate).Methods("PUT")
	router.HandleFunc("/api/v1/contracts", handler.HandleGenerate).Methods("POST")
	router.HandleFunc("/api/v1/contracts", handler.HandleList).Methods("GET")
	router.HandleFunc("/api/v1/contracts/{id}", handler.HandleGet).Methods("GET")
	router.HandleFunc("/api/v1/contracts/{id}/pdf", handler.HandleGeneratePDF).Methods("POST")
	router.HandleFunc("/api/v1/contracts/{id}/sign", handler.HandleSign).Methods("POST")
	router.HandleFunc("/api/v1/contracts/{id}/archive", handler.HandleArchive).Methods("POST")
	router.HandleFunc("/api/v1/contracts/{id}/cancel", handler.HandleCancel).Methods("POST")
}
