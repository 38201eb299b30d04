package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/render"
	"equiprent-backend/internal/repository/memory"
	"equiprent-backend/internal/service"
	"equiprent-backend/internal/storage"
)

const testTemplate = `RENTAL AGREEMENT {{contract_number}}
Partner: {{partner_name}}
Equipment: {{equipment_name}}
From {{rental_start_date}} to {{rental_end_date}}
Daily rate: {{daily_rate}}`

func newTestRouter(t *testing.T) (*mux.Router, service.TemplateService) {
	t.Helper()
	store := memory.NewStore()
	blobs, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8081")
	require.NoError(t, err)

	templateSvc := service.NewTemplateService(store.TemplateRepository, "en")
	signatureSvc := service.NewSignatureService("0123456789abcdef0123456789abcdef")
	archiveSvc := service.NewArchiveService(store.ArchiveRepository, blobs, "contracts")
	contractSvc := service.NewContractService(
		store.ContractRepository, store.TemplateRepository, store.SequenceRepository,
		templateSvc, signatureSvc, archiveSvc, render.NewTextRenderer(), blobs, "contracts")
	multiSvc := service.NewMultiEquipmentService(store.MultiEquipmentContractRepository, store.SequenceRepository)

	router := mux.NewRouter()
	RegisterContractRoutes(router, contractSvc, templateSvc)
	RegisterMultiEquipmentRoutes(router, multiSvc)
	RegisterOpsRoutes(router, archiveSvc)
	RegisterStorageRoutes(router, blobs)
	return router, templateSvc
}

func doJSON(t *testing.T, router *mux.Router, method, path, tenant string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signatureImage() string {
	data := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x42}, 100)...)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func TestContractLifecycleOverHTTP(t *testing.T) {
	router, templateSvc := newTestRouter(t)
	_, err := templateSvc.CreateTemplate(context.Background(), "tenant-1", "Standard", domain.ContractTypeRentalStandard, testTemplate)
	require.NoError(t, err)

	generateBody := map[string]any{
		"template_type": "RENTAL_STANDARD",
		"rental":        map[string]any{"id": "r-1", "start_date": "2026-09-01T00:00:00Z", "end_date": "2026-09-30T00:00:00Z", "daily_rate": 45000},
		"partner":       map[string]any{"name": "Smith Rentals"},
		"equipment":     map[string]any{"id": "e-1", "name": "Excavator", "value": 9000000},
		"tenant":        map[string]any{"id": "tenant-1", "name": "Acme Kft.", "contract_prefix": "ACME"},
	}

	var contractID string

	t.Run("Generate", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/api/v1/contracts", "tenant-1", generateBody)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var c domain.Contract
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
		assert.Equal(t, domain.ContractStatusDraft, c.Status)
		contractID = c.ID
	})

	t.Run("MissingTenantHeader", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/api/v1/contracts", "", generateBody)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GeneratePDF", func(t *testing.T) {
		rec := doJSON(t, router, "POST", fmt.Sprintf("/api/v1/contracts/%s/pdf", contractID), "tenant-1", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var c domain.Contract
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
		assert.Equal(t, domain.ContractStatusPendingSignature, c.Status)
		assert.NotEmpty(t, c.PDFPath)
	})

	t.Run("RepeatedPDFGenerationConflicts", func(t *testing.T) {
		rec := doJSON(t, router, "POST", fmt.Sprintf("/api/v1/contracts/%s/pdf", contractID), "tenant-1", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Sign", func(t *testing.T) {
		rec := doJSON(t, router, "POST", fmt.Sprintf("/api/v1/contracts/%s/sign", contractID), "tenant-1", map[string]any{
			"type":        "DIGITAL",
			"image":       signatureImage(),
			"signer_name": "John Smith",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var c domain.Contract
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
		assert.Equal(t, domain.ContractStatusSigned, c.Status)
		require.NotNil(t, c.Signature)
	})

	t.Run("Archive", func(t *testing.T) {
		rec := doJSON(t, router, "POST", fmt.Sprintf("/api/v1/contracts/%s/archive", contractID), "tenant-1", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out struct {
			Contract domain.Contract         `json:"contract"`
			Archive  domain.ArchivedContract `json:"archive"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, domain.ContractStatusArchived, out.Contract.Status)
		assert.NotEmpty(t, out.Archive.ContentHash)
	})

	t.Run("ArchiveListedAndVerifiable", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/api/v1/archives", "tenant-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var list struct {
			Archives []domain.ArchivedContract `json:"archives"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list.Archives, 1)

		rec = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/archives/%s/verify", list.Archives[0].ID), "tenant-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var report service.IntegrityReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.True(t, report.IsValid)
	})

	t.Run("UnknownContractIs404", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/api/v1/contracts/no-such-id", "tenant-1", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("OtherTenantIs404", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/api/v1/contracts/"+contractID, "tenant-2", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMultiEquipmentOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	createBody := map[string]any{
		"tenant":     map[string]any{"id": "tenant-1", "name": "Acme Kft.", "contract_prefix": "ACME"},
		"start_date": "2026-08-01T00:00:00Z",
		"items": []map[string]any{
			{"EquipmentID": "e-1", "EquipmentName": "Excavator", "EquipmentValue": 100000, "DailyRate": 4000},
			{"EquipmentID": "e-2", "EquipmentName": "Generator", "EquipmentValue": 200000, "DailyRate": 2500},
		},
	}

	var contract domain.MultiEquipmentContract

	t.Run("Create", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/api/v1/multi-contracts", "tenant-1", createBody)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contract))
		assert.Equal(t, int64(90000), contract.TotalDepositAmount)
		require.Len(t, contract.Items, 2)
	})

	t.Run("TenantMismatchRejected", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/api/v1/multi-contracts", "tenant-2", createBody)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ReturnItems", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/multi-contracts/%s/items/%s/return", contract.ID, contract.Items[0].ID)
		rec := doJSON(t, router, "POST", path, "tenant-1", map[string]any{"returned_by": "warehouse-a"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result service.ReturnItemResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.False(t, result.IsContractClosed)
		assert.Equal(t, 1, result.RemainingItemsCount)

		path = fmt.Sprintf("/api/v1/multi-contracts/%s/items/%s/return", contract.ID, contract.Items[1].ID)
		rec = doJSON(t, router, "POST", path, "tenant-1", map[string]any{"returned_by": "warehouse-a"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.IsContractClosed)
		require.NotNil(t, result.DepositToRelease)
		assert.Equal(t, int64(90000), *result.DepositToRelease)
	})

	t.Run("DoubleReturnIsBadRequest", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/multi-contracts/%s/items/%s/return", contract.ID, contract.Items[0].ID)
		rec := doJSON(t, router, "POST", path, "tenant-1", map[string]any{"returned_by": "warehouse-a"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
