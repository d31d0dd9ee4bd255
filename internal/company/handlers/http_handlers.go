package handlers

import (
	"context"
	"net/http"

	"github.com/gartstein/companies/internal/company/models"
	"go.uber.org/zap"
)

// CompanyController defines the business logic interface
// that the HTTP handlers will invoke.
type CompanyController interface {
	CreateCompany(ctx context.Context, input models.CompanyInput) (*models.Company, error)
	FindAll(ctx context.Context, req models.PageRequest) (*models.Page, error)
	FindOne(ctx context.Context, id int64) (*models.Company, error)
	UpdateCompany(ctx context.Context, id int64, update models.CompanyUpdate) (*models.Company, error)
	RemoveCompany(ctx context.Context, id int64) (int64, error)
	SoftRemoveCompany(ctx context.Context, id int64) error
}

// Seeder fills the store with demo companies.
type Seeder interface {
	Seed(ctx context.Context) (int, error)
}

// CompanyHandler serves the /companies routes, mapping requests to a
// CompanyController.
type CompanyHandler struct {
	service CompanyController
	seeder  Seeder
	logger  *zap.Logger
}

// NewCompanyHandler constructs a new CompanyHandler with the given service and logger.
func NewCompanyHandler(service CompanyController, seeder Seeder, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		seeder:  seeder,
		logger:  logger.Named("http_handler"),
	}
}

// CreateCompany handles POST /companies.
func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var input models.CompanyInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	created, err := h.service.CreateCompany(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListCompanies handles GET /companies?page&limit&searchTerm.
func (h *CompanyHandler) ListCompanies(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	page, err := h.service.FindAll(r.Context(), pageRequestFromQuery(r.URL.Query()))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetCompany handles GET /companies/{id}.
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	company, err := h.service.FindOne(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// UpdateCompany handles PATCH /companies/{id}; only the fields present in the
// body are changed.
func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var update models.CompanyUpdate
	if err := decodeBody(r, &update); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	updated, err := h.service.UpdateCompany(r.Context(), id, update)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteCompany handles DELETE /companies/{id}.
func (h *CompanyHandler) DeleteCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	affected, err := h.service.RemoveCompany(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"affected": affected})
}

// SoftDeleteCompany handles DELETE /companies/soft/{id}.
func (h *CompanyHandler) SoftDeleteCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.SoftRemoveCompany(r.Context(), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "company deleted"})
}

// SeedCompanies handles POST /seed/companies.
func (h *CompanyHandler) SeedCompanies(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	created, err := h.seeder.Seed(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "companies seeded successfully",
		"created": created,
	})
}
