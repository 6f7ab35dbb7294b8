package api

import (
	"net/http"

	"github.com/teampulse/pulse/internal/company"
)

type companiesHandler struct {
	companies CompanyService
}

func newCompaniesHandler(companies CompanyService) *companiesHandler {
	return &companiesHandler{companies: companies}
}

// Create handles POST /api/companies.
func (h *companiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in company.CreateCompanyInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.companies.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Get handles GET /api/companies/{id}.
func (h *companiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "company")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.companies.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
