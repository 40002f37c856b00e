package http

import (
	"log/slog"
	"net/http"

	"fincentiva-api/domain"
	"fincentiva-api/service"
)

type CompanyHandler struct {
	service *service.CompanyService
	logger  *slog.Logger
}

func NewCompanyHandler(service *service.CompanyService, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{service: service, logger: logger}
}

func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, companies)
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, company)
}

func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.Company
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	company, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("company created", "company_id", company.ID, "name", company.Name)
	writeJSON(w, h.logger, http.StatusCreated, company)
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input domain.Company
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	company, err := h.service.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, company)
}

func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
