package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"membership-platform/internal/infra/logging"
	"membership-platform/internal/usecase"
)

type planRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	DurationDays int      `json:"duration_days" validate:"min=0"`
	IsLifetime   bool     `json:"is_lifetime"`
	PriceMinor   int64    `json:"price_minor" validate:"min=0"`
	Perks        []string `json:"perks"`
}

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	plan, err := s.plans.Create(r.Context(), usecase.PlanInput{
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		IsLifetime:   req.IsLifetime,
		PriceMinor:   req.PriceMinor,
		Perks:        req.Perks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handlePlanUpdate(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	plan, err := s.plans.Update(r.Context(), chi.URLParam(r, "id"), usecase.PlanInput{
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		IsLifetime:   req.IsLifetime,
		PriceMinor:   req.PriceMinor,
		Perks:        req.Perks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanDelete(w http.ResponseWriter, r *http.Request) {
	actor := logging.AdminIDFrom(r.Context())
	if err := s.plans.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: plans})
}

type serviceRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	DurationDays int      `json:"duration_days" validate:"min=0"`
	PriceMinor   int64    `json:"price_minor" validate:"min=0"`
	Perks        []string `json:"perks"`
}

// listResponse wraps collection payloads so pagination metadata can be added
// without breaking clients.
type listResponse struct {
	Data any `json:"data"`
}

func (s *Server) handleServiceCreate(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	svc, err := s.services.Create(r.Context(), usecase.ServiceInput{
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		PriceMinor:   req.PriceMinor,
		Perks:        req.Perks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) handleServiceUpdate(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	svc, err := s.services.Update(r.Context(), chi.URLParam(r, "id"), usecase.ServiceInput{
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		PriceMinor:   req.PriceMinor,
		Perks:        req.Perks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleServiceDelete(w http.ResponseWriter, r *http.Request) {
	actor := logging.AdminIDFrom(r.Context())
	if err := s.services.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleServiceGet(w http.ResponseWriter, r *http.Request) {
	svc, err := s.services.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleServiceList(w http.ResponseWriter, r *http.Request) {
	svcs, err := s.services.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: svcs})
}
