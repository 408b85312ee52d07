package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"membership-platform/internal/domain/model"
	"membership-platform/internal/infra/logging"
	"membership-platform/internal/infra/metrics"
)

type submitRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=membership service club_join"`
	Phone      string `json:"phone" validate:"required"`
	TargetID   string `json:"target_id"`
	CouponCode string `json:"coupon_code"`
}

func (s *Server) handleRequestSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ar, err := s.approvals.Submit(r.Context(), model.RequestKind(req.Kind), req.Phone, req.TargetID, req.CouponCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ar)
}

func (s *Server) handleRequestList(w http.ResponseWriter, r *http.Request) {
	status := model.RequestStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.RequestStatusPending
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	requests, err := s.approvals.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: requests})
}

func (s *Server) handleRequestGet(w http.ResponseWriter, r *http.Request) {
	ar, err := s.approvals.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ar)
}

func (s *Server) handleRequestApprove(w http.ResponseWriter, r *http.Request) {
	ar, err := s.approvals.Approve(r.Context(), chi.URLParam(r, "id"), logging.AdminIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IncRequestDecided(string(ar.Kind), "approved")
	writeJSON(w, http.StatusOK, ar)
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (s *Server) handleRequestReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ar, err := s.approvals.Reject(r.Context(), chi.URLParam(r, "id"), logging.AdminIDFrom(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IncRequestDecided(string(ar.Kind), "rejected")
	writeJSON(w, http.StatusOK, ar)
}

func (s *Server) handleRequestWithdraw(w http.ResponseWriter, r *http.Request) {
	ar, err := s.approvals.Withdraw(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IncRequestDecided(string(ar.Kind), "withdrawn")
	writeJSON(w, http.StatusOK, ar)
}
