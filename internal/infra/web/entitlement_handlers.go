package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"membership-platform/internal/domain/model"
	"membership-platform/internal/infra/logging"
)

type purchaseRequest struct {
	Phone    string `json:"phone" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	Method   string `json:"method" validate:"required,oneof=app admin offline"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type extendRequest struct {
	AdditionalDays int `json:"additional_days" validate:"required,min=1"`
}

func (s *Server) handleMembershipPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.memberships.Purchase(r.Context(), req.Phone, req.TargetID, model.PurchaseMethod(req.Method))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleMembershipGet(w http.ResponseWriter, r *http.Request) {
	m, err := s.memberships.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMembershipCancel(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.memberships.Cancel(r.Context(), chi.URLParam(r, "id"), logging.AdminIDFrom(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMembershipExtend(w http.ResponseWriter, r *http.Request) {
	var req extendRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.memberships.Extend(r.Context(), chi.URLParam(r, "id"), req.AdditionalDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMembershipRefund(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.memberships.Refund(r.Context(), chi.URLParam(r, "id"), logging.AdminIDFrom(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMembershipSoftDelete(w http.ResponseWriter, r *http.Request) {
	m, err := s.memberships.SoftDelete(r.Context(), chi.URLParam(r, "id"), logging.AdminIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMembershipRestore(w http.ResponseWriter, r *http.Request) {
	m, err := s.memberships.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMembershipPermanentDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.memberships.PermanentDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubscriptionPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sub, err := s.subscriptions.Purchase(r.Context(), req.Phone, req.TargetID, model.PurchaseMethod(req.Method))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleSubscriptionGet(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subscriptions.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionCancel(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sub, err := s.subscriptions.Cancel(r.Context(), chi.URLParam(r, "id"), logging.AdminIDFrom(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionExtend(w http.ResponseWriter, r *http.Request) {
	var req extendRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sub, err := s.subscriptions.Extend(r.Context(), chi.URLParam(r, "id"), req.AdditionalDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionRefund(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subscriptions.Refund(r.Context(), chi.URLParam(r, "id"), logging.AdminIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionSoftDelete(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subscriptions.SoftDelete(r.Context(), chi.URLParam(r, "id"), logging.AdminIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionRestore(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subscriptions.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionPermanentDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.subscriptions.PermanentDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMemberMemberships(w http.ResponseWriter, r *http.Request) {
	ms, err := s.memberships.ListByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: ms})
}

func (s *Server) handleMemberSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subscriptions.ListByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: subs})
}

// handleMemberActive answers the "is this person allowed in" question the
// front desk asks. Both entitlement kinds are consulted through the single
// active-lookup contract.
func (s *Server) handleMemberActive(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	m, err := s.memberships.FindActiveByPhone(r.Context(), phone)
	if err != nil {
		writeError(w, err)
		return
	}
	sub, err := s.subscriptions.FindActiveByPhone(r.Context(), phone)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Active       bool                           `json:"active"`
		Membership   *model.UserMembership          `json:"membership,omitempty"`
		Subscription *model.UserServiceSubscription `json:"subscription,omitempty"`
	}{
		Active:       m != nil || sub != nil,
		Membership:   m,
		Subscription: sub,
	})
}

func (s *Server) handleMemberPayments(w http.ResponseWriter, r *http.Request) {
	ps, err := s.payments.ListByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: ps})
}
