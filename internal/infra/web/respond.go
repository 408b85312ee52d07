package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"membership-platform/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type errorResponse struct {
	Error       string              `json:"error"`
	Fields      []domain.FieldError `json:"fields,omitempty"`
	ExistingID  string              `json:"existing_id,omitempty"`
	CanWithdraw bool                `json:"can_withdraw,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors onto HTTP statuses. Conflicts carry enough
// detail for the caller to offer withdraw-and-resubmit.
func writeError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: vErr.Fields})
		return
	}
	var cErr *domain.ConflictError
	if errors.As(err, &cErr) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:       cErr.Error(),
			ExistingID:  cErr.ExistingID,
			CanWithdraw: cErr.CanWithdraw,
		})
		return
	}
	var xErr *domain.ExternalServiceError
	if errors.As(err, &xErr) {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: xErr.Error()})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrPlanUnavailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyCancelled),
		errors.Is(err, domain.ErrRequestNotPending),
		errors.Is(err, domain.ErrNotDeleted),
		errors.Is(err, domain.ErrDuplicateOrder),
		errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeValid decodes a JSON body into dst and runs struct validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError("body", "malformed JSON")
	}
	if err := validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			out := &domain.ValidationError{}
			for _, f := range invalid {
				out.Fields = append(out.Fields, domain.FieldError{
					Field:   f.Field(),
					Message: "failed on " + f.Tag(),
				})
			}
			return out
		}
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}
