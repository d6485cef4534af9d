package controllers

import (
	"net/http"
	"strings"

	"github.com/aminufarouk/kiosa-backend/api/responses"
	"github.com/aminufarouk/kiosa-backend/api/validators"
	"github.com/aminufarouk/kiosa-backend/internal/cart"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/types"
)

type cartReplaceRequest struct {
	CustomerEmail string        `json:"customer_email" validate:"required,email"`
	Items         types.JSONMap `json:"items" validate:"required"`
}

// The storefront is guest-based, so cart rows are keyed by the customer's
// email rather than an account id.
func customerEmailParam(r *http.Request) (string, error) {
	email := strings.ToLower(validators.QueryString(r, "email"))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email query parameter required")
	}
	return email, nil
}

func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := customerEmailParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Get(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func CartReplace(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartReplaceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Replace(r.Context(), req.CustomerEmail, req.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := customerEmailParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), email); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"cleared": true})
	}
}
